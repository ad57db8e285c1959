// internal/database/store_test.go
package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) game.Store

func sqliteFactory(t *testing.T) game.Store {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, MigrateSQLite(context.Background(), db))
	return NewSQLiteStore(db)
}

func postgresFactory(t *testing.T) game.Store {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, MigratePostgres(ctx, pool))
	return NewPostgresStore(pool)
}

var factories = map[string]storeFactory{
	"memory":   func(*testing.T) game.Store { return game.NewMemoryStore() },
	"sqlite":   sqliteFactory,
	"postgres": postgresFactory,
}

func forEachStore(t *testing.T, fn func(t *testing.T, store game.Store)) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func createGame(t *testing.T, store game.Store, players ...uuid.UUID) *models.Game {
	t.Helper()
	g := &models.Game{
		ID:         uuid.New(),
		Name:       "store-test",
		CreatedBy:  players[0],
		MaxPlayers: 4,
		State:      models.GameStateLobby,
		Players:    players,
		Direction:  models.Clockwise,
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.CreateGame(context.Background(), g))
	return g
}

func TestStoreGameRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, store game.Store) {
		ctx := context.Background()
		p1, p2 := uuid.New(), uuid.New()
		g := createGame(t, store, p1)

		got, err := store.GetGame(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, g.Name, got.Name)
		assert.Equal(t, []uuid.UUID{p1}, got.Players)
		assert.Nil(t, got.ActiveColor)
		assert.Nil(t, got.WinnerID)

		require.NoError(t, store.AddPlayer(ctx, g.ID, p2))
		assert.ErrorIs(t, store.AddPlayer(ctx, g.ID, p2), game.ErrAlreadyJoined)

		red := models.ColorRed
		got.State = models.GameStateCompleted
		got.CurrentPlayerID = p2
		got.Direction = models.CounterClockwise
		got.ActiveColor = &red
		got.PendingDrawCount = 4
		got.WinnerID = &p2
		got.ActionCount = 9
		require.NoError(t, store.UpdateGame(ctx, got))

		again, err := store.GetGame(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{p1, p2}, again.Players)
		assert.Equal(t, models.GameStateCompleted, again.State)
		assert.Equal(t, p2, again.CurrentPlayerID)
		assert.Equal(t, models.CounterClockwise, again.Direction)
		require.NotNil(t, again.ActiveColor)
		assert.Equal(t, red, *again.ActiveColor)
		assert.Equal(t, 4, again.PendingDrawCount)
		require.NotNil(t, again.WinnerID)
		assert.Equal(t, p2, *again.WinnerID)
		assert.Equal(t, 9, again.ActionCount)

		_, err = store.GetGame(ctx, uuid.New())
		assert.ErrorIs(t, err, game.ErrGameNotFound)
	})
}

func TestStoreCardOwnership(t *testing.T) {
	forEachStore(t, func(t *testing.T, store game.Store) {
		ctx := context.Background()
		p1 := uuid.New()
		g := createGame(t, store, p1)

		var cards []models.CardInstance
		for i, c := range game.Catalog()[:6] {
			cards = append(cards, models.CardInstance{
				ID: uuid.New(), GameID: g.ID, Card: c, Owner: models.DeckOwner(), Order: 6 - i,
			})
		}
		require.NoError(t, store.InsertCards(ctx, cards))

		deck, err := store.DeckCards(ctx, g.ID, 2)
		require.NoError(t, err)
		require.Len(t, deck, 2)
		assert.Equal(t, cards[5].ID, deck[0].ID, "lowest order first")
		assert.Equal(t, cards[4].ID, deck[1].ID)

		require.NoError(t, store.AssignOwner(ctx, g.ID, models.PlayerOwner(p1), []uuid.UUID{deck[0].ID, deck[1].ID}))
		require.Error(t, store.AssignOwner(ctx, g.ID, models.PlayerOwner(p1), []uuid.UUID{uuid.New()}))

		top, err := store.TopDiscard(ctx, g.ID)
		require.NoError(t, err)
		assert.Nil(t, top)

		require.NoError(t, store.DiscardCard(ctx, g.ID, cards[0].ID))
		top, err = store.TopDiscard(ctx, g.ID)
		require.NoError(t, err)
		require.NotNil(t, top)
		assert.Equal(t, cards[0].ID, top.ID)
		assert.Equal(t, 7, top.Order)
		assert.Equal(t, cards[0].Card, top.Card)

		all, err := store.GameCards(ctx, g.ID)
		require.NoError(t, err)
		require.Len(t, all, 6)
		owners := map[models.OwnerKind]int{}
		for _, c := range all {
			owners[c.Owner.Kind]++
			if c.Owner.Kind == models.OwnerPlayer {
				assert.Equal(t, p1, c.Owner.PlayerID)
			}
		}
		assert.Equal(t, map[models.OwnerKind]int{models.OwnerDeck: 3, models.OwnerPlayer: 2, models.OwnerDiscard: 1}, owners)

		rest, err := store.DeckCards(ctx, g.ID, 0)
		require.NoError(t, err)
		assert.Len(t, rest, 3)
	})
}

func TestStoreRunInTxRollsBack(t *testing.T) {
	forEachStore(t, func(t *testing.T, store game.Store) {
		ctx := context.Background()
		p1 := uuid.New()
		g := createGame(t, store, p1)

		boom := errors.New("boom")
		err := store.RunInTx(ctx, func(tx game.Tx) error {
			got, err := tx.GetGame(ctx, g.ID)
			if err != nil {
				return err
			}
			got.State = models.GameStateActive
			if err := tx.UpdateGame(ctx, got); err != nil {
				return err
			}
			if err := tx.InsertCards(ctx, []models.CardInstance{{
				ID: uuid.New(), GameID: g.ID, Card: game.Catalog()[0], Owner: models.DeckOwner(), Order: 1,
			}}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := store.GetGame(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, models.GameStateLobby, got.State)
		cards, err := store.GameCards(ctx, g.ID)
		require.NoError(t, err)
		assert.Empty(t, cards)
	})
}

func TestStoreListGames(t *testing.T) {
	forEachStore(t, func(t *testing.T, store game.Store) {
		ctx := context.Background()
		first := createGame(t, store, uuid.New())
		time.Sleep(5 * time.Millisecond)
		second := createGame(t, store, uuid.New(), uuid.New())

		games, err := store.ListGames(ctx, models.GameStateLobby, 0)
		require.NoError(t, err)
		var ids []uuid.UUID
		for _, s := range games {
			ids = append(ids, s.ID)
			if s.ID == second.ID {
				assert.Equal(t, 2, s.PlayerCount)
				assert.Equal(t, second.Players, s.Players)
			}
		}
		assert.Contains(t, ids, first.ID)
		assert.Contains(t, ids, second.ID)

		newest, err := store.ListGames(ctx, models.GameStateLobby, 1)
		require.NoError(t, err)
		require.Len(t, newest, 1)
		assert.Equal(t, second.ID, newest[0].ID)

		none, err := store.ListGames(ctx, models.GameStateCompleted, 0)
		require.NoError(t, err)
		for _, s := range none {
			assert.NotEqual(t, first.ID, s.ID)
		}
	})
}

// TestEngineOnStores plays a short game through the engine against each store.
func TestEngineOnStores(t *testing.T) {
	forEachStore(t, func(t *testing.T, store game.Store) {
		ctx := context.Background()
		e := game.NewEngine(store, game.EngineConfig{})
		host, guest := uuid.New(), uuid.New()

		g, err := e.CreateGame(ctx, host, "", 2)
		require.NoError(t, err)
		_, err = e.JoinGame(ctx, g.ID, guest)
		require.NoError(t, err)
		snap, err := e.Start(ctx, g.ID, host)
		require.NoError(t, err)
		assert.Len(t, snap.Hand(host), game.HandSize)
		assert.Equal(t, game.CatalogSize()-2*game.HandSize-1, snap.DeckSize)

		_, err = e.DrawCard(ctx, g.ID, guest)
		assert.ErrorIs(t, err, game.ErrNotYourTurn)

		snap, err = e.DrawCard(ctx, g.ID, host)
		require.NoError(t, err)
		assert.Len(t, snap.Hand(host), game.HandSize+1)
		assert.Equal(t, guest, snap.CurrentPlayerID)

		reloaded, err := e.Snapshot(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, snap, reloaded)
	})
}
