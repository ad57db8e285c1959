// internal/game/helpers_test.go
package game

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// identityRNG never swaps, so a fresh deck is drawn in catalog order.
type identityRNG struct{}

func (identityRNG) IntN(n int) int { return n - 1 }

// seqRNG replays a fixed sequence, wrapping each value into range.
type seqRNG struct {
	vals []int
	i    int
}

func (r *seqRNG) IntN(n int) int {
	v := r.vals[r.i%len(r.vals)] % n
	r.i++
	return v
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []models.GameActionRecord
}

func (f *fakeRecorder) Record(_ context.Context, rec models.GameActionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeRecorder) all() []models.GameActionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.GameActionRecord(nil), f.records...)
}

func testLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func newTestEngine(store Store, rec ActionRecorder) *Engine {
	return NewEngine(store, EngineConfig{RNG: identityRNG{}, Recorder: rec, Logger: testLogger()})
}

// seed lays out the cards of an active game by hand. Every card is taken from the
// catalog so a seeded game always holds exactly one full set.
type seed struct {
	t         *testing.T
	gameID    uuid.UUID
	pool      []models.Card
	order     int
	instances []models.CardInstance
}

func newSeed(t *testing.T, gameID uuid.UUID) *seed {
	return &seed{t: t, gameID: gameID, pool: Catalog()}
}

func (s *seed) give(owner models.Owner, sym models.Symbol, color models.Color) uuid.UUID {
	s.t.Helper()
	for i, c := range s.pool {
		if c.Symbol == sym && c.Color == color {
			s.pool = append(s.pool[:i], s.pool[i+1:]...)
			s.order++
			inst := models.CardInstance{ID: uuid.New(), GameID: s.gameID, Card: c, Owner: owner, Order: s.order}
			s.instances = append(s.instances, inst)
			return inst.ID
		}
	}
	require.FailNowf(s.t, "catalog exhausted", "no %s %s left", color, sym)
	return uuid.Nil
}

func (s *seed) hand(player uuid.UUID, sym models.Symbol, color models.Color) uuid.UUID {
	return s.give(models.PlayerOwner(player), sym, color)
}

func (s *seed) top(sym models.Symbol, color models.Color) uuid.UUID {
	return s.give(models.DiscardOwner(), sym, color)
}

// rest places every remaining card: the first keepInDeck in the deck, the others with overflow.
func (s *seed) rest(keepInDeck int, overflow models.Owner) []models.CardInstance {
	for i, c := range s.pool {
		owner := models.DeckOwner()
		if keepInDeck >= 0 && i >= keepInDeck {
			owner = overflow
		}
		s.order++
		s.instances = append(s.instances, models.CardInstance{ID: uuid.New(), GameID: s.gameID, Card: c, Owner: owner, Order: s.order})
	}
	s.pool = nil
	return s.instances
}

type table struct {
	store   *MemoryStore
	engine  *Engine
	rec     *fakeRecorder
	game    *models.Game
	players []uuid.UUID
}

// newTable stores an active game with n players whose cards are laid out by layout.
// layout must call rest. Player 0 moves first, clockwise, unless mutate says otherwise.
func newTable(t *testing.T, n int, layout func(s *seed, players []uuid.UUID), mutate func(g *models.Game)) *table {
	t.Helper()
	ctx := context.Background()

	players := make([]uuid.UUID, n)
	for i := range players {
		players[i] = uuid.New()
	}
	g := &models.Game{
		ID:              uuid.New(),
		Name:            "test-table",
		CreatedBy:       players[0],
		MaxPlayers:      MaxPlayersLimit,
		State:           models.GameStateActive,
		Players:         players,
		CurrentPlayerID: players[0],
		Direction:       models.Clockwise,
	}
	if mutate != nil {
		mutate(g)
	}

	s := newSeed(t, g.ID)
	layout(s, players)
	require.Empty(t, s.pool, "layout must place every card")

	store := NewMemoryStore()
	require.NoError(t, store.CreateGame(ctx, g))
	require.NoError(t, store.InsertCards(ctx, s.instances))

	rec := &fakeRecorder{}
	return &table{store: store, engine: newTestEngine(store, rec), rec: rec, game: g, players: players}
}

func (tb *table) snapshot(t *testing.T) *Snapshot {
	t.Helper()
	snap, err := tb.engine.Snapshot(context.Background(), tb.game.ID)
	require.NoError(t, err)
	return snap
}

// requireConserved checks that the game still holds exactly one catalog of cards.
func requireConserved(t *testing.T, snap *Snapshot) {
	t.Helper()
	total := snap.DeckSize + snap.DiscardSize
	for _, p := range snap.Players {
		total += p.CardCount
	}
	require.Equal(t, CatalogSize(), total)
}

func colorPtr(c models.Color) *models.Color { return &c }
