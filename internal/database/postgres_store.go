// internal/database/postgres_store.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
)

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// pgTx implements game.Tx. Inside a transaction it locks the game row on read.
type pgTx struct {
	q         pgQuerier
	forUpdate bool
}

// PostgresStore persists games with pgx.
type PostgresStore struct {
	*pgTx
	pool *pgxpool.Pool
}

var _ game.Store = (*PostgresStore)(nil)

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pgTx: &pgTx{q: pool}, pool: pool}
}

// RunInTx runs fn inside one read-committed transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(tx game.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&pgTx{q: tx, forUpdate: true})
	})
}

func (s *PostgresStore) CreateGame(ctx context.Context, g *models.Game) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO games (
				id, name, created_by, max_players, state, current_player_id,
				play_direction, active_color, pending_draw_count, winner_id, action_count, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		if _, err := tx.Exec(ctx, q,
			g.ID, g.Name, g.CreatedBy, g.MaxPlayers, string(g.State), nullUUID(g.CurrentPlayerID),
			int(g.Direction), colorString(g.ActiveColor), g.PendingDrawCount, g.WinnerID, g.ActionCount, g.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert game: %w", err)
		}
		for i, p := range g.Players {
			if _, err := tx.Exec(ctx,
				`INSERT INTO game_players (game_id, user_id, turn_order) VALUES ($1, $2, $3)`,
				g.ID, p, i,
			); err != nil {
				return fmt.Errorf("insert player %s: %w", p, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) ListGames(ctx context.Context, state models.GameState, limit int) ([]models.GameSummary, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	q := `
		SELECT g.id, g.name, g.state, g.max_players, g.created_by, g.created_at,
		       COALESCE(array_agg(p.user_id::text ORDER BY p.turn_order) FILTER (WHERE p.user_id IS NOT NULL), '{}')
		FROM games g
		LEFT JOIN game_players p ON p.game_id = g.id
		WHERE ($1 = '' OR g.state = $1)
		GROUP BY g.id
		ORDER BY g.created_at DESC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, q, string(state), lim)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []models.GameSummary
	for rows.Next() {
		var (
			sum     models.GameSummary
			st      string
			players []string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &st, &sum.MaxPlayers, &sum.CreatedBy, &sum.CreatedAt, &players); err != nil {
			return nil, err
		}
		sum.State = models.GameState(st)
		if sum.Players, err = parseUUIDs(players); err != nil {
			return nil, err
		}
		sum.PlayerCount = len(sum.Players)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// WriteActions stores historian records. Records already written are skipped.
func (s *PostgresStore) WriteActions(ctx context.Context, records []models.GameActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range records {
			payload, err := json.Marshal(rec.ActionPayload)
			if err != nil {
				return fmt.Errorf("marshal payload: %w", err)
			}
			batch.Queue(`
				INSERT INTO game_actions (game_id, action_index, actor_user_id, action_type, action_payload, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (game_id, action_index) DO NOTHING
			`, rec.GameID, rec.ActionIndex, rec.ActorUserID, rec.ActionType, payload, time.UnixMilli(rec.Timestamp).UTC())
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// ListActions returns the recorded history of a game in action order.
func (s *PostgresStore) ListActions(ctx context.Context, gameID uuid.UUID) ([]models.GameActionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT game_id, action_index, actor_user_id, action_type, action_payload, created_at
		FROM game_actions
		WHERE game_id = $1
		ORDER BY action_index
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var out []models.GameActionRecord
	for rows.Next() {
		var (
			rec     models.GameActionRecord
			payload []byte
			at      time.Time
		)
		if err := rows.Scan(&rec.GameID, &rec.ActionIndex, &rec.ActorUserID, &rec.ActionType, &payload, &at); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(payload, &rec.ActionPayload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		rec.Timestamp = at.UnixMilli()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (t *pgTx) GetGame(ctx context.Context, gameID uuid.UUID) (*models.Game, error) {
	q := `
		SELECT id, name, created_by, max_players, state, current_player_id, play_direction,
		       active_color, pending_draw_count, winner_id, action_count, created_at
		FROM games
		WHERE id = $1
	`
	if t.forUpdate {
		q += " FOR UPDATE"
	}

	var (
		g         models.Game
		state     string
		current   *uuid.UUID
		direction int
		color     *string
	)
	err := t.q.QueryRow(ctx, q, gameID).Scan(
		&g.ID, &g.Name, &g.CreatedBy, &g.MaxPlayers, &state, &current, &direction,
		&color, &g.PendingDrawCount, &g.WinnerID, &g.ActionCount, &g.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	g.State = models.GameState(state)
	g.Direction = models.Direction(direction)
	if current != nil {
		g.CurrentPlayerID = *current
	}
	if color != nil {
		c := models.Color(*color)
		g.ActiveColor = &c
	}

	rows, err := t.q.Query(ctx, `SELECT user_id FROM game_players WHERE game_id = $1 ORDER BY turn_order`, gameID)
	if err != nil {
		return nil, fmt.Errorf("get players: %w", err)
	}
	g.Players, err = pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("get players: %w", err)
	}
	return &g, nil
}

func (t *pgTx) UpdateGame(ctx context.Context, g *models.Game) error {
	q := `
		UPDATE games
		SET state = $2, current_player_id = $3, play_direction = $4, active_color = $5,
		    pending_draw_count = $6, winner_id = $7, action_count = $8
		WHERE id = $1
	`
	tag, err := t.q.Exec(ctx, q,
		g.ID, string(g.State), nullUUID(g.CurrentPlayerID), int(g.Direction),
		colorString(g.ActiveColor), g.PendingDrawCount, g.WinnerID, g.ActionCount,
	)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrGameNotFound
	}
	return nil
}

func (t *pgTx) AddPlayer(ctx context.Context, gameID, userID uuid.UUID) error {
	q := `
		INSERT INTO game_players (game_id, user_id, turn_order)
		SELECT $1, $2, COALESCE(MAX(turn_order), -1) + 1 FROM game_players WHERE game_id = $1
	`
	_, err := t.q.Exec(ctx, q, gameID, userID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return game.ErrAlreadyJoined
		case "23503":
			return game.ErrGameNotFound
		}
	}
	if err != nil {
		return fmt.Errorf("add player: %w", err)
	}
	return nil
}

func (t *pgTx) InsertCards(ctx context.Context, cards []models.CardInstance) error {
	cols := []string{"id", "game_id", "card_id", "symbol", "color", "owner_kind", "owner_player_id", "card_order"}
	_, err := t.q.CopyFrom(ctx, pgx.Identifier{"game_cards"}, cols, pgx.CopyFromSlice(len(cards), func(i int) ([]any, error) {
		c := cards[i]
		return []any{
			c.ID, c.GameID, c.Card.ID, string(c.Card.Symbol), string(c.Card.Color),
			string(c.Owner.Kind), ownerPlayer(c.Owner), c.Order,
		}, nil
	}))
	if err != nil {
		return fmt.Errorf("copy cards: %w", err)
	}
	return nil
}

const pgCardColumns = `id, game_id, card_id, symbol, color, owner_kind, owner_player_id, card_order`

func (t *pgTx) queryCards(ctx context.Context, q string, args ...any) ([]models.CardInstance, error) {
	rows, err := t.q.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CardInstance
	for rows.Next() {
		var (
			c             models.CardInstance
			symbol, color string
			kind          string
			player        *uuid.UUID
		)
		if err := rows.Scan(&c.ID, &c.GameID, &c.Card.ID, &symbol, &color, &kind, &player, &c.Order); err != nil {
			return nil, err
		}
		c.Card.Symbol = models.Symbol(symbol)
		c.Card.Color = models.Color(color)
		c.Owner = models.Owner{Kind: models.OwnerKind(kind)}
		if player != nil {
			c.Owner.PlayerID = *player
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *pgTx) DeckCards(ctx context.Context, gameID uuid.UUID, limit int) ([]models.CardInstance, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	cards, err := t.queryCards(ctx, `
		SELECT `+pgCardColumns+`
		FROM game_cards
		WHERE game_id = $1 AND owner_kind = 'deck'
		ORDER BY card_order
		LIMIT $2
	`, gameID, lim)
	if err != nil {
		return nil, fmt.Errorf("deck cards: %w", err)
	}
	return cards, nil
}

func (t *pgTx) AssignOwner(ctx context.Context, gameID uuid.UUID, owner models.Owner, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}
	tag, err := t.q.Exec(ctx, `
		UPDATE game_cards
		SET owner_kind = $2, owner_player_id = $3
		WHERE game_id = $1 AND id = ANY($4::text[]::uuid[])
	`, gameID, string(owner.Kind), ownerPlayer(owner), strIDs)
	if err != nil {
		return fmt.Errorf("assign owner: %w", err)
	}
	if int(tag.RowsAffected()) != len(ids) {
		return fmt.Errorf("assign owner: %d of %d cards found in game %s", tag.RowsAffected(), len(ids), gameID)
	}
	return nil
}

func (t *pgTx) DiscardCard(ctx context.Context, gameID, instanceID uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE game_cards
		SET owner_kind = 'discard', owner_player_id = NULL,
		    card_order = (SELECT COALESCE(MAX(card_order), 0) + 1 FROM game_cards WHERE game_id = $1)
		WHERE game_id = $1 AND id = $2
	`, gameID, instanceID)
	if err != nil {
		return fmt.Errorf("discard card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card %s not found in game %s", instanceID, gameID)
	}
	return nil
}

func (t *pgTx) GameCards(ctx context.Context, gameID uuid.UUID) ([]models.CardInstance, error) {
	cards, err := t.queryCards(ctx, `
		SELECT `+pgCardColumns+`
		FROM game_cards
		WHERE game_id = $1
		ORDER BY card_order
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("game cards: %w", err)
	}
	return cards, nil
}

func (t *pgTx) TopDiscard(ctx context.Context, gameID uuid.UUID) (*models.CardInstance, error) {
	cards, err := t.queryCards(ctx, `
		SELECT `+pgCardColumns+`
		FROM game_cards
		WHERE game_id = $1 AND owner_kind = 'discard'
		ORDER BY card_order DESC
		LIMIT 1
	`, gameID)
	if err != nil {
		return nil, fmt.Errorf("top discard: %w", err)
	}
	if len(cards) == 0 {
		return nil, nil
	}
	return &cards[0], nil
}
