// internal/database/sqlite_store.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/mattn/go-sqlite3"
)

// sqlQuerier is satisfied by both *sql.DB and *sql.Tx.
type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqliteTx struct {
	q sqlQuerier
}

// SQLiteStore persists games in a single SQLite file for single-node deployments.
type SQLiteStore struct {
	*sqliteTx
	db *sql.DB
}

var _ game.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{sqliteTx: &sqliteTx{q: db}, db: db}
}

func (s *SQLiteStore) RunInTx(ctx context.Context, fn func(tx game.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(&sqliteTx{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) CreateGame(ctx context.Context, g *models.Game) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	return s.RunInTx(ctx, func(gtx game.Tx) error {
		t := gtx.(*sqliteTx)
		_, err := t.q.ExecContext(ctx, `
			INSERT INTO games (
				id, name, created_by, max_players, state, current_player_id,
				play_direction, active_color, pending_draw_count, winner_id, action_count, created_at
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.Name, g.CreatedBy, g.MaxPlayers, string(g.State), nullUUID(g.CurrentPlayerID),
			int(g.Direction), colorString(g.ActiveColor), g.PendingDrawCount, g.WinnerID, g.ActionCount, g.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert game: %w", err)
		}
		for i, p := range g.Players {
			if _, err := t.q.ExecContext(ctx,
				`INSERT INTO game_players (game_id, user_id, turn_order) VALUES (?, ?, ?)`,
				g.ID, p, i,
			); err != nil {
				return fmt.Errorf("insert player %s: %w", p, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListGames(ctx context.Context, state models.GameState, limit int) ([]models.GameSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.state, g.max_players, g.created_by, g.created_at,
		       COALESCE((SELECT group_concat(user_id, ',') FROM (
		           SELECT user_id FROM game_players WHERE game_id = g.id ORDER BY turn_order
		       )), '')
		FROM games g
		WHERE (? = '' OR g.state = ?)
		ORDER BY g.created_at DESC
		LIMIT ?`, string(state), string(state), limit)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []models.GameSummary
	for rows.Next() {
		var (
			sum     models.GameSummary
			st      string
			players string
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &st, &sum.MaxPlayers, &sum.CreatedBy, &sum.CreatedAt, &players); err != nil {
			return nil, err
		}
		sum.State = models.GameState(st)
		var ids []string
		if players != "" {
			ids = strings.Split(players, ",")
		}
		if sum.Players, err = parseUUIDs(ids); err != nil {
			return nil, err
		}
		sum.PlayerCount = len(sum.Players)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) WriteActions(ctx context.Context, records []models.GameActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.RunInTx(ctx, func(gtx game.Tx) error {
		t := gtx.(*sqliteTx)
		for _, rec := range records {
			payload, err := json.Marshal(rec.ActionPayload)
			if err != nil {
				return fmt.Errorf("marshal payload: %w", err)
			}
			if _, err := t.q.ExecContext(ctx, `
				INSERT OR IGNORE INTO game_actions (game_id, action_index, actor_user_id, action_type, action_payload, created_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				rec.GameID, rec.ActionIndex, rec.ActorUserID, rec.ActionType, string(payload), time.UnixMilli(rec.Timestamp).UTC(),
			); err != nil {
				return fmt.Errorf("insert action: %w", err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListActions(ctx context.Context, gameID uuid.UUID) ([]models.GameActionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_id, action_index, actor_user_id, action_type, action_payload, created_at
		FROM game_actions
		WHERE game_id = ?
		ORDER BY action_index`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var out []models.GameActionRecord
	for rows.Next() {
		var (
			rec     models.GameActionRecord
			payload string
			at      time.Time
		)
		if err := rows.Scan(&rec.GameID, &rec.ActionIndex, &rec.ActorUserID, &rec.ActionType, &payload, &at); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &rec.ActionPayload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		rec.Timestamp = at.UnixMilli()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (t *sqliteTx) GetGame(ctx context.Context, gameID uuid.UUID) (*models.Game, error) {
	var (
		g         models.Game
		state     string
		current   uuid.NullUUID
		winner    uuid.NullUUID
		direction int
		color     sql.NullString
	)
	err := t.q.QueryRowContext(ctx, `
		SELECT id, name, created_by, max_players, state, current_player_id, play_direction,
		       active_color, pending_draw_count, winner_id, action_count, created_at
		FROM games
		WHERE id = ?`, gameID).Scan(
		&g.ID, &g.Name, &g.CreatedBy, &g.MaxPlayers, &state, &current, &direction,
		&color, &g.PendingDrawCount, &winner, &g.ActionCount, &g.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, game.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	g.State = models.GameState(state)
	g.Direction = models.Direction(direction)
	g.CurrentPlayerID = current.UUID
	if winner.Valid {
		w := winner.UUID
		g.WinnerID = &w
	}
	if color.Valid {
		c := models.Color(color.String)
		g.ActiveColor = &c
	}

	rows, err := t.q.QueryContext(ctx, `SELECT user_id FROM game_players WHERE game_id = ? ORDER BY turn_order`, gameID)
	if err != nil {
		return nil, fmt.Errorf("get players: %w", err)
	}
	defer rows.Close()
	g.Players = []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		g.Players = append(g.Players, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get players: %w", err)
	}
	return &g, nil
}

func (t *sqliteTx) UpdateGame(ctx context.Context, g *models.Game) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE games
		SET state = ?, current_player_id = ?, play_direction = ?, active_color = ?,
		    pending_draw_count = ?, winner_id = ?, action_count = ?
		WHERE id = ?`,
		string(g.State), nullUUID(g.CurrentPlayerID), int(g.Direction), colorString(g.ActiveColor),
		g.PendingDrawCount, g.WinnerID, g.ActionCount, g.ID,
	)
	if err != nil {
		return fmt.Errorf("update game: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return game.ErrGameNotFound
	}
	return nil
}

func (t *sqliteTx) AddPlayer(ctx context.Context, gameID, userID uuid.UUID) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO game_players (game_id, user_id, turn_order)
		SELECT ?, ?, COALESCE(MAX(turn_order), -1) + 1 FROM game_players WHERE game_id = ?`,
		gameID, userID, gameID)
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return game.ErrAlreadyJoined
		case sqlite3.ErrConstraintForeignKey:
			return game.ErrGameNotFound
		}
	}
	if err != nil {
		return fmt.Errorf("add player: %w", err)
	}
	return nil
}

func (t *sqliteTx) InsertCards(ctx context.Context, cards []models.CardInstance) error {
	for _, c := range cards {
		if _, err := t.q.ExecContext(ctx, `
			INSERT INTO game_cards (`+sqliteCardColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.GameID, c.Card.ID, string(c.Card.Symbol), string(c.Card.Color),
			string(c.Owner.Kind), ownerPlayer(c.Owner), c.Order,
		); err != nil {
			return fmt.Errorf("insert card: %w", err)
		}
	}
	return nil
}

const sqliteCardColumns = `id, game_id, card_id, symbol, color, owner_kind, owner_player_id, card_order`

func (t *sqliteTx) queryCards(ctx context.Context, q string, args ...any) ([]models.CardInstance, error) {
	rows, err := t.q.QueryContext(ctx, q, args...)
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
			player        uuid.NullUUID
		)
		if err := rows.Scan(&c.ID, &c.GameID, &c.Card.ID, &symbol, &color, &kind, &player, &c.Order); err != nil {
			return nil, err
		}
		c.Card.Symbol = models.Symbol(symbol)
		c.Card.Color = models.Color(color)
		c.Owner = models.Owner{Kind: models.OwnerKind(kind), PlayerID: player.UUID}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (t *sqliteTx) DeckCards(ctx context.Context, gameID uuid.UUID, limit int) ([]models.CardInstance, error) {
	if limit <= 0 {
		limit = -1
	}
	cards, err := t.queryCards(ctx, `
		SELECT `+sqliteCardColumns+`
		FROM game_cards
		WHERE game_id = ? AND owner_kind = 'deck'
		ORDER BY card_order
		LIMIT ?`, gameID, limit)
	if err != nil {
		return nil, fmt.Errorf("deck cards: %w", err)
	}
	return cards, nil
}

func (t *sqliteTx) AssignOwner(ctx context.Context, gameID uuid.UUID, owner models.Owner, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	args := []any{string(owner.Kind), ownerPlayer(owner), gameID}
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	res, err := t.q.ExecContext(ctx, `
		UPDATE game_cards
		SET owner_kind = ?, owner_player_id = ?
		WHERE game_id = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("assign owner: %w", err)
	}
	if n, _ := res.RowsAffected(); int(n) != len(ids) {
		return fmt.Errorf("assign owner: %d of %d cards found in game %s", n, len(ids), gameID)
	}
	return nil
}

func (t *sqliteTx) DiscardCard(ctx context.Context, gameID, instanceID uuid.UUID) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE game_cards
		SET owner_kind = 'discard', owner_player_id = NULL,
		    card_order = (SELECT COALESCE(MAX(card_order), 0) + 1 FROM game_cards WHERE game_id = ?)
		WHERE game_id = ? AND id = ?`, gameID, gameID, instanceID)
	if err != nil {
		return fmt.Errorf("discard card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("card %s not found in game %s", instanceID, gameID)
	}
	return nil
}

func (t *sqliteTx) GameCards(ctx context.Context, gameID uuid.UUID) ([]models.CardInstance, error) {
	cards, err := t.queryCards(ctx, `
		SELECT `+sqliteCardColumns+`
		FROM game_cards
		WHERE game_id = ?
		ORDER BY card_order`, gameID)
	if err != nil {
		return nil, fmt.Errorf("game cards: %w", err)
	}
	return cards, nil
}

func (t *sqliteTx) TopDiscard(ctx context.Context, gameID uuid.UUID) (*models.CardInstance, error) {
	cards, err := t.queryCards(ctx, `
		SELECT `+sqliteCardColumns+`
		FROM game_cards
		WHERE game_id = ? AND owner_kind = 'discard'
		ORDER BY card_order DESC
		LIMIT 1`, gameID)
	if err != nil {
		return nil, fmt.Errorf("top discard: %w", err)
	}
	if len(cards) == 0 {
		return nil, nil
	}
	return &cards[0], nil
}
