// internal/game/memory_store.go
package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// memRecord is one committed version of a game. Committed records are never mutated;
// a commit swaps in a new record that shares the same txLock.
type memRecord struct {
	txLock *sync.Mutex
	game   *models.Game
	cards  []models.CardInstance
}

func (r *memRecord) clone() *memRecord {
	return &memRecord{
		txLock: r.txLock,
		game:   r.game.Clone(),
		cards:  append([]models.CardInstance(nil), r.cards...),
	}
}

// MemoryStore keeps games in process memory. Transactions stage copies of every game
// they touch and swap them in only when the callback succeeds. A transaction holds the
// lock of each game it touches until it ends, so transactions on different games run in
// parallel. Reads outside a transaction see the last committed version.
type MemoryStore struct {
	// mu guards the games map only.
	mu    sync.RWMutex
	games map[uuid.UUID]*memRecord
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[uuid.UUID]*memRecord),
	}
}

func (s *MemoryStore) CreateGame(_ context.Context, g *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[g.ID]; exists {
		return fmt.Errorf("game %s already exists", g.ID)
	}
	stored := g.Clone()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	s.games[g.ID] = &memRecord{txLock: &sync.Mutex{}, game: stored}
	return nil
}

func (s *MemoryStore) ListGames(_ context.Context, state models.GameState, limit int) ([]models.GameSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.GameSummary
	for _, rec := range s.games {
		g := rec.game
		if state != "" && g.State != state {
			continue
		}
		out = append(out, models.GameSummary{
			ID:          g.ID,
			Name:        g.Name,
			State:       g.State,
			MaxPlayers:  g.MaxPlayers,
			PlayerCount: len(g.Players),
			Players:     append([]uuid.UUID(nil), g.Players...),
			CreatedBy:   g.CreatedBy,
			CreatedAt:   g.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RunInTx runs fn with the games it touches locked against other transactions.
func (s *MemoryStore) RunInTx(_ context.Context, fn func(tx Tx) error) error {
	tx := &memTx{store: s, staged: make(map[uuid.UUID]*memRecord), locking: true}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range tx.staged {
		s.games[id] = rec
	}
	return nil
}

func (s *MemoryStore) read(fn func(tx *memTx) error) error {
	return fn(&memTx{store: s, staged: make(map[uuid.UUID]*memRecord)})
}

func (s *MemoryStore) committed(gameID uuid.UUID) (*memRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.games[gameID]
	return rec, ok
}

func (s *MemoryStore) write(ctx context.Context, fn func(tx Tx) error) error {
	return s.RunInTx(ctx, fn)
}

func (s *MemoryStore) GetGame(ctx context.Context, gameID uuid.UUID) (g *models.Game, err error) {
	err = s.read(func(tx *memTx) error {
		g, err = tx.GetGame(ctx, gameID)
		return err
	})
	return g, err
}

func (s *MemoryStore) UpdateGame(ctx context.Context, g *models.Game) error {
	return s.write(ctx, func(tx Tx) error { return tx.UpdateGame(ctx, g) })
}

func (s *MemoryStore) AddPlayer(ctx context.Context, gameID, userID uuid.UUID) error {
	return s.write(ctx, func(tx Tx) error { return tx.AddPlayer(ctx, gameID, userID) })
}

func (s *MemoryStore) InsertCards(ctx context.Context, cards []models.CardInstance) error {
	return s.write(ctx, func(tx Tx) error { return tx.InsertCards(ctx, cards) })
}

func (s *MemoryStore) DeckCards(ctx context.Context, gameID uuid.UUID, limit int) (cards []models.CardInstance, err error) {
	err = s.read(func(tx *memTx) error {
		cards, err = tx.DeckCards(ctx, gameID, limit)
		return err
	})
	return cards, err
}

func (s *MemoryStore) AssignOwner(ctx context.Context, gameID uuid.UUID, owner models.Owner, ids []uuid.UUID) error {
	return s.write(ctx, func(tx Tx) error { return tx.AssignOwner(ctx, gameID, owner, ids) })
}

func (s *MemoryStore) DiscardCard(ctx context.Context, gameID, instanceID uuid.UUID) error {
	return s.write(ctx, func(tx Tx) error { return tx.DiscardCard(ctx, gameID, instanceID) })
}

func (s *MemoryStore) GameCards(ctx context.Context, gameID uuid.UUID) (cards []models.CardInstance, err error) {
	err = s.read(func(tx *memTx) error {
		cards, err = tx.GameCards(ctx, gameID)
		return err
	})
	return cards, err
}

func (s *MemoryStore) TopDiscard(ctx context.Context, gameID uuid.UUID) (top *models.CardInstance, err error) {
	err = s.read(func(tx *memTx) error {
		top, err = tx.TopDiscard(ctx, gameID)
		return err
	})
	return top, err
}

// memTx reads through to the store and writes to staged copies. A locking tx takes
// each game's txLock on first touch and holds it until release.
type memTx struct {
	store   *MemoryStore
	staged  map[uuid.UUID]*memRecord
	locking bool
	held    []*sync.Mutex
}

func (tx *memTx) record(gameID uuid.UUID) (*memRecord, error) {
	if rec, ok := tx.staged[gameID]; ok {
		return rec, nil
	}
	base, ok := tx.store.committed(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}
	if tx.locking {
		base.txLock.Lock()
		tx.held = append(tx.held, base.txLock)
		// another transaction may have committed while we waited
		base, _ = tx.store.committed(gameID)
	}
	rec := base.clone()
	tx.staged[gameID] = rec
	return rec, nil
}

func (tx *memTx) release() {
	for _, l := range tx.held {
		l.Unlock()
	}
	tx.held = nil
}

func (tx *memTx) GetGame(_ context.Context, gameID uuid.UUID) (*models.Game, error) {
	rec, err := tx.record(gameID)
	if err != nil {
		return nil, err
	}
	return rec.game.Clone(), nil
}

func (tx *memTx) UpdateGame(_ context.Context, g *models.Game) error {
	rec, err := tx.record(g.ID)
	if err != nil {
		return err
	}
	players := rec.game.Players
	rec.game = g.Clone()
	rec.game.Players = players
	return nil
}

func (tx *memTx) AddPlayer(_ context.Context, gameID, userID uuid.UUID) error {
	rec, err := tx.record(gameID)
	if err != nil {
		return err
	}
	if rec.game.HasPlayer(userID) {
		return ErrAlreadyJoined
	}
	rec.game.Players = append(rec.game.Players, userID)
	return nil
}

func (tx *memTx) InsertCards(_ context.Context, cards []models.CardInstance) error {
	for _, c := range cards {
		rec, err := tx.record(c.GameID)
		if err != nil {
			return err
		}
		rec.cards = append(rec.cards, c)
	}
	return nil
}

func (tx *memTx) sorted(gameID uuid.UUID, keep func(models.CardInstance) bool) ([]models.CardInstance, error) {
	rec, err := tx.record(gameID)
	if err != nil {
		return nil, err
	}
	var out []models.CardInstance
	for _, c := range rec.cards {
		if keep == nil || keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (tx *memTx) DeckCards(_ context.Context, gameID uuid.UUID, limit int) ([]models.CardInstance, error) {
	out, err := tx.sorted(gameID, func(c models.CardInstance) bool { return c.Owner.Kind == models.OwnerDeck })
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (tx *memTx) AssignOwner(_ context.Context, gameID uuid.UUID, owner models.Owner, ids []uuid.UUID) error {
	rec, err := tx.record(gameID)
	if err != nil {
		return err
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	moved := 0
	for i := range rec.cards {
		if want[rec.cards[i].ID] {
			rec.cards[i].Owner = owner
			moved++
		}
	}
	if moved != len(want) {
		return fmt.Errorf("assign owner: %d of %d cards found in game %s", moved, len(want), gameID)
	}
	return nil
}

func (tx *memTx) DiscardCard(_ context.Context, gameID, instanceID uuid.UUID) error {
	rec, err := tx.record(gameID)
	if err != nil {
		return err
	}
	maxOrder, idx := 0, -1
	for i, c := range rec.cards {
		if c.Order > maxOrder {
			maxOrder = c.Order
		}
		if c.ID == instanceID {
			idx = i
		}
	}
	if idx < 0 {
		return fmt.Errorf("card %s not found in game %s", instanceID, gameID)
	}
	rec.cards[idx].Owner = models.DiscardOwner()
	rec.cards[idx].Order = maxOrder + 1
	return nil
}

func (tx *memTx) GameCards(_ context.Context, gameID uuid.UUID) ([]models.CardInstance, error) {
	return tx.sorted(gameID, nil)
}

func (tx *memTx) TopDiscard(_ context.Context, gameID uuid.UUID) (*models.CardInstance, error) {
	discards, err := tx.sorted(gameID, func(c models.CardInstance) bool { return c.Owner.Kind == models.OwnerDiscard })
	if err != nil {
		return nil, err
	}
	if len(discards) == 0 {
		return nil, nil
	}
	top := discards[len(discards)-1]
	return &top, nil
}
