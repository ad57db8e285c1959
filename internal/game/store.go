// internal/game/store.go
package game

import (
	"context"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// Tx is the set of persistence operations the engine needs for one game.
// Inside Store.RunInTx the operations commit or roll back together.
type Tx interface {
	// GetGame returns the game with its ordered player list, or ErrGameNotFound.
	GetGame(ctx context.Context, gameID uuid.UUID) (*models.Game, error)
	// UpdateGame writes the mutable fields: state, current player, active color,
	// pending draw count, direction, winner and action count. Players are untouched.
	UpdateGame(ctx context.Context, g *models.Game) error
	// AddPlayer appends a user to the turn order.
	AddPlayer(ctx context.Context, gameID, userID uuid.UUID) error

	InsertCards(ctx context.Context, cards []models.CardInstance) error
	// DeckCards returns deck-owned instances by ascending order. limit <= 0 means all.
	DeckCards(ctx context.Context, gameID uuid.UUID, limit int) ([]models.CardInstance, error)
	AssignOwner(ctx context.Context, gameID uuid.UUID, owner models.Owner, instanceIDs []uuid.UUID) error
	// DiscardCard moves an instance to the discard pile on top of every other card.
	DiscardCard(ctx context.Context, gameID, instanceID uuid.UUID) error
	// GameCards returns every instance of the game by ascending order.
	GameCards(ctx context.Context, gameID uuid.UUID) ([]models.CardInstance, error)
	// TopDiscard returns the most recently discarded instance, or nil.
	TopDiscard(ctx context.Context, gameID uuid.UUID) (*models.CardInstance, error)
}

// Store is the persistence collaborator. Its embedded Tx methods run as single
// atomic statements outside of any action transaction.
type Store interface {
	Tx

	// CreateGame inserts the game together with its initial players.
	CreateGame(ctx context.Context, g *models.Game) error
	ListGames(ctx context.Context, state models.GameState, limit int) ([]models.GameSummary, error)

	// RunInTx runs fn atomically. If fn returns an error nothing it did is kept.
	RunInTx(ctx context.Context, fn func(tx Tx) error) error
}

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// IntN returns a non-negative random int in [0, n).
	IntN(n int) int
}
