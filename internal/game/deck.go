// internal/game/deck.go
package game

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

type stdRNG struct{}

func (stdRNG) IntN(n int) int { return rand.IntN(n) }

// DeckManager owns card instance placement for a game: shuffling, dealing, drawing and
// discarding. It only acts through the Tx it is handed.
type DeckManager struct {
	rng RNG
}

// NewDeckManager builds a DeckManager. A nil rng uses math/rand/v2.
func NewDeckManager(rng RNG) *DeckManager {
	if rng == nil {
		rng = stdRNG{}
	}
	return &DeckManager{rng: rng}
}

// shuffledOrders returns a uniform random permutation of 1..n (Fisher-Yates).
func (d *DeckManager) shuffledOrders(n int) []int {
	orders := make([]int, n)
	for i := range orders {
		orders[i] = i + 1
	}
	for i := n - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		orders[i], orders[j] = orders[j], orders[i]
	}
	return orders
}

// CreateDeck materializes one deck-owned instance per catalog card in shuffled order.
func (d *DeckManager) CreateDeck(ctx context.Context, tx Tx, gameID uuid.UUID) ([]models.CardInstance, error) {
	cards := Catalog()
	orders := d.shuffledOrders(len(cards))

	instances := make([]models.CardInstance, len(cards))
	for i, c := range cards {
		instances[i] = models.CardInstance{
			ID:     uuid.New(),
			GameID: gameID,
			Card:   c,
			Owner:  models.DeckOwner(),
			Order:  orders[i],
		}
	}
	if err := tx.InsertCards(ctx, instances); err != nil {
		return nil, fmt.Errorf("insert deck: %w", err)
	}
	return instances, nil
}

// DealInitialHands gives each player, in turn order, the next handSize cards off the deck.
func (d *DeckManager) DealInitialHands(ctx context.Context, tx Tx, gameID uuid.UUID, players []uuid.UUID, handSize int) (map[uuid.UUID][]models.CardInstance, error) {
	cards, err := d.DrawCards(ctx, tx, gameID, len(players)*handSize)
	if err != nil {
		return nil, err
	}

	hands := make(map[uuid.UUID][]models.CardInstance, len(players))
	for i, playerID := range players {
		hand := cards[i*handSize : (i+1)*handSize]
		if err := d.AssignToPlayer(ctx, tx, gameID, playerID, hand); err != nil {
			return nil, err
		}
		hands[playerID] = hand
	}
	return hands, nil
}

// SetInitialDiscard turns the lowest-order deck card face up as the starting top card.
func (d *DeckManager) SetInitialDiscard(ctx context.Context, tx Tx, gameID uuid.UUID) (models.CardInstance, error) {
	cards, err := d.DrawCards(ctx, tx, gameID, 1)
	if err != nil {
		return models.CardInstance{}, err
	}
	if err := tx.AssignOwner(ctx, gameID, models.DiscardOwner(), []uuid.UUID{cards[0].ID}); err != nil {
		return models.CardInstance{}, fmt.Errorf("set initial discard: %w", err)
	}
	top := cards[0]
	top.Owner = models.DiscardOwner()
	return top, nil
}

// DrawCards returns the count lowest-order deck cards without changing their owner.
func (d *DeckManager) DrawCards(ctx context.Context, tx Tx, gameID uuid.UUID, count int) ([]models.CardInstance, error) {
	if count <= 0 {
		return nil, nil
	}
	cards, err := tx.DeckCards(ctx, gameID, count)
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	if len(cards) < count {
		return nil, ErrDeckExhausted
	}
	return cards, nil
}

// AssignToPlayer hands the given instances to a player.
func (d *DeckManager) AssignToPlayer(ctx context.Context, tx Tx, gameID, playerID uuid.UUID, cards []models.CardInstance) error {
	ids := make([]uuid.UUID, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	if err := tx.AssignOwner(ctx, gameID, models.PlayerOwner(playerID), ids); err != nil {
		return fmt.Errorf("assign cards to %s: %w", playerID, err)
	}
	return nil
}

// MoveToDiscard places an instance on top of the discard pile.
func (d *DeckManager) MoveToDiscard(ctx context.Context, tx Tx, gameID, instanceID uuid.UUID) error {
	if err := tx.DiscardCard(ctx, gameID, instanceID); err != nil {
		return fmt.Errorf("discard %s: %w", instanceID, err)
	}
	return nil
}
