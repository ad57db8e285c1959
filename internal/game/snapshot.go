// internal/game/snapshot.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// SnapshotCard is a card instance as seen by clients. The embedded catalog entry is
// flattened into the same JSON object.
type SnapshotCard struct {
	ID uuid.UUID `json:"id"`
	models.Card
}

// PlayerView is one seat of the turn order.
type PlayerView struct {
	ID        uuid.UUID `json:"id"`
	CardCount int       `json:"card_count"`
}

// Snapshot is the full state of a game after an action.
type Snapshot struct {
	GameID           uuid.UUID                    `json:"game_id"`
	Name             string                       `json:"name"`
	State            models.GameState             `json:"state"`
	MaxPlayers       int                          `json:"max_players"`
	Players          []PlayerView                 `json:"players"`
	PlayerHands      map[uuid.UUID][]SnapshotCard `json:"player_hands"`
	CurrentPlayerID  uuid.UUID                    `json:"current_player_id"`
	TopDiscardCard   *SnapshotCard                `json:"top_discard_card"`
	ActiveColor      *models.Color                `json:"active_color"`
	PendingDrawCount int                          `json:"pending_draw_count"`
	PlayDirection    models.Direction             `json:"play_direction"`
	WinnerID         *uuid.UUID                   `json:"winner_id"`
	DeckSize         int                          `json:"deck_size"`
	DiscardSize      int                          `json:"discard_size"`
	ActionCount      int                          `json:"action_count"`
}

// buildSnapshot assembles a snapshot from a game and all of its card instances, which
// must be sorted by ascending order.
func buildSnapshot(g *models.Game, cards []models.CardInstance) *Snapshot {
	s := &Snapshot{
		GameID:           g.ID,
		Name:             g.Name,
		State:            g.State,
		MaxPlayers:       g.MaxPlayers,
		Players:          make([]PlayerView, len(g.Players)),
		PlayerHands:      make(map[uuid.UUID][]SnapshotCard, len(g.Players)),
		CurrentPlayerID:  g.CurrentPlayerID,
		PendingDrawCount: g.PendingDrawCount,
		PlayDirection:    g.Direction,
		ActionCount:      g.ActionCount,
	}
	if g.ActiveColor != nil {
		c := *g.ActiveColor
		s.ActiveColor = &c
	}
	if g.WinnerID != nil {
		w := *g.WinnerID
		s.WinnerID = &w
	}
	for _, id := range g.Players {
		s.PlayerHands[id] = []SnapshotCard{}
	}

	for _, c := range cards {
		sc := SnapshotCard{ID: c.ID, Card: c.Card}
		switch c.Owner.Kind {
		case models.OwnerDeck:
			s.DeckSize++
		case models.OwnerDiscard:
			s.DiscardSize++
			top := sc
			s.TopDiscardCard = &top
		case models.OwnerPlayer:
			s.PlayerHands[c.Owner.PlayerID] = append(s.PlayerHands[c.Owner.PlayerID], sc)
		}
	}
	for i, id := range g.Players {
		s.Players[i] = PlayerView{ID: id, CardCount: len(s.PlayerHands[id])}
	}
	return s
}

// ForPlayer returns a copy that only carries the given user's own hand. Other seats
// still report their card counts through Players.
func (s *Snapshot) ForPlayer(userID uuid.UUID) *Snapshot {
	c := *s
	c.Players = append([]PlayerView(nil), s.Players...)
	c.PlayerHands = make(map[uuid.UUID][]SnapshotCard, 1)
	if hand, ok := s.PlayerHands[userID]; ok {
		c.PlayerHands[userID] = append([]SnapshotCard(nil), hand...)
	}
	return &c
}

// Hand returns the user's cards in the order they were dealt or drawn.
func (s *Snapshot) Hand(userID uuid.UUID) []SnapshotCard {
	return s.PlayerHands[userID]
}
