// internal/models/game.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// GameState is the lifecycle stage of a game.
type GameState string

const (
	GameStateLobby     GameState = "lobby"
	GameStateActive    GameState = "active"
	GameStateCompleted GameState = "completed"
)

// Direction is the travel direction through the turn order.
type Direction int

const (
	Clockwise        Direction = 1
	CounterClockwise Direction = -1
)

// Game is the persisted record of a single game.
type Game struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	CreatedBy  uuid.UUID `json:"created_by"`
	MaxPlayers int       `json:"max_players"`
	State      GameState `json:"state"`

	// Players is the turn order, which is also join order.
	Players []uuid.UUID `json:"players"`

	CurrentPlayerID  uuid.UUID  `json:"current_player_id"`
	Direction        Direction  `json:"play_direction"`
	ActiveColor      *Color     `json:"active_color"`
	PendingDrawCount int        `json:"pending_draw_count"`
	WinnerID         *uuid.UUID `json:"winner_id"`

	// ActionCount is the index of the last applied action.
	ActionCount int       `json:"action_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// SeatOf returns the turn-order position of a player, or -1.
func (g *Game) SeatOf(userID uuid.UUID) int {
	for i, id := range g.Players {
		if id == userID {
			return i
		}
	}
	return -1
}

// HasPlayer reports whether the user has joined the game.
func (g *Game) HasPlayer(userID uuid.UUID) bool {
	return g.SeatOf(userID) >= 0
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (g *Game) Clone() *Game {
	c := *g
	c.Players = append([]uuid.UUID(nil), g.Players...)
	if g.ActiveColor != nil {
		ac := *g.ActiveColor
		c.ActiveColor = &ac
	}
	if g.WinnerID != nil {
		w := *g.WinnerID
		c.WinnerID = &w
	}
	return &c
}

// GameSummary is a row of the game listing.
type GameSummary struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	State       GameState   `json:"state"`
	MaxPlayers  int         `json:"max_players"`
	PlayerCount int         `json:"player_count"`
	Players     []uuid.UUID `json:"players"`
	CreatedBy   uuid.UUID   `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
}
