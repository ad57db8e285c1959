// internal/handlers/messages.go
package handlers

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
)

// GameMessage is an inbound message on the game socket.
type GameMessage struct {
	Type string `json:"type"`

	// CardID and ChosenColor are read for play_card only.
	CardID      string `json:"card_id,omitempty"`
	ChosenColor string `json:"chosen_color,omitempty"`
}

// Outbound message types.
const (
	msgGameSync    = "game_sync"
	msgGameUpdated = "game_updated"
	msgError       = "error"
	msgPong        = "pong"
)

// ServerMessage is an outbound message on the game socket.
type ServerMessage struct {
	Type    string         `json:"type"`
	State   *game.Snapshot `json:"state,omitempty"`
	Kind    game.ErrorKind `json:"kind,omitempty"`
	Message string         `json:"message,omitempty"`
}

func gameUpdated(s *game.Snapshot) ServerMessage {
	return ServerMessage{Type: msgGameUpdated, State: s}
}

// errorMessage reports err by kind. Internal failures are not described to clients.
func errorMessage(err error) ServerMessage {
	kind := game.KindOf(err)
	msg := err.Error()
	if kind == game.KindInternal {
		msg = "internal error"
	}
	return ServerMessage{Type: msgError, Kind: kind, Message: msg}
}

// toAction converts an inbound message into an engine action.
func (m GameMessage) toAction() (game.Action, error) {
	switch game.ActionType(m.Type) {
	case game.ActionStart:
		return game.StartAction{}, nil
	case game.ActionDrawCard:
		return game.DrawCardAction{}, nil
	case game.ActionPlayCard:
		cardID, err := uuid.Parse(m.CardID)
		if err != nil {
			return nil, fmt.Errorf("invalid card_id %q", m.CardID)
		}
		a := game.PlayCardAction{CardID: cardID}
		if m.ChosenColor != "" {
			c, err := models.ParseColor(m.ChosenColor)
			if err != nil {
				return nil, err
			}
			a.ChosenColor = &c
		}
		return a, nil
	}
	return nil, fmt.Errorf("unknown action type %q", m.Type)
}
