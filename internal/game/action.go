// internal/game/action.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// ActionType names an action on the wire and in the action log.
type ActionType string

const (
	ActionJoin     ActionType = "join"
	ActionStart    ActionType = "start"
	ActionPlayCard ActionType = "play_card"
	ActionDrawCard ActionType = "draw_card"
)

// Action is a mutating request against one game. The set of implementations is closed.
type Action interface {
	Type() ActionType
	payload() map[string]interface{}
}

// JoinAction seats the acting user in a lobby game.
type JoinAction struct{}

// StartAction deals the game and makes it active.
type StartAction struct{}

// PlayCardAction plays a card instance from the acting user's hand. ChosenColor is
// required for wild cards and ignored otherwise.
type PlayCardAction struct {
	CardID      uuid.UUID
	ChosenColor *models.Color
}

// DrawCardAction draws the pending count, or one card.
type DrawCardAction struct{}

func (JoinAction) Type() ActionType     { return ActionJoin }
func (StartAction) Type() ActionType    { return ActionStart }
func (PlayCardAction) Type() ActionType { return ActionPlayCard }
func (DrawCardAction) Type() ActionType { return ActionDrawCard }

func (JoinAction) payload() map[string]interface{}     { return map[string]interface{}{} }
func (StartAction) payload() map[string]interface{}    { return map[string]interface{}{} }
func (DrawCardAction) payload() map[string]interface{} { return map[string]interface{}{} }

func (a PlayCardAction) payload() map[string]interface{} {
	p := map[string]interface{}{"card_id": a.CardID}
	if a.ChosenColor != nil {
		p["chosen_color"] = *a.ChosenColor
	}
	return p
}

// Outcome is the result of one action: either the applied snapshot or the error that
// rejected it.
type Outcome struct {
	Snapshot *Snapshot
	Err      error
}

// Applied reports whether the action changed the game.
func (o Outcome) Applied() bool {
	return o.Err == nil && o.Snapshot != nil
}

// Kind is the wire name of the rejection, or empty when applied.
func (o Outcome) Kind() ErrorKind {
	return KindOf(o.Err)
}

func applied(s *Snapshot) Outcome { return Outcome{Snapshot: s} }
func rejected(err error) Outcome  { return Outcome{Err: err} }
