// internal/game/errors.go
package game

import "errors"

// Rejections. Every one of these leaves persisted state untouched.
var (
	ErrNotYourTurn     = errors.New("not your turn")
	ErrGameOver        = errors.New("game is already over")
	ErrCardNotInHand   = errors.New("card not in your hand")
	ErrInvalidPlay     = errors.New("invalid card play")
	ErrMustChooseColor = errors.New("must choose a color for a wild card")
	ErrDeckExhausted   = errors.New("not enough cards left in deck")
	ErrGameNotInLobby  = errors.New("game is not in lobby")

	ErrGameNotFound     = errors.New("game not found")
	ErrGameNotActive    = errors.New("game has not started")
	ErrNotEnoughPlayers = errors.New("at least two players are required to start")
	ErrGameFull         = errors.New("game is full")
	ErrAlreadyJoined    = errors.New("player already joined this game")
	ErrNotAPlayer       = errors.New("user is not a player in this game")
	ErrInvalidSettings  = errors.New("invalid game settings")
)

// ErrorKind is the wire name of a rejection.
type ErrorKind string

const (
	KindNotYourTurn      ErrorKind = "not_your_turn"
	KindGameOver         ErrorKind = "game_over"
	KindCardNotInHand    ErrorKind = "card_not_in_hand"
	KindInvalidPlay      ErrorKind = "invalid_play"
	KindMustChooseColor  ErrorKind = "must_choose_color"
	KindDeckExhausted    ErrorKind = "deck_exhausted"
	KindGameNotInLobby   ErrorKind = "game_not_in_lobby"
	KindGameNotFound     ErrorKind = "game_not_found"
	KindGameNotActive    ErrorKind = "game_not_active"
	KindNotEnoughPlayers ErrorKind = "not_enough_players"
	KindGameFull         ErrorKind = "game_full"
	KindAlreadyJoined    ErrorKind = "already_joined"
	KindNotAPlayer       ErrorKind = "not_a_player"
	KindInvalidSettings  ErrorKind = "invalid_settings"
	KindInternal         ErrorKind = "internal"
)

var errorKinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrNotYourTurn, KindNotYourTurn},
	{ErrGameOver, KindGameOver},
	{ErrCardNotInHand, KindCardNotInHand},
	{ErrInvalidPlay, KindInvalidPlay},
	{ErrMustChooseColor, KindMustChooseColor},
	{ErrDeckExhausted, KindDeckExhausted},
	{ErrGameNotInLobby, KindGameNotInLobby},
	{ErrGameNotFound, KindGameNotFound},
	{ErrGameNotActive, KindGameNotActive},
	{ErrNotEnoughPlayers, KindNotEnoughPlayers},
	{ErrGameFull, KindGameFull},
	{ErrAlreadyJoined, KindAlreadyJoined},
	{ErrNotAPlayer, KindNotAPlayer},
	{ErrInvalidSettings, KindInvalidSettings},
}

// KindOf classifies err. Anything that is not a known rejection is internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.kind
		}
	}
	return KindInternal
}

// IsRejection reports whether err is a rule rejection rather than a storage failure.
func IsRejection(err error) bool {
	k := KindOf(err)
	return k != "" && k != KindInternal
}
