// internal/handlers/ws_codes.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/uno/internal/game"
)

// BadSubprotocolError closes a game socket opened without the "game" subprotocol.
// Auth, membership and unknown-game failures are answered with HTTP statuses before the upgrade.
const BadSubprotocolError websocket.StatusCode = 3000

// httpStatus maps an action error to the REST status code.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, game.ErrDispatcherClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}

	switch game.KindOf(err) {
	case game.KindGameNotFound:
		return http.StatusNotFound
	case game.KindNotAPlayer:
		return http.StatusForbidden
	case game.KindInvalidSettings, game.KindMustChooseColor:
		return http.StatusBadRequest
	case game.KindInvalidPlay, game.KindCardNotInHand:
		return http.StatusUnprocessableEntity
	case game.KindNotYourTurn, game.KindGameOver, game.KindGameNotInLobby, game.KindGameNotActive,
		game.KindNotEnoughPlayers, game.KindGameFull, game.KindAlreadyJoined, game.KindDeckExhausted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
