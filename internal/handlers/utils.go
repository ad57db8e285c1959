package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
)

// Transport-level error kinds, alongside the engine's.
const (
	kindBadRequest   game.ErrorKind = "bad_request"
	kindUnauthorized game.ErrorKind = "unauthorized"
	kindNoHistory    game.ErrorKind = "history_unavailable"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the same {"type":"error"} body the socket uses.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), errorMessage(err))
}

func writeFailure(w http.ResponseWriter, status int, kind game.ErrorKind, message string) {
	writeJSON(w, status, ServerMessage{Type: msgError, Kind: kind, Message: message})
}

// gameIDParam parses the {game_id} route parameter.
func gameIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "game_id"))
}
