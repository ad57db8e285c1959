// internal/handlers/game.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type userKey struct{}

// RequireUser rejects requests without a valid token and stores the user id in the
// request context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := auth.UserFromRequest(r)
		if err != nil {
			writeFailure(w, http.StatusUnauthorized, kindUnauthorized, "authentication failed")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, userID)))
	})
}

func userFrom(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(userKey{}).(uuid.UUID)
	return id
}

type createGameRequest struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"max_players"`
}

// CreateGameHandler handles POST /games. The caller takes the first seat.
func (gs *GameServer) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeFailure(w, http.StatusBadRequest, kindBadRequest, "invalid request payload")
		return
	}

	userID := userFrom(r)
	g, err := gs.Engine.CreateGame(r.Context(), userID, req.Name, req.MaxPlayers)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := gs.Engine.Snapshot(r.Context(), g.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap.ForPlayer(userID))
}

// ListGamesHandler handles GET /games?state=lobby&limit=50.
func (gs *GameServer) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	state := models.GameState(r.URL.Query().Get("state"))
	switch state {
	case "", models.GameStateLobby, models.GameStateActive, models.GameStateCompleted:
	default:
		writeFailure(w, http.StatusBadRequest, kindBadRequest, "unknown state "+strconv.Quote(string(state)))
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeFailure(w, http.StatusBadRequest, kindBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	games, err := gs.Engine.ListGames(r.Context(), state, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if games == nil {
		games = []models.GameSummary{}
	}
	writeJSON(w, http.StatusOK, games)
}

// GetGameHandler handles GET /games/{game_id} with the caller's view of the game.
func (gs *GameServer) GetGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := gameIDParam(r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, kindBadRequest, "invalid game_id")
		return
	}
	snap, err := gs.Engine.Snapshot(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap.ForPlayer(userFrom(r)))
}

// ActionsHandler handles GET /games/{game_id}/actions from the persisted action log.
func (gs *GameServer) ActionsHandler(w http.ResponseWriter, r *http.Request) {
	if gs.History == nil {
		writeFailure(w, http.StatusNotImplemented, kindNoHistory, "action history is not stored")
		return
	}
	gameID, err := gameIDParam(r)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, kindBadRequest, "invalid game_id")
		return
	}
	if _, err := gs.Engine.Snapshot(r.Context(), gameID); err != nil {
		writeError(w, err)
		return
	}
	records, err := gs.History.ListActions(r.Context(), gameID)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []models.GameActionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// ActionHandler serves POST /games/{game_id}/{join,start,play,draw}. decode builds the
// action from the request; the action runs through the game's dispatcher, so it is
// broadcast to the game's sockets like any other.
func (gs *GameServer) ActionHandler(decode func(r *http.Request) (game.Action, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := gameIDParam(r)
		if err != nil {
			writeFailure(w, http.StatusBadRequest, kindBadRequest, "invalid game_id")
			return
		}
		action, err := decode(r)
		if err != nil {
			writeFailure(w, http.StatusBadRequest, kindBadRequest, err.Error())
			return
		}

		userID := userFrom(r)
		out := gs.Submit(r.Context(), gameID, userID, action)
		if out.Err != nil {
			writeError(w, out.Err)
			return
		}
		writeJSON(w, http.StatusOK, out.Snapshot.ForPlayer(userID))
	}
}

func fixedAction(a game.Action) func(*http.Request) (game.Action, error) {
	return func(*http.Request) (game.Action, error) { return a, nil }
}

func decodePlay(r *http.Request) (game.Action, error) {
	var msg GameMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		return nil, errors.New("invalid request payload")
	}
	msg.Type = string(game.ActionPlayCard)
	return msg.toAction()
}

// HealthHandler handles GET /health.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
