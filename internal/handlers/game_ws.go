// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/middleware"
	"github.com/sirupsen/logrus"
)

// GameWSHandler upgrades /game/ws/{game_id} to a websocket for a player of that game.
// The client first receives a game_sync with its view of the game, then a
// game_updated after every applied action. Rejected actions are answered with an
// error to this connection only.
func GameWSHandler(logger logrus.FieldLogger, gs *GameServer, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID, err := gameIDParam(r)
		if err != nil {
			http.Error(w, "Invalid game_id format", http.StatusBadRequest)
			return
		}
		userID, err := auth.UserFromRequest(r)
		if err != nil {
			http.Error(w, "Authentication failed", http.StatusUnauthorized)
			return
		}

		snap, err := gs.Engine.Snapshot(r.Context(), gameID)
		if err != nil {
			writeError(w, err)
			return
		}
		if !isPlayer(snap, userID) {
			writeError(w, game.ErrNotAPlayer)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"game"},
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warnf("WebSocket accept error for game %s: %v", gameID, err)
			return
		}
		if c.Subprotocol() != "game" {
			c.Close(BadSubprotocolError, "Client must use the 'game' subprotocol.")
			return
		}

		entry := logger.WithFields(logrus.Fields{"game_id": gameID, "user_id": userID})
		middleware.LogWebSocketConnect(entry, r.RemoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		cl := newClient(userID, c)
		gs.register(gameID, cl)
		go cl.writeLoop(ctx, entry)

		// Re-read after registering so no update falls between the sync and the first
		// broadcast. Clients order states by action_count.
		if fresh, err := gs.Engine.Snapshot(ctx, gameID); err == nil {
			snap = fresh
		}
		reply(gs, cl, ServerMessage{Type: msgGameSync, State: snap.ForPlayer(userID)})

		err = readGameMessages(ctx, gs, cl, gameID, entry)
		gs.unregister(gameID, cl)
		middleware.LogWebSocketDisconnect(entry, r.RemoteAddr, r.URL.Path, err)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

func isPlayer(s *game.Snapshot, userID uuid.UUID) bool {
	for _, p := range s.Players {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// readGameMessages reads actions until the connection closes. It returns nil on a
// normal closure.
func readGameMessages(ctx context.Context, gs *GameServer, cl *client, gameID uuid.UUID, logger logrus.FieldLogger) error {
	for {
		msgType, data, err := cl.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg GameMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			reply(gs, cl, ServerMessage{Type: msgError, Kind: kindBadRequest, Message: "Invalid JSON format."})
			continue
		}
		if msg.Type == "ping" {
			reply(gs, cl, ServerMessage{Type: msgPong})
			continue
		}

		action, err := msg.toAction()
		if err != nil {
			reply(gs, cl, ServerMessage{Type: msgError, Kind: kindBadRequest, Message: err.Error()})
			continue
		}

		logger.Debugf("Received action '%s'", msg.Type)
		out := gs.Submit(ctx, gameID, cl.userID, action)
		if out.Err != nil {
			if ctx.Err() != nil {
				return nil
			}
			reply(gs, cl, errorMessage(out.Err))
		}
	}
}

// reply queues a message for this connection only.
func reply(gs *GameServer, cl *client, msg ServerMessage) {
	data, err := gs.encode(msg)
	if err != nil {
		gs.log.WithError(err).WithField("user_id", cl.userID).Error("marshal reply")
		return
	}
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	gs.enqueue(cl, data)
}
