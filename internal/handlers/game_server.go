// internal/handlers/game_server.go
package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// sendBuffer is how many outbound messages a connection may have queued before it is
// dropped as too slow.
const sendBuffer = 32

const writeTimeout = 5 * time.Second

// ActionLister reads the persisted action log of a game.
type ActionLister interface {
	ListActions(ctx context.Context, gameID uuid.UUID) ([]models.GameActionRecord, error)
}

// client is one websocket connection attached to one game.
type client struct {
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
	// closed is guarded by GameServer.mu.
	closed bool
	// dropped is set once when the send buffer overflows; kick then runs exactly once.
	dropped atomic.Bool
	kick    func()
}

// GameServer owns the engine, the per-game dispatcher and the websocket connections of
// every game. Every applied action is fanned out to the game's connections in the order
// the dispatcher applied it.
type GameServer struct {
	Engine     *game.Engine
	Dispatcher *game.Dispatcher
	// History is optional; the actions route answers 404 without it.
	History ActionLister

	log logrus.FieldLogger
	// encode marshals outbound game updates.
	encode func(v any) ([]byte, error)

	mu    sync.RWMutex
	conns map[uuid.UUID]map[*client]struct{}
}

// NewGameServer wires a dispatcher in front of engine whose applied actions are
// broadcast to connected players.
func NewGameServer(engine *game.Engine, idle time.Duration, logger logrus.FieldLogger) *GameServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	gs := &GameServer{
		Engine: engine,
		log:    logger,
		encode: json.Marshal,
		conns:  make(map[uuid.UUID]map[*client]struct{}),
	}
	gs.Dispatcher = game.NewDispatcher(engine, gs.Broadcast, idle, logger)
	return gs
}

// Submit routes an action through the game's dispatcher.
func (gs *GameServer) Submit(ctx context.Context, gameID, userID uuid.UUID, action game.Action) game.Outcome {
	return gs.Dispatcher.Submit(ctx, gameID, userID, action)
}

// Broadcast sends each connection of the game its own redacted view of snap.
func (gs *GameServer) Broadcast(gameID uuid.UUID, snap *game.Snapshot) {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	for c := range gs.conns[gameID] {
		data, err := gs.encode(gameUpdated(snap.ForPlayer(c.userID)))
		if err != nil {
			gs.log.WithError(err).WithFields(logrus.Fields{"game_id": gameID, "user_id": c.userID}).
				Error("marshal game update")
			continue
		}
		gs.enqueue(c, data)
	}
}

// Connections returns the number of sockets attached to the game.
func (gs *GameServer) Connections(gameID uuid.UUID) int {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return len(gs.conns[gameID])
}

// Close stops the dispatcher and drops every connection.
func (gs *GameServer) Close() {
	gs.Dispatcher.Close()

	gs.mu.Lock()
	defer gs.mu.Unlock()
	for gameID, set := range gs.conns {
		for c := range set {
			c.close()
		}
		delete(gs.conns, gameID)
	}
}

func (gs *GameServer) register(gameID uuid.UUID, c *client) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	set, ok := gs.conns[gameID]
	if !ok {
		set = make(map[*client]struct{})
		gs.conns[gameID] = set
	}
	set[c] = struct{}{}
}

func (gs *GameServer) unregister(gameID uuid.UUID, c *client) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if set, ok := gs.conns[gameID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(gs.conns, gameID)
		}
	}
	c.close()
}

// enqueue never blocks the dispatcher. A connection whose buffer is full is kicked
// once and receives nothing further; its read loop unregisters it. Callers hold gs.mu.
func (gs *GameServer) enqueue(c *client, data []byte) {
	if c.closed || c.dropped.Load() {
		return
	}
	select {
	case c.send <- data:
	default:
		if c.dropped.CompareAndSwap(false, true) {
			gs.log.WithField("user_id", c.userID).Warn("dropping slow websocket client")
			c.kick()
		}
	}
}

func newClient(userID uuid.UUID, conn *websocket.Conn) *client {
	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	c.kick = func() {
		go conn.Close(websocket.StatusPolicyViolation, "too slow")
	}
	return c
}

// close ends the write loop. Callers hold gs.mu for writing.
func (c *client) close() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// writeLoop drains the send queue until it is closed or a write fails.
func (c *client) writeLoop(ctx context.Context, log logrus.FieldLogger) {
	for data := range c.send {
		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := c.conn.Write(writeCtx, websocket.MessageText, data)
		cancel()
		if err != nil {
			log.WithError(err).WithField("user_id", c.userID).Debug("websocket write failed")
			c.conn.Close(websocket.StatusInternalError, "write failed")
			return
		}
	}
}
