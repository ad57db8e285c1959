package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	t     *testing.T
	srv   *httptest.Server
	gs    *GameServer
	store *game.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	require.NoError(t, auth.Init(time.Hour))

	logger, _ := test.NewNullLogger()
	store := game.NewMemoryStore()
	engine := game.NewEngine(store, game.EngineConfig{Logger: logger})
	gs := NewGameServer(engine, time.Minute, logger)
	srv := httptest.NewServer(NewRouter(gs, logger, RouterConfig{}))
	t.Cleanup(func() {
		srv.Close()
		gs.Close()
	})
	return &testEnv{t: t, srv: srv, gs: gs, store: store}
}

func token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, err := auth.CreateJWT(userID)
	require.NoError(t, err)
	return tok
}

// do sends a request as userID (uuid.Nil sends no token) and returns the status and body.
func (e *testEnv) do(method, path string, userID uuid.UUID, body interface{}) (int, []byte) {
	e.t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.t, err)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	require.NoError(e.t, err)
	if userID != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+token(e.t, userID))
	}
	resp, err := e.srv.Client().Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, out
}

func (e *testEnv) snapshot(method, path string, userID uuid.UUID, body interface{}) *game.Snapshot {
	e.t.Helper()
	status, data := e.do(method, path, userID, body)
	require.Less(e.t, status, 300, string(data))
	var snap game.Snapshot
	require.NoError(e.t, json.Unmarshal(data, &snap))
	return &snap
}

func decodeError(t *testing.T, data []byte) ServerMessage {
	t.Helper()
	var msg ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, msgError, msg.Type)
	return msg
}

// startedGame creates a game for two fresh users, joins the second and starts it.
func (e *testEnv) startedGame() (uuid.UUID, uuid.UUID, uuid.UUID) {
	e.t.Helper()
	alice, bob := uuid.New(), uuid.New()
	created := e.snapshot(http.MethodPost, "/games", alice, map[string]interface{}{"name": "table"})
	e.snapshot(http.MethodPost, "/games/"+created.GameID.String()+"/join", bob, nil)
	started := e.snapshot(http.MethodPost, "/games/"+created.GameID.String()+"/start", alice, nil)
	require.Equal(e.t, alice, started.CurrentPlayerID)
	return created.GameID, alice, bob
}

func (e *testEnv) dial(gameID, userID uuid.UUID) *websocket.Conn {
	e.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/game/ws/" + gameID.String()
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{"game"},
		HTTPHeader:   http.Header{"Cookie": []string{auth.CookieName + "=" + token(e.t, userID)}},
	})
	require.NoError(e.t, err)
	e.t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return c
}

func readMessage(t *testing.T, c *websocket.Conn) ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := c.Read(ctx)
	require.NoError(t, err)
	var msg ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func send(t *testing.T, c *websocket.Conn, msg GameMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.Write(ctx, websocket.MessageText, data))
}

// legalMove picks a card the player may play, or reports false when they must draw.
func legalMove(s *game.Snapshot, userID uuid.UUID) (GameMessage, bool) {
	for _, c := range s.Hand(userID) {
		if game.IsLegalPlay(c.Card, s.TopDiscardCard.Card, s.ActiveColor, s.PendingDrawCount) {
			msg := GameMessage{Type: string(game.ActionPlayCard), CardID: c.ID.String()}
			if c.Symbol.IsWild() {
				msg.ChosenColor = "red"
			}
			return msg, true
		}
	}
	return GameMessage{}, false
}
