package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/middleware"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	// RequestTimeout bounds REST requests. The websocket route is not bounded.
	RequestTimeout time.Duration
	// OriginPatterns are passed to websocket.Accept. Empty allows same-origin only.
	OriginPatterns []string
}

// NewRouter mounts the REST routes and the game socket.
func NewRouter(gs *GameServer, logger logrus.FieldLogger, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.LogMiddleware(logger))

	r.Get("/health", HealthHandler)
	r.Get("/game/ws/{game_id}", GameWSHandler(logger, gs, cfg.OriginPatterns))

	r.Route("/games", func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
		r.Use(RequireUser)

		r.Post("/", gs.CreateGameHandler)
		r.Get("/", gs.ListGamesHandler)
		r.Route("/{game_id}", func(r chi.Router) {
			r.Get("/", gs.GetGameHandler)
			r.Get("/actions", gs.ActionsHandler)
			r.Post("/join", gs.ActionHandler(fixedAction(game.JoinAction{})))
			r.Post("/start", gs.ActionHandler(fixedAction(game.StartAction{})))
			r.Post("/play", gs.ActionHandler(decodePlay))
			r.Post("/draw", gs.ActionHandler(fixedAction(game.DrawCardAction{})))
		})
	})
	return r
}
