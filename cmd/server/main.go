// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("server exited")
	}
}

func run(cfg config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.PrivateKeyPath != "" {
		if err := auth.InitFromPath(cfg.PrivateKeyPath, cfg.PublicKeyPath, cfg.TokenExpire); err != nil {
			return err
		}
	} else {
		if err := auth.Init(cfg.TokenExpire); err != nil {
			return err
		}
		logger.Warn("no auth keys configured, tokens are signed with a per-process key")
	}

	var (
		store   game.Store
		history handlers.ActionLister
	)
	if cfg.StoreDriver == config.DriverMemory {
		store = game.NewMemoryStore()
	} else {
		db, err := database.Open(ctx, cfg.StoreDriver, database.PostgresConfig{
			User:     cfg.PGUser,
			Password: cfg.PGPassword,
			Host:     cfg.PGHost,
			Port:     cfg.PGPort,
			Database: cfg.PGDatabase,
		}, cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		store, history = db, db
	}
	logger.Infof("using %s store", cfg.StoreDriver)

	engineCfg := game.EngineConfig{
		Logger:            logger,
		HandSize:          cfg.HandSize,
		DefaultMaxPlayers: cfg.DefaultMaxPlayers,
	}
	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		engineCfg.Recorder = cache.NewActionQueue(rdb, cfg.HistorianQueue)
		logger.Infof("publishing actions to redis queue %q", cfg.HistorianQueue)
	}

	engine := game.NewEngine(store, engineCfg)
	gs := handlers.NewGameServer(engine, cfg.WorkerIdleTimeout, logger)
	gs.History = history
	defer gs.Close()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handlers.NewRouter(gs, logger, handlers.RouterConfig{OriginPatterns: cfg.WSOriginPatterns}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Running on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
