// cmd/historian/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

// The historian drains the action queue the server publishes to and stores each
// action in the game_actions table.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := cfg.NewLogger()

	if cfg.StoreDriver == config.DriverMemory {
		logger.Fatal("historian requires STORE_DRIVER=postgres or sqlite")
	}
	if cfg.RedisAddr == "" {
		logger.Fatal("historian requires REDIS_ADDR")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.StoreDriver, database.PostgresConfig{
		User:     cfg.PGUser,
		Password: cfg.PGPassword,
		Host:     cfg.PGHost,
		Port:     cfg.PGPort,
		Database: cfg.PGDatabase,
	}, cfg.SQLitePath)
	if err != nil {
		logger.WithError(err).Fatal("open store")
	}
	defer db.Close()

	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.WithError(err).Fatal("connect redis")
	}
	defer rdb.Close()

	svc := historian.New(
		historian.NewRedisSource(rdb, cfg.HistorianQueue),
		db,
		historian.Config{BatchSize: cfg.HistorianBatchSize, FlushInterval: cfg.HistorianFlush},
		logger.WithField("queue", cfg.HistorianQueue),
	)
	if err := svc.Run(ctx); err != nil {
		logger.WithError(err).Error("historian exited")
	}
}
