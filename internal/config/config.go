// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	HTTPAddr  string
	LogLevel  logrus.Level
	LogFormat string
	// WSOriginPatterns lists the cross-origin hosts allowed to open the game socket.
	WSOriginPatterns []string

	StoreDriver string
	PGUser      string
	PGPassword  string
	PGHost      string
	PGPort      string
	PGDatabase  string
	SQLitePath  string

	// RedisAddr empty disables the action log queue.
	RedisAddr          string
	RedisDB            int
	HistorianQueue     string
	HistorianBatchSize int
	HistorianFlush     time.Duration

	HandSize          int
	DefaultMaxPlayers int
	WorkerIdleTimeout time.Duration

	TokenExpire    time.Duration
	PrivateKeyPath string
	PublicKeyPath  string
}

// Load reads the environment into a Config and validates it.
func Load() (Config, error) {
	c := Config{
		HTTPAddr:       envOr("HTTP_ADDR", ":8080"),
		LogFormat:      envOr("LOG_FORMAT", "text"),
		StoreDriver:    envOr("STORE_DRIVER", DriverMemory),
		PGUser:         os.Getenv("POSTGRES_USER"),
		PGPassword:     os.Getenv("POSTGRES_PASSWORD"),
		PGHost:         envOr("PG_HOST", "localhost"),
		PGPort:         envOr("PG_PORT", "5432"),
		PGDatabase:     envOr("PG_DATABASE", "uno"),
		SQLitePath:     envOr("SQLITE_PATH", "./data/uno.db"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		HistorianQueue: envOr("HISTORIAN_QUEUE_NAME", "uno_actions"),
		PrivateKeyPath: os.Getenv("AUTH_PRIVATE_KEY_PATH"),
		PublicKeyPath:  os.Getenv("AUTH_PUBLIC_KEY_PATH"),
	}
	if port := os.Getenv("PORT"); port != "" {
		c.HTTPAddr = ":" + port
	}
	for _, p := range strings.Split(os.Getenv("WS_ORIGIN_PATTERNS"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			c.WSOriginPatterns = append(c.WSOriginPatterns, p)
		}
	}

	level, err := logrus.ParseLevel(envOr("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	c.LogLevel = level

	ints := []struct {
		key string
		def int
		dst *int
	}{
		{"REDIS_DB", 0, &c.RedisDB},
		{"HISTORIAN_BATCH_SIZE", 20, &c.HistorianBatchSize},
		{"HAND_SIZE", 7, &c.HandSize},
		{"DEFAULT_MAX_PLAYERS", 4, &c.DefaultMaxPlayers},
	}
	for _, i := range ints {
		if *i.dst, err = envInt(i.key, i.def); err != nil {
			return Config{}, err
		}
	}

	flushMs, err := envInt("HISTORIAN_FLUSH_MS", 500)
	if err != nil {
		return Config{}, err
	}
	c.HistorianFlush = time.Duration(flushMs) * time.Millisecond

	if c.WorkerIdleTimeout, err = envDuration("WORKER_IDLE_TIMEOUT", 10*time.Minute); err != nil {
		return Config{}, err
	}
	// "never" or "0" leaves tokens without an exp claim.
	if v := os.Getenv("TOKEN_EXPIRE_TIME"); v != "" && v != "never" && v != "0" {
		if c.TokenExpire, err = time.ParseDuration(v); err != nil {
			return Config{}, fmt.Errorf("invalid TOKEN_EXPIRE_TIME %q: %w", v, err)
		}
	}

	return c, c.validate()
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case DriverMemory, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}
	if c.HandSize < 1 {
		return fmt.Errorf("HAND_SIZE must be positive")
	}
	if c.DefaultMaxPlayers < 2 || c.DefaultMaxPlayers > 10 {
		return fmt.Errorf("DEFAULT_MAX_PLAYERS must be between 2 and 10")
	}
	if c.HistorianBatchSize < 1 {
		return fmt.Errorf("HISTORIAN_BATCH_SIZE must be positive")
	}
	if (c.PrivateKeyPath == "") != (c.PublicKeyPath == "") {
		return fmt.Errorf("AUTH_PRIVATE_KEY_PATH and AUTH_PUBLIC_KEY_PATH must be set together")
	}
	return nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	if strings.ToLower(c.LogFormat) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
