// internal/database/open.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
)

// Persistent is a durable game store that also holds the action log.
type Persistent interface {
	game.Store
	WriteActions(ctx context.Context, records []models.GameActionRecord) error
	ListActions(ctx context.Context, gameID uuid.UUID) ([]models.GameActionRecord, error)
	Close()
}

var (
	_ Persistent = (*PostgresStore)(nil)
	_ Persistent = (*SQLiteStore)(nil)
)

// Open connects to the "postgres" or "sqlite" driver and brings its schema up to date.
func Open(ctx context.Context, driver string, pg PostgresConfig, sqlitePath string) (Persistent, error) {
	switch driver {
	case "postgres":
		pool, err := ConnectDB(ctx, pg)
		if err != nil {
			return nil, err
		}
		if err := MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return NewPostgresStore(pool), nil
	case "sqlite":
		db, err := OpenSQLite(sqlitePath)
		if err != nil {
			return nil, err
		}
		if err := MigrateSQLite(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return NewSQLiteStore(db), nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", driver)
}

func (s *PostgresStore) Close() { s.pool.Close() }

func (s *SQLiteStore) Close() { _ = s.db.Close() }
