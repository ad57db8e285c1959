// internal/database/actions_test.go
package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteWriteActionsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := sqliteFactory(t).(*SQLiteStore)
	gameID, actor := uuid.New(), uuid.New()
	now := time.Now().UnixMilli()

	records := []models.GameActionRecord{
		{GameID: gameID, ActionIndex: 2, ActorUserID: actor, ActionType: "draw_card", ActionPayload: map[string]interface{}{}, Timestamp: now},
		{GameID: gameID, ActionIndex: 1, ActorUserID: actor, ActionType: "play_card", ActionPayload: map[string]interface{}{"chosen_color": "red"}, Timestamp: now},
	}
	require.NoError(t, store.WriteActions(ctx, records))
	require.NoError(t, store.WriteActions(ctx, records[:1]))

	got, err := store.ListActions(ctx, gameID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ActionIndex)
	assert.Equal(t, "play_card", got[0].ActionType)
	assert.Equal(t, "red", got[0].ActionPayload["chosen_color"])
	assert.Equal(t, now, got[1].Timestamp)
}

func TestOpenSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "uno.db")
	store, err := Open(context.Background(), "sqlite", PostgresConfig{}, path)
	require.NoError(t, err)

	games, err := store.ListGames(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, games)
	store.Close()

	// migrations are skipped on reopen
	store, err = Open(context.Background(), "sqlite", PostgresConfig{}, path)
	require.NoError(t, err)
	store.Close()

	_, err = Open(context.Background(), "mysql", PostgresConfig{}, "")
	assert.Error(t, err)
}
