// internal/game/history.go
package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// ActionRecorder receives every applied action. The server publishes them to Redis
// for the historian.
type ActionRecorder interface {
	Record(ctx context.Context, rec models.GameActionRecord) error
}

// recordTimeout bounds one publish to the recorder.
const recordTimeout = 2 * time.Second

// logAction publishes the record without blocking the action path.
func (e *Engine) logAction(g *models.Game, actorID uuid.UUID, action Action) {
	if e.recorder == nil {
		return
	}
	rec := models.GameActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.ActionCount,
		ActorUserID:   actorID,
		ActionType:    string(action.Type()),
		ActionPayload: action.payload(),
		Timestamp:     time.Now().UnixMilli(),
	}
	go func(rec models.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := e.recorder.Record(ctx, rec); err != nil {
			e.log.WithField("game_id", rec.GameID).WithError(err).
				Warnf("failed to record action %d", rec.ActionIndex)
		}
	}(rec)
}
