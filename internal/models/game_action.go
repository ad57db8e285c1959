// internal/models/game_action.go
package models

import "github.com/google/uuid"

// GameActionRecord is one applied action in a game's history. Records are queued in
// Redis by the server and written to the game_actions table by the historian.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorUserID   uuid.UUID              `json:"actor_user_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}
