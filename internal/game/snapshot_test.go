// internal/game/snapshot_test.go
package game

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotForPlayerHidesOtherHands(t *testing.T) {
	tb := newTable(t, 3, func(s *seed, p []uuid.UUID) {
		s.hand(p[0], models.SymbolFour, models.ColorBlue)
		s.hand(p[1], models.SymbolOne, models.ColorRed)
		s.hand(p[1], models.SymbolTwo, models.ColorRed)
		s.top(models.SymbolFive, models.ColorBlue)
		s.rest(-1, models.DeckOwner())
	}, nil)
	full := tb.snapshot(t)
	require.Len(t, full.PlayerHands, 3)

	view := full.ForPlayer(tb.players[1])
	require.Len(t, view.PlayerHands, 1)
	assert.Len(t, view.Hand(tb.players[1]), 2)
	assert.Empty(t, view.Hand(tb.players[0]))
	assert.Equal(t, []PlayerView{
		{ID: tb.players[0], CardCount: 1},
		{ID: tb.players[1], CardCount: 2},
		{ID: tb.players[2], CardCount: 0},
	}, view.Players)

	outsider := full.ForPlayer(uuid.New())
	assert.Empty(t, outsider.PlayerHands)
	assert.Len(t, full.PlayerHands, 3, "redaction must not touch the original")
}

func TestSnapshotJSONShape(t *testing.T) {
	tb := newTable(t, 2, func(s *seed, p []uuid.UUID) {
		s.hand(p[0], models.SymbolFour, models.ColorBlue)
		s.top(models.SymbolFive, models.ColorBlue)
		s.rest(-1, models.DeckOwner())
	}, nil)

	data, err := json.Marshal(tb.snapshot(t).ForPlayer(tb.players[0]))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	for _, key := range []string{
		"game_id", "state", "players", "player_hands", "current_player_id", "top_discard_card",
		"active_color", "pending_draw_count", "play_direction", "winner_id", "deck_size",
	} {
		assert.Contains(t, got, key)
	}
	top := got["top_discard_card"].(map[string]interface{})
	assert.Equal(t, "five", top["symbol"])
	assert.Equal(t, "blue", top["color"])
	assert.Contains(t, top, "id")
	assert.Contains(t, top, "card_id")
}
