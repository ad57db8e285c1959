// internal/game/effects.go
package game

import "github.com/jason-s-yu/uno/internal/models"

// Effects is the state change caused by playing one card.
type Effects struct {
	ActiveColor         models.Color
	PendingDrawCount    int
	DirectionMultiplier int
	SkipCount           int
}

// ResolveEffects maps a played card to its effects. Wild cards need a playable chosen
// color; non-wild cards always set the active color to their own color. Any card that
// does not draw clears the pending draw count.
func ResolveEffects(symbol models.Symbol, cardColor models.Color, chosen *models.Color, currentPendingDraws int) (Effects, error) {
	eff := Effects{
		ActiveColor:         cardColor,
		PendingDrawCount:    0,
		DirectionMultiplier: 1,
	}

	switch symbol {
	case models.SymbolPlusTwo:
		eff.PendingDrawCount = currentPendingDraws + 2
	case models.SymbolPlusFour, models.SymbolWildcard:
		if chosen == nil || !chosen.IsPlayable() {
			return Effects{}, ErrMustChooseColor
		}
		eff.ActiveColor = *chosen
		if symbol == models.SymbolPlusFour {
			eff.PendingDrawCount = currentPendingDraws + 4
		}
	case models.SymbolSkip:
		eff.SkipCount = 1
	case models.SymbolSwap:
		eff.DirectionMultiplier = -1
	}
	return eff, nil
}
