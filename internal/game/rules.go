// internal/game/rules.go
package game

import "github.com/jason-s-yu/uno/internal/models"

// IsLegalPlay decides whether candidate may be played on top.
//
// While a draw is pending only another draw card may be played. Otherwise wilds are
// always legal and other cards must match the effective color or the top symbol.
// The effective color is activeColor when set, else the top card's own color.
func IsLegalPlay(candidate, top models.Card, activeColor *models.Color, pendingDrawCount int) bool {
	if pendingDrawCount > 0 {
		return candidate.Symbol.IsDraw()
	}
	if candidate.Symbol.IsWild() {
		return true
	}
	effective := top.Color
	if activeColor != nil {
		effective = *activeColor
	}
	return candidate.Color == effective || candidate.Symbol == top.Symbol
}
