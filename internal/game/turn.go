// internal/game/turn.go
package game

import "github.com/jason-s-yu/uno/internal/models"

// NextPlayerIndex moves 1+skipCount seats from currentIndex in the given direction
// and wraps the result into [0, playerCount).
func NextPlayerIndex(currentIndex, playerCount int, direction models.Direction, skipCount int) int {
	if playerCount <= 0 {
		return 0
	}
	moves := 1 + skipCount
	next := currentIndex + moves*int(direction)
	for next < 0 {
		next += playerCount
	}
	return next % playerCount
}

// turnStep returns the direction to store and the skip count to apply after a play.
// With two players a swap skips the opponent instead of reversing.
func turnStep(current models.Direction, symbol models.Symbol, eff Effects, playerCount int) (models.Direction, int) {
	if symbol == models.SymbolSwap && playerCount == 2 {
		return current, 1
	}
	return current * models.Direction(eff.DirectionMultiplier), eff.SkipCount
}
