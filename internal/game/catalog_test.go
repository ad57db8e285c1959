// internal/game/catalog_test.go
package game

import (
	"testing"

	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogComposition(t *testing.T) {
	cards := Catalog()
	require.Len(t, cards, 108)
	assert.Equal(t, len(cards), CatalogSize())

	counts := map[models.Card]int{}
	for i, c := range cards {
		assert.Equal(t, i+1, c.ID)
		counts[models.Card{Symbol: c.Symbol, Color: c.Color}]++
	}

	doubled := []models.Symbol{models.SymbolSkip, models.SymbolSwap, models.SymbolPlusTwo}
	doubled = append(doubled, models.NumberSymbols[1:]...)
	for _, color := range models.PlayableColors {
		assert.Equal(t, 1, counts[card(models.SymbolZero, color)], "%s zero", color)
		for _, sym := range doubled {
			assert.Equal(t, 2, counts[card(sym, color)], "%s %s", color, sym)
		}
	}
	assert.Equal(t, 4, counts[card(models.SymbolWildcard, models.ColorBlack)])
	assert.Equal(t, 4, counts[card(models.SymbolPlusFour, models.ColorBlack)])
}

func TestCatalogIsCopied(t *testing.T) {
	cards := Catalog()
	cards[0].Color = models.ColorRed
	assert.Equal(t, models.ColorBlue, Catalog()[0].Color)

	c, ok := CardByID(108)
	require.True(t, ok)
	assert.Equal(t, models.ColorBlack, c.Color)
	_, ok = CardByID(0)
	assert.False(t, ok)
}
