// internal/game/catalog.go
package game

import "github.com/jason-s-yu/uno/internal/models"

// HandSize is the number of cards dealt to each player at start.
const HandSize = 7

var catalog = buildCatalog()

// buildCatalog lays out the fixed card set: per color one zero and two of each other
// colored symbol, then four wildcards and four plus-fours in black.
func buildCatalog() []models.Card {
	twice := append(append([]models.Symbol{}, models.NumberSymbols[1:]...),
		models.SymbolSkip, models.SymbolSwap, models.SymbolPlusTwo)

	var cards []models.Card
	add := func(s models.Symbol, c models.Color) {
		cards = append(cards, models.Card{ID: len(cards) + 1, Symbol: s, Color: c})
	}
	for _, color := range models.PlayableColors {
		add(models.SymbolZero, color)
		for _, s := range twice {
			add(s, color)
			add(s, color)
		}
	}
	for i := 0; i < 4; i++ {
		add(models.SymbolWildcard, models.ColorBlack)
		add(models.SymbolPlusFour, models.ColorBlack)
	}
	return cards
}

// Catalog returns a copy of the full card set for one game.
func Catalog() []models.Card {
	return append([]models.Card(nil), catalog...)
}

// CatalogSize is the number of card instances in every game.
func CatalogSize() int {
	return len(catalog)
}

// CardByID looks up a catalog entry.
func CardByID(id int) (models.Card, bool) {
	if id < 1 || id > len(catalog) {
		return models.Card{}, false
	}
	return catalog[id-1], true
}
