// internal/models/card.go
package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Color is the color printed on a card. Black is reserved for wild cards.
type Color string

const (
	ColorBlue   Color = "blue"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorBlack  Color = "black"
)

// PlayableColors are the colors a player may name when playing a wild card.
var PlayableColors = []Color{ColorBlue, ColorYellow, ColorGreen, ColorRed}

// IsPlayable reports whether c can be chosen as the active color.
func (c Color) IsPlayable() bool {
	for _, pc := range PlayableColors {
		if c == pc {
			return true
		}
	}
	return false
}

// ParseColor converts a wire value into a Color, rejecting unknown values.
func ParseColor(s string) (Color, error) {
	c := Color(s)
	if c == ColorBlack || c.IsPlayable() {
		return c, nil
	}
	return "", fmt.Errorf("unknown color %q", s)
}

// Symbol is the face value of a card.
type Symbol string

const (
	SymbolZero     Symbol = "zero"
	SymbolOne      Symbol = "one"
	SymbolTwo      Symbol = "two"
	SymbolThree    Symbol = "three"
	SymbolFour     Symbol = "four"
	SymbolFive     Symbol = "five"
	SymbolSix      Symbol = "six"
	SymbolSeven    Symbol = "seven"
	SymbolEight    Symbol = "eight"
	SymbolNine     Symbol = "nine"
	SymbolSkip     Symbol = "skip"
	SymbolSwap     Symbol = "swap"
	SymbolPlusTwo  Symbol = "plus_two"
	SymbolPlusFour Symbol = "plus_four"
	SymbolWildcard Symbol = "wildcard"
)

// NumberSymbols lists zero through nine in ascending order.
var NumberSymbols = []Symbol{
	SymbolZero, SymbolOne, SymbolTwo, SymbolThree, SymbolFour,
	SymbolFive, SymbolSix, SymbolSeven, SymbolEight, SymbolNine,
}

// IsWild reports whether the symbol requires the player to choose a color.
func (s Symbol) IsWild() bool {
	return s == SymbolWildcard || s == SymbolPlusFour
}

// IsDraw reports whether the symbol adds to the pending draw count.
func (s Symbol) IsDraw() bool {
	return s == SymbolPlusTwo || s == SymbolPlusFour
}

// Card is an entry of the static card catalog. It is shared by every game.
type Card struct {
	ID     int    `json:"card_id"`
	Symbol Symbol `json:"symbol"`
	Color  Color  `json:"color"`
}

func (c Card) String() string {
	return string(c.Color) + " " + string(c.Symbol)
}

// OwnerKind tags who currently holds a card instance.
type OwnerKind string

const (
	OwnerDeck    OwnerKind = "deck"
	OwnerDiscard OwnerKind = "discard"
	OwnerPlayer  OwnerKind = "player"
)

// Owner identifies the holder of a card instance. PlayerID is only set for OwnerPlayer.
type Owner struct {
	Kind     OwnerKind `json:"kind"`
	PlayerID uuid.UUID `json:"player_id,omitempty"`
}

func DeckOwner() Owner    { return Owner{Kind: OwnerDeck} }
func DiscardOwner() Owner { return Owner{Kind: OwnerDiscard} }

func PlayerOwner(id uuid.UUID) Owner {
	return Owner{Kind: OwnerPlayer, PlayerID: id}
}

// IsPlayer reports whether the owner is the given player.
func (o Owner) IsPlayer(id uuid.UUID) bool {
	return o.Kind == OwnerPlayer && o.PlayerID == id
}

func (o Owner) String() string {
	if o.Kind == OwnerPlayer {
		return "player:" + o.PlayerID.String()
	}
	return string(o.Kind)
}

// CardInstance is one physical card inside one game.
type CardInstance struct {
	ID     uuid.UUID `json:"id"`
	GameID uuid.UUID `json:"game_id"`
	Card   Card      `json:"card"`
	Owner  Owner     `json:"owner"`
	// Order sets draw order for deck cards and recency for discards.
	Order int `json:"order"`
}
