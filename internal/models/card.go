package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Color is a card color. Wild-type cards carry ColorNone until a color is chosen.
type Color string

const (
	ColorRed    Color = "R"
	ColorGreen  Color = "G"
	ColorBlue   Color = "B"
	ColorYellow Color = "Y"
	ColorNone   Color = ""
)

// Colors lists the four concrete colors a wild card may choose from.
var Colors = []Color{ColorRed, ColorGreen, ColorBlue, ColorYellow}

// Concrete reports whether c is one of the four playable colors.
func (c Color) Concrete() bool {
	switch c {
	case ColorRed, ColorGreen, ColorBlue, ColorYellow:
		return true
	}
	return false
}

// Kind identifies a card's rule behavior.
type Kind string

const (
	KindNumber       Kind = "number"
	KindSkip         Kind = "skip"
	KindReverse      Kind = "reverse"
	KindDrawTwo      Kind = "draw2"
	KindWild         Kind = "wild"
	KindWildDrawFour Kind = "wild4"
)

// Card is an immutable card value. ID is the unique instance identifier:
// two cards of the same color/kind/value (the deck holds duplicates) are
// still individually addressable by ID, which a hand needs when a player
// plays one of two identical cards.
type Card struct {
	ID    uuid.UUID `json:"id"`
	Color Color     `json:"color"`
	Kind  Kind      `json:"kind"`
	Value int       `json:"value"` // 0-9 for number cards, -1 otherwise
}

// IsWild reports whether the card is a wild-type card (playable on anything,
// requires a chosen color).
func (c *Card) IsWild() bool {
	return c.Kind == KindWild || c.Kind == KindWildDrawFour
}

// Label renders the card's face, e.g. "R5", "G-SKIP", "WILD4". Used for logs
// and match records; never for rule decisions.
func (c *Card) Label() string {
	switch c.Kind {
	case KindNumber:
		return fmt.Sprintf("%s%d", c.Color, c.Value)
	case KindWild:
		return "WILD"
	case KindWildDrawFour:
		return "WILD4"
	default:
		return fmt.Sprintf("%s-%s", c.Color, c.Kind)
	}
}
