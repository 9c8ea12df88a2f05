package tracker

import "github.com/shopspring/decimal"

// State classifies the current price against a favorite's thresholds.
type State int

const (
	// NoFavorite means the active ticker has no favorite entry and the
	// default icon is shown.
	NoFavorite State = iota
	BelowLow
	AboveHigh
	Normal
)

func (s State) String() string {
	switch s {
	case BelowLow:
		return "below_low"
	case AboveHigh:
		return "above_high"
	case Normal:
		return "normal"
	default:
		return "no_favorite"
	}
}

// Opacity is the indicator intensity used to tint the favorite color.
// NoFavorite has no tint and returns 0.
func (s State) Opacity() float64 {
	switch s {
	case BelowLow:
		return 0.5
	case AboveHigh:
		return 1
	case Normal:
		return 0.2
	default:
		return 0
	}
}

// Classify checks the low bound first, so a price sitting on both bounds
// is BelowLow.
func Classify(value decimal.Decimal, low, high decimal.NullDecimal) State {
	if low.Valid && value.LessThanOrEqual(low.Decimal) {
		return BelowLow
	}
	if high.Valid && value.GreaterThanOrEqual(high.Decimal) {
		return AboveHigh
	}
	return Normal
}

// Direction of a price change between two consecutive observations.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// Arrow is the glyph rendered next to the percent change.
func (d Direction) Arrow() string {
	if d == Down {
		return "↓"
	}
	return "↑"
}
