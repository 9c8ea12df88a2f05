package favorites

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidNumber is returned for non-numeric threshold input. Callers
// keep the previous value.
var ErrInvalidNumber = errors.New("invalid number")

// ParseThreshold turns user input into an optional threshold. Blank input
// clears the threshold.
func ParseThreshold(text string) (decimal.NullDecimal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %q", ErrInvalidNumber, text)
	}
	return decimal.NewNullDecimal(d), nil
}

// FormatThreshold is the inverse of ParseThreshold.
func FormatThreshold(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}
