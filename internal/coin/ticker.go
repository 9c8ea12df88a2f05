// Package coin holds the ticker identifier shared by the price source,
// the tracker and the favorites collection.
package coin

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrEmptyTicker is returned when a ticker is blank after normalization.
var ErrEmptyTicker = errors.New("ticker must not be empty")

// Ticker is a lower-cased coin id such as "bitcoin". It is both the
// price API query key and the favorites key.
type Ticker string

// Normalize lower-cases s and trims surrounding whitespace.
func Normalize(s string) Ticker {
	return Ticker(strings.ToLower(strings.TrimSpace(s)))
}

// Parse normalizes s and rejects empty input.
func Parse(s string) (Ticker, error) {
	t := Normalize(s)
	if t == "" {
		return "", ErrEmptyTicker
	}
	return t, nil
}

func (t Ticker) String() string {
	return string(t)
}

// Capitalized upper-cases the first letter and lower-cases the rest,
// e.g. "bitcoin-cash" becomes "Bitcoin-cash".
func (t Ticker) Capitalized() string {
	s := string(t)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
