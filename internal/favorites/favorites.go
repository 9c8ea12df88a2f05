// Package favorites manages the user's favorite tickers: their widget
// colors and optional price thresholds. Every mutation saves the whole
// collection through a Store.
package favorites

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/shopspring/decimal"

	"github.com/temidaradev/coinwatch/internal/coin"
)

var (
	ErrDuplicate = errors.New("favorite already exists")
	ErrNotFound  = errors.New("favorite not found")
	// ErrPersist wraps failures to read or write the favorites file. A
	// failed save does not roll back the in-memory change.
	ErrPersist = errors.New("favorites persistence failed")
)

type Entry struct {
	Ticker     coin.Ticker
	Background Color
	Text       Color
	Low        decimal.NullDecimal
	High       decimal.NullDecimal
}

// Patch lists the fields an Update changes. Nil fields are left alone; a
// non-nil threshold with Valid == false clears it.
type Patch struct {
	Background *Color
	Text       *Color
	Low        *decimal.NullDecimal
	High       *decimal.NullDecimal
}

type Store interface {
	Load() ([]Entry, error)
	Save(entries []Entry) error
}

// Collection is not safe for concurrent use.
type Collection struct {
	store   Store
	order   []coin.Ticker
	entries map[coin.Ticker]Entry
}

// Open loads the collection from store.
func Open(store Store) (*Collection, error) {
	c := &Collection{
		store:   store,
		entries: make(map[coin.Ticker]Entry),
	}
	loaded, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	for _, e := range loaded {
		e.Ticker = coin.Normalize(e.Ticker.String())
		if e.Ticker == "" {
			continue
		}
		if _, ok := c.entries[e.Ticker]; !ok {
			c.order = append(c.order, e.Ticker)
		}
		c.entries[e.Ticker] = e
	}
	return c, nil
}

func (c *Collection) Add(ticker coin.Ticker, background, text Color) error {
	ticker, err := coin.Parse(ticker.String())
	if err != nil {
		return err
	}
	if _, ok := c.entries[ticker]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, ticker)
	}
	c.entries[ticker] = Entry{Ticker: ticker, Background: background, Text: text}
	c.order = append(c.order, ticker)
	return c.save()
}

func (c *Collection) Remove(ticker coin.Ticker) error {
	ticker = coin.Normalize(ticker.String())
	if _, ok := c.entries[ticker]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}
	delete(c.entries, ticker)
	for i, t := range c.order {
		if t == ticker {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return c.save()
}

func (c *Collection) Update(ticker coin.Ticker, p Patch) error {
	ticker = coin.Normalize(ticker.String())
	e, ok := c.entries[ticker]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}
	if p.Background != nil {
		e.Background = *p.Background
	}
	if p.Text != nil {
		e.Text = *p.Text
	}
	if p.Low != nil {
		e.Low = *p.Low
	}
	if p.High != nil {
		e.High = *p.High
	}
	c.entries[ticker] = e
	return c.save()
}

func (c *Collection) Get(ticker coin.Ticker) (Entry, bool) {
	e, ok := c.entries[coin.Normalize(ticker.String())]
	return e, ok
}

func (c *Collection) Has(ticker coin.Ticker) bool {
	_, ok := c.Get(ticker)
	return ok
}

// All returns the entries in insertion order.
func (c *Collection) All() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.entries[t])
	}
	return out
}

func (c *Collection) Len() int {
	return len(c.order)
}

// Thresholds implements tracker.ThresholdLookup.
func (c *Collection) Thresholds(ticker coin.Ticker) (low, high decimal.NullDecimal, ok bool) {
	e, ok := c.Get(ticker)
	return e.Low, e.High, ok
}

// Colors returns the floating widget background and text colors for
// ticker. Non-favorites get the default scheme.
func (c *Collection) Colors(ticker coin.Ticker) (background, text color.NRGBA) {
	e, ok := c.Get(ticker)
	if !ok {
		return DefaultBackground.NRGBA(DefaultBackgroundAlpha), DefaultText.NRGBA(1)
	}
	return e.Background.NRGBA(DefaultBackgroundAlpha), e.Text.NRGBA(1)
}

// Next returns the favorite following after, wrapping around. When after
// is not a favorite the first favorite is returned.
func (c *Collection) Next(after coin.Ticker) (coin.Ticker, bool) {
	if len(c.order) == 0 {
		return "", false
	}
	after = coin.Normalize(after.String())
	for i, t := range c.order {
		if t == after {
			return c.order[(i+1)%len(c.order)], true
		}
	}
	return c.order[0], true
}

func (c *Collection) save() error {
	if err := c.store.Save(c.All()); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
