// Package tracker keeps the last two price observations of the active
// ticker, derives the change between them and classifies the latest price
// against the ticker's favorite thresholds.
//
// A Tracker is not safe for concurrent use. It is owned by a single
// goroutine (see the controller package).
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/temidaradev/coinwatch/internal/coin"
)

const (
	MinIntervalSeconds     = 30
	MaxIntervalSeconds     = 1500
	DefaultIntervalSeconds = 60
)

// ErrIntervalRange is returned by SetInterval for values outside
// [MinIntervalSeconds, MaxIntervalSeconds].
var ErrIntervalRange = errors.New("poll interval out of range")

var hundred = decimal.NewFromInt(100)

// PriceSource returns the current USD price of a ticker.
type PriceSource interface {
	FetchPriceUSD(ctx context.Context, ticker coin.Ticker) (decimal.Decimal, error)
}

// ThresholdLookup reports the thresholds of a favorite ticker. ok is false
// when the ticker is not a favorite.
type ThresholdLookup interface {
	Thresholds(ticker coin.Ticker) (low, high decimal.NullDecimal, ok bool)
}

type Observation struct {
	Value      decimal.Decimal
	ObservedAt time.Time
}

type Change struct {
	Amount    decimal.Decimal
	Percent   decimal.Decimal
	Direction Direction
}

// Result is the outcome of one poll. On failure only Ticker, Label and Err
// are set.
type Result struct {
	Ticker     coin.Ticker
	Price      decimal.Decimal
	Change     *Change
	State      State
	Label      string
	Err        error
	ObservedAt time.Time
}

func (r Result) OK() bool {
	return r.Err == nil
}

type Tracker struct {
	source     PriceSource
	thresholds ThresholdLookup
	now        func() time.Time

	ticker   coin.Ticker
	interval int
	current  *Observation
	previous *Observation
}

type Option func(*Tracker)

// WithClock replaces time.Now as the observation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

func New(source PriceSource, thresholds ThresholdLookup, ticker coin.Ticker, opts ...Option) *Tracker {
	t := &Tracker{
		source:     source,
		thresholds: thresholds,
		now:        time.Now,
		ticker:     coin.Normalize(ticker.String()),
		interval:   DefaultIntervalSeconds,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Ticker() coin.Ticker {
	return t.ticker
}

// SetActiveTicker switches the polled ticker, normalized to lower case.
// The previous observation is kept, so the next delta is computed against
// the old ticker's price.
func (t *Tracker) SetActiveTicker(ticker coin.Ticker) {
	t.ticker = coin.Normalize(ticker.String())
}

func (t *Tracker) IntervalSeconds() int {
	return t.interval
}

func (t *Tracker) Interval() time.Duration {
	return time.Duration(t.interval) * time.Second
}

func (t *Tracker) SetInterval(seconds int) error {
	if seconds < MinIntervalSeconds || seconds > MaxIntervalSeconds {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrIntervalRange, seconds, MinIntervalSeconds, MaxIntervalSeconds)
	}
	t.interval = seconds
	return nil
}

func (t *Tracker) Current() (Observation, bool) {
	if t.current == nil {
		return Observation{}, false
	}
	return *t.current, true
}

func (t *Tracker) Previous() (Observation, bool) {
	if t.previous == nil {
		return Observation{}, false
	}
	return *t.previous, true
}

// Poll fetches the active ticker's price and applies the outcome.
func (t *Tracker) Poll(ctx context.Context) Result {
	price, err := t.source.FetchPriceUSD(ctx, t.ticker)
	if err != nil {
		return t.Fail(err)
	}
	return t.Record(price)
}

// Record applies a successfully fetched price for the active ticker.
func (t *Tracker) Record(value decimal.Decimal) Result {
	obs := Observation{Value: value, ObservedAt: t.now()}
	t.current = &obs

	res := Result{
		Ticker:     t.ticker,
		Price:      value,
		ObservedAt: obs.ObservedAt,
	}
	if t.previous != nil && !t.previous.Value.IsZero() {
		amount := value.Sub(t.previous.Value)
		change := &Change{
			Amount:    amount,
			Percent:   amount.Div(t.previous.Value).Mul(hundred),
			Direction: Up,
		}
		if amount.IsNegative() {
			change.Direction = Down
		}
		res.Change = change
	}
	res.Label = formatLabel(t.ticker, value, res.Change)

	res.State = NoFavorite
	if t.thresholds != nil {
		if low, high, ok := t.thresholds.Thresholds(t.ticker); ok {
			res.State = Classify(value, low, high)
		}
	}

	t.previous = t.current
	return res
}

// Fail applies a failed fetch. Both observations are dropped so the next
// successful poll starts without a delta.
func (t *Tracker) Fail(err error) Result {
	t.current = nil
	t.previous = nil
	return Result{
		Ticker: t.ticker,
		Label:  "Error: " + err.Error(),
		Err:    err,
	}
}

func formatLabel(ticker coin.Ticker, value decimal.Decimal, change *Change) string {
	label := fmt.Sprintf("%s: $%s", ticker.Capitalized(), value.StringFixed(2))
	if change != nil {
		label += fmt.Sprintf(" %s %s%%", change.Direction.Arrow(), change.Percent.Abs().StringFixed(2))
	}
	return label
}
