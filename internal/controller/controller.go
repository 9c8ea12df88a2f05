// Package controller owns the price tracker and the favorites collection.
// All state changes happen on the goroutine running Run. The UI sends
// commands and reads immutable Snapshots.
package controller

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/temidaradev/coinwatch/internal/coin"
	"github.com/temidaradev/coinwatch/internal/favorites"
	"github.com/temidaradev/coinwatch/internal/tracker"
)

// ErrStopped is returned by commands sent after Run has returned.
var ErrStopped = errors.New("controller stopped")

// Snapshot is the read-only view handed to renderers.
type Snapshot struct {
	Ticker     coin.Ticker
	Interval   int
	Label      string
	Result     tracker.Result
	HasResult  bool
	Polling    bool
	IsFavorite bool
	// Tint is the favorite background color used for the status icon.
	Tint       favorites.Color
	Background color.NRGBA
	Text       color.NRGBA
	Favorites  []favorites.Entry
}

type command struct {
	apply func(ctx context.Context) error
	reply chan error
}

type outcome struct {
	generation uint64
	price      decimal.Decimal
	err        error
}

type Controller struct {
	source    tracker.PriceSource
	tracker   *tracker.Tracker
	favorites *favorites.Collection
	logger    *logrus.Entry

	commands chan command
	outcomes chan outcome
	done     chan struct{}

	latest atomic.Pointer[Snapshot]
	subsMu sync.Mutex
	subs   []chan Snapshot

	// owned by Run
	timer       *time.Timer
	inFlight    bool
	generation  uint64
	cancelFetch context.CancelFunc
	last        *tracker.Result
}

// New builds a controller polling ticker every intervalSeconds.
func New(source tracker.PriceSource, favs *favorites.Collection, ticker coin.Ticker, intervalSeconds int, logger *logrus.Logger) (*Controller, error) {
	tr := tracker.New(source, favs, ticker)
	if err := tr.SetInterval(intervalSeconds); err != nil {
		return nil, err
	}
	c := &Controller{
		source:    source,
		tracker:   tr,
		favorites: favs,
		logger:    logger.WithField("component", "controller"),
		commands:  make(chan command),
		outcomes:  make(chan outcome),
		done:      make(chan struct{}),
	}
	c.publish()
	return c, nil
}

// Run polls immediately, then on every interval until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)

	c.timer = time.NewTimer(c.tracker.Interval())
	defer c.timer.Stop()

	c.logger.WithFields(logrus.Fields{
		"ticker":   c.tracker.Ticker(),
		"interval": c.tracker.IntervalSeconds(),
	}).Info("Price polling started")
	c.startPoll(ctx)

	for {
		select {
		case <-ctx.Done():
			c.cancelInFlight()
			c.logger.Info("Price polling stopped")
			return nil
		case <-c.timer.C:
			c.timer.Reset(c.tracker.Interval())
			c.pollUnlessBusy(ctx)
		case cmd := <-c.commands:
			cmd.reply <- cmd.apply(ctx)
		case out := <-c.outcomes:
			c.finishPoll(out)
		}
	}
}

// Latest returns the most recent snapshot.
func (c *Controller) Latest() Snapshot {
	return *c.latest.Load()
}

// Subscribe returns a channel receiving the newest snapshot after every
// change. Slow readers only see the latest one.
func (c *Controller) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	ch <- c.Latest()
	c.subs = append(c.subs, ch)
	return ch
}

// SetTicker switches the active ticker and polls it right away. A fetch
// still running for the old ticker is cancelled and its result dropped.
func (c *Controller) SetTicker(input string) error {
	ticker, err := coin.Parse(input)
	if err != nil {
		return err
	}
	return c.do(func(ctx context.Context) error {
		c.switchTicker(ctx, ticker)
		return nil
	})
}

// NextFavorite switches to the favorite after the active ticker.
func (c *Controller) NextFavorite() error {
	return c.do(func(ctx context.Context) error {
		next, ok := c.favorites.Next(c.tracker.Ticker())
		if !ok {
			return nil
		}
		c.switchTicker(ctx, next)
		return nil
	})
}

// SetInterval changes the polling period. A poll already running is not
// affected.
func (c *Controller) SetInterval(seconds int) error {
	return c.do(func(ctx context.Context) error {
		if err := c.tracker.SetInterval(seconds); err != nil {
			return err
		}
		c.timer.Reset(c.tracker.Interval())
		c.logger.WithField("interval", seconds).Info("Poll interval changed")
		c.publish()
		return nil
	})
}

// Refresh polls now unless a poll is already running.
func (c *Controller) Refresh() error {
	return c.do(func(ctx context.Context) error {
		c.pollUnlessBusy(ctx)
		return nil
	})
}

func (c *Controller) AddFavorite(input string, background, text favorites.Color) error {
	ticker, err := coin.Parse(input)
	if err != nil {
		return err
	}
	return c.do(func(context.Context) error {
		err := c.favorites.Add(ticker, background, text)
		return c.afterFavoritesChange(err, "Favorite added", ticker)
	})
}

func (c *Controller) UpdateFavorite(input string, patch favorites.Patch) error {
	ticker := coin.Normalize(input)
	return c.do(func(context.Context) error {
		err := c.favorites.Update(ticker, patch)
		return c.afterFavoritesChange(err, "Favorite updated", ticker)
	})
}

func (c *Controller) RemoveFavorite(input string) error {
	ticker := coin.Normalize(input)
	return c.do(func(context.Context) error {
		err := c.favorites.Remove(ticker)
		return c.afterFavoritesChange(err, "Favorite removed", ticker)
	})
}

// afterFavoritesChange publishes unless the collection rejected the
// change. A persist failure still changed the collection.
func (c *Controller) afterFavoritesChange(err error, msg string, ticker coin.Ticker) error {
	entry := c.logger.WithField("ticker", ticker)
	switch {
	case err == nil:
		entry.Info(msg)
	case errors.Is(err, favorites.ErrPersist):
		entry.WithError(err).Error("Could not save favorites")
	default:
		return err
	}
	c.publish()
	return err
}

func (c *Controller) do(apply func(ctx context.Context) error) error {
	cmd := command{apply: apply, reply: make(chan error, 1)}
	select {
	case c.commands <- cmd:
	case <-c.done:
		return ErrStopped
	}
	return <-cmd.reply
}

func (c *Controller) switchTicker(ctx context.Context, ticker coin.Ticker) {
	c.logger.WithFields(logrus.Fields{
		"from": c.tracker.Ticker(),
		"to":   ticker,
	}).Info("Active ticker changed")
	c.cancelInFlight()
	c.tracker.SetActiveTicker(ticker)
	c.startPoll(ctx)
}

func (c *Controller) pollUnlessBusy(ctx context.Context) {
	if c.inFlight {
		c.logger.WithField("ticker", c.tracker.Ticker()).Debug("Previous poll still running, skipping tick")
		return
	}
	c.startPoll(ctx)
}

func (c *Controller) startPoll(ctx context.Context) {
	c.generation++
	gen := c.generation
	ticker := c.tracker.Ticker()

	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancelFetch = cancel
	c.inFlight = true
	c.publish()

	go func() {
		price, err := c.source.FetchPriceUSD(fetchCtx, ticker)
		select {
		case c.outcomes <- outcome{generation: gen, price: price, err: err}:
		case <-ctx.Done():
		}
	}()
}

// cancelInFlight abandons the running fetch. Its outcome will carry a
// stale generation and be discarded.
func (c *Controller) cancelInFlight() {
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
	c.inFlight = false
}

func (c *Controller) finishPoll(out outcome) {
	if out.generation != c.generation {
		c.logger.Debug("Discarding stale price")
		return
	}
	c.cancelInFlight()

	var res tracker.Result
	if out.err != nil {
		res = c.tracker.Fail(out.err)
		c.logger.WithField("ticker", res.Ticker).WithError(out.err).Warn("Poll failed")
	} else {
		res = c.tracker.Record(out.price)
		c.logTransition(res)
	}
	c.last = &res
	c.publish()
}

func (c *Controller) logTransition(res tracker.Result) {
	prev := tracker.NoFavorite
	if c.last != nil && c.last.OK() && c.last.Ticker == res.Ticker {
		prev = c.last.State
	}
	if res.State == prev || (res.State != tracker.BelowLow && res.State != tracker.AboveHigh) {
		return
	}
	c.logger.WithFields(logrus.Fields{
		"ticker": res.Ticker,
		"price":  res.Price.StringFixed(2),
		"state":  res.State,
	}).Warn("Price crossed threshold")
}

func (c *Controller) publish() {
	ticker := c.tracker.Ticker()
	snap := Snapshot{
		Ticker:    ticker,
		Interval:  c.tracker.IntervalSeconds(),
		Label:     "Loading...",
		Polling:   c.inFlight,
		Favorites: c.favorites.All(),
	}
	if c.last != nil {
		snap.Result = *c.last
		snap.HasResult = true
		// A result for the previous ticker keeps the loading label.
		if c.last.Ticker == ticker {
			snap.Label = c.last.Label
		}
	}
	if e, ok := c.favorites.Get(ticker); ok {
		snap.IsFavorite = true
		snap.Tint = e.Background
	}
	snap.Background, snap.Text = c.favorites.Colors(ticker)

	c.latest.Store(&snap)

	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
