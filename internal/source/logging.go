package source

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/temidaradev/coinwatch/internal/coin"
)

// loggingMiddleware wraps Source and logs every fetch.
type loggingMiddleware struct {
	logger *logrus.Entry
	next   Source
}

func NewLoggingMiddleware(logger *logrus.Logger, next Source) Source {
	return &loggingMiddleware{
		logger: logger.WithField("component", "source"),
		next:   next,
	}
}

func (m *loggingMiddleware) FetchPriceUSD(ctx context.Context, ticker coin.Ticker) (price decimal.Decimal, err error) {
	defer func(begin time.Time) {
		entry := m.logger.WithFields(logrus.Fields{
			"method":  "FetchPriceUSD",
			"ticker":  ticker,
			"elapsed": time.Since(begin),
		})
		if err != nil {
			entry.WithError(err).Error("Could not get price")
			return
		}
		entry.WithField("price", price).Debug("Price fetched")
	}(time.Now())
	return m.next.FetchPriceUSD(ctx, ticker)
}
