package source

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/temidaradev/coinwatch/internal/coin"
)

// instrumentingMiddleware wraps Source and records request metrics.
type instrumentingMiddleware struct {
	reqCount    metrics.Counter
	reqDuration metrics.Histogram
	next        Source
}

// NewInstrumentingMiddleware expects metrics labelled by "method" and
// "error".
func NewInstrumentingMiddleware(reqCount metrics.Counter, reqDuration metrics.Histogram, next Source) Source {
	return &instrumentingMiddleware{
		reqCount:    reqCount,
		reqDuration: reqDuration,
		next:        next,
	}
}

func (m *instrumentingMiddleware) FetchPriceUSD(ctx context.Context, ticker coin.Ticker) (price decimal.Decimal, err error) {
	defer func(begin time.Time) {
		m.recordMetrics("FetchPriceUSD", begin, err)
	}(time.Now())
	return m.next.FetchPriceUSD(ctx, ticker)
}

func (m *instrumentingMiddleware) recordMetrics(method string, startTime time.Time, err error) {
	labels := []string{
		"method", method,
		"error", strconv.FormatBool(err != nil),
	}
	m.reqCount.With(labels...).Add(1)
	m.reqDuration.With(labels...).Observe(time.Since(startTime).Seconds())
}

// PrometheusMetrics registers the request counter and duration summary
// with the default Prometheus registry. Call it once per process.
func PrometheusMetrics(namespace, subsystem string) (metrics.Counter, metrics.Histogram) {
	fieldKeys := []string{"method", "error"}
	count := kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_count",
		Help:      "Number of price requests.",
	}, fieldKeys)
	duration := kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Price request duration in seconds.",
	}, fieldKeys)
	return count, duration
}
