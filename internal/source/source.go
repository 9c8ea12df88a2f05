// Package source fetches spot prices from the CoinGecko simple price API.
package source

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/temidaradev/coinwatch/internal/coin"
)

var (
	// ErrNetwork covers transport failures, timeouts and non-200 replies.
	ErrNetwork = errors.New("price request failed")
	// ErrData covers malformed bodies and replies missing the ticker.
	ErrData = errors.New("unexpected price data")
)

type Source interface {
	FetchPriceUSD(ctx context.Context, ticker coin.Ticker) (decimal.Decimal, error)
}
