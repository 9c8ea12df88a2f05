package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/temidaradev/coinwatch/internal/coin"
)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	DefaultTimeout = 10 * time.Second
)

// CoinGecko queries /simple/price for a single coin id in USD.
type CoinGecko struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type CoinGeckoOption func(*CoinGecko)

// WithAPIKey sends a demo API key with every request.
func WithAPIKey(key string) CoinGeckoOption {
	return func(c *CoinGecko) {
		c.apiKey = key
	}
}

func WithHTTPClient(hc *http.Client) CoinGeckoOption {
	return func(c *CoinGecko) {
		c.httpClient = hc
	}
}

func NewCoinGecko(baseURL string, timeout time.Duration, opts ...CoinGeckoOption) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &CoinGecko{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// simplePriceResponse is {"<id>": {"usd": <number>}}.
type simplePriceResponse map[string]map[string]json.Number

func (c *CoinGecko) FetchPriceUSD(ctx context.Context, ticker coin.Ticker) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("ids", ticker.String())
	q.Set("vs_currencies", "usd")
	reqURL := fmt.Sprintf("%s/simple/price?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w [%s]: %w", ErrNetwork, ticker, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w [%s]: %w", ErrNetwork, ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Zero, fmt.Errorf("%w [%s]: %s - %s", ErrNetwork, ticker, resp.Status, string(bodyBytes))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w [%s]: body read error: %w", ErrNetwork, ticker, err)
	}

	var priceResp simplePriceResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&priceResp); err != nil {
		return decimal.Zero, fmt.Errorf("%w [%s]: JSON parse error: %w, Received Data: %s", ErrData, ticker, err, string(body))
	}

	quotes, ok := priceResp[ticker.String()]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w [%s]: ticker not found in response", ErrData, ticker)
	}
	usd, ok := quotes["usd"]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w [%s]: no usd quote in response", ErrData, ticker)
	}

	price, err := decimal.NewFromString(usd.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w [%s]: invalid price format: %w, Received Price: %s", ErrData, ticker, err, usd)
	}
	return price, nil
}
