// Package yahoo fetches market data from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client is a Yahoo Finance API client
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// NewClientWithBaseURL creates a client against a custom endpoint (tests)
func NewClientWithBaseURL(baseURL string, log zerolog.Logger) *Client {
	c := NewClient(log)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// GetQuote fetches the latest daily bar for a ticker
func (c *Client) GetQuote(ctx context.Context, ticker string) (*MarketQuote, error) {
	bars, err := c.GetHistory(ctx, ticker, "1d", "1d")
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no quote data for %s", ticker)
	}

	last := bars[len(bars)-1]
	return &MarketQuote{
		Datetime: last.Datetime,
		Open:     last.Open,
		High:     last.High,
		Low:      last.Low,
		Close:    last.Close,
		Volume:   last.Volume,
	}, nil
}

// GetQuotes fetches latest daily bars for several tickers. A ticker that
// fails to resolve is skipped with a warning rather than failing the batch.
func (c *Client) GetQuotes(ctx context.Context, tickers []string) (map[string]MarketQuote, error) {
	out := make(map[string]MarketQuote, len(tickers))

	for _, ticker := range tickers {
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if ticker == "" {
			continue
		}
		quote, err := c.GetQuote(ctx, ticker)
		if err != nil {
			c.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to fetch quote, skipping")
			continue
		}
		out[ticker] = *quote
	}

	return out, nil
}

// GetHistory fetches historical bars for a ticker.
// Valid ranges: 1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max.
// Valid intervals: 1m, 2m, 5m, 15m, 30m, 60m, 90m, 1d, 5d, 1wk, 1mo, 3mo.
func (c *Client) GetHistory(ctx context.Context, ticker, dataRange, interval string) ([]Bar, error) {
	q := url.Values{}
	q.Set("range", dataRange)
	q.Set("interval", interval)

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; oscillo/1.0)")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read chart response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned %d for %s", resp.StatusCode, ticker)
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}

	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("empty chart result for %s", ticker)
	}

	result := parsed.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Yahoo pads gaps with nulls; skip bars without a close
		close := deref(quote.Close, i)
		if close == nil {
			continue
		}

		bar := Bar{
			Datetime: time.Unix(ts, 0).UTC().Format(time.RFC3339),
			Close:    *close,
		}
		if v := deref(quote.Open, i); v != nil {
			bar.Open = *v
		}
		if v := deref(quote.High, i); v != nil {
			bar.High = *v
		}
		if v := deref(quote.Low, i); v != nil {
			bar.Low = *v
		}
		if v := deref(quote.Volume, i); v != nil {
			bar.Volume = *v
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

func deref(list []*float64, i int) *float64 {
	if i < 0 || i >= len(list) {
		return nil
	}
	return list[i]
}
