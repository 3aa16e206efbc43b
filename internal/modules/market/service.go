// Package market exposes quote and historical data endpoints backed by the
// Yahoo Finance chart API, with a short-lived quote cache in front.
package market

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AXAStudio/oscillo/internal/clients/yahoo"
	"github.com/AXAStudio/oscillo/pkg/formulas"
)

// ValidRanges are the chart API ranges the historical endpoint accepts
var ValidRanges = map[string]bool{
	"1d": true, "5d": true, "1mo": true, "3mo": true, "6mo": true,
	"1y": true, "2y": true, "5y": true, "10y": true, "ytd": true, "max": true,
}

// ValidIntervals are the chart API intervals the historical endpoint accepts
var ValidIntervals = map[string]bool{
	"1m": true, "2m": true, "5m": true, "15m": true, "30m": true,
	"60m": true, "90m": true, "1d": true, "5d": true, "1wk": true,
	"1mo": true, "3mo": true,
}

const (
	smaPeriod = 20
	rsiPeriod = 14
)

// HistoricalSeries is the per-ticker historical payload. SMA and RSI are
// aligned with Data; warmup entries are null.
type HistoricalSeries struct {
	Data []yahoo.Bar `json:"data"`
	SMA  []*float64  `json:"sma,omitempty"`
	RSI  []*float64  `json:"rsi,omitempty"`
}

type cachedQuote struct {
	quote     yahoo.MarketQuote
	fetchedAt time.Time
}

// Service provides market data with quote caching
type Service struct {
	yahoo *yahoo.Client
	ttl   time.Duration
	log   zerolog.Logger

	mu    sync.Mutex
	cache map[string]cachedQuote
}

// NewService creates a new market data service. ttl bounds how long a
// cached quote is served before Yahoo is hit again.
func NewService(client *yahoo.Client, ttl time.Duration, log zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{
		yahoo: client,
		ttl:   ttl,
		log:   log.With().Str("service", "market").Logger(),
		cache: make(map[string]cachedQuote),
	}
}

// GetQuotes returns latest quotes for the given tickers, serving cached
// entries that are still fresh. Tickers that fail to resolve are omitted.
func (s *Service) GetQuotes(ctx context.Context, tickers []string) (map[string]yahoo.MarketQuote, error) {
	out := make(map[string]yahoo.MarketQuote, len(tickers))
	missing := make([]string, 0, len(tickers))
	now := time.Now()

	s.mu.Lock()
	for _, ticker := range tickers {
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if ticker == "" {
			continue
		}
		if entry, ok := s.cache[ticker]; ok && now.Sub(entry.fetchedAt) < s.ttl {
			out[ticker] = entry.quote
			continue
		}
		missing = append(missing, ticker)
	}
	s.mu.Unlock()

	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := s.yahoo.GetQuotes(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quotes: %w", err)
	}

	s.mu.Lock()
	for ticker, quote := range fetched {
		s.cache[ticker] = cachedQuote{quote: quote, fetchedAt: now}
		out[ticker] = quote
	}
	s.mu.Unlock()

	s.log.Debug().
		Int("cached", len(out)-len(fetched)).
		Int("fetched", len(fetched)).
		Msg("Quotes resolved")

	return out, nil
}

// GetHistorical returns historical bars per ticker, optionally enriched
// with SMA and RSI indicator series. A ticker whose history cannot be
// fetched is skipped with a warning.
func (s *Service) GetHistorical(ctx context.Context, tickers []string, dataRange, interval string, withIndicators bool) (map[string]HistoricalSeries, error) {
	if !ValidRanges[dataRange] {
		return nil, fmt.Errorf("invalid range %q", dataRange)
	}
	if !ValidIntervals[interval] {
		return nil, fmt.Errorf("invalid interval %q", interval)
	}

	out := make(map[string]HistoricalSeries, len(tickers))
	for _, ticker := range tickers {
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if ticker == "" {
			continue
		}

		bars, err := s.yahoo.GetHistory(ctx, ticker, dataRange, interval)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", ticker).Msg("Failed to fetch history, skipping")
			continue
		}

		series := HistoricalSeries{Data: bars}
		if withIndicators {
			closes := make([]float64, len(bars))
			for i, bar := range bars {
				closes[i] = bar.Close
			}
			series.SMA = nullableSeries(formulas.SMA(closes, smaPeriod))
			series.RSI = nullableSeries(formulas.RSI(closes, rsiPeriod))
		}
		out[ticker] = series
	}

	return out, nil
}

// nullableSeries maps NaN warmup entries to null so the payload stays
// valid JSON.
func nullableSeries(values []float64) []*float64 {
	if values == nil {
		return nil
	}
	out := make([]*float64, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			v := v
			out[i] = &v
		}
	}
	return out
}
