// Package backend provides the authenticated REST client the dashboard
// layer uses to reach the portfolio API. Responses are returned as decoded
// JSON maps; the normalization core treats them as opaque payloads.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// APIError carries the backend's HTTP status so callers can map not-found
// and auth failures faithfully.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a backend 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client is an authenticated portfolio API client
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new backend client. baseURL points at the API root
// (without the /api/1.0 prefix); token is forwarded as a bearer credential.
func NewClient(baseURL, token string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "backend").Logger(),
	}
}

// WithToken returns a copy of the client bound to a different bearer token.
// The dashboard layer uses this to forward the caller's credential.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// GetPortfolio fetches portfolio detail including embedded positions
func (c *Client) GetPortfolio(ctx context.Context, portfolioID string) (map[string]interface{}, error) {
	return c.getMap(ctx, "/api/1.0/portfolios/"+url.PathEscape(portfolioID))
}

// GetPositions fetches the keyed positions payload for a portfolio
func (c *Client) GetPositions(ctx context.Context, portfolioID string) (map[string]interface{}, error) {
	return c.getMap(ctx, "/api/1.0/portfolios/"+url.PathEscape(portfolioID)+"/positions")
}

// GetOrders fetches the orders payload for a portfolio
func (c *Client) GetOrders(ctx context.Context, portfolioID string) (map[string]interface{}, error) {
	return c.getMap(ctx, "/api/1.0/portfolios/"+url.PathEscape(portfolioID)+"/orders")
}

// GetQuotes fetches market quotes for a set of tickers
func (c *Client) GetQuotes(ctx context.Context, tickers []string) (map[string]interface{}, error) {
	if len(tickers) == 0 {
		return map[string]interface{}{}, nil
	}
	q := url.Values{}
	q.Set("tickers", strings.Join(tickers, ","))
	return c.getMap(ctx, "/api/1.0/market/quotes?"+q.Encode())
}

// GetPerformance fetches the performance series for a portfolio and period
func (c *Client) GetPerformance(ctx context.Context, portfolioID, period string) (map[string]interface{}, error) {
	q := url.Values{}
	q.Set("period", period)
	return c.getMap(ctx, "/api/1.0/performance/"+url.PathEscape(portfolioID)+"?"+q.Encode())
}

func (c *Client) getMap(ctx context.Context, path string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration_ms", time.Since(start)).
		Msg("Backend request")

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode backend response: %w", err)
	}
	return payload, nil
}
