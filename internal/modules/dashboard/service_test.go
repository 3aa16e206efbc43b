package dashboard

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient serves canned payloads and records which tickers were quoted
type stubClient struct {
	portfolio    map[string]interface{}
	positions    map[string]interface{}
	orders       map[string]interface{}
	quotes       map[string]interface{}
	performance  map[string]interface{}
	portfolioErr error
	positionsErr error
	quotedFor    []string
}

func (c *stubClient) GetPortfolio(ctx context.Context, portfolioID string) (map[string]interface{}, error) {
	return c.portfolio, c.portfolioErr
}

func (c *stubClient) GetPositions(ctx context.Context, portfolioID string) (map[string]interface{}, error) {
	return c.positions, c.positionsErr
}

func (c *stubClient) GetOrders(ctx context.Context, portfolioID string) (map[string]interface{}, error) {
	return c.orders, nil
}

func (c *stubClient) GetQuotes(ctx context.Context, tickers []string) (map[string]interface{}, error) {
	c.quotedFor = append(c.quotedFor, tickers...)
	return c.quotes, nil
}

func (c *stubClient) GetPerformance(ctx context.Context, portfolioID, period string) (map[string]interface{}, error) {
	return c.performance, nil
}

func testClient() *stubClient {
	return &stubClient{
		portfolio: map[string]interface{}{
			"id":            "p1",
			"present_value": 4150.0,
			"positions": map[string]interface{}{
				CashTicker: map[string]interface{}{"quantity": 2500.0, "value": 2500.0},
				"AAPL":     map[string]interface{}{"quantity": 10.0, "value": 1650.0},
			},
		},
		positions: map[string]interface{}{
			"status": "success",
			"positions": map[string]interface{}{
				"AAPL":     map[string]interface{}{"quantity": 10.0, "avg_cost": 150.0},
				CashTicker: map[string]interface{}{"quantity": 2500.0},
			},
		},
		orders: map[string]interface{}{
			"orders": []interface{}{
				map[string]interface{}{
					"order_id": "o1", "ticker": "AAPL", "quantity": 10.0,
					"price": 150.0, "timestamp": "2024-06-10T00:00:00Z",
				},
			},
		},
		quotes: map[string]interface{}{
			"status": "success",
			"AAPL":   map[string]interface{}{"Open": 160.0, "Close": 165.0},
		},
		performance: map[string]interface{}{
			"status":    "success",
			"TIMESTAMP": []interface{}{1718000000000.0, 1718086400000.0},
			"pv:TOTAL":  []interface{}{4000.0, 4150.0},
			"dv:TOTAL":  []interface{}{0.0, 3.75},
		},
	}
}

func newTestService(now time.Time) *Service {
	s := NewService(zerolog.Nop())
	s.now = func() time.Time { return now }
	return s
}

func TestBuildView_EndToEnd(t *testing.T) {
	client := testClient()
	svc := newTestService(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))

	view, err := svc.BuildView(context.Background(), client, "p1", "1M")
	require.NoError(t, err)

	assert.Equal(t, "p1", view.PortfolioID)
	assert.Equal(t, "1M", view.Period)

	// Cash never becomes an equity row, and never gets quoted
	require.Len(t, view.Positions, 1)
	assert.Equal(t, "AAPL", view.Positions[0].Ticker)
	sort.Strings(client.quotedFor)
	assert.Equal(t, []string{"AAPL"}, client.quotedFor)

	// Quote close fills the missing position price
	assert.Equal(t, 165.0, view.Positions[0].CurrentPrice)
	assert.Equal(t, 1650.0, view.Positions[0].MarketValue)
	assert.Equal(t, 100.0, view.Positions[0].Weight)

	assert.Equal(t, 2500.0, view.CashBalance)
	assert.Equal(t, 1650.0, view.TotalInvested)

	// Metrics built from present value and full order history
	assert.Equal(t, 4150.0, view.Metrics.CurrentValue)
	assert.Equal(t, 1500.0, view.Metrics.InitialInvestment)

	require.Len(t, view.Performance, 2)
	assert.Equal(t, 150.0, view.PeriodPnL.Value)
	assert.InDelta(t, 3.75, view.PeriodPnL.Percentage, 1e-9)

	require.Len(t, view.Orders, 1)
	assert.Equal(t, "BUY", view.Orders[0].Side)

	require.Contains(t, view.Quotes, "AAPL")
	assert.InDelta(t, 3.125, view.Quotes["AAPL"].ChangePercent, 1e-9)
}

func TestBuildView_PortfolioErrorPropagates(t *testing.T) {
	client := testClient()
	client.portfolioErr = fmt.Errorf("backend down")
	svc := newTestService(time.Now())

	_, err := svc.BuildView(context.Background(), client, "p1", "1M")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
}

func TestBuildView_DegradesWhenPositionsUnavailable(t *testing.T) {
	client := testClient()
	client.positionsErr = fmt.Errorf("timeout")
	svc := newTestService(time.Now())

	view, err := svc.BuildView(context.Background(), client, "p1", "ALL")
	require.NoError(t, err)

	assert.Empty(t, view.Positions)
	// The portfolio payload still drives the headline numbers
	assert.Equal(t, 4150.0, view.Metrics.CurrentValue)
	assert.Equal(t, 2500.0, view.CashBalance)
}

func TestBuildView_UsesEmbeddedQuotes(t *testing.T) {
	client := testClient()
	client.positions["quotes"] = map[string]interface{}{
		"AAPL": map[string]interface{}{"Open": 100.0, "Close": 120.0},
	}
	svc := newTestService(time.Now())

	view, err := svc.BuildView(context.Background(), client, "p1", "ALL")
	require.NoError(t, err)

	// Embedded quotes short-circuit the separate quotes fetch
	assert.Empty(t, client.quotedFor)
	require.Len(t, view.Positions, 1)
	assert.Equal(t, 120.0, view.Positions[0].CurrentPrice)
}

func TestBuildView_FiltersOrdersByPeriod(t *testing.T) {
	client := testClient()
	client.orders = map[string]interface{}{
		"orders": []interface{}{
			map[string]interface{}{"order_id": "old", "ticker": "AAPL", "quantity": 5.0, "price": 100.0, "timestamp": "2023-01-01T00:00:00Z"},
			map[string]interface{}{"order_id": "new", "ticker": "AAPL", "quantity": 5.0, "price": 100.0, "timestamp": "2024-06-10T00:00:00Z"},
		},
	}
	svc := newTestService(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))

	view, err := svc.BuildView(context.Background(), client, "p1", "1M")
	require.NoError(t, err)

	// The visible list is filtered, the metrics are not
	require.Len(t, view.Orders, 1)
	assert.Equal(t, "new", view.Orders[0].OrderID)
	assert.Equal(t, 1000.0, view.Metrics.InitialInvestment)
}
