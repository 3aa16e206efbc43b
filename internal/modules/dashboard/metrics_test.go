package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateMetrics(t *testing.T) {
	orders := []Order{
		{Quantity: 10, Price: 100},  // buy: 1000
		{Quantity: -5, Price: 120},  // sell: ignored for initial investment
		{Quantity: 2, Price: 250},   // buy: 500
	}

	m := CalculateMetrics(1800, nil, orders)
	assert.Equal(t, 1800.0, m.CurrentValue)
	assert.Equal(t, 1500.0, m.InitialInvestment)
	assert.Equal(t, 300.0, m.TotalPnL)
	assert.InDelta(t, 20.0, m.TotalPnLPercentage, 1e-9)
}

func TestCalculateMetrics_FallsBackToPositionSum(t *testing.T) {
	positions := []Position{
		{MarketValue: 600},
		{MarketValue: 400},
	}

	m := CalculateMetrics(0, positions, nil)
	assert.Equal(t, 1000.0, m.CurrentValue)
	assert.Zero(t, m.InitialInvestment)
	assert.Equal(t, 1000.0, m.TotalPnL)
	// No investment basis means no percentage
	assert.Zero(t, m.TotalPnLPercentage)
}

func TestCalculatePeriodPnL(t *testing.T) {
	points := []PerformancePoint{
		{Value: 100},
		{Value: 110},
		{Value: 90},
	}

	pnl := CalculatePeriodPnL(points)
	assert.Equal(t, -10.0, pnl.Value)
	assert.InDelta(t, -10.0, pnl.Percentage, 1e-9)
}

func TestCalculatePeriodPnL_Degenerate(t *testing.T) {
	assert.Zero(t, CalculatePeriodPnL(nil))
	assert.Zero(t, CalculatePeriodPnL([]PerformancePoint{{Value: 100}}))

	// Non-positive starting value yields a delta but no percentage
	pnl := CalculatePeriodPnL([]PerformancePoint{{Value: 0}, {Value: 50}})
	assert.Equal(t, 50.0, pnl.Value)
	assert.Zero(t, pnl.Percentage)
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.AddDate(0, 0, -7), PeriodStart("1W", now))
	assert.Equal(t, now.AddDate(0, -1, 0), PeriodStart("1M", now))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), PeriodStart("YTD", now))
	assert.True(t, PeriodStart("ALL", now).IsZero())
	assert.True(t, PeriodStart("bogus", now).IsZero())
}

func TestFilterOrdersByPeriod(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	orders := []Order{
		{OrderID: "recent", Timestamp: "2024-06-10T00:00:00Z"},
		{OrderID: "old", Timestamp: "2024-01-01T00:00:00Z"},
		{OrderID: "messy", Timestamp: "not-a-timestamp"},
	}

	filtered := FilterOrdersByPeriod(orders, "1M", now)
	require.Len(t, filtered, 2)
	assert.Equal(t, "recent", filtered[0].OrderID)
	// Unparseable timestamps are kept, not silently dropped
	assert.Equal(t, "messy", filtered[1].OrderID)

	// ALL returns a copy, never the original slice
	all := FilterOrdersByPeriod(orders, "ALL", now)
	require.Len(t, all, 3)
	all[0].OrderID = "mutated"
	assert.Equal(t, "recent", orders[0].OrderID)
}
