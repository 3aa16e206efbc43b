package dashboard

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePositions_DerivesValuesAndExcludesCash(t *testing.T) {
	positions := map[string]interface{}{
		"AAPL": map[string]interface{}{
			"quantity":      10.0,
			"avg_cost":      150.0,
			"current_price": 165.0,
			"sector":        "Technology",
		},
		CashTicker: map[string]interface{}{
			"quantity": 5000.0,
		},
	}

	rows := NormalizePositions(positions, nil)
	require.Len(t, rows, 1)

	p := rows[0]
	assert.Equal(t, "AAPL", p.Ticker)
	assert.Equal(t, 10.0, p.Quantity)
	assert.Equal(t, 165.0, p.CurrentPrice)
	assert.Equal(t, 1650.0, p.MarketValue)
	assert.Equal(t, 1500.0, p.CostBasis)
	assert.Equal(t, 150.0, p.PnL)
	assert.InDelta(t, 10.0, p.PnLPercentage, 1e-9)
	assert.Equal(t, 100.0, p.Weight)
}

func TestNormalizePositions_FieldFallbacksAndQuotePrice(t *testing.T) {
	positions := map[string]interface{}{
		"msft": map[string]interface{}{
			"qty":     "5",
			"avgCost": "$100.00",
		},
	}
	quotes := map[string]interface{}{
		"MSFT": map[string]interface{}{
			"Open":  100.0,
			"Close": 110.0,
		},
	}

	rows := NormalizePositions(positions, quotes)
	require.Len(t, rows, 1)

	p := rows[0]
	assert.Equal(t, "MSFT", p.Ticker)
	assert.Equal(t, 5.0, p.Quantity)
	assert.Equal(t, 100.0, p.AvgCost)
	assert.Equal(t, 110.0, p.CurrentPrice)
	assert.Equal(t, 550.0, p.MarketValue)
	assert.Equal(t, 500.0, p.CostBasis)
	assert.Equal(t, "Other", p.Sector)
	// No explicit day change anywhere: derived from open/close
	assert.InDelta(t, 10.0, p.DayChangePercentage, 1e-9)
}

func TestNormalizePositions_MalformedRowDegradesToZero(t *testing.T) {
	positions := map[string]interface{}{
		"JUNK": map[string]interface{}{
			"quantity": "???",
			"avg_cost": []interface{}{1.0},
		},
	}

	rows := NormalizePositions(positions, nil)
	require.Len(t, rows, 1)
	assert.Zero(t, rows[0].Quantity)
	assert.Zero(t, rows[0].MarketValue)
	assert.Zero(t, rows[0].PnL)
	assert.Zero(t, rows[0].Weight)
}

func TestNormalizePositions_WeightsSumToHundred(t *testing.T) {
	positions := map[string]interface{}{
		"A": map[string]interface{}{"quantity": 1.0, "current_price": 333.0},
		"B": map[string]interface{}{"quantity": 2.0, "current_price": 100.5},
		"C": map[string]interface{}{"quantity": 7.0, "current_price": 42.42},
	}

	rows := NormalizePositions(positions, nil)
	require.Len(t, rows, 3)

	sum := 0.0
	for _, r := range rows {
		sum += r.Weight
	}
	assert.InDelta(t, 100.0, sum, 1e-6)

	// Deterministic ordering by ticker
	assert.Equal(t, "A", rows[0].Ticker)
	assert.Equal(t, "C", rows[2].Ticker)
}

func TestNormalizePositions_ZeroTotalMeansZeroWeights(t *testing.T) {
	positions := map[string]interface{}{
		"A": map[string]interface{}{"quantity": 0.0, "current_price": 100.0},
		"B": map[string]interface{}{"quantity": 0.0, "current_price": 50.0},
	}

	rows := NormalizePositions(positions, nil)
	for _, r := range rows {
		assert.Zero(t, r.Weight)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	// Numeric seconds are scaled to millis
	assert.Equal(t, "2023-11-14T22:13:20.000Z", NormalizeTimestamp(1700000000.0))
	// Numeric millis pass through the same path unscaled
	assert.Equal(t, "2023-11-14T22:13:20.000Z", NormalizeTimestamp(1700000000000.0))
	// Bare strings are assumed UTC
	assert.Equal(t, "2024-01-15T10:30:00Z", NormalizeTimestamp("2024-01-15T10:30:00"))
	// Timezone-carrying strings are untouched
	assert.Equal(t, "2024-01-15T10:30:00Z", NormalizeTimestamp("2024-01-15T10:30:00Z"))
	assert.Equal(t, "2024-01-15T10:30:00+02:00", NormalizeTimestamp("2024-01-15T10:30:00+02:00"))
	assert.Equal(t, "", NormalizeTimestamp(nil))
	assert.Equal(t, "", NormalizeTimestamp(""))
}

func TestNormalizeTimestamp_Idempotent(t *testing.T) {
	inputs := []interface{}{
		1700000000.0,
		"2024-01-15T10:30:00",
		"2024-06-30T23:59:59+02:00",
	}
	for _, in := range inputs {
		once := NormalizeTimestamp(in)
		assert.Equal(t, once, NormalizeTimestamp(once), "input %v", in)
	}
}

func TestNormalizeOrders_SideFromQuantitySign(t *testing.T) {
	payload := map[string]interface{}{
		"orders": []interface{}{
			map[string]interface{}{
				"order_id":  "o1",
				"ticker":    "aapl",
				"quantity":  10.0,
				"price":     150.0,
				"timestamp": "2024-03-01T12:00:00",
			},
			map[string]interface{}{
				"id":         "o2",
				"ticker":     "MSFT",
				"quantity":   -4.0,
				"price":      200.0,
				"created_at": 1700000000.0,
				"note":       "liquidation",
			},
		},
	}

	orders := NormalizeOrders(payload)
	require.Len(t, orders, 2)

	buy := orders[0]
	assert.Equal(t, "o1", buy.OrderID)
	assert.Equal(t, "AAPL", buy.Ticker)
	assert.Equal(t, "BUY", buy.Side)
	assert.Equal(t, 10.0, buy.Quantity)
	assert.Equal(t, 10.0, buy.AbsQuantity)
	assert.Equal(t, 1500.0, buy.Cost)
	assert.Equal(t, "2024-03-01T12:00:00Z", buy.Timestamp)

	sell := orders[1]
	assert.Equal(t, "o2", sell.OrderID)
	assert.Equal(t, "SELL", sell.Side)
	assert.Equal(t, -4.0, sell.Quantity)
	assert.Equal(t, 4.0, sell.AbsQuantity)
	assert.Equal(t, 800.0, sell.Cost)
	assert.Equal(t, "2023-11-14T22:13:20.000Z", sell.Timestamp)
	// The source row survives untouched
	assert.Equal(t, "liquidation", sell.Raw["note"])
}

func TestNormalizeOrders_EmptyAndMalformed(t *testing.T) {
	assert.Empty(t, NormalizeOrders(map[string]interface{}{}))
	assert.Empty(t, NormalizeOrders(map[string]interface{}{"orders": "nope"}))

	payload := map[string]interface{}{
		"orders": []interface{}{"not a map", map[string]interface{}{"ticker": "A", "quantity": 1.0}},
	}
	assert.Len(t, NormalizeOrders(payload), 1)
}

func TestNormalizePerformance_NestedAndTopLevel(t *testing.T) {
	columns := map[string]interface{}{
		"TIMESTAMP": []interface{}{1700000000000.0, 1700086400000.0, 1700172800000.0},
		"pv:TOTAL":  []interface{}{100.0, 110.0, 90.0},
		"dv:TOTAL":  []interface{}{0.0, 10.0, -18.18},
	}

	for _, payload := range []map[string]interface{}{
		{"performance": columns},
		columns,
	} {
		points := NormalizePerformance(payload)
		require.Len(t, points, 3)

		assert.Equal(t, "2023-11-14T22:13:20.000Z", points[0].Timestamp)
		assert.Equal(t, 100.0, points[0].Value)
		assert.Zero(t, points[0].Change)
		assert.Equal(t, 10.0, points[1].Change)
		assert.Equal(t, -20.0, points[2].Change)
		// The server-supplied daily percentage is carried verbatim
		assert.Equal(t, -18.18, points[2].ChangePercent)
	}
}

func TestNormalizePerformance_RaggedArrays(t *testing.T) {
	payload := map[string]interface{}{
		"TIMESTAMP": []interface{}{1.0, 2.0, 3.0},
		"pv:TOTAL":  []interface{}{100.0},
	}
	points := NormalizePerformance(payload)
	require.Len(t, points, 3)
	assert.Equal(t, 100.0, points[0].Value)
	assert.Zero(t, points[1].Value)
	assert.Zero(t, points[2].Value)
}

func TestNormalizeQuotes(t *testing.T) {
	raw := map[string]interface{}{
		"status": "success",
		"AAPL": map[string]interface{}{
			"Open":   100.0,
			"Close":  105.0,
			"High":   106.0,
			"Low":    99.0,
			"Volume": 1000.0,
		},
	}

	quotes := NormalizeQuotes(raw)
	require.Len(t, quotes, 1)

	q := quotes["AAPL"]
	assert.Equal(t, 105.0, q.Price)
	assert.Equal(t, 5.0, q.Change)
	assert.InDelta(t, 5.0, q.ChangePercent, 1e-9)
}

func TestNormalizeQuotes_NoNaNLeaks(t *testing.T) {
	raw := map[string]interface{}{
		"X": map[string]interface{}{"Close": "garbage"},
	}
	q := NormalizeQuotes(raw)["X"]
	assert.False(t, math.IsNaN(q.Price))
	assert.False(t, math.IsNaN(q.Change))
	assert.False(t, math.IsNaN(q.ChangePercent))
}

func TestCashValueAndTotalInvested(t *testing.T) {
	portfolio := map[string]interface{}{
		"positions": map[string]interface{}{
			CashTicker: map[string]interface{}{"quantity": 2500.0, "value": 2500.0},
			"AAPL":     map[string]interface{}{"quantity": 10.0, "value": 1650.0},
			"MSFT":     map[string]interface{}{"quantity": 5.0, "value": 550.0},
		},
	}

	assert.Equal(t, 2500.0, CashValue(portfolio))
	assert.Equal(t, 2200.0, TotalInvested(portfolio))

	assert.Zero(t, CashValue(map[string]interface{}{}))
	assert.Zero(t, TotalInvested(map[string]interface{}{}))
}
