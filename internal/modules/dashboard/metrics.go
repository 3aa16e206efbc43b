package dashboard

import (
	"time"
)

// CalculateMetrics derives the dashboard header KPIs. Current value prefers
// the server-reported present value and falls back to summing position
// market values. Initial investment sums price x quantity over buy orders in
// the full history, never a period-filtered slice.
func CalculateMetrics(presentValue float64, positions []Position, orders []Order) Metrics {
	currentValue := presentValue
	if currentValue <= 0 {
		for _, p := range positions {
			currentValue += p.MarketValue
		}
	}

	initialInvestment := 0.0
	for _, o := range orders {
		if o.Quantity > 0 {
			initialInvestment += o.Quantity * o.Price
		}
	}

	totalPnL := currentValue - initialInvestment
	totalPnLPct := 0.0
	if initialInvestment > 0 {
		totalPnLPct = totalPnL / initialInvestment * 100
	}

	return Metrics{
		CurrentValue:       currentValue,
		InitialInvestment:  initialInvestment,
		TotalPnL:           totalPnL,
		TotalPnLPercentage: totalPnLPct,
	}
}

// CalculatePeriodPnL compares the last and first point of a performance
// series. Fewer than two points, or a non-positive starting value, yields
// zero.
func CalculatePeriodPnL(points []PerformancePoint) PeriodPnL {
	if len(points) < 2 {
		return PeriodPnL{}
	}

	first := points[0].Value
	last := points[len(points)-1].Value
	value := last - first

	pct := 0.0
	if first > 0 {
		pct = value / first * 100
	}

	return PeriodPnL{Value: value, Percentage: pct}
}

// ValidPeriods are the selectable performance windows
var ValidPeriods = map[string]bool{
	"1D": true, "1W": true, "1M": true, "YTD": true, "1Y": true, "ALL": true,
}

// PeriodStart returns the inclusive lower bound for a period relative to
// now. ALL (and unknown values) return the zero time.
func PeriodStart(period string, now time.Time) time.Time {
	switch period {
	case "1D":
		return now.Add(-24 * time.Hour)
	case "1W":
		return now.AddDate(0, 0, -7)
	case "1M":
		return now.AddDate(0, -1, 0)
	case "YTD":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case "1Y":
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

// FilterOrdersByPeriod returns the orders whose timestamp falls inside the
// period ending at now. The input is never mutated; orders with timestamps
// that cannot be parsed are kept so messy rows stay visible.
func FilterOrdersByPeriod(orders []Order, period string, now time.Time) []Order {
	start := PeriodStart(period, now)
	if start.IsZero() {
		out := make([]Order, len(orders))
		copy(out, orders)
		return out
	}

	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		ts, err := time.Parse(time.RFC3339, o.Timestamp)
		if err != nil || !ts.Before(start) {
			out = append(out, o)
		}
	}
	return out
}
