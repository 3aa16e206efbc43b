package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateReturns(t *testing.T) {
	returns := CalculateReturns([]float64{100, 110, 99})
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)

	assert.Empty(t, CalculateReturns([]float64{100}))
	assert.Empty(t, CalculateReturns(nil))

	// Zero base yields a zero return, not infinity
	returns = CalculateReturns([]float64{0, 100})
	assert.Zero(t, returns[0])
}

func TestAnnualizedVolatility(t *testing.T) {
	assert.Zero(t, AnnualizedVolatility(nil))

	daily := []float64{0.01, -0.01, 0.02, -0.02}
	expected := StdDev(daily) * math.Sqrt(TradingDaysPerYear)
	assert.InDelta(t, expected, AnnualizedVolatility(daily), 1e-12)
}

func TestMeanAndStdDev_Degenerate(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.Zero(t, StdDev(nil))
	assert.Zero(t, StdDev([]float64{5}))
	assert.Equal(t, 5.0, Mean([]float64{5}))
}

func TestCalculateMaxDrawdown(t *testing.T) {
	// Peak 110, trough 90
	assert.InDelta(t, 2.0/11.0, CalculateMaxDrawdown([]float64{100, 110, 90, 105}), 1e-9)

	// Monotonic rise has no drawdown
	assert.Zero(t, CalculateMaxDrawdown([]float64{1, 2, 3}))
	assert.Zero(t, CalculateMaxDrawdown([]float64{100}))
}
