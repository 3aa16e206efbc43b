package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// RSI computes the Relative Strength Index series for a close series.
// Warmup entries that talib reports as NaN or zero-padding are replaced
// with NaN so callers can distinguish them from real values.
//
//	RSI = 100 - (100 / (1 + RS)), RS = avg gain / avg loss over N periods
func RSI(closes []float64, period int) []float64 {
	if len(closes) < period+1 {
		return nil
	}

	rsi := talib.Rsi(closes, period)
	for i := 0; i < period && i < len(rsi); i++ {
		rsi[i] = math.NaN()
	}
	return rsi
}

// SMA computes the simple moving average series for a close series.
// The first period-1 entries are NaN warmup.
func SMA(closes []float64, period int) []float64 {
	if len(closes) < period {
		return nil
	}

	sma := talib.Sma(closes, period)
	for i := 0; i < period-1 && i < len(sma); i++ {
		sma[i] = math.NaN()
	}
	return sma
}
