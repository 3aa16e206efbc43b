package formulas

// CalculateMaxDrawdown returns the maximum peak-to-trough decline of a
// value series as a positive fraction (0.25 means a 25% loss from peak).
// Series shorter than two points have no drawdown.
func CalculateMaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	maxDrawdown := 0.0
	peak := values[0]

	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}

	return maxDrawdown
}
