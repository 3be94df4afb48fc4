package indicator

import "math"

// smma computes a Wilder smoothed moving average, NaN-aware on the
// leading edge. The first defined window of length period is seeded with
// its simple average, then smma = (prev*(period-1) + v) / period.
// RSI, ATR, and ADX all smooth with this recurrence.
func smma(values []float64, period int) []float64 {
	n := len(values)
	out := nans(n)
	f := firstDefined(values)
	if f < 0 || n-f < period {
		return out
	}

	sum := 0.0
	for i := f; i < f+period; i++ {
		sum += values[i]
	}
	seed := f + period - 1
	out[seed] = sum / float64(period)

	for i := seed + 1; i < n; i++ {
		if math.IsNaN(values[i]) {
			out[i] = out[i-1]
			continue
		}
		out[i] = (out[i-1]*float64(period-1) + values[i]) / float64(period)
	}
	return out
}
