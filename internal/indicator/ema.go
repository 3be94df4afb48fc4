package indicator

import "math"

// ema computes an exponential moving average over values, NaN-aware.
// Leading NaNs are skipped; the first defined window of length period is
// seeded with its simple average, then the recurrence
// ema = (v * multiplier) + (ema_prev * (1 - multiplier)) takes over with
// multiplier = 2 / (period + 1). Output is index-aligned and NaN before
// the seed point.
func ema(values []float64, period int) []float64 {
	n := len(values)
	out := nans(n)
	f := firstDefined(values)
	if f < 0 || n-f < period {
		return out
	}

	multiplier := 2.0 / float64(period+1)

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
		out[i] = values[i]*multiplier + out[i-1]*(1-multiplier)
	}
	return out
}
