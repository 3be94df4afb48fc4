package indicator

import "math"

// sma computes a simple moving average with a rolling sum, NaN-aware on
// the leading edge. out[i] is the mean of values[i-period+1 .. i]; NaN
// until a full window of defined values exists.
func sma(values []float64, period int) []float64 {
	n := len(values)
	out := nans(n)
	f := firstDefined(values)
	if f < 0 || n-f < period {
		return out
	}

	sum := 0.0
	for i := f; i < n; i++ {
		sum += values[i]
		if i-f >= period {
			sum -= values[i-period]
		}
		if i-f >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// rollingMax returns the windowed maximum: out[i] = max(values[i-period+1 .. i]).
// Linear rescan per window; period is small for every indicator here.
func rollingMax(values []float64, period int) []float64 {
	n := len(values)
	out := nans(n)
	for i := period - 1; i < n; i++ {
		m := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			m = max(m, values[j])
		}
		out[i] = m
	}
	return out
}

// rollingMin returns the windowed minimum: out[i] = min(values[i-period+1 .. i]).
func rollingMin(values []float64, period int) []float64 {
	n := len(values)
	out := nans(n)
	for i := period - 1; i < n; i++ {
		m := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			m = min(m, values[j])
		}
		out[i] = m
	}
	return out
}

// rollingStd returns the windowed population standard deviation
// (divide by period, not period-1). Two-pass per window for numeric
// stability at these window sizes.
func rollingStd(values []float64, period int) []float64 {
	n := len(values)
	out := nans(n)
	for i := period - 1; i < n; i++ {
		mean := 0.0
		for j := i - period + 1; j <= i; j++ {
			mean += values[j]
		}
		mean /= float64(period)

		ss := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(period))
	}
	return out
}
