package signal

import "math"

// The analyze functions map one indicator's latest values to a vote and a
// strength in [0, 1]. A NaN latest value always votes neutral at zero
// strength: an indicator that is still warming up abstains from
// direction without aborting the signal.

// analyzeRSI votes on mean reversion: overbought is bearish, oversold is
// bullish, strength scales with the distance into the extreme zone.
func analyzeRSI(v, overbought, oversold float64) (Vote, float64) {
	if math.IsNaN(v) {
		return VoteNeutral, 0
	}
	switch {
	case v > overbought:
		return VoteBearish, clamp01((v - overbought) / (100 - overbought))
	case v < oversold:
		return VoteBullish, clamp01((oversold - v) / oversold)
	default:
		return VoteNeutral, 0
	}
}

// analyzeMACD votes with the histogram sign. Strength saturates at a
// histogram magnitude of 1; beyond that the vote is already full weight.
func analyzeMACD(hist float64) (Vote, float64) {
	if math.IsNaN(hist) || hist == 0 {
		return VoteNeutral, 0
	}
	strength := min(math.Abs(hist), 1.0)
	if hist > 0 {
		return VoteBullish, strength
	}
	return VoteBearish, strength
}

// analyzeBollinger votes on band position. Breaks outside the bands vote
// at a strength proportional to the overshoot (full weight at a tenth of
// the band width); prices in the outer 30% of the band vote weakly in
// the reversion direction. A zero-width band carries no information.
func analyzeBollinger(price, upper, middle, lower float64) (Vote, float64) {
	if math.IsNaN(upper) || math.IsNaN(middle) || math.IsNaN(lower) {
		return VoteNeutral, 0
	}
	width := upper - lower
	if width == 0 {
		return VoteNeutral, 0
	}
	switch {
	case price > upper:
		return VoteBearish, clamp01((price - upper) / (0.1 * width))
	case price < lower:
		return VoteBullish, clamp01((lower - price) / (0.1 * width))
	}
	pos := (price - lower) / width
	switch {
	case pos > 0.7:
		return VoteBearish, 0.4
	case pos < 0.3:
		return VoteBullish, 0.4
	default:
		return VoteNeutral, 0
	}
}

// analyzeStochastic votes on %K extremes like RSI, and otherwise on the
// %K/%D crossover with strength from the gap, capped at 0.6 so a plain
// crossover never outweighs an extreme.
func analyzeStochastic(k, d, overbought, oversold float64) (Vote, float64) {
	if math.IsNaN(k) {
		return VoteNeutral, 0
	}
	switch {
	case k > overbought:
		return VoteBearish, clamp01((k - overbought) / (100 - overbought))
	case k < oversold:
		return VoteBullish, clamp01((oversold - k) / oversold)
	}
	if math.IsNaN(d) || k == d {
		return VoteNeutral, 0
	}
	strength := min(math.Abs(k-d)/100.0, 0.6)
	if k > d {
		return VoteBullish, strength
	}
	return VoteBearish, strength
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
