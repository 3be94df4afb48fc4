package indicator

import (
	"fmt"

	"taengine/internal/cache"
	"taengine/internal/model"
)

// RSIParams configures the Relative Strength Index calculator.
type RSIParams struct {
	Period int
}

// DefaultRSIParams returns the conventional 14-bar configuration.
func DefaultRSIParams() RSIParams { return RSIParams{Period: 14} }

func (p RSIParams) validate() error {
	if p.Period < 1 {
		return fmt.Errorf("%w: rsi period must be >= 1, got %d", ErrInvalidParameter, p.Period)
	}
	return nil
}

func (p RSIParams) key() string { return fmt.Sprintf("p=%d", p.Period) }

// RSIResult holds index-aligned RSI values in [0, 100].
type RSIResult struct {
	Values []float64
}

// Lines implements Result.
func (r *RSIResult) Lines() map[string][]float64 {
	return map[string][]float64{"rsi": r.Values}
}

// RSI computes the Relative Strength Index with Wilder's smoothing.
type RSI struct {
	params RSIParams
	cache  *cache.Cache
}

// NewRSI creates an RSI calculator. cache may be nil to disable memoization.
func NewRSI(params RSIParams, c *cache.Cache) (*RSI, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &RSI{params: params, cache: c}, nil
}

func (r *RSI) Kind() Kind   { return KindRSI }
func (r *RSI) Name() string { return fmt.Sprintf("RSI(%d)", r.params.Period) }

// MinBars is Period+1: the first delta needs two closes, and the seed
// average needs Period deltas.
func (r *RSI) MinBars() int { return r.params.Period + 1 }

// Compute returns RSI over the whole series. First value lands at index
// Period (SMA-seeded averages over the first Period deltas), then
// avgGain = (avgGain*(period-1) + gain) / period carries forward.
// A zero average loss maps to RSI 100.
func (r *RSI) Compute(s *model.Series) (Result, error) {
	if err := checkSeries(s, r.MinBars(), r.Name()); err != nil {
		return nil, err
	}
	fp := cache.NewFingerprint(r.Kind().String(), r.params.key(), s)
	return cache.GetOrCompute(r.cache, fp, func() (Result, error) {
		return &RSIResult{Values: computeRSI(s.Close, r.params.Period)}, nil
	})
}

func computeRSI(closes []float64, period int) []float64 {
	n := len(closes)
	out := nans(n)
	p := float64(period)

	// SMA seed over the first period deltas.
	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= p
	avgLoss /= p
	out[period] = rsiValue(avgGain, avgLoss)

	// Wilder's smoothing for the rest.
	for i := period + 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
