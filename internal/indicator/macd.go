package indicator

import (
	"fmt"
	"math"

	"taengine/internal/cache"
	"taengine/internal/model"
)

// MACDParams configures the Moving Average Convergence Divergence
// calculator.
type MACDParams struct {
	Fast   int
	Slow   int
	Signal int
}

// DefaultMACDParams returns the conventional 12/26/9 configuration.
func DefaultMACDParams() MACDParams { return MACDParams{Fast: 12, Slow: 26, Signal: 9} }

func (p MACDParams) validate() error {
	if p.Fast < 1 || p.Slow < 1 || p.Signal < 1 {
		return fmt.Errorf("%w: macd periods must be >= 1, got %d/%d/%d",
			ErrInvalidParameter, p.Fast, p.Slow, p.Signal)
	}
	if p.Fast >= p.Slow {
		return fmt.Errorf("%w: macd fast period %d must be below slow period %d",
			ErrInvalidParameter, p.Fast, p.Slow)
	}
	return nil
}

func (p MACDParams) key() string {
	return fmt.Sprintf("f=%d,s=%d,g=%d", p.Fast, p.Slow, p.Signal)
}

// MACDResult holds the MACD line, its signal EMA, and their difference.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// Lines implements Result.
func (r *MACDResult) Lines() map[string][]float64 {
	return map[string][]float64{
		"macd":        r.Line,
		"macd_signal": r.Signal,
		"macd_hist":   r.Histogram,
	}
}

// MACD computes fast EMA minus slow EMA, a signal EMA of that line, and
// the histogram between them.
type MACD struct {
	params MACDParams
	cache  *cache.Cache
}

// NewMACD creates a MACD calculator. cache may be nil to disable memoization.
func NewMACD(params MACDParams, c *cache.Cache) (*MACD, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &MACD{params: params, cache: c}, nil
}

func (m *MACD) Kind() Kind   { return KindMACD }
func (m *MACD) Name() string { return fmt.Sprintf("MACD(%d,%d,%d)", m.params.Fast, m.params.Slow, m.params.Signal) }

// MinBars is the slow period: below it not even the MACD line has a
// defined value, so the series is rejected rather than returned all-NaN.
func (m *MACD) MinBars() int { return m.params.Slow }

// Compute returns the three MACD lines over the whole series. The line
// starts where the slow EMA seeds (index Slow-1); the signal line seeds
// Signal values later; the histogram exists where both are defined.
func (m *MACD) Compute(s *model.Series) (Result, error) {
	if err := checkSeries(s, m.MinBars(), m.Name()); err != nil {
		return nil, err
	}
	fp := cache.NewFingerprint(m.Kind().String(), m.params.key(), s)
	return cache.GetOrCompute(m.cache, fp, func() (Result, error) {
		return computeMACD(s.Close, m.params), nil
	})
}

func computeMACD(closes []float64, p MACDParams) *MACDResult {
	n := len(closes)
	fast := ema(closes, p.Fast)
	slow := ema(closes, p.Slow)

	line := nans(n)
	for i := range line {
		if !math.IsNaN(fast[i]) && !math.IsNaN(slow[i]) {
			line[i] = fast[i] - slow[i]
		}
	}

	signal := ema(line, p.Signal)

	hist := nans(n)
	for i := range hist {
		if !math.IsNaN(line[i]) && !math.IsNaN(signal[i]) {
			hist[i] = line[i] - signal[i]
		}
	}
	return &MACDResult{Line: line, Signal: signal, Histogram: hist}
}
