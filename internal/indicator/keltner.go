package indicator

import (
	"fmt"
	"math"

	"taengine/internal/cache"
	"taengine/internal/model"
)

// KeltnerParams configures the Keltner Channel calculator. Period drives
// both the EMA midline and the ATR width.
type KeltnerParams struct {
	Period int
	Mult   float64
}

// DefaultKeltnerParams returns the conventional 20-bar, 2x-ATR
// configuration.
func DefaultKeltnerParams() KeltnerParams { return KeltnerParams{Period: 20, Mult: 2.0} }

func (p KeltnerParams) validate() error {
	if p.Period < 1 {
		return fmt.Errorf("%w: keltner period must be >= 1, got %d", ErrInvalidParameter, p.Period)
	}
	if p.Mult <= 0 || math.IsNaN(p.Mult) || math.IsInf(p.Mult, 0) {
		return fmt.Errorf("%w: keltner multiplier must be > 0, got %g", ErrInvalidParameter, p.Mult)
	}
	return nil
}

func (p KeltnerParams) key() string { return fmt.Sprintf("p=%d,k=%g", p.Period, p.Mult) }

// KeltnerResult holds the three channel lines.
type KeltnerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Lines implements Result.
func (r *KeltnerResult) Lines() map[string][]float64 {
	return map[string][]float64{
		"keltner_upper":  r.Upper,
		"keltner_middle": r.Middle,
		"keltner_lower":  r.Lower,
	}
}

// Keltner computes EMA(close) channels offset by Mult times the ATR of
// the same period.
type Keltner struct {
	params KeltnerParams
	cache  *cache.Cache
}

// NewKeltner creates a Keltner Channel calculator. cache may be nil to
// disable memoization.
func NewKeltner(params KeltnerParams, c *cache.Cache) (*Keltner, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Keltner{params: params, cache: c}, nil
}

func (k *Keltner) Kind() Kind   { return KindKeltner }
func (k *Keltner) Name() string { return fmt.Sprintf("KELT(%d,%g)", k.params.Period, k.params.Mult) }
func (k *Keltner) MinBars() int { return k.params.Period }

// Compute returns the channel over the whole series, defined from index
// Period-1 where both the EMA and the ATR have seeded.
func (k *Keltner) Compute(s *model.Series) (Result, error) {
	if err := checkSeries(s, k.MinBars(), k.Name()); err != nil {
		return nil, err
	}
	fp := cache.NewFingerprint(k.Kind().String(), k.params.key(), s)
	return cache.GetOrCompute(k.cache, fp, func() (Result, error) {
		middle := ema(s.Close, k.params.Period)
		atr := smma(trueRanges(s), k.params.Period)

		n := s.Len()
		upper, lower := nans(n), nans(n)
		for i := range middle {
			if !math.IsNaN(middle[i]) && !math.IsNaN(atr[i]) {
				upper[i] = middle[i] + k.params.Mult*atr[i]
				lower[i] = middle[i] - k.params.Mult*atr[i]
			}
		}
		return &KeltnerResult{Upper: upper, Middle: middle, Lower: lower}, nil
	})
}
