package indicator

import (
	"fmt"
	"math"

	"taengine/internal/cache"
	"taengine/internal/model"
)

// BandsParams configures the Bollinger Bands calculator.
type BandsParams struct {
	Period int
	Mult   float64
}

// DefaultBandsParams returns the conventional 20-bar, 2-sigma
// configuration.
func DefaultBandsParams() BandsParams { return BandsParams{Period: 20, Mult: 2.0} }

func (p BandsParams) validate() error {
	if p.Period < 1 {
		return fmt.Errorf("%w: bollinger period must be >= 1, got %d", ErrInvalidParameter, p.Period)
	}
	if p.Mult <= 0 || math.IsNaN(p.Mult) || math.IsInf(p.Mult, 0) {
		return fmt.Errorf("%w: bollinger multiplier must be > 0, got %g", ErrInvalidParameter, p.Mult)
	}
	return nil
}

func (p BandsParams) key() string { return fmt.Sprintf("p=%d,k=%g", p.Period, p.Mult) }

// BandsResult holds the three Bollinger lines. On a flat window the
// standard deviation is zero and all three coincide.
type BandsResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Lines implements Result.
func (r *BandsResult) Lines() map[string][]float64 {
	return map[string][]float64{
		"bb_upper":  r.Upper,
		"bb_middle": r.Middle,
		"bb_lower":  r.Lower,
	}
}

// Bollinger computes SMA(close) bands offset by Mult population standard
// deviations.
type Bollinger struct {
	params BandsParams
	cache  *cache.Cache
}

// NewBollinger creates a Bollinger Bands calculator. cache may be nil to
// disable memoization.
func NewBollinger(params BandsParams, c *cache.Cache) (*Bollinger, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Bollinger{params: params, cache: c}, nil
}

func (b *Bollinger) Kind() Kind   { return KindBollinger }
func (b *Bollinger) Name() string { return fmt.Sprintf("BB(%d,%g)", b.params.Period, b.params.Mult) }
func (b *Bollinger) MinBars() int { return b.params.Period }

// Compute returns the bands over the whole series, defined from index
// Period-1 onward.
func (b *Bollinger) Compute(s *model.Series) (Result, error) {
	if err := checkSeries(s, b.MinBars(), b.Name()); err != nil {
		return nil, err
	}
	fp := cache.NewFingerprint(b.Kind().String(), b.params.key(), s)
	return cache.GetOrCompute(b.cache, fp, func() (Result, error) {
		middle := sma(s.Close, b.params.Period)
		std := rollingStd(s.Close, b.params.Period)

		n := s.Len()
		upper, lower := nans(n), nans(n)
		for i := range middle {
			if !math.IsNaN(middle[i]) {
				upper[i] = middle[i] + b.params.Mult*std[i]
				lower[i] = middle[i] - b.params.Mult*std[i]
			}
		}
		return &BandsResult{Upper: upper, Middle: middle, Lower: lower}, nil
	})
}
