package indicator

import (
	"fmt"

	"taengine/internal/cache"
	"taengine/internal/model"
)

// ATRParams configures the Average True Range calculator.
type ATRParams struct {
	Period int
}

// DefaultATRParams returns the conventional 14-bar configuration.
func DefaultATRParams() ATRParams { return ATRParams{Period: 14} }

func (p ATRParams) validate() error {
	if p.Period < 1 {
		return fmt.Errorf("%w: atr period must be >= 1, got %d", ErrInvalidParameter, p.Period)
	}
	return nil
}

func (p ATRParams) key() string { return fmt.Sprintf("p=%d", p.Period) }

// ATRResult holds index-aligned ATR values.
type ATRResult struct {
	Values []float64
}

// Lines implements Result.
func (r *ATRResult) Lines() map[string][]float64 {
	return map[string][]float64{"atr": r.Values}
}

// ATR computes the Average True Range: Wilder smoothing over the true
// range series.
type ATR struct {
	params ATRParams
	cache  *cache.Cache
}

// NewATR creates an ATR calculator. cache may be nil to disable memoization.
func NewATR(params ATRParams, c *cache.Cache) (*ATR, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &ATR{params: params, cache: c}, nil
}

func (a *ATR) Kind() Kind   { return KindATR }
func (a *ATR) Name() string { return fmt.Sprintf("ATR(%d)", a.params.Period) }
func (a *ATR) MinBars() int { return a.params.Period }

// Compute returns ATR over the whole series, defined from index Period-1
// onward (the first bar's true range is high-low, so Period bars give
// Period true ranges).
func (a *ATR) Compute(s *model.Series) (Result, error) {
	if err := checkSeries(s, a.MinBars(), a.Name()); err != nil {
		return nil, err
	}
	fp := cache.NewFingerprint(a.Kind().String(), a.params.key(), s)
	return cache.GetOrCompute(a.cache, fp, func() (Result, error) {
		return &ATRResult{Values: smma(trueRanges(s), a.params.Period)}, nil
	})
}

// trueRanges returns the per-bar true range: the largest of high-low,
// |high-prevClose|, and |low-prevClose|. The first bar has no previous
// close and uses plain high-low.
func trueRanges(s *model.Series) []float64 {
	n := s.Len()
	tr := make([]float64, n)
	tr[0] = s.High[0] - s.Low[0]
	for i := 1; i < n; i++ {
		pc := s.Close[i-1]
		hl := s.High[i] - s.Low[i]
		hc := s.High[i] - pc
		if hc < 0 {
			hc = -hc
		}
		lc := s.Low[i] - pc
		if lc < 0 {
			lc = -lc
		}
		tr[i] = max(hl, hc, lc)
	}
	return tr
}
