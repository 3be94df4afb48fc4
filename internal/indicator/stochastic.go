package indicator

import (
	"fmt"

	"taengine/internal/cache"
	"taengine/internal/model"
)

// StochasticParams configures the stochastic oscillator calculator.
type StochasticParams struct {
	Period    int
	Smoothing int
}

// DefaultStochasticParams returns the conventional 14-bar %K with 3-bar
// %D smoothing.
func DefaultStochasticParams() StochasticParams { return StochasticParams{Period: 14, Smoothing: 3} }

func (p StochasticParams) validate() error {
	if p.Period < 1 {
		return fmt.Errorf("%w: stochastic period must be >= 1, got %d", ErrInvalidParameter, p.Period)
	}
	if p.Smoothing < 1 {
		return fmt.Errorf("%w: stochastic smoothing must be >= 1, got %d", ErrInvalidParameter, p.Smoothing)
	}
	return nil
}

func (p StochasticParams) key() string { return fmt.Sprintf("p=%d,s=%d", p.Period, p.Smoothing) }

// StochasticResult holds %K and its SMA %D, both in [0, 100].
type StochasticResult struct {
	K []float64
	D []float64
}

// Lines implements Result.
func (r *StochasticResult) Lines() map[string][]float64 {
	return map[string][]float64{
		"stoch_k": r.K,
		"stoch_d": r.D,
	}
}

// Stochastic computes %K = 100 * (close - lowestLow) / (highestHigh -
// lowestLow) over the trailing Period bars, and %D as an SMA of %K.
type Stochastic struct {
	params StochasticParams
	cache  *cache.Cache
}

// NewStochastic creates a stochastic oscillator calculator. cache may be
// nil to disable memoization.
func NewStochastic(params StochasticParams, c *cache.Cache) (*Stochastic, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Stochastic{params: params, cache: c}, nil
}

func (st *Stochastic) Kind() Kind { return KindStochastic }
func (st *Stochastic) Name() string {
	return fmt.Sprintf("STOCH(%d,%d)", st.params.Period, st.params.Smoothing)
}
func (st *Stochastic) MinBars() int { return st.params.Period }

// Compute returns %K and %D over the whole series. %K is defined from
// index Period-1; %D needs Smoothing defined %K values on top of that.
// A flat window (highest high equals lowest low) yields %K = 50.
func (st *Stochastic) Compute(s *model.Series) (Result, error) {
	if err := checkSeries(s, st.MinBars(), st.Name()); err != nil {
		return nil, err
	}
	fp := cache.NewFingerprint(st.Kind().String(), st.params.key(), s)
	return cache.GetOrCompute(st.cache, fp, func() (Result, error) {
		n := s.Len()
		hh := rollingMax(s.High, st.params.Period)
		ll := rollingMin(s.Low, st.params.Period)

		k := nans(n)
		for i := st.params.Period - 1; i < n; i++ {
			rng := hh[i] - ll[i]
			if rng == 0 {
				k[i] = 50.0
				continue
			}
			k[i] = 100.0 * (s.Close[i] - ll[i]) / rng
		}
		return &StochasticResult{K: k, D: sma(k, st.params.Smoothing)}, nil
	})
}
