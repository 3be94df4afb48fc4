package indicator

import (
	"fmt"
	"math"

	"taengine/internal/cache"
	"taengine/internal/model"
)

// ADXParams configures the Average Directional Index calculator.
type ADXParams struct {
	Period int
}

// DefaultADXParams returns the conventional 14-bar configuration.
func DefaultADXParams() ADXParams { return ADXParams{Period: 14} }

func (p ADXParams) validate() error {
	if p.Period < 1 {
		return fmt.Errorf("%w: adx period must be >= 1, got %d", ErrInvalidParameter, p.Period)
	}
	return nil
}

func (p ADXParams) key() string { return fmt.Sprintf("p=%d", p.Period) }

// ADXResult holds the ADX trend-strength line and both directional lines.
type ADXResult struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// Lines implements Result.
func (r *ADXResult) Lines() map[string][]float64 {
	return map[string][]float64{
		"adx":      r.ADX,
		"plus_di":  r.PlusDI,
		"minus_di": r.MinusDI,
	}
}

// ADX computes Wilder's Average Directional Index: directional movement
// is smoothed into +DI/-DI, their normalized difference is DX, and ADX
// is a second Wilder smoothing of DX.
type ADX struct {
	params ADXParams
	cache  *cache.Cache
}

// NewADX creates an ADX calculator. cache may be nil to disable memoization.
func NewADX(params ADXParams, c *cache.Cache) (*ADX, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &ADX{params: params, cache: c}, nil
}

func (a *ADX) Kind() Kind   { return KindADX }
func (a *ADX) Name() string { return fmt.Sprintf("ADX(%d)", a.params.Period) }

// MinBars is 2*Period: Period bars of directional movement to seed the
// DI lines, then Period DX values to seed ADX itself.
func (a *ADX) MinBars() int { return 2 * a.params.Period }

// Compute returns ADX, +DI, and -DI over the whole series. The DI lines
// are defined from index Period, ADX from index 2*Period-1.
func (a *ADX) Compute(s *model.Series) (Result, error) {
	if err := checkSeries(s, a.MinBars(), a.Name()); err != nil {
		return nil, err
	}
	fp := cache.NewFingerprint(a.Kind().String(), a.params.key(), s)
	return cache.GetOrCompute(a.cache, fp, func() (Result, error) {
		return computeADX(s, a.params.Period), nil
	})
}

func computeADX(s *model.Series, period int) *ADXResult {
	n := s.Len()

	// Directional movement per bar. Index 0 has no previous bar and is
	// left NaN so the smoothing seed starts at index 1.
	dmPlus, dmMinus, trn := nans(n), nans(n), nans(n)
	tr := trueRanges(s)
	for i := 1; i < n; i++ {
		up := s.High[i] - s.High[i-1]
		down := s.Low[i-1] - s.Low[i]
		dmPlus[i], dmMinus[i] = 0, 0
		if up > down && up > 0 {
			dmPlus[i] = up
		}
		if down > up && down > 0 {
			dmMinus[i] = down
		}
		trn[i] = tr[i]
	}

	sPlus := smma(dmPlus, period)
	sMinus := smma(dmMinus, period)
	sTR := smma(trn, period)

	plusDI, minusDI, dx := nans(n), nans(n), nans(n)
	for i := period; i < n; i++ {
		if sTR[i] == 0 {
			plusDI[i], minusDI[i] = 0, 0
		} else {
			plusDI[i] = 100.0 * sPlus[i] / sTR[i]
			minusDI[i] = 100.0 * sMinus[i] / sTR[i]
		}
		sum := plusDI[i] + minusDI[i]
		if sum == 0 {
			dx[i] = 0
		} else {
			dx[i] = 100.0 * math.Abs(plusDI[i]-minusDI[i]) / sum
		}
	}

	return &ADXResult{ADX: smma(dx, period), PlusDI: plusDI, MinusDI: minusDI}
}
