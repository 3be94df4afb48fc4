// Package indicator provides batch technical indicator calculations over
// OHLCV series, with results memoized by series content.
//
// All calculators implement the Calculator interface: they take a full
// *model.Series and return index-aligned output arrays padded with NaN
// for warmup positions, so output[i] always describes bar i.
package indicator

import (
	"errors"
	"fmt"
	"math"

	"taengine/internal/model"
)

// Calculation errors. Compute wraps these with indicator and length
// context; match with errors.Is.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNonFiniteInput   = errors.New("non-finite input")
)

// Kind identifies a calculator family. The zero value is KindRSI.
type Kind int

const (
	KindRSI Kind = iota
	KindMACD
	KindBollinger
	KindStochastic
	KindADX
	KindATR
	KindIchimoku
	KindKeltner
)

// AllKinds returns every supported Kind in a stable order.
func AllKinds() []Kind {
	return []Kind{
		KindRSI, KindMACD, KindBollinger, KindStochastic,
		KindADX, KindATR, KindIchimoku, KindKeltner,
	}
}

// String returns the canonical lower-case identifier for the Kind.
func (k Kind) String() string {
	switch k {
	case KindRSI:
		return "rsi"
	case KindMACD:
		return "macd"
	case KindBollinger:
		return "bollinger"
	case KindStochastic:
		return "stochastic"
	case KindADX:
		return "adx"
	case KindATR:
		return "atr"
	case KindIchimoku:
		return "ichimoku"
	case KindKeltner:
		return "keltner"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a canonical identifier back to its Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range AllKinds() {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown indicator %q", ErrInvalidParameter, name)
}

// Result is one indicator's full output: named lines, each aligned to the
// input series (NaN during warmup).
type Result interface {
	// Lines returns the output arrays keyed by line name. Callers must
	// not mutate the returned slices; they may be shared with the cache.
	Lines() map[string][]float64
}

// Calculator computes one indicator over a whole series.
type Calculator interface {
	// Kind identifies the calculator family.
	Kind() Kind

	// Name returns the display name with parameters, e.g. "RSI(14)".
	Name() string

	// MinBars returns the minimum series length Compute accepts.
	MinBars() int

	// Compute runs the calculation. The returned Result may come from
	// cache; callers must treat it as immutable.
	Compute(s *model.Series) (Result, error)
}

// checkSeries runs the shared input validation: nil/short series and
// non-finite values are rejected before any math runs.
func checkSeries(s *model.Series, minBars int, name string) error {
	if s == nil || s.Len() == 0 {
		return fmt.Errorf("%w: %s needs %d bars, got 0", ErrInsufficientData, name, minBars)
	}
	if s.Len() < minBars {
		return fmt.Errorf("%w: %s needs %d bars, got %d", ErrInsufficientData, name, minBars, s.Len())
	}
	if s.HasNonFinite() {
		return fmt.Errorf("%w: %s", ErrNonFiniteInput, name)
	}
	return nil
}

// nans returns a length-n slice filled with NaN.
func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// firstDefined returns the index of the first non-NaN value, or -1.
func firstDefined(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}
