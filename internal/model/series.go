// Package model holds the price-series types shared by every component.
//
// A Series is a struct-of-arrays view of OHLCV bars, the shape upstream
// data feeds deliver and the shape the indicator math consumes. Construct
// one through NewSeries, FromBars, or FromCloses so the alignment and
// ordering invariants hold.
package model

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Series construction errors.
var (
	ErrEmptySeries    = errors.New("series: empty")
	ErrLengthMismatch = errors.New("series: mismatched array lengths")
	ErrOutOfOrder     = errors.New("series: timestamps not strictly increasing")
)

// Bar is one OHLCV row of a Series.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is a time-ordered price series as aligned OHLCV arrays.
// All arrays have equal length ≥ 1. Time is optional: nil means bars are
// indexed implicitly. No calendar regularity is assumed; gaps between
// timestamps are fine as long as order is strictly increasing.
type Series struct {
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
	Time   []time.Time
}

// NewSeries builds a Series from aligned arrays. times may be nil.
func NewSeries(open, high, low, closes, volume []float64, times []time.Time) (*Series, error) {
	n := len(closes)
	if n == 0 {
		return nil, ErrEmptySeries
	}
	if len(open) != n || len(high) != n || len(low) != n || len(volume) != n {
		return nil, fmt.Errorf("%w: open=%d high=%d low=%d close=%d volume=%d",
			ErrLengthMismatch, len(open), len(high), len(low), n, len(volume))
	}
	if times != nil {
		if len(times) != n {
			return nil, fmt.Errorf("%w: time=%d close=%d", ErrLengthMismatch, len(times), n)
		}
		for i := 1; i < n; i++ {
			if !times[i].After(times[i-1]) {
				return nil, fmt.Errorf("%w: index %d", ErrOutOfOrder, i)
			}
		}
	}
	return &Series{Open: open, High: high, Low: low, Close: closes, Volume: volume, Time: times}, nil
}

// FromBars builds a Series from row-oriented bars. Bars with a zero first
// timestamp are treated as implicitly indexed (Time stays nil).
func FromBars(bars []Bar) (*Series, error) {
	n := len(bars)
	if n == 0 {
		return nil, ErrEmptySeries
	}
	s := &Series{
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
	}
	for i, b := range bars {
		s.Open[i] = b.Open
		s.High[i] = b.High
		s.Low[i] = b.Low
		s.Close[i] = b.Close
		s.Volume[i] = b.Volume
	}
	if !bars[0].Time.IsZero() {
		s.Time = make([]time.Time, n)
		for i, b := range bars {
			s.Time[i] = b.Time
		}
		for i := 1; i < n; i++ {
			if !s.Time[i].After(s.Time[i-1]) {
				return nil, fmt.Errorf("%w: index %d", ErrOutOfOrder, i)
			}
		}
	}
	return s, nil
}

// FromCloses builds a close-only Series: open = high = low = close, zero
// volume. Convenient for close-driven indicators and tests. The input is
// copied; the four price arrays do not alias each other.
func FromCloses(closes []float64) (*Series, error) {
	n := len(closes)
	if n == 0 {
		return nil, ErrEmptySeries
	}
	dup := func() []float64 {
		cp := make([]float64, n)
		copy(cp, closes)
		return cp
	}
	return &Series{Open: dup(), High: dup(), Low: dup(), Close: dup(), Volume: make([]float64, n)}, nil
}

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.Close) }

// Bar returns the i-th row.
func (s *Series) Bar(i int) Bar {
	b := Bar{Open: s.Open[i], High: s.High[i], Low: s.Low[i], Close: s.Close[i], Volume: s.Volume[i]}
	if s.Time != nil {
		b.Time = s.Time[i]
	}
	return b
}

// LastClose returns the close of the final bar.
func (s *Series) LastClose() float64 { return s.Close[len(s.Close)-1] }

// ContentHash returns a 64-bit digest of the full series content.
// It is recomputed on every call: two value-equal series hash identically,
// and mutating any single value changes the digest. Raw float64 bits are
// hashed, so NaN payloads and signed zeros are distinguished.
func (s *Series) ContentHash() uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(s.Len()))
	d.Write(buf[:])
	for _, arr := range [][]float64{s.Open, s.High, s.Low, s.Close, s.Volume} {
		for _, v := range arr {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			d.Write(buf[:])
		}
	}
	for _, t := range s.Time {
		binary.LittleEndian.PutUint64(buf[:], uint64(t.UnixNano()))
		d.Write(buf[:])
	}
	return d.Sum64()
}

// HasNonFinite reports whether any numeric value in the series is NaN or ±Inf.
func (s *Series) HasNonFinite() bool {
	for _, arr := range [][]float64{s.Open, s.High, s.Low, s.Close, s.Volume} {
		for _, v := range arr {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
	}
	return false
}
