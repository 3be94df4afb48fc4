package indicator

import (
	"fmt"
	"math"

	"taengine/internal/cache"
	"taengine/internal/model"
)

// IchimokuParams configures the Ichimoku Cloud calculator.
type IchimokuParams struct {
	Conversion   int
	Base         int
	SpanB        int
	Displacement int
}

// DefaultIchimokuParams returns the conventional 9/26/52 configuration
// with a 26-bar displacement.
func DefaultIchimokuParams() IchimokuParams {
	return IchimokuParams{Conversion: 9, Base: 26, SpanB: 52, Displacement: 26}
}

func (p IchimokuParams) validate() error {
	if p.Conversion < 1 || p.Base < 1 || p.SpanB < 1 {
		return fmt.Errorf("%w: ichimoku periods must be >= 1, got %d/%d/%d",
			ErrInvalidParameter, p.Conversion, p.Base, p.SpanB)
	}
	if p.Displacement < 0 {
		return fmt.Errorf("%w: ichimoku displacement must be >= 0, got %d",
			ErrInvalidParameter, p.Displacement)
	}
	return nil
}

func (p IchimokuParams) key() string {
	return fmt.Sprintf("c=%d,b=%d,sb=%d,d=%d", p.Conversion, p.Base, p.SpanB, p.Displacement)
}

// IchimokuResult holds the five cloud lines. All slices have the input
// length: span values that would land past the final bar are dropped,
// and the lagging span is the close shifted backward.
type IchimokuResult struct {
	Conversion []float64
	Base       []float64
	SpanA      []float64
	SpanB      []float64
	Lagging    []float64
}

// Lines implements Result.
func (r *IchimokuResult) Lines() map[string][]float64 {
	return map[string][]float64{
		"ichimoku_conversion": r.Conversion,
		"ichimoku_base":       r.Base,
		"ichimoku_span_a":     r.SpanA,
		"ichimoku_span_b":     r.SpanB,
		"ichimoku_lagging":    r.Lagging,
	}
}

// Ichimoku computes the Ichimoku Cloud: conversion and base midpoint
// lines, the two displaced span lines, and the lagging span.
type Ichimoku struct {
	params IchimokuParams
	cache  *cache.Cache
}

// NewIchimoku creates an Ichimoku calculator. cache may be nil to disable
// memoization.
func NewIchimoku(params IchimokuParams, c *cache.Cache) (*Ichimoku, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	return &Ichimoku{params: params, cache: c}, nil
}

func (ic *Ichimoku) Kind() Kind { return KindIchimoku }
func (ic *Ichimoku) Name() string {
	return fmt.Sprintf("ICHIMOKU(%d,%d,%d)", ic.params.Conversion, ic.params.Base, ic.params.SpanB)
}

// MinBars is the longest of the three midpoint periods; with the default
// parameters that is the 52-bar span B window.
func (ic *Ichimoku) MinBars() int {
	return max(ic.params.Conversion, ic.params.Base, ic.params.SpanB)
}

// Compute returns the five lines over the whole series.
//
// Conversion[i] and Base[i] are window midpoints at i. SpanA and SpanB
// are shifted forward: the value computed at i is stored at
// i+Displacement when that index exists, otherwise dropped. Lagging is
// shifted backward: Lagging[i-Displacement] = Close[i].
func (ic *Ichimoku) Compute(s *model.Series) (Result, error) {
	if err := checkSeries(s, ic.MinBars(), ic.Name()); err != nil {
		return nil, err
	}
	fp := cache.NewFingerprint(ic.Kind().String(), ic.params.key(), s)
	return cache.GetOrCompute(ic.cache, fp, func() (Result, error) {
		return computeIchimoku(s, ic.params), nil
	})
}

func computeIchimoku(s *model.Series, p IchimokuParams) *IchimokuResult {
	n := s.Len()
	conv := midpoint(s, p.Conversion)
	base := midpoint(s, p.Base)
	midB := midpoint(s, p.SpanB)

	spanA, spanB := nans(n), nans(n)
	for i := 0; i < n; i++ {
		j := i + p.Displacement
		if j >= n {
			break
		}
		if !math.IsNaN(conv[i]) && !math.IsNaN(base[i]) {
			spanA[j] = (conv[i] + base[i]) / 2.0
		}
		if !math.IsNaN(midB[i]) {
			spanB[j] = midB[i]
		}
	}

	lagging := nans(n)
	for i := p.Displacement; i < n; i++ {
		lagging[i-p.Displacement] = s.Close[i]
	}

	return &IchimokuResult{Conversion: conv, Base: base, SpanA: spanA, SpanB: spanB, Lagging: lagging}
}

// midpoint returns (highest high + lowest low) / 2 over the trailing
// period bars.
func midpoint(s *model.Series, period int) []float64 {
	hh := rollingMax(s.High, period)
	ll := rollingMin(s.Low, period)
	out := nans(s.Len())
	for i := range out {
		if !math.IsNaN(hh[i]) {
			out[i] = (hh[i] + ll[i]) / 2.0
		}
	}
	return out
}
