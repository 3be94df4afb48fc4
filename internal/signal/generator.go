package signal

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taengine/internal/cache"
	"taengine/internal/indicator"
	"taengine/internal/metrics"
	"taengine/internal/model"
)

// ErrNoSignalData means no indicator produced a reading, so there is
// nothing to vote on.
var ErrNoSignalData = errors.New("no data for signal")

// Config holds the generator's construction-time settings. Zero values
// fall back to the conventional defaults.
type Config struct {
	// MinAgreementRatio is the consensus bar: below it the signal
	// degrades to HOLD. Zero means 0.5; valid range is [0, 1].
	MinAgreementRatio float64

	// ConfidenceThreshold marks signals worth acting on in stats and
	// reasoning text. Zero means 50; valid range is [0, 100].
	ConfidenceThreshold float64

	// HistoryCapacity bounds the per-symbol signal ring. Non-positive
	// means DefaultHistoryCapacity.
	HistoryCapacity int

	// Voters picks which indicators vote, in reading order. Empty means
	// the core four: RSI, MACD, Bollinger, Stochastic. Only those four
	// can vote.
	Voters []indicator.Kind

	// Vote thresholds. Zero values mean 70/30 for RSI and 80/20 for the
	// stochastic oscillator.
	RSIOverbought   float64
	RSIOversold     float64
	StochOverbought float64
	StochOversold   float64

	// Indicator parameters for the voters. Nil fields use the defaults.
	RSI        *indicator.RSIParams
	MACD       *indicator.MACDParams
	Bollinger  *indicator.BandsParams
	Stochastic *indicator.StochasticParams

	// Cache is shared with the voters' calculators. Nil means a fresh
	// default-sized cache. Pass the engine's cache to share memoized
	// results across both.
	Cache *cache.Cache

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// voterFn computes one indicator over the series and maps its latest
// values to a Reading. Errors mean the voter abstains.
type voterFn func(s *model.Series) (Reading, error)

type voter struct {
	kind indicator.Kind
	fn   voterFn
}

// Generator aggregates indicator votes into trading signals and retains
// a bounded per-symbol history.
type Generator struct {
	minAgreement  float64
	confThreshold float64
	histCap       int
	voters        []voter
	log           *slog.Logger
	prom          *metrics.Metrics

	mu        sync.RWMutex
	histories map[string]*ring
}

// NewGenerator builds a Generator from cfg. Invalid thresholds, voter
// kinds, or indicator parameters abort construction.
func NewGenerator(cfg Config) (*Generator, error) {
	minAgreement := cfg.MinAgreementRatio
	if minAgreement == 0 {
		minAgreement = 0.5
	}
	if minAgreement < 0 || minAgreement > 1 {
		return nil, fmt.Errorf("%w: min agreement ratio must be in [0, 1], got %g",
			indicator.ErrInvalidParameter, minAgreement)
	}

	confThreshold := cfg.ConfidenceThreshold
	if confThreshold == 0 {
		confThreshold = 50
	}
	if confThreshold < 0 || confThreshold > 100 {
		return nil, fmt.Errorf("%w: confidence threshold must be in [0, 100], got %g",
			indicator.ErrInvalidParameter, confThreshold)
	}

	histCap := cfg.HistoryCapacity
	if histCap <= 0 {
		histCap = DefaultHistoryCapacity
	}

	rsiOB, rsiOS := cfg.RSIOverbought, cfg.RSIOversold
	if rsiOB == 0 {
		rsiOB = 70
	}
	if rsiOS == 0 {
		rsiOS = 30
	}
	stochOB, stochOS := cfg.StochOverbought, cfg.StochOversold
	if stochOB == 0 {
		stochOB = 80
	}
	if stochOS == 0 {
		stochOS = 20
	}
	for _, t := range []struct {
		name   string
		ob, os float64
	}{
		{"rsi", rsiOB, rsiOS},
		{"stochastic", stochOB, stochOS},
	} {
		if t.os <= 0 || t.os >= t.ob || t.ob >= 100 {
			return nil, fmt.Errorf("%w: %s thresholds need 0 < oversold < overbought < 100, got %g/%g",
				indicator.ErrInvalidParameter, t.name, t.os, t.ob)
		}
	}

	memo := cfg.Cache
	if memo == nil {
		memo = cache.New(0)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	kinds := cfg.Voters
	if len(kinds) == 0 {
		kinds = []indicator.Kind{
			indicator.KindRSI, indicator.KindMACD,
			indicator.KindBollinger, indicator.KindStochastic,
		}
	}

	g := &Generator{
		minAgreement:  minAgreement,
		confThreshold: confThreshold,
		histCap:       histCap,
		voters:        make([]voter, 0, len(kinds)),
		log:           log,
		prom:          cfg.Metrics,
		histories:     make(map[string]*ring),
	}

	seen := make(map[indicator.Kind]bool, len(kinds))
	for _, k := range kinds {
		if seen[k] {
			return nil, fmt.Errorf("%w: duplicate voter %s", indicator.ErrInvalidParameter, k)
		}
		seen[k] = true

		var fn voterFn
		switch k {
		case indicator.KindRSI:
			params := indicator.DefaultRSIParams()
			if cfg.RSI != nil {
				params = *cfg.RSI
			}
			calc, err := indicator.NewRSI(params, memo)
			if err != nil {
				return nil, err
			}
			fn = rsiVoter(calc, rsiOB, rsiOS)

		case indicator.KindMACD:
			params := indicator.DefaultMACDParams()
			if cfg.MACD != nil {
				params = *cfg.MACD
			}
			calc, err := indicator.NewMACD(params, memo)
			if err != nil {
				return nil, err
			}
			fn = macdVoter(calc)

		case indicator.KindBollinger:
			params := indicator.DefaultBandsParams()
			if cfg.Bollinger != nil {
				params = *cfg.Bollinger
			}
			calc, err := indicator.NewBollinger(params, memo)
			if err != nil {
				return nil, err
			}
			fn = bollingerVoter(calc)

		case indicator.KindStochastic:
			params := indicator.DefaultStochasticParams()
			if cfg.Stochastic != nil {
				params = *cfg.Stochastic
			}
			calc, err := indicator.NewStochastic(params, memo)
			if err != nil {
				return nil, err
			}
			fn = stochasticVoter(calc, stochOB, stochOS)

		default:
			return nil, fmt.Errorf("%w: %s cannot vote", indicator.ErrInvalidParameter, k)
		}
		g.voters = append(g.voters, voter{kind: k, fn: fn})
	}

	return g, nil
}

func rsiVoter(calc *indicator.RSI, overbought, oversold float64) voterFn {
	return func(s *model.Series) (Reading, error) {
		res, err := calc.Compute(s)
		if err != nil {
			return Reading{}, err
		}
		r, ok := res.(*indicator.RSIResult)
		if !ok {
			return Reading{}, fmt.Errorf("rsi voter: unexpected result type %T", res)
		}
		v := lastOf(r.Values)
		vote, strength := analyzeRSI(v, overbought, oversold)
		return Reading{Indicator: calc.Name(), Value: v, Vote: vote, Strength: strength}, nil
	}
}

func macdVoter(calc *indicator.MACD) voterFn {
	return func(s *model.Series) (Reading, error) {
		res, err := calc.Compute(s)
		if err != nil {
			return Reading{}, err
		}
		r, ok := res.(*indicator.MACDResult)
		if !ok {
			return Reading{}, fmt.Errorf("macd voter: unexpected result type %T", res)
		}
		hist := lastOf(r.Histogram)
		vote, strength := analyzeMACD(hist)
		return Reading{Indicator: calc.Name(), Value: hist, Vote: vote, Strength: strength}, nil
	}
}

func bollingerVoter(calc *indicator.Bollinger) voterFn {
	return func(s *model.Series) (Reading, error) {
		res, err := calc.Compute(s)
		if err != nil {
			return Reading{}, err
		}
		r, ok := res.(*indicator.BandsResult)
		if !ok {
			return Reading{}, fmt.Errorf("bollinger voter: unexpected result type %T", res)
		}
		price := s.LastClose()
		vote, strength := analyzeBollinger(price, lastOf(r.Upper), lastOf(r.Middle), lastOf(r.Lower))
		return Reading{Indicator: calc.Name(), Value: price, Vote: vote, Strength: strength}, nil
	}
}

func stochasticVoter(calc *indicator.Stochastic, overbought, oversold float64) voterFn {
	return func(s *model.Series) (Reading, error) {
		res, err := calc.Compute(s)
		if err != nil {
			return Reading{}, err
		}
		r, ok := res.(*indicator.StochasticResult)
		if !ok {
			return Reading{}, fmt.Errorf("stochastic voter: unexpected result type %T", res)
		}
		k := lastOf(r.K)
		vote, strength := analyzeStochastic(k, lastOf(r.D), overbought, oversold)
		return Reading{Indicator: calc.Name(), Value: k, Vote: vote, Strength: strength}, nil
	}
}

func lastOf(values []float64) float64 { return values[len(values)-1] }

// Generate runs every voter over s and emits the consensus signal for
// symbol. Voters that fail (short series, bad input) abstain; the signal
// is built from whoever produced a reading. All voters failing, or a nil
// or empty series, is ErrNoSignalData.
func (g *Generator) Generate(s *model.Series, symbol string) (*TradingSignal, error) {
	if s == nil || s.Len() == 0 {
		return nil, fmt.Errorf("%w: empty series for %q", ErrNoSignalData, symbol)
	}

	readings := make([]Reading, 0, len(g.voters))
	for _, v := range g.voters {
		r, err := v.fn(s)
		if err != nil {
			g.log.Debug("voter abstained",
				"symbol", symbol, "indicator", v.kind.String(), "err", err)
			continue
		}
		readings = append(readings, r)
	}
	return g.emit(symbol, s.LastClose(), readings)
}

// GenerateFrom emits the consensus signal for pre-built readings, for
// callers that run their own indicator pass. The slice is copied.
func (g *Generator) GenerateFrom(symbol string, price float64, readings []Reading) (*TradingSignal, error) {
	cp := make([]Reading, len(readings))
	copy(cp, readings)
	return g.emit(symbol, price, cp)
}

// emit applies the consensus rules, records the signal, and returns it.
//
// Rule order: no directional votes at all is NEUTRAL; a bull/bear tie is
// HOLD; agreement below the configured ratio is HOLD; otherwise the
// majority side wins. The agreement ratio counts neutral votes in the
// denominator, so neutrals dilute confidence.
func (g *Generator) emit(symbol string, price float64, readings []Reading) (*TradingSignal, error) {
	if len(readings) == 0 {
		return nil, fmt.Errorf("%w: every voter abstained for %q", ErrNoSignalData, symbol)
	}

	bull, bear, neutral := 0, 0, 0
	for _, r := range readings {
		switch r.Vote {
		case VoteBullish:
			bull++
		case VoteBearish:
			bear++
		default:
			neutral++
		}
	}

	total := len(readings)
	ratio := float64(max(bull, bear)) / float64(total)

	var sigType SignalType
	switch {
	case bull == 0 && bear == 0:
		sigType = SignalNeutral
	case bull == bear:
		sigType = SignalHold
	case ratio < g.minAgreement:
		sigType = SignalHold
	case bull > bear:
		sigType = SignalBuy
	default:
		sigType = SignalSell
	}

	conf := math.Round(ratio * 100)
	if conf < 0 {
		conf = 0
	}
	if conf > 100 {
		conf = 100
	}

	parts := make([]string, len(readings))
	for i, r := range readings {
		parts[i] = fmt.Sprintf("%s=%.4f %s", r.Indicator, r.Value, strings.ToLower(r.Vote.String()))
	}
	reasoning := fmt.Sprintf("Signal: %s | Consensus: %.1f%% (%dB/%dS/%dN) | Confidence: %.0f | %s",
		sigType, ratio*100, bull, bear, neutral, conf, strings.Join(parts, ", "))
	if conf < g.confThreshold {
		reasoning += " | low confidence"
	}

	sig := &TradingSignal{
		ID:             uuid.New(),
		Symbol:         symbol,
		Type:           sigType,
		Confidence:     conf,
		AgreementRatio: ratio,
		Bullish:        bull,
		Bearish:        bear,
		Neutral:        neutral,
		Readings:       readings,
		Reasoning:      reasoning,
		Price:          price,
		Timestamp:      time.Now().UTC(),
	}

	g.mu.Lock()
	h, ok := g.histories[symbol]
	if !ok {
		h = newRing(g.histCap)
		g.histories[symbol] = h
	}
	h.push(sig)
	g.mu.Unlock()

	if g.prom != nil {
		g.prom.SignalsTotal.WithLabelValues(sigType.String()).Inc()
		g.prom.SignalConfidence.Observe(conf)
	}
	g.log.Info("signal generated",
		"symbol", symbol, "type", sigType.String(), "confidence", conf,
		"agreement", ratio, "readings", len(readings))

	return sig, nil
}

// History returns up to limit most recent signals for symbol, oldest
// first. limit <= 0 returns everything retained.
func (g *Generator) History(symbol string, limit int) []*TradingSignal {
	g.mu.RLock()
	defer g.mu.RUnlock()
	h, ok := g.histories[symbol]
	if !ok {
		return nil
	}
	return h.tail(limit)
}

// Stats aggregates every retained signal across all symbols.
func (g *Generator) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var st Stats
	confSum := 0.0
	for _, h := range g.histories {
		n := h.len()
		for i := 0; i < n; i++ {
			sig := h.at(i)
			st.Total++
			confSum += sig.Confidence
			switch sig.Type {
			case SignalBuy:
				st.Buy++
			case SignalSell:
				st.Sell++
			case SignalHold:
				st.Hold++
			case SignalNeutral:
				st.Neutral++
			}
			if sig.Confidence >= g.confThreshold {
				st.HighConfidence++
			}
		}
	}
	if st.Total > 0 {
		st.AvgConfidence = confSum / float64(st.Total)
		st.HighConfidencePct = 100.0 * float64(st.HighConfidence) / float64(st.Total)
	}
	return st
}
