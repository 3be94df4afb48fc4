package indicator

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"taengine/internal/cache"
	"taengine/internal/metrics"
	"taengine/internal/model"
)

// Config holds per-indicator parameters for an Engine. Nil parameter
// fields fall back to the conventional defaults.
type Config struct {
	RSI        *RSIParams
	MACD       *MACDParams
	Bollinger  *BandsParams
	Stochastic *StochasticParams
	ADX        *ADXParams
	ATR        *ATRParams
	Ichimoku   *IchimokuParams
	Keltner    *KeltnerParams

	// Cache is shared across all calculators. Nil means a fresh cache of
	// CacheCapacity entries (CacheCapacity <= 0 picks the default bound).
	Cache         *cache.Cache
	CacheCapacity int

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Outcome pairs one indicator's result with its error for batch calls.
type Outcome struct {
	Result Result
	Err    error
}

// Engine fronts all calculators behind a shared cache. Construction
// validates every parameter set once; Compute never re-validates.
type Engine struct {
	calcs map[Kind]Calculator
	cache *cache.Cache
	log   *slog.Logger
	prom  *metrics.Metrics
}

// NewEngine builds an Engine from cfg. Any invalid parameter set aborts
// construction.
func NewEngine(cfg Config) (*Engine, error) {
	memo := cfg.Cache
	if memo == nil {
		memo = cache.New(cfg.CacheCapacity)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	rsiP := DefaultRSIParams()
	if cfg.RSI != nil {
		rsiP = *cfg.RSI
	}
	macdP := DefaultMACDParams()
	if cfg.MACD != nil {
		macdP = *cfg.MACD
	}
	bbP := DefaultBandsParams()
	if cfg.Bollinger != nil {
		bbP = *cfg.Bollinger
	}
	stochP := DefaultStochasticParams()
	if cfg.Stochastic != nil {
		stochP = *cfg.Stochastic
	}
	adxP := DefaultADXParams()
	if cfg.ADX != nil {
		adxP = *cfg.ADX
	}
	atrP := DefaultATRParams()
	if cfg.ATR != nil {
		atrP = *cfg.ATR
	}
	ichiP := DefaultIchimokuParams()
	if cfg.Ichimoku != nil {
		ichiP = *cfg.Ichimoku
	}
	keltP := DefaultKeltnerParams()
	if cfg.Keltner != nil {
		keltP = *cfg.Keltner
	}

	e := &Engine{
		calcs: make(map[Kind]Calculator, 8),
		cache: memo,
		log:   log,
		prom:  cfg.Metrics,
	}

	rsi, err := NewRSI(rsiP, memo)
	if err != nil {
		return nil, err
	}
	macd, err := NewMACD(macdP, memo)
	if err != nil {
		return nil, err
	}
	bb, err := NewBollinger(bbP, memo)
	if err != nil {
		return nil, err
	}
	stoch, err := NewStochastic(stochP, memo)
	if err != nil {
		return nil, err
	}
	adx, err := NewADX(adxP, memo)
	if err != nil {
		return nil, err
	}
	atr, err := NewATR(atrP, memo)
	if err != nil {
		return nil, err
	}
	ichi, err := NewIchimoku(ichiP, memo)
	if err != nil {
		return nil, err
	}
	kelt, err := NewKeltner(keltP, memo)
	if err != nil {
		return nil, err
	}

	for _, c := range []Calculator{rsi, macd, bb, stoch, adx, atr, ichi, kelt} {
		e.calcs[c.Kind()] = c
	}
	return e, nil
}

// Compute runs one indicator over s, through the shared cache.
func (e *Engine) Compute(s *model.Series, kind Kind) (Result, error) {
	calc, ok := e.calcs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown indicator kind %d", ErrInvalidParameter, int(kind))
	}

	start := time.Now()
	res, err := calc.Compute(s)
	if err != nil {
		if e.prom != nil {
			e.prom.ComputeErrors.WithLabelValues(kind.String(), errReason(err)).Inc()
		}
		return nil, err
	}
	if e.prom != nil {
		e.prom.ComputeDur.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
		e.prom.ComputesTotal.WithLabelValues(kind.String()).Inc()
	}
	return res, nil
}

// ComputeAll runs the requested indicators over s and returns one Outcome
// per kind. No kinds means all of them. Failures are independent: a
// series long enough for RSI but short of Ichimoku's window yields a mix
// of results and errors.
func (e *Engine) ComputeAll(s *model.Series, kinds ...Kind) map[Kind]Outcome {
	if len(kinds) == 0 {
		kinds = AllKinds()
	}
	out := make(map[Kind]Outcome, len(kinds))
	for _, k := range kinds {
		res, err := e.Compute(s, k)
		if err != nil {
			e.log.Debug("indicator compute failed", "indicator", k.String(), "err", err)
		}
		out[k] = Outcome{Result: res, Err: err}
	}
	return out
}

// Calculator returns the configured calculator for kind, or nil.
func (e *Engine) Calculator(kind Kind) Calculator { return e.calcs[kind] }

// Cache exposes the shared memoization cache.
func (e *Engine) Cache() *cache.Cache { return e.cache }

// ClearCache drops all memoized results.
func (e *Engine) ClearCache() { e.cache.Clear() }

// errReason maps a compute error to its metric label.
func errReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, ErrNonFiniteInput):
		return "non_finite_input"
	default:
		return "other"
	}
}
