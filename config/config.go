// Package config loads engine configuration from an optional YAML file
// with environment variable overrides. A missing file is not an error:
// every field has a working default.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	Cache      CacheConfig      `yaml:"cache"`
	Indicators IndicatorsConfig `yaml:"indicators"`
	Signal     SignalConfig     `yaml:"signal"`
}

// CacheConfig bounds the shared memoization cache.
type CacheConfig struct {
	Capacity int `yaml:"capacity"`
}

// IndicatorsConfig holds per-indicator parameters.
type IndicatorsConfig struct {
	RSI        RSIConfig        `yaml:"rsi"`
	MACD       MACDConfig       `yaml:"macd"`
	Bollinger  BollingerConfig  `yaml:"bollinger"`
	Stochastic StochasticConfig `yaml:"stochastic"`
	ADX        ADXConfig        `yaml:"adx"`
	ATR        ATRConfig        `yaml:"atr"`
	Ichimoku   IchimokuConfig   `yaml:"ichimoku"`
	Keltner    KeltnerConfig    `yaml:"keltner"`
}

type RSIConfig struct {
	Period int `yaml:"period"`
}

type MACDConfig struct {
	Fast   int `yaml:"fast"`
	Slow   int `yaml:"slow"`
	Signal int `yaml:"signal"`
}

type BollingerConfig struct {
	Period     int     `yaml:"period"`
	Multiplier float64 `yaml:"multiplier"`
}

type StochasticConfig struct {
	Period    int `yaml:"period"`
	Smoothing int `yaml:"smoothing"`
}

type ADXConfig struct {
	Period int `yaml:"period"`
}

type ATRConfig struct {
	Period int `yaml:"period"`
}

type IchimokuConfig struct {
	Conversion   int `yaml:"conversion"`
	Base         int `yaml:"base"`
	SpanB        int `yaml:"span_b"`
	Displacement int `yaml:"displacement"`
}

type KeltnerConfig struct {
	Period     int     `yaml:"period"`
	Multiplier float64 `yaml:"multiplier"`
}

// SignalConfig tunes the consensus generator.
type SignalConfig struct {
	MinAgreementRatio   float64  `yaml:"min_agreement_ratio"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold"`
	HistoryCapacity     int      `yaml:"history_capacity"`
	Voters              []string `yaml:"voters"`
	RSIOverbought       float64  `yaml:"rsi_overbought"`
	RSIOversold         float64  `yaml:"rsi_oversold"`
	StochOverbought     float64  `yaml:"stoch_overbought"`
	StochOversold       float64  `yaml:"stoch_oversold"`
}

// Default returns the fully populated default configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Cache:    CacheConfig{Capacity: 128},
		Indicators: IndicatorsConfig{
			RSI:        RSIConfig{Period: 14},
			MACD:       MACDConfig{Fast: 12, Slow: 26, Signal: 9},
			Bollinger:  BollingerConfig{Period: 20, Multiplier: 2.0},
			Stochastic: StochasticConfig{Period: 14, Smoothing: 3},
			ADX:        ADXConfig{Period: 14},
			ATR:        ATRConfig{Period: 14},
			Ichimoku:   IchimokuConfig{Conversion: 9, Base: 26, SpanB: 52, Displacement: 26},
			Keltner:    KeltnerConfig{Period: 20, Multiplier: 2.0},
		},
		Signal: SignalConfig{
			MinAgreementRatio:   0.5,
			ConfidenceThreshold: 50,
			HistoryCapacity:     256,
			Voters:              []string{"rsi", "macd", "bollinger", "stochastic"},
			RSIOverbought:       70,
			RSIOversold:         30,
			StochOverbought:     80,
			StochOversold:       20,
		},
	}
}

// Load reads configuration from path, layering the file over Default()
// and environment variables over the file. A missing file (or empty
// path) yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to defaults + env
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv("TAENGINE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TAENGINE_CACHE_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: TAENGINE_CACHE_CAPACITY=%q: %w", v, err)
		}
		cfg.Cache.Capacity = n
	}
	if v := os.Getenv("TAENGINE_MIN_AGREEMENT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("config: TAENGINE_MIN_AGREEMENT=%q: %w", v, err)
		}
		cfg.Signal.MinAgreementRatio = f
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every numeric field. Voter names are validated by the
// generator, which owns the set of indicators allowed to vote.
func (c *Config) Validate() error {
	ind := c.Indicators
	for _, p := range []struct {
		name   string
		period int
	}{
		{"rsi.period", ind.RSI.Period},
		{"macd.fast", ind.MACD.Fast},
		{"macd.slow", ind.MACD.Slow},
		{"macd.signal", ind.MACD.Signal},
		{"bollinger.period", ind.Bollinger.Period},
		{"stochastic.period", ind.Stochastic.Period},
		{"stochastic.smoothing", ind.Stochastic.Smoothing},
		{"adx.period", ind.ADX.Period},
		{"atr.period", ind.ATR.Period},
		{"ichimoku.conversion", ind.Ichimoku.Conversion},
		{"ichimoku.base", ind.Ichimoku.Base},
		{"ichimoku.span_b", ind.Ichimoku.SpanB},
		{"keltner.period", ind.Keltner.Period},
	} {
		if p.period < 1 {
			return fmt.Errorf("config: %s must be >= 1, got %d", p.name, p.period)
		}
	}
	if ind.MACD.Fast >= ind.MACD.Slow {
		return fmt.Errorf("config: macd.fast %d must be below macd.slow %d", ind.MACD.Fast, ind.MACD.Slow)
	}
	if ind.Ichimoku.Displacement < 0 {
		return fmt.Errorf("config: ichimoku.displacement must be >= 0, got %d", ind.Ichimoku.Displacement)
	}
	if ind.Bollinger.Multiplier <= 0 {
		return fmt.Errorf("config: bollinger.multiplier must be > 0, got %g", ind.Bollinger.Multiplier)
	}
	if ind.Keltner.Multiplier <= 0 {
		return fmt.Errorf("config: keltner.multiplier must be > 0, got %g", ind.Keltner.Multiplier)
	}

	sig := c.Signal
	if sig.MinAgreementRatio < 0 || sig.MinAgreementRatio > 1 {
		return fmt.Errorf("config: signal.min_agreement_ratio must be in [0, 1], got %g", sig.MinAgreementRatio)
	}
	if sig.ConfidenceThreshold < 0 || sig.ConfidenceThreshold > 100 {
		return fmt.Errorf("config: signal.confidence_threshold must be in [0, 100], got %g", sig.ConfidenceThreshold)
	}
	if sig.RSIOversold <= 0 || sig.RSIOversold >= sig.RSIOverbought || sig.RSIOverbought >= 100 {
		return fmt.Errorf("config: rsi thresholds need 0 < oversold < overbought < 100, got %g/%g",
			sig.RSIOversold, sig.RSIOverbought)
	}
	if sig.StochOversold <= 0 || sig.StochOversold >= sig.StochOverbought || sig.StochOverbought >= 100 {
		return fmt.Errorf("config: stochastic thresholds need 0 < oversold < overbought < 100, got %g/%g",
			sig.StochOversold, sig.StochOverbought)
	}
	return nil
}
