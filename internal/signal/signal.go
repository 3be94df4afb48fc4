// Package signal turns indicator readings into consensus trading signals.
//
// Each configured indicator contributes one directional vote from its
// latest value; the generator aggregates the votes and emits BUY, SELL,
// HOLD, or NEUTRAL with a confidence score derived from how strongly the
// voters agree.
package signal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SignalType classifies an emitted signal. The zero value is SignalHold.
type SignalType int

const (
	SignalHold SignalType = iota
	SignalBuy
	SignalSell
	SignalNeutral
)

// String returns the wire name of the signal type.
func (t SignalType) String() string {
	switch t {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	case SignalHold:
		return "HOLD"
	case SignalNeutral:
		return "NEUTRAL"
	default:
		return fmt.Sprintf("signal(%d)", int(t))
	}
}

// MarshalText implements encoding.TextMarshaler so the type serializes as
// its name in JSON.
func (t SignalType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Vote is one indicator's directional opinion.
type Vote int

const (
	VoteBearish Vote = -1
	VoteNeutral Vote = 0
	VoteBullish Vote = 1
)

// String returns the wire name of the vote.
func (v Vote) String() string {
	switch v {
	case VoteBullish:
		return "BULLISH"
	case VoteBearish:
		return "BEARISH"
	case VoteNeutral:
		return "NEUTRAL"
	default:
		return fmt.Sprintf("vote(%d)", int(v))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Vote) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// Reading is one indicator's contribution to a signal: the latest value
// it saw, its vote, and how strongly it holds it (0 to 1).
type Reading struct {
	Indicator string  `json:"indicator"`
	Value     float64 `json:"value"`
	Vote      Vote    `json:"vote"`
	Strength  float64 `json:"strength"`
}

// TradingSignal is one consensus decision with its full audit trail.
type TradingSignal struct {
	ID             uuid.UUID  `json:"id"`
	Symbol         string     `json:"symbol"`
	Type           SignalType `json:"type"`
	Confidence     float64    `json:"confidence"`
	AgreementRatio float64    `json:"agreement_ratio"`
	Bullish        int        `json:"bullish"`
	Bearish        int        `json:"bearish"`
	Neutral        int        `json:"neutral"`
	Readings       []Reading  `json:"readings"`
	Reasoning      string     `json:"reasoning"`
	Price          float64    `json:"price"`
	Timestamp      time.Time  `json:"timestamp"`
}
