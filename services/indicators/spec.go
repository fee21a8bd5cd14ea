package indicators

import (
	"crypto/sha256"
	"fmt"
)

// Type identifies an indicator kind.
type Type string

const (
	TypeSMA        Type = "sma"
	TypeEMA        Type = "ema"
	TypeRSI        Type = "rsi"
	TypeMACD       Type = "macd"
	TypeBollinger  Type = "bollinger"
	TypeStochastic Type = "stochastic"
	TypeWilliamsR  Type = "williamsr"
	TypeCCI        Type = "cci"
	TypeATR        Type = "atr"
)

// Source selects the input series for single-series indicators.
type Source string

const (
	SourceClose  Source = "close"
	SourceOpen   Source = "open"
	SourceHigh   Source = "high"
	SourceLow    Source = "low"
	SourceVolume Source = "volume"
)

// Spec is a normalized indicator configuration. Kind-specific parameters are
// explicit fields validated per type at construction, replacing the
// original's untyped settings maps.
type Spec struct {
	Type   Type   `json:"type" yaml:"type"`
	Period int    `json:"period,omitempty" yaml:"period,omitempty"`
	Source Source `json:"source,omitempty" yaml:"source,omitempty"`

	// MACD only.
	FastPeriod   int `json:"fastPeriod,omitempty" yaml:"fastPeriod,omitempty"`
	SlowPeriod   int `json:"slowPeriod,omitempty" yaml:"slowPeriod,omitempty"`
	SignalPeriod int `json:"signalPeriod,omitempty" yaml:"signalPeriod,omitempty"`

	// Bollinger only.
	StdDev float64 `json:"stdDev,omitempty" yaml:"stdDev,omitempty"`
}

// Hash returns a stable structural hash of the normalized spec, used as part
// of the cache key. Field order is fixed, so equal specs always collide and
// distinct specs practically never do.
func (s Spec) Hash() string {
	canonical := fmt.Sprintf("%s|%d|%s|%d|%d|%d|%g",
		s.Type, s.Period, s.Source, s.FastPeriod, s.SlowPeriod, s.SignalPeriod, s.StdDev)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(canonical)))
}
