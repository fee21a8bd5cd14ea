// Package dsl defines the declarative strategy language: indicator specs,
// entry/exit condition trees, risk and execution settings, plus loading from
// JSON/YAML and structural validation.
package dsl

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"strategy-engine/services/indicators"
)

// LogicOp combines the conditions of one group.
type LogicOp string

const (
	LogicAnd LogicOp = "and"
	LogicOr  LogicOp = "or"
)

// ConditionType selects the left-hand value of a condition.
type ConditionType string

const (
	ConditionIndicator ConditionType = "indicator"
	ConditionPrice     ConditionType = "price"
	ConditionVolume    ConditionType = "volume"
)

// Operator compares the resolved left-hand value to the literal Value.
type Operator string

const (
	OpGT         Operator = "gt"
	OpLT         Operator = "lt"
	OpGTE        Operator = "gte"
	OpLTE        Operator = "lte"
	OpEQ         Operator = "eq"
	OpCrossover  Operator = "crossover"
	OpCrossunder Operator = "crossunder"
	OpRising     Operator = "rising"
	OpFalling    Operator = "falling"
)

// DefaultLookback is the window used by rising/falling when unset.
const DefaultLookback = 3

// Condition is a single comparison. For indicator conditions the Indicator
// field names an alias from Strategy.Indicators, optionally suffixed with a
// component for multi-output indicators ("macd.signal", "bands.upper").
type Condition struct {
	Type      ConditionType `json:"type" yaml:"type"`
	Indicator string        `json:"indicator,omitempty" yaml:"indicator,omitempty"`
	Operator  Operator      `json:"operator" yaml:"operator"`
	Value     float64       `json:"value" yaml:"value"`
	Lookback  int           `json:"lookback,omitempty" yaml:"lookback,omitempty"`
}

// ConditionGroup combines conditions under a single logic operator.
type ConditionGroup struct {
	Operator   LogicOp     `json:"operator" yaml:"operator"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
}

// ExitConditionGroup is a condition group with an exit label and a priority.
// Higher priorities are evaluated first and the first satisfied group wins.
type ExitConditionGroup struct {
	ConditionGroup `yaml:",inline"`
	ExitType       string `json:"exitType" yaml:"exitType"`
	Priority       int    `json:"priority" yaml:"priority"`
}

// EntryRules holds the long and short entry groups. Groups are OR-combined:
// any satisfied group triggers.
type EntryRules struct {
	Long  []ConditionGroup `json:"long,omitempty" yaml:"long,omitempty"`
	Short []ConditionGroup `json:"short,omitempty" yaml:"short,omitempty"`
}

// ExitRules holds the long and short exit groups.
type ExitRules struct {
	Long  []ExitConditionGroup `json:"long,omitempty" yaml:"long,omitempty"`
	Short []ExitConditionGroup `json:"short,omitempty" yaml:"short,omitempty"`
}

// RiskParams are fractional risk settings. StopLoss and TakeProfit are
// distances from the entry price as fractions in (0,1); MaxPositionSize is
// the fraction of portfolio value committed per trade, in (0,1].
type RiskParams struct {
	StopLoss        float64 `json:"stopLoss" yaml:"stopLoss"`
	TakeProfit      float64 `json:"takeProfit" yaml:"takeProfit"`
	MaxPositionSize float64 `json:"maxPositionSize" yaml:"maxPositionSize"`
}

// ExecutionParams model fill costs. Commission and Slippage are rates
// applied to the traded notional.
type ExecutionParams struct {
	OrderType  string  `json:"orderType,omitempty" yaml:"orderType,omitempty"`
	Commission float64 `json:"commission" yaml:"commission"`
	Slippage   float64 `json:"slippage" yaml:"slippage"`
}

// Strategy is a complete declarative strategy definition.
type Strategy struct {
	Name       string                     `json:"name" yaml:"name"`
	Symbol     string                     `json:"symbol" yaml:"symbol"`
	Timeframe  string                     `json:"timeframe" yaml:"timeframe"`
	Indicators map[string]indicators.Spec `json:"indicators" yaml:"indicators"`
	Entry      EntryRules                 `json:"entry" yaml:"entry"`
	Exit       ExitRules                  `json:"exit" yaml:"exit"`
	Risk       RiskParams                 `json:"risk" yaml:"risk"`
	Execution  ExecutionParams            `json:"execution" yaml:"execution"`
}

// Hash returns a stable hash of the strategy definition for run manifests
// and result tagging.
func (s *Strategy) Hash() string {
	raw, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", sha256.Sum256(raw))
}
