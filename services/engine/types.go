// Package engine executes declarative strategies over candle series: it
// builds per-bar execution contexts, evaluates entry/exit condition trees,
// drives the single-position state machine and derives performance metrics.
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"strategy-engine/services/dsl"
)

// Side is the direction of a position or signal.
type Side string

const (
	SideNone  Side = "none"
	SideLong  Side = "long"
	SideShort Side = "short"
)

// SignalType distinguishes entries from exits.
type SignalType string

const (
	SignalEntry SignalType = "entry"
	SignalExit  SignalType = "exit"
)

// SignalStrength is the fixed strength attached to triggered signals.
// A placeholder tunable, not a computed score.
const SignalStrength = 0.8

// Position is the engine's single open position. Side == SideNone means
// flat; at most one position is open during a run.
type Position struct {
	Side          Side
	Size          decimal.Decimal
	EntryPrice    decimal.Decimal
	EntryTime     int64
	EntryIndex    int
	StopLoss      decimal.Decimal
	TakeProfit    decimal.Decimal
	UnrealizedPnL decimal.Decimal
	Snapshot      map[string]float64
}

// Signal is an immutable record of a triggered entry or exit.
type Signal struct {
	Type              SignalType
	Direction         Side
	Strength          float64
	Reason            string
	Timestamp         int64
	Price             decimal.Decimal
	StopLoss          decimal.Decimal
	TakeProfit        decimal.Decimal
	TriggeredBy       []string
	IndicatorSnapshot map[string]float64
}

// Trade is created once, when a position closes, and never mutated.
// PnL is gross; commission and slippage are itemized separately so the
// directional formula (exit-entry)*qty holds exactly.
type Trade struct {
	ID                string
	Symbol            string
	Side              Side
	EntryTime         int64
	EntryPrice        decimal.Decimal
	ExitTime          int64
	ExitPrice         decimal.Decimal
	Quantity          decimal.Decimal
	PnL               decimal.Decimal
	PnLPercent        decimal.Decimal
	Commission        decimal.Decimal
	Slippage          decimal.Decimal
	HoldingTime       time.Duration
	EntryIndex        int
	ExitIndex         int
	ExitReason        string
	IndicatorSnapshot map[string]float64
}

// EquityPoint is one mark-to-market sample, appended per processed candle.
type EquityPoint struct {
	Timestamp    int64
	Equity       decimal.Decimal
	Cash         decimal.Decimal
	Drawdown     float64 // fraction of the running peak, in [0,1]
	PositionSide Side
}

// RunningMetrics is the cheap per-bar statistics snapshot exposed to the
// execution context.
type RunningMetrics struct {
	TradeCount  int
	WinCount    int
	WinRate     float64
	MaxDrawdown float64
}

// Result is the aggregate output of one full run: plain data, no side
// effects, owned by the caller.
type Result struct {
	RunID        string
	StrategyName string
	StrategyHash string
	Symbol       string
	Timeframe    string
	WarmupBars   int
	Processed    int
	Trades       []Trade
	Signals      []Signal
	EquityCurve  []EquityPoint
	Metrics      PerformanceMetrics
}

// RunConfig tunes a single run.
type RunConfig struct {
	// InitialCapital defaults to 10000 when zero.
	InitialCapital decimal.Decimal
	// WarmupBars overrides the warm-up heuristic when positive. It is still
	// raised to the exact indicator warm-up so every configured indicator
	// has a value on the first processed bar.
	WarmupBars int
	// OnSignal, when set, is invoked synchronously for every emitted signal.
	// Replaces the original's event-emitter broadcast with an explicit
	// injected callback.
	OnSignal func(Signal)
}

// ValidationError refuses a run before any candle is processed.
type ValidationError struct {
	Issues []dsl.Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("strategy validation failed: %s: %s", e.Issues[0].Field, e.Issues[0].Message)
	}
	return fmt.Sprintf("strategy validation failed with %d errors (first: %s: %s)",
		len(e.Issues), e.Issues[0].Field, e.Issues[0].Message)
}
