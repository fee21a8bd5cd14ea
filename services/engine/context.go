package engine

import (
	"strategy-engine/services/indicators"
	"strategy-engine/services/marketdata"
)

// ExecutionContext is the per-bar snapshot consumed by the condition
// evaluator: the current candle, the history up to and including it, the
// computed indicator series, the open position and the running metrics.
type ExecutionContext struct {
	Index    int
	Candle   marketdata.Candle
	Candles  []marketdata.Candle // candles[0..Index], read-only
	Series   map[string]indicators.Computed
	Snapshot map[string]float64
	Position *Position
	Metrics  RunningMetrics
}

// buildContext assembles the snapshot for candle i. The snapshot map holds
// the primary value of every alias that has data at this bar; it is attached
// verbatim to signals and trades.
func buildContext(
	candles []marketdata.Candle,
	series map[string]indicators.Computed,
	i int,
	pos *Position,
	metrics RunningMetrics,
) *ExecutionContext {
	snapshot := make(map[string]float64, len(series))
	for alias, computed := range series {
		if v, ok := computed.Primary.ValueAt(i); ok {
			snapshot[alias] = v
		}
	}
	return &ExecutionContext{
		Index:    i,
		Candle:   candles[i],
		Candles:  candles[:i+1],
		Series:   series,
		Snapshot: snapshot,
		Position: pos,
		Metrics:  metrics,
	}
}

// cloneSnapshot copies the indicator snapshot so signals and trades stay
// immutable after the run moves on.
func cloneSnapshot(snapshot map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(snapshot))
	for k, v := range snapshot {
		out[k] = v
	}
	return out
}
