package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-engine/services/dsl"
	"strategy-engine/services/indicators"
	"strategy-engine/services/marketdata"
)

// candlesFromCloses builds an ascending hourly series whose closes follow
// the given values; highs and lows hug the close.
func candlesFromCloses(closes []float64) []marketdata.Candle {
	out := make([]marketdata.Candle, len(closes))
	for i, c := range closes {
		out[i] = marketdata.Candle{
			Symbol:    "TEST",
			Timeframe: "1h",
			Timestamp: 1_700_000_000_000 + int64(i)*3_600_000,
			Open:      decimal.NewFromFloat(c),
			High:      decimal.NewFromFloat(c * 1.001),
			Low:       decimal.NewFromFloat(c * 0.999),
			Close:     decimal.NewFromFloat(c),
			Volume:    decimal.NewFromInt(1000),
		}
	}
	return out
}

func indicatorCtx(values []float64, index int) *ExecutionContext {
	candles := candlesFromCloses(values)
	return &ExecutionContext{
		Index:   index,
		Candle:  candles[index],
		Candles: candles[:index+1],
		Series: map[string]indicators.Computed{
			"x": {Primary: indicators.Series{Values: values, Offset: 0}},
		},
		Position: &Position{Side: SideNone},
	}
}

func indicatorCond(op dsl.Operator, value float64) dsl.Condition {
	return dsl.Condition{Type: dsl.ConditionIndicator, Indicator: "x", Operator: op, Value: value}
}

func TestEvaluateComparisons(t *testing.T) {
	ev := NewEvaluator(nil)
	ctx := indicatorCtx([]float64{5, 10, 15}, 2)

	assert.True(t, ev.Evaluate(indicatorCond(dsl.OpGT, 14), ctx).Result)
	assert.False(t, ev.Evaluate(indicatorCond(dsl.OpGT, 15), ctx).Result)
	assert.True(t, ev.Evaluate(indicatorCond(dsl.OpGTE, 15), ctx).Result)
	assert.True(t, ev.Evaluate(indicatorCond(dsl.OpLT, 16), ctx).Result)
	assert.False(t, ev.Evaluate(indicatorCond(dsl.OpLT, 15), ctx).Result)
	assert.True(t, ev.Evaluate(indicatorCond(dsl.OpLTE, 15), ctx).Result)

	eval := ev.Evaluate(indicatorCond(dsl.OpGT, 14), ctx)
	assert.Equal(t, 15.0, eval.Value)
}

func TestEvaluateEqUsesTolerance(t *testing.T) {
	ev := NewEvaluator(nil)

	ctx := indicatorCtx([]float64{10.00005}, 0)
	assert.True(t, ev.Evaluate(indicatorCond(dsl.OpEQ, 10), ctx).Result)

	ctx = indicatorCtx([]float64{10.0002}, 0)
	assert.False(t, ev.Evaluate(indicatorCond(dsl.OpEQ, 10), ctx).Result)
}

func TestEvaluateCrossoverFiresOnce(t *testing.T) {
	ev := NewEvaluator(nil)
	values := []float64{8, 9, 11, 12, 13}

	fires := 0
	for i := range values {
		ctx := indicatorCtx(values, i)
		if ev.Evaluate(indicatorCond(dsl.OpCrossover, 10), ctx).Result {
			fires++
			assert.Equal(t, 2, i)
		}
	}
	assert.Equal(t, 1, fires)
}

func TestEvaluateCrossunder(t *testing.T) {
	ev := NewEvaluator(nil)
	values := []float64{12, 11, 9, 8}

	fires := 0
	for i := range values {
		ctx := indicatorCtx(values, i)
		if ev.Evaluate(indicatorCond(dsl.OpCrossunder, 10), ctx).Result {
			fires++
			assert.Equal(t, 2, i)
		}
	}
	assert.Equal(t, 1, fires)
}

func TestEvaluateCrossoverNeedsPrevious(t *testing.T) {
	ev := NewEvaluator(nil)
	// Index 0 has no previous value: fail closed even though curr > value.
	ctx := indicatorCtx([]float64{11, 12}, 0)
	assert.False(t, ev.Evaluate(indicatorCond(dsl.OpCrossover, 10), ctx).Result)
}

func TestEvaluateRisingFalling(t *testing.T) {
	ev := NewEvaluator(nil)

	rising := indicatorCond(dsl.OpRising, 0)
	rising.Lookback = 3
	falling := indicatorCond(dsl.OpFalling, 0)
	falling.Lookback = 3

	ctx := indicatorCtx([]float64{1, 2, 3}, 2)
	assert.True(t, ev.Evaluate(rising, ctx).Result)
	assert.False(t, ev.Evaluate(falling, ctx).Result)

	// Not strictly monotonic.
	ctx = indicatorCtx([]float64{1, 2, 2}, 2)
	assert.False(t, ev.Evaluate(rising, ctx).Result)

	ctx = indicatorCtx([]float64{3, 2, 1}, 2)
	assert.True(t, ev.Evaluate(falling, ctx).Result)

	// Window larger than available history: fail closed.
	ctx = indicatorCtx([]float64{1, 2}, 1)
	assert.False(t, ev.Evaluate(rising, ctx).Result)
}

func TestEvaluateRisingDefaultLookback(t *testing.T) {
	ev := NewEvaluator(nil)
	cond := indicatorCond(dsl.OpRising, 0) // lookback unset

	ctx := indicatorCtx([]float64{1, 2, 3, 4}, 3)
	assert.True(t, ev.Evaluate(cond, ctx).Result)

	// Default lookback of 3 only sees the last three values.
	ctx = indicatorCtx([]float64{9, 1, 2, 3}, 3)
	assert.True(t, ev.Evaluate(cond, ctx).Result)
}

func TestEvaluateFailsClosed(t *testing.T) {
	ev := NewEvaluator(nil)

	// Unknown alias.
	ctx := indicatorCtx([]float64{1, 2, 3}, 2)
	cond := dsl.Condition{Type: dsl.ConditionIndicator, Indicator: "missing", Operator: dsl.OpGT, Value: 0}
	assert.False(t, ev.Evaluate(cond, ctx).Result)

	// Unknown component on a single-output series.
	cond.Indicator = "x.signal"
	assert.False(t, ev.Evaluate(cond, ctx).Result)

	// Bar before the series offset has no value.
	ctx.Series["x"] = indicators.Computed{Primary: indicators.Series{Values: []float64{7}, Offset: 5}}
	cond = indicatorCond(dsl.OpGT, 0)
	assert.False(t, ev.Evaluate(cond, ctx).Result)
}

func TestEvaluatePriceAndVolume(t *testing.T) {
	ev := NewEvaluator(nil)
	ctx := indicatorCtx([]float64{50, 100}, 1)

	price := dsl.Condition{Type: dsl.ConditionPrice, Operator: dsl.OpGT, Value: 99}
	assert.True(t, ev.Evaluate(price, ctx).Result)

	volume := dsl.Condition{Type: dsl.ConditionVolume, Operator: dsl.OpGTE, Value: 1000}
	assert.True(t, ev.Evaluate(volume, ctx).Result)

	crossed := dsl.Condition{Type: dsl.ConditionPrice, Operator: dsl.OpCrossover, Value: 75}
	assert.True(t, ev.Evaluate(crossed, ctx).Result)
}

func TestCheckGroupsLogic(t *testing.T) {
	ev := NewEvaluator(nil)
	ctx := indicatorCtx([]float64{5, 10, 15}, 2)

	andGroup := dsl.ConditionGroup{
		Operator: dsl.LogicAnd,
		Conditions: []dsl.Condition{
			indicatorCond(dsl.OpGT, 10),
			indicatorCond(dsl.OpLT, 20),
		},
	}
	ok, described := ev.CheckGroups([]dsl.ConditionGroup{andGroup}, ctx)
	assert.True(t, ok)
	assert.Len(t, described, 2)

	andGroup.Conditions[1].Value = 10 // 15 < 10 fails the AND
	ok, _ = ev.CheckGroups([]dsl.ConditionGroup{andGroup}, ctx)
	assert.False(t, ok)

	orGroup := dsl.ConditionGroup{
		Operator: dsl.LogicOr,
		Conditions: []dsl.Condition{
			indicatorCond(dsl.OpLT, 0),
			indicatorCond(dsl.OpGT, 10),
		},
	}
	ok, described = ev.CheckGroups([]dsl.ConditionGroup{orGroup}, ctx)
	assert.True(t, ok)
	assert.Len(t, described, 1)

	// Groups are OR-combined: a failing group before a passing one still
	// triggers.
	failing := dsl.ConditionGroup{Operator: dsl.LogicAnd, Conditions: []dsl.Condition{indicatorCond(dsl.OpGT, 100)}}
	ok, _ = ev.CheckGroups([]dsl.ConditionGroup{failing, orGroup}, ctx)
	assert.True(t, ok)

	// An empty group never triggers.
	ok, _ = ev.CheckGroups([]dsl.ConditionGroup{{Operator: dsl.LogicAnd}}, ctx)
	assert.False(t, ok)
}

func TestCheckExitGroupsPriority(t *testing.T) {
	ev := NewEvaluator(nil)
	ctx := indicatorCtx([]float64{5, 10, 15}, 2)

	low := dsl.ExitConditionGroup{
		ConditionGroup: dsl.ConditionGroup{
			Operator:   dsl.LogicAnd,
			Conditions: []dsl.Condition{indicatorCond(dsl.OpGT, 0)},
		},
		ExitType: "secondary",
		Priority: 5,
	}
	high := dsl.ExitConditionGroup{
		ConditionGroup: dsl.ConditionGroup{
			Operator:   dsl.LogicAnd,
			Conditions: []dsl.Condition{indicatorCond(dsl.OpGT, 0)},
		},
		ExitType: "primary",
		Priority: 10,
	}

	// Both satisfied: the higher priority wins regardless of slice order.
	group, _ := ev.CheckExitGroups([]dsl.ExitConditionGroup{low, high}, ctx)
	require.NotNil(t, group)
	assert.Equal(t, "primary", group.ExitType)

	group, _ = ev.CheckExitGroups([]dsl.ExitConditionGroup{high, low}, ctx)
	require.NotNil(t, group)
	assert.Equal(t, "primary", group.ExitType)

	// Higher priority not satisfied: falls through to the lower one.
	high.Conditions[0].Value = 100
	group, _ = ev.CheckExitGroups([]dsl.ExitConditionGroup{low, high}, ctx)
	require.NotNil(t, group)
	assert.Equal(t, "secondary", group.ExitType)

	group, _ = ev.CheckExitGroups(nil, ctx)
	assert.Nil(t, group)
}
