package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"strategy-engine/services/dsl"
	"strategy-engine/services/indicators"
	"strategy-engine/services/marketdata"
)

// eqTolerance is the absolute tolerance for the eq operator.
const eqTolerance = 1e-4

// Evaluation is the outcome of one condition: whether it holds and the
// resolved left-hand value.
type Evaluation struct {
	Result bool
	Value  float64
}

// Evaluator resolves and evaluates condition trees against an execution
// context. Missing indicator data fails closed: the condition is false,
// never an error, and the gap is logged as a warning.
type Evaluator struct {
	logger *zap.Logger
}

// NewEvaluator creates an evaluator. A nil logger disables logging.
func NewEvaluator(logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{logger: logger}
}

// Evaluate resolves the condition's left-hand series and applies its
// operator at the context bar.
func (ev *Evaluator) Evaluate(c dsl.Condition, ctx *ExecutionContext) Evaluation {
	series, ok := ev.resolveSeries(c, ctx)
	if !ok {
		return Evaluation{}
	}
	curr, ok := series.ValueAt(ctx.Index)
	if !ok {
		ev.logger.Warn("condition has no data at bar, failing closed",
			zap.String("indicator", c.Indicator),
			zap.String("type", string(c.Type)),
			zap.Int("index", ctx.Index),
		)
		return Evaluation{}
	}

	switch c.Operator {
	case dsl.OpGT:
		return Evaluation{Result: curr > c.Value, Value: curr}
	case dsl.OpLT:
		return Evaluation{Result: curr < c.Value, Value: curr}
	case dsl.OpGTE:
		return Evaluation{Result: curr >= c.Value, Value: curr}
	case dsl.OpLTE:
		return Evaluation{Result: curr <= c.Value, Value: curr}
	case dsl.OpEQ:
		return Evaluation{Result: math.Abs(curr-c.Value) < eqTolerance, Value: curr}
	case dsl.OpCrossover, dsl.OpCrossunder:
		prev, ok := series.ValueAt(ctx.Index - 1)
		if !ok {
			return Evaluation{Value: curr}
		}
		if c.Operator == dsl.OpCrossover {
			return Evaluation{Result: prev <= c.Value && curr > c.Value, Value: curr}
		}
		return Evaluation{Result: prev >= c.Value && curr < c.Value, Value: curr}
	case dsl.OpRising, dsl.OpFalling:
		lookback := c.Lookback
		if lookback <= 0 {
			lookback = dsl.DefaultLookback
		}
		window, ok := series.Window(ctx.Index, lookback)
		if !ok {
			return Evaluation{Value: curr}
		}
		return Evaluation{Result: monotonic(window, c.Operator == dsl.OpRising), Value: curr}
	default:
		return Evaluation{Value: curr}
	}
}

// resolveSeries maps the condition to an aligned value series: an indicator
// alias (optionally alias.component), the close price, or the volume.
func (ev *Evaluator) resolveSeries(c dsl.Condition, ctx *ExecutionContext) (indicators.Series, bool) {
	switch c.Type {
	case dsl.ConditionIndicator:
		alias, component, _ := strings.Cut(c.Indicator, ".")
		computed, ok := ctx.Series[alias]
		if !ok {
			ev.logger.Warn("condition references indicator with no computed series, failing closed",
				zap.String("alias", alias))
			return indicators.Series{}, false
		}
		series, ok := computed.Component(component)
		if !ok {
			ev.logger.Warn("condition references unknown indicator component, failing closed",
				zap.String("alias", alias),
				zap.String("component", component))
			return indicators.Series{}, false
		}
		return series, true
	case dsl.ConditionPrice:
		return indicators.Series{Values: marketdata.Closes(ctx.Candles)}, true
	case dsl.ConditionVolume:
		return indicators.Series{Values: marketdata.Volumes(ctx.Candles)}, true
	default:
		return indicators.Series{}, false
	}
}

// CheckGroups evaluates OR-combined condition groups: any satisfied group
// triggers. The returned descriptions identify the conditions of the first
// satisfied group.
func (ev *Evaluator) CheckGroups(groups []dsl.ConditionGroup, ctx *ExecutionContext) (bool, []string) {
	for _, g := range groups {
		if satisfied, described := ev.checkGroup(g, ctx); satisfied {
			return true, described
		}
	}
	return false, nil
}

func (ev *Evaluator) checkGroup(g dsl.ConditionGroup, ctx *ExecutionContext) (bool, []string) {
	if len(g.Conditions) == 0 {
		return false, nil
	}
	var described []string
	for _, c := range g.Conditions {
		eval := ev.Evaluate(c, ctx)
		if eval.Result {
			described = append(described, describeCondition(c, eval.Value))
		}
		switch g.Operator {
		case dsl.LogicAnd:
			if !eval.Result {
				return false, nil
			}
		case dsl.LogicOr:
			if eval.Result {
				return true, described
			}
		default:
			return false, nil
		}
	}
	if g.Operator == dsl.LogicAnd {
		return true, described
	}
	return false, nil
}

// CheckExitGroups evaluates exit groups in descending priority order and
// short-circuits on the first satisfied group; lower-priority groups are
// never evaluated once a higher one fires.
func (ev *Evaluator) CheckExitGroups(groups []dsl.ExitConditionGroup, ctx *ExecutionContext) (*dsl.ExitConditionGroup, []string) {
	ordered := make([]dsl.ExitConditionGroup, len(groups))
	copy(ordered, groups)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority > ordered[j].Priority })

	for i := range ordered {
		if satisfied, described := ev.checkGroup(ordered[i].ConditionGroup, ctx); satisfied {
			return &ordered[i], described
		}
	}
	return nil, nil
}

func monotonic(window []float64, rising bool) bool {
	for i := 1; i < len(window); i++ {
		if rising && window[i] <= window[i-1] {
			return false
		}
		if !rising && window[i] >= window[i-1] {
			return false
		}
	}
	return true
}

func describeCondition(c dsl.Condition, value float64) string {
	subject := c.Indicator
	if subject == "" {
		subject = string(c.Type)
	}
	return fmt.Sprintf("%s %s %g (value %.4f)", subject, c.Operator, c.Value, value)
}
