package dsl

import (
	"fmt"
	"strings"

	"strategy-engine/services/indicators"
	"strategy-engine/services/marketdata"
)

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes.
const (
	CodeMissingField     = "MISSING_FIELD"
	CodeInvalidTimeframe = "INVALID_TIMEFRAME"
	CodeInvalidRisk      = "INVALID_RISK"
	CodeInvalidIndicator = "INVALID_INDICATOR"
	CodeUnknownAlias     = "UNKNOWN_ALIAS"
	CodeInvalidCondition = "INVALID_CONDITION"
	CodeNoEntryRules     = "NO_ENTRY_RULES"
	CodeNoExitRules      = "NO_EXIT_RULES"
	CodeHighCosts        = "HIGH_COSTS"
	CodeShortLookback    = "SHORT_LOOKBACK"
)

// Issue is a single structured validation finding.
type Issue struct {
	Field    string   `json:"field"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Result aggregates validation findings. Warnings are advisory and never
// block execution; IsValid depends on errors only.
type Result struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// IsValid reports whether the strategy may run.
func (r Result) IsValid() bool { return len(r.Errors) == 0 }

// Validator checks strategy definitions against structural and business
// rules, using the indicator registry to validate indicator specs.
type Validator struct {
	registry *indicators.Registry
}

// NewValidator creates a validator bound to a registry.
func NewValidator(registry *indicators.Registry) *Validator {
	return &Validator{registry: registry}
}

// Validate runs every check and returns the full finding list.
func (v *Validator) Validate(s *Strategy) Result {
	var res Result
	addErr := func(field, code, msg string) {
		res.Errors = append(res.Errors, Issue{Field: field, Code: code, Message: msg, Severity: SeverityError})
	}
	addWarn := func(field, code, msg string) {
		res.Warnings = append(res.Warnings, Issue{Field: field, Code: code, Message: msg, Severity: SeverityWarning})
	}

	if strings.TrimSpace(s.Name) == "" {
		addErr("name", CodeMissingField, "strategy name is required")
	}
	if strings.TrimSpace(s.Symbol) == "" {
		addErr("symbol", CodeMissingField, "symbol is required")
	}
	if strings.TrimSpace(s.Timeframe) == "" {
		addErr("timeframe", CodeMissingField, "timeframe is required")
	} else if _, err := marketdata.ParseTimeframe(s.Timeframe); err != nil {
		addErr("timeframe", CodeInvalidTimeframe, err.Error())
	}

	if s.Risk.StopLoss <= 0 || s.Risk.StopLoss >= 1 {
		addErr("risk.stopLoss", CodeInvalidRisk,
			fmt.Sprintf("stopLoss must be strictly within (0,1), got %g", s.Risk.StopLoss))
	}
	if s.Risk.TakeProfit <= 0 || s.Risk.TakeProfit >= 1 {
		addErr("risk.takeProfit", CodeInvalidRisk,
			fmt.Sprintf("takeProfit must be strictly within (0,1), got %g", s.Risk.TakeProfit))
	}
	if s.Risk.MaxPositionSize <= 0 || s.Risk.MaxPositionSize > 1 {
		addErr("risk.maxPositionSize", CodeInvalidRisk,
			fmt.Sprintf("maxPositionSize must be within (0,1], got %g", s.Risk.MaxPositionSize))
	}
	if s.Execution.Commission < 0 {
		addErr("execution.commission", CodeInvalidRisk, "commission must be >= 0")
	}
	if s.Execution.Slippage < 0 {
		addErr("execution.slippage", CodeInvalidRisk, "slippage must be >= 0")
	}
	if s.Execution.Commission > 0.01 || s.Execution.Slippage > 0.01 {
		addWarn("execution", CodeHighCosts, "commission or slippage above 1% of notional is unusually high")
	}

	for alias, spec := range s.Indicators {
		field := "indicators." + alias
		if !v.registry.Known(spec.Type) {
			addErr(field, CodeInvalidIndicator, fmt.Sprintf("unknown indicator type %q", spec.Type))
			continue
		}
		if _, err := v.registry.Normalize(spec); err != nil {
			addErr(field, CodeInvalidIndicator, err.Error())
		}
	}

	if len(s.Entry.Long) == 0 && len(s.Entry.Short) == 0 {
		addErr("entry", CodeNoEntryRules, "at least one entry condition group is required")
	}
	if len(s.Exit.Long) == 0 && len(s.Exit.Short) == 0 {
		addWarn("exit", CodeNoExitRules, "no exit condition groups; positions close on stop-loss/take-profit only")
	}

	v.checkGroups(s, "entry.long", s.Entry.Long, &res)
	v.checkGroups(s, "entry.short", s.Entry.Short, &res)
	v.checkExitGroups(s, "exit.long", s.Exit.Long, &res)
	v.checkExitGroups(s, "exit.short", s.Exit.Short, &res)

	return res
}

func (v *Validator) checkGroups(s *Strategy, field string, groups []ConditionGroup, res *Result) {
	for i, g := range groups {
		gf := fmt.Sprintf("%s[%d]", field, i)
		if g.Operator != LogicAnd && g.Operator != LogicOr {
			res.Errors = append(res.Errors, Issue{
				Field: gf, Code: CodeInvalidCondition, Severity: SeverityError,
				Message: fmt.Sprintf("group operator must be %q or %q, got %q", LogicAnd, LogicOr, g.Operator),
			})
		}
		if len(g.Conditions) == 0 {
			res.Errors = append(res.Errors, Issue{
				Field: gf, Code: CodeInvalidCondition, Severity: SeverityError,
				Message: "condition group is empty",
			})
		}
		for j, c := range g.Conditions {
			v.checkCondition(s, fmt.Sprintf("%s.conditions[%d]", gf, j), c, res)
		}
	}
}

func (v *Validator) checkExitGroups(s *Strategy, field string, groups []ExitConditionGroup, res *Result) {
	plain := make([]ConditionGroup, len(groups))
	for i, g := range groups {
		plain[i] = g.ConditionGroup
	}
	v.checkGroups(s, field, plain, res)
}

func (v *Validator) checkCondition(s *Strategy, field string, c Condition, res *Result) {
	addErr := func(code, msg string) {
		res.Errors = append(res.Errors, Issue{Field: field, Code: code, Message: msg, Severity: SeverityError})
	}

	switch c.Type {
	case ConditionIndicator:
		alias, component, _ := strings.Cut(c.Indicator, ".")
		spec, ok := s.Indicators[alias]
		if !ok {
			addErr(CodeUnknownAlias, fmt.Sprintf("condition references undefined indicator %q", alias))
		} else if component != "" && !v.registry.HasComponent(spec.Type, component) {
			addErr(CodeUnknownAlias,
				fmt.Sprintf("indicator %q (%s) has no output %q", alias, spec.Type, component))
		}
	case ConditionPrice, ConditionVolume:
		if c.Indicator != "" {
			addErr(CodeInvalidCondition,
				fmt.Sprintf("%s condition must not name an indicator", c.Type))
		}
	default:
		addErr(CodeInvalidCondition, fmt.Sprintf("unknown condition type %q", c.Type))
	}

	switch c.Operator {
	case OpGT, OpLT, OpGTE, OpLTE, OpEQ, OpCrossover, OpCrossunder:
	case OpRising, OpFalling:
		if c.Lookback == 1 {
			res.Warnings = append(res.Warnings, Issue{
				Field: field, Code: CodeShortLookback, Severity: SeverityWarning,
				Message: "lookback 1 makes rising/falling trivially true; use at least 2",
			})
		}
		if c.Lookback < 0 {
			addErr(CodeInvalidCondition, "lookback must not be negative")
		}
	default:
		addErr(CodeInvalidCondition, fmt.Sprintf("unknown operator %q", c.Operator))
	}
}
