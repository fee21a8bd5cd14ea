package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"strategy-engine/services/dsl"
	"strategy-engine/services/indicators"
	"strategy-engine/services/marketdata"
)

// DefaultInitialCapital is used when RunConfig.InitialCapital is zero.
var DefaultInitialCapital = decimal.NewFromInt(10000)

// Engine runs strategies. It holds no per-run state: the registry and cache
// are shared and read-mostly, so independent runs may execute concurrently.
type Engine struct {
	registry  *indicators.Registry
	cache     *indicators.Cache
	evaluator *Evaluator
	logger    *zap.Logger
}

// New creates an engine. Registry, cache and logger may be nil, in which
// case a fresh registry, a private cache and a no-op logger are used.
func New(registry *indicators.Registry, cache *indicators.Cache, logger *zap.Logger) *Engine {
	if registry == nil {
		registry = indicators.NewRegistry()
	}
	if cache == nil {
		cache = indicators.NewCache()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry:  registry,
		cache:     cache,
		evaluator: NewEvaluator(logger),
		logger:    logger,
	}
}

// Run validates the strategy, replays the candle series and returns the
// full execution result. The run is deterministic: the same strategy and
// candles always produce the same trades, signals and equity curve.
func (e *Engine) Run(ctx context.Context, strat *dsl.Strategy, candles []marketdata.Candle, cfg RunConfig) (*Result, error) {
	if res := dsl.NewValidator(e.registry).Validate(strat); !res.IsValid() {
		return nil, &ValidationError{Issues: res.Errors}
	}
	if err := marketdata.ValidateSeries(candles); err != nil {
		return nil, fmt.Errorf("candle series rejected: %w", err)
	}

	st, err := e.newRunState(strat, cfg)
	if err != nil {
		return nil, err
	}
	st.candles = candles

	warmup := st.warmupBars(cfg.WarmupBars)
	if len(candles) <= warmup {
		return nil, fmt.Errorf("insufficient data: need more than %d warm-up candles, got %d", warmup, len(candles))
	}
	if err := st.computeSeries(e.cache); err != nil {
		return nil, err
	}

	e.logger.Info("starting backtest",
		zap.String("run_id", st.runID),
		zap.String("strategy", strat.Name),
		zap.String("symbol", strat.Symbol),
		zap.Int("candles", len(candles)),
		zap.Int("warmup", warmup),
	)
	start := time.Now()

	for i := warmup; i < len(candles); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		st.step(i)
	}

	result := st.result(warmup)
	e.logger.Info("backtest completed",
		zap.String("run_id", st.runID),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("trades", len(result.Trades)),
		zap.Int("signals", len(result.Signals)),
	)
	return result, nil
}

// runState owns all mutable state of one run. Never shared between runs.
type runState struct {
	strat     *dsl.Strategy
	timeframe marketdata.Timeframe
	candles   []marketdata.Candle
	series    map[string]indicators.Computed
	normSpecs map[string]indicators.Spec

	registry  *indicators.Registry
	evaluator *Evaluator
	logger    *zap.Logger
	onSignal  func(Signal)

	runID          string
	commissionRate decimal.Decimal
	slippageRate   decimal.Decimal

	cash       decimal.Decimal
	peakEquity decimal.Decimal
	position   Position
	metrics    RunningMetrics
	trades     []Trade
	signals    []Signal
	equity     []EquityPoint
}

func (e *Engine) newRunState(strat *dsl.Strategy, cfg RunConfig) (*runState, error) {
	tf, err := marketdata.ParseTimeframe(strat.Timeframe)
	if err != nil {
		return nil, err
	}
	normSpecs := make(map[string]indicators.Spec, len(strat.Indicators))
	for alias, spec := range strat.Indicators {
		norm, err := e.registry.Normalize(spec)
		if err != nil {
			return nil, fmt.Errorf("indicator %q: %w", alias, err)
		}
		normSpecs[alias] = norm
	}

	capital := cfg.InitialCapital
	if capital.IsZero() {
		capital = DefaultInitialCapital
	}
	return &runState{
		strat:          strat,
		timeframe:      tf,
		normSpecs:      normSpecs,
		registry:       e.registry,
		evaluator:      e.evaluator,
		logger:         e.logger,
		onSignal:       cfg.OnSignal,
		runID:          uuid.New().String(),
		commissionRate: decimal.NewFromFloat(strat.Execution.Commission),
		slippageRate:   decimal.NewFromFloat(strat.Execution.Slippage),
		cash:           capital,
		peakEquity:     capital,
		position:       Position{Side: SideNone},
	}, nil
}

// computeSeries fills st.series from the shared cache, computing on miss.
func (st *runState) computeSeries(cache *indicators.Cache) error {
	in := indicators.Input{
		Open:   marketdata.Opens(st.candles),
		High:   marketdata.Highs(st.candles),
		Low:    marketdata.Lows(st.candles),
		Close:  marketdata.Closes(st.candles),
		Volume: marketdata.Volumes(st.candles),
	}
	st.series = make(map[string]indicators.Computed, len(st.normSpecs))
	for alias, spec := range st.normSpecs {
		key := indicators.CacheKey{
			Symbol:    st.strat.Symbol,
			Timeframe: st.strat.Timeframe,
			SpecHash:  spec.Hash(),
			Bars:      len(st.candles),
			FirstTime: st.candles[0].Timestamp,
			LastTime:  st.candles[len(st.candles)-1].Timestamp,
		}
		spec := spec
		st.series[alias] = cache.GetOrCompute(key, func() indicators.Computed {
			return st.registry.Compute(in, spec)
		})
	}
	return nil
}

// warmupBars returns the number of initial candles to skip: the heuristic
// max(50, 20·indicators), raised to the exact per-indicator
// warm-up so every series has a value on the first processed bar. An
// explicit override is honored but floored at the exact warm-up.
func (st *runState) warmupBars(override int) int {
	warmup := 50
	if h := 20 * len(st.normSpecs); h > warmup {
		warmup = h
	}
	if override > 0 {
		warmup = override
	}
	for _, spec := range st.normSpecs {
		if exact := st.registry.Warmup(spec); exact > warmup {
			warmup = exact
		}
	}
	return warmup
}

// step processes candle i: entries when flat, exits otherwise, then
// mark-to-market and the equity point.
func (st *runState) step(i int) {
	ctx := buildContext(st.candles, st.series, i, &st.position, st.metrics)

	if st.position.Side == SideNone {
		st.tryEnter(ctx)
	} else {
		st.tryExit(ctx)
	}

	st.markToMarket(ctx.Candle)
	st.appendEquityPoint(ctx.Candle)
}

// tryEnter evaluates long then short entry groups. A new entry while a
// position is open never happens: step only calls this when flat.
func (st *runState) tryEnter(ctx *ExecutionContext) {
	if ok, triggeredBy := st.evaluator.CheckGroups(st.strat.Entry.Long, ctx); ok {
		st.openPosition(ctx, SideLong, triggeredBy)
		return
	}
	if ok, triggeredBy := st.evaluator.CheckGroups(st.strat.Entry.Short, ctx); ok {
		st.openPosition(ctx, SideShort, triggeredBy)
	}
}

func (st *runState) openPosition(ctx *ExecutionContext, side Side, triggeredBy []string) {
	candle := ctx.Candle
	price := candle.Close
	if !price.IsPositive() {
		st.logger.Warn("entry skipped on non-positive price", zap.Int("index", ctx.Index))
		return
	}

	// quantity = floor(portfolioValue * maxPositionSize / price); the
	// portfolio is all cash here since entries only happen when flat.
	maxSize := decimal.NewFromFloat(st.strat.Risk.MaxPositionSize)
	qty := st.cash.Mul(maxSize).Div(price).Floor()
	if !qty.IsPositive() {
		st.logger.Warn("entry skipped: position size rounds to zero",
			zap.String("price", price.String()),
			zap.String("cash", st.cash.String()),
		)
		return
	}

	sl := decimal.NewFromFloat(st.strat.Risk.StopLoss)
	tp := decimal.NewFromFloat(st.strat.Risk.TakeProfit)
	var stopLoss, takeProfit decimal.Decimal
	if side == SideLong {
		stopLoss = price.Mul(decimal.NewFromInt(1).Sub(sl))
		takeProfit = price.Mul(decimal.NewFromInt(1).Add(tp))
	} else {
		stopLoss = price.Mul(decimal.NewFromInt(1).Add(sl))
		takeProfit = price.Mul(decimal.NewFromInt(1).Sub(tp))
	}

	snapshot := cloneSnapshot(ctx.Snapshot)
	st.position = Position{
		Side:       side,
		Size:       qty,
		EntryPrice: price,
		EntryTime:  candle.Timestamp,
		EntryIndex: ctx.Index,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Snapshot:   snapshot,
	}
	st.emitSignal(Signal{
		Type:              SignalEntry,
		Direction:         side,
		Strength:          SignalStrength,
		Reason:            fmt.Sprintf("%s entry conditions met", side),
		Timestamp:         candle.Timestamp,
		Price:             price,
		StopLoss:          stopLoss,
		TakeProfit:        takeProfit,
		TriggeredBy:       triggeredBy,
		IndicatorSnapshot: snapshot,
	})
}

// tryExit enforces the attached stop-loss/take-profit first (first-touch on
// the bar's high/low, stop-loss priority when both are inside the bar),
// then evaluates the exit condition groups for the open side.
func (st *runState) tryExit(ctx *ExecutionContext) {
	candle := ctx.Candle

	if price, reason, hit := st.resolveRiskExit(candle); hit {
		st.closePosition(ctx, price, reason, nil)
		return
	}

	groups := st.strat.Exit.Long
	if st.position.Side == SideShort {
		groups = st.strat.Exit.Short
	}
	group, triggeredBy := st.evaluator.CheckExitGroups(groups, ctx)
	if group == nil {
		return
	}
	reason := group.ExitType
	if reason == "" {
		reason = "exit conditions met"
	}
	st.closePosition(ctx, candle.Close, reason, triggeredBy)
}

// resolveRiskExit applies the bar's high/low to the position's SL/TP
// levels. When both are touched inside one bar the stop-loss wins: the
// conservative resolution for close-only path information.
func (st *runState) resolveRiskExit(candle marketdata.Candle) (decimal.Decimal, string, bool) {
	pos := &st.position
	if pos.StopLoss.IsZero() && pos.TakeProfit.IsZero() {
		return decimal.Zero, "", false
	}
	var hitSL, hitTP bool
	if pos.Side == SideLong {
		hitSL = candle.Low.LessThanOrEqual(pos.StopLoss)
		hitTP = candle.High.GreaterThanOrEqual(pos.TakeProfit)
	} else {
		hitSL = candle.High.GreaterThanOrEqual(pos.StopLoss)
		hitTP = candle.Low.LessThanOrEqual(pos.TakeProfit)
	}
	switch {
	case hitSL:
		return pos.StopLoss, "stop_loss", true
	case hitTP:
		return pos.TakeProfit, "take_profit", true
	default:
		return decimal.Zero, "", false
	}
}

func (st *runState) closePosition(ctx *ExecutionContext, exitPrice decimal.Decimal, reason string, triggeredBy []string) {
	pos := st.position
	candle := ctx.Candle

	var pnl decimal.Decimal
	if pos.Side == SideLong {
		pnl = exitPrice.Sub(pos.EntryPrice).Mul(pos.Size)
	} else {
		pnl = pos.EntryPrice.Sub(exitPrice).Mul(pos.Size)
	}
	notional := pos.Size.Mul(exitPrice)
	commission := notional.Mul(st.commissionRate)
	slippage := notional.Mul(st.slippageRate)

	entryNotional := pos.EntryPrice.Mul(pos.Size)
	var pnlPct decimal.Decimal
	if entryNotional.IsPositive() {
		pnlPct = pnl.Div(entryNotional).Mul(decimal.NewFromInt(100))
	}

	trade := Trade{
		ID:                uuid.New().String(),
		Symbol:            st.strat.Symbol,
		Side:              pos.Side,
		EntryTime:         pos.EntryTime,
		EntryPrice:        pos.EntryPrice,
		ExitTime:          candle.Timestamp,
		ExitPrice:         exitPrice,
		Quantity:          pos.Size,
		PnL:               pnl,
		PnLPercent:        pnlPct,
		Commission:        commission,
		Slippage:          slippage,
		HoldingTime:       time.Duration(candle.Timestamp-pos.EntryTime) * time.Millisecond,
		EntryIndex:        pos.EntryIndex,
		ExitIndex:         ctx.Index,
		ExitReason:        reason,
		IndicatorSnapshot: pos.Snapshot,
	}
	st.trades = append(st.trades, trade)

	st.cash = st.cash.Add(pnl).Sub(commission).Sub(slippage)
	side := pos.Side
	st.position = Position{Side: SideNone}

	st.metrics.TradeCount++
	if pnl.IsPositive() {
		st.metrics.WinCount++
	}
	st.metrics.WinRate = float64(st.metrics.WinCount) / float64(st.metrics.TradeCount)

	st.emitSignal(Signal{
		Type:              SignalExit,
		Direction:         side,
		Strength:          SignalStrength,
		Reason:            reason,
		Timestamp:         candle.Timestamp,
		Price:             exitPrice,
		TriggeredBy:       triggeredBy,
		IndicatorSnapshot: cloneSnapshot(ctx.Snapshot),
	})
}

// markToMarket refreshes the open position's unrealized PnL against the
// live close, using the same directional formula as realized PnL.
func (st *runState) markToMarket(candle marketdata.Candle) {
	pos := &st.position
	switch pos.Side {
	case SideLong:
		pos.UnrealizedPnL = candle.Close.Sub(pos.EntryPrice).Mul(pos.Size)
	case SideShort:
		pos.UnrealizedPnL = pos.EntryPrice.Sub(candle.Close).Mul(pos.Size)
	default:
		pos.UnrealizedPnL = decimal.Zero
	}
}

func (st *runState) appendEquityPoint(candle marketdata.Candle) {
	equity := st.cash.Add(st.position.UnrealizedPnL)
	if equity.GreaterThan(st.peakEquity) {
		st.peakEquity = equity
	}
	drawdown := 0.0
	if st.peakEquity.IsPositive() {
		dd, _ := st.peakEquity.Sub(equity).Div(st.peakEquity).Float64()
		if dd > 0 {
			drawdown = dd
		}
		// Equity can go negative (costs, unbounded short losses); the
		// drawdown fraction still reports at most a total loss.
		if drawdown > 1 {
			drawdown = 1
		}
	}
	if drawdown > st.metrics.MaxDrawdown {
		st.metrics.MaxDrawdown = drawdown
	}
	st.equity = append(st.equity, EquityPoint{
		Timestamp:    candle.Timestamp,
		Equity:       equity,
		Cash:         st.cash,
		Drawdown:     drawdown,
		PositionSide: st.position.Side,
	})
}

func (st *runState) emitSignal(s Signal) {
	st.signals = append(st.signals, s)
	if st.onSignal != nil {
		st.onSignal(s)
	}
}

func (st *runState) result(warmup int) *Result {
	return &Result{
		RunID:        st.runID,
		StrategyName: st.strat.Name,
		StrategyHash: st.strat.Hash(),
		Symbol:       st.strat.Symbol,
		Timeframe:    st.strat.Timeframe,
		WarmupBars:   warmup,
		Processed:    len(st.equity),
		Trades:       st.trades,
		Signals:      st.signals,
		EquityCurve:  st.equity,
		Metrics:      ComputeMetrics(st.trades, st.equity, st.timeframe),
	}
}
