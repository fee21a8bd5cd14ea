package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"strategy-engine/services/dsl"
	"strategy-engine/services/indicators"
	"strategy-engine/services/marketdata"
)

// StreamRunner applies the same per-bar logic as a backtest to a live
// candle stream, one synchronous Push per bar. Cancellation simply means
// ceasing to push: no in-flight work exists between bars.
type StreamRunner struct {
	state  *runState
	warmup int
	input  indicators.Input
}

// NewStreamRunner validates the strategy and prepares a runner. history may
// be empty; supplying warm-up history lets the runner trade sooner.
func (e *Engine) NewStreamRunner(strat *dsl.Strategy, history []marketdata.Candle, cfg RunConfig) (*StreamRunner, error) {
	if res := dsl.NewValidator(e.registry).Validate(strat); !res.IsValid() {
		return nil, &ValidationError{Issues: res.Errors}
	}
	if len(history) > 0 {
		if err := marketdata.ValidateSeries(history); err != nil {
			return nil, fmt.Errorf("history rejected: %w", err)
		}
	}

	st, err := e.newRunState(strat, cfg)
	if err != nil {
		return nil, err
	}
	r := &StreamRunner{state: st, warmup: st.warmupBars(cfg.WarmupBars)}
	for _, c := range history {
		r.appendCandle(c)
	}
	return r, nil
}

// Push processes one incoming candle and returns the signals it produced.
// Candles must arrive in strictly ascending timestamp order.
func (r *StreamRunner) Push(ctx context.Context, candle marketdata.Candle) ([]Signal, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	st := r.state
	if n := len(st.candles); n > 0 && candle.Timestamp <= st.candles[n-1].Timestamp {
		return nil, fmt.Errorf("out-of-order candle: %d after %d", candle.Timestamp, st.candles[len(st.candles)-1].Timestamp)
	}

	r.appendCandle(candle)
	i := len(st.candles) - 1
	if i < r.warmup {
		return nil, nil
	}

	r.recompute()
	before := len(st.signals)
	st.step(i)
	emitted := st.signals[before:]
	if len(emitted) > 0 {
		st.logger.Debug("stream bar produced signals",
			zap.Int("index", i),
			zap.Int("signals", len(emitted)),
		)
	}
	out := make([]Signal, len(emitted))
	copy(out, emitted)
	return out, nil
}

// Result snapshots the run so far.
func (r *StreamRunner) Result() *Result {
	return r.state.result(r.warmup)
}

func (r *StreamRunner) appendCandle(c marketdata.Candle) {
	st := r.state
	st.candles = append(st.candles, c)
	r.input.Open = append(r.input.Open, c.Open.InexactFloat64())
	r.input.High = append(r.input.High, c.High.InexactFloat64())
	r.input.Low = append(r.input.Low, c.Low.InexactFloat64())
	r.input.Close = append(r.input.Close, c.Close.InexactFloat64())
	r.input.Volume = append(r.input.Volume, c.Volume.InexactFloat64())
}

// recompute refreshes every indicator series over the accumulated candles.
// Streaming series are unbounded and per-runner, so they bypass the shared
// cache.
func (r *StreamRunner) recompute() {
	st := r.state
	if st.series == nil {
		st.series = make(map[string]indicators.Computed, len(st.normSpecs))
	}
	for alias, spec := range st.normSpecs {
		st.series[alias] = st.registry.Compute(r.input, spec)
	}
}
