package marketdata

import (
	"context"
	"time"
)

// Provider supplies historical candles. The engine only ever consumes
// candles handed to it; providers do the fetching.
type Provider interface {
	FetchHistorical(ctx context.Context, symbol string, timeframe Timeframe, start, end time.Time) ([]Candle, error)
}

// SliceProvider serves candles held in memory. Useful for tests and for
// callers that already have a series loaded.
type SliceProvider struct {
	candles []Candle
}

// NewSliceProvider wraps an existing series.
func NewSliceProvider(candles []Candle) *SliceProvider {
	return &SliceProvider{candles: candles}
}

// FetchHistorical returns the in-range subset of the wrapped series.
func (p *SliceProvider) FetchHistorical(_ context.Context, symbol string, timeframe Timeframe, start, end time.Time) ([]Candle, error) {
	startMs := start.UnixMilli()
	endMs := end.UnixMilli()
	out := make([]Candle, 0, len(p.candles))
	for _, c := range p.candles {
		if c.Symbol != symbol || c.Timeframe != string(timeframe) {
			continue
		}
		if c.Timestamp < startMs || c.Timestamp > endMs {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
