// Package marketdata holds the candle model and the data sources that feed
// the strategy engine: CSV files, synthetic series and ClickHouse.
package marketdata

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Candle is a single OHLCV bar. Immutable once produced by a source.
type Candle struct {
	Symbol    string
	Timeframe string
	Timestamp int64 // open time, unix milliseconds
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// Time returns the candle open time in UTC.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.Timestamp).UTC()
}

// ValidateSeries checks that a candle sequence is usable for a run.
// Non-monotonic timestamps are a hard failure: a backtest over out-of-order
// bars produces a silently wrong equity curve, so the run must be refused.
func ValidateSeries(candles []Candle) error {
	if len(candles) == 0 {
		return fmt.Errorf("empty candle series")
	}
	for i := 1; i < len(candles); i++ {
		if candles[i].Timestamp <= candles[i-1].Timestamp {
			return fmt.Errorf("non-monotonic timestamps at index %d: %d after %d",
				i, candles[i].Timestamp, candles[i-1].Timestamp)
		}
	}
	return nil
}

// Closes extracts the close series as float64 for indicator math.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close.InexactFloat64()
	}
	return out
}

// Opens extracts the open series.
func Opens(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Open.InexactFloat64()
	}
	return out
}

// Highs extracts the high series.
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High.InexactFloat64()
	}
	return out
}

// Lows extracts the low series.
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low.InexactFloat64()
	}
	return out
}

// Volumes extracts the volume series.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume.InexactFloat64()
	}
	return out
}
