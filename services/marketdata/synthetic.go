package marketdata

import (
	"math"
	"math/rand"

	"github.com/shopspring/decimal"
)

// SyntheticConfig drives the deterministic candle generator used by tests
// and the generate command. The same config always yields the same series.
type SyntheticConfig struct {
	Symbol    string
	Timeframe Timeframe
	StartTime int64 // unix ms, aligned to the timeframe by the generator
	Count     int
	BasePrice float64 // mid price of the oscillation
	Amplitude float64 // peak deviation from BasePrice
	WaveBars  float64 // bars per full sine cycle
	Noise     float64 // max absolute noise added to each close
	Seed      int64
}

// DefaultSyntheticConfig returns a 200-bar sinusoidal series suitable for
// oscillator strategies.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Symbol:    "BTCUSDT",
		Timeframe: Timeframe1h,
		StartTime: 1_700_000_000_000,
		Count:     200,
		BasePrice: 100,
		Amplitude: 20,
		WaveBars:  50,
		Noise:     0,
		Seed:      42,
	}
}

// GenerateSynthetic produces an ascending candle series following a sine
// wave around BasePrice. Noise, when enabled, comes from a PRNG seeded with
// cfg.Seed so repeated calls are identical.
func GenerateSynthetic(cfg SyntheticConfig) []Candle {
	if cfg.Count <= 0 {
		return nil
	}
	cadence := cfg.Timeframe.Millis()
	if cadence <= 0 {
		cadence = Timeframe1h.Millis()
	}
	start := cfg.StartTime - cfg.StartTime%cadence
	rng := rand.New(rand.NewSource(cfg.Seed))

	candles := make([]Candle, 0, cfg.Count)
	prevClose := cfg.BasePrice
	for i := 0; i < cfg.Count; i++ {
		phase := 2 * math.Pi * float64(i) / cfg.WaveBars
		cls := cfg.BasePrice + cfg.Amplitude*math.Sin(phase)
		if cfg.Noise > 0 {
			cls += (rng.Float64()*2 - 1) * cfg.Noise
		}
		open := prevClose
		high := math.Max(open, cls) * 1.001
		low := math.Min(open, cls) * 0.999
		volume := 1000 + 100*math.Abs(cls-open)

		candles = append(candles, Candle{
			Symbol:    cfg.Symbol,
			Timeframe: string(cfg.Timeframe),
			Timestamp: start + int64(i)*cadence,
			Open:      decimal.NewFromFloat(open),
			High:      decimal.NewFromFloat(high),
			Low:       decimal.NewFromFloat(low),
			Close:     decimal.NewFromFloat(cls),
			Volume:    decimal.NewFromFloat(volume),
		})
		prevClose = cls
	}
	return candles
}
