package marketdata

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ascending(n int) []Candle {
	out := make([]Candle, n)
	for i := range out {
		out[i] = Candle{
			Timestamp: int64(i) * 3_600_000,
			Open:      decimal.NewFromInt(100),
			High:      decimal.NewFromInt(101),
			Low:       decimal.NewFromInt(99),
			Close:     decimal.NewFromInt(int64(100 + i)),
			Volume:    decimal.NewFromInt(1000),
		}
	}
	return out
}

func TestValidateSeries(t *testing.T) {
	assert.NoError(t, ValidateSeries(ascending(5)))
	assert.Error(t, ValidateSeries(nil))

	dup := ascending(5)
	dup[3].Timestamp = dup[2].Timestamp
	assert.Error(t, ValidateSeries(dup))

	reversed := ascending(5)
	reversed[1].Timestamp = reversed[0].Timestamp - 1
	assert.Error(t, ValidateSeries(reversed))
}

func TestSeriesExtraction(t *testing.T) {
	candles := ascending(3)
	assert.Equal(t, []float64{100, 101, 102}, Closes(candles))
	assert.Equal(t, []float64{100, 100, 100}, Opens(candles))
	assert.Equal(t, []float64{101, 101, 101}, Highs(candles))
	assert.Equal(t, []float64{99, 99, 99}, Lows(candles))
	assert.Equal(t, []float64{1000, 1000, 1000}, Volumes(candles))
}

func TestCandleTime(t *testing.T) {
	c := Candle{Timestamp: 1_700_000_000_000}
	assert.Equal(t, time.UnixMilli(1_700_000_000_000).UTC(), c.Time())
}

func TestParseTimeframe(t *testing.T) {
	tf, err := ParseTimeframe("1h")
	require.NoError(t, err)
	assert.Equal(t, Timeframe1h, tf)
	assert.Equal(t, time.Hour, tf.Duration())
	assert.Equal(t, int64(3_600_000), tf.Millis())

	_, err = ParseTimeframe("7m")
	assert.Error(t, err)
	_, err = ParseTimeframe("")
	assert.Error(t, err)
}

func TestGenerateSyntheticDeterministic(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	cfg.Noise = 2 // exercise the seeded PRNG path

	a := GenerateSynthetic(cfg)
	b := GenerateSynthetic(cfg)
	require.Len(t, a, cfg.Count)
	assert.Equal(t, a, b)

	cfg.Seed = 7
	c := GenerateSynthetic(cfg)
	assert.NotEqual(t, a, c)
}

func TestGenerateSyntheticShape(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	candles := GenerateSynthetic(cfg)

	require.NoError(t, ValidateSeries(candles))
	for i, c := range candles {
		assert.True(t, c.High.GreaterThanOrEqual(c.Low), "bar %d", i)
		assert.True(t, c.High.GreaterThanOrEqual(c.Close), "bar %d", i)
		assert.True(t, c.Low.LessThanOrEqual(c.Close), "bar %d", i)
		if i > 0 {
			assert.Equal(t, c.Timestamp-candles[i-1].Timestamp, cfg.Timeframe.Millis())
		}
	}

	// Closes stay inside the configured band.
	for _, c := range candles {
		v := c.Close.InexactFloat64()
		assert.GreaterOrEqual(t, v, cfg.BasePrice-cfg.Amplitude-1e-9)
		assert.LessOrEqual(t, v, cfg.BasePrice+cfg.Amplitude+1e-9)
	}
}

func TestGenerateSyntheticEmpty(t *testing.T) {
	assert.Nil(t, GenerateSynthetic(SyntheticConfig{Count: 0}))
}
