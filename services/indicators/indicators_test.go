package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	assert.Equal(t, []float64{2, 3, 4}, SMA([]float64{1, 2, 3, 4, 5}, 3))
	assert.Empty(t, SMA([]float64{1, 2}, 3))
	assert.Empty(t, SMA(nil, 3))
	assert.Empty(t, SMA([]float64{1, 2, 3}, 0))
}

func TestEMA(t *testing.T) {
	// Seed is the simple average of the first period values, then
	// k = 2/(period+1) = 0.5 for period 3.
	assert.Equal(t, []float64{2, 3, 4}, EMA([]float64{1, 2, 3, 4, 5}, 3))
	assert.Empty(t, EMA([]float64{1, 2}, 3))
}

func TestRSIAllGainsCapsAt100(t *testing.T) {
	series := make([]float64, 20)
	for i := range series {
		series[i] = float64(i + 1)
	}
	out := RSI(series, 14)
	require.NotEmpty(t, out)
	for _, v := range out {
		assert.Equal(t, 100.0, v)
	}
}

func TestRSIAllLossesIsZero(t *testing.T) {
	series := make([]float64, 20)
	for i := range series {
		series[i] = float64(40 - i)
	}
	out := RSI(series, 14)
	require.NotEmpty(t, out)
	for _, v := range out {
		assert.InDelta(t, 0.0, v, 1e-9)
	}
}

func TestRSINeedsPeriodPlusOne(t *testing.T) {
	series := make([]float64, 14)
	assert.Empty(t, RSI(series, 14))
	series = append(series, 1)
	assert.Len(t, RSI(series, 14), 1)
}

func TestMACDShapes(t *testing.T) {
	series := make([]float64, 50)
	for i := range series {
		series[i] = 100
	}
	res := MACD(series, 12, 26, 9)

	require.Len(t, res.Line.Values, 25)
	assert.Equal(t, 25, res.Line.Offset)
	require.Len(t, res.Signal.Values, 17)
	assert.Equal(t, 33, res.Signal.Offset)
	require.Len(t, res.Histogram.Values, 17)
	assert.Equal(t, 33, res.Histogram.Offset)

	// Constant input: fast and slow EMA coincide everywhere.
	for _, v := range res.Line.Values {
		assert.InDelta(t, 0, v, 1e-9)
	}
	for _, v := range res.Histogram.Values {
		assert.InDelta(t, 0, v, 1e-9)
	}
}

func TestMACDTooShort(t *testing.T) {
	res := MACD(make([]float64, 20), 12, 26, 9)
	assert.Empty(t, res.Line.Values)
	assert.Empty(t, res.Signal.Values)
}

func TestBollinger(t *testing.T) {
	res := Bollinger([]float64{1, 2, 3, 4, 5}, 5, 2)
	require.Len(t, res.Middle.Values, 1)
	assert.InDelta(t, 3, res.Middle.Values[0], 1e-9)

	// Population variance of 1..5 is 2.
	sigma := 1.4142135623730951
	assert.InDelta(t, 3+2*sigma, res.Upper.Values[0], 1e-9)
	assert.InDelta(t, 3-2*sigma, res.Lower.Values[0], 1e-9)
	assert.Equal(t, 4, res.Middle.Offset)
}

func TestBollingerFlatSeries(t *testing.T) {
	res := Bollinger([]float64{7, 7, 7, 7}, 4, 2)
	require.Len(t, res.Middle.Values, 1)
	assert.Equal(t, res.Middle.Values[0], res.Upper.Values[0])
	assert.Equal(t, res.Middle.Values[0], res.Lower.Values[0])
}

func TestStochasticK(t *testing.T) {
	high := []float64{10, 11, 12}
	low := []float64{8, 9, 10}
	cls := []float64{9, 10, 12}
	out := StochasticK(high, low, cls, 3)
	require.Len(t, out, 1)
	// Close sits on the window high: %K = 100.
	assert.InDelta(t, 100, out[0], 1e-9)
}

func TestStochasticKFlatWindowIsNeutral(t *testing.T) {
	out := StochasticK([]float64{5, 5, 5}, []float64{5, 5, 5}, []float64{5, 5, 5}, 3)
	require.Len(t, out, 1)
	assert.Equal(t, 50.0, out[0])
}

func TestWilliamsR(t *testing.T) {
	high := []float64{10, 11, 12}
	low := []float64{8, 9, 10}

	atHigh := WilliamsR(high, low, []float64{9, 10, 12}, 3)
	require.Len(t, atHigh, 1)
	assert.InDelta(t, 0, atHigh[0], 1e-9)

	atLow := WilliamsR(high, low, []float64{9, 10, 8}, 3)
	require.Len(t, atLow, 1)
	assert.InDelta(t, -100, atLow[0], 1e-9)
}

func TestCCIFlatSeriesIsZero(t *testing.T) {
	flat := []float64{5, 5, 5, 5, 5}
	out := CCI(flat, flat, flat, 5)
	require.Len(t, out, 1)
	assert.Equal(t, 0.0, out[0])
}

func TestATRConstantRange(t *testing.T) {
	n := 10
	high := make([]float64, n)
	low := make([]float64, n)
	cls := make([]float64, n)
	for i := 0; i < n; i++ {
		high[i] = 102
		low[i] = 100
		cls[i] = 101
	}
	out := ATR(high, low, cls, 3)
	require.Len(t, out, n-3)
	for _, v := range out {
		assert.InDelta(t, 2, v, 1e-9)
	}
}

func TestATRNeedsPeriodPlusOne(t *testing.T) {
	flat := make([]float64, 14)
	assert.Empty(t, ATR(flat, flat, flat, 14))
}

func TestCalculationsArePure(t *testing.T) {
	series := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8, 9, 7, 9, 3, 2, 3, 8, 4}
	assert.Equal(t, SMA(series, 5), SMA(series, 5))
	assert.Equal(t, EMA(series, 5), EMA(series, 5))
	assert.Equal(t, RSI(series, 5), RSI(series, 5))
	assert.Equal(t, CCI(series, series, series, 5), CCI(series, series, series, 5))
}

func TestSeriesAlignment(t *testing.T) {
	s := Series{Values: []float64{10, 20, 30}, Offset: 5}

	v, ok := s.ValueAt(5)
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	v, ok = s.ValueAt(7)
	require.True(t, ok)
	assert.Equal(t, 30.0, v)

	_, ok = s.ValueAt(4)
	assert.False(t, ok)
	_, ok = s.ValueAt(8)
	assert.False(t, ok)

	window, ok := s.Window(7, 3)
	require.True(t, ok)
	assert.Equal(t, []float64{10, 20, 30}, window)

	_, ok = s.Window(7, 4)
	assert.False(t, ok)
}
