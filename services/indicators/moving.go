package indicators

import "math"

// SMA computes the arithmetic mean over a trailing window.
// Output length is len(series)-period+1, empty when the input is shorter
// than the period.
func SMA(series []float64, period int) []float64 {
	if period <= 0 || len(series) < period {
		return nil
	}
	out := make([]float64, 0, len(series)-period+1)
	var sum float64
	for i, v := range series {
		sum += v
		if i >= period {
			sum -= series[i-period]
		}
		if i >= period-1 {
			out = append(out, sum/float64(period))
		}
	}
	return out
}

// EMA computes an exponential moving average seeded with the simple average
// of the first period values, then ema = (x-prev)*k + prev with
// k = 2/(period+1). Output aligns with SMA: first value at index period-1.
func EMA(series []float64, period int) []float64 {
	if period <= 0 || len(series) < period {
		return nil
	}
	var seed float64
	for i := 0; i < period; i++ {
		seed += series[i]
	}
	seed /= float64(period)

	k := 2.0 / float64(period+1)
	out := make([]float64, 0, len(series)-period+1)
	out = append(out, seed)
	prev := seed
	for i := period; i < len(series); i++ {
		prev = (series[i]-prev)*k + prev
		out = append(out, prev)
	}
	return out
}

// MACDResult holds the three documented MACD outputs as aligned series.
type MACDResult struct {
	Line      Series // fast EMA - slow EMA, first value at candle slow-1
	Signal    Series // EMA of the line over signalPeriod
	Histogram Series // line - signal, aligned with Signal
}

// MACD computes line, signal and histogram. Defaults are 12/26/9; the
// caller supplies validated periods. Empty result when the input cannot
// cover the slow period.
func MACD(series []float64, fast, slow, signal int) MACDResult {
	if fast <= 0 || slow <= 0 || signal <= 0 || fast >= slow || len(series) < slow {
		return MACDResult{}
	}
	fastEMA := EMA(series, fast)
	slowEMA := EMA(series, slow)

	// Align on the shorter length: slow EMA starts later.
	lag := slow - fast
	line := make([]float64, len(slowEMA))
	for i := range slowEMA {
		line[i] = fastEMA[i+lag] - slowEMA[i]
	}
	lineSeries := Series{Values: line, Offset: slow - 1}

	signalValues := EMA(line, signal)
	signalSeries := Series{Values: signalValues, Offset: slow - 1 + signal - 1}

	hist := make([]float64, len(signalValues))
	for i := range signalValues {
		hist[i] = line[i+signal-1] - signalValues[i]
	}
	histSeries := Series{Values: hist, Offset: signalSeries.Offset}

	return MACDResult{Line: lineSeries, Signal: signalSeries, Histogram: histSeries}
}

// BollingerResult holds the three bands.
type BollingerResult struct {
	Upper  Series
	Middle Series
	Lower  Series
}

// Bollinger computes middle = SMA(period) and upper/lower = middle ± mult·σ
// where σ is the population standard deviation over the same window.
func Bollinger(series []float64, period int, mult float64) BollingerResult {
	if period <= 0 || len(series) < period {
		return BollingerResult{}
	}
	middle := SMA(series, period)
	upper := make([]float64, len(middle))
	lower := make([]float64, len(middle))
	for j := range middle {
		window := series[j : j+period]
		var variance float64
		for _, v := range window {
			d := v - middle[j]
			variance += d * d
		}
		sigma := math.Sqrt(variance / float64(period))
		upper[j] = middle[j] + mult*sigma
		lower[j] = middle[j] - mult*sigma
	}
	offset := period - 1
	return BollingerResult{
		Upper:  Series{Values: upper, Offset: offset},
		Middle: Series{Values: middle, Offset: offset},
		Lower:  Series{Values: lower, Offset: offset},
	}
}
