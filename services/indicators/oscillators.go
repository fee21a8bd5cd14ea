package indicators

import "math"

// RSI computes the relative strength index with Wilder smoothing: average
// gain/loss seeded over the first period deltas, then
// avg = (avg*(period-1) + new) / period. Needs period+1 input values; the
// first output belongs to candle index period.
//
// A zero average loss is capped at RSI = 100 instead of dividing by zero,
// so no NaN or Inf ever reaches a result.
func RSI(series []float64, period int) []float64 {
	if period <= 0 || len(series) < period+1 {
		return nil
	}
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := series[i] - series[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, 0, len(series)-period)
	out = append(out, rsiValue(avgGain, avgLoss))
	n := float64(period)
	for i := period + 1; i < len(series); i++ {
		delta := series[i] - series[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*(n-1) + gain) / n
		avgLoss = (avgLoss*(n-1) + loss) / n
		out = append(out, rsiValue(avgGain, avgLoss))
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// StochasticK computes the fast %K over a trailing high/low window:
// 100 * (close - lowestLow) / (highestHigh - lowestLow). A flat window
// (highest == lowest) yields the neutral 50.
func StochasticK(high, low, cls []float64, period int) []float64 {
	n := minLen(high, low, cls)
	if period <= 0 || n < period {
		return nil
	}
	out := make([]float64, 0, n-period+1)
	for i := period - 1; i < n; i++ {
		hh, ll := windowExtremes(high, low, i, period)
		if hh == ll {
			out = append(out, 50)
			continue
		}
		out = append(out, 100*(cls[i]-ll)/(hh-ll))
	}
	return out
}

// WilliamsR computes Williams %R: -100 * (highestHigh - close) / range.
// A flat window yields the neutral -50.
func WilliamsR(high, low, cls []float64, period int) []float64 {
	n := minLen(high, low, cls)
	if period <= 0 || n < period {
		return nil
	}
	out := make([]float64, 0, n-period+1)
	for i := period - 1; i < n; i++ {
		hh, ll := windowExtremes(high, low, i, period)
		if hh == ll {
			out = append(out, -50)
			continue
		}
		out = append(out, -100*(hh-cls[i])/(hh-ll))
	}
	return out
}

// CCI computes the commodity channel index over typical prices
// (high+low+close)/3 with the conventional 0.015 scaling constant. A zero
// mean deviation yields 0.
func CCI(high, low, cls []float64, period int) []float64 {
	n := minLen(high, low, cls)
	if period <= 0 || n < period {
		return nil
	}
	tp := make([]float64, n)
	for i := 0; i < n; i++ {
		tp[i] = (high[i] + low[i] + cls[i]) / 3
	}
	out := make([]float64, 0, n-period+1)
	for i := period - 1; i < n; i++ {
		window := tp[i-period+1 : i+1]
		var mean float64
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)
		var dev float64
		for _, v := range window {
			dev += math.Abs(v - mean)
		}
		dev /= float64(period)
		if dev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (tp[i]-mean)/(0.015*dev))
	}
	return out
}

func windowExtremes(high, low []float64, i, period int) (hh, ll float64) {
	hh, ll = high[i], low[i]
	for j := i - period + 1; j < i; j++ {
		if high[j] > hh {
			hh = high[j]
		}
		if low[j] < ll {
			ll = low[j]
		}
	}
	return hh, ll
}

func minLen(series ...[]float64) int {
	n := -1
	for _, s := range series {
		if n < 0 || len(s) < n {
			n = len(s)
		}
	}
	if n < 0 {
		return 0
	}
	return n
}
