package indicators

import "math"

// ATR computes the average true range with Wilder smoothing (RMA): seeded
// with the simple average of the first period true ranges, then
// atr = (atr*(period-1) + tr) / period. Needs period+1 bars; the first
// output belongs to candle index period.
func ATR(high, low, cls []float64, period int) []float64 {
	n := minLen(high, low, cls)
	if period <= 0 || n < period+1 {
		return nil
	}
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - cls[i-1])
		lc := math.Abs(low[i] - cls[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	var atr float64
	for i := 1; i <= period; i++ {
		atr += tr[i]
	}
	atr /= float64(period)

	out := make([]float64, 0, n-period)
	out = append(out, atr)
	pn := float64(period)
	for i := period + 1; i < n; i++ {
		atr = (atr*(pn-1) + tr[i]) / pn
		out = append(out, atr)
	}
	return out
}
