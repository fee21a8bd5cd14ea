// Package indicators implements the numeric indicator library, the
// injectable registry that validates and dispatches indicator specs, and the
// shared read-mostly series cache.
//
// Every calculation is a pure function: the same input series always yields
// the same output. Outputs are aligned to the source candles through a
// Series offset rather than padding, and an input shorter than the required
// window yields an empty Series, never an error or a panic.
package indicators

// Series is an indicator output aligned to its source candles.
// Values[j] belongs to candle index Offset+j.
type Series struct {
	Values []float64
	Offset int
}

// ValueAt returns the value aligned to candle index i, if computed.
func (s Series) ValueAt(i int) (float64, bool) {
	j := i - s.Offset
	if j < 0 || j >= len(s.Values) {
		return 0, false
	}
	return s.Values[j], true
}

// Window returns the n values ending at candle index i, oldest first.
// ok is false when fewer than n values exist up to i.
func (s Series) Window(i, n int) ([]float64, bool) {
	j := i - s.Offset
	if n <= 0 || j < n-1 || j >= len(s.Values) {
		return nil, false
	}
	return s.Values[j-n+1 : j+1], true
}

// Empty reports whether the series produced no values.
func (s Series) Empty() bool { return len(s.Values) == 0 }

// Computed is the full output of one indicator spec: the primary series a
// bare alias resolves to, plus any named component series (e.g. the MACD
// signal line or the Bollinger upper band).
type Computed struct {
	Primary    Series
	Components map[string]Series
}

// Component resolves a named output, with "" meaning the primary series.
func (c Computed) Component(name string) (Series, bool) {
	if name == "" {
		return c.Primary, true
	}
	s, ok := c.Components[name]
	return s, ok
}

// Input carries the aligned float64 source series extracted from candles.
type Input struct {
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// Source selects which input series a single-series indicator consumes.
func (in Input) Source(src Source) []float64 {
	switch src {
	case SourceOpen:
		return in.Open
	case SourceHigh:
		return in.High
	case SourceLow:
		return in.Low
	case SourceVolume:
		return in.Volume
	default:
		return in.Close
	}
}
