package indicators

import "fmt"

// descriptor binds one indicator type to its defaults, parameter validation,
// exact warm-up and computation.
type descriptor struct {
	defaultPeriod int
	components    []string
	normalize     func(Spec) (Spec, error)
	warmup        func(Spec) int
	compute       func(Input, Spec) Computed
}

// Registry validates indicator specs and dispatches calculations. It is
// explicitly constructed and passed to the engine; there is no package-level
// shared instance.
type Registry struct {
	descriptors map[Type]descriptor
}

// NewRegistry returns a registry with all built-in indicators registered.
func NewRegistry() *Registry {
	r := &Registry{descriptors: make(map[Type]descriptor)}
	r.registerBuiltins()
	return r
}

// Known reports whether an indicator type is registered.
func (r *Registry) Known(t Type) bool {
	_, ok := r.descriptors[t]
	return ok
}

// DefaultPeriod returns the default period for a type, 0 when unknown.
func (r *Registry) DefaultPeriod(t Type) int {
	return r.descriptors[t].defaultPeriod
}

// Components lists the named outputs of a type beyond its primary series.
func (r *Registry) Components(t Type) []string {
	return r.descriptors[t].components
}

// HasComponent reports whether a type exposes the named output.
func (r *Registry) HasComponent(t Type, name string) bool {
	if name == "" {
		return r.Known(t)
	}
	for _, c := range r.descriptors[t].components {
		if c == name {
			return true
		}
	}
	return false
}

// Normalize fills defaults and validates kind-specific parameters. The
// returned spec is canonical: equal configurations normalize identically,
// which keeps cache hashes stable.
func (r *Registry) Normalize(spec Spec) (Spec, error) {
	d, ok := r.descriptors[spec.Type]
	if !ok {
		return Spec{}, fmt.Errorf("unknown indicator type %q", spec.Type)
	}
	if spec.Source == "" {
		spec.Source = SourceClose
	}
	switch spec.Source {
	case SourceClose, SourceOpen, SourceHigh, SourceLow, SourceVolume:
	default:
		return Spec{}, fmt.Errorf("unknown source %q", spec.Source)
	}
	return d.normalize(spec)
}

// Warmup returns the exact number of candles needed before the spec yields
// its first value. The spec must be normalized.
func (r *Registry) Warmup(spec Spec) int {
	d, ok := r.descriptors[spec.Type]
	if !ok {
		return 0
	}
	return d.warmup(spec)
}

// Compute runs the indicator over the input. The spec must be normalized;
// an unknown type yields an empty result.
func (r *Registry) Compute(in Input, spec Spec) Computed {
	d, ok := r.descriptors[spec.Type]
	if !ok {
		return Computed{}
	}
	return d.compute(in, spec)
}

func (r *Registry) registerBuiltins() {
	windowed := func(defaultPeriod, minPeriod int) func(Spec) (Spec, error) {
		return func(s Spec) (Spec, error) {
			if s.Period == 0 {
				s.Period = defaultPeriod
			}
			if s.Period < minPeriod {
				return Spec{}, fmt.Errorf("%s period must be >= %d, got %d", s.Type, minPeriod, s.Period)
			}
			return s, nil
		}
	}
	periodWarmup := func(s Spec) int { return s.Period }
	deltaWarmup := func(s Spec) int { return s.Period + 1 }
	single := func(f func([]float64, int) []float64) func(Input, Spec) Computed {
		return func(in Input, s Spec) Computed {
			values := f(in.Source(s.Source), s.Period)
			return Computed{Primary: Series{Values: values, Offset: s.Period - 1}}
		}
	}
	ohlc := func(f func(h, l, c []float64, period int) []float64, offsetExtra int) func(Input, Spec) Computed {
		return func(in Input, s Spec) Computed {
			values := f(in.High, in.Low, in.Close, s.Period)
			return Computed{Primary: Series{Values: values, Offset: s.Period - 1 + offsetExtra}}
		}
	}

	r.descriptors[TypeSMA] = descriptor{
		defaultPeriod: 20,
		normalize:     windowed(20, 1),
		warmup:        periodWarmup,
		compute:       single(SMA),
	}
	r.descriptors[TypeEMA] = descriptor{
		defaultPeriod: 20,
		normalize:     windowed(20, 1),
		warmup:        periodWarmup,
		compute:       single(EMA),
	}
	r.descriptors[TypeRSI] = descriptor{
		defaultPeriod: 14,
		normalize:     windowed(14, 2),
		warmup:        deltaWarmup,
		compute: func(in Input, s Spec) Computed {
			values := RSI(in.Source(s.Source), s.Period)
			return Computed{Primary: Series{Values: values, Offset: s.Period}}
		},
	}
	r.descriptors[TypeMACD] = descriptor{
		defaultPeriod: 0,
		components:    []string{"line", "signal", "histogram"},
		normalize: func(s Spec) (Spec, error) {
			if s.FastPeriod == 0 {
				s.FastPeriod = 12
			}
			if s.SlowPeriod == 0 {
				s.SlowPeriod = 26
			}
			if s.SignalPeriod == 0 {
				s.SignalPeriod = 9
			}
			if s.FastPeriod < 1 || s.SlowPeriod < 2 || s.SignalPeriod < 1 {
				return Spec{}, fmt.Errorf("macd periods must be positive, got %d/%d/%d",
					s.FastPeriod, s.SlowPeriod, s.SignalPeriod)
			}
			if s.FastPeriod >= s.SlowPeriod {
				return Spec{}, fmt.Errorf("macd fast period %d must be below slow period %d",
					s.FastPeriod, s.SlowPeriod)
			}
			s.Period = 0
			return s, nil
		},
		warmup: func(s Spec) int { return s.SlowPeriod + s.SignalPeriod - 1 },
		compute: func(in Input, s Spec) Computed {
			res := MACD(in.Source(s.Source), s.FastPeriod, s.SlowPeriod, s.SignalPeriod)
			return Computed{
				Primary: res.Line,
				Components: map[string]Series{
					"line":      res.Line,
					"signal":    res.Signal,
					"histogram": res.Histogram,
				},
			}
		},
	}
	r.descriptors[TypeBollinger] = descriptor{
		defaultPeriod: 20,
		components:    []string{"upper", "middle", "lower"},
		normalize: func(s Spec) (Spec, error) {
			if s.Period == 0 {
				s.Period = 20
			}
			if s.Period < 2 {
				return Spec{}, fmt.Errorf("bollinger period must be >= 2, got %d", s.Period)
			}
			if s.StdDev == 0 {
				s.StdDev = 2
			}
			if s.StdDev < 0 {
				return Spec{}, fmt.Errorf("bollinger stdDev must be positive, got %g", s.StdDev)
			}
			return s, nil
		},
		warmup: periodWarmup,
		compute: func(in Input, s Spec) Computed {
			res := Bollinger(in.Source(s.Source), s.Period, s.StdDev)
			return Computed{
				Primary: res.Middle,
				Components: map[string]Series{
					"upper":  res.Upper,
					"middle": res.Middle,
					"lower":  res.Lower,
				},
			}
		},
	}
	r.descriptors[TypeStochastic] = descriptor{
		defaultPeriod: 14,
		normalize:     windowed(14, 1),
		warmup:        periodWarmup,
		compute:       ohlc(StochasticK, 0),
	}
	r.descriptors[TypeWilliamsR] = descriptor{
		defaultPeriod: 14,
		normalize:     windowed(14, 1),
		warmup:        periodWarmup,
		compute:       ohlc(WilliamsR, 0),
	}
	r.descriptors[TypeCCI] = descriptor{
		defaultPeriod: 20,
		normalize:     windowed(20, 2),
		warmup:        periodWarmup,
		compute:       ohlc(CCI, 0),
	}
	r.descriptors[TypeATR] = descriptor{
		defaultPeriod: 14,
		normalize:     windowed(14, 1),
		warmup:        deltaWarmup,
		compute:       ohlc(ATR, 1),
	}
}
