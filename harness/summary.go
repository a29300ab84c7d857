package harness

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates one formula's error series. Mean, Max and Median are
// taken over finite errors only and are NaN when there are none.
type Summary struct {
	Formula   string  `yaml:"formula"`
	Count     int     `yaml:"count"`
	NaN       int     `yaml:"nan"`
	NonFinite int     `yaml:"non_finite"`
	Mean      float64 `yaml:"mean"`
	Max       float64 `yaml:"max"`
	Median    float64 `yaml:"median"`
}

// Summarize returns one Summary per formula in formula order.
func Summarize(r *Result) []Summary {
	out := make([]Summary, 0, len(r.Formulas))
	for _, name := range r.Formulas {
		series := r.Series[name]
		finite := make([]float64, 0, len(series))
		for _, s := range series {
			if !math.IsInf(s.Error, 0) && !math.IsNaN(s.Error) {
				finite = append(finite, s.Error)
			}
		}
		sm := Summary{
			Formula:   name,
			Count:     len(series),
			NaN:       r.NaNSamples[name],
			NonFinite: len(series) - len(finite),
			Mean:      math.NaN(),
			Max:       math.NaN(),
			Median:    math.NaN(),
		}
		if len(finite) > 0 {
			sort.Float64s(finite)
			sm.Mean = stat.Mean(finite, nil)
			sm.Max = floats.Max(finite)
			sm.Median = stat.Quantile(0.5, stat.Empirical, finite, nil)
		}
		out = append(out, sm)
	}
	return out
}
