package harness

import (
	"fmt"
	"sort"

	"github.com/ieee0824/stablelog"
	"github.com/ieee0824/stablelog/internal/baseline"
	"github.com/ieee0824/stablelog/internal/reference"
)

// Oracle supplies reference values at extended precision.
type Oracle interface {
	Log1mExp(x float64) (float64, error)
	Log1pExp(x float64) (float64, error)
	Normalize(a []float64) ([]float64, error)
}

// NewOracle returns the arbitrary-precision oracle with prec mantissa bits;
// 0 selects the default.
func NewOracle(prec uint) Oracle {
	return reference.New(prec)
}

// Default sweeps.
var (
	// DefaultNormalizeSweep drives w in [0, w] from 0 to 1000.
	DefaultNormalizeSweep = Sweep{Scale: Linear, Start: 0, Stop: 1000, Num: 100}
	// DefaultLog1mExpSweep covers x = 10^-17 .. 10^3 in steps of 0.01 decades.
	DefaultLog1mExpSweep = Sweep{Scale: Log10, Start: -17, Stop: 3, Step: 0.01}
	// DefaultLog1pExpSweep covers x = -50 .. 50.
	DefaultLog1pExpSweep = Sweep{Scale: Linear, Start: -50, Stop: 50, Num: 1001}
)

// Experiment names.
const (
	NormalizeName = "normalize"
	Log1mExpName  = "log1mexp"
	Log1pExpName  = "log1pexp"
)

func scalarRef(f func(float64) (float64, error)) func([]float64) ([]float64, error) {
	return func(in []float64) ([]float64, error) {
		v, err := f(in[0])
		if err != nil {
			return nil, err
		}
		return []float64{v}, nil
	}
}

// NormalizeExperiment compares the naive and max-shifted softmax of the
// two-element weight vector [0, w].
func NormalizeExperiment(o Oracle, s Sweep) Experiment {
	return Experiment{
		Name:      NormalizeName,
		Sweep:     s,
		Input:     func(w float64) []float64 { return []float64{0, w} },
		Reference: o.Normalize,
		Candidates: []Candidate{
			Vector("naive", baseline.NaiveNormalize[float64], baseline.NaiveNormalize[float32]),
			Vector("shifted",
				CheckedVec(stablelog.Normalize[float64]),
				CheckedVec(stablelog.Normalize[float32])),
		},
	}
}

// Log1mExpExperiment compares the three textbook forms of
// log(1 - exp(-x)) with the threshold-selected Log1mExp.
func Log1mExpExperiment(o Oracle, s Sweep) Experiment {
	return Experiment{
		Name:      Log1mExpName,
		Sweep:     s,
		Reference: scalarRef(o.Log1mExp),
		Candidates: []Candidate{
			Scalar("log(1-exp(-x))", baseline.Log1mExpDirect[float64], baseline.Log1mExpDirect[float32]),
			Scalar("log(-expm1(-x))", baseline.Log1mExpExpm1[float64], baseline.Log1mExpExpm1[float32]),
			Scalar("log1p(-exp(-x))", baseline.Log1mExpLog1p[float64], baseline.Log1mExpLog1p[float32]),
			Scalar("log1mexp",
				Checked(stablelog.Log1mExp[float64]),
				Checked(stablelog.Log1mExp[float32])),
		},
	}
}

// Log1pExpExperiment compares the forms of log(1 + exp(x)) with the
// piecewise Log1pExp.
func Log1pExpExperiment(o Oracle, s Sweep) Experiment {
	return Experiment{
		Name:      Log1pExpName,
		Sweep:     s,
		Reference: scalarRef(o.Log1pExp),
		Candidates: []Candidate{
			Scalar("log(1+exp(x))", baseline.Log1pExpDirect[float64], baseline.Log1pExpDirect[float32]),
			Scalar("log1p(exp(x))", baseline.Log1pExpLog1p[float64], baseline.Log1pExpLog1p[float32]),
			Scalar("x+log1p(exp(-x))", baseline.Log1pExpShifted[float64], baseline.Log1pExpShifted[float32]),
			Scalar("log1pexp",
				Checked(stablelog.Log1pExp[float64]),
				Checked(stablelog.Log1pExp[float32])),
		},
	}
}

// Builder constructs an experiment for a sweep.
type Builder func(o Oracle, s Sweep) Experiment

var builders = map[string]struct {
	build Builder
	sweep Sweep
}{
	NormalizeName: {NormalizeExperiment, DefaultNormalizeSweep},
	Log1mExpName:  {Log1mExpExperiment, DefaultLog1mExpSweep},
	Log1pExpName:  {Log1pExpExperiment, DefaultLog1pExpSweep},
}

// Lookup returns the builder and default sweep of a named experiment.
func Lookup(name string) (Builder, Sweep, error) {
	b, ok := builders[name]
	if !ok {
		return nil, Sweep{}, fmt.Errorf("harness: unknown experiment %q (known: %v)", name, Names())
	}
	return b.build, b.sweep, nil
}

// Names returns the known experiment names, sorted.
func Names() []string {
	names := make([]string, 0, len(builders))
	for n := range builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
