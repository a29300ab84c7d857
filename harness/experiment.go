// Package harness measures candidate formulas against an arbitrary-precision
// reference over a sweep of inputs and returns one error series per formula.
//
// A run is a pure batch computation: no goroutines, no state kept between
// runs, and identical inputs give bit-identical series.
package harness

import (
	"errors"
	"fmt"
	"math"

	"github.com/ieee0824/stablelog/internal/mathutil"
)

// NaNSentinel replaces a NaN element error so aggregate statistics stay
// finite. It only affects reporting, never the formulas themselves.
const NaNSentinel = 1.0

var (
	// ErrNoCandidates is returned for an experiment without candidates.
	ErrNoCandidates = errors.New("harness: experiment has no candidates")
	// ErrNoReference is returned for an experiment without a reference.
	ErrNoReference = errors.New("harness: experiment has no reference")
	// ErrInvalidSweep is returned for a malformed sweep range and for sweep
	// values the run's precision cannot represent.
	ErrInvalidSweep = errors.New("harness: invalid sweep")
	// ErrUnsupportedPrecision is returned when a candidate has no function
	// for the run's precision.
	ErrUnsupportedPrecision = errors.New("harness: candidate does not support precision")
	// ErrDuplicateCandidate is returned when two candidates share a name.
	ErrDuplicateCandidate = errors.New("harness: duplicate candidate name")
	// ErrShapeMismatch is returned when a candidate and the reference
	// return vectors of different lengths.
	ErrShapeMismatch = errors.New("harness: candidate and reference lengths differ")
)

// Candidate is a named formula under test. F64 is required. F32 is only
// needed for runs at Float32 precision.
type Candidate struct {
	Name string
	F64  func([]float64) []float64
	F32  func([]float32) []float32
}

func (c Candidate) eval(in []float64, p Precision) ([]float64, error) {
	if p == Float32 {
		if c.F32 == nil {
			return nil, fmt.Errorf("%w: %s at %s", ErrUnsupportedPrecision, c.Name, p)
		}
		return mathutil.Widen(c.F32(mathutil.Narrow[float32](in))), nil
	}
	if c.F64 == nil {
		return nil, fmt.Errorf("%w: %s at %s", ErrUnsupportedPrecision, c.Name, p)
	}
	return c.F64(in), nil
}

// Scalar builds a candidate from a one-argument formula. f32 may be nil.
func Scalar(name string, f64 func(float64) float64, f32 func(float32) float32) Candidate {
	c := Candidate{
		Name: name,
		F64:  func(in []float64) []float64 { return []float64{f64(in[0])} },
	}
	if f32 != nil {
		c.F32 = func(in []float32) []float32 { return []float32{f32(in[0])} }
	}
	return c
}

// Vector builds a candidate from a vector formula. f32 may be nil.
func Vector(name string, f64 func([]float64) []float64, f32 func([]float32) []float32) Candidate {
	return Candidate{Name: name, F64: f64, F32: f32}
}

// Checked adapts a validating routine to a formula: an error yields NaN,
// which the runner then reports like any other numeric failure.
func Checked[T mathutil.Float](f func(T) (T, error)) func(T) T {
	return func(x T) T {
		v, err := f(x)
		if err != nil {
			return T(math.NaN())
		}
		return v
	}
}

// CheckedVec is Checked for vector routines; an error yields a NaN vector
// of the input's length.
func CheckedVec[T mathutil.Float](f func([]T) ([]T, error)) func([]T) []T {
	return func(a []T) []T {
		v, err := f(a)
		if err != nil {
			v = make([]T, len(a))
			for i := range v {
				v[i] = T(math.NaN())
			}
		}
		return v
	}
}

// Experiment pairs a sweep with a reference and the candidates to measure.
type Experiment struct {
	Name  string
	Sweep Sweep
	// Input builds the argument vector for a sweep value; nil means the
	// scalar [w].
	Input func(w float64) []float64
	// Reference returns the ground truth for an argument vector.
	Reference  func(in []float64) ([]float64, error)
	Candidates []Candidate
}

func (e Experiment) validate() error {
	if len(e.Candidates) == 0 {
		return fmt.Errorf("%s: %w", e.Name, ErrNoCandidates)
	}
	if e.Reference == nil {
		return fmt.Errorf("%s: %w", e.Name, ErrNoReference)
	}
	seen := make(map[string]bool, len(e.Candidates))
	for _, c := range e.Candidates {
		if seen[c.Name] {
			return fmt.Errorf("%s: %w: %q", e.Name, ErrDuplicateCandidate, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// ErrorSample is the error of one formula at one sweep input.
type ErrorSample struct {
	Input float64 `yaml:"x"`
	Error float64 `yaml:"err"`
}

// Result holds the error series of every candidate of one experiment run.
type Result struct {
	Experiment string
	Precision  Precision
	// Formulas lists candidate names in the order they were given.
	Formulas []string
	// Series maps a formula name to its samples in sweep order.
	Series map[string][]ErrorSample
	// NaNSamples counts, per formula, the samples where at least one
	// element error was NaN and replaced by NaNSentinel.
	NaNSamples map[string]int
}

// Curve is one named (x, y) series for a plotting consumer.
type Curve struct {
	Name string
	X, Y []float64
}

// Curves returns the series as parallel slices, in formula order.
func (r *Result) Curves() []Curve {
	out := make([]Curve, 0, len(r.Formulas))
	for _, name := range r.Formulas {
		s := r.Series[name]
		c := Curve{Name: name, X: make([]float64, len(s)), Y: make([]float64, len(s))}
		for i, smp := range s {
			c.X[i], c.Y[i] = smp.Input, smp.Error
		}
		out = append(out, c)
	}
	return out
}

// Points returns the number of sweep points in r.
func (r *Result) Points() int {
	if len(r.Formulas) == 0 {
		return 0
	}
	return len(r.Series[r.Formulas[0]])
}

// Grid lays r out as a flat row-major array of shape
// (formulas, points, 2) holding (input, error) pairs.
func (r *Result) Grid() ([]float64, [3]int) {
	shape := mathutil.Shape3{len(r.Formulas), r.Points(), 2}
	data := make([]float64, shape.Len())
	for ix := range data {
		f, i, k := mathutil.Unravel3(ix, shape)
		smp := r.Series[r.Formulas[f]][i]
		if k == 0 {
			data[ix] = smp.Input
		} else {
			data[ix] = smp.Error
		}
	}
	return data, shape
}

// At returns the sample of formula index f at point i from a Grid.
func At(grid []float64, shape [3]int, f, i int) ErrorSample {
	s := mathutil.Shape3(shape)
	return ErrorSample{
		Input: grid[mathutil.Ravel3(f, i, 0, s)],
		Error: grid[mathutil.Ravel3(f, i, 1, s)],
	}
}
