package harness

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Scale selects how sweep bounds are interpreted.
type Scale string

const (
	// Linear sweeps Start..Stop directly.
	Linear Scale = "linear"
	// Log10 treats Start, Stop and Step as exponents of 10.
	Log10 Scale = "log10"
)

// maxPoints bounds the size of a single sweep.
const maxPoints = 10_000_000

// Log10 exponents whose powers stay finite and non-zero in float64.
const (
	maxExp10 = 308.25 // 10^308.25 < MaxFloat64
	minExp10 = -323.3 // 10^-323.3 rounds to the smallest subnormal
)

// Sweep describes a finite sequence of inputs. Exactly one of Num and Step
// must be set: Num gives Num evenly spaced points including both ends,
// Step gives Start, Start+Step, ... strictly below Stop.
type Sweep struct {
	Scale Scale   `yaml:"scale"`
	Start float64 `yaml:"start"`
	Stop  float64 `yaml:"stop"`
	Num   int     `yaml:"num,omitempty"`
	Step  float64 `yaml:"step,omitempty"`
}

// Validate reports whether s describes a usable sweep.
func (s Sweep) Validate() error {
	switch s.Scale {
	case Linear, Log10, "":
	default:
		return fmt.Errorf("%w: unknown scale %q", ErrInvalidSweep, s.Scale)
	}
	for _, v := range []float64{s.Start, s.Stop, s.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bounds must be finite", ErrInvalidSweep)
		}
	}
	if s.Stop < s.Start {
		return fmt.Errorf("%w: stop %g < start %g", ErrInvalidSweep, s.Stop, s.Start)
	}
	if s.Scale == Log10 && (s.Start < minExp10 || s.Stop > maxExp10) {
		return fmt.Errorf("%w: exponents [%g, %g] leave float64 range [%g, %g]",
			ErrInvalidSweep, s.Start, s.Stop, minExp10, maxExp10)
	}
	switch {
	case s.Num > 0 && s.Step != 0:
		return fmt.Errorf("%w: num and step are exclusive", ErrInvalidSweep)
	case s.Num < 0 || s.Step < 0:
		return fmt.Errorf("%w: num and step must be positive", ErrInvalidSweep)
	case s.Num == 0 && s.Step == 0:
		return fmt.Errorf("%w: one of num or step is required", ErrInvalidSweep)
	case s.Num > maxPoints:
		return fmt.Errorf("%w: %d points exceeds %d", ErrInvalidSweep, s.Num, maxPoints)
	case s.Step > 0 && (s.Stop-s.Start)/s.Step > maxPoints:
		return fmt.Errorf("%w: step %g too small for range", ErrInvalidSweep, s.Step)
	}
	return nil
}

// Points expands s into its input values.
func (s Sweep) Points() ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	var pts []float64
	switch {
	case s.Num == 1:
		pts = []float64{s.Start}
	case s.Num > 1:
		pts = floats.Span(make([]float64, s.Num), s.Start, s.Stop)
	default:
		n := int(math.Ceil((s.Stop - s.Start) / s.Step))
		pts = make([]float64, n)
		for i := range pts {
			pts[i] = s.Start + float64(i)*s.Step
		}
	}
	if s.Scale == Log10 {
		for i, p := range pts {
			pts[i] = math.Pow(10, p)
		}
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("%w: no points in [%g, %g)", ErrInvalidSweep, s.Start, s.Stop)
	}
	return pts, nil
}

// Precision is the floating-point type candidates are evaluated in.
type Precision string

const (
	Float64 Precision = "float64"
	Float32 Precision = "float32"
)

// ParsePrecision parses "float64" / "float32" (also "f64", "f32", "double",
// "single").
func ParsePrecision(s string) (Precision, error) {
	switch s {
	case "float64", "f64", "double", "":
		return Float64, nil
	case "float32", "f32", "single":
		return Float32, nil
	}
	return "", fmt.Errorf("harness: unknown precision %q", s)
}

// Round rounds x to p. At Float32 a finite x may round to 0 or Inf;
// InRange reports whether it does not.
func (p Precision) Round(x float64) float64 {
	if p == Float32 {
		return float64(float32(x))
	}
	return x
}

// InRange reports whether rounding x to p keeps it finite and keeps a
// non-zero x non-zero.
func (p Precision) InRange(x float64) bool {
	r := p.Round(x)
	if math.IsInf(r, 0) && !math.IsInf(x, 0) {
		return false
	}
	return r != 0 || x == 0
}
