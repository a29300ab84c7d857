package harness

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Runner evaluates experiments at a fixed precision.
type Runner struct {
	Precision Precision
	Logger    *zap.Logger
}

// NewRunner returns a Runner. A nil logger discards all output.
func NewRunner(p Precision, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Precision: p, Logger: logger}
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Runner) precision() Precision {
	if r.Precision == "" {
		return Float64
	}
	return r.Precision
}

// Run sweeps e and returns the error series of every candidate. The first
// error from the sweep, the reference or a candidate aborts the run.
func (r *Runner) Run(e Experiment) (*Result, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	points, err := e.Sweep.Points()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	prec := r.precision()
	log := r.logger().With(zap.String("experiment", e.Name), zap.String("precision", string(prec)))

	res := &Result{
		Experiment: e.Name,
		Precision:  prec,
		Formulas:   make([]string, len(e.Candidates)),
		Series:     make(map[string][]ErrorSample, len(e.Candidates)),
		NaNSamples: make(map[string]int, len(e.Candidates)),
	}
	for i, c := range e.Candidates {
		res.Formulas[i] = c.Name
		res.Series[c.Name] = make([]ErrorSample, 0, len(points))
	}

	for _, w := range points {
		in, err := r.input(e, w)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name, err)
		}
		ref, err := e.Reference(in)
		if err != nil {
			return nil, fmt.Errorf("%s: reference at %g: %w", e.Name, w, err)
		}
		for _, c := range e.Candidates {
			out, err := c.eval(in, prec)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.Name, err)
			}
			errv, nans, err := meanAbsError(out, ref)
			if err != nil {
				return nil, fmt.Errorf("%s: %s at %g: %w", e.Name, c.Name, w, err)
			}
			if nans > 0 {
				res.NaNSamples[c.Name]++
			}
			res.Series[c.Name] = append(res.Series[c.Name], ErrorSample{Input: w, Error: errv})
			if ce := log.Check(zap.DebugLevel, "sample"); ce != nil {
				ce.Write(
					zap.String("formula", c.Name),
					zap.Float64("x", w),
					zap.Float64s("value", out),
					zap.Float64s("reference", ref),
					zap.Float64("err", errv),
				)
			}
		}
	}

	for _, s := range Summarize(res) {
		log.Info("formula summary",
			zap.String("formula", s.Formula),
			zap.Int("points", s.Count),
			zap.Int("nan", s.NaN),
			zap.Int("non_finite", s.NonFinite),
			zap.Float64("mean_err", s.Mean),
			zap.Float64("max_err", s.Max),
		)
	}
	return res, nil
}

// input builds the argument vector for w rounded to the run's precision.
// A value that rounds to 0 or Inf is rejected as outside the sweep's
// usable range.
func (r *Runner) input(e Experiment, w float64) ([]float64, error) {
	var in []float64
	if e.Input != nil {
		in = e.Input(w)
	} else {
		in = []float64{w}
	}
	prec := r.precision()
	rounded := make([]float64, len(in))
	for i, v := range in {
		if !prec.InRange(v) {
			return nil, fmt.Errorf("%w: input %g at sweep value %g is out of %s range", ErrInvalidSweep, v, w, prec)
		}
		rounded[i] = prec.Round(v)
	}
	return rounded, nil
}

// meanAbsError returns mean_i |out[i] - ref[i]|, with NaN element errors
// replaced by NaNSentinel, and the number of replaced elements.
func meanAbsError(out, ref []float64) (float64, int, error) {
	if len(out) != len(ref) || len(out) == 0 {
		return 0, 0, fmt.Errorf("%w: %d vs %d", ErrShapeMismatch, len(out), len(ref))
	}
	diff := make([]float64, len(out))
	floats.SubTo(diff, out, ref)
	nans := 0
	for i, d := range diff {
		if math.IsNaN(d) {
			diff[i] = NaNSentinel
			nans++
			continue
		}
		diff[i] = math.Abs(d)
	}
	return stat.Mean(diff, nil), nans, nil
}
