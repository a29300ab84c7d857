package harness

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/ieee0824/stablelog/internal/reference"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// coarseLog1mExp spans 1e-17 .. 1e3 in half-decade steps.
var coarseLog1mExp = Sweep{Scale: Log10, Start: -17, Stop: 3, Step: 0.5}

func seriesAt(t *testing.T, r *Result, formula string, x float64) ErrorSample {
	t.Helper()
	for _, s := range r.Series[formula] {
		if math.Abs(s.Input-x) <= 1e-9*math.Abs(x) {
			return s
		}
	}
	t.Fatalf("%s has no sample at %g", formula, x)
	return ErrorSample{}
}

func TestNormalizeExperiment(t *testing.T) {
	r := NewRunner(Float64, zaptest.NewLogger(t))
	res, err := r.Run(NormalizeExperiment(NewOracle(0), DefaultNormalizeSweep))
	require.NoError(t, err)

	assert.Equal(t, []string{"naive", "shifted"}, res.Formulas)
	assert.Equal(t, 100, res.Points())
	for _, s := range res.Series["shifted"] {
		assert.LessOrEqual(t, s.Error, 1e-15, "w=%g", s.Input)
	}
	assert.Zero(t, res.NaNSamples["shifted"])

	// Past exp overflow the naive form yields [0, NaN]; the NaN element
	// counts as error 1 and the mean over two elements is 0.5.
	assert.Positive(t, res.NaNSamples["naive"])
	last := res.Series["naive"][len(res.Series["naive"])-1]
	assert.Equal(t, 0.5, last.Error)
	assert.Zero(t, res.Series["naive"][0].Error)
}

func TestNormalizeExperimentFloat32OverflowsSooner(t *testing.T) {
	o := NewOracle(0)
	r64, err := NewRunner(Float64, nil).Run(NormalizeExperiment(o, DefaultNormalizeSweep))
	require.NoError(t, err)
	r32, err := NewRunner(Float32, nil).Run(NormalizeExperiment(o, DefaultNormalizeSweep))
	require.NoError(t, err)
	assert.Greater(t, r32.NaNSamples["naive"], r64.NaNSamples["naive"])
	assert.Zero(t, r32.NaNSamples["shifted"])
	assert.Equal(t, Float32, r32.Precision)
}

func TestLog1mExpExperiment(t *testing.T) {
	res, err := NewRunner(Float64, nil).Run(Log1mExpExperiment(NewOracle(0), coarseLog1mExp))
	require.NoError(t, err)
	require.Equal(t, 40, res.Points())

	for _, s := range res.Series["log1mexp"] {
		assert.LessOrEqual(t, s.Error, 1e-12, "x=%g", s.Input)
	}

	// x = 1e-10: expm1 beats direct subtraction by two orders of magnitude.
	direct := seriesAt(t, res, "log(1-exp(-x))", 1e-10)
	expm1 := seriesAt(t, res, "log(-expm1(-x))", 1e-10)
	assert.Less(t, expm1.Error*100, direct.Error)

	// x = 1e-17: 1 - exp(-x) is exactly 0 and the direct form is -Inf.
	assert.True(t, math.IsInf(seriesAt(t, res, "log(1-exp(-x))", 1e-17).Error, 1))

	// x = 100: both stable forms agree with the reference.
	assert.LessOrEqual(t, seriesAt(t, res, "log1p(-exp(-x))", 100).Error, 1e-12)
	assert.LessOrEqual(t, seriesAt(t, res, "log(-expm1(-x))", 100).Error, 1e-12)
}

func TestLog1mExpExperimentFloat32(t *testing.T) {
	res, err := NewRunner(Float32, nil).Run(Log1mExpExperiment(NewOracle(0), coarseLog1mExp))
	require.NoError(t, err)
	for _, s := range res.Series["log1mexp"] {
		// float32 has 24 mantissa bits; |log(x)| <= ~40 over the sweep.
		assert.LessOrEqual(t, s.Error, 1e-5, "x=%g", s.Input)
	}
}

func TestLog1pExpExperiment(t *testing.T) {
	res, err := NewRunner(Float64, nil).Run(Log1pExpExperiment(NewOracle(0), Sweep{Start: -50, Stop: 50, Num: 101}))
	require.NoError(t, err)
	for _, s := range res.Series["log1pexp"] {
		assert.LessOrEqual(t, s.Error, 1e-13, "x=%g", s.Input)
	}
	// The direct form cannot represent log(1+exp(-50)) ≈ 2e-22.
	assert.Positive(t, seriesAt(t, res, "log(1+exp(x))", -50).Error)
}

func TestRunIsIdempotent(t *testing.T) {
	o := NewOracle(0)
	r := NewRunner(Float64, nil)
	for _, e := range []Experiment{
		NormalizeExperiment(o, DefaultNormalizeSweep),
		Log1mExpExperiment(o, coarseLog1mExp),
	} {
		a, err := r.Run(e)
		require.NoError(t, err)
		b, err := r.Run(e)
		require.NoError(t, err)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("%s: second run differs (-first +second):\n%s", e.Name, diff)
		}
	}
}

func TestRunErrors(t *testing.T) {
	o := NewOracle(0)
	r := NewRunner(Float64, nil)
	identity := Scalar("id", func(x float64) float64 { return x }, nil)
	ref := func(in []float64) ([]float64, error) { return in, nil }

	_, err := r.Run(Experiment{Name: "empty", Sweep: DefaultNormalizeSweep, Reference: ref})
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = r.Run(Experiment{Name: "noref", Sweep: DefaultNormalizeSweep, Candidates: []Candidate{identity}})
	assert.ErrorIs(t, err, ErrNoReference)

	_, err = r.Run(Experiment{Name: "dup", Sweep: DefaultNormalizeSweep, Reference: ref, Candidates: []Candidate{identity, identity}})
	assert.ErrorIs(t, err, ErrDuplicateCandidate)

	_, err = r.Run(Experiment{Name: "sweep", Sweep: Sweep{Start: 1, Stop: 0, Num: 2}, Reference: ref, Candidates: []Candidate{identity}})
	assert.ErrorIs(t, err, ErrInvalidSweep)

	_, err = NewRunner(Float32, nil).Run(Experiment{Name: "f32", Sweep: DefaultNormalizeSweep, Reference: ref, Candidates: []Candidate{identity}})
	assert.ErrorIs(t, err, ErrUnsupportedPrecision)

	// 1e-50 is a valid float64 sweep value but rounds to 0 in float32.
	tiny := Sweep{Scale: Log10, Start: -50, Stop: -40, Num: 3}
	_, err = NewRunner(Float32, nil).Run(Log1mExpExperiment(o, tiny))
	assert.ErrorIs(t, err, ErrInvalidSweep)
	_, err = NewRunner(Float32, nil).Run(NormalizeExperiment(o, Sweep{Start: 0, Stop: 1e39, Num: 2}))
	assert.ErrorIs(t, err, ErrInvalidSweep)
	_, err = r.Run(Log1mExpExperiment(o, tiny))
	assert.NoError(t, err)

	// The reference rejects x = 0.
	_, err = r.Run(Log1mExpExperiment(o, Sweep{Start: 0, Stop: 1, Num: 3}))
	assert.ErrorIs(t, err, reference.ErrNonPositive)

	bad := Vector("short", func([]float64) []float64 { return []float64{0} }, nil)
	_, err = r.Run(Experiment{Name: "shape", Sweep: DefaultNormalizeSweep, Input: func(w float64) []float64 { return []float64{0, w} }, Reference: o.Normalize, Candidates: []Candidate{bad}})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestNaNSentinel(t *testing.T) {
	nan := Scalar("nan", func(float64) float64 { return math.NaN() }, nil)
	inf := Scalar("inf", func(float64) float64 { return math.Inf(1) }, nil)
	e := Experiment{
		Name:       "sentinel",
		Sweep:      Sweep{Start: 1, Stop: 2, Num: 3},
		Reference:  func(in []float64) ([]float64, error) { return in, nil },
		Candidates: []Candidate{nan, inf},
	}
	res, err := NewRunner(Float64, nil).Run(e)
	require.NoError(t, err)
	for _, s := range res.Series["nan"] {
		assert.Equal(t, NaNSentinel, s.Error)
	}
	assert.Equal(t, 3, res.NaNSamples["nan"])
	for _, s := range res.Series["inf"] {
		assert.True(t, math.IsInf(s.Error, 1))
	}

	sums := Summarize(res)
	require.Len(t, sums, 2)
	assert.Equal(t, Summary{Formula: "nan", Count: 3, NaN: 3, Mean: 1, Max: 1, Median: 1}, sums[0])
	assert.Equal(t, 3, sums[1].NonFinite)
	assert.True(t, math.IsNaN(sums[1].Mean))
}

func TestSummarize(t *testing.T) {
	res := &Result{
		Formulas: []string{"f"},
		Series: map[string][]ErrorSample{
			"f": {{1, 0.1}, {2, 0.3}, {3, math.Inf(1)}, {4, 0.2}},
		},
		NaNSamples: map[string]int{},
	}
	sm := Summarize(res)[0]
	assert.Equal(t, 4, sm.Count)
	assert.Equal(t, 1, sm.NonFinite)
	assert.InDelta(t, 0.2, sm.Mean, 1e-15)
	assert.Equal(t, 0.3, sm.Max)
	assert.Equal(t, 0.2, sm.Median)
}

func TestGrid(t *testing.T) {
	res, err := NewRunner(Float64, nil).Run(Log1mExpExperiment(NewOracle(0), Sweep{Scale: Log10, Start: -2, Stop: 1, Num: 4}))
	require.NoError(t, err)
	grid, shape := res.Grid()
	assert.Equal(t, [3]int{4, 4, 2}, shape)
	assert.Len(t, grid, 32)
	for f, name := range res.Formulas {
		for i, s := range res.Series[name] {
			assert.Equal(t, s, At(grid, shape, f, i))
		}
	}
}

func TestCurves(t *testing.T) {
	res, err := NewRunner(Float64, nil).Run(NormalizeExperiment(NewOracle(0), Sweep{Start: 0, Stop: 10, Num: 3}))
	require.NoError(t, err)
	curves := res.Curves()
	require.Len(t, curves, 2)
	assert.Equal(t, "naive", curves[0].Name)
	assert.Equal(t, []float64{0, 5, 10}, curves[1].X)
}

func TestCheckedAdapters(t *testing.T) {
	f := Checked(func(x float64) (float64, error) { return 0, errors.New("boom") })
	assert.True(t, math.IsNaN(f(1)))
	g := CheckedVec(func(a []float32) ([]float32, error) { return nil, errors.New("boom") })
	out := g([]float32{1, 2})
	require.Len(t, out, 2)
	assert.True(t, math.IsNaN(float64(out[0])))
}
