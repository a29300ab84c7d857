package baseline

import (
	"math"
	"testing"

	"github.com/ieee0824/stablelog"
)

func TestNaiveNormalizeOverflow(t *testing.T) {
	p := NaiveNormalize([]float64{0, 1000})
	if p[0] != 0 {
		t.Errorf("p[0] = %g, want 0", p[0])
	}
	if !math.IsNaN(p[1]) {
		t.Errorf("p[1] = %g, want NaN", p[1])
	}
}

func TestNaiveNormalizeUnderflow(t *testing.T) {
	p := NaiveNormalize([]float64{-1000, -1000})
	for i, v := range p {
		if !math.IsNaN(v) {
			t.Errorf("p[%d] = %g, want NaN", i, v)
		}
	}
}

func TestNaiveMatchesShiftedInRange(t *testing.T) {
	a := []float64{0.5, -1, 3, 2}
	naive := NaiveNormalize(a)
	shifted, err := stablelog.Normalize(a)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if math.Abs(naive[i]-shifted[i]) > 1e-12 {
			t.Errorf("p[%d]: naive %g, shifted %g", i, naive[i], shifted[i])
		}
	}
}

func TestNaiveNormalizeFloat32OverflowsEarlier(t *testing.T) {
	// exp(100) overflows float32 but not float64.
	p32 := NaiveNormalize([]float32{0, 100})
	if !math.IsNaN(float64(p32[1])) {
		t.Errorf("float32 p[1] = %g, want NaN", p32[1])
	}
	p64 := NaiveNormalize([]float64{0, 100})
	if math.IsNaN(p64[1]) {
		t.Errorf("float64 p[1] = NaN, want finite")
	}
}

func TestLog1mExpFormulasAgreeMidRange(t *testing.T) {
	for _, x := range []float64{0.1, 0.5, 1, 2, 5} {
		d := Log1mExpDirect(x)
		e := Log1mExpExpm1(x)
		l := Log1mExpLog1p(x)
		if math.Abs(d-e) > 1e-14 || math.Abs(e-l) > 1e-14 {
			t.Errorf("x=%g: direct %g expm1 %g log1p %g", x, d, e, l)
		}
	}
}

func TestLog1mExpDirectCancels(t *testing.T) {
	if got := Log1mExpDirect(1e-17); !math.IsInf(got, -1) {
		t.Errorf("Log1mExpDirect(1e-17) = %g, want -Inf", got)
	}
	if got := Log1mExpDirect(50.0); got != 0 {
		t.Errorf("Log1mExpDirect(50) = %g, want 0", got)
	}
	if got := Log1mExpLog1p(50.0); got >= 0 {
		t.Errorf("Log1mExpLog1p(50) = %g, want < 0", got)
	}
}

func TestLog1pExpFormulas(t *testing.T) {
	if got := Log1pExpLog1p(1000.0); !math.IsInf(got, 1) {
		t.Errorf("Log1pExpLog1p(1000) = %g, want +Inf", got)
	}
	if got := Log1pExpShifted(1000.0); got != 1000 {
		t.Errorf("Log1pExpShifted(1000) = %g, want 1000", got)
	}
	if got := Log1pExpDirect(-40.0); got != 0 {
		t.Errorf("Log1pExpDirect(-40) = %g, want 0", got)
	}
}
