// Package reference computes ground-truth values at arbitrary precision.
// It is only used to measure error and never sits on a production path.
package reference

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"
)

// DefaultPrec is the default mantissa size in bits.
const DefaultPrec = 256

// maxExtraBits caps the precision added for inputs with large magnitude.
const maxExtraBits = 1 << 14

// underflowArg is a bound past which exp(-x) is below half the smallest
// float64 subnormal, so it cannot change a float64 result.
const underflowArg = 750.0

var (
	// ErrNonPositive is returned by Log1mExp for x <= 0.
	ErrNonPositive = errors.New("reference: log1mexp needs x > 0")
	// ErrNotFinite is returned for NaN or infinite arguments where the
	// result is not defined by a limit.
	ErrNotFinite = errors.New("reference: argument is not finite")
	// ErrNoMass is returned by Normalize when every weight is -Inf.
	ErrNoMass = errors.New("reference: all weights are -Inf")
)

// Oracle evaluates functions with a mantissa of Prec bits, widened as
// needed so cancellation inside a computation never consumes the target
// precision.
type Oracle struct {
	Prec uint
}

// New returns an Oracle with the given precision; 0 selects DefaultPrec.
func New(prec uint) *Oracle {
	if prec == 0 {
		prec = DefaultPrec
	}
	return &Oracle{Prec: prec}
}

func (o *Oracle) prec() uint {
	if o == nil || o.Prec == 0 {
		return DefaultPrec
	}
	return o.Prec
}

// working returns the precision needed for a computation where exp(-|x|)
// is added to 1 and the result's magnitude is around |x|.
func (o *Oracle) working(x float64) uint {
	ax := math.Abs(x)
	extra := 0.0
	if ax > 1 {
		extra = ax / math.Ln2
	} else if ax > 0 {
		extra = -math.Log2(ax)
	}
	extra = math.Min(math.Ceil(extra)+8, maxExtraBits)
	return o.prec() + uint(extra)
}

func (o *Oracle) float(x float64, prec uint) *big.Float {
	return new(big.Float).SetPrec(prec).SetFloat64(x)
}

// Log1mExp returns log(1 - exp(-x)) rounded to float64.
func (o *Oracle) Log1mExp(x float64) (float64, error) {
	if math.IsNaN(x) {
		return 0, ErrNotFinite
	}
	if x <= 0 {
		return 0, fmt.Errorf("%w: %g", ErrNonPositive, x)
	}
	if x > underflowArg {
		return 0, nil
	}
	prec := o.working(x)
	one := o.float(1, prec)
	e := bigfloat.Exp(o.float(-x, prec))
	d := new(big.Float).SetPrec(prec).Sub(one, e)
	r, _ := bigfloat.Log(d).Float64()
	return r, nil
}

// Log1pExp returns log(1 + exp(x)) rounded to float64.
func (o *Oracle) Log1pExp(x float64) (float64, error) {
	if math.IsNaN(x) {
		return 0, ErrNotFinite
	}
	switch {
	case x > underflowArg:
		return x, nil
	case x < -underflowArg:
		return 0, nil
	}
	prec := o.working(x)
	// For x > 0 evaluate x + log(1 + exp(-x)) to keep exp in range.
	ax := o.float(math.Abs(x), prec)
	e := bigfloat.Exp(new(big.Float).SetPrec(prec).Neg(ax))
	s := new(big.Float).SetPrec(prec).Add(o.float(1, prec), e)
	l := bigfloat.Log(s)
	if x > 0 {
		l.Add(l, ax)
	}
	r, _ := l.Float64()
	return r, nil
}

// Normalize returns exp(a[i]) / sum_j exp(a[j]) rounded to float64.
// -Inf weights map to 0. The sum is taken after shifting by max(a), which
// is exact here and keeps every exponent non-positive.
func (o *Oracle) Normalize(a []float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, errors.New("reference: empty weight vector")
	}
	m := math.Inf(-1)
	for _, x := range a {
		if math.IsNaN(x) || math.IsInf(x, 1) {
			return nil, ErrNotFinite
		}
		m = math.Max(m, x)
	}
	if math.IsInf(m, -1) {
		return nil, ErrNoMass
	}

	prec := o.prec()
	shift := o.float(m, prec)
	exps := make([]*big.Float, len(a))
	sum := new(big.Float).SetPrec(prec)
	for i, x := range a {
		if math.IsInf(x, -1) {
			continue
		}
		d := new(big.Float).SetPrec(prec).Sub(o.float(x, prec), shift)
		exps[i] = bigfloat.Exp(d)
		sum.Add(sum, exps[i])
	}

	p := make([]float64, len(a))
	for i, e := range exps {
		if e == nil {
			continue
		}
		q := new(big.Float).SetPrec(prec).Quo(e, sum)
		p[i], _ = q.Float64()
	}
	return p, nil
}
