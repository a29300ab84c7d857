// Package stablelog provides overflow-free log-domain arithmetic: softmax
// normalization of log-weights, log-sum-exp, and the log(1 - exp(-x)) and
// log(1 + exp(x)) families evaluated to full working precision.
//
// All routines are generic over float32 and float64. Intermediates are
// rounded to the type in use, so float32 callers see float32 behavior.
package stablelog

import (
	"math"

	"github.com/ieee0824/stablelog/internal/mathutil"
)

// Float is the set of floating-point types accepted by this package.
type Float interface {
	~float32 | ~float64
}

// Log1mExpThreshold is the x below which Log1mExp switches from the
// log1p form to the expm1 form.
const Log1mExpThreshold = mathutil.Log1mExpThreshold

// Normalize converts log-weights a into probabilities
// p[i] = exp(a[i]) / sum_j exp(a[j]), shifting by max(a) so that no
// exponent exceeds zero. a is not modified.
//
// -Inf weights get probability exactly 0. If any weight is +Inf the mass is
// split evenly among the +Inf weights.
func Normalize[T Float](a []T) ([]T, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	for _, x := range a {
		if x != x {
			return nil, &DomainError{Op: "Normalize", X: math.NaN()}
		}
	}
	m, _ := mathutil.Max(a)
	p := make([]T, len(a))
	switch {
	case math.IsInf(float64(m), -1):
		return nil, ErrDegenerateInput
	case math.IsInf(float64(m), 1):
		var n T
		for i, x := range a {
			if x == m {
				p[i] = 1
				n++
			}
		}
		for i := range p {
			p[i] /= n
		}
		return p, nil
	}
	sum := mathutil.ShiftedExp(p, a, m)
	for i := range p {
		p[i] /= sum
	}
	return p, nil
}

// LogSumExp returns log(sum_i exp(a[i])) without overflow. A vector of
// -Inf weights has zero mass and yields -Inf.
func LogSumExp[T Float](a []T) (T, error) {
	if len(a) == 0 {
		return 0, ErrEmptyInput
	}
	for _, x := range a {
		if x != x {
			return x, &DomainError{Op: "LogSumExp", X: math.NaN()}
		}
	}
	m, _ := mathutil.Max(a)
	if math.IsInf(float64(m), 0) {
		return m, nil
	}
	var sum T
	for _, x := range a {
		sum += mathutil.Exp(x - m)
	}
	return m + mathutil.Log(sum), nil
}

// Log1mExp returns log(1 - exp(-x)) for x > 0. Below Log1mExpThreshold it
// evaluates log(-expm1(-x)), otherwise log1p(-exp(-x)).
func Log1mExp[T Float](x T) (T, error) {
	if !(x > 0) {
		return T(math.NaN()), &DomainError{Op: "Log1mExp", X: float64(x)}
	}
	return mathutil.Log1mExp(x), nil
}

// Log1pExp returns log(1 + exp(x)), the softplus function.
func Log1pExp[T Float](x T) (T, error) {
	if x != x {
		return x, &DomainError{Op: "Log1pExp", X: float64(x)}
	}
	return mathutil.Log1pExp(x), nil
}

// LogAddExp returns log(exp(a) + exp(b)).
func LogAddExp(a, b float64) float64 {
	return mathutil.LogAdd(a, b)
}

// LogSubExp returns log(exp(a) - exp(b)). It requires a >= b; a == b
// yields -Inf.
func LogSubExp(a, b float64) (float64, error) {
	if a < b || a != a || b != b {
		return math.NaN(), &DomainError{Op: "LogSubExp", X: a - b}
	}
	return mathutil.LogSub(a, b), nil
}
