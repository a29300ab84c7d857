// Package baseline holds algebraically correct but numerically fragile
// formulas. They exist to be measured against the production routines and
// never report errors: overflow and cancellation surface as Inf, NaN or 0.
package baseline

import (
	"github.com/ieee0824/stablelog/internal/mathutil"
)

// Float is the set of floating-point types the formulas accept.
type Float = mathutil.Float

// NaiveNormalize computes exp(a[i]) / sum_j exp(a[j]) with no shift.
// Overflows once max(a) exceeds the exponent range of T.
func NaiveNormalize[T Float](a []T) []T {
	p := make([]T, len(a))
	sum := mathutil.ShiftedExp(p, a, 0)
	for i := range p {
		p[i] /= sum
	}
	return p
}

// Log1mExpDirect is log(1 - exp(-x)). Cancels catastrophically for small x.
func Log1mExpDirect[T Float](x T) T {
	return mathutil.Log(1 - mathutil.Exp(-x))
}

// Log1mExpExpm1 is log(-expm1(-x)). Accurate for small x.
func Log1mExpExpm1[T Float](x T) T {
	return mathutil.Log(-mathutil.Expm1(-x))
}

// Log1mExpLog1p is log1p(-exp(-x)). Accurate for large x.
func Log1mExpLog1p[T Float](x T) T {
	return mathutil.Log1p(-mathutil.Exp(-x))
}

// Log1pExpDirect is log(1 + exp(x)). Overflows for large x and loses
// everything below 1 ulp of 1 for very negative x.
func Log1pExpDirect[T Float](x T) T {
	return mathutil.Log(1 + mathutil.Exp(x))
}

// Log1pExpLog1p is log1p(exp(x)). Overflows for large x.
func Log1pExpLog1p[T Float](x T) T {
	return mathutil.Log1p(mathutil.Exp(x))
}

// Log1pExpShifted is x + log1p(exp(-x)). Loses precision for very
// negative x where x and log1p(exp(-x)) nearly cancel.
func Log1pExpShifted[T Float](x T) T {
	return x + mathutil.Log1p(mathutil.Exp(-x))
}
