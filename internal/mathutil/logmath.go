package mathutil

import "math"

// Float is the set of floating-point types the log-domain kernels accept.
type Float interface {
	~float32 | ~float64
}

// Log1mExpThreshold is the crossover between the expm1 and log1p forms of
// log(1 - exp(-x)).
const Log1mExpThreshold = math.Ln2

// Softplus thresholds for float64 (Maechler 2012, eq. 10).
const (
	softplusExpOnly = -37.0
	softplusLog1p   = 18.0
	softplusLinear  = 33.3
)

// Exp, Log, Expm1 and Log1p evaluate in float64 and round the result to T,
// so every intermediate of a float32 computation carries float32 precision.
func Exp[T Float](x T) T   { return T(math.Exp(float64(x))) }
func Log[T Float](x T) T   { return T(math.Log(float64(x))) }
func Expm1[T Float](x T) T { return T(math.Expm1(float64(x))) }
func Log1p[T Float](x T) T { return T(math.Log1p(float64(x))) }

// Log1mExp returns log(1 - exp(-x)). It does not check its domain: x <= 0
// yields NaN or -Inf.
func Log1mExp[T Float](x T) T {
	if x < Log1mExpThreshold {
		return Log(-Expm1(-x))
	}
	return Log1p(-Exp(-x))
}

// Log1pExp returns log(1 + exp(x)).
func Log1pExp[T Float](x T) T {
	switch {
	case x <= softplusExpOnly:
		return Exp(x)
	case x <= softplusLog1p:
		return Log1p(Exp(x))
	case x <= softplusLinear:
		return x + Exp(-x)
	}
	return x
}

// LogAdd returns log(exp(a) + exp(b)) in a numerically stable way.
// Skips exp/log1p when the smaller value contributes less than float64
// precision (exp(-36) ≈ 2.3e-16).
func LogAdd(a, b float64) float64 {
	if a < b {
		a, b = b, a
	}
	if math.IsInf(b, -1) {
		return a
	}
	if math.IsInf(a, 1) {
		return a
	}
	d := b - a
	if d < -36.0 {
		return a
	}
	return a + math.Log1p(math.Exp(d))
}

// LogSub returns log(exp(a) - exp(b)). The result is -Inf when a == b and
// NaN when a < b.
func LogSub(a, b float64) float64 {
	if math.IsInf(b, -1) {
		return a
	}
	if a == b {
		return math.Inf(-1)
	}
	if a < b {
		return math.NaN()
	}
	return a + Log1mExp(a-b)
}

// Max returns the largest element of v and its index. NaN elements are
// skipped unless every element is NaN. v must not be empty.
func Max[T Float](v []T) (T, int) {
	best, idx := v[0], 0
	for i, x := range v[1:] {
		if x > best || best != best {
			best, idx = x, i+1
		}
	}
	return best, idx
}

// ShiftedExp stores exp(v[i] - shift) in dst and returns their sum.
func ShiftedExp[T Float](dst, v []T, shift T) T {
	var sum T
	for i, x := range v {
		e := Exp(x - shift)
		dst[i] = e
		sum += e
	}
	return sum
}
