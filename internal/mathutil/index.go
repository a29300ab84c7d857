package mathutil

// Vec is a float64 vector.
type Vec = []float64

// Shape3 is the extent of a row-major 3-D array.
type Shape3 [3]int

// Len returns the number of elements addressed by s.
func (s Shape3) Len() int { return s[0] * s[1] * s[2] }

// Ravel3 returns the flat row-major offset of (i, j, k) in an array of
// shape s. The first extent is not needed for the offset.
func Ravel3(i, j, k int, s Shape3) int {
	return (i*s[1]+j)*s[2] + k
}

// Unravel3 is the inverse of Ravel3.
func Unravel3(ix int, s Shape3) (i, j, k int) {
	plane := s[1] * s[2]
	i = ix / plane
	ix %= plane
	j = ix / s[2]
	k = ix % s[2]
	return i, j, k
}

// Widen converts v to float64.
func Widen[T Float](v []T) Vec {
	out := make(Vec, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// Narrow converts v to T, rounding to T's precision.
func Narrow[T Float](v Vec) []T {
	out := make([]T, len(v))
	for i, x := range v {
		out[i] = T(x)
	}
	return out
}
