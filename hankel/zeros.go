package hankel

import (
	"math"
)

// zeroStep is the bracketing step used when scanning for sign changes. Zeros
// of J_p are separated by more than pi, so no pair can share a bracket.
const zeroStep = 0.1

// JnZeros returns the first n positive zeros of the Bessel function of the
// first kind J_p. Negative orders share the zeros of J_|p|.
func JnZeros(p, n int) []float64 {
	if p < 0 {
		p = -p
	}
	zeros := make([]float64, 0, n)

	x := zeroStep
	f := math.Jn(p, x)
	for len(zeros) < n {
		xn := x + zeroStep
		fn := math.Jn(p, xn)
		if fn == 0 {
			zeros = append(zeros, xn)
		} else if f*fn < 0 {
			zeros = append(zeros, bisectJn(p, x, xn, f))
		}
		x, f = xn, fn
	}

	return zeros
}

// bisectJn refines a zero of J_p bracketed by [lo, hi], where fLo = J_p(lo).
func bisectJn(p int, lo, hi, fLo float64) float64 {
	for i := 0; i < 200 && hi-lo > 4e-16*hi; i++ {
		mid := 0.5 * (lo + hi)
		fMid := math.Jn(p, mid)
		if fMid == 0 {
			return mid
		}
		if (fMid < 0) == (fLo < 0) {
			lo, fLo = mid, fMid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi)
}
