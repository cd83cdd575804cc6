/*package hankel implements the discrete Hankel transforms used along the
radial axis of each azimuthal mode.

The node set of mode m is built from the zeros of J_m: the radial positions
are r_j = rmax * a_(j+1) / a_(Nr+1) and the spectral positions are
kr_k = a_(k+1) / rmax, where a_k is the k-th positive zero. For every order
p in {m-1, m, m+1} the backward transform is the matrix
B_p[j, k] = J_p(kr_k * r_j) and the forward transform is its inverse, so that
Backward(Forward(f)) reproduces f to round-off.
*/
package hankel

import (
	"errors"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Order selects which Bessel order of the mode a transform uses.
type Order int

const (
	// Minus is order m-1, used by the "minus" rotating-frame component.
	Minus Order = iota
	// Scalar is order m, used by scalar fields and longitudinal components.
	Scalar
	// Plus is order m+1, used by the "plus" rotating-frame component.
	Plus
	orderCount
)

// P returns the Bessel order used by o for azimuthal mode m.
func (o Order) P(m int) int { return m + int(o) - 1 }

func (o Order) String() string {
	switch o {
	case Minus:
		return "Minus"
	case Scalar:
		return "Scalar"
	case Plus:
		return "Plus"
	}
	return fmt.Sprintf("Order(%d)", int(o))
}

// DHT contains the precomputed transform matrices of a single azimuthal mode.
// A DHT is not safe for concurrent use because its work buffers are shared
// between calls.
type DHT struct {
	M, Nr int
	Rmax  float64

	r, kr []float64

	forward, backward [orderCount]*mat.Dense

	nz                  int
	re, im, outRe, outIm *mat.Dense
	reBuf, imBuf         []float64
	outReBuf, outImBuf   []float64
}

// New computes the node sets and transform matrices of mode m on nr radial
// points within a cylinder of radius rmax. This is expensive and should be
// done once per mode.
func New(m, nr int, rmax float64) (*DHT, error) {
	if m < 0 {
		return nil, fmt.Errorf("Azimuthal mode must be non-negative, but is %d.", m)
	} else if nr <= 0 {
		return nil, fmt.Errorf("Nr must be positive, but is %d.", nr)
	} else if rmax <= 0 {
		return nil, fmt.Errorf("Rmax must be positive, but is %g.", rmax)
	}

	d := &DHT{M: m, Nr: nr, Rmax: rmax}

	alphas := JnZeros(m, nr+1)
	d.r = make([]float64, nr)
	d.kr = make([]float64, nr)
	for i := 0; i < nr; i++ {
		d.r[i] = rmax * alphas[i] / alphas[nr]
		d.kr[i] = alphas[i] / rmax
	}

	for o := Minus; o < orderCount; o++ {
		p := o.P(m)
		b := mat.NewDense(nr, nr, nil)
		for j := 0; j < nr; j++ {
			for k := 0; k < nr; k++ {
				b.Set(j, k, math.Jn(p, d.kr[k]*d.r[j]))
			}
		}

		inv := mat.NewDense(nr, nr, nil)
		if err := inv.Inverse(b); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return nil, fmt.Errorf(
					"Could not invert the order %d Hankel matrix of mode %d: %s",
					p, m, err.Error(),
				)
			}
			log.Printf(
				"Order %d Hankel matrix of mode %d is ill-conditioned "+
					"(condition number %.3g).", p, m, float64(cond),
			)
		}

		d.backward[o] = b
		d.forward[o] = inv
	}

	return d, nil
}

// R returns the radial node positions. The slice must not be modified.
func (d *DHT) R() []float64 { return d.r }

// Kr returns the radial wavenumbers. The slice must not be modified.
func (d *DHT) Kr() []float64 { return d.kr }

// Forward transforms every row of the z-major array src from real space to
// radial-spectral space with the matrix of order o and writes the result to
// dst. src and dst may be the same slice.
func (d *DHT) Forward(o Order, src, dst []complex128) {
	d.apply(d.forward[o], src, dst)
}

// Backward transforms every row of the z-major array src from radial-spectral
// space to real space with the matrix of order o and writes the result to
// dst. src and dst may be the same slice.
func (d *DHT) Backward(o Order, src, dst []complex128) {
	d.apply(d.backward[o], src, dst)
}

func (d *DHT) apply(m *mat.Dense, src, dst []complex128) {
	if len(src) != len(dst) {
		panic(fmt.Sprintf(
			"len(src) = %d, but len(dst) = %d", len(src), len(dst),
		))
	} else if len(src)%d.Nr != 0 {
		panic(fmt.Sprintf(
			"len(src) = %d is not a multiple of Nr = %d", len(src), d.Nr,
		))
	}
	d.resize(len(src) / d.Nr)

	for i, v := range src {
		d.reBuf[i], d.imBuf[i] = real(v), imag(v)
	}

	// Each row transforms as out_j = sum_k M[j, k] in_k, i.e. out = in * M^T.
	d.outRe.Mul(d.re, m.T())
	d.outIm.Mul(d.im, m.T())

	for i := range dst {
		dst[i] = complex(d.outReBuf[i], d.outImBuf[i])
	}
}

// resize reallocates the work buffers if the number of rows changed.
func (d *DHT) resize(nz int) {
	if nz == d.nz {
		return
	}
	d.nz = nz
	n := nz * d.Nr
	d.reBuf, d.imBuf = make([]float64, n), make([]float64, n)
	d.outReBuf, d.outImBuf = make([]float64, n), make([]float64, n)
	d.re = mat.NewDense(nz, d.Nr, d.reBuf)
	d.im = mat.NewDense(nz, d.Nr, d.imBuf)
	d.outRe = mat.NewDense(nz, d.Nr, d.outReBuf)
	d.outIm = mat.NewDense(nz, d.Nr, d.outImBuf)
}
