package hankel

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJnZeros(t *testing.T) {
	table := []struct {
		p     int
		zeros []float64
	}{
		{0, []float64{2.404825557695773, 5.520078110286311, 8.653727912911013}},
		{1, []float64{3.831705970207512, 7.015586669815619, 10.17346813506272}},
		{-1, []float64{3.831705970207512, 7.015586669815619}},
		{2, []float64{5.135622301840683, 8.417244140399865}},
	}

	for _, test := range table {
		zeros := JnZeros(test.p, len(test.zeros))
		assert.InDeltaSlice(t, test.zeros, zeros, 1e-10, "order %d", test.p)
	}
}

func TestNodes(t *testing.T) {
	for m := 0; m < 3; m++ {
		d, err := New(m, 10, 2.0)
		require.NoError(t, err)

		r, kr := d.R(), d.Kr()
		require.Len(t, r, 10)
		require.Len(t, kr, 10)
		for i := 1; i < len(r); i++ {
			assert.Greater(t, r[i], r[i-1])
			assert.Greater(t, kr[i], kr[i-1])
		}
		assert.Greater(t, r[0], 0.0)
		assert.Less(t, r[len(r)-1], 2.0)
	}
}

func TestNewErrors(t *testing.T) {
	_, err := New(-1, 10, 1)
	assert.Error(t, err)
	_, err = New(0, 0, 1)
	assert.Error(t, err)
	_, err = New(0, 10, 0)
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	nz, nr := 3, 16
	gen := rand.New(rand.NewSource(1))

	for m := 0; m < 3; m++ {
		d, err := New(m, nr, 1.5)
		require.NoError(t, err)

		for o := Minus; o < orderCount; o++ {
			f := make([]complex128, nz*nr)
			for i := range f {
				f[i] = complex(gen.Float64()-0.5, gen.Float64()-0.5)
			}
			spect := make([]complex128, len(f))
			back := make([]complex128, len(f))

			d.Forward(o, f, spect)
			d.Backward(o, spect, back)

			for i := range f {
				assert.InDelta(t, 0, cmplx.Abs(back[i]-f[i]), 1e-8,
					"mode %d, order %s, index %d", m, o, i)
			}
		}
	}
}

func TestBackwardIsBesselSeries(t *testing.T) {
	nr := 8
	d, err := New(1, nr, 1.0)
	require.NoError(t, err)

	// A single spectral coefficient backward-transforms to J_p(kr * r).
	spect := make([]complex128, nr)
	spect[2] = complex(2, -1)
	out := make([]complex128, nr)

	for o := Minus; o < orderCount; o++ {
		d.Backward(o, spect, out)
		for j, r := range d.R() {
			val := math.Jn(o.P(1), d.Kr()[2]*r)
			assert.InDelta(t, 2*val, real(out[j]), 1e-12)
			assert.InDelta(t, -val, imag(out[j]), 1e-12)
		}
	}
}

func TestInPlace(t *testing.T) {
	nr := 6
	d, err := New(0, nr, 1.0)
	require.NoError(t, err)

	f := []complex128{1, 2i, 3, 4 - 1i, 5, 6}
	orig := append([]complex128(nil), f...)
	d.Forward(Scalar, f, f)
	d.Backward(Scalar, f, f)
	for i := range f {
		assert.InDelta(t, 0, cmplx.Abs(f[i]-orig[i]), 1e-9)
	}
}
