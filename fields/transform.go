package fields

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/Andrewlongman/fbpic/hankel"
)

// SpectralTransformer converts the fields of one azimuthal mode between the
// interpolation grid and the spectral grid: an FFT along z followed by a
// discrete Hankel transform along r. A SpectralTransformer is not safe for
// concurrent use.
type SpectralTransformer struct {
	M      int
	Nz, Nr int

	dht *hankel.DHT
	fft *fourier.CmplxFFT

	col        []complex128
	bufP, bufM []complex128
}

// NewSpectralTransformer prepares the transforms of mode m on nz longitudinal
// and nr radial points within a cylinder of radius rmax.
func NewSpectralTransformer(nz, nr, m int, rmax float64) (*SpectralTransformer, error) {
	if nz <= 0 {
		return nil, fmt.Errorf("Nz must be positive, but is %d.", nz)
	}
	dht, err := hankel.New(m, nr, rmax)
	if err != nil {
		return nil, err
	}

	n := nz * nr
	return &SpectralTransformer{
		M: m, Nz: nz, Nr: nr,
		dht: dht, fft: fourier.NewCmplxFFT(nz),
		col:  make([]complex128, nz),
		bufP: make([]complex128, n), bufM: make([]complex128, n),
	}, nil
}

// DHT returns the radial transform, whose node sets define the mode's grids.
func (t *SpectralTransformer) DHT() *hankel.DHT { return t.dht }

// Kz returns the longitudinal wavenumbers of a grid with nz cells of width
// dz, in FFT order.
func Kz(nz int, dz float64) []float64 {
	fft := fourier.NewCmplxFFT(nz)
	kz := make([]float64, nz)
	for i := range kz {
		kz[i] = 2 * math.Pi * fft.Freq(i) / dz
	}
	return kz
}

// Interp2SpectScal converts a scalar field from the interpolation grid to the
// spectral grid.
func (t *SpectralTransformer) Interp2SpectScal(interp, spect []complex128) {
	t.check(interp, spect)
	t.fftForward(interp, spect)
	t.dht.Forward(hankel.Scalar, spect, spect)
}

// Spect2InterpScal converts a scalar field from the spectral grid to the
// interpolation grid.
func (t *SpectralTransformer) Spect2InterpScal(spect, interp []complex128) {
	t.check(spect, interp)
	t.dht.Backward(hankel.Scalar, spect, interp)
	t.fftBackward(interp, interp)
}

// Interp2SpectVect converts the transverse components (r, theta) of a vector
// field on the interpolation grid to the rotating components (p, m) on the
// spectral grid.
func (t *SpectralTransformer) Interp2SpectVect(interpR, interpT, spectP, spectM []complex128) {
	t.check(interpR, spectP)
	t.check(interpT, spectM)

	for i := range interpR {
		r, th := interpR[i], interpT[i]
		t.bufP[i] = 0.5 * (r - 1i*th)
		t.bufM[i] = 0.5 * (r + 1i*th)
	}

	t.fftForward(t.bufP, spectP)
	t.fftForward(t.bufM, spectM)
	t.dht.Forward(hankel.Plus, spectP, spectP)
	t.dht.Forward(hankel.Minus, spectM, spectM)
}

// Spect2InterpVect converts the rotating components (p, m) of a vector field
// on the spectral grid to the transverse components (r, theta) on the
// interpolation grid.
func (t *SpectralTransformer) Spect2InterpVect(spectP, spectM, interpR, interpT []complex128) {
	t.check(spectP, interpR)
	t.check(spectM, interpT)

	t.dht.Backward(hankel.Plus, spectP, t.bufP)
	t.dht.Backward(hankel.Minus, spectM, t.bufM)
	t.fftBackward(t.bufP, t.bufP)
	t.fftBackward(t.bufM, t.bufM)

	for i := range interpR {
		p, m := t.bufP[i], t.bufM[i]
		interpR[i] = p + m
		interpT[i] = 1i * (p - m)
	}
}

// fftForward performs an unnormalized FFT of every radial column along z.
func (t *SpectralTransformer) fftForward(src, dst []complex128) {
	for ir := 0; ir < t.Nr; ir++ {
		for iz := 0; iz < t.Nz; iz++ {
			t.col[iz] = src[iz*t.Nr+ir]
		}
		t.fft.Coefficients(t.col, t.col)
		for iz := 0; iz < t.Nz; iz++ {
			dst[iz*t.Nr+ir] = t.col[iz]
		}
	}
}

// fftBackward performs the inverse FFT of every radial column along z,
// normalized so that it undoes fftForward.
func (t *SpectralTransformer) fftBackward(src, dst []complex128) {
	norm := complex(1/float64(t.Nz), 0)
	for ir := 0; ir < t.Nr; ir++ {
		for iz := 0; iz < t.Nz; iz++ {
			t.col[iz] = src[iz*t.Nr+ir]
		}
		t.fft.Sequence(t.col, t.col)
		for iz := 0; iz < t.Nz; iz++ {
			dst[iz*t.Nr+ir] = t.col[iz] * norm
		}
	}
}

func (t *SpectralTransformer) check(a, b []complex128) {
	n := t.Nz * t.Nr
	if len(a) != n || len(b) != n {
		panic(fmt.Sprintf(
			"Transform of mode %d expects arrays of length %d, but got "+
				"%d and %d.", t.M, n, len(a), len(b),
		))
	}
}
