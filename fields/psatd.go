package fields

import (
	"fmt"
	"math"

	"github.com/Andrewlongman/fbpic/constants"
)

// PsatdCoeffs contains the coefficients of the PSATD scheme for a single
// azimuthal mode. They depend only on the spectral grid and on Dt and must be
// rebuilt if the timestep changes.
type PsatdCoeffs struct {
	M      int
	Nz, Nr int
	Dt     float64

	// W is the vacuum frequency c*|k|, C is cos(W*Dt), SWdt is
	// sin(W*Dt)/(W*Dt) and InvW2 is 1/W^2. Where W = 0 the limits SWdt = 1
	// and InvW2 = 0 are stored, and the push uses the finite limits of the
	// terms InvW2 multiplies.
	W, C, SWdt, InvW2 []float64

	// Scratch recomputed by every push.
	JCoef   []float64
	RhoDiff []complex128
	Ep, Em, Ez []complex128
}

// NewPsatdCoeffs computes the coefficients of mode m for the 1D spectral axes
// kz and kr and the timestep dt.
func NewPsatdCoeffs(kz, kr []float64, m int, dt float64) (*PsatdCoeffs, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("Timestep must be positive, but is %g.", dt)
	} else if len(kz) == 0 || len(kr) == 0 {
		return nil, fmt.Errorf(
			"Spectral axes must be non-empty, but len(kz) = %d and "+
				"len(kr) = %d.", len(kz), len(kr),
		)
	}

	nz, nr := len(kz), len(kr)
	n := nz * nr
	ps := &PsatdCoeffs{
		M: m, Nz: nz, Nr: nr, Dt: dt,
		W: make([]float64, n), C: make([]float64, n),
		SWdt: make([]float64, n), InvW2: make([]float64, n),
		JCoef: make([]float64, n), RhoDiff: make([]complex128, n),
		Ep: make([]complex128, n), Em: make([]complex128, n),
		Ez: make([]complex128, n),
	}

	for iz := range kz {
		for ir := range kr {
			idx := iz*nr + ir
			w := constants.C * math.Sqrt(kz[iz]*kz[iz]+kr[ir]*kr[ir])
			ps.W[idx] = w
			ps.C[idx] = math.Cos(w * dt)
			if w == 0 {
				ps.SWdt[idx] = 1
				ps.InvW2[idx] = 0
			} else {
				ps.SWdt[idx] = math.Sin(w*dt) / (w * dt)
				ps.InvW2[idx] = 1 / (w * w)
			}
		}
	}

	return ps, nil
}
