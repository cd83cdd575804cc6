package fields

import (
	"fmt"

	"github.com/Andrewlongman/fbpic/constants"
)

// SpectralGrid contains the fields of a single azimuthal mode in (kz, kr)
// space. Transverse vector components are stored in the rotating basis:
// P = (Vr - i*Vtheta)/2 and M = (Vr + i*Vtheta)/2.
type SpectralGrid struct {
	M      int
	Nz, Nr int

	// Kz and Kr are the 2D meshes built from the 1D axes, z-major.
	Kz, Kr []float64

	Ep, Em, Ez []complex128
	Bp, Bm, Bz []complex128
	Jp, Jm, Jz []complex128

	RhoPrev, RhoNext []complex128
	F                []complex128
}

// NewSpectralGrid allocates the spectral grid of mode m over the 1D axes kz
// and kr.
func NewSpectralGrid(kz, kr []float64, m int) *SpectralGrid {
	nz, nr := len(kz), len(kr)
	n := nz * nr
	sg := &SpectralGrid{M: m, Nz: nz, Nr: nr}

	sg.Kz, sg.Kr = make([]float64, n), make([]float64, n)
	for iz := range kz {
		for ir := range kr {
			sg.Kz[iz*nr+ir] = kz[iz]
			sg.Kr[iz*nr+ir] = kr[ir]
		}
	}

	sg.Ep, sg.Em, sg.Ez = make([]complex128, n), make([]complex128, n), make([]complex128, n)
	sg.Bp, sg.Bm, sg.Bz = make([]complex128, n), make([]complex128, n), make([]complex128, n)
	sg.Jp, sg.Jm, sg.Jz = make([]complex128, n), make([]complex128, n), make([]complex128, n)
	sg.RhoPrev, sg.RhoNext = make([]complex128, n), make([]complex128, n)
	sg.F = make([]complex128, n)

	return sg
}

// Fields returns the arrays belonging to ft, ordered (p, m, z) for vector
// fields. Rho refers to RhoNext, the level filled by deposition.
func (sg *SpectralGrid) Fields(ft FieldType) ([][]complex128, error) {
	switch ft {
	case E:
		return [][]complex128{sg.Ep, sg.Em, sg.Ez}, nil
	case B:
		return [][]complex128{sg.Bp, sg.Bm, sg.Bz}, nil
	case J:
		return [][]complex128{sg.Jp, sg.Jm, sg.Jz}, nil
	case Rho:
		return [][]complex128{sg.RhoNext}, nil
	}
	return nil, ft.Check()
}

// PushRho transfers RhoNext to RhoPrev and zeroes RhoNext. It must be called
// exactly once per cycle.
func (sg *SpectralGrid) PushRho() {
	copy(sg.RhoPrev, sg.RhoNext)
	for i := range sg.RhoNext {
		sg.RhoNext[i] = 0
	}
}

// ContinuityResidual returns (RhoNext - RhoPrev)/dt + div(J) at index i.
func (sg *SpectralGrid) ContinuityResidual(i int, dt float64) complex128 {
	kz, kr := complex(sg.Kz[i], 0), complex(sg.Kr[i], 0)
	return (sg.RhoNext[i]-sg.RhoPrev[i])/complex(dt, 0) +
		1i*kz*sg.Jz[i] + kr*(sg.Jp[i]-sg.Jm[i])
}

// CorrectCurrents adds a gradient to J such that the discretized continuity
// equation holds at every (kz, kr) point with non-zero k. The corrective
// potential is stored in F.
func (sg *SpectralGrid) CorrectCurrents(dt float64) {
	for i := range sg.F {
		k2 := sg.Kz[i]*sg.Kz[i] + sg.Kr[i]*sg.Kr[i]
		if k2 == 0 {
			sg.F[i] = 0
			continue
		}
		sg.F[i] = -sg.ContinuityResidual(i, dt) / complex(k2, 0)

		kz, halfKr := complex(sg.Kz[i], 0), complex(0.5*sg.Kr[i], 0)
		sg.Jp[i] += halfKr * sg.F[i]
		sg.Jm[i] -= halfKr * sg.F[i]
		sg.Jz[i] -= 1i * kz * sg.F[i]
	}
}

// PushEBWith advances E and B over one timestep with the coefficients ps,
// which must have been built for the same mode and grid shape.
func (sg *SpectralGrid) PushEBWith(ps *PsatdCoeffs) error {
	if ps.M != sg.M {
		return fmt.Errorf(
			"PSATD coefficients of mode %d passed to the spectral grid of "+
				"mode %d.", ps.M, sg.M,
		)
	} else if ps.Nz != sg.Nz || ps.Nr != sg.Nr {
		return fmt.Errorf(
			"PSATD coefficients have shape (%d, %d), but the spectral grid "+
				"of mode %d has shape (%d, %d).",
			ps.Nz, ps.Nr, sg.M, sg.Nz, sg.Nr,
		)
	}

	c2 := constants.C * constants.C
	mu0, eps0 := constants.Mu0, constants.Epsilon0
	dt := ps.Dt

	// The B push needs the electric field from before the E push.
	copy(ps.Ep, sg.Ep)
	copy(ps.Em, sg.Em)
	copy(ps.Ez, sg.Ez)

	for i := range sg.Ep {
		c, swdt := ps.C[i], ps.SWdt[i]
		if ps.W[i] == 0 {
			ps.JCoef[i] = mu0 * c2 * 0.5 * dt * dt
			ps.RhoDiff[i] = complex(c2/eps0*dt*dt, 0) *
				(sg.RhoNext[i]/6 + sg.RhoPrev[i]/3)
		} else {
			ps.JCoef[i] = mu0 * c2 * (1 - c) * ps.InvW2[i]
			ps.RhoDiff[i] = complex(c2/eps0*ps.InvW2[i], 0) * (
				sg.RhoNext[i]*complex(1-swdt, 0) -
					sg.RhoPrev[i]*complex(c-swdt, 0))
		}

		kz, kr := complex(sg.Kz[i], 0), complex(sg.Kr[i], 0)
		halfKr := 0.5 * kr
		C := complex(c, 0)
		eCoef := complex(c2*dt*swdt, 0)
		bCoef := complex(dt*swdt, 0)
		jCoef := complex(ps.JCoef[i], 0)
		rd := ps.RhoDiff[i]
		MU0 := complex(mu0, 0)

		sg.Ep[i] = C*sg.Ep[i] + halfKr*rd +
			eCoef*(-1i*halfKr*sg.Bz[i]+kz*sg.Bp[i]-MU0*sg.Jp[i])
		sg.Em[i] = C*sg.Em[i] - halfKr*rd +
			eCoef*(-1i*halfKr*sg.Bz[i]-kz*sg.Bm[i]-MU0*sg.Jm[i])
		sg.Ez[i] = C*sg.Ez[i] - 1i*kz*rd +
			eCoef*(1i*kr*(sg.Bp[i]+sg.Bm[i])-MU0*sg.Jz[i])

		sg.Bp[i] = C*sg.Bp[i] -
			bCoef*(-1i*halfKr*ps.Ez[i]+kz*ps.Ep[i]) +
			jCoef*(-1i*halfKr*sg.Jz[i]+kz*sg.Jp[i])
		sg.Bm[i] = C*sg.Bm[i] -
			bCoef*(-1i*halfKr*ps.Ez[i]-kz*ps.Em[i]) +
			jCoef*(-1i*halfKr*sg.Jz[i]-kz*sg.Jm[i])
		sg.Bz[i] = C*sg.Bz[i] -
			bCoef*(1i*kr*(ps.Ep[i]+ps.Em[i])) +
			jCoef*(1i*kr*(sg.Jp[i]+sg.Jm[i]))
	}

	return nil
}
