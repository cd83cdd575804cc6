/*package fields contains the spatial and spectral grids of every azimuthal
mode, the transforms between them and the PSATD field integrator.

One PIC cycle advances the fields with

	fld.Interp2Spect(fields.J)
	fld.Interp2Spect(fields.Rho)
	fld.CorrectCurrents()
	fld.Push()
	fld.Spect2Interp(fields.E)
	fld.Spect2Interp(fields.B)

after the particles have deposited J and rho onto the interpolation grids.
*/
package fields

import (
	"fmt"
	"log"
)

// Params are the construction parameters of a Fields instance. They are fixed
// for the lifetime of the instance, except for Dt, which can be changed
// through SetDt.
type Params struct {
	Nz         int
	Zmin, Zmax float64
	Nr         int
	Rmax       float64
	Nm         int
	Dt         float64
}

// CheckInit returns an error if the parameters cannot describe a grid.
func (p *Params) CheckInit() error {
	if p.Nz <= 0 {
		return fmt.Errorf("Nz must be positive, but is %d.", p.Nz)
	} else if p.Nr <= 0 {
		return fmt.Errorf("Nr must be positive, but is %d.", p.Nr)
	} else if p.Nm <= 0 {
		return fmt.Errorf("Nm must be positive, but is %d.", p.Nm)
	} else if p.Zmax <= p.Zmin {
		return fmt.Errorf(
			"Zmax must be larger than Zmin, but Zmin = %g and Zmax = %g.",
			p.Zmin, p.Zmax,
		)
	} else if p.Rmax <= 0 {
		return fmt.Errorf("Rmax must be positive, but is %g.", p.Rmax)
	} else if p.Dt <= 0 {
		return fmt.Errorf("Dt must be positive, but is %g.", p.Dt)
	}
	return nil
}

// Mode owns every grid and buffer of a single azimuthal mode.
type Mode struct {
	Interp *InterpolationGrid
	Spect  *SpectralGrid
	Trans  *SpectralTransformer
	Psatd  *PsatdCoeffs
}

// Fields contains the grids of all azimuthal modes.
type Fields struct {
	Params
	Dz float64
	Kz []float64

	modes  []Mode
	interp []*InterpolationGrid
}

// New creates the grids, transforms and PSATD coefficients of every mode.
// Nz is rounded up to the nearest odd integer, which keeps the FFT
// frequencies symmetric.
func New(p Params) (*Fields, error) {
	if err := p.CheckInit(); err != nil {
		return nil, err
	}
	if p.Nz%2 == 0 {
		log.Printf("Rounding Nz = %d up to the odd value %d.", p.Nz, p.Nz+1)
		p.Nz++
	}

	f := &Fields{Params: p}
	f.Dz = (p.Zmax - p.Zmin) / float64(p.Nz)
	f.Kz = Kz(p.Nz, f.Dz)

	f.modes = make([]Mode, p.Nm)
	f.interp = make([]*InterpolationGrid, p.Nm)
	err := f.eachMode(func(m int, mode *Mode) error {
		trans, err := NewSpectralTransformer(p.Nz, p.Nr, m, p.Rmax)
		if err != nil {
			return err
		}
		dht := trans.DHT()

		mode.Trans = trans
		mode.Interp = NewInterpolationGrid(p.Nz, p.Zmin, f.Dz, dht.R(), m)
		mode.Spect = NewSpectralGrid(f.Kz, dht.Kr(), m)
		mode.Psatd, err = NewPsatdCoeffs(f.Kz, dht.Kr(), m, p.Dt)
		return err
	})
	if err != nil {
		return nil, err
	}

	for m := range f.modes {
		f.interp[m] = f.modes[m].Interp
	}
	return f, nil
}

// Mode returns the grids of azimuthal mode m.
func (f *Fields) Mode(m int) *Mode { return &f.modes[m] }

// Interp returns the interpolation grids of every mode, indexed by mode.
func (f *Fields) Interp() []*InterpolationGrid { return f.interp }

// SetDt changes the timestep and recomputes the PSATD coefficients.
func (f *Fields) SetDt(dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("Dt must be positive, but is %g.", dt)
	}
	err := f.eachMode(func(m int, mode *Mode) error {
		ps, err := NewPsatdCoeffs(f.Kz, mode.Trans.DHT().Kr(), m, dt)
		if err != nil {
			return err
		}
		mode.Psatd = ps
		return nil
	})
	if err != nil {
		return err
	}
	f.Dt = dt
	return nil
}

// Push advances E and B of every mode over one timestep and then moves the
// charge density to the previous time level.
func (f *Fields) Push() error {
	return f.eachMode(func(m int, mode *Mode) error {
		if err := mode.Spect.PushEBWith(mode.Psatd); err != nil {
			return err
		}
		mode.Spect.PushRho()
		return nil
	})
}

// PushRho moves the charge density of every mode to the previous time level
// without pushing the fields. It is used once at initialization, after the
// initial charge density has been deposited and transformed.
func (f *Fields) PushRho() {
	for m := range f.modes {
		f.modes[m].Spect.PushRho()
	}
}

// CorrectCurrents makes the spectral currents of every mode satisfy the
// continuity equation.
func (f *Fields) CorrectCurrents() {
	f.eachMode(func(m int, mode *Mode) error {
		mode.Spect.CorrectCurrents(f.Dt)
		return nil
	})
}

// Interp2Spect transforms the fields of type ft from the interpolation grids
// to the spectral grids.
func (f *Fields) Interp2Spect(ft FieldType) error {
	if err := ft.Check(); err != nil {
		return err
	}
	return f.eachMode(func(m int, mode *Mode) error {
		src, err := mode.Interp.Fields(ft)
		if err != nil {
			return err
		}
		dst, err := mode.Spect.Fields(ft)
		if err != nil {
			return err
		}

		if len(src) == 1 {
			mode.Trans.Interp2SpectScal(src[0], dst[0])
		} else {
			mode.Trans.Interp2SpectVect(src[0], src[1], dst[0], dst[1])
			mode.Trans.Interp2SpectScal(src[2], dst[2])
		}
		return nil
	})
}

// Spect2Interp transforms the fields of type ft from the spectral grids to
// the interpolation grids.
func (f *Fields) Spect2Interp(ft FieldType) error {
	if err := ft.Check(); err != nil {
		return err
	}
	return f.eachMode(func(m int, mode *Mode) error {
		src, err := mode.Spect.Fields(ft)
		if err != nil {
			return err
		}
		dst, err := mode.Interp.Fields(ft)
		if err != nil {
			return err
		}

		if len(src) == 1 {
			mode.Trans.Spect2InterpScal(src[0], dst[0])
		} else {
			mode.Trans.Spect2InterpVect(src[0], src[1], dst[0], dst[1])
			mode.Trans.Spect2InterpScal(src[2], dst[2])
		}
		return nil
	})
}

// Erase zeroes the interpolation-grid arrays of type ft in every mode.
func (f *Fields) Erase(ft FieldType) error {
	if err := ft.Check(); err != nil {
		return err
	}
	for m := range f.modes {
		if err := f.modes[m].Interp.Erase(ft); err != nil {
			return err
		}
	}
	return nil
}

// eachMode runs fn concurrently on every mode, one worker per mode, and
// returns the first error encountered in mode order.
func (f *Fields) eachMode(fn func(m int, mode *Mode) error) error {
	errs := make([]error, len(f.modes))
	out := make(chan int, len(f.modes))

	for m := range f.modes {
		go func(m int) {
			errs[m] = fn(m, &f.modes[m])
			out <- m
		}(m)
	}
	for range f.modes {
		<-out
	}

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
