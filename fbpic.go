/*package fbpic advances a cylindrical, spectral particle-in-cell simulation:
the fields of package fields coupled to one or more species of package
particles.
*/
package fbpic

import (
	"fmt"
	"log"
	"math"
	"math/cmplx"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/Andrewlongman/fbpic/constants"
	"github.com/Andrewlongman/fbpic/fields"
	"github.com/Andrewlongman/fbpic/logging"
	"github.com/Andrewlongman/fbpic/particles"
)

type Simulation struct {
	Fields  *fields.Fields
	Species []*particles.Particles

	step int
	log  bool

	// Diagnostic buffers.
	re, vol []float64
}

// Diagnostics summarizes the state of a simulation after a step.
type Diagnostics struct {
	Step int
	Time float64

	// ParticleCharge is the summed weight of every species and GridCharge is
	// the charge deposited on the mode-0 grid.
	ParticleCharge, GridCharge float64
	// KineticEnergy is in Joules.
	KineticEnergy float64
	// MaxE and MaxB are the largest mode-0 field amplitudes on the grid.
	MaxE, MaxB float64
}

// NewSimulation deposits the initial charge density of every species and
// moves it to the previous time level, so that the first Step sees the
// charge density at the start of the cycle.
func NewSimulation(
	fld *fields.Fields, species []*particles.Particles, logFlag bool,
) (*Simulation, error) {
	sim := &Simulation{Fields: fld, Species: species, log: logFlag}

	g := fld.Interp()[0]
	sim.re = make([]float64, g.Area)
	sim.vol = make([]float64, g.Area)
	for i := range sim.vol {
		sim.vol[i] = 1 / g.InvVol[i%g.Nr]
	}

	if err := sim.depositRho(); err != nil {
		return nil, err
	}
	if err := fld.Interp2Spect(fields.Rho); err != nil {
		return nil, err
	}
	fld.PushRho()

	if sim.log {
		n := 0
		for _, sp := range species {
			n += sp.N
		}
		log.Printf(
			"Grid (%d, %d) with %d modes, %d species, %d particles. "+
				"Backend: %s.", fld.Nz, fld.Nr, fld.Nm, len(species), n,
			sim.backendName(),
		)
	}
	return sim, nil
}

// Log turns progress logging on or off.
func (sim *Simulation) Log(flag bool) { sim.log = flag }

// StepCount returns the number of completed steps.
func (sim *Simulation) StepCount() int { return sim.step }

// Step advances the particles and the fields by one timestep.
func (sim *Simulation) Step() error {
	fld := sim.Fields
	grids := fld.Interp()
	dt := fld.Dt

	for _, sp := range sim.Species {
		if err := sp.Gather(grids); err != nil {
			return err
		}
		sp.PushP(dt)
		sp.HalfPushX(dt)
	}

	if err := fld.Erase(fields.J); err != nil {
		return err
	}
	for _, sp := range sim.Species {
		if err := sp.Deposit(grids, fields.J); err != nil {
			return err
		}
		sp.HalfPushX(dt)
	}
	if err := sim.depositRho(); err != nil {
		return err
	}

	if err := fld.Interp2Spect(fields.J); err != nil {
		return err
	}
	if err := fld.Interp2Spect(fields.Rho); err != nil {
		return err
	}
	fld.CorrectCurrents()
	if err := fld.Push(); err != nil {
		return err
	}
	if err := fld.Spect2Interp(fields.E); err != nil {
		return err
	}
	if err := fld.Spect2Interp(fields.B); err != nil {
		return err
	}

	sim.step++
	return nil
}

// Run performs steps PIC cycles and logs diagnostics every interval steps.
func (sim *Simulation) Run(steps, interval int) error {
	if steps < 0 {
		return fmt.Errorf("Step count must be non-negative, but is %d.", steps)
	} else if interval <= 0 {
		return fmt.Errorf(
			"Diagnostic interval must be positive, but is %d.", interval,
		)
	}

	t0 := time.Now()
	for i := 0; i < steps; i++ {
		if err := sim.Step(); err != nil {
			return err
		}

		if sim.log && (sim.step%interval == 0 || i == steps-1) {
			d := sim.Diagnostics()
			log.Printf(
				"Step %d (t = %.4g s): particle charge %.4g C, grid charge "+
					"%.4g C, kinetic energy %.4g J, max |E| %.4g V/m, "+
					"max |B| %.4g T", d.Step, d.Time, d.ParticleCharge,
				d.GridCharge, d.KineticEnergy, d.MaxE, d.MaxB,
			)
			if logging.Mode >= logging.Performance {
				log.Printf(
					"%d steps in %s. %s", i+1, time.Since(t0), logging.MemString(),
				)
			}
		}
	}
	return nil
}

// Diagnostics computes the summary statistics of the current state.
func (sim *Simulation) Diagnostics() Diagnostics {
	g := sim.Fields.Interp()[0]
	d := Diagnostics{Step: sim.step, Time: float64(sim.step) * sim.Fields.Dt}

	for _, sp := range sim.Species {
		w := sp.W()
		d.ParticleCharge += floats.Sum(w)
		if sp.Q == 0 || sp.N == 0 {
			continue
		}

		// (gamma - 1) m c^2 for every physical particle.
		e := make([]float64, sp.N)
		for i, invg := range sp.InvGamma() {
			e[i] = (1/invg - 1) * sp.M * constants.C * constants.C
		}
		d.KineticEnergy += floats.Dot(e, w) / sp.Q
	}

	for i, rho := range g.Rho {
		sim.re[i] = real(rho)
	}
	d.GridCharge = floats.Dot(sim.re, sim.vol)

	d.MaxE = sim.maxAbs(g.Er, g.Et, g.Ez)
	d.MaxB = sim.maxAbs(g.Br, g.Bt, g.Bz)
	return d
}

func (sim *Simulation) maxAbs(arrs ...[]complex128) float64 {
	max := 0.0
	for _, arr := range arrs {
		for i, v := range arr {
			sim.re[i] = cmplx.Abs(v)
		}
		max = math.Max(max, floats.Max(sim.re))
	}
	return max
}

func (sim *Simulation) depositRho() error {
	grids := sim.Fields.Interp()
	if err := sim.Fields.Erase(fields.Rho); err != nil {
		return err
	}
	for _, sp := range sim.Species {
		if err := sp.Deposit(grids, fields.Rho); err != nil {
			return err
		}
	}
	return nil
}

func (sim *Simulation) backendName() string {
	if len(sim.Species) == 0 {
		return "none"
	}
	return sim.Species[0].Backend().Name()
}
