package io

import (
	"fmt"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/Andrewlongman/fbpic/constants"
	"github.com/Andrewlongman/fbpic/fields"
	"github.com/Andrewlongman/fbpic/logging"
	"github.com/Andrewlongman/fbpic/particles"
)

const (
	ExampleSimulationFile = `[Simulation]

#######################
# Required Parameters #
#######################

# Number of cells along z and radial nodes along r. Nz is rounded up to the
# nearest odd number.
Nz = 201
Nr = 64

# Number of azimuthal modes. 2 is enough for most laser-plasma problems.
Nm = 2

# Extent of the box, in meters. The box is periodic along z and extends from
# the axis to Rmax along r.
Zmin = -20e-6
Zmax = 20e-6
Rmax = 30e-6

# Timestep, in seconds.
Dt = 1e-16

# Number of PIC cycles to run.
Steps = 100

#######################
# Optional Parameters #
#######################

# Number of steps between two diagnostic log lines. Default is 10.
# DiagnosticInterval = 10

# LogMode must be one of [ Nil | Performance | Debug ]. Performance and Debug
# log memory usage.
# LogMode = Performance

# Output files which are useful for profiling and debugging. Generally, there
# isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out

[Backend]

# Name must be one of [ Auto | Reference | Parallel ]. Auto uses the parallel
# backend if the machine has more than one core and enough memory for its
# scratch grids.
Name = Auto

# Number of workers used by the parallel backend. Default is the number of
# cores.
# Workers = 8

# Memory budget of the parallel backend's scratch grids, in MB.
# MaxScratchMB = 1024`

	ExampleSpeciesFile = `[Species "electrons"]
# Each Species section adds one species to the simulation. Particles are
# either placed on a regular lattice or read from ParticleFile.

# Charge and mass in units of the elementary charge and the electron mass.
Charge = -1
Mass = 1

# Physical density, in particles per cubic meter.
Density = 1e24

# Number of macroparticles along each axis of the lattice.
Npz = 400
Npr = 60
Nptheta = 4

# Extent of the lattice, in meters.
Zmin = -10e-6
Zmax = 10e-6
Rmin = 0
Rmax = 25e-6

#######################
# Optional Parameters #
#######################

# Mean and thermal momenta, in units of m*c.
# UzMean = 0
# UxTh = 0
# UyTh = 0
# UzTh = 0

# Seed of the random number generator used for the thermal momenta and the
# lattice angles.
# Seed = 0

# Whitespace-separated table with the columns x y z ux uy uz w. If set, the
# lattice parameters are ignored.
# ParticleFile = path/to/particles.txt`
)

type SimulationConfig struct {
	// Required
	Nz, Nr, Nm int
	Zmin, Zmax float64
	Rmax       float64
	Dt         float64
	Steps      int

	// Optional
	DiagnosticInterval   int
	LogMode              string
	LogFile, ProfileFile string
}

func (con *SimulationConfig) ValidNz() bool { return con.Nz > 0 }
func (con *SimulationConfig) ValidNr() bool { return con.Nr > 0 }
func (con *SimulationConfig) ValidNm() bool { return con.Nm > 0 }
func (con *SimulationConfig) ValidZ() bool  { return con.Zmax > con.Zmin }
func (con *SimulationConfig) ValidRmax() bool {
	return con.Rmax > 0
}
func (con *SimulationConfig) ValidDt() bool { return con.Dt > 0 }
func (con *SimulationConfig) ValidSteps() bool {
	return con.Steps >= 0
}
func (con *SimulationConfig) ValidDiagnosticInterval() bool {
	return con.DiagnosticInterval > 0
}
func (con *SimulationConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SimulationConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

// Mode converts LogMode into a logging.Flag.
func (con *SimulationConfig) Mode() (logging.Flag, error) {
	switch strings.ToLower(strings.TrimSpace(con.LogMode)) {
	case "", "nil":
		return logging.Nil, nil
	case "performance":
		return logging.Performance, nil
	case "debug":
		return logging.Debug, nil
	}
	return logging.Nil, fmt.Errorf(
		"LogMode must be one of [Nil | Performance | Debug]. '%s' is not "+
			"recognized.", con.LogMode,
	)
}

// CheckInit returns an error describing the first invalid parameter.
func (con *SimulationConfig) CheckInit() error {
	if !con.ValidNz() {
		return fmt.Errorf("Invalid/non-existent 'Nz' value.")
	} else if !con.ValidNr() {
		return fmt.Errorf("Invalid/non-existent 'Nr' value.")
	} else if !con.ValidNm() {
		return fmt.Errorf("Invalid/non-existent 'Nm' value.")
	} else if !con.ValidZ() {
		return fmt.Errorf(
			"'Zmax' must be larger than 'Zmin', but Zmin = %g and Zmax = %g.",
			con.Zmin, con.Zmax,
		)
	} else if !con.ValidRmax() {
		return fmt.Errorf("Invalid/non-existent 'Rmax' value.")
	} else if !con.ValidDt() {
		return fmt.Errorf("Invalid/non-existent 'Dt' value.")
	} else if !con.ValidSteps() {
		return fmt.Errorf("'Steps' must be non-negative, but is %d.", con.Steps)
	} else if !con.ValidDiagnosticInterval() {
		return fmt.Errorf(
			"'DiagnosticInterval' must be positive, but is %d.",
			con.DiagnosticInterval,
		)
	}
	_, err := con.Mode()
	return err
}

// Params returns the construction parameters of the field container.
func (con *SimulationConfig) Params() fields.Params {
	return fields.Params{
		Nz: con.Nz, Zmin: con.Zmin, Zmax: con.Zmax,
		Nr: con.Nr, Rmax: con.Rmax,
		Nm: con.Nm, Dt: con.Dt,
	}
}

type BackendConfig struct {
	Name         string
	Workers      int
	MaxScratchMB int
}

func (con *BackendConfig) ValidName() bool {
	switch strings.ToLower(strings.TrimSpace(con.Name)) {
	case "auto", "reference", "parallel":
		return true
	}
	return false
}
func (con *BackendConfig) ValidWorkers() bool { return con.Workers >= 0 }
func (con *BackendConfig) ValidMaxScratchMB() bool {
	return con.MaxScratchMB > 0
}

func (con *BackendConfig) CheckInit() error {
	if !con.ValidName() {
		return fmt.Errorf(
			"Backend 'Name' must be one of [Auto | Reference | Parallel]. "+
				"'%s' is not recognized.", con.Name,
		)
	} else if !con.ValidWorkers() {
		return fmt.Errorf("'Workers' must be non-negative, but is %d.", con.Workers)
	} else if !con.ValidMaxScratchMB() {
		return fmt.Errorf(
			"'MaxScratchMB' must be positive, but is %d.", con.MaxScratchMB,
		)
	}
	return nil
}

// Capabilities combines the detected machine capabilities with the limits
// set in the config.
func (con *BackendConfig) Capabilities(detected particles.Capabilities) particles.Capabilities {
	caps := detected
	if con.Workers > 0 {
		caps.Workers = con.Workers
	}
	caps.MaxScratchBytes = int64(con.MaxScratchMB) << 20
	return caps
}

// Backend creates the particle backend named by the config for grids of nm
// modes with shape (nz, nr).
func (con *BackendConfig) Backend(
	detected particles.Capabilities, nz, nr, nm int,
) (particles.Backend, error) {
	caps := con.Capabilities(detected)
	switch strings.ToLower(strings.TrimSpace(con.Name)) {
	case "reference":
		return particles.Reference{}, nil
	case "parallel":
		par, err := particles.NewParallel(caps, nz, nr, nm)
		if err != nil {
			return nil, err
		}
		return par, nil
	case "auto":
		return particles.SelectBackend(caps, nz, nr, nm), nil
	}
	return nil, con.CheckInit()
}

type SpeciesConfig struct {
	// Required
	Charge, Mass float64
	Density      float64

	Npz, Npr, Nptheta int
	Zmin, Zmax        float64
	Rmin, Rmax        float64

	// Optional
	UxMean, UyMean, UzMean float64
	UxTh, UyTh, UzTh       float64
	Seed                   int64
	ParticleFile           string

	// Optional, "undocumented"
	Name string
}

func (sp *SpeciesConfig) ValidParticleFile() bool {
	return sp.ParticleFile != ""
}

func (sp *SpeciesConfig) CheckInit(name string) error {
	sp.Name = name

	if sp.Mass <= 0 {
		return fmt.Errorf(
			"Need to specify a positive Mass for Species '%s'.", name,
		)
	}
	if sp.ValidParticleFile() {
		return nil
	}

	if sp.Npz < 0 || sp.Npr < 0 || sp.Nptheta < 0 {
		return fmt.Errorf(
			"Particle counts of Species '%s' must be non-negative, but are "+
				"(%d, %d, %d).", name, sp.Npz, sp.Npr, sp.Nptheta,
		)
	} else if sp.Zmax < sp.Zmin {
		return fmt.Errorf(
			"Zmax of Species '%s' must not be smaller than Zmin.", name,
		)
	} else if sp.Rmin < 0 || sp.Rmax < sp.Rmin {
		return fmt.Errorf(
			"Radial range of Species '%s' must satisfy 0 <= Rmin <= Rmax, "+
				"but is [%g, %g].", name, sp.Rmin, sp.Rmax,
		)
	} else if sp.Density < 0 {
		return fmt.Errorf(
			"Species '%s' given a negative density, %g.", name, sp.Density,
		)
	}
	return nil
}

// Q returns the particle charge in Coulombs.
func (sp *SpeciesConfig) Q() float64 { return sp.Charge * constants.E }

// M returns the particle mass in kilograms.
func (sp *SpeciesConfig) M() float64 { return sp.Mass * constants.Me }

// UniformParams converts the lattice description into the parameters of
// particles.NewUniform.
func (sp *SpeciesConfig) UniformParams() *particles.UniformParams {
	return &particles.UniformParams{
		Q: sp.Q(), M: sp.M(), N: sp.Density,
		Npz: sp.Npz, Npr: sp.Npr, Nptheta: sp.Nptheta,
		Zmin: sp.Zmin, Zmax: sp.Zmax, Rmin: sp.Rmin, Rmax: sp.Rmax,
		UxMean: sp.UxMean, UyMean: sp.UyMean, UzMean: sp.UzMean,
		UxTh: sp.UxTh, UyTh: sp.UyTh, UzTh: sp.UzTh,
		Seed: sp.Seed,
	}
}

// Particles creates the particles of the species with the given backend.
func (sp *SpeciesConfig) Particles(backend particles.Backend) (*particles.Particles, error) {
	if !sp.ValidParticleFile() {
		return particles.NewUniform(sp.UniformParams(), backend)
	}

	cols, err := ReadParticleTable(sp.ParticleFile)
	if err != nil {
		return nil, err
	}
	return particles.FromArrays(
		sp.Q(), sp.M(),
		cols[0], cols[1], cols[2], cols[3], cols[4], cols[5], cols[6],
		backend,
	)
}

type SimulationWrapper struct {
	Simulation SimulationConfig
	Backend    BackendConfig
	Species    map[string]*SpeciesConfig
}

func DefaultSimulationWrapper() *SimulationWrapper {
	wrap := &SimulationWrapper{}
	wrap.Simulation.DiagnosticInterval = 10
	wrap.Backend.Name = "Auto"
	wrap.Backend.MaxScratchMB = particles.DefaultMaxScratchBytes >> 20
	return wrap
}

// CheckInit checks every section of the config.
func (wrap *SimulationWrapper) CheckInit() error {
	if err := wrap.Simulation.CheckInit(); err != nil {
		return err
	} else if err := wrap.Backend.CheckInit(); err != nil {
		return err
	}
	for name, sp := range wrap.Species {
		if err := sp.CheckInit(name); err != nil {
			return err
		}
	}
	return nil
}

// ReadConfig reads and checks a simulation config file. Species sections may
// be spread over several files, which are read after fname.
func ReadConfig(fname string, speciesFiles ...string) (*SimulationWrapper, error) {
	wrap := DefaultSimulationWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}

	for _, file := range speciesFiles {
		sw := struct{ Species map[string]*SpeciesConfig }{}
		if err := gcfg.ReadFileInto(&sw, file); err != nil {
			return nil, err
		}
		if wrap.Species == nil {
			wrap.Species = map[string]*SpeciesConfig{}
		}
		for name, sp := range sw.Species {
			if _, ok := wrap.Species[name]; ok {
				return nil, fmt.Errorf(
					"Species '%s' is defined more than once.", name,
				)
			}
			wrap.Species[name] = sp
		}
	}

	if err := wrap.CheckInit(); err != nil {
		return nil, err
	}
	return wrap, nil
}

// ParseConfig is ReadConfig for a config held in memory.
func ParseConfig(text string) (*SimulationWrapper, error) {
	wrap := DefaultSimulationWrapper()
	if err := gcfg.ReadStringInto(wrap, text); err != nil {
		return nil, err
	}
	if err := wrap.CheckInit(); err != nil {
		return nil, err
	}
	return wrap, nil
}
