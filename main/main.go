package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"sort"

	"github.com/Andrewlongman/fbpic"
	"github.com/Andrewlongman/fbpic/fields"
	"github.com/Andrewlongman/fbpic/io"
	"github.com/Andrewlongman/fbpic/logging"
	"github.com/Andrewlongman/fbpic/particles"
)

type FileGroup struct {
	log, prof *os.File
}

func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		config, exampleConfig string
		threads               int
	)

	flag.StringVar(
		&config, "Config", "",
		"Configuration file with the [Simulation] and [Backend] sections. "+
			"Species files are given as the remaining arguments.",
	)
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "",
		"Prints an example configuration file of the specified type to "+
			"stdout. Accepted arguments are 'Simulation' and 'Species'.",
	)
	flag.IntVar(
		&threads, "Threads", 0,
		"Number of OS threads used. Default is the number of cores.",
	)
	flag.Parse()

	if exampleConfig != "" {
		switch exampleConfig {
		case "Simulation":
			fmt.Println(io.ExampleSimulationFile)
		case "Species":
			fmt.Println(io.ExampleSpeciesFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. Only recognized " +
					"arguments are 'Simulation' and 'Species'.",
			)
		}
		return
	} else if config == "" {
		log.Fatal("No flags have been set. Run with -h for usage.")
	}

	if threads > 0 {
		runtime.GOMAXPROCS(threads)
	}

	wrap, err := io.ReadConfig(config, flag.Args()...)
	if err != nil {
		log.Fatal(err.Error())
	}
	con := &wrap.Simulation

	fg, err := setupFiles(con)
	if err != nil {
		log.Fatal(err.Error())
	}
	defer fg.Close()

	logging.Mode, err = con.Mode()
	if err != nil {
		log.Fatal(err.Error())
	}

	sim, err := setupSimulation(wrap)
	if err != nil {
		log.Fatal(err.Error())
	}

	if err := sim.Run(con.Steps, con.DiagnosticInterval); err != nil {
		log.Fatal(err.Error())
	}
}

func setupFiles(con *io.SimulationConfig) (*FileGroup, error) {
	fg := &FileGroup{}

	if con.ValidLogFile() {
		var err error
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			return nil, err
		}
		log.SetOutput(fg.log)
	}

	if con.ValidProfileFile() {
		var err error
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			return nil, err
		}
		if err := pprof.StartCPUProfile(fg.prof); err != nil {
			return nil, err
		}
	}

	return fg, nil
}

func setupSimulation(wrap *io.SimulationWrapper) (*fbpic.Simulation, error) {
	con := &wrap.Simulation

	fld, err := fields.New(con.Params())
	if err != nil {
		return nil, err
	}

	// Nz might have been rounded, so backends are built from the grid.
	backend, err := wrap.Backend.Backend(
		particles.DetectCapabilities(), fld.Nz, fld.Nr, fld.Nm,
	)
	if err != nil {
		return nil, err
	}

	names := []string{}
	for name := range wrap.Species {
		names = append(names, name)
	}
	sort.Strings(names)

	species := []*particles.Particles{}
	for _, name := range names {
		p, err := wrap.Species[name].Particles(backend)
		if err != nil {
			return nil, err
		}
		log.Printf("Species '%s': %d particles.", name, p.N)
		species = append(species, p)
	}

	if logging.Mode >= logging.Performance {
		log.Println(logging.MemString())
	}

	return fbpic.NewSimulation(fld, species, true)
}
