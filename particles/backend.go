package particles

import (
	"fmt"
	"log"
	"runtime"

	"github.com/Andrewlongman/fbpic/fields"
)

// DefaultMaxScratchBytes is the scratch budget reported by
// DetectCapabilities.
const DefaultMaxScratchBytes = 1 << 30

// Backend is a set of particle kernels. Every backend produces the same
// results up to floating-point accumulation order.
type Backend interface {
	Name() string
	PushP(p *Particles, dt float64)
	PushX(p *Particles, dt float64)
	Gather(p *Particles, grids []*fields.InterpolationGrid)
	Deposit(p *Particles, grids []*fields.InterpolationGrid, ft fields.FieldType) error
	// NeedsSort returns true if Deposit requires the particles to be sorted
	// by cell.
	NeedsSort() bool
}

// Capabilities describes the resources a backend may use.
type Capabilities struct {
	Workers         int
	MaxScratchBytes int64
}

// DetectCapabilities returns the capabilities of the current machine.
func DetectCapabilities() Capabilities {
	return Capabilities{
		Workers:         runtime.NumCPU(),
		MaxScratchBytes: DefaultMaxScratchBytes,
	}
}

// SelectBackend returns a Parallel backend for grids of nm modes with shape
// (nz, nr) if caps allows one and the sequential Reference backend otherwise.
func SelectBackend(caps Capabilities, nz, nr, nm int) Backend {
	if caps.Workers <= 1 {
		return Reference{}
	}
	par, err := NewParallel(caps, nz, nr, nm)
	if err != nil {
		log.Printf("Falling back to the reference backend: %s", err.Error())
		return Reference{}
	}
	return par
}

// Reference runs every kernel sequentially.
type Reference struct{}

func (Reference) Name() string    { return "reference" }
func (Reference) NeedsSort() bool { return false }

func (Reference) PushP(p *Particles, dt float64) { pushPRange(p, dt, 0, p.N) }
func (Reference) PushX(p *Particles, dt float64) { pushXRange(p, dt, 0, p.N) }

func (Reference) Gather(p *Particles, grids []*fields.InterpolationGrid) {
	gatherRange(p, grids, 0, p.N)
}

func (Reference) Deposit(
	p *Particles, grids []*fields.InterpolationGrid, ft fields.FieldType,
) error {
	targets := make([][][]complex128, len(grids))
	for m, g := range grids {
		arrs, err := g.Fields(ft)
		if err != nil {
			return err
		}
		targets[m] = arrs
	}
	depositRange(p, grids, targets, ft, 0, p.N)
	return nil
}

// Parallel splits particles into contiguous ranges, one per worker. Deposition
// runs on particles sorted by cell: each worker takes a range of whole cells,
// accumulates into its own scratch grids, and the scratch grids are summed
// into the target grids afterwards.
type Parallel struct {
	Workers    int
	nz, nr, nm int

	// scratch[w][m] holds rho, Jr, Jt and Jz of mode m for worker w.
	scratch [][][][]complex128
}

// NewParallel allocates the scratch grids of a Parallel backend. It returns an
// error if they would exceed caps.MaxScratchBytes.
func NewParallel(caps Capabilities, nz, nr, nm int) (*Parallel, error) {
	if caps.Workers < 1 {
		return nil, fmt.Errorf(
			"Parallel backend needs at least one worker, but %d were given.",
			caps.Workers,
		)
	} else if nz <= 0 || nr <= 0 || nm <= 0 {
		return nil, fmt.Errorf(
			"Grid shape (%d, %d) with %d modes is invalid.", nz, nr, nm,
		)
	}

	bytes := int64(caps.Workers) * int64(nm) * 4 * int64(nz*nr) * 16
	if bytes > caps.MaxScratchBytes {
		return nil, fmt.Errorf(
			"Scratch grids of %d workers need %d MB, but only %d MB are "+
				"available.", caps.Workers, bytes>>20, caps.MaxScratchBytes>>20,
		)
	}

	par := &Parallel{Workers: caps.Workers, nz: nz, nr: nr, nm: nm}
	par.scratch = make([][][][]complex128, par.Workers)
	for w := range par.scratch {
		par.scratch[w] = make([][][]complex128, nm)
		for m := range par.scratch[w] {
			par.scratch[w][m] = make([][]complex128, 4)
			for c := range par.scratch[w][m] {
				par.scratch[w][m][c] = make([]complex128, nz*nr)
			}
		}
	}
	return par, nil
}

func (par *Parallel) Name() string    { return fmt.Sprintf("parallel(%d)", par.Workers) }
func (par *Parallel) NeedsSort() bool { return true }

func (par *Parallel) PushP(p *Particles, dt float64) {
	par.run(par.ranges(p.N), func(w, lo, hi int) { pushPRange(p, dt, lo, hi) })
}

func (par *Parallel) PushX(p *Particles, dt float64) {
	par.run(par.ranges(p.N), func(w, lo, hi int) { pushXRange(p, dt, lo, hi) })
}

func (par *Parallel) Gather(p *Particles, grids []*fields.InterpolationGrid) {
	par.run(par.ranges(p.N), func(w, lo, hi int) { gatherRange(p, grids, lo, hi) })
}

func (par *Parallel) Deposit(
	p *Particles, grids []*fields.InterpolationGrid, ft fields.FieldType,
) error {
	if len(grids) != par.nm {
		return fmt.Errorf(
			"Parallel backend was built for %d modes, but %d grids were given.",
			par.nm, len(grids),
		)
	} else if grids[0].Nz != par.nz || grids[0].Nr != par.nr {
		return fmt.Errorf(
			"Parallel backend was built for grids of shape (%d, %d), but "+
				"the grids have shape (%d, %d).",
			par.nz, par.nr, grids[0].Nz, grids[0].Nr,
		)
	} else if !p.sorted {
		return fmt.Errorf("Parallel deposition requires sorted particles.")
	}

	lo, hi := 0, 1
	if ft == fields.J {
		lo, hi = 1, 4
	}

	par.run(par.cellRanges(p), func(w, start, end int) {
		targets := make([][][]complex128, par.nm)
		for m := range targets {
			targets[m] = par.scratch[w][m][lo:hi]
			for _, arr := range targets[m] {
				for i := range arr {
					arr[i] = 0
				}
			}
		}
		depositRange(p, grids, targets, ft, start, end)
	})

	for m, g := range grids {
		arrs, err := g.Fields(ft)
		if err != nil {
			return err
		}
		for c, dst := range arrs {
			for w := 0; w < par.Workers; w++ {
				src := par.scratch[w][m][lo+c]
				for i := range dst {
					dst[i] += src[i]
				}
			}
		}
	}
	return nil
}

// ranges splits [0, n) into Workers contiguous ranges.
func (par *Parallel) ranges(n int) [][2]int {
	out := make([][2]int, par.Workers)
	for w := range out {
		out[w] = [2]int{n * w / par.Workers, n * (w + 1) / par.Workers}
	}
	return out
}

// cellRanges splits the sorted particles into Workers contiguous ranges whose
// boundaries fall between cells.
func (par *Parallel) cellRanges(p *Particles) [][2]int {
	bounds := make([]int, par.Workers+1)
	bounds[par.Workers] = p.N
	for w := 1; w < par.Workers; w++ {
		b := p.N * w / par.Workers
		if b < p.N {
			b, _ = p.CellRange(p.cellIdx[b])
		}
		bounds[w] = b
	}

	out := make([][2]int, par.Workers)
	for w := range out {
		out[w] = [2]int{bounds[w], bounds[w+1]}
	}
	return out
}

// run calls fn on every range concurrently and waits for all of them.
func (par *Parallel) run(ranges [][2]int, fn func(w, lo, hi int)) {
	out := make(chan int, len(ranges))
	for w := range ranges {
		go func(w int) {
			fn(w, ranges[w][0], ranges[w][1])
			out <- w
		}(w)
	}
	for range ranges {
		<-out
	}
}
