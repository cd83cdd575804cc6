/*package particles contains a species of macroparticles and the kernels which
couple it to the azimuthal-mode grids of package fields: the momentum and
position pushers, field gathering, charge and current deposition and the
sort of particles by cell.

Momenta are stored half a timestep behind positions at the start and end of
every cycle. A cycle therefore runs

	p.Gather(grids)
	p.PushP(dt)
	p.HalfPushX(dt)
	p.Deposit(grids, fields.J)
	p.HalfPushX(dt)
	p.Deposit(grids, fields.Rho)

with the grids erased before each deposition.
*/
package particles

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/Andrewlongman/fbpic/fields"
	"github.com/Andrewlongman/fbpic/interpolate"
)

// Particles is a single species of macroparticles. Momenta are the
// dimensionless u = gamma * v / c and weights already include the particle
// charge, so that a deposited weight is a charge.
type Particles struct {
	Q, M float64
	N    int

	arena *arena

	// Fields gathered at the particle positions. Sort does not rearrange
	// them, so they are only valid until the next Sort.
	Ex, Ey, Ez []float64
	Bx, By, Bz []float64

	cellIdx   []int
	sortedIdx []int
	prefixSum []int
	sorted    bool

	backend Backend
}

// New allocates n particles of charge q and mass m at rest at the origin with
// zero weight.
func New(q, m float64, n int, backend Backend) *Particles {
	if n < 0 {
		panic(fmt.Sprintf("Particle count must be non-negative, but is %d.", n))
	}
	if backend == nil {
		backend = Reference{}
	}

	p := &Particles{Q: q, M: m, N: n, backend: backend}
	p.arena = newArena(n)
	p.Ex, p.Ey, p.Ez = make([]float64, n), make([]float64, n), make([]float64, n)
	p.Bx, p.By, p.Bz = make([]float64, n), make([]float64, n), make([]float64, n)
	p.cellIdx = make([]int, n)
	p.sortedIdx = make([]int, n)
	for i := range p.sortedIdx {
		p.sortedIdx[i] = i
	}

	invg := p.InvGamma()
	for i := range invg {
		invg[i] = 1
	}
	return p
}

// FromArrays creates particles from copies of the given positions, momenta
// and weights. invGamma is computed from the momenta.
func FromArrays(
	q, m float64, x, y, z, ux, uy, uz, w []float64, backend Backend,
) (*Particles, error) {
	n := len(x)
	for i, arr := range [][]float64{y, z, ux, uy, uz, w} {
		if len(arr) != n {
			return nil, fmt.Errorf(
				"Particle array %d has length %d, but x has length %d.",
				i+1, len(arr), n,
			)
		}
	}

	p := New(q, m, n, backend)
	copy(p.X(), x)
	copy(p.Y(), y)
	copy(p.Z(), z)
	copy(p.Ux(), ux)
	copy(p.Uy(), uy)
	copy(p.Uz(), uz)
	copy(p.W(), w)
	p.UpdateInvGamma()
	return p, nil
}

// UniformParams describes a species initialized on a regular lattice in
// (z, r, theta), as in a uniform or smoothly varying plasma.
type UniformParams struct {
	Q, M float64
	// N is the physical density in particles per cubic meter.
	N float64

	Npz, Npr, Nptheta int
	Zmin, Zmax        float64
	Rmin, Rmax        float64

	// DensFunc, if non-nil, scales the density at (z, r). It should return a
	// value between 0 and 1.
	DensFunc func(z, r float64) float64

	UxMean, UyMean, UzMean float64
	UxTh, UyTh, UzTh       float64

	Seed int64
}

// CheckInit returns an error if the lattice is empty or degenerate.
func (up *UniformParams) CheckInit() error {
	if up.Npz < 0 || up.Npr < 0 || up.Nptheta < 0 {
		return fmt.Errorf(
			"Particle lattice counts must be non-negative, but are "+
				"(%d, %d, %d).", up.Npz, up.Npr, up.Nptheta,
		)
	} else if up.Zmax < up.Zmin {
		return fmt.Errorf(
			"Zmax = %g is smaller than Zmin = %g.", up.Zmax, up.Zmin,
		)
	} else if up.Rmin < 0 || up.Rmax < up.Rmin {
		return fmt.Errorf(
			"Radial range [%g, %g] is invalid.", up.Rmin, up.Rmax,
		)
	} else if up.M <= 0 {
		return fmt.Errorf("Particle mass must be positive, but is %g.", up.M)
	}
	return nil
}

// NewUniform creates Npz*Npr*Nptheta particles at the centres of a regular
// (z, r) lattice. Each (z, r) cell rotates its ring of particles by a random
// angle so that particles are not aligned along any direction. Momenta are
// drawn from normal distributions around the mean momenta.
func NewUniform(up *UniformParams, backend Backend) (*Particles, error) {
	if err := up.CheckInit(); err != nil {
		return nil, err
	}

	n := up.Npz * up.Npr * up.Nptheta
	p := New(up.Q, up.M, n, backend)
	if n == 0 {
		return p, nil
	}

	gen := rand.New(rand.NewSource(up.Seed))
	dz := (up.Zmax - up.Zmin) / float64(up.Npz)
	dr := (up.Rmax - up.Rmin) / float64(up.Npr)
	dtheta := 2 * math.Pi / float64(up.Nptheta)

	x, y, z, w := p.X(), p.Y(), p.Z(), p.W()
	i := 0
	for iz := 0; iz < up.Npz; iz++ {
		zp := up.Zmin + dz*(float64(iz)+0.5)
		for ir := 0; ir < up.Npr; ir++ {
			rp := up.Rmin + dr*(float64(ir)+0.5)
			offset := 2 * math.Pi * gen.Float64()

			wp := up.Q * up.N * rp * dtheta * dr * dz
			if up.DensFunc != nil {
				wp *= up.DensFunc(zp, rp)
			}

			for it := 0; it < up.Nptheta; it++ {
				theta := dtheta*float64(it) + offset
				x[i] = rp * math.Cos(theta)
				y[i] = rp * math.Sin(theta)
				z[i] = zp
				w[i] = wp
				i++
			}
		}
	}

	ux, uy, uz := p.Ux(), p.Uy(), p.Uz()
	for i := 0; i < n; i++ {
		ux[i] = up.UxMean + up.UxTh*gen.NormFloat64()
		uy[i] = up.UyMean + up.UyTh*gen.NormFloat64()
		uz[i] = up.UzMean + up.UzTh*gen.NormFloat64()
	}
	p.UpdateInvGamma()

	return p, nil
}

// X returns the x positions. The returned slice is invalidated by Sort.
func (p *Particles) X() []float64 { return p.arena.get(ax) }

// Y returns the y positions. The returned slice is invalidated by Sort.
func (p *Particles) Y() []float64 { return p.arena.get(ay) }

// Z returns the z positions. The returned slice is invalidated by Sort.
func (p *Particles) Z() []float64 { return p.arena.get(az) }

func (p *Particles) Ux() []float64       { return p.arena.get(aux) }
func (p *Particles) Uy() []float64       { return p.arena.get(auy) }
func (p *Particles) Uz() []float64       { return p.arena.get(auz) }
func (p *Particles) InvGamma() []float64 { return p.arena.get(ainvg) }
func (p *Particles) W() []float64        { return p.arena.get(aw) }

// Backend returns the compute backend used by the kernels.
func (p *Particles) Backend() Backend { return p.backend }

// Sorted returns true if the particles are currently ordered by cell.
func (p *Particles) Sorted() bool { return p.sorted }

// CellIdx returns the cell index of every particle as of the last Sort.
func (p *Particles) CellIdx() []int { return p.cellIdx }

// SortedIdx returns the permutation applied by the last Sort: the particle
// now at position i was at position SortedIdx()[i] before it.
func (p *Particles) SortedIdx() []int { return p.sortedIdx }

// PrefixSum returns the inclusive prefix sum of the per-cell particle counts
// as of the last Sort.
func (p *Particles) PrefixSum() []int { return p.prefixSum }

// Generation returns the number of array ownership transfers made by sorts.
func (p *Particles) Generation() int { return p.arena.gen }

// UpdateInvGamma recomputes 1/gamma from the momenta.
func (p *Particles) UpdateInvGamma() {
	ux, uy, uz, invg := p.Ux(), p.Uy(), p.Uz(), p.InvGamma()
	for i := range invg {
		invg[i] = 1 / math.Sqrt(1+ux[i]*ux[i]+uy[i]*uy[i]+uz[i]*uz[i])
	}
}

// PushP advances the momenta by dt with the gathered fields.
func (p *Particles) PushP(dt float64) { p.backend.PushP(p, dt) }

// HalfPushX advances the positions by dt/2 with the current momenta.
func (p *Particles) HalfPushX(dt float64) {
	p.backend.PushX(p, dt)
	p.sorted = false
}

// Gather interpolates the fields of every mode onto the particles. grids must
// be indexed by mode.
func (p *Particles) Gather(grids []*fields.InterpolationGrid) error {
	if err := checkGrids(grids); err != nil {
		return err
	}
	p.backend.Gather(p, grids)
	return nil
}

// Deposit adds the charge density (ft = fields.Rho) or the current density
// (ft = fields.J) of the particles to the grids of every mode. The grids are
// not erased first.
func (p *Particles) Deposit(grids []*fields.InterpolationGrid, ft fields.FieldType) error {
	if ft != fields.Rho && ft != fields.J {
		return fmt.Errorf(
			"Particles can only deposit rho or J, but fieldtype %s was "+
				"requested.", ft,
		)
	} else if err := checkGrids(grids); err != nil {
		return err
	}

	if p.backend.NeedsSort() && !p.sorted {
		p.Sort(grids[0])
	}
	return p.backend.Deposit(p, grids, ft)
}

// Sort orders the particles by the cell of g which contains them, and
// records the per-cell counts as an inclusive prefix sum. Particles within a
// cell keep their relative order.
func (p *Particles) Sort(g *fields.InterpolationGrid) {
	if len(p.prefixSum) != g.Area {
		p.prefixSum = make([]int, g.Area)
	}

	z, x, y := p.Z(), p.X(), p.Y()
	rs := g.Searcher()
	wz, wr := &interpolate.Weights{}, &interpolate.Weights{}
	for i := 0; i < p.N; i++ {
		interpolate.PeriodicWeights(z[i], g.Zmin, g.Dz, g.Nz, wz)
		rs.AxisWeights(math.Sqrt(x[i]*x[i]+y[i]*y[i]), wr)
		idx, ok := g.IdxCheck(wz.Lower, wr.Lower)
		if !ok {
			panic(fmt.Sprintf(
				"Particle %d mapped to cell (%d, %d) outside of the grid.",
				i, wz.Lower, wr.Lower,
			))
		}
		p.cellIdx[i] = idx
		p.sortedIdx[i] = i
	}

	cellSort(p.cellIdx, p.sortedIdx)
	prefixSum(p.cellIdx, p.prefixSum)
	p.arena.permute(p.sortedIdx)
	p.sorted = true
}

// CellRange returns the range [start, end) of sorted particles within cell c.
func (p *Particles) CellRange(c int) (start, end int) {
	if c > 0 {
		start = p.prefixSum[c-1]
	}
	return start, p.prefixSum[c]
}

func checkGrids(grids []*fields.InterpolationGrid) error {
	if len(grids) == 0 {
		return fmt.Errorf("No interpolation grids given.")
	}
	for m, g := range grids {
		if g.M != m {
			return fmt.Errorf(
				"Interpolation grid %d belongs to mode %d.", m, g.M,
			)
		} else if err := g.SameShape(grids[0]); err != nil {
			return err
		}
	}
	return nil
}
