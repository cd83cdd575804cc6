package fields

import (
	"fmt"
	"math"

	"github.com/Andrewlongman/fbpic/geom"
	"github.com/Andrewlongman/fbpic/interpolate"
)

// InterpolationGrid contains the real-space fields of a single azimuthal mode.
// Vector fields are stored as cylindrical modal components (r, theta, z).
// Arrays are z-major: the value at (iz, ir) is stored at iz*Nr + ir.
type InterpolationGrid struct {
	geom.Grid
	M int

	// Z holds uniformly spaced, cell-centred positions; R holds the
	// mode-dependent radial nodes of the Hankel transform.
	Z, R     []float64
	Zmin, Dz float64
	// InvVol is the inverse volume of the annular cell around each radial
	// node.
	InvVol []float64

	Er, Et, Ez []complex128
	Br, Bt, Bz []complex128
	Jr, Jt, Jz []complex128
	Rho        []complex128

	rs *interpolate.Searcher
}

// NewInterpolationGrid allocates the grid of mode m with nz cells of width dz
// starting at zmin and the radial nodes r.
func NewInterpolationGrid(nz int, zmin, dz float64, r []float64, m int) *InterpolationGrid {
	nr := len(r)
	g := &InterpolationGrid{M: m, Zmin: zmin, Dz: dz}
	g.Grid.Init(nz, nr)

	g.Z = make([]float64, nz)
	for i := range g.Z {
		g.Z[i] = zmin + (float64(i)+0.5)*dz
	}
	g.R = append([]float64(nil), r...)
	g.rs = interpolate.NewSearcher(g.R)
	g.InvVol = cellInvVolumes(g.R, dz)

	n := g.Area
	g.Er, g.Et, g.Ez = make([]complex128, n), make([]complex128, n), make([]complex128, n)
	g.Br, g.Bt, g.Bz = make([]complex128, n), make([]complex128, n), make([]complex128, n)
	g.Jr, g.Jt, g.Jz = make([]complex128, n), make([]complex128, n), make([]complex128, n)
	g.Rho = make([]complex128, n)

	return g
}

// cellInvVolumes returns the inverse volumes of the annuli around each radial
// node. Cell edges lie halfway between nodes, the first cell starts on the
// axis and the last one is as wide on the outside as on the inside.
func cellInvVolumes(r []float64, dz float64) []float64 {
	n := len(r)
	edges := make([]float64, n+1)
	for i := 1; i < n; i++ {
		edges[i] = 0.5 * (r[i-1] + r[i])
	}
	if n > 1 {
		edges[n] = r[n-1] + (r[n-1] - edges[n-1])
	} else {
		edges[n] = 2 * r[0]
	}

	invVol := make([]float64, n)
	for i := range invVol {
		vol := math.Pi * (edges[i+1]*edges[i+1] - edges[i]*edges[i]) * dz
		invVol[i] = 1 / vol
	}
	return invVol
}

// Searcher returns the radial stencil searcher of the grid.
func (g *InterpolationGrid) Searcher() *interpolate.Searcher { return g.rs }

// Fields returns the arrays belonging to ft, ordered (r, theta, z) for vector
// fields.
func (g *InterpolationGrid) Fields(ft FieldType) ([][]complex128, error) {
	switch ft {
	case E:
		return [][]complex128{g.Er, g.Et, g.Ez}, nil
	case B:
		return [][]complex128{g.Br, g.Bt, g.Bz}, nil
	case J:
		return [][]complex128{g.Jr, g.Jt, g.Jz}, nil
	case Rho:
		return [][]complex128{g.Rho}, nil
	}
	return nil, ft.Check()
}

// Erase sets every array belonging to ft to zero.
func (g *InterpolationGrid) Erase(ft FieldType) error {
	arrs, err := g.Fields(ft)
	if err != nil {
		return err
	}
	for _, arr := range arrs {
		for i := range arr {
			arr[i] = 0
		}
	}
	return nil
}

// SameShape returns an error if g and other differ in their grid layout.
func (g *InterpolationGrid) SameShape(other *InterpolationGrid) error {
	if g.Nz != other.Nz || g.Nr != other.Nr {
		return fmt.Errorf(
			"Grid of mode %d has shape (%d, %d), but grid of mode %d has "+
				"shape (%d, %d).", g.M, g.Nz, g.Nr, other.M, other.Nz, other.Nr,
		)
	}
	return nil
}
