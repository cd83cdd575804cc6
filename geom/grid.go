/*package geom provides helpers for reasoning about the flat (z, r) cell layout
shared by the interpolation grids and the particle sort.
*/
package geom

// Grid provides an interface for reasoning over a 1D slice as if it were a
// 2D (z, r) grid. Cells are stored z-major: idx = iz * Nr + ir.
type Grid struct {
	Nz, Nr int
	Area   int
}

// NewGrid returns a new Grid instance.
func NewGrid(nz, nr int) *Grid {
	g := &Grid{}
	g.Init(nz, nr)
	return g
}

// Init initializes a Grid instance.
func (g *Grid) Init(nz, nr int) {
	if nz <= 0 {
		panic("nz must be positive.")
	} else if nr <= 0 {
		panic("nr must be positive.")
	}
	g.Nz, g.Nr = nz, nr
	g.Area = nz * nr
}

// Idx returns the grid index corresponding to a pair of cell coordinates.
func (g *Grid) Idx(iz, ir int) int { return iz*g.Nr + ir }

// IdxCheck returns an index and true if the given coordinates are valid and
// false otherwise.
func (g *Grid) IdxCheck(iz, ir int) (idx int, ok bool) {
	if !g.BoundsCheck(iz, ir) {
		return -1, false
	}
	return g.Idx(iz, ir), true
}

// BoundsCheck returns true if the given coordinates are within the Grid and
// false otherwise.
func (g *Grid) BoundsCheck(iz, ir int) bool {
	return iz >= 0 && ir >= 0 && iz < g.Nz && ir < g.Nr
}

// Coords returns the z, r coordinates of a cell from its grid index.
func (g *Grid) Coords(idx int) (iz, ir int) {
	return idx / g.Nr, idx % g.Nr
}

// PMod computes the positive modulo x % y.
func PMod(x, y int) int {
	m := x % y
	if m < 0 {
		m += y
	}
	return m
}
