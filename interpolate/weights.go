package interpolate

import (
	"math"

	"github.com/Andrewlongman/fbpic/geom"
)

// Weights is a two-point linear stencil. A point contributes SLower to node
// Lower and SUpper to node Upper. SGuard is the weight carried by the
// mirrored node across the axis; it is applied to node 0 with a sign that
// depends on the parity of the interpolated component.
type Weights struct {
	Lower, Upper   int
	SLower, SUpper float64
	SGuard         float64
}

// PeriodicWeights computes the stencil of x on n periodic, cell-centred nodes
// located at x0 + (i + 0.5)*dx and writes it to w.
func PeriodicWeights(x, x0, dx float64, n int, w *Weights) {
	xCell := (x-x0)/dx - 0.5
	fl := math.Floor(xCell)
	lower := int(fl)

	w.SUpper = xCell - fl
	w.SLower = 1 - w.SUpper
	w.SGuard = 0

	lower = geom.PMod(lower, n)
	w.Lower = lower
	w.Upper = lower + 1
	if w.Upper == n {
		w.Upper = 0
	}
}

// AxisWeights computes the stencil of a radius r over the Searcher's nodes and
// writes it to w. Radii inside the first node are interpolated between that
// node and its mirror image at -Val(0). Radii beyond the last node are
// interpolated towards a virtual node one spacing further out, whose
// contribution is dropped; radii beyond the virtual node get no weight.
func (s *Searcher) AxisWeights(r float64, w *Weights) {
	w.SGuard = 0
	r0 := s.Val(0)

	i := s.Search(r)
	switch {
	case i < 0:
		w.Lower, w.Upper = 0, 0
		w.SLower = 0
		w.SUpper = (r + r0) / (2 * r0)
		w.SGuard = (r0 - r) / (2 * r0)

	case i < s.n-1:
		xl, xu := s.Val(i), s.Val(i+1)
		w.Lower, w.Upper = i, i+1
		w.SUpper = (r - xl) / (xu - xl)
		w.SLower = 1 - w.SUpper

	default:
		xl := s.Val(s.n - 1)
		var step float64
		if s.n > 1 {
			step = xl - s.Val(s.n-2)
		} else {
			step = 2 * r0
		}
		xu := xl + step

		w.Lower, w.Upper = s.n-1, s.n-1
		w.SUpper = 0
		if r >= xu {
			w.SLower = 0
		} else {
			w.SLower = (xu - r) / step
		}
	}
}
