/*package interpolate computes the first-order (linear) stencils used to move
quantities between particles and the (z, r) interpolation grids.
*/
package interpolate

import (
	"fmt"
)

// Searcher locates the cell containing a point in a strictly increasing
// sequence of nodes.
type Searcher struct {
	xs          []float64
	x0, dx, lim float64
	n           int
	unif        bool
}

// NewSearcher creates a Searcher over the strictly increasing nodes xs.
//
// Lookups will occur in O(log |xs|), and in O(1) if the nodes are close to
// uniformly spaced.
func NewSearcher(xs []float64) *Searcher {
	s := &Searcher{}
	s.init(xs)
	return s
}

// NewUniformSearcher creates a Searcher over n uniformly spaced nodes starting
// at x0 and separated by dx.
func NewUniformSearcher(x0, dx float64, n int) *Searcher {
	s := &Searcher{}
	s.unifInit(x0, dx, n)
	return s
}

func (s *Searcher) init(xs []float64) {
	if len(xs) == 0 {
		panic("Searcher given an empty node sequence.")
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			panic(fmt.Sprintf(
				"Searcher nodes must be strictly increasing, but "+
					"xs[%d] = %g and xs[%d] = %g.", i-1, xs[i-1], i, xs[i],
			))
		}
	}

	s.xs = xs
	s.x0 = xs[0]
	s.lim = xs[len(xs)-1]
	s.n = len(xs)
	if s.n > 1 {
		s.dx = (s.lim - s.x0) / float64(s.n-1)
	}
	s.unif = false
}

func (s *Searcher) unifInit(x0, dx float64, n int) {
	if n <= 0 {
		panic("Searcher given a non-positive node count.")
	}
	s.xs = nil
	s.x0 = x0
	s.lim = float64(n-1)*dx + x0
	s.dx = dx
	s.n = n
	s.unif = true
}

// Len returns the number of nodes.
func (s *Searcher) Len() int { return s.n }

// Search returns the index i such that Val(i) <= x < Val(i+1). Points below
// the first node return -1 and points at or above the last node return
// Len() - 1.
func (s *Searcher) Search(x float64) int {
	if x < s.x0 {
		return -1
	} else if x >= s.lim {
		return s.n - 1
	}

	// Guess under the assumption of uniform spacing.
	guess := int((x - s.x0) / s.dx)
	if guess >= s.n-1 {
		guess = s.n - 2
	}
	if s.unif {
		if s.Val(guess) > x {
			guess--
		} else if s.Val(guess+1) <= x {
			guess++
		}
		return guess
	}
	if s.xs[guess] <= x && x < s.xs[guess+1] {
		return guess
	}

	// Binary search.
	lo, hi := 0, s.n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if x >= s.xs[mid] {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// Val returns the position of node i.
func (s *Searcher) Val(i int) float64 {
	if s.unif {
		return float64(i)*s.dx + s.x0
	}
	return s.xs[i]
}
