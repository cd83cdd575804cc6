package particles

import (
	"sort"
)

type cells struct {
	cellIdx, sortedIdx []int
}

func (cs *cells) Len() int           { return len(cs.cellIdx) }
func (cs *cells) Less(i, j int) bool { return cs.cellIdx[i] < cs.cellIdx[j] }
func (cs *cells) Swap(i, j int) {
	cs.cellIdx[i], cs.cellIdx[j] = cs.cellIdx[j], cs.cellIdx[i]
	cs.sortedIdx[i], cs.sortedIdx[j] = cs.sortedIdx[j], cs.sortedIdx[i]
}

// cellSort sorts cellIdx in increasing order and applies the same
// permutation to sortedIdx. Equal cells keep their order.
func cellSort(cellIdx, sortedIdx []int) {
	sort.Stable(&cells{cellIdx, sortedIdx})
}

// prefixSum writes the inclusive prefix sum of the number of entries of the
// sorted array cellIdx in each cell to out.
func prefixSum(cellIdx, out []int) {
	for i := range out {
		out[i] = 0
	}
	for _, c := range cellIdx {
		out[c]++
	}
	for i := 1; i < len(out); i++ {
		out[i] += out[i-1]
	}
}
