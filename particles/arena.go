package particles

// attr names one of the per-particle arrays held by an arena.
type attr int

const (
	ax attr = iota
	ay
	az
	aux
	auy
	auz
	ainvg
	aw
	attrCount
)

// arena holds the per-particle attribute arrays plus one spare array of the
// same length. Rearranging an attribute writes into the spare array and then
// hands ownership of it to the attribute, so that no array is allocated after
// construction. gen counts ownership transfers.
type arena struct {
	n     int
	slots [attrCount + 1][]float64
	owner [attrCount]int
	free  int
	gen   int
}

func newArena(n int) *arena {
	a := &arena{n: n}
	for i := range a.slots {
		a.slots[i] = make([]float64, n)
	}
	for i := range a.owner {
		a.owner[i] = i
	}
	a.free = int(attrCount)
	return a
}

// get returns the array currently owned by at.
func (a *arena) get(at attr) []float64 { return a.slots[a.owner[at]] }

// spare returns the array which is not owned by any attribute. Its contents
// are undefined.
func (a *arena) spare() []float64 { return a.slots[a.free] }

// swap gives the spare array to at and makes at's old array the spare.
func (a *arena) swap(at attr) {
	a.owner[at], a.free = a.free, a.owner[at]
	a.gen++
}

// permute rearranges every attribute so that its new i-th element is its old
// idx[i]-th element.
func (a *arena) permute(idx []int) {
	if len(idx) != a.n {
		panic("Length of permutation does not match arena size.")
	}
	for at := ax; at < attrCount; at++ {
		src, dst := a.get(at), a.spare()
		for i, j := range idx {
			dst[i] = src[j]
		}
		a.swap(at)
	}
}
