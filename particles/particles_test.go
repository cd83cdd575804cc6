package particles

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andrewlongman/fbpic/constants"
	"github.com/Andrewlongman/fbpic/fields"
)

func testFields(t *testing.T, nm int) *fields.Fields {
	f, err := fields.New(fields.Params{
		Nz: 9, Zmin: 0, Zmax: 9e-6,
		Nr: 6, Rmax: 6e-6,
		Nm: nm, Dt: 1e-15,
	})
	require.NoError(t, err)
	return f
}

func randFill(gen *rand.Rand, arrs ...[]complex128) {
	for _, arr := range arrs {
		for i := range arr {
			arr[i] = complex(gen.Float64()-0.5, gen.Float64()-0.5)
		}
	}
}

func maxAbs(arr []complex128) float64 {
	max := 0.0
	for _, v := range arr {
		max = math.Max(max, cmplx.Abs(v))
	}
	return max
}

func TestArenaPermute(t *testing.T) {
	a := newArena(4)
	copy(a.get(ax), []float64{10, 11, 12, 13})
	copy(a.get(aw), []float64{0, 1, 2, 3})
	old := a.get(ax)

	a.permute([]int{3, 1, 0, 2})
	assert.Equal(t, []float64{13, 11, 10, 12}, a.get(ax))
	assert.Equal(t, []float64{3, 1, 0, 2}, a.get(aw))
	assert.Equal(t, int(attrCount), a.gen)

	// The old x array is still owned by some attribute or is the spare.
	found := &old[0] == &a.spare()[0]
	for at := ax; at < attrCount; at++ {
		found = found || &old[0] == &a.get(at)[0]
	}
	assert.True(t, found)
	assert.Panics(t, func() { a.permute([]int{0}) })
}

func TestFromArrays(t *testing.T) {
	p, err := FromArrays(constants.E, constants.Me,
		[]float64{1, 2}, []float64{0, 0}, []float64{0, 0},
		[]float64{3, 0}, []float64{4, 0}, []float64{0, 0},
		[]float64{1, 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, p.N)
	assert.Equal(t, "reference", p.Backend().Name())
	assert.InDelta(t, 1/math.Sqrt(26), p.InvGamma()[0], 1e-15)
	assert.Equal(t, 1.0, p.InvGamma()[1])

	_, err = FromArrays(1, 1, []float64{1, 2}, []float64{0}, nil, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestNewUniform(t *testing.T) {
	up := &UniformParams{
		Q: -constants.E, M: constants.Me, N: 1e24,
		Npz: 3, Npr: 2, Nptheta: 4,
		Zmin: 0, Zmax: 3e-6, Rmin: 0, Rmax: 2e-6,
		UzMean: 0.5, Seed: 42,
	}
	p, err := NewUniform(up, nil)
	require.NoError(t, err)
	require.Equal(t, 24, p.N)

	dz, dr, dtheta := 1e-6, 1e-6, math.Pi/2
	x, y, z, w := p.X(), p.Y(), p.Z(), p.W()
	for i := 0; i < p.N; i++ {
		r := math.Sqrt(x[i]*x[i] + y[i]*y[i])
		ir := (i / 4) % 2
		iz := i / 8
		assert.InDelta(t, dr*(float64(ir)+0.5), r, 1e-15)
		assert.InDelta(t, dz*(float64(iz)+0.5), z[i], 1e-15)
		assert.InDelta(t, up.Q*up.N*r*dtheta*dr*dz, w[i], 1e-12*math.Abs(w[i]))
		assert.Equal(t, 0.5, p.Uz()[i])
	}

	bad := *up
	bad.Rmin = -1
	_, err = NewUniform(&bad, nil)
	assert.Error(t, err)
}

func TestNewUniformDensFunc(t *testing.T) {
	up := &UniformParams{
		Q: constants.E, M: constants.Me, N: 1,
		Npz: 2, Npr: 1, Nptheta: 1,
		Zmin: 0, Zmax: 2, Rmin: 0, Rmax: 1,
		DensFunc: func(z, r float64) float64 {
			if z < 1 {
				return 0
			}
			return 1
		},
	}
	p, err := NewUniform(up, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.W()[0])
	assert.NotEqual(t, 0.0, p.W()[1])
}

func TestPushPElectric(t *testing.T) {
	p := New(constants.E, constants.Me, 1, nil)
	p.Ez[0] = 1e3
	dt := 1e-15
	p.PushP(dt)

	econst := constants.E * dt / (constants.Me * constants.C)
	assert.InDelta(t, econst*1e3, p.Uz()[0], 1e-15*econst*1e3)
	assert.Equal(t, 0.0, p.Ux()[0])
}

func TestPushPMagneticRotation(t *testing.T) {
	p, err := FromArrays(-constants.E, constants.Me,
		[]float64{0}, []float64{0}, []float64{0},
		[]float64{2}, []float64{0}, []float64{0.5}, []float64{1}, nil)
	require.NoError(t, err)
	p.Bx[0], p.By[0], p.Bz[0] = 10, -3, 50

	u0 := math.Sqrt(4 + 0.25)
	for i := 0; i < 200; i++ {
		p.PushP(1e-13)
		ux, uy, uz := p.Ux()[0], p.Uy()[0], p.Uz()[0]
		u := math.Sqrt(ux*ux + uy*uy + uz*uz)
		require.InDelta(t, u0, u, 1e-12*u0, "step %d", i)
	}
	assert.NotEqual(t, 2.0, p.Ux()[0])
}

func TestHalfStepLag(t *testing.T) {
	q, m, ez, dt := constants.E, constants.Me, 1.0, 1e-12
	a := q * ez * dt / (m * constants.C)

	// Momentum starts half a step behind position.
	p, err := FromArrays(q, m,
		[]float64{0}, []float64{0}, []float64{0},
		[]float64{0}, []float64{0}, []float64{-a / 2}, []float64{1}, nil)
	require.NoError(t, err)
	p.Ez[0] = ez

	steps := 100
	for i := 0; i < steps; i++ {
		p.PushP(dt)
		p.HalfPushX(dt)
		p.HalfPushX(dt)
	}

	time := float64(steps) * dt
	zExact := 0.5 * q * ez / m * time * time
	assert.InDelta(t, zExact, p.Z()[0], 1e-9*zExact)
	assert.InDelta(t, a*(float64(steps)-0.5), p.Uz()[0], 1e-9*a*float64(steps))
	assert.False(t, p.Sorted())
}

func TestSort(t *testing.T) {
	f := testFields(t, 1)
	g := f.Interp()[0]
	gen := rand.New(rand.NewSource(9))

	n := 200
	x, y, z := make([]float64, n), make([]float64, n), make([]float64, n)
	zero := make([]float64, n)
	w := make([]float64, n)
	for i := range x {
		r, th := 7e-6*gen.Float64(), 2*math.Pi*gen.Float64()
		x[i], y[i] = r*math.Cos(th), r*math.Sin(th)
		z[i] = -2e-6 + 13e-6*gen.Float64()
		w[i] = float64(i)
	}
	p, err := FromArrays(1, 1, x, y, z, zero, zero, zero, w, nil)
	require.NoError(t, err)

	p.Sort(g)
	require.True(t, p.Sorted())
	assert.Equal(t, int(attrCount), p.Generation())

	cells := p.CellIdx()
	for i := 1; i < n; i++ {
		assert.LessOrEqual(t, cells[i-1], cells[i])
		if cells[i-1] == cells[i] {
			assert.Less(t, p.SortedIdx()[i-1], p.SortedIdx()[i])
		}
	}
	ps := p.PrefixSum()
	require.Len(t, ps, g.Area)
	assert.Equal(t, n, ps[len(ps)-1])
	for c := range ps {
		start, end := p.CellRange(c)
		for i := start; i < end; i++ {
			assert.Equal(t, c, cells[i])
		}
	}

	// Un-permutation recovers the original arrays.
	for i, j := range p.SortedIdx() {
		assert.Equal(t, x[j], p.X()[i])
		assert.Equal(t, z[j], p.Z()[i])
		assert.Equal(t, w[j], p.W()[i])
	}

	// Sorting sorted particles does nothing.
	sortedX := append([]float64(nil), p.X()...)
	p.Sort(g)
	assert.Equal(t, sortedX, p.X())
	for i, j := range p.SortedIdx() {
		assert.Equal(t, i, j)
	}
}

func TestDepositAtNode(t *testing.T) {
	f := testFields(t, 1)
	g := f.Interp()[0]
	iz, ir := 4, 2

	p, err := FromArrays(1, 1,
		[]float64{g.R[ir]}, []float64{0}, []float64{g.Z[iz]},
		[]float64{0}, []float64{0}, []float64{0}, []float64{2}, nil)
	require.NoError(t, err)
	require.NoError(t, p.Deposit(f.Interp(), fields.Rho))

	node := g.Idx(iz, ir)
	for i, v := range g.Rho {
		if i == node {
			assert.InDelta(t, 2*g.InvVol[ir], real(v), 1e-9*g.InvVol[ir])
		} else {
			assert.InDelta(t, 0, cmplx.Abs(v), 1e-9*g.InvVol[ir], "index %d", i)
		}
	}

	// Gathering at the node returns the node value.
	g.Ez[node] = 3
	require.NoError(t, p.Gather(f.Interp()))
	assert.InDelta(t, 3, p.Ez[0], 1e-9)
}

func TestGatherDepositAdjoint(t *testing.T) {
	f := testFields(t, 3)
	grids := f.Interp()
	gen := rand.New(rand.NewSource(4))

	positions := [][3]float64{
		{0.1e-6, 0.05e-6, 4.2e-6}, // Inside the first radial node.
		{-1.7e-6, 2.2e-6, 0.1e-6}, // Wraps around in z.
		{3e-6, -0.3e-6, 8.95e-6},
		{5.9e-6, 0, 2e-6}, // Beyond the last radial node.
		{0, 0, 5e-6},      // On the axis.
	}

	for k, pos := range positions {
		for _, g := range grids {
			randFill(gen, g.Ez)
			require.NoError(t, g.Erase(fields.Rho))
		}

		p, err := FromArrays(1, 1,
			[]float64{pos[0]}, []float64{pos[1]}, []float64{pos[2]},
			[]float64{0}, []float64{0}, []float64{0}, []float64{1}, nil)
		require.NoError(t, err)
		require.NoError(t, p.Gather(grids))
		require.NoError(t, p.Deposit(grids, fields.Rho))

		sum := 0.0
		for _, g := range grids {
			var acc complex128
			for i := range g.Rho {
				s := g.Rho[i] / complex(g.InvVol[i%g.Nr], 0)
				acc += cmplx.Conj(s) * g.Ez[i]
			}
			sum += modeFactor(g.M) * real(acc)
		}
		assert.InDelta(t, sum, p.Ez[0], 1e-10, "position %d", k)
	}
}

func TestGatherCartesian(t *testing.T) {
	f := testFields(t, 2)
	grids := f.Interp()

	// A uniform radial mode-1 field Er = cos(theta) points along x.
	for i := range grids[1].Er {
		grids[1].Er[i] = 0.5
		grids[1].Et[i] = -0.5i
	}

	for _, th := range []float64{0, 0.7, 2, -2.5} {
		r := 2.5e-6
		p, err := FromArrays(1, 1,
			[]float64{r * math.Cos(th)}, []float64{r * math.Sin(th)}, []float64{3e-6},
			[]float64{0}, []float64{0}, []float64{0}, []float64{1}, nil)
		require.NoError(t, err)
		require.NoError(t, p.Gather(grids))

		// Er = cos(theta) and Et = -sin(theta) give Ex = 1 and Ey = 0.
		assert.InDelta(t, 1, p.Ex[0], 1e-12, "theta %g", th)
		assert.InDelta(t, 0, p.Ey[0], 1e-12, "theta %g", th)
	}
}

func TestDepositErrors(t *testing.T) {
	f := testFields(t, 2)
	p := New(1, 1, 3, nil)

	assert.Error(t, p.Deposit(f.Interp(), fields.E))
	assert.Error(t, p.Deposit(f.Interp(), fields.B))
	assert.Error(t, p.Deposit(nil, fields.Rho))
	assert.Error(t, p.Gather(nil))

	swapped := []*fields.InterpolationGrid{f.Interp()[1], f.Interp()[0]}
	assert.Error(t, p.Deposit(swapped, fields.Rho))
}

func TestBackendSelection(t *testing.T) {
	caps := Capabilities{Workers: 4, MaxScratchBytes: 1 << 20}
	_, err := NewParallel(caps, 100, 100, 3)
	assert.Error(t, err)
	assert.Equal(t, "reference", SelectBackend(caps, 100, 100, 3).Name())

	caps.MaxScratchBytes = DefaultMaxScratchBytes
	assert.Equal(t, "parallel(4)", SelectBackend(caps, 100, 100, 3).Name())
	assert.Equal(t, "reference", SelectBackend(Capabilities{Workers: 1}, 9, 6, 2).Name())

	_, err = NewParallel(Capabilities{Workers: 0, MaxScratchBytes: 1 << 30}, 9, 6, 2)
	assert.Error(t, err)
	assert.True(t, DetectCapabilities().Workers >= 1)
}

func TestParallelMatchesReference(t *testing.T) {
	f := testFields(t, 3)
	grids := f.Interp()
	gen := rand.New(rand.NewSource(11))
	for _, g := range grids {
		randFill(gen, g.Er, g.Et, g.Ez, g.Br, g.Bt, g.Bz)
	}

	up := &UniformParams{
		Q: -constants.E, M: constants.Me, N: 1e24,
		Npz: 12, Npr: 7, Nptheta: 4,
		Zmin: -1e-6, Zmax: 10e-6, Rmin: 0, Rmax: 6.5e-6,
		UxTh: 0.1, UyTh: 0.1, UzTh: 0.3, UzMean: 1, Seed: 3,
	}
	par, err := NewParallel(Capabilities{Workers: 3, MaxScratchBytes: 1 << 30}, 9, 6, 3)
	require.NoError(t, err)

	ref, err := NewUniform(up, Reference{})
	require.NoError(t, err)
	pp, err := NewUniform(up, par)
	require.NoError(t, err)

	require.NoError(t, ref.Gather(grids))
	require.NoError(t, pp.Gather(grids))
	assert.InDeltaSlice(t, ref.Ex, pp.Ex, 1e-12)
	assert.InDeltaSlice(t, ref.By, pp.By, 1e-12)
	assert.InDeltaSlice(t, ref.Ez, pp.Ez, 1e-12)

	ref.PushP(1e-15)
	pp.PushP(1e-15)
	ref.HalfPushX(1e-15)
	pp.HalfPushX(1e-15)
	assert.InDeltaSlice(t, ref.Uz(), pp.Uz(), 1e-12)
	assert.InDeltaSlice(t, ref.Z(), pp.Z(), 1e-18)

	for _, ft := range []fields.FieldType{fields.J, fields.Rho} {
		want := make([][][]complex128, len(grids))
		for _, g := range grids {
			require.NoError(t, g.Erase(ft))
		}
		require.NoError(t, ref.Deposit(grids, ft))
		for m, g := range grids {
			arrs, _ := g.Fields(ft)
			for _, arr := range arrs {
				want[m] = append(want[m], append([]complex128(nil), arr...))
			}
			require.NoError(t, g.Erase(ft))
		}

		require.NoError(t, pp.Deposit(grids, ft))
		assert.True(t, pp.Sorted())

		for m, g := range grids {
			arrs, _ := g.Fields(ft)
			for c, arr := range arrs {
				tol := 1e-10 * maxAbs(want[m][c])
				for i := range arr {
					assert.InDelta(t, 0, cmplx.Abs(arr[i]-want[m][c][i]), tol,
						"%s, mode %d, component %d, index %d", ft, m, c, i)
				}
			}
		}
	}
}
