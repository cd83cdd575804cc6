package fbpic

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andrewlongman/fbpic/constants"
	"github.com/Andrewlongman/fbpic/fields"
	"github.com/Andrewlongman/fbpic/particles"
)

func newFields(t *testing.T) *fields.Fields {
	fld, err := fields.New(fields.Params{
		Nz: 15, Zmin: -7.5e-6, Zmax: 7.5e-6,
		Nr: 10, Rmax: 10e-6,
		Nm: 2, Dt: 1e-15,
	})
	require.NoError(t, err)
	return fld
}

func single(t *testing.T, x, y, z, uz, w float64) *particles.Particles {
	p, err := particles.FromArrays(-constants.E, constants.Me,
		[]float64{x}, []float64{y}, []float64{z},
		[]float64{0}, []float64{0}, []float64{uz}, []float64{w}, nil)
	require.NoError(t, err)
	return p
}

func copyArrs(arrs ...[]complex128) [][]complex128 {
	out := make([][]complex128, len(arrs))
	for i, arr := range arrs {
		out[i] = append([]complex128(nil), arr...)
	}
	return out
}

func allFinite(arrs ...[]complex128) bool {
	for _, arr := range arrs {
		for _, v := range arr {
			if cmplx.IsNaN(v) || cmplx.IsInf(v) {
				return false
			}
		}
	}
	return true
}

func TestStationaryParticle(t *testing.T) {
	fld := newFields(t)
	p := single(t, 2.3e-6, 1.1e-6, 0.4e-6, 0, -constants.E*1e6)

	sim, err := NewSimulation(fld, []*particles.Particles{p}, false)
	require.NoError(t, err)

	rho0 := make([][]complex128, fld.Nm)
	for m, g := range fld.Interp() {
		rho0[m] = copyArrs(g.Rho)[0]
	}

	require.NoError(t, sim.Step())

	// The fields start at zero, so the first gather gives nothing and the
	// particle does not move.
	assert.Equal(t, 0.0, p.Ex[0])
	assert.Equal(t, 0.0, p.Ez[0])
	assert.Equal(t, 0.0, p.Bz[0])
	assert.Equal(t, 2.3e-6, p.X()[0])
	assert.Equal(t, 0.4e-6, p.Z()[0])

	for m, g := range fld.Interp() {
		for i := range g.Rho {
			assert.Equal(t, complex128(0), g.Jr[i])
			assert.Equal(t, complex128(0), g.Jz[i])
			assert.Equal(t, rho0[m][i], g.Rho[i], "mode %d, index %d", m, i)
		}
		assert.True(t, allFinite(g.Er, g.Et, g.Ez, g.Br, g.Bt, g.Bz))
	}

	d := sim.Diagnostics()
	assert.Equal(t, 1, d.Step)
	assert.InDelta(t, d.ParticleCharge, d.GridCharge, 1e-9*math.Abs(d.ParticleCharge))
	assert.Equal(t, 0.0, d.KineticEnergy)

	// The charge builds up its own electric field.
	assert.Greater(t, d.MaxE, 0.0)
}

func TestZeroWeightParticle(t *testing.T) {
	fld := newFields(t)
	p := single(t, 1e-6, -2e-6, 3e-6, 0.9, 0)

	sim, err := NewSimulation(fld, []*particles.Particles{p}, false)
	require.NoError(t, err)
	require.NoError(t, sim.Run(3, 1))
	assert.Equal(t, 3, sim.StepCount())

	for _, g := range fld.Interp() {
		for _, arr := range [][]complex128{
			g.Er, g.Et, g.Ez, g.Br, g.Bt, g.Bz, g.Jr, g.Jt, g.Jz, g.Rho,
		} {
			for i := range arr {
				assert.Equal(t, complex128(0), arr[i])
			}
		}
	}

	// The particle still moves at its own velocity.
	v := constants.C * 0.9 / math.Sqrt(1+0.81)
	assert.InDelta(t, 3e-6+3*fld.Dt*v, p.Z()[0], 1e-15)
}

func TestMovingBeam(t *testing.T) {
	fld := newFields(t)
	up := &particles.UniformParams{
		Q: -constants.E, M: constants.Me, N: 1e24,
		Npz: 15, Npr: 5, Nptheta: 4,
		Zmin: -7.5e-6, Zmax: 7.5e-6, Rmin: 0, Rmax: 5e-6,
		UzMean: 2, UxTh: 0.01, UyTh: 0.01, Seed: 1,
	}
	caps := particles.Capabilities{Workers: 3, MaxScratchBytes: 1 << 30}
	backend := particles.SelectBackend(caps, fld.Nz, fld.Nr, fld.Nm)
	require.Equal(t, "parallel(3)", backend.Name())

	p, err := particles.NewUniform(up, backend)
	require.NoError(t, err)
	sim, err := NewSimulation(fld, []*particles.Particles{p}, false)
	require.NoError(t, err)

	start := sim.Diagnostics()
	require.NoError(t, sim.Run(5, 5))

	d := sim.Diagnostics()
	assert.Equal(t, 5, d.Step)
	assert.InDelta(t, 5*fld.Dt, d.Time, 1e-25)
	assert.InDelta(t, start.ParticleCharge, d.ParticleCharge,
		1e-12*math.Abs(start.ParticleCharge))
	assert.Greater(t, d.KineticEnergy, 0.0)
	for _, g := range fld.Interp() {
		assert.True(t, allFinite(g.Er, g.Et, g.Ez, g.Br, g.Bt, g.Bz))
		assert.True(t, allFinite(g.Jr, g.Jt, g.Jz, g.Rho))
	}
}

func TestRunErrors(t *testing.T) {
	sim, err := NewSimulation(newFields(t), nil, false)
	require.NoError(t, err)
	assert.Error(t, sim.Run(-1, 1))
	assert.Error(t, sim.Run(1, 0))
	assert.NoError(t, sim.Run(2, 1))
}
