package particles

import (
	"math"

	"github.com/Andrewlongman/fbpic/constants"
	"github.com/Andrewlongman/fbpic/fields"
	"github.com/Andrewlongman/fbpic/interpolate"
)

// The kernels below act on the particle range [lo, hi) and are shared by
// every backend.

// pushPRange advances momenta with the Vay pusher.
func pushPRange(p *Particles, dt float64, lo, hi int) {
	econst := p.Q * dt / (p.M * constants.C)
	bconst := 0.5 * p.Q * dt / p.M
	ux, uy, uz, invg := p.Ux(), p.Uy(), p.Uz(), p.InvGamma()

	for i := lo; i < hi; i++ {
		tx, ty, tz := bconst*p.Bx[i], bconst*p.By[i], bconst*p.Bz[i]

		// Full electric kick and half magnetic rotation with the old gamma.
		upx := ux[i] + econst*p.Ex[i] + invg[i]*(uy[i]*tz-uz[i]*ty)
		upy := uy[i] + econst*p.Ey[i] + invg[i]*(uz[i]*tx-ux[i]*tz)
		upz := uz[i] + econst*p.Ez[i] + invg[i]*(ux[i]*ty-uy[i]*tx)

		tau2 := tx*tx + ty*ty + tz*tz
		utau := upx*tx + upy*ty + upz*tz
		sigma := 1 + upx*upx + upy*upy + upz*upz - tau2
		ig := 1 / math.Sqrt(0.5*(sigma+math.Sqrt(sigma*sigma+4*(tau2+utau*utau))))

		tx, ty, tz = ig*tx, ig*ty, ig*tz
		s := 1 / (1 + tx*tx + ty*ty + tz*tz)
		ut := upx*tx + upy*ty + upz*tz

		ux[i] = s * (upx + ut*tx + upy*tz - upz*ty)
		uy[i] = s * (upy + ut*ty + upz*tx - upx*tz)
		uz[i] = s * (upz + ut*tz + upx*ty - upy*tx)
		invg[i] = 1 / math.Sqrt(1+ux[i]*ux[i]+uy[i]*uy[i]+uz[i]*uz[i])
	}
}

// pushXRange advances positions by half a timestep.
func pushXRange(p *Particles, dt float64, lo, hi int) {
	cdt := 0.5 * dt * constants.C
	x, y, z := p.X(), p.Y(), p.Z()
	ux, uy, uz, invg := p.Ux(), p.Uy(), p.Uz(), p.InvGamma()

	for i := lo; i < hi; i++ {
		x[i] += cdt * invg[i] * ux[i]
		y[i] += cdt * invg[i] * uy[i]
		z[i] += cdt * invg[i] * uz[i]
	}
}

// gatherRange interpolates the fields of every mode onto the particles and
// converts them to Cartesian components.
func gatherRange(p *Particles, grids []*fields.InterpolationGrid, lo, hi int) {
	g0 := grids[0]
	x, y, z := p.X(), p.Y(), p.Z()
	wz, wr := &interpolate.Weights{}, &interpolate.Weights{}

	for i := lo; i < hi; i++ {
		r, cos, sin := polar(x[i], y[i])
		interpolate.PeriodicWeights(z[i], g0.Zmin, g0.Dz, g0.Nz, wz)

		var er, et, ez, br, bt, bz float64
		for _, g := range grids {
			g.Searcher().AxisWeights(r, wr)
			ph := modePhase(cos, -sin, g.M)
			fac := modeFactor(g.M)
			zSign := parity(g.M)
			tSign := -zSign

			er += fac * real(ph*gatherStencil(g.Er, g.Nr, wz, wr, tSign))
			et += fac * real(ph*gatherStencil(g.Et, g.Nr, wz, wr, tSign))
			ez += fac * real(ph*gatherStencil(g.Ez, g.Nr, wz, wr, zSign))
			br += fac * real(ph*gatherStencil(g.Br, g.Nr, wz, wr, tSign))
			bt += fac * real(ph*gatherStencil(g.Bt, g.Nr, wz, wr, tSign))
			bz += fac * real(ph*gatherStencil(g.Bz, g.Nr, wz, wr, zSign))
		}

		p.Ex[i], p.Ey[i], p.Ez[i] = er*cos-et*sin, er*sin+et*cos, ez
		p.Bx[i], p.By[i], p.Bz[i] = br*cos-bt*sin, br*sin+bt*cos, bz
	}
}

// depositRange adds the charge or current of the particles to targets, which
// holds for every mode the arrays of ft in the layout of the corresponding
// grid.
func depositRange(
	p *Particles, grids []*fields.InterpolationGrid,
	targets [][][]complex128, ft fields.FieldType, lo, hi int,
) {
	g0 := grids[0]
	x, y, z, w := p.X(), p.Y(), p.Z(), p.W()
	ux, uy, uz, invg := p.Ux(), p.Uy(), p.Uz(), p.InvGamma()
	wz, wr := &interpolate.Weights{}, &interpolate.Weights{}

	for i := lo; i < hi; i++ {
		r, cos, sin := polar(x[i], y[i])
		interpolate.PeriodicWeights(z[i], g0.Zmin, g0.Dz, g0.Nz, wz)

		var jr, jt, jz float64
		if ft == fields.J {
			vc := w[i] * constants.C * invg[i]
			jr = vc * (cos*ux[i] + sin*uy[i])
			jt = vc * (cos*uy[i] - sin*ux[i])
			jz = vc * uz[i]
		}

		for m, g := range grids {
			g.Searcher().AxisWeights(r, wr)
			ph := modePhase(cos, sin, g.M)
			zSign := parity(g.M)
			arrs := targets[m]

			if ft == fields.Rho {
				val := ph * complex(w[i], 0)
				depositStencil(arrs[0], g.InvVol, g.Nr, wz, wr, zSign, val)
			} else {
				depositStencil(arrs[0], g.InvVol, g.Nr, wz, wr, -zSign, ph*complex(jr, 0))
				depositStencil(arrs[1], g.InvVol, g.Nr, wz, wr, -zSign, ph*complex(jt, 0))
				depositStencil(arrs[2], g.InvVol, g.Nr, wz, wr, zSign, ph*complex(jz, 0))
			}
		}
	}
}

// polar returns the radius and the angle cosine and sine of (x, y). On the
// axis the angle is taken to be zero.
func polar(x, y float64) (r, cos, sin float64) {
	r = math.Sqrt(x*x + y*y)
	if r == 0 {
		return 0, 1, 0
	}
	return r, x / r, y / r
}

// modePhase returns (cos + i sin)^m.
func modePhase(cos, sin float64, m int) complex128 {
	e, ph := complex(cos, sin), complex(1, 0)
	for k := 0; k < m; k++ {
		ph *= e
	}
	return ph
}

// modeFactor is the weight of mode m when modes are summed into a real field.
func modeFactor(m int) float64 {
	if m == 0 {
		return 1
	}
	return 2
}

// parity returns (-1)^m.
func parity(m int) float64 {
	if m%2 == 0 {
		return 1
	}
	return -1
}

func gatherStencil(
	arr []complex128, nr int, wz, wr *interpolate.Weights, guardSign float64,
) complex128 {
	lower := rowStencil(arr[wz.Lower*nr:(wz.Lower+1)*nr], wr, guardSign)
	upper := rowStencil(arr[wz.Upper*nr:(wz.Upper+1)*nr], wr, guardSign)
	return complex(wz.SLower, 0)*lower + complex(wz.SUpper, 0)*upper
}

func rowStencil(row []complex128, wr *interpolate.Weights, guardSign float64) complex128 {
	return complex(wr.SLower, 0)*row[wr.Lower] +
		complex(wr.SUpper, 0)*row[wr.Upper] +
		complex(guardSign*wr.SGuard, 0)*row[0]
}

func depositStencil(
	arr []complex128, invVol []float64, nr int,
	wz, wr *interpolate.Weights, guardSign float64, val complex128,
) {
	depositRow(arr[wz.Lower*nr:(wz.Lower+1)*nr], invVol, wr, guardSign,
		val*complex(wz.SLower, 0))
	depositRow(arr[wz.Upper*nr:(wz.Upper+1)*nr], invVol, wr, guardSign,
		val*complex(wz.SUpper, 0))
}

func depositRow(
	row []complex128, invVol []float64,
	wr *interpolate.Weights, guardSign float64, val complex128,
) {
	row[wr.Lower] += val * complex(wr.SLower*invVol[wr.Lower], 0)
	row[wr.Upper] += val * complex(wr.SUpper*invVol[wr.Upper], 0)
	row[0] += val * complex(guardSign*wr.SGuard*invVol[0], 0)
}
