// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osqp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// polish refine the converged iterate with an exact KKT solve on the
// active constraint rows.
//
// The lower-active rows are guessed from 𝐲ᵢ < 0 and the upper-active
// rows from 𝐲ᵢ > 0; equality rows (𝒍ᵢ = 𝒖ᵢ) are always active.
// Treating the guessed rows as equalities gives the linear system
//
//	⎡ 𝐏    𝐆ᵀ ⎤⎡ 𝐱 ⎤ = ⎡ -𝐪 ⎤
//	⎣ 𝐆    𝟎  ⎦⎣ 𝛎 ⎦   ⎣  𝐛 ⎦
//
// where 𝐆 stacks the active rows of 𝐀 and 𝐛 the matching bound values.
// The refined point is adopted only when it does not loosen the residuals,
// so a wrong active-set guess or a singular system leaves the iterate alone.
func (as *admmSolver) polish() bool {

	o, w := as.optimizer, as.workspace
	n, m := o.n, o.m

	var active []int
	var bnd []float64
	for k := 0; k < m; k++ {
		switch {
		case o.L[k] == o.U[k]:
			active = append(active, k)
			bnd = append(bnd, o.L[k])
		case w.y[k] < zero:
			active = append(active, k)
			bnd = append(bnd, o.L[k])
		case w.y[k] > zero:
			active = append(active, k)
			bnd = append(bnd, o.U[k])
		}
	}

	ma := len(active)
	if ma == 0 || ma > n {
		return false
	}

	pd := o.P.ToDense()
	ad := o.A.ToDense()

	kkt := mat.NewDense(n+ma, n+ma, nil)
	rhs := mat.NewVecDense(n+ma, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := pd.At(i, j)
			kkt.Set(i, j, v)
			kkt.Set(j, i, v)
		}
		rhs.SetVec(i, -o.Q[i])
	}
	for a, row := range active {
		for j := 0; j < n; j++ {
			v := ad.At(row, j)
			kkt.Set(n+a, j, v)
			kkt.Set(j, n+a, v)
		}
		rhs.SetVec(n+a, bnd[a])
	}

	var sol mat.VecDense
	if err := sol.SolveVec(kkt, rhs); err != nil {
		return false
	}

	xh := make([]float64, n)
	yh := make([]float64, m)
	zh := make([]float64, m)
	for i := 0; i < n; i++ {
		xh[i] = sol.AtVec(i)
	}
	for a, row := range active {
		yh[row] = sol.AtVec(n + a)
	}

	// Residuals of the refined point
	axh := make([]float64, m)
	o.A.MulVec(xh, axh)
	for k := 0; k < m; k++ {
		zh[k] = clamp(axh[k], o.L[k], o.U[k])
	}
	priRes := zero
	for k := 0; k < m; k++ {
		priRes = math.Max(priRes, math.Abs(axh[k]-zh[k]))
	}
	pxh := make([]float64, n)
	atyh := make([]float64, n)
	o.P.MulVec(xh, pxh)
	o.A.MulVecT(yh, atyh)
	duaRes := zero
	for i := 0; i < n; i++ {
		duaRes = math.Max(duaRes, math.Abs(pxh[i]+o.Q[i]+atyh[i]))
	}

	if math.Max(priRes, duaRes) > math.Max(w.priRes, w.duaRes) {
		return false
	}

	copy(w.x, xh)
	copy(w.y, yh)
	copy(w.z, zh)
	w.priRes, w.duaRes = priRes, duaRes
	return true
}
