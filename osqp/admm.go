// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osqp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// admmSolver solve convex QP with the OSQP operator-splitting scheme.
//
// minimize ½ 𝐱ᵀ𝐏𝐱 + 𝐪ᵀ𝐱 subject to 𝒍 ≤ 𝐀𝐱 ≤ 𝒖
//
// The splitting introduces 𝐳 = 𝐀𝐱 and alternates between an equality
// constrained sub-problem in x̃ and a projection of 𝐳 onto [𝒍,𝒖]:
//
//	(𝐏 + 𝛔𝐈 + 𝐀ᵀ𝐑𝐀) x̃ᵏ⁺¹ = 𝛔𝐱ᵏ - 𝐪 + 𝐀ᵀ(𝐑𝐳ᵏ - 𝐲ᵏ)
//	𝐱ᵏ⁺¹ = 𝛂x̃ᵏ⁺¹ + (1-𝛂)𝐱ᵏ
//	𝐳ᵏ⁺¹ = 𝚷[ 𝛂𝐀x̃ᵏ⁺¹ + (1-𝛂)𝐳ᵏ + 𝐑⁻¹𝐲ᵏ ]
//	𝐲ᵏ⁺¹ = 𝐲ᵏ + 𝐑(𝛂𝐀x̃ᵏ⁺¹ + (1-𝛂)𝐳ᵏ - 𝐳ᵏ⁺¹)
//
// where 𝐑 is the diagonal per-row penalty and 𝚷 the interval projection.
// The factor of the left hand side is computed once per workspace.
//
// # Convergence Criteria
//
//   - primal : ‖𝐀𝐱 - 𝐳‖∞ ≤ 𝛆ₐ + 𝛆ᵣ·𝚖𝚊𝚡(‖𝐀𝐱‖∞, ‖𝐳‖∞)
//   - dual : ‖𝐏𝐱 + 𝐪 + 𝐀ᵀ𝐲‖∞ ≤ 𝛆ₐ + 𝛆ᵣ·𝚖𝚊𝚡(‖𝐏𝐱‖∞, ‖𝐪‖∞, ‖𝐀ᵀ𝐲‖∞)
//
// # Infeasibility Certificates
//
// A diverging problem is reported through the iterate differences:
//   - primal infeasible : ‖𝐀ᵀ𝛅𝐲‖∞ ≤ 𝛆·‖𝛅𝐲‖∞ and 𝒖ᵀ(𝛅𝐲)₊ + 𝒍ᵀ(𝛅𝐲)₋ ≤ -𝛆·‖𝛅𝐲‖∞
//   - dual infeasible : ‖𝐏𝛅𝐱‖∞ ≤ 𝛆·‖𝛅𝐱‖∞ and 𝐪ᵀ𝛅𝐱 ≤ -𝛆·‖𝛅𝐱‖∞ and ‖𝐀𝛅𝐱‖∞ ≤ 𝛆·‖𝛅𝐱‖∞
//
// # Reference
//
// B. Stellato, G. Banjac, P. Goulart, A. Bemporad, S. Boyd:
// "OSQP: An Operator Splitting Solver for Quadratic Programs", 2020.
type admmSolver struct {
	optimizer *Optimizer
	workspace *Workspace
}

func (as *admmSolver) mainLoop() Status {

	o, w := as.optimizer, as.workspace
	set := &o.Settings
	n, m := o.n, o.m

	if !w.posdef {
		return NonConvex
	}

	// Cold start
	w.iter = 0
	w.priRes, w.duaRes = math.Inf(1), math.Inf(1)
	dzero(w.x)
	dzero(w.z)
	dzero(w.y)
	dzero(w.xChk)
	dzero(w.yChk)

	alpha := set.Alpha
	rhsVec := mat.NewVecDense(n, w.rhs)
	xtVec := mat.NewVecDense(n, w.xt)

	for w.iter < set.MaxIterations {
		w.iter++

		// rhs = 𝛔𝐱 - 𝐪 + 𝐀ᵀ(𝐑𝐳 - 𝐲)
		for k := 0; k < m; k++ {
			w.tm[k] = o.rho[k]*w.z[k] - w.y[k]
		}
		o.A.MulVecT(w.tm, w.rhs)
		for i := 0; i < n; i++ {
			w.rhs[i] += set.Sigma*w.x[i] - o.Q[i]
		}

		// x̃ = 𝐊⁻¹rhs , 𝐳̃ = 𝐀x̃
		if err := w.kkt.SolveVecTo(xtVec, rhsVec); err != nil {
			return NonConvex
		}
		o.A.MulVec(w.xt, w.zt)

		// Relaxed updates
		for i := 0; i < n; i++ {
			w.x[i] = alpha*w.xt[i] + (one-alpha)*w.x[i]
		}
		for k := 0; k < m; k++ {
			zr := alpha*w.zt[k] + (one-alpha)*w.z[k]
			w.z[k] = clamp(zr+w.y[k]/o.rho[k], o.L[k], o.U[k])
			w.y[k] += o.rho[k] * (zr - w.z[k])
		}

		if w.iter%checkEvery != 0 && w.iter != set.MaxIterations {
			continue
		}

		if as.checkConv() {
			if set.Verbose {
				as.trace("converged")
			}
			if set.Polish {
				as.polish()
			}
			return Solved
		}
		if set.Verbose {
			as.trace("running")
		}

		// Certificates are built from the iterate movement since the last check.
		for i := 0; i < n; i++ {
			w.dx[i] = w.x[i] - w.xChk[i]
		}
		for k := 0; k < m; k++ {
			w.dy[k] = w.y[k] - w.yChk[k]
		}
		copy(w.xChk, w.x)
		copy(w.yChk, w.y)

		if as.primalInfeasible() {
			return PrimalInfeasible
		}
		if as.dualInfeasible() {
			return DualInfeasible
		}
	}
	return MaxIterReached
}

// checkConv refresh the residuals and test the 𝛆-criteria.
func (as *admmSolver) checkConv() bool {
	o, w := as.optimizer, as.workspace
	set := &o.Settings

	o.A.MulVec(w.x, w.ax)
	o.P.MulVec(w.x, w.px)
	o.A.MulVecT(w.y, w.aty)

	inf := math.Inf(1)
	w.priRes = zero
	for k, ax := range w.ax {
		w.priRes = math.Max(w.priRes, math.Abs(ax-w.z[k]))
	}
	w.duaRes = zero
	for i, px := range w.px {
		w.duaRes = math.Max(w.duaRes, math.Abs(px+o.Q[i]+w.aty[i]))
	}

	epsPri := set.EpsAbs + set.EpsRel*math.Max(floats.Norm(w.ax, inf), floats.Norm(w.z, inf))
	epsDua := set.EpsAbs + set.EpsRel*math.Max(floats.Norm(w.px, inf),
		math.Max(floats.Norm(o.Q, inf), floats.Norm(w.aty, inf)))

	return w.priRes <= epsPri && w.duaRes <= epsDua
}

// primalInfeasible test the certificate carried by 𝛅𝐲.
func (as *admmSolver) primalInfeasible() bool {
	o, w := as.optimizer, as.workspace

	normDy := floats.Norm(w.dy, math.Inf(1))
	if normDy <= zero {
		return false
	}

	o.A.MulVecT(w.dy, w.aty)
	if floats.Norm(w.aty, math.Inf(1)) > epsPrimInf*normDy {
		return false
	}

	gap := zero
	for k, dy := range w.dy {
		if dy > zero {
			gap += o.U[k] * dy
		} else {
			gap += o.L[k] * dy
		}
	}
	return gap <= -epsPrimInf*normDy
}

// dualInfeasible test the certificate carried by 𝛅𝐱.
func (as *admmSolver) dualInfeasible() bool {
	o, w := as.optimizer, as.workspace

	normDx := floats.Norm(w.dx, math.Inf(1))
	if normDx <= zero {
		return false
	}

	if floats.Dot(o.Q, w.dx) > -epsDualInf*normDx {
		return false
	}

	o.P.MulVec(w.dx, w.px)
	if floats.Norm(w.px, math.Inf(1)) > epsDualInf*normDx {
		return false
	}

	o.A.MulVec(w.dx, w.ax)
	return floats.Norm(w.ax, math.Inf(1)) <= epsDualInf*normDx
}

func (as *admmSolver) trace(state string) {
	w := as.workspace
	_, _ = fmt.Fprintf(as.optimizer.Msg, "osqp: iter=%-5d pri=%-12.4e dua=%-12.4e %s\n",
		w.iter, w.priRes, w.duaRes, state)
}

func dzero(v []float64) {
	for i := range v {
		v[i] = zero
	}
}
