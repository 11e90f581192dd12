// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osqp

const (
	zero = 0.0
	one  = 1.0
)

const (
	// checkEvery controls how often the convergence and
	// infeasibility criteria are evaluated during the iteration.
	checkEvery = 25
	// epsPrimInf is the tolerance of the primal infeasibility certificate.
	epsPrimInf = 1e-4
	// epsDualInf is the tolerance of the dual infeasibility certificate.
	epsDualInf = 1e-4
	// eqRhoScale is the penalty scale applied to equality rows (𝒍ᵢ = 𝒖ᵢ).
	eqRhoScale = 1e3
	// defaultAlpha is the default over-relaxation parameter.
	defaultAlpha = 1.6
	// defaultRho is the default ADMM penalty.
	defaultRho = 0.1
	// defaultSigma is the default regularization of the x̃ sub-problem.
	defaultSigma = 1e-6
	// defaultEps is the default absolute and relative tolerance.
	defaultEps = 1e-3
	// defaultMaxIter is the default iteration cap.
	defaultMaxIter = 4000
)

// Status is the final state of the solve.
type Status int

const (
	// Unsolved the problem has not been solved yet.
	Unsolved Status = iota
	// Solved the residuals converged to the requested tolerance.
	Solved
	// MaxIterReached the iteration cap was hit before convergence.
	MaxIterReached
	// PrimalInfeasible a certificate of primal infeasibility was found.
	PrimalInfeasible
	// DualInfeasible a certificate of dual infeasibility (unbounded problem) was found.
	DualInfeasible
	// NonConvex the quadratic cost matrix could not be factorized.
	NonConvex
)

func (s Status) String() string {
	switch s {
	case Unsolved:
		return "unsolved"
	case Solved:
		return "solved"
	case MaxIterReached:
		return "max iterations reached"
	case PrimalInfeasible:
		return "primal infeasible"
	case DualInfeasible:
		return "dual infeasible"
	case NonConvex:
		return "non convex"
	}
	return "unknown"
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
