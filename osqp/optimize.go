// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package osqp

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/lateralqp/sparse"
)

// Settings specifies the options for the ADMM iteration.
type Settings struct {
	// The over-relaxation parameter 0 < 𝛂 < 2.
	Alpha float64
	// The ADMM penalty 𝛒 > 0 applied to inequality rows.
	// Equality rows (𝒍ᵢ = 𝒖ᵢ) are penalized with 10³𝛒.
	Rho float64
	// The regularization 𝛔 > 0 added to P in the x̃ sub-problem.
	Sigma float64
	// The absolute convergence tolerance.
	EpsAbs float64
	// The relative convergence tolerance.
	EpsRel float64
	// The iteration stop when the number of iteration exceeds limit.
	MaxIterations int
	// Refine the final solution with an active-set KKT solve.
	Polish bool
	// Print the residual trace every check interval.
	Verbose bool
	// Writer for the verbose trace (default os.Stdout).
	Msg io.Writer
}

// Problem specifies a convex QP in the standard splitting form
//
//	minimize ½ 𝐱ᵀ𝐏𝐱 + 𝐪ᵀ𝐱 subject to 𝒍 ≤ 𝐀𝐱 ≤ 𝒖
//
// where
//   - 𝐏 is an n × n positive semi-definite cost matrix
//   - 𝐪 is an n-vector
//   - 𝐀 is an m × n constraint matrix
//   - 𝒍, 𝒖 are m-vectors with 𝒍 ≤ 𝒖
//
// 𝐏 must be given in full symmetric form; only its upper triangle is
// read when the x̃ sub-problem is factorized.
type Problem struct {
	P    *sparse.CSC
	Q    []float64
	A    *sparse.CSC
	L, U []float64
	Settings
}

// New creates a new QP optimizer for given problem.
func (p *Problem) New() (optimizer *Optimizer, err error) {

	set := p.Settings
	if set.Alpha == zero {
		set.Alpha = defaultAlpha
	}
	if set.Rho == zero {
		set.Rho = defaultRho
	}
	if set.Sigma == zero {
		set.Sigma = defaultSigma
	}
	if set.EpsAbs == zero {
		set.EpsAbs = defaultEps
	}
	if set.EpsRel == zero {
		set.EpsRel = defaultEps
	}
	if set.MaxIterations == 0 {
		set.MaxIterations = defaultMaxIter
	}
	if set.Msg == nil {
		set.Msg = os.Stdout
	}

	var n, m int
	switch {
	case p.P == nil || p.A == nil:
		err = errors.New("cost and constraint matrices are required")
	case p.P.Rows != p.P.Cols:
		err = errors.New("cost matrix must be square")
	case p.P.Cols == 0:
		err = errors.New("problem dimension must greater than 0")
	case len(p.Q) != p.P.Cols:
		err = errors.New("linear cost size must equal to n")
	case p.A.Cols != p.P.Cols:
		err = errors.New("constraint matrix width must equal to n")
	case len(p.L) != p.A.Rows || len(p.U) != p.A.Rows:
		err = errors.New("bound size must equal to constraint rows")
	case set.Alpha <= zero || set.Alpha >= 2:
		err = errors.New("relaxation alpha must lie in (0,2)")
	case set.Rho <= zero:
		err = errors.New("penalty rho must greater than 0")
	case set.Sigma <= zero:
		err = errors.New("regularization sigma must greater than 0")
	case set.EpsAbs < zero || set.EpsRel < zero:
		err = errors.New("tolerance must not less than 0")
	case set.MaxIterations < 0:
		err = errors.New("max iteration must greater than 1")
	default:
		n, m = p.P.Cols, p.A.Rows
	}

	if err == nil {
		for k := range p.L {
			l, u := p.L[k], p.U[k]
			if math.IsNaN(l) || math.IsNaN(u) || l > u {
				err = errors.New(fmt.Sprintf("bound error at %d", k))
				break
			}
		}
	}

	if err != nil {
		return
	}

	rho := make([]float64, m)
	for k := range rho {
		if p.L[k] == p.U[k] {
			rho[k] = eqRhoScale * set.Rho
		} else {
			rho[k] = set.Rho
		}
	}

	optimizer = &Optimizer{
		admmSpec{
			n: n, m: m,
			rho: rho,
			Problem: Problem{
				P: p.P, A: p.A,
				Q:        slices.Repeat(p.Q, 1),
				L:        slices.Repeat(p.L, 1),
				U:        slices.Repeat(p.U, 1),
				Settings: set,
			},
		},
	}
	return
}

type admmSpec struct {
	// the number of variables
	n int
	// the number of constraint rows
	m int
	// the per-row penalty
	rho []float64
	Problem
}

// Optimizer implemented with the OSQP operator-splitting scheme.
type Optimizer struct {
	admmSpec
}

// Workspace contains the state and context of the splitting iteration.
// Total work space is approximately float64[n² + 7n + 7m].
type Workspace struct {
	n, m int
	admmCtx
}

type admmCtx struct {
	// cholesky factor of 𝐊 = 𝐏 + 𝛔𝐈 + 𝐀ᵀ𝐑𝐀
	kkt    mat.Cholesky
	posdef bool
	// iterates
	x, z, y []float64
	// x̃ and 𝐀x̃ of the current sub-problem
	xt, zt []float64
	// right hand side of the x̃ sub-problem
	rhs []float64
	// m-vector scratch
	tm []float64
	// residual scratch 𝐀𝐱, 𝐏𝐱, 𝐀ᵀ𝐲
	ax, px, aty []float64
	// iterate snapshots for the infeasibility certificates
	xChk, yChk []float64
	dx, dy     []float64
	// latest residuals
	priRes, duaRes float64
	// iteration counter
	iter int
}

// Result contains the final result of the solve.
type Result struct {
	OK      bool      // Whether the residuals converged.
	X       []float64 // Primal solution.
	Y       []float64 // Dual solution (constraint multipliers).
	Summary           // Solve summary.
}

// Summary contains a summary of the splitting iteration.
type Summary struct {
	Status  Status  // Final status after the solve.
	NumIter int     // Number of iterations performed.
	PriRes  float64 // Final primal residual ‖𝐀𝐱 - 𝐳‖∞.
	DuaRes  float64 // Final dual residual ‖𝐏𝐱 + 𝐪 + 𝐀ᵀ𝐲‖∞.
}

// Init allocate the workspace and factorize the x̃ sub-problem.
// To avoid race conditions, separate workspaces need to be created for each goroutine.
// But multiple workspaces could share one optimizer.
func (o *Optimizer) Init() *Workspace {
	w := new(Workspace)
	w.n, w.m = o.n, o.m

	n, m := o.n, o.m
	buf := make([]float64, 7*n+7*m)
	w.x, buf = buf[:n], buf[n:]
	w.xt, buf = buf[:n], buf[n:]
	w.rhs, buf = buf[:n], buf[n:]
	w.px, buf = buf[:n], buf[n:]
	w.aty, buf = buf[:n], buf[n:]
	w.xChk, w.dx = buf[:n], buf[n:2*n]
	buf = buf[2*n:]
	w.z, buf = buf[:m], buf[m:]
	w.zt, buf = buf[:m], buf[m:]
	w.y, buf = buf[:m], buf[m:]
	w.tm, buf = buf[:m], buf[m:]
	w.ax, buf = buf[:m], buf[m:]
	w.yChk, w.dy = buf[:m], buf[m:2*m]

	// 𝐊 = 𝐏 + 𝛔𝐈 + 𝐀ᵀ𝐑𝐀
	pd := o.P.ToDense()
	ad := o.A.ToDense()
	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := pd.At(i, j)
			if i == j {
				v += o.Sigma
			}
			for r := 0; r < m; r++ {
				v += o.rho[r] * ad.At(r, i) * ad.At(r, j)
			}
			k.SetSym(i, j, v)
		}
	}
	w.posdef = w.kkt.Factorize(k)
	return w
}

// Solve runs the splitting iteration from a cold start using workspace w.
func (o *Optimizer) Solve(w *Workspace) *Result {

	if w.n != o.n || w.m != o.m {
		panic("workspace dimension not match spec")
	}

	solver := admmSolver{
		optimizer: o,
		workspace: w,
	}

	res := solver.mainLoop()
	return &Result{
		OK: res == Solved,
		X:  slices.Repeat(w.x, 1),
		Y:  slices.Repeat(w.y, 1),
		Summary: Summary{
			Status:  res,
			NumIter: w.iter,
			PriRes:  w.priRes,
			DuaRes:  w.duaRes,
		},
	}
}
