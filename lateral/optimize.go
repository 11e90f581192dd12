// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lateral

import (
	"errors"
	"fmt"
	"math"

	"github.com/curioloop/lateralqp/osqp"
	"github.com/curioloop/lateralqp/sparse"
)

// Optimizer formulates a piecewise-cubic lateral offset profile as a
// convex QP and solves it through the osqp collaborator.
//
// Each call to Optimize constructs its matrices from scratch; only the
// solved offset sequences are retained between calls. One Optimizer must
// not be used from multiple goroutines at once, but independent instances
// may solve in parallel.
type Optimizer struct {
	cfg Config

	opt       []float64
	optPrime  []float64
	optPPrime []float64
}

// NewOptimizer creates a lateral QP optimizer with the given weights.
func NewOptimizer(cfg Config) (optimizer *Optimizer, err error) {
	switch {
	case cfg.OffsetWeight < zero || math.IsNaN(cfg.OffsetWeight):
		err = errors.New("offset weight must not less than 0")
	case cfg.ObstacleWeight < zero || math.IsNaN(cfg.ObstacleWeight):
		err = errors.New("obstacle weight must not less than 0")
	case cfg.DerivativeWeight < zero || math.IsNaN(cfg.DerivativeWeight):
		err = errors.New("derivative weight must not less than 0")
	case cfg.SecondOrderWeight < zero || math.IsNaN(cfg.SecondOrderWeight):
		err = errors.New("second order weight must not less than 0")
	case cfg.JerkMax <= zero || math.IsNaN(cfg.JerkMax):
		err = errors.New("jerk limit must greater than 0")
	default:
		optimizer = &Optimizer{cfg: cfg}
	}
	return
}

// Optimize solves for the offset profile starting from the given state,
// with one corridor interval per station and uniform step deltaS.
//
// On success the Offset, Prime and PPrime sequences are repopulated and
// the final station's derivatives are forced to zero (terminal rest).
// On any failure the previous sequences are left untouched and the error
// is one of the Err… sentinels or a *SolveError.
func (o *Optimizer) Optimize(initial State, deltaS float64, bounds []Bound) error {

	n := len(bounds)
	switch {
	case n < 2:
		return ErrTooFewStations
	case deltaS <= zero || math.IsNaN(deltaS):
		return ErrBadStepSize
	}
	for i, b := range bounds {
		if b.Lower > b.Upper || math.IsNaN(b.Lower) || math.IsNaN(b.Upper) {
			return fmt.Errorf("%w: station %d", ErrBadBound, i)
		}
	}

	kernel := sparse.FromDense(calculateKernel(n, &o.cfg))
	q := linearCost(bounds, &o.cfg)

	affine, lower, upper := buildConstraints(initial, deltaS, bounds, o.cfg.JerkMax)
	cons := sparse.FromDense(affine)

	p := osqp.Problem{
		P: kernel, Q: q,
		A: cons, L: lower, U: upper,
		Settings: osqp.Settings{
			Alpha:         1.0,
			EpsAbs:        1e-5,
			EpsRel:        1e-5,
			MaxIterations: 5000,
			Polish:        true,
			Verbose:       o.cfg.Verbose,
		},
	}

	solver, err := p.New()
	if err != nil {
		return fmt.Errorf("lateral: %w", err)
	}
	res := solver.Solve(solver.Init())
	if !res.OK {
		return &SolveError{Status: res.Status}
	}

	opt := make([]float64, n)
	optPrime := make([]float64, n)
	optPPrime := make([]float64, n)
	for i := 0; i < n; i++ {
		opt[i] = res.X[i]
		optPrime[i] = res.X[n+i]
		optPPrime[i] = res.X[2*n+i]
	}
	// Terminal rest condition
	optPrime[n-1] = zero
	optPPrime[n-1] = zero

	o.opt, o.optPrime, o.optPPrime = opt, optPrime, optPPrime
	return nil
}

// Offset returns the solved offset sequence of the last call.
func (o *Optimizer) Offset() []float64 { return o.opt }

// Prime returns the solved first-derivative sequence of the last call.
func (o *Optimizer) Prime() []float64 { return o.optPrime }

// PPrime returns the solved second-derivative sequence of the last call.
func (o *Optimizer) PPrime() []float64 { return o.optPPrime }
