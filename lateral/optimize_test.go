// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lateral

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curioloop/lateralqp/osqp"
)

func equalWeights() Config {
	return Config{
		OffsetWeight:      1.0,
		ObstacleWeight:    1.0,
		DerivativeWeight:  1.0,
		SecondOrderWeight: 1.0,
		JerkMax:           2.0,
	}
}

func TestBadConfig(t *testing.T) {
	bad := []Config{
		{OffsetWeight: -1, JerkMax: 1},
		{ObstacleWeight: -1, JerkMax: 1},
		{DerivativeWeight: -1, JerkMax: 1},
		{SecondOrderWeight: -1, JerkMax: 1},
		{JerkMax: 0},
		{JerkMax: -2},
		{JerkMax: math.NaN()},
	}
	for i, cfg := range bad {
		_, err := NewOptimizer(cfg)
		require.Error(t, err, "case %d", i)
	}

	_, err := NewOptimizer(equalWeights())
	require.NoError(t, err)
}

func TestStructuralErrors(t *testing.T) {

	o, err := NewOptimizer(equalWeights())
	require.NoError(t, err)

	// fewer than two stations: rejected before any matrix construction
	err = o.Optimize(State{}, 1.0, []Bound{{-1, 1}})
	require.ErrorIs(t, err, ErrTooFewStations)

	err = o.Optimize(State{}, 1.0, nil)
	require.ErrorIs(t, err, ErrTooFewStations)

	bounds := []Bound{{-1, 1}, {-1, 1}}
	err = o.Optimize(State{}, 0, bounds)
	require.ErrorIs(t, err, ErrBadStepSize)
	err = o.Optimize(State{}, -0.5, bounds)
	require.ErrorIs(t, err, ErrBadStepSize)

	err = o.Optimize(State{}, 1.0, []Bound{{-1, 1}, {1, -1}})
	require.ErrorIs(t, err, ErrBadBound)

	// nothing was populated by the failed calls
	require.Nil(t, o.Offset())
	require.Nil(t, o.Prime())
	require.Nil(t, o.PPrime())
}

func TestTrivialScenario(t *testing.T) {

	o, err := NewOptimizer(equalWeights())
	require.NoError(t, err)

	bounds := []Bound{{-1, 1}, {-1, 1}, {-1, 1}}
	require.NoError(t, o.Optimize(State{}, 1.0, bounds))

	// the zero profile already sits at the weighted optimum
	for i := 0; i < 3; i++ {
		require.InDelta(t, 0, o.Offset()[i], 1e-4)
		require.InDelta(t, 0, o.Prime()[i], 1e-4)
		require.InDelta(t, 0, o.PPrime()[i], 1e-4)
	}
}

func TestSolveProperties(t *testing.T) {

	const (
		n      = 5
		deltaS = 0.5
		tol    = 1e-4
	)
	initial := State{Offset: 0.2, Prime: 0.1}

	o, err := NewOptimizer(equalWeights())
	require.NoError(t, err)

	bounds := make([]Bound, n)
	for i := range bounds {
		bounds[i] = Bound{-1, 1}
	}
	require.NoError(t, o.Optimize(initial, deltaS, bounds))

	d, dp, dpp := o.Offset(), o.Prime(), o.PPrime()
	require.Len(t, d, n)
	require.Len(t, dp, n)
	require.Len(t, dpp, n)

	// boundary rows reproduce the initial state
	require.InDelta(t, initial.Offset, d[0], tol)
	require.InDelta(t, initial.Prime, dp[0], tol)
	require.InDelta(t, initial.PPrime, dpp[0], tol)

	// corridor respected at every station
	for i := 0; i < n; i++ {
		require.GreaterOrEqual(t, d[i], bounds[i].Lower-tol)
		require.LessOrEqual(t, d[i], bounds[i].Upper+tol)
	}

	// continuity holds between the solved stations; the final pair is
	// excluded because the terminal rest override rewrites its derivatives
	for i := 0; i+2 < n; i++ {
		trap := dp[i+1] - dp[i] - 0.5*deltaS*(dpp[i]+dpp[i+1])
		require.InDelta(t, 0, trap, tol, "pair %d", i)
		herm := d[i+1] - d[i] - deltaS*dp[i] -
			deltaS*deltaS/3.0*dpp[i] - deltaS*deltaS/6.0*dpp[i+1]
		require.InDelta(t, 0, herm, tol, "pair %d", i)

		require.LessOrEqual(t, math.Abs(dpp[i+1]-dpp[i]), 2.0*deltaS+tol, "pair %d", i)
	}

	// terminal rest is exact
	require.Zero(t, dp[n-1])
	require.Zero(t, dpp[n-1])
}

func TestIdempotence(t *testing.T) {

	initial := State{Offset: -0.3, Prime: 0.05, PPrime: 0.01}
	bounds := []Bound{{-1, 0}, {-1, 0.5}, {-0.8, 0.8}, {-1, 1}}

	run := func() ([]float64, []float64, []float64) {
		o, err := NewOptimizer(equalWeights())
		require.NoError(t, err)
		require.NoError(t, o.Optimize(initial, 0.25, bounds))
		return o.Offset(), o.Prime(), o.PPrime()
	}

	d1, dp1, dpp1 := run()
	d2, dp2, dpp2 := run()

	require.Equal(t, d1, d2)
	require.Equal(t, dp1, dp2)
	require.Equal(t, dpp1, dpp2)
}

func TestSolverFailure(t *testing.T) {

	o, err := NewOptimizer(equalWeights())
	require.NoError(t, err)

	// initial offset pinned outside the corridor: no feasible point
	initial := State{Offset: 5.0}
	bounds := []Bound{{-1, 1}, {-1, 1}, {-1, 1}}

	err = o.Optimize(initial, 1.0, bounds)
	require.Error(t, err)

	var se *SolveError
	require.ErrorAs(t, err, &se)
	require.Equal(t, osqp.PrimalInfeasible, se.Status)

	// failure never defaults to a zero-filled solution
	require.Nil(t, o.Offset())
	require.Nil(t, o.Prime())
	require.Nil(t, o.PPrime())
}

func TestFreshBuffersPerCall(t *testing.T) {

	o, err := NewOptimizer(equalWeights())
	require.NoError(t, err)

	bounds := []Bound{{-1, 1}, {-1, 1}, {-1, 1}}
	require.NoError(t, o.Optimize(State{}, 1.0, bounds))
	first := o.Offset()

	require.NoError(t, o.Optimize(State{Offset: 0.5}, 1.0, bounds))
	second := o.Offset()

	// the earlier slice is not mutated by the second call
	require.NotSame(t, &first[0], &second[0])
	require.InDelta(t, 0, first[0], 1e-4)
	require.InDelta(t, 0.5, second[0], 1e-4)
}
