// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lateral

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curioloop/lateralqp/sparse"
)

func TestConstraintRowCount(t *testing.T) {
	for _, n := range []int{2, 3, 5, 8, 20} {
		bounds := make([]Bound, n)
		for i := range bounds {
			bounds[i] = Bound{-1, 1}
		}
		a, lower, upper := buildConstraints(State{}, 1.0, bounds, 2.0)

		rows, cols := a.Dims()
		require.Equal(t, 3*n+3*(n-1)+3, rows, "n=%d", n)
		require.Equal(t, 3*n, cols, "n=%d", n)
		require.Len(t, lower, rows)
		require.Len(t, upper, rows)
		for r := 0; r < rows; r++ {
			require.LessOrEqual(t, lower[r], upper[r], "row %d", r)
		}
	}
}

func TestConstraintEntries(t *testing.T) {

	const (
		n       = 3
		deltaS  = 0.5
		jerkMax = 2.0
	)
	initial := State{Offset: 0.3, Prime: 0.1, PPrime: -0.2}
	bounds := []Bound{{-1, 1}, {-0.5, 0.5}, {0, 2}}

	a, lower, upper := buildConstraints(initial, deltaS, bounds, jerkMax)

	prime, pprime := n, 2*n

	// group 1: jerk rows
	require.Equal(t, -1.0, a.At(0, pprime))
	require.Equal(t, 1.0, a.At(0, pprime+1))
	require.Equal(t, -jerkMax*deltaS, lower[0])
	require.Equal(t, jerkMax*deltaS, upper[0])

	// group 2: trapezoidal d'' continuity
	r := n - 1
	require.Equal(t, -1.0, a.At(r, prime))
	require.Equal(t, 1.0, a.At(r, prime+1))
	require.Equal(t, -0.5*deltaS, a.At(r, pprime))
	require.Equal(t, -0.5*deltaS, a.At(r, pprime+1))
	require.Zero(t, lower[r])
	require.Zero(t, upper[r])

	// group 3: cubic Hermite position continuity
	r = 2 * (n - 1)
	require.Equal(t, -1.0, a.At(r, 0))
	require.Equal(t, 1.0, a.At(r, 1))
	require.Equal(t, -deltaS, a.At(r, prime))
	require.Equal(t, -deltaS*deltaS/3.0, a.At(r, pprime))
	require.Equal(t, -deltaS*deltaS/6.0, a.At(r, pprime+1))
	require.Zero(t, lower[r])
	require.Zero(t, upper[r])

	// group 4: boundary equalities
	r = 3 * (n - 1)
	require.Equal(t, 1.0, a.At(r, 0))
	require.Equal(t, initial.Offset, lower[r])
	require.Equal(t, initial.Offset, upper[r])
	require.Equal(t, 1.0, a.At(r+1, prime))
	require.Equal(t, initial.Prime, lower[r+1])
	require.Equal(t, initial.Prime, upper[r+1])
	require.Equal(t, 1.0, a.At(r+2, pprime))
	require.Equal(t, initial.PPrime, lower[r+2])
	require.Equal(t, initial.PPrime, upper[r+2])

	// group 5: per-variable bounds
	r = 3*(n-1) + 3
	for i := 0; i < 3*n; i++ {
		require.Equal(t, 1.0, a.At(r+i, i))
		if i < n {
			require.Equal(t, bounds[i].Lower, lower[r+i])
			require.Equal(t, bounds[i].Upper, upper[r+i])
		} else {
			require.Equal(t, -derivativeCap, lower[r+i])
			require.Equal(t, derivativeCap, upper[r+i])
		}
	}
}

func TestKernelDiagonal(t *testing.T) {

	const n = 4
	cfg := Config{
		OffsetWeight:      1.5,
		ObstacleWeight:    0.5,
		DerivativeWeight:  2.0,
		SecondOrderWeight: 3.0,
		JerkMax:           1.0,
	}

	kernel := calculateKernel(n, &cfg)
	rows, cols := kernel.Dims()
	require.Equal(t, 3*n, rows)
	require.Equal(t, 3*n, cols)

	for i := 0; i < 3*n; i++ {
		for j := 0; j < 3*n; j++ {
			if i != j {
				require.Zero(t, kernel.At(i, j))
				continue
			}
			switch {
			case i < n:
				require.Equal(t, 4.0, kernel.At(i, i))
			case i < 2*n:
				require.Equal(t, 4.0, kernel.At(i, i))
			default:
				require.Equal(t, 6.0, kernel.At(i, i))
			}
		}
	}

	// compressed form keeps one entry per column in column order
	c := sparse.FromDense(kernel)
	require.Equal(t, 3*n, c.NNZ())
	for j := 0; j < 3*n; j++ {
		require.Equal(t, j, c.Indptr[j])
		require.Equal(t, j, c.Indices[j])
	}
}

func TestLinearCost(t *testing.T) {

	cfg := Config{ObstacleWeight: 2.0, JerkMax: 1.0}
	bounds := []Bound{{-1, 3}, {0, 0.5}}

	q := linearCost(bounds, &cfg)
	require.Len(t, q, 6)
	require.Equal(t, -2.0*2.0*(-1+3), q[0])
	require.Equal(t, -2.0*2.0*(0+0.5), q[1])
	for i := 2; i < 6; i++ {
		require.Zero(t, q[i])
	}
}
