// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lateral

import (
	"gonum.org/v1/gonum/mat"
)

// buildConstraints assemble the affine system 𝒍 ≤ 𝐀𝐱 ≤ 𝒖 over the
// 3n unknowns, with m = 3n + 3(n-1) + 3 rows emitted in a fixed order:
//
//  1. jerk bound (n-1 rows):
//     d″ᵢ₊₁ - d″ᵢ ∈ [-jerkMax·Δs, +jerkMax·Δs]
//  2. second-derivative continuity, trapezoid rule (n-1 equality rows):
//     d′ᵢ₊₁ - d′ᵢ - ½Δs(d″ᵢ + d″ᵢ₊₁) = 0
//  3. position continuity, cubic Hermite relation (n-1 equality rows):
//     dᵢ₊₁ - dᵢ - Δs·d′ᵢ - ⅓Δs²·d″ᵢ - ⅙Δs²·d″ᵢ₊₁ = 0
//  4. boundary equalities (3 rows): d₀, d′₀, d″₀ pinned to the initial state
//  5. per-variable bounds (3n rows): the corridor for offsets,
//     ±derivativeCap for the derivative blocks
//
// The row index advances monotonically and is never reset; the solver's
// result columns are meaningless unless this ordering is preserved.
func buildConstraints(initial State, deltaS float64, bounds []Bound, jerkMax float64) (a *mat.Dense, lower, upper []float64) {

	n := len(bounds)
	numParam := 3 * n
	numCons := numParam + 3*(n-1) + 3

	a = mat.NewDense(numCons, numParam, nil)
	lower = make([]float64, numCons)
	upper = make([]float64, numCons)

	primeOffset := n
	pprimeOffset := 2 * n
	row := 0

	// d″ᵢ₊₁ - d″ᵢ
	for i := 0; i+1 < n; i++ {
		col := pprimeOffset + i
		a.Set(row, col, -1.0)
		a.Set(row, col+1, 1.0)
		lower[row] = -jerkMax * deltaS
		upper[row] = jerkMax * deltaS
		row++
	}

	// d′ᵢ₊₁ - d′ᵢ - ½Δs(d″ᵢ + d″ᵢ₊₁)
	for i := 0; i+1 < n; i++ {
		a.Set(row, primeOffset+i, -1.0)
		a.Set(row, primeOffset+i+1, 1.0)
		a.Set(row, pprimeOffset+i, -0.5*deltaS)
		a.Set(row, pprimeOffset+i+1, -0.5*deltaS)
		row++
	}

	// dᵢ₊₁ - dᵢ - Δs·d′ᵢ - ⅓Δs²·d″ᵢ - ⅙Δs²·d″ᵢ₊₁
	for i := 0; i+1 < n; i++ {
		a.Set(row, i, -1.0)
		a.Set(row, i+1, 1.0)
		a.Set(row, primeOffset+i, -deltaS)
		a.Set(row, pprimeOffset+i, -deltaS*deltaS/3.0)
		a.Set(row, pprimeOffset+i+1, -deltaS*deltaS/6.0)
		row++
	}

	// Pin the initial state
	a.Set(row, 0, 1.0)
	lower[row] = initial.Offset
	upper[row] = initial.Offset
	row++

	a.Set(row, primeOffset, 1.0)
	lower[row] = initial.Prime
	upper[row] = initial.Prime
	row++

	a.Set(row, pprimeOffset, 1.0)
	lower[row] = initial.PPrime
	upper[row] = initial.PPrime
	row++

	// Per-variable bounds
	for i := 0; i < numParam; i++ {
		a.Set(row, i, 1.0)
		if i < n {
			lower[row] = bounds[i].Lower
			upper[row] = bounds[i].Upper
		} else {
			lower[row] = -derivativeCap
			upper[row] = derivativeCap
		}
		row++
	}

	if row != numCons {
		panic("lateral: constraint row count mismatch")
	}
	return
}
