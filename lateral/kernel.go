// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lateral

import (
	"gonum.org/v1/gonum/mat"
)

// calculateKernel build the 3n×3n quadratic cost matrix.
//
// The unknowns are laid out in three contiguous blocks
//
//	d[0..n) | d'[n..2n) | d''[2n..3n)
//
// and the cost is a sum of independent weighted squares, so the kernel is
// purely diagonal:
//
//	diag(i) = 2(w𝒹 + wₒ)  (i < n)
//	diag(i) = 2w𝒹′        (n ≤ i < 2n)
//	diag(i) = 2w𝒹″        (2n ≤ i)
//
// There is no cross coupling between adjacent stations: smoothness is
// carried entirely by the constraint system.
func calculateKernel(n int, cfg *Config) *mat.Dense {
	kernel := mat.NewDense(3*n, 3*n, nil)
	for i := 0; i < 3*n; i++ {
		switch {
		case i < n:
			kernel.Set(i, i, two*cfg.OffsetWeight+two*cfg.ObstacleWeight)
		case i < 2*n:
			kernel.Set(i, i, two*cfg.DerivativeWeight)
		default:
			kernel.Set(i, i, two*cfg.SecondOrderWeight)
		}
	}
	return kernel
}

// linearCost build the 3n-vector q of the cost ½𝐱ᵀ𝐏𝐱 + 𝐪ᵀ𝐱.
//
// For offset indices q centers the cost toward the corridor midpoint,
// expanding wₒ(d - ½(low+high))² into the quadratic kernel term plus
// q = -2wₒ(low+high); derivative indices carry no linear cost.
func linearCost(bounds []Bound, cfg *Config) []float64 {
	n := len(bounds)
	q := make([]float64, 3*n)
	for i, b := range bounds {
		q[i] = -two * cfg.ObstacleWeight * (b.Lower + b.Upper)
	}
	return q
}
