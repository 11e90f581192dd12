// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparse

import (
	"gonum.org/v1/gonum/mat"
)

const zero = 0.0

// CSC is a column-compressed sparse matrix.
//
// The nonzero values are stored column by column:
//   - Data holds the nonzero values in column order
//   - Indices holds the row index of each value in Data
//   - Indptr[j] is the offset in Data where column j starts,
//     so column j occupies Data[Indptr[j]:Indptr[j+1]]
//
// Indptr always has Cols+1 entries and is monotonically non-decreasing.
// Entries that are exactly zero are never stored.
type CSC struct {
	Rows, Cols int
	Data       []float64
	Indices    []int
	Indptr     []int
}

// NNZ returns the number of stored nonzero entries.
func (c *CSC) NNZ() int { return len(c.Data) }

// FromDense compresses a dense matrix into CSC form.
// Stored values are preserved bit-for-bit and exact zeros are dropped.
func FromDense(m mat.Matrix) *CSC {
	rows, cols := m.Dims()
	c := &CSC{
		Rows:   rows,
		Cols:   cols,
		Indptr: make([]int, cols+1),
	}
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			if v := m.At(i, j); v != zero {
				c.Data = append(c.Data, v)
				c.Indices = append(c.Indices, i)
			}
		}
		c.Indptr[j+1] = len(c.Data)
	}
	return c
}

// MulVec computes y = Ax.
// The y slice must have length Rows and x length Cols.
func (c *CSC) MulVec(x, y []float64) {
	if len(x) != c.Cols || len(y) != c.Rows {
		panic("sparse: dimension mismatch")
	}
	for i := range y {
		y[i] = zero
	}
	for j := 0; j < c.Cols; j++ {
		xj := x[j]
		if xj == zero {
			continue
		}
		for k := c.Indptr[j]; k < c.Indptr[j+1]; k++ {
			y[c.Indices[k]] += c.Data[k] * xj
		}
	}
}

// MulVecT computes y = Aᵀx.
// The y slice must have length Cols and x length Rows.
func (c *CSC) MulVecT(x, y []float64) {
	if len(x) != c.Rows || len(y) != c.Cols {
		panic("sparse: dimension mismatch")
	}
	for j := 0; j < c.Cols; j++ {
		sum := zero
		for k := c.Indptr[j]; k < c.Indptr[j+1]; k++ {
			sum += c.Data[k] * x[c.Indices[k]]
		}
		y[j] = sum
	}
}

// ToDense expands the matrix back into dense form.
func (c *CSC) ToDense() *mat.Dense {
	d := mat.NewDense(c.Rows, c.Cols, nil)
	for j := 0; j < c.Cols; j++ {
		for k := c.Indptr[j]; k < c.Indptr[j+1]; k++ {
			d.Set(c.Indices[k], j, c.Data[k])
		}
	}
	return d
}
