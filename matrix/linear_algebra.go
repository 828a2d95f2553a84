// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Structural kernels (transpose, reshape, concatenation, nonzero gather)
//     and the products used by the expression evaluator (Mtimes, Dot, NormF).
//   - Bridges to gonum dense matrices for factorizations.

package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/symad/sparsity"
)

// Transpose returns mᵀ.
// Complexity: O(nrow + ncol + nnz).
func Transpose(m *Sparse) *Sparse {
	st, mapping := m.sp.Transpose()
	out := make([]float64, len(mapping))
	for k, src := range mapping {
		out[k] = m.nz[src]
	}
	return wrap(st, out)
}

// Reshape reinterprets m column-major with a new shape of the same numel.
// Errors: ErrDimensionMismatch, ErrBadShape.
func Reshape(m *Sparse, nrow, ncol int) (*Sparse, error) {
	sp, err := m.sp.Reshape(nrow, ncol)
	if err != nil {
		return nil, matrixErrorf(opReshape, err)
	}
	return wrap(sp, append([]float64(nil), m.nz...)), nil
}

// GetNonzeros builds a matrix with pattern sp whose k-th nonzero is the
// nz[k]-th nonzero of m. Panics when the lengths disagree.
func GetNonzeros(m *Sparse, sp sparsity.Sparsity, nz []int) *Sparse {
	if len(nz) != sp.Nnz() {
		panic(fmt.Sprintf("matrix: GetNonzeros %d indices for %v", len(nz), sp))
	}
	out := make([]float64, len(nz))
	for k, src := range nz {
		out[k] = m.nz[src]
	}
	return wrap(sp, out)
}

// concat scatters every part's values through the nonzero maps.
func concat(sp sparsity.Sparsity, maps [][]int, parts []*Sparse) *Sparse {
	out := make([]float64, sp.Nnz())
	for i, p := range parts {
		for k, dst := range maps[i] {
			out[dst] = p.nz[k]
		}
	}
	return wrap(sp, out)
}

func patterns(parts []*Sparse) []sparsity.Sparsity {
	sps := make([]sparsity.Sparsity, len(parts))
	for i, p := range parts {
		sps[i] = p.sp
	}
	return sps
}

// Horzcat concatenates side by side. Errors: ErrDimensionMismatch.
func Horzcat(parts ...*Sparse) (*Sparse, error) {
	sp, maps, err := sparsity.Horzcat(patterns(parts)...)
	if err != nil {
		return nil, matrixErrorf(opConcat, fmt.Errorf("%w: %w", err, ErrDimensionMismatch))
	}
	return concat(sp, maps, parts), nil
}

// Vertcat stacks vertically. Errors: ErrDimensionMismatch.
func Vertcat(parts ...*Sparse) (*Sparse, error) {
	sp, maps, err := sparsity.Vertcat(patterns(parts)...)
	if err != nil {
		return nil, matrixErrorf(opConcat, fmt.Errorf("%w: %w", err, ErrDimensionMismatch))
	}
	return concat(sp, maps, parts), nil
}

// Diagcat builds the block-diagonal matrix of parts.
func Diagcat(parts ...*Sparse) *Sparse {
	sp, maps := sparsity.Diagcat(patterns(parts)...)
	return concat(sp, maps, parts)
}

// Mtimes returns the matrix product x*y on the product pattern.
// Complexity: O(sum over nonzeros y(k,j) of nnz(x(:,k))).
// Errors: ErrDimensionMismatch.
func Mtimes(x, y *Sparse) (*Sparse, error) {
	if err := ValidateMulCompatible(x, y); err != nil {
		return nil, matrixErrorf(opMtimes, err)
	}
	sp, err := sparsity.MatMul(x.sp, y.sp)
	if err != nil {
		return nil, matrixErrorf(opMtimes, err)
	}
	out := make([]float64, sp.Nnz())
	acc := make([]float64, x.Rows())
	xcol, xrow := x.sp.ColInd(), x.sp.RowInd()
	ycol, yrow := y.sp.ColInd(), y.sp.RowInd()
	pcol, prow := sp.ColInd(), sp.RowInd()
	for j := 0; j < y.Cols(); j++ {
		// 1. Accumulate column j densely
		for el := ycol[j]; el < ycol[j+1]; el++ {
			k, v := yrow[el], y.nz[el]
			for xe := xcol[k]; xe < xcol[k+1]; xe++ {
				acc[xrow[xe]] += x.nz[xe] * v
			}
		}
		// 2. Gather into the pattern and reset the accumulator
		for el := pcol[j]; el < pcol[j+1]; el++ {
			r := prow[el]
			out[el] = acc[r]
			acc[r] = 0
		}
	}
	return wrap(sp, out), nil
}

// Dot returns the sum of x.*y over equal shapes. Errors: ErrDimensionMismatch.
func Dot(x, y *Sparse) (float64, error) {
	if err := ValidateSameShape(x, y); err != nil {
		return 0, matrixErrorf(opDot, err)
	}
	var s float64
	for k, src := range y.sp.NZMap(x.sp) {
		if src >= 0 {
			s += x.nz[k] * y.nz[src]
		}
	}
	return s, nil
}

// NormF returns the Frobenius norm.
func NormF(m *Sparse) float64 {
	var s float64
	for _, v := range m.nz {
		s += v * v
	}
	return math.Sqrt(s)
}

// ToDense converts to a gonum dense matrix. Empty shapes yield nil.
func ToDense(m *Sparse) *mat.Dense {
	if m.Rows() == 0 || m.Cols() == 0 {
		return nil
	}
	d := mat.NewDense(m.Rows(), m.Cols(), nil)
	col, row := m.sp.ColInd(), m.sp.RowInd()
	for j := 0; j < m.Cols(); j++ {
		for el := col[j]; el < col[j+1]; el++ {
			d.Set(row[el], j, m.nz[el])
		}
	}
	return d
}

// FromDense converts any gonum matrix to a Sparse with the dense pattern.
// Errors: ErrNaNInf under the finite-value policy.
func FromDense(a mat.Matrix, opts ...Option) (*Sparse, error) {
	o := gatherOptions(opts...)
	r, c := a.Dims()
	sp := sparsity.Dense(r, c)
	nz := make([]float64, 0, r*c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			nz = append(nz, a.At(i, j))
		}
	}
	if o.validateNaNInf {
		if err := validateFinite(nz); err != nil {
			return nil, matrixErrorf(opFromDense, err)
		}
	}
	return wrap(sp, nz), nil
}

// AllClose reports |a-b| <= atol + rtol*|b| entrywise over equal shapes,
// reading structural zeros as 0.
func AllClose(a, b *Sparse, opts ...Option) bool {
	o := gatherOptions(opts...)
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return false
	}
	u, _ := a.sp.Union(b.sp)
	av, bv := ValuesOn(a, u), ValuesOn(b, u)
	for k := range av {
		if math.Abs(av[k]-bv[k]) > o.atol+o.rtol*math.Abs(bv[k]) {
			return false
		}
	}
	return true
}
