// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Pattern rules and numeric kernels of elementwise operations.
//   - The densification rule lives here: an operation whose value at zero is
//     nonzero widens the result to the dense pattern, and structural zeros of
//     the operands are evaluated as 0 before the operation.
//
// Determinism:
//   - Fixed nonzero order loops; fresh result allocation; operands untouched.

package matrix

import (
	"fmt"

	"github.com/katalvlaran/symad/ops"
	"github.com/katalvlaran/symad/sparsity"
)

// UnaryPattern returns the result pattern of op applied elementwise to s:
// s itself when op(0) == 0, the dense pattern of the same shape otherwise.
func UnaryPattern(op ops.Op, s sparsity.Sparsity) sparsity.Sparsity {
	if ops.ZeroAtZero(op) || s.IsDense() {
		return s
	}
	return sparsity.Dense(s.Rows(), s.Cols())
}

// Broadcast classifies the operand shapes of an elementwise binary operation.
type Broadcast uint8

const (
	// MatrixMatrix: identical shapes.
	MatrixMatrix Broadcast = iota
	// ScalarMatrix: 1×1 first operand against a larger second one.
	ScalarMatrix
	// MatrixScalar: larger first operand against a 1×1 second one.
	MatrixScalar
)

// ClassifyBinary returns the broadcast kind of op(x, y).
// Errors: ErrDimensionMismatch when neither shapes match nor one side is 1×1.
func ClassifyBinary(x, y sparsity.Sparsity) (Broadcast, error) {
	switch {
	case x.SameShape(y):
		return MatrixMatrix, nil
	case x.IsScalar():
		return ScalarMatrix, nil
	case y.IsScalar():
		return MatrixScalar, nil
	}
	return 0, fmt.Errorf("%dx%d vs %dx%d: %w", x.Rows(), x.Cols(), y.Rows(), y.Cols(), ErrDimensionMismatch)
}

// BinaryPattern returns the result pattern of op(x, y).
//
//   - ScalarMatrix: y's pattern when op(x, 0) == 0 for every x, else dense.
//   - MatrixScalar: x's pattern when op(0, y) == 0 for every y, else dense.
//   - MatrixMatrix: dense when op(0, 0) != 0; otherwise the union, minus the
//     entries present in one operand only where the absent operand forces 0
//     (intersection for mul).
func BinaryPattern(op ops.Op, x, y sparsity.Sparsity) (sparsity.Sparsity, error) {
	kind, err := ClassifyBinary(x, y)
	if err != nil {
		return sparsity.Sparsity{}, matrixErrorf(opBinary, err)
	}
	switch kind {
	case ScalarMatrix:
		if ops.ZeroSecond(op) {
			return y, nil
		}
		return sparsity.Dense(y.Rows(), y.Cols()), nil
	case MatrixScalar:
		if ops.ZeroFirst(op) {
			return x, nil
		}
		return sparsity.Dense(x.Rows(), x.Cols()), nil
	}
	if !ops.ZeroBoth(op) {
		return sparsity.Dense(x.Rows(), x.Cols()), nil
	}
	return x.Combine(y, ops.ZeroFirst(op), ops.ZeroSecond(op)), nil
}

// ValuesOn returns the values of m at the nonzeros of target (same shape, or
// m 1×1 broadcast over target), with structural zeros of m read as 0.
// Complexity: O(ncol + nnz).
func ValuesOn(m *Sparse, target sparsity.Sparsity) []float64 {
	out := make([]float64, target.Nnz())
	if m.sp.IsScalar() && !target.IsScalar() {
		v := m.Value()
		for k := range out {
			out[k] = v
		}
		return out
	}
	for k, src := range m.sp.NZMap(target) {
		if src >= 0 {
			out[k] = m.nz[src]
		}
	}
	return out
}

// Project returns m restricted (or widened with zeros) to pattern sp of the
// same shape.
func Project(m *Sparse, sp sparsity.Sparsity) *Sparse {
	if m.sp.Equal(sp) {
		return m
	}
	return wrap(sp, ValuesOn(m, sp))
}

// Densify returns m on the dense pattern with structural zeros set to fill.
func Densify(m *Sparse, fill float64) *Sparse {
	d := sparsity.Dense(m.Rows(), m.Cols())
	out := make([]float64, d.Nnz())
	for k := range out {
		out[k] = fill
	}
	for k, dst := range d.NZMap(m.sp) {
		out[dst] = m.nz[k]
	}
	return wrap(d, out)
}

// Unary applies op elementwise. For operations with op(0) != 0 the result is
// dense: structural zeros become op(0).
// Complexity: O(numel) when densifying, O(nnz) otherwise.
func Unary(op ops.Op, m *Sparse) *Sparse {
	rp := UnaryPattern(op, m.sp)
	in := m
	if !rp.Equal(m.sp) {
		in = Densify(m, 0)
	}
	out := make([]float64, len(in.nz))
	for k, v := range in.nz {
		out[k] = ops.Eval1(op, v)
	}
	return wrap(rp, out)
}

// Binary applies op elementwise with the BinaryPattern rule. The scalar fast
// paths give the same values as broadcasting the scalar to a full matrix.
// Errors: ErrDimensionMismatch.
func Binary(op ops.Op, x, y *Sparse) (*Sparse, error) {
	if err := ValidateNotNil(x); err != nil {
		return nil, matrixErrorf(opBinary, err)
	}
	if err := ValidateNotNil(y); err != nil {
		return nil, matrixErrorf(opBinary, err)
	}
	rp, err := BinaryPattern(op, x.sp, y.sp)
	if err != nil {
		return nil, err
	}
	xv := ValuesOn(x, rp)
	yv := ValuesOn(y, rp)
	for k := range xv {
		xv[k] = ops.Eval2(op, xv[k], yv[k])
	}
	return wrap(rp, xv), nil
}

// MustBinary is Binary for operands known to be compatible; it panics otherwise.
func MustBinary(op ops.Op, x, y *Sparse) *Sparse {
	r, err := Binary(op, x, y)
	if err != nil {
		panic(err)
	}
	return r
}
