// SPDX-License-Identifier: MIT
// Package matrix: sentinel error set.
// All exported functions return these sentinels, wrapped with an operation tag
// via matrixErrorf; tests match them with errors.Is. Panics are reserved for
// programmer errors in private helpers.

package matrix

import (
	"errors"
	"fmt"
)

var (
	// ErrBadShape is returned when a requested shape is invalid (negative extent).
	ErrBadShape = errors.New("matrix: invalid shape")

	// ErrOutOfRange indicates that an index (row or column) is outside valid bounds.
	// Public indexers (At/Set) return this, not panic.
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrDimensionMismatch indicates incompatible dimensions between operands,
	// e.g. elementwise operations on different shapes, or Mtimes where a.Cols != b.Rows.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNonSquare signals that a square matrix was required but the input wasn't.
	ErrNonSquare = errors.New("matrix: matrix is not square")

	// ErrSingular is returned by solves when the factorization is singular.
	ErrSingular = errors.New("matrix: singular matrix")

	// ErrNaNInf signals a NaN or ±Inf value at ingestion under the finite-value policy.
	ErrNaNInf = errors.New("matrix: NaN or Inf encountered")

	// ErrNilMatrix indicates that a nil *Sparse was used.
	ErrNilMatrix = errors.New("matrix: nil receiver")

	// ErrStructuralZero is returned by Set on an entry outside the pattern.
	ErrStructuralZero = errors.New("matrix: entry is a structural zero")
)

// Operation tags for uniform error wrapping.
const (
	opNew       = "New"
	opAt        = "At"
	opSet       = "Set"
	opBinary    = "Binary"
	opMtimes    = "Mtimes"
	opDot       = "Dot"
	opReshape   = "Reshape"
	opConcat    = "Concat"
	opFromDense = "FromDense"
)

// matrixErrorf wraps err with an operation tag, preserving it for errors.Is.
// Use only when err != nil.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}
