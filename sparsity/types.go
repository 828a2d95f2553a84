// SPDX-License-Identifier: MIT

// Package sparsity: the compressed-column pattern type, its sentinel errors
// and constructors.
package sparsity

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors for pattern construction.
var (
	// ErrBadShape is returned when a requested shape has a negative extent.
	ErrBadShape = errors.New("sparsity: invalid shape")

	// ErrInvalidPattern indicates colind/row arrays violating the CCS invariants.
	ErrInvalidPattern = errors.New("sparsity: invalid compressed-column pattern")

	// ErrDimensionMismatch indicates incompatible shapes between two patterns.
	ErrDimensionMismatch = errors.New("sparsity: dimension mismatch")

	// ErrIndex indicates a triplet or offset index outside the shape.
	ErrIndex = errors.New("sparsity: index out of range")
)

// Tag labels the origin of a nonzero of a Union result.
type Tag uint8

const (
	OnlyA Tag = iota + 1 // present in the receiver only
	OnlyB                // present in the argument only
	Both                 // present in both patterns
)

// Sparsity is an immutable compressed-column (CCS) description of the
// structurally nonzero entries of an nrow×ncol matrix.
//
// colind has length ncol+1, starts at 0, is non-decreasing and ends at nnz.
// row holds the row index of every nonzero; within a column the row indices
// are strictly increasing. The slices are shared between copies of a value and
// are never written after construction.
//
// The zero value is the 0×0 pattern.
type Sparsity struct {
	nrow, ncol int
	colind     []int
	row        []int
}

// New validates and builds a pattern from CCS arrays. The arrays are copied.
// Complexity: O(ncol + nnz).
func New(nrow, ncol int, colind, row []int) (Sparsity, error) {
	// 1. Shape
	if nrow < 0 || ncol < 0 {
		return Sparsity{}, fmt.Errorf("New(%d,%d): %w", nrow, ncol, ErrBadShape)
	}
	// 2. Column offsets
	if len(colind) != ncol+1 || colind[0] != 0 || colind[ncol] != len(row) {
		return Sparsity{}, fmt.Errorf("New: colind: %w", ErrInvalidPattern)
	}
	for c := 0; c < ncol; c++ {
		if colind[c] > colind[c+1] {
			return Sparsity{}, fmt.Errorf("New: colind not monotone at %d: %w", c, ErrInvalidPattern)
		}
		// 3. Row indices strictly increasing within the column
		for el := colind[c]; el < colind[c+1]; el++ {
			r := row[el]
			if r < 0 || r >= nrow {
				return Sparsity{}, fmt.Errorf("New: row %d outside [0,%d): %w", r, nrow, ErrInvalidPattern)
			}
			if el > colind[c] && row[el-1] >= r {
				return Sparsity{}, fmt.Errorf("New: rows not increasing in column %d: %w", c, ErrInvalidPattern)
			}
		}
	}

	return Sparsity{
		nrow:   nrow,
		ncol:   ncol,
		colind: append([]int(nil), colind...),
		row:    append([]int(nil), row...),
	}, nil
}

// build wraps arrays known to satisfy the invariants without copying.
func build(nrow, ncol int, colind, row []int) Sparsity {
	return Sparsity{nrow: nrow, ncol: ncol, colind: colind, row: row}
}

// Zeros returns the nrow×ncol pattern without any structural nonzero.
func Zeros(nrow, ncol int) Sparsity {
	if nrow < 0 || ncol < 0 {
		panic(fmt.Sprintf("sparsity: Zeros(%d,%d): negative shape", nrow, ncol))
	}
	return build(nrow, ncol, make([]int, ncol+1), nil)
}

// Empty is an alias of Zeros.
func Empty(nrow, ncol int) Sparsity { return Zeros(nrow, ncol) }

// Dense returns the fully populated nrow×ncol pattern.
// Complexity: O(nrow*ncol).
func Dense(nrow, ncol int) Sparsity {
	if nrow < 0 || ncol < 0 {
		panic(fmt.Sprintf("sparsity: Dense(%d,%d): negative shape", nrow, ncol))
	}
	colind := make([]int, ncol+1)
	row := make([]int, nrow*ncol)
	for c := 0; c < ncol; c++ {
		colind[c+1] = colind[c] + nrow
		for r := 0; r < nrow; r++ {
			row[c*nrow+r] = r
		}
	}
	return build(nrow, ncol, colind, row)
}

// Scalar returns the dense 1×1 pattern.
func Scalar() Sparsity { return Dense(1, 1) }

// Diag returns the n×n pattern with nonzeros on the diagonal only.
func Diag(n int) Sparsity {
	colind := make([]int, n+1)
	row := make([]int, n)
	for i := 0; i < n; i++ {
		colind[i+1] = i + 1
		row[i] = i
	}
	return build(n, n, colind, row)
}

// Triplet builds a pattern from (row, col) coordinate lists. Duplicate entries
// collapse into one nonzero. The returned mapping gives, for every input
// entry k, the nonzero index it landed on.
// Complexity: O(k log k + ncol).
func Triplet(nrow, ncol int, rows, cols []int) (Sparsity, []int, error) {
	if nrow < 0 || ncol < 0 {
		return Sparsity{}, nil, fmt.Errorf("Triplet(%d,%d): %w", nrow, ncol, ErrBadShape)
	}
	if len(rows) != len(cols) {
		return Sparsity{}, nil, fmt.Errorf("Triplet: %d rows vs %d cols: %w", len(rows), len(cols), ErrDimensionMismatch)
	}
	// 1. Validate and order entries column-major
	idx := make([]int, len(rows))
	for k := range rows {
		if rows[k] < 0 || rows[k] >= nrow || cols[k] < 0 || cols[k] >= ncol {
			return Sparsity{}, nil, fmt.Errorf("Triplet: (%d,%d) in %dx%d: %w", rows[k], cols[k], nrow, ncol, ErrIndex)
		}
		idx[k] = k
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := idx[a], idx[b]
		if cols[ka] != cols[kb] {
			return cols[ka] < cols[kb]
		}
		return rows[ka] < rows[kb]
	})
	// 2. Emit unique nonzeros
	colind := make([]int, ncol+1)
	row := make([]int, 0, len(rows))
	mapping := make([]int, len(rows))
	prevR, prevC := -1, -1
	for _, k := range idx {
		r, c := rows[k], cols[k]
		if r != prevR || c != prevC {
			row = append(row, r)
			colind[c+1]++
			prevR, prevC = r, c
		}
		mapping[k] = len(row) - 1
	}
	// 3. Cumulative column offsets
	for c := 0; c < ncol; c++ {
		colind[c+1] += colind[c]
	}

	return build(nrow, ncol, colind, row), mapping, nil
}
