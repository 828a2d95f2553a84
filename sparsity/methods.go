// SPDX-License-Identifier: MIT

package sparsity

import (
	"fmt"
	"strings"
)

// Rows returns the number of rows.
func (s Sparsity) Rows() int { return s.nrow }

// Cols returns the number of columns.
func (s Sparsity) Cols() int { return s.ncol }

// Shape returns (rows, cols).
func (s Sparsity) Shape() (int, int) { return s.nrow, s.ncol }

// Nnz returns the number of structural nonzeros.
func (s Sparsity) Nnz() int { return len(s.row) }

// Numel returns rows*cols.
func (s Sparsity) Numel() int { return s.nrow * s.ncol }

// ColInd exposes the column offsets (length Cols()+1). Read-only.
func (s Sparsity) ColInd() []int {
	if s.colind == nil {
		return []int{0}
	}
	return s.colind
}

// RowInd exposes the row index of every nonzero. Read-only.
func (s Sparsity) RowInd() []int { return s.row }

// Columns returns the column index of every nonzero.
// Complexity: O(nnz).
func (s Sparsity) Columns() []int {
	out := make([]int, len(s.row))
	for c := 0; c < s.ncol; c++ {
		for el := s.colind[c]; el < s.colind[c+1]; el++ {
			out[el] = c
		}
	}
	return out
}

// IsDense reports whether every entry is structurally nonzero.
func (s Sparsity) IsDense() bool { return len(s.row) == s.nrow*s.ncol }

// IsScalar reports a 1×1 shape (dense or not).
func (s Sparsity) IsScalar() bool { return s.nrow == 1 && s.ncol == 1 }

// IsDenseScalar reports a 1×1 shape with its single entry present.
func (s Sparsity) IsDenseScalar() bool { return s.IsScalar() && len(s.row) == 1 }

// IsEmpty reports a shape with zero elements.
func (s Sparsity) IsEmpty() bool { return s.nrow == 0 || s.ncol == 0 }

// IsSquare reports rows == cols.
func (s Sparsity) IsSquare() bool { return s.nrow == s.ncol }

// IsColumn reports a single-column shape.
func (s Sparsity) IsColumn() bool { return s.ncol == 1 }

// SameShape reports whether both patterns have identical dimensions.
func (s Sparsity) SameShape(o Sparsity) bool { return s.nrow == o.nrow && s.ncol == o.ncol }

// Equal reports identical shape and nonzero set.
// Complexity: O(ncol + nnz).
func (s Sparsity) Equal(o Sparsity) bool {
	if !s.SameShape(o) || len(s.row) != len(o.row) {
		return false
	}
	for c := 0; c < s.ncol; c++ {
		if s.colind[c+1] != o.colind[c+1] {
			return false
		}
	}
	for k := range s.row {
		if s.row[k] != o.row[k] {
			return false
		}
	}
	return true
}

func (s Sparsity) checkIndex(i, j int) {
	if i < 0 || i >= s.nrow || j < 0 || j >= s.ncol {
		panic(fmt.Sprintf("sparsity: index (%d,%d) outside %dx%d", i, j, s.nrow, s.ncol))
	}
}

// NZIndex returns the nonzero index of entry (i, j); ok is false when the
// entry is a structural zero. Out-of-range (i, j) is a programming error and
// panics.
// Complexity: O(log nnz_col).
func (s Sparsity) NZIndex(i, j int) (int, bool) {
	s.checkIndex(i, j)
	lo, hi := s.colind[j], s.colind[j+1]
	// binary search in the sorted rows of column j
	for lo < hi {
		mid := (lo + hi) / 2
		switch r := s.row[mid]; {
		case r == i:
			return mid, true
		case r < i:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return -1, false
}

// HasNZ reports whether entry (i, j) is structurally nonzero. Panics when out of range.
func (s Sparsity) HasNZ(i, j int) bool {
	_, ok := s.NZIndex(i, j)
	return ok
}

// NZMap locates the nonzeros of sub (same shape) inside s: out[k] is the
// nonzero index in s of the k-th nonzero of sub, or -1 when s lacks it.
// Complexity: O(ncol + nnz(s) + nnz(sub)).
func (s Sparsity) NZMap(sub Sparsity) []int {
	if !s.SameShape(sub) {
		panic(fmt.Sprintf("sparsity: NZMap shape %dx%d vs %dx%d", s.nrow, s.ncol, sub.nrow, sub.ncol))
	}
	out := make([]int, len(sub.row))
	for c := 0; c < s.ncol; c++ {
		el := s.colind[c]
		for k := sub.colind[c]; k < sub.colind[c+1]; k++ {
			r := sub.row[k]
			for el < s.colind[c+1] && s.row[el] < r {
				el++
			}
			if el < s.colind[c+1] && s.row[el] == r {
				out[k] = el
			} else {
				out[k] = -1
			}
		}
	}
	return out
}

// IsSubsetOf reports whether every nonzero of s is a nonzero of o.
func (s Sparsity) IsSubsetOf(o Sparsity) bool {
	if !s.SameShape(o) {
		return false
	}
	for _, k := range o.NZMap(s) {
		if k < 0 {
			return false
		}
	}
	return true
}

// Transpose returns the transposed pattern and, for every nonzero of the
// result, the index of the corresponding nonzero in s.
// Complexity: O(nrow + ncol + nnz).
func (s Sparsity) Transpose() (Sparsity, []int) {
	nnz := len(s.row)
	// 1. Count entries per row (= per column of the result)
	colind := make([]int, s.nrow+1)
	for _, r := range s.row {
		colind[r+1]++
	}
	for r := 0; r < s.nrow; r++ {
		colind[r+1] += colind[r]
	}
	// 2. Scatter in column order so rows of the result stay increasing
	next := append([]int(nil), colind[:s.nrow]...)
	row := make([]int, nnz)
	mapping := make([]int, nnz)
	for c := 0; c < s.ncol; c++ {
		for el := s.colind[c]; el < s.colind[c+1]; el++ {
			r := s.row[el]
			dst := next[r]
			next[r]++
			row[dst] = c
			mapping[dst] = el
		}
	}

	return build(s.ncol, s.nrow, colind, row), mapping
}

// T returns the transposed pattern without the mapping.
func (s Sparsity) T() Sparsity {
	t, _ := s.Transpose()
	return t
}

// Union returns the structural union of s and o (same shape) together with a
// tag for every nonzero of the result telling where it came from.
// Complexity: O(ncol + nnz(s) + nnz(o)).
func (s Sparsity) Union(o Sparsity) (Sparsity, []Tag) {
	if !s.SameShape(o) {
		panic(fmt.Sprintf("sparsity: Union shape %dx%d vs %dx%d", s.nrow, s.ncol, o.nrow, o.ncol))
	}
	colind := make([]int, s.ncol+1)
	row := make([]int, 0, len(s.row)+len(o.row))
	tags := make([]Tag, 0, cap(row))
	for c := 0; c < s.ncol; c++ {
		a, ae := s.colind[c], s.colind[c+1]
		b, be := o.colind[c], o.colind[c+1]
		// merge two sorted row lists
		for a < ae || b < be {
			switch {
			case b == be || (a < ae && s.row[a] < o.row[b]):
				row = append(row, s.row[a])
				tags = append(tags, OnlyA)
				a++
			case a == ae || o.row[b] < s.row[a]:
				row = append(row, o.row[b])
				tags = append(tags, OnlyB)
				b++
			default:
				row = append(row, s.row[a])
				tags = append(tags, Both)
				a++
				b++
			}
		}
		colind[c+1] = len(row)
	}
	return build(s.nrow, s.ncol, colind, row), tags
}

// Intersect returns the nonzeros present in both s and o (same shape).
func (s Sparsity) Intersect(o Sparsity) Sparsity {
	u, tags := s.Union(o)
	return u.keep(func(k int) bool { return tags[k] == Both })
}

// Combine returns the pattern of an elementwise operation f(x, y) with x on s
// and y on o. zeroFirst states f(0, y) == 0 for all y, zeroSecond states
// f(x, 0) == 0 for all x; entries where the absent operand forces a zero
// result are dropped. Entries absent in both operands are never produced.
func (s Sparsity) Combine(o Sparsity, zeroFirst, zeroSecond bool) Sparsity {
	u, tags := s.Union(o)
	return u.keep(func(k int) bool {
		switch tags[k] {
		case OnlyA:
			return !zeroSecond
		case OnlyB:
			return !zeroFirst
		}
		return true
	})
}

// keep filters nonzeros by index.
func (s Sparsity) keep(pred func(k int) bool) Sparsity {
	colind := make([]int, s.ncol+1)
	row := make([]int, 0, len(s.row))
	for c := 0; c < s.ncol; c++ {
		for el := s.colind[c]; el < s.colind[c+1]; el++ {
			if pred(el) {
				row = append(row, s.row[el])
			}
		}
		colind[c+1] = len(row)
	}
	return build(s.nrow, s.ncol, colind, row)
}

// Reshape reinterprets the pattern with a new shape of the same number of
// elements (column-major). Nonzero order is preserved.
func (s Sparsity) Reshape(nrow, ncol int) (Sparsity, error) {
	if nrow < 0 || ncol < 0 {
		return Sparsity{}, fmt.Errorf("Reshape(%d,%d): %w", nrow, ncol, ErrBadShape)
	}
	if nrow*ncol != s.Numel() {
		return Sparsity{}, fmt.Errorf("Reshape %dx%d -> %dx%d: %w", s.nrow, s.ncol, nrow, ncol, ErrDimensionMismatch)
	}
	colind := make([]int, ncol+1)
	row := make([]int, len(s.row))
	for c := 0; c < s.ncol; c++ {
		for el := s.colind[c]; el < s.colind[c+1]; el++ {
			lin := c*s.nrow + s.row[el]
			nc := lin / nrow
			row[el] = lin % nrow
			colind[nc+1]++
		}
	}
	for c := 0; c < ncol; c++ {
		colind[c+1] += colind[c]
	}
	return build(nrow, ncol, colind, row), nil
}

// MatMul returns the pattern of the product x*y.
// Complexity: O(sum over nonzeros y(k,j) of nnz(x(:,k))) plus a row marker.
func MatMul(x, y Sparsity) (Sparsity, error) {
	if x.ncol != y.nrow {
		return Sparsity{}, fmt.Errorf("MatMul %dx%d * %dx%d: %w", x.nrow, x.ncol, y.nrow, y.ncol, ErrDimensionMismatch)
	}
	mark := make([]int, x.nrow)
	for i := range mark {
		mark[i] = -1
	}
	colind := make([]int, y.ncol+1)
	var row []int
	for j := 0; j < y.ncol; j++ {
		start := len(row)
		for el := y.colind[j]; el < y.colind[j+1]; el++ {
			k := y.row[el]
			for xe := x.colind[k]; xe < x.colind[k+1]; xe++ {
				r := x.row[xe]
				if mark[r] != j {
					mark[r] = j
					row = append(row, r)
				}
			}
		}
		sortInts(row[start:])
		colind[j+1] = len(row)
	}
	return build(x.nrow, y.ncol, colind, row), nil
}

// sortInts is an insertion sort; column segments are short.
func sortInts(a []int) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j-1] > a[j]; j-- {
			a[j-1], a[j] = a[j], a[j-1]
		}
	}
}

// String renders the pattern compactly, e.g. "3x3,3nz".
func (s Sparsity) String() string {
	switch {
	case s.IsDense():
		return fmt.Sprintf("%dx%d", s.nrow, s.ncol)
	default:
		return fmt.Sprintf("%dx%d,%dnz", s.nrow, s.ncol, len(s.row))
	}
}

// Spy renders the pattern as rows of '*' and '.', one line per row.
func (s Sparsity) Spy() string {
	var b strings.Builder
	for i := 0; i < s.nrow; i++ {
		for j := 0; j < s.ncol; j++ {
			if s.HasNZ(i, j) {
				b.WriteByte('*')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
