// SPDX-License-Identifier: MIT

package sparsity

import "fmt"

// Horzcat places the patterns side by side. All non-empty parts must share the
// row count; 0×0 parts are skipped. For every part the returned slice maps
// each of its nonzeros to the nonzero index in the result.
// Complexity: O(total ncol + total nnz).
func Horzcat(parts ...Sparsity) (Sparsity, [][]int, error) {
	nrow := -1
	for _, p := range parts {
		if p.nrow == 0 && p.ncol == 0 {
			continue
		}
		if nrow >= 0 && p.nrow != nrow {
			return Sparsity{}, nil, fmt.Errorf("Horzcat: rows %d vs %d: %w", nrow, p.nrow, ErrDimensionMismatch)
		}
		nrow = p.nrow
	}
	if nrow < 0 {
		nrow = 0
	}
	colind := []int{0}
	var row []int
	maps := make([][]int, len(parts))
	for i, p := range parts {
		m := make([]int, len(p.row))
		for k := range m {
			m[k] = len(row) + k
		}
		maps[i] = m
		base := len(row)
		row = append(row, p.row...)
		for c := 0; c < p.ncol; c++ {
			colind = append(colind, base+p.colind[c+1])
		}
	}
	return build(nrow, len(colind)-1, colind, row), maps, nil
}

// Vertcat stacks the patterns on top of each other. All non-empty parts must
// share the column count. The mappings have the Horzcat meaning.
// Complexity: O(total nnz + parts*ncol).
func Vertcat(parts ...Sparsity) (Sparsity, [][]int, error) {
	ncol := -1
	nrow := 0
	for _, p := range parts {
		if p.nrow == 0 && p.ncol == 0 {
			continue
		}
		if ncol >= 0 && p.ncol != ncol {
			return Sparsity{}, nil, fmt.Errorf("Vertcat: cols %d vs %d: %w", ncol, p.ncol, ErrDimensionMismatch)
		}
		ncol = p.ncol
		nrow += p.nrow
	}
	if ncol < 0 {
		ncol = 0
	}
	maps := make([][]int, len(parts))
	for i, p := range parts {
		maps[i] = make([]int, len(p.row))
	}
	colind := make([]int, ncol+1)
	var row []int
	// 1. Walk column by column, appending each part's slice with a row offset
	for c := 0; c < ncol; c++ {
		off := 0
		for i, p := range parts {
			if p.nrow == 0 && p.ncol == 0 {
				continue
			}
			for el := p.colind[c]; el < p.colind[c+1]; el++ {
				maps[i][el] = len(row)
				row = append(row, p.row[el]+off)
			}
			off += p.nrow
		}
		colind[c+1] = len(row)
	}
	return build(nrow, ncol, colind, row), maps, nil
}

// Diagcat places the patterns along the diagonal of a block matrix.
func Diagcat(parts ...Sparsity) (Sparsity, [][]int) {
	nrow, ncol := 0, 0
	for _, p := range parts {
		nrow += p.nrow
		ncol += p.ncol
	}
	colind := make([]int, 0, ncol+1)
	colind = append(colind, 0)
	var row []int
	maps := make([][]int, len(parts))
	roff := 0
	for i, p := range parts {
		m := make([]int, len(p.row))
		for c := 0; c < p.ncol; c++ {
			for el := p.colind[c]; el < p.colind[c+1]; el++ {
				m[el] = len(row)
				row = append(row, p.row[el]+roff)
			}
			colind = append(colind, len(row))
		}
		maps[i] = m
		roff += p.nrow
	}
	return build(nrow, ncol, colind, row), maps
}

func checkOffsets(offsets []int, n int, ctx string) error {
	if len(offsets) < 2 || offsets[0] != 0 || offsets[len(offsets)-1] != n {
		return fmt.Errorf("%s: offsets must run from 0 to %d: %w", ctx, n, ErrIndex)
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return fmt.Errorf("%s: offsets not monotone at %d: %w", ctx, i, ErrIndex)
		}
	}
	return nil
}

// Horzsplit cuts s into column blocks [offsets[i], offsets[i+1]). It returns
// the block patterns and, per block, the nonzero indices of s it takes.
func Horzsplit(s Sparsity, offsets []int) ([]Sparsity, [][]int, error) {
	if err := checkOffsets(offsets, s.ncol, "Horzsplit"); err != nil {
		return nil, nil, err
	}
	n := len(offsets) - 1
	out := make([]Sparsity, n)
	nz := make([][]int, n)
	for i := 0; i < n; i++ {
		c0, c1 := offsets[i], offsets[i+1]
		first := s.colind[c0]
		colind := make([]int, c1-c0+1)
		for c := c0; c <= c1; c++ {
			colind[c-c0] = s.colind[c] - first
		}
		last := s.colind[c1]
		row := append([]int(nil), s.row[first:last]...)
		idx := make([]int, last-first)
		for k := range idx {
			idx[k] = first + k
		}
		out[i] = build(s.nrow, c1-c0, colind, row)
		nz[i] = idx
	}
	return out, nz, nil
}

// Vertsplit cuts s into row blocks [offsets[i], offsets[i+1]).
func Vertsplit(s Sparsity, offsets []int) ([]Sparsity, [][]int, error) {
	if err := checkOffsets(offsets, s.nrow, "Vertsplit"); err != nil {
		return nil, nil, err
	}
	n := len(offsets) - 1
	colinds := make([][]int, n)
	rows := make([][]int, n)
	nz := make([][]int, n)
	for i := range colinds {
		colinds[i] = make([]int, s.ncol+1)
	}
	for c := 0; c < s.ncol; c++ {
		b := 0
		for el := s.colind[c]; el < s.colind[c+1]; el++ {
			r := s.row[el]
			for r >= offsets[b+1] {
				b++
			}
			rows[b] = append(rows[b], r-offsets[b])
			nz[b] = append(nz[b], el)
		}
		for i := 0; i < n; i++ {
			colinds[i][c+1] = len(rows[i])
		}
	}
	out := make([]Sparsity, n)
	for i := 0; i < n; i++ {
		if nz[i] == nil {
			nz[i] = []int{}
		}
		out[i] = build(offsets[i+1]-offsets[i], s.ncol, colinds[i], rows[i])
	}
	return out, nz, nil
}
