// SPDX-License-Identifier: MIT

package sx

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/symad/sparsity"
)

// Matrix is a sparse matrix whose nonzeros are scalar expressions.
type Matrix struct {
	sp sparsity.Sparsity
	nz []*Node
}

// NewMatrix pairs a pattern with one expression per nonzero.
// Errors: ErrDimensionMismatch.
func NewMatrix(sp sparsity.Sparsity, nz []*Node) (Matrix, error) {
	if len(nz) != sp.Nnz() {
		return Matrix{}, fmt.Errorf("NewMatrix: %d nonzeros for %v: %w", len(nz), sp, ErrDimensionMismatch)
	}
	return Matrix{sp: sp, nz: append([]*Node(nil), nz...)}, nil
}

// SymMatrix creates one symbol per nonzero of sp, named name_k, or just name
// for a single nonzero.
func SymMatrix(name string, sp sparsity.Sparsity) Matrix {
	nz := make([]*Node, sp.Nnz())
	for k := range nz {
		if len(nz) == 1 {
			nz[k] = Sym(name)
		} else {
			nz[k] = Sym(fmt.Sprintf("%s_%d", name, k))
		}
	}
	return Matrix{sp: sp, nz: nz}
}

// Sparsity returns the pattern.
func (m Matrix) Sparsity() sparsity.Sparsity { return m.sp }

// Nonzeros returns the expressions in pattern order. Read-only.
func (m Matrix) Nonzeros() []*Node { return m.nz }

// Nnz returns the number of structural nonzeros.
func (m Matrix) Nnz() int { return len(m.nz) }

// String prints the matrix row by row, structural zeros as "00".
func (m Matrix) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < m.sp.Rows(); i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		for j := 0; j < m.sp.Cols(); j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			if k, ok := m.sp.NZIndex(i, j); ok {
				b.WriteString(m.nz[k].String())
			} else {
				b.WriteString("00")
			}
		}
	}
	b.WriteByte(']')
	return b.String()
}
