// SPDX-License-Identifier: MIT

package matrix

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/symad/sparsity"
)

// Sparse is a numeric matrix in compressed-column storage: a sparsity pattern
// plus one value per structural nonzero, in pattern order. Entries outside the
// pattern are structural zeros. Kernels never mutate their operands.
type Sparse struct {
	sp sparsity.Sparsity
	nz []float64
}

// New wraps pattern and nonzero values. nz is copied.
// Errors: ErrDimensionMismatch when len(nz) != sp.Nnz(), ErrNaNInf under the
// finite-value policy.
func New(sp sparsity.Sparsity, nz []float64, opts ...Option) (*Sparse, error) {
	o := gatherOptions(opts...)
	if len(nz) != sp.Nnz() {
		return nil, matrixErrorf(opNew, fmt.Errorf("%d values for %d nonzeros: %w", len(nz), sp.Nnz(), ErrDimensionMismatch))
	}
	if o.validateNaNInf {
		if err := validateFinite(nz); err != nil {
			return nil, matrixErrorf(opNew, err)
		}
	}
	return &Sparse{sp: sp, nz: append([]float64(nil), nz...)}, nil
}

// wrap takes ownership of nz without validation.
func wrap(sp sparsity.Sparsity, nz []float64) *Sparse {
	if len(nz) != sp.Nnz() {
		panic(fmt.Sprintf("matrix: %d values for pattern %v", len(nz), sp))
	}
	return &Sparse{sp: sp, nz: nz}
}

// Wrap builds a matrix taking ownership of nz; len(nz) must equal sp.Nnz().
// It is the allocation-free constructor used by evaluators.
func Wrap(sp sparsity.Sparsity, nz []float64) *Sparse { return wrap(sp, nz) }

// Zeros returns a matrix with pattern sp and all nonzeros set to 0.
func Zeros(sp sparsity.Sparsity) *Sparse { return wrap(sp, make([]float64, sp.Nnz())) }

// Full returns a matrix with pattern sp and all nonzeros set to v.
func Full(sp sparsity.Sparsity, v float64) *Sparse {
	nz := make([]float64, sp.Nnz())
	for k := range nz {
		nz[k] = v
	}
	return wrap(sp, nz)
}

// Scalar returns the dense 1×1 matrix v.
func Scalar(v float64) *Sparse { return wrap(sparsity.Scalar(), []float64{v}) }

// Column returns the dense column vector of vals.
func Column(vals ...float64) *Sparse {
	return wrap(sparsity.Dense(len(vals), 1), append([]float64(nil), vals...))
}

// Identity returns the n×n identity with a diagonal pattern.
func Identity(n int) *Sparse { return Full(sparsity.Diag(n), 1) }

// Sparsity returns the pattern.
func (m *Sparse) Sparsity() sparsity.Sparsity { return m.sp }

// Nonzeros exposes the values in pattern order. Read-only for callers.
func (m *Sparse) Nonzeros() []float64 { return m.nz }

// Rows returns the row count.
func (m *Sparse) Rows() int { return m.sp.Rows() }

// Cols returns the column count.
func (m *Sparse) Cols() int { return m.sp.Cols() }

// Nnz returns the number of structural nonzeros.
func (m *Sparse) Nnz() int { return len(m.nz) }

// Clone returns a deep copy of the values; the pattern is shared.
func (m *Sparse) Clone() *Sparse { return wrap(m.sp, append([]float64(nil), m.nz...)) }

// At returns entry (i, j), 0 for structural zeros.
// Errors: ErrOutOfRange.
func (m *Sparse) At(i, j int) (float64, error) {
	if i < 0 || i >= m.Rows() || j < 0 || j >= m.Cols() {
		return 0, matrixErrorf(opAt, ErrOutOfRange)
	}
	if k, ok := m.sp.NZIndex(i, j); ok {
		return m.nz[k], nil
	}
	return 0, nil
}

// Set overwrites structural nonzero (i, j) in place.
// Errors: ErrOutOfRange, ErrStructuralZero.
func (m *Sparse) Set(i, j int, v float64) error {
	if i < 0 || i >= m.Rows() || j < 0 || j >= m.Cols() {
		return matrixErrorf(opSet, ErrOutOfRange)
	}
	k, ok := m.sp.NZIndex(i, j)
	if !ok {
		return matrixErrorf(opSet, ErrStructuralZero)
	}
	m.nz[k] = v
	return nil
}

// Value returns the single value of a 1×1 matrix (0 when structurally zero).
// Panics on other shapes.
func (m *Sparse) Value() float64 {
	if !m.sp.IsScalar() {
		panic(fmt.Sprintf("matrix: Value of %dx%d matrix", m.Rows(), m.Cols()))
	}
	if len(m.nz) == 0 {
		return 0
	}
	return m.nz[0]
}

// IsZero reports whether every stored value is 0 (true for empty patterns).
func (m *Sparse) IsZero() bool {
	for _, v := range m.nz {
		if v != 0 {
			return false
		}
	}
	return true
}

// IsValue reports a dense pattern with every entry equal to v.
func (m *Sparse) IsValue(v float64) bool {
	if !m.sp.IsDense() {
		return false
	}
	for _, x := range m.nz {
		if x != v {
			return false
		}
	}
	return true
}

// Equal reports identical pattern and bitwise-equal values.
func (m *Sparse) Equal(o *Sparse) bool {
	if !m.sp.Equal(o.sp) {
		return false
	}
	for k := range m.nz {
		if m.nz[k] != o.nz[k] {
			return false
		}
	}
	return true
}

// String prints the matrix densely, row by row, structural zeros as "00".
func (m *Sparse) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < m.Rows(); i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		for j := 0; j < m.Cols(); j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			if k, ok := m.sp.NZIndex(i, j); ok {
				fmt.Fprintf(&b, "%g", m.nz[k])
			} else {
				b.WriteString("00")
			}
		}
	}
	b.WriteByte(']')
	return b.String()
}
