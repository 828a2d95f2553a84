// SPDX-License-Identifier: MIT

package expr

import (
	"fmt"

	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/ops"
	"github.com/katalvlaran/symad/sparsity"
)

func checkNil(tag string, xs ...*Node) error {
	for _, x := range xs {
		if x == nil {
			return exprErrorf(tag, ErrNilNode)
		}
	}
	return nil
}

// Transpose returns xᵀ. Transpose(Transpose(x)) is x.
func Transpose(x *Node) (*Node, error) {
	if err := checkNil("Transpose", x); err != nil {
		return nil, err
	}
	switch {
	case x.op == ops.OpTranspose:
		return x.deps[0], nil
	case x.IsConstant():
		return Const(matrix.Transpose(x.val)), nil
	case x.sp.IsScalar():
		return x, nil
	}
	return newNode(ops.OpTranspose, x.sp.T(), x), nil
}

// Reshape reinterprets x column-major with the same number of elements.
// Errors: ErrBadShape, ErrDimensionMismatch.
func Reshape(x *Node, rows, cols int) (*Node, error) {
	if err := checkNil("Reshape", x); err != nil {
		return nil, err
	}
	if rows < 0 || cols < 0 {
		return nil, exprErrorf("Reshape", ErrBadShape)
	}
	if rows == x.Rows() && cols == x.Cols() {
		return x, nil
	}
	sp, err := x.sp.Reshape(rows, cols)
	if err != nil {
		return nil, exprErrorf("Reshape", ErrDimensionMismatch)
	}
	if x.IsConstant() {
		m, _ := matrix.Reshape(x.val, rows, cols)
		return Const(m), nil
	}
	return newNode(ops.OpReshape, sp, x), nil
}

func patternsOf(xs []*Node) []sparsity.Sparsity {
	sps := make([]sparsity.Sparsity, len(xs))
	for i, x := range xs {
		sps[i] = x.sp
	}
	return sps
}

// Horzcat concatenates side by side. All non-empty parts share the row count.
// Errors: ErrNilNode, ErrDimensionMismatch.
func Horzcat(xs ...*Node) (*Node, error) {
	if err := checkNil("Horzcat", xs...); err != nil {
		return nil, err
	}
	if len(xs) == 1 {
		return xs[0], nil
	}
	sp, _, err := sparsity.Horzcat(patternsOf(xs)...)
	if err != nil {
		return nil, exprErrorf("Horzcat", fmt.Errorf("%v: %w", err, ErrDimensionMismatch))
	}
	return newNode(ops.OpHorzcat, sp, xs...), nil
}

// Vertcat stacks vertically. All non-empty parts share the column count.
// Errors: ErrNilNode, ErrDimensionMismatch.
func Vertcat(xs ...*Node) (*Node, error) {
	if err := checkNil("Vertcat", xs...); err != nil {
		return nil, err
	}
	if len(xs) == 1 {
		return xs[0], nil
	}
	sp, _, err := sparsity.Vertcat(patternsOf(xs)...)
	if err != nil {
		return nil, exprErrorf("Vertcat", fmt.Errorf("%v: %w", err, ErrDimensionMismatch))
	}
	return newNode(ops.OpVertcat, sp, xs...), nil
}

// Diagcat builds the block-diagonal matrix of xs.
func Diagcat(xs ...*Node) (*Node, error) {
	if err := checkNil("Diagcat", xs...); err != nil {
		return nil, err
	}
	if len(xs) == 1 {
		return xs[0], nil
	}
	sp, _ := sparsity.Diagcat(patternsOf(xs)...)
	return newNode(ops.OpDiagcat, sp, xs...), nil
}

// GetNonzeros builds a node with pattern sp whose k-th nonzero is the
// nz[k]-th nonzero of x. It expresses splits, indexing and nonzero gathers.
// Errors: ErrIndex.
func GetNonzeros(x *Node, sp sparsity.Sparsity, nz []int) (*Node, error) {
	if err := checkNil("GetNonzeros", x); err != nil {
		return nil, err
	}
	if len(nz) != sp.Nnz() {
		return nil, exprErrorf("GetNonzeros", fmt.Errorf("%d indices for %d nonzeros: %w", len(nz), sp.Nnz(), ErrIndex))
	}
	identity := sp.Equal(x.sp)
	for k, i := range nz {
		if i < 0 || i >= x.Nnz() {
			return nil, exprErrorf("GetNonzeros", fmt.Errorf("index %d outside [0,%d): %w", i, x.Nnz(), ErrIndex))
		}
		identity = identity && i == k
	}
	switch {
	case identity:
		return x, nil
	case sp.Nnz() == 0:
		return Zeros(sp), nil
	case x.IsConstant():
		return Const(matrix.GetNonzeros(x.val, sp, nz)), nil
	}
	n := newNode(ops.OpGetNonzeros, sp, x)
	n.nz = append([]int(nil), nz...)
	return n, nil
}

// Nonzeros returns the nonzeros of x as a dense column vector.
func Nonzeros(x *Node) *Node {
	nz := make([]int, x.Nnz())
	for k := range nz {
		nz[k] = k
	}
	n, _ := GetNonzeros(x, sparsity.Dense(len(nz), 1), nz)
	return n
}

// Horzsplit cuts x into column blocks [offsets[i], offsets[i+1]), one
// GetNonzeros node per block.
// Errors: ErrIndex.
func Horzsplit(x *Node, offsets []int) ([]*Node, error) {
	if err := checkNil("Horzsplit", x); err != nil {
		return nil, err
	}
	parts, nz, err := sparsity.Horzsplit(x.sp, offsets)
	if err != nil {
		return nil, exprErrorf("Horzsplit", fmt.Errorf("%v: %w", err, ErrIndex))
	}
	return gatherParts(x, parts, nz)
}

// Vertsplit cuts x into row blocks [offsets[i], offsets[i+1]).
// Errors: ErrIndex.
func Vertsplit(x *Node, offsets []int) ([]*Node, error) {
	if err := checkNil("Vertsplit", x); err != nil {
		return nil, err
	}
	parts, nz, err := sparsity.Vertsplit(x.sp, offsets)
	if err != nil {
		return nil, exprErrorf("Vertsplit", fmt.Errorf("%v: %w", err, ErrIndex))
	}
	return gatherParts(x, parts, nz)
}

func gatherParts(x *Node, parts []sparsity.Sparsity, nz [][]int) ([]*Node, error) {
	out := make([]*Node, len(parts))
	for i := range parts {
		n, err := GetNonzeros(x, parts[i], nz[i])
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// Project restricts or widens x to pattern sp of the same shape. Entries
// absent in x read as 0.
// Errors: ErrDimensionMismatch.
func Project(x *Node, sp sparsity.Sparsity) (*Node, error) {
	if err := checkNil("Project", x); err != nil {
		return nil, err
	}
	if !x.sp.SameShape(sp) {
		return nil, exprErrorf("Project", ErrDimensionMismatch)
	}
	if sp.Nnz() == 0 {
		return Zeros(sp), nil
	}
	return project(x, sp), nil
}

// Mtimes returns the matrix product x*y.
// Errors: ErrDimensionMismatch when x.Cols() != y.Rows().
func Mtimes(x, y *Node) (*Node, error) {
	if err := checkNil("Mtimes", x, y); err != nil {
		return nil, err
	}
	sp, err := sparsity.MatMul(x.sp, y.sp)
	if err != nil {
		return nil, exprErrorf("Mtimes", ErrDimensionMismatch)
	}
	switch {
	case sp.Nnz() == 0:
		return Zeros(sp), nil
	case x.IsConstant() && y.IsConstant():
		m, _ := matrix.Mtimes(x.val, y.val)
		return Const(m), nil
	}
	return newNode(ops.OpMtimes, sp, x, y), nil
}

// Solve returns the solution X of A*X = b using the named linear solver
// plugin. The result is dense.
// Errors: ErrNonSquare, ErrDimensionMismatch.
func Solve(a, b *Node, solver string) (*Node, error) {
	if err := checkNil("Solve", a, b); err != nil {
		return nil, err
	}
	if !a.sp.IsSquare() {
		return nil, exprErrorf("Solve", ErrNonSquare)
	}
	if a.Rows() != b.Rows() {
		return nil, exprErrorf("Solve", ErrDimensionMismatch)
	}
	n := newNode(ops.OpSolve, sparsity.Dense(a.Cols(), b.Cols()), a, b)
	n.solver = solver
	return n, nil
}

// Dot returns the scalar sum of x.*y over equal shapes.
// Errors: ErrDimensionMismatch.
func Dot(x, y *Node) (*Node, error) {
	if err := checkNil("Dot", x, y); err != nil {
		return nil, err
	}
	if !x.sp.SameShape(y.sp) {
		return nil, exprErrorf("Dot", ErrDimensionMismatch)
	}
	if x.IsConstant() && y.IsConstant() {
		v, _ := matrix.Dot(x.val, y.val)
		return Scalar(v), nil
	}
	return newNode(ops.OpDot, sparsity.Scalar(), x, y), nil
}

// Sum returns the sum of all entries of x.
func Sum(x *Node) (*Node, error) {
	if err := checkNil("Sum", x); err != nil {
		return nil, err
	}
	return Dot(x, Ones(x.sp))
}

// NormF returns the Frobenius norm of x.
func NormF(x *Node) (*Node, error) {
	if err := checkNil("NormF", x); err != nil {
		return nil, err
	}
	if x.IsConstant() {
		return Scalar(matrix.NormF(x.val)), nil
	}
	return newNode(ops.OpNormF, sparsity.Scalar(), x), nil
}

// Assert returns a node equal to x whose numeric evaluation fails with msg
// when the 1×1 condition cond evaluates to 0.
// Errors: ErrDimensionMismatch when cond is not 1×1.
func Assert(x, cond *Node, msg string) (*Node, error) {
	if err := checkNil("Assert", x, cond); err != nil {
		return nil, err
	}
	if !cond.sp.IsScalar() {
		return nil, exprErrorf("Assert", ErrDimensionMismatch)
	}
	n := newNode(ops.OpAssertion, x.sp, x, cond)
	n.msg = msg
	return n, nil
}
