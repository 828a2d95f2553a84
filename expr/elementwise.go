// SPDX-License-Identifier: MIT

package expr

import (
	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/ops"
	"github.com/katalvlaran/symad/sparsity"
)

// EqualityDepth bounds the IsEqual recursion used by construction-time
// simplifications such as x-x -> 0.
const EqualityDepth = 2

// Unary applies an elementwise unary operation.
//
// Pattern: x's pattern when op(0) == 0; otherwise x is first projected onto
// the dense pattern so the stored dependency already carries every entry the
// result has, and structural zeros evaluate to op(0).
// Errors: ErrNilNode, ErrUnsupported.
func Unary(op ops.Op, x *Node) (*Node, error) {
	// 1. Validate
	if x == nil {
		return nil, exprErrorf(op.String(), ErrNilNode)
	}
	if !op.IsUnary() {
		return nil, exprErrorf(op.String(), ErrUnsupported)
	}
	// 2. Constant folding through the numeric kernel
	if x.IsConstant() {
		return Const(matrix.Unary(op, x.val)), nil
	}
	rp := matrix.UnaryPattern(op, x.sp)
	if rp.Nnz() == 0 {
		return Zeros(rp), nil
	}
	// 3. Simplification
	if op == ops.OpNeg && x.op == ops.OpNeg {
		return x.deps[0], nil
	}
	// 4. Densification
	x = project(x, rp)

	return newNode(op, rp, x), nil
}

// Binary applies an elementwise binary operation.
//
// Shapes must match, or one operand must be 1×1 (scalar-matrix and
// matrix-scalar broadcasting). The result pattern follows
// matrix.BinaryPattern; operands whose pattern differs from the result are
// wrapped in Project nodes, so evaluation works nonzero by nonzero.
// Errors: ErrNilNode, ErrUnsupported, ErrDimensionMismatch.
func Binary(op ops.Op, x, y *Node) (*Node, error) {
	// 1. Validate
	if x == nil || y == nil {
		return nil, exprErrorf(op.String(), ErrNilNode)
	}
	if !op.IsBinary() {
		return nil, exprErrorf(op.String(), ErrUnsupported)
	}
	kind, err := matrix.ClassifyBinary(x.sp, y.sp)
	if err != nil {
		return nil, exprErrorf(op.String(), ErrDimensionMismatch)
	}
	// 2. Constant folding
	if x.IsConstant() && y.IsConstant() {
		return Const(matrix.MustBinary(op, x.val, y.val)), nil
	}
	rp, _ := matrix.BinaryPattern(op, x.sp, y.sp)
	if rp.Nnz() == 0 {
		return Zeros(rp), nil
	}
	// 3. Simplification
	if s := simplify(op, x, y, rp); s != nil {
		return s, nil
	}
	// 4. Bring operands onto the result pattern
	switch kind {
	case matrix.ScalarMatrix:
		x = project(x, sparsity.Scalar())
		y = project(y, rp)
	case matrix.MatrixScalar:
		x = project(x, rp)
		y = project(y, sparsity.Scalar())
	default:
		x = project(x, rp)
		y = project(y, rp)
	}

	return newNode(op, rp, x, y), nil
}

// simplify returns a node equivalent to op(x, y) with pattern rp, or nil.
// The rewrites hold for finite values only: x-x folds to zeros, so a graph
// that feeds Inf or NaN into it evaluates to 0 where IEEE arithmetic would
// give NaN.
func simplify(op ops.Op, x, y *Node, rp sparsity.Sparsity) *Node {
	same := func(n *Node) bool { return n.sp.Equal(rp) }
	switch op {
	case ops.OpAdd:
		switch {
		case y.IsZero() && same(x):
			return x
		case x.IsZero() && same(y):
			return y
		case x.op == ops.OpSub && IsEqual(x.deps[1], y, EqualityDepth) && same(x.deps[0]):
			// (a-b)+b
			return x.deps[0]
		}
	case ops.OpSub:
		switch {
		case y.IsZero() && same(x):
			return x
		case x.IsZero() && same(y):
			if n, err := Unary(ops.OpNeg, y); err == nil {
				return n
			}
		case IsEqual(x, y, EqualityDepth):
			return Zeros(rp)
		case x.op == ops.OpAdd && IsEqual(x.deps[0], y, EqualityDepth) && same(x.deps[1]):
			// (a+b)-a
			return x.deps[1]
		case x.op == ops.OpAdd && IsEqual(x.deps[1], y, EqualityDepth) && same(x.deps[0]):
			// (a+b)-b
			return x.deps[0]
		}
	case ops.OpMul:
		switch {
		case y.IsOne() && same(x):
			return x
		case x.IsOne() && same(y):
			return y
		}
	case ops.OpDiv:
		if y.IsOne() && same(x) {
			return x
		}
	}
	return nil
}

// project returns x restricted or widened to sp (same shape), folding constants.
func project(x *Node, sp sparsity.Sparsity) *Node {
	if x.sp.Equal(sp) {
		return x
	}
	if x.IsConstant() {
		return Const(matrix.Project(x.val, sp))
	}
	return newNode(ops.OpProject, sp, x)
}

// Add returns x+y.
func Add(x, y *Node) (*Node, error) { return Binary(ops.OpAdd, x, y) }

// Sub returns x-y.
func Sub(x, y *Node) (*Node, error) { return Binary(ops.OpSub, x, y) }

// Mul returns the elementwise product x.*y.
func Mul(x, y *Node) (*Node, error) { return Binary(ops.OpMul, x, y) }

// Div returns the elementwise quotient x./y.
func Div(x, y *Node) (*Node, error) { return Binary(ops.OpDiv, x, y) }

// Pow returns x.^y.
func Pow(x, y *Node) (*Node, error) { return Binary(ops.OpPow, x, y) }

// Neg returns -x.
func Neg(x *Node) (*Node, error) { return Unary(ops.OpNeg, x) }

// Sin returns sin(x).
func Sin(x *Node) (*Node, error) { return Unary(ops.OpSin, x) }

// Cos returns cos(x).
func Cos(x *Node) (*Node, error) { return Unary(ops.OpCos, x) }

// Exp returns exp(x).
func Exp(x *Node) (*Node, error) { return Unary(ops.OpExp, x) }

// Log returns log(x).
func Log(x *Node) (*Node, error) { return Unary(ops.OpLog, x) }

// Sqrt returns sqrt(x).
func Sqrt(x *Node) (*Node, error) { return Unary(ops.OpSqrt, x) }

// Sq returns x.^2.
func Sq(x *Node) (*Node, error) { return Unary(ops.OpSq, x) }
