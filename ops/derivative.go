// SPDX-License-Identifier: MIT

package ops

import (
	"fmt"
	"math"
)

// Algebra is the element arithmetic a generic kernel needs. It is implemented
// for float64 (Float64), for scalar symbolic expressions (package sx) and for
// matrix-valued symbolic expressions (package expr), so that one set of
// derivative rules serves numeric and symbolic evaluation alike.
type Algebra[T any] interface {
	// Const returns a scalar constant.
	Const(v float64) T
	// Unary applies a unary elementwise operation.
	Unary(op Op, x T) T
	// Binary applies a binary elementwise operation.
	Binary(op Op, x, y T) T
}

// Float64 is the numeric Algebra.
type Float64 struct{}

// Const returns v.
func (Float64) Const(v float64) float64 { return v }

// Unary evaluates op at x.
func (Float64) Unary(op Op, x float64) float64 { return Eval1(op, x) }

// Binary evaluates op at (x, y).
func (Float64) Binary(op Op, x, y float64) float64 { return Eval2(op, x, y) }

// Partials returns the partial derivatives of f = op(x, y) with respect to x
// and y, expressed in the algebra a. f must be the already computed result so
// rules such as d(exp x) = exp x can reuse it. For unary operations y is
// ignored and the second partial is zero.
func Partials[T any](a Algebra[T], op Op, x, y, f T) (T, T) {
	zero := a.Const(0)
	one := a.Const(1)
	switch op {
	case OpNeg:
		return a.Const(-1), zero
	case OpSqrt:
		return a.Binary(OpDiv, a.Const(0.5), f), zero
	case OpSq:
		return a.Binary(OpMul, a.Const(2), x), zero
	case OpSin:
		return a.Unary(OpCos, x), zero
	case OpCos:
		return a.Unary(OpNeg, a.Unary(OpSin, x)), zero
	case OpTan:
		return a.Binary(OpAdd, one, a.Unary(OpSq, f)), zero
	case OpAsin:
		return a.Unary(OpInv, a.Unary(OpSqrt, a.Binary(OpSub, one, a.Unary(OpSq, x)))), zero
	case OpAcos:
		return a.Unary(OpNeg, a.Unary(OpInv, a.Unary(OpSqrt, a.Binary(OpSub, one, a.Unary(OpSq, x))))), zero
	case OpAtan:
		return a.Unary(OpInv, a.Binary(OpAdd, one, a.Unary(OpSq, x))), zero
	case OpSinh:
		return a.Unary(OpCosh, x), zero
	case OpCosh:
		return a.Unary(OpSinh, x), zero
	case OpTanh:
		return a.Binary(OpSub, one, a.Unary(OpSq, f)), zero
	case OpExp:
		return f, zero
	case OpLog:
		return a.Unary(OpInv, x), zero
	case OpAbs:
		return a.Unary(OpSign, x), zero
	case OpSign, OpFloor, OpCeil:
		return zero, zero
	case OpInv:
		return a.Unary(OpNeg, a.Unary(OpSq, f)), zero
	case OpErf:
		return a.Binary(OpMul, a.Const(2/math.Sqrt(math.Pi)), a.Unary(OpExp, a.Unary(OpNeg, a.Unary(OpSq, x)))), zero
	case OpAdd:
		return one, one
	case OpSub:
		return one, a.Const(-1)
	case OpMul:
		return y, x
	case OpDiv:
		return a.Unary(OpInv, y), a.Unary(OpNeg, a.Binary(OpDiv, f, y))
	case OpPow:
		return a.Binary(OpMul, y, a.Binary(OpPow, x, a.Binary(OpSub, y, one))),
			a.Binary(OpMul, a.Unary(OpLog, x), f)
	case OpAtan2:
		r := a.Binary(OpAdd, a.Unary(OpSq, x), a.Unary(OpSq, y))
		return a.Binary(OpDiv, y, r), a.Unary(OpNeg, a.Binary(OpDiv, x, r))
	case OpFmin:
		return a.Binary(OpLe, x, y), a.Binary(OpLt, y, x)
	case OpFmax:
		return a.Binary(OpLe, y, x), a.Binary(OpLt, x, y)
	case OpLt, OpLe, OpEq, OpNe:
		return zero, zero
	}
	panic(fmt.Sprintf("ops: no derivative rule for %v", op))
}
