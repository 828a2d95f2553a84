// SPDX-License-Identifier: MIT

// Package ops defines the operation tags shared by the matrix-valued and the
// scalar-valued expression graphs, together with their numeric kernels and the
// zero-preservation properties that drive sparsity propagation.
package ops

import (
	"fmt"
	"math"
)

// Op tags an operation of an expression node.
type Op int

// Leaf operations.
const (
	OpInput Op = iota // symbolic primitive
	OpConst           // constant value
)

// Unary elementwise operations.
const (
	OpNeg Op = iota + 16
	OpSqrt
	OpSq
	OpSin
	OpCos
	OpTan
	OpAsin
	OpAcos
	OpAtan
	OpSinh
	OpCosh
	OpTanh
	OpExp
	OpLog
	OpAbs
	OpSign
	OpInv
	OpFloor
	OpCeil
	OpErf
)

// Binary elementwise operations.
const (
	OpAdd Op = iota + 64
	OpSub
	OpMul
	OpDiv
	OpPow
	OpAtan2
	OpFmin
	OpFmax
	OpLt
	OpLe
	OpEq
	OpNe
)

// Structural (matrix-level) operations.
const (
	OpTranspose Op = iota + 128
	OpReshape
	OpHorzcat
	OpVertcat
	OpDiagcat
	OpGetNonzeros
	OpProject
	OpMtimes
	OpSolve
	OpDot
	OpNormF
	OpAssertion
)

var names = map[Op]string{
	OpInput: "input", OpConst: "const",
	OpNeg: "neg", OpSqrt: "sqrt", OpSq: "sq", OpSin: "sin", OpCos: "cos", OpTan: "tan",
	OpAsin: "asin", OpAcos: "acos", OpAtan: "atan", OpSinh: "sinh", OpCosh: "cosh",
	OpTanh: "tanh", OpExp: "exp", OpLog: "log", OpAbs: "fabs", OpSign: "sign", OpInv: "inv",
	OpFloor: "floor", OpCeil: "ceil", OpErf: "erf",
	OpAdd: "add", OpSub: "sub", OpMul: "mul", OpDiv: "div", OpPow: "pow", OpAtan2: "atan2",
	OpFmin: "fmin", OpFmax: "fmax", OpLt: "lt", OpLe: "le", OpEq: "eq", OpNe: "ne",
	OpTranspose: "transpose", OpReshape: "reshape", OpHorzcat: "horzcat", OpVertcat: "vertcat",
	OpDiagcat: "diagcat", OpGetNonzeros: "getnonzeros", OpProject: "project", OpMtimes: "mtimes",
	OpSolve: "solve", OpDot: "dot", OpNormF: "norm_fro", OpAssertion: "assertion",
}

// String returns the lower-case operation name, e.g. "sin".
func (op Op) String() string {
	if s, ok := names[op]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// Lookup resolves an operation by name; the second result is false for unknown names.
func Lookup(name string) (Op, bool) {
	for op, s := range names {
		if s == name {
			return op, true
		}
	}
	return 0, false
}

// IsUnary reports whether op is a unary elementwise operation.
func (op Op) IsUnary() bool { return op >= OpNeg && op <= OpErf }

// IsBinary reports whether op is a binary elementwise operation.
func (op Op) IsBinary() bool { return op >= OpAdd && op <= OpNe }

// IsLeaf reports whether op has no dependencies.
func (op Op) IsLeaf() bool { return op == OpInput || op == OpConst }

// IsComparison reports whether op yields 0/1 values with zero derivative.
func (op Op) IsComparison() bool { return op >= OpLt && op <= OpNe }

// IsCommutative reports whether swapping the operands leaves the result unchanged.
func (op Op) IsCommutative() bool {
	switch op {
	case OpAdd, OpMul, OpFmin, OpFmax, OpEq, OpNe:
		return true
	}
	return false
}

// Arity returns the number of dependencies of op, or -1 for n-ary operations.
func (op Op) Arity() int {
	switch {
	case op.IsLeaf():
		return 0
	case op.IsUnary():
		return 1
	case op.IsBinary():
		return 2
	}
	switch op {
	case OpTranspose, OpReshape, OpGetNonzeros, OpProject, OpNormF:
		return 1
	case OpMtimes, OpSolve, OpDot, OpAssertion:
		return 2
	case OpHorzcat, OpVertcat, OpDiagcat:
		return -1
	}
	panic(fmt.Sprintf("ops: arity not defined for %v", op))
}

// Eval1 evaluates a unary operation numerically.
func Eval1(op Op, x float64) float64 {
	switch op {
	case OpNeg:
		return -x
	case OpSqrt:
		return math.Sqrt(x)
	case OpSq:
		return x * x
	case OpSin:
		return math.Sin(x)
	case OpCos:
		return math.Cos(x)
	case OpTan:
		return math.Tan(x)
	case OpAsin:
		return math.Asin(x)
	case OpAcos:
		return math.Acos(x)
	case OpAtan:
		return math.Atan(x)
	case OpSinh:
		return math.Sinh(x)
	case OpCosh:
		return math.Cosh(x)
	case OpTanh:
		return math.Tanh(x)
	case OpExp:
		return math.Exp(x)
	case OpLog:
		return math.Log(x)
	case OpAbs:
		return math.Abs(x)
	case OpSign:
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return 0
	case OpInv:
		return 1 / x
	case OpFloor:
		return math.Floor(x)
	case OpCeil:
		return math.Ceil(x)
	case OpErf:
		return math.Erf(x)
	}
	panic(fmt.Sprintf("ops: %v is not a unary operation", op))
}

// Eval2 evaluates a binary operation numerically.
func Eval2(op Op, x, y float64) float64 {
	switch op {
	case OpAdd:
		return x + y
	case OpSub:
		return x - y
	case OpMul:
		return x * y
	case OpDiv:
		return x / y
	case OpPow:
		return math.Pow(x, y)
	case OpAtan2:
		return math.Atan2(x, y)
	case OpFmin:
		return math.Min(x, y)
	case OpFmax:
		return math.Max(x, y)
	case OpLt:
		return bool2f(x < y)
	case OpLe:
		return bool2f(x <= y)
	case OpEq:
		return bool2f(x == y)
	case OpNe:
		return bool2f(x != y)
	}
	panic(fmt.Sprintf("ops: %v is not a binary operation", op))
}

// Eval dispatches to Eval1 or Eval2; y is ignored for unary operations.
func Eval(op Op, x, y float64) float64 {
	if op.IsUnary() {
		return Eval1(op, x)
	}
	return Eval2(op, x, y)
}

func bool2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ZeroAtZero reports whether the unary operation maps 0 to 0, i.e. whether it
// preserves structural zeros. Operations such as cos or exp do not.
func ZeroAtZero(op Op) bool {
	return Eval1(op, 0) == 0
}

// ZeroFirst reports whether f(0, y) == 0 for every y (e.g. mul, div).
// Structural zeros of the first operand then stay structural in the result.
func ZeroFirst(op Op) bool {
	switch op {
	case OpMul, OpDiv:
		return true
	}
	return false
}

// ZeroSecond reports whether f(x, 0) == 0 for every x (e.g. mul).
func ZeroSecond(op Op) bool {
	return op == OpMul
}

// ZeroBoth reports whether f(0, 0) == 0. When false, an elementwise operation
// between sparse operands produces a dense result. Division follows the
// convention that 0/0 between two structural zeros stays structural.
func ZeroBoth(op Op) bool {
	if op == OpDiv {
		return true
	}
	return Eval2(op, 0, 0) == 0
}
