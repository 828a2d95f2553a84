// SPDX-License-Identifier: MIT

package sx

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/katalvlaran/symad/ops"
)

var nextID atomic.Uint64

// Node is an immutable scalar expression: a symbol, a constant, or a unary
// or binary operation on other scalar nodes.
type Node struct {
	id   uint64
	op   ops.Op
	val  float64
	name string
	x, y *Node
}

func newNode(op ops.Op, x, y *Node) *Node {
	return &Node{id: nextID.Add(1), op: op, x: x, y: y}
}

// Sym creates a scalar symbol.
func Sym(name string) *Node {
	n := newNode(ops.OpInput, nil, nil)
	n.name = name
	return n
}

// Const creates a scalar constant.
func Const(v float64) *Node {
	n := newNode(ops.OpConst, nil, nil)
	n.val = v
	return n
}

// ID returns the creation number.
func (n *Node) ID() uint64 { return n.id }

// Op returns the operation tag.
func (n *Node) Op() ops.Op { return n.op }

// Name returns the symbol name.
func (n *Node) Name() string { return n.name }

// Value returns the value of a constant.
func (n *Node) Value() float64 { return n.val }

// IsSymbolic reports a symbol.
func (n *Node) IsSymbolic() bool { return n.op == ops.OpInput }

// IsConstant reports a constant.
func (n *Node) IsConstant() bool { return n.op == ops.OpConst }

// IsZero reports the constant 0.
func (n *Node) IsZero() bool { return n.op == ops.OpConst && n.val == 0 }

// IsOne reports the constant 1.
func (n *Node) IsOne() bool { return n.op == ops.OpConst && n.val == 1 }

// Deps returns the operands: none for leaves, one for unary operations.
func (n *Node) Deps() []*Node {
	switch {
	case n.x == nil:
		return nil
	case n.y == nil:
		return []*Node{n.x}
	}
	return []*Node{n.x, n.y}
}

// Unary applies a unary operation, folding constants.
func Unary(op ops.Op, x *Node) *Node {
	if !op.IsUnary() {
		panic(fmt.Sprintf("sx: %v is not unary", op))
	}
	switch {
	case x.IsConstant():
		return Const(ops.Eval1(op, x.val))
	case op == ops.OpNeg && x.op == ops.OpNeg:
		return x.x
	}
	return newNode(op, x, nil)
}

// Binary applies a binary operation, folding constants and the identities
// x+0, 0+x, x-0, 0-x, x*1, 1*x, x*0, 0*x, x/1.
func Binary(op ops.Op, x, y *Node) *Node {
	if !op.IsBinary() {
		panic(fmt.Sprintf("sx: %v is not binary", op))
	}
	if x.IsConstant() && y.IsConstant() {
		return Const(ops.Eval2(op, x.val, y.val))
	}
	switch op {
	case ops.OpAdd:
		switch {
		case y.IsZero():
			return x
		case x.IsZero():
			return y
		}
	case ops.OpSub:
		switch {
		case y.IsZero():
			return x
		case x.IsZero():
			return Unary(ops.OpNeg, y)
		case x == y:
			return Const(0)
		}
	case ops.OpMul:
		switch {
		case y.IsOne():
			return x
		case x.IsOne():
			return y
		case x.IsZero() || y.IsZero():
			return Const(0)
		}
	case ops.OpDiv:
		if y.IsOne() {
			return x
		}
	}
	return newNode(op, x, y)
}

// Algebra implements ops.Algebra over scalar nodes.
type Algebra struct{}

// Const returns a constant node.
func (Algebra) Const(v float64) *Node { return Const(v) }

// Unary applies op.
func (Algebra) Unary(op ops.Op, x *Node) *Node { return Unary(op, x) }

// Binary applies op.
func (Algebra) Binary(op ops.Op, x, y *Node) *Node { return Binary(op, x, y) }

var infix = map[ops.Op]string{ops.OpAdd: "+", ops.OpSub: "-", ops.OpMul: "*", ops.OpDiv: "/"}

// String prints the expression in infix form.
func (n *Node) String() string {
	var b strings.Builder
	n.print(&b)
	return b.String()
}

func (n *Node) print(b *strings.Builder) {
	switch {
	case n.op == ops.OpInput:
		b.WriteString(n.name)
	case n.op == ops.OpConst:
		fmt.Fprintf(b, "%g", n.val)
	case n.op == ops.OpNeg:
		b.WriteString("(-")
		n.x.print(b)
		b.WriteByte(')')
	case infix[n.op] != "":
		b.WriteByte('(')
		n.x.print(b)
		b.WriteString(infix[n.op])
		n.y.print(b)
		b.WriteByte(')')
	default:
		b.WriteString(n.op.String())
		b.WriteByte('(')
		n.x.print(b)
		if n.y != nil {
			b.WriteByte(',')
			n.y.print(b)
		}
		b.WriteByte(')')
	}
}
