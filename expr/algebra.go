// SPDX-License-Identifier: MIT

package expr

import "github.com/katalvlaran/symad/ops"

// Algebra adapts node constructors to ops.Algebra so the shared derivative
// rules build symbolic partials. Shape errors panic: the rules only combine
// an operand with results of the same shape or with 1×1 constants.
type Algebra struct{}

// Const returns a 1×1 constant.
func (Algebra) Const(v float64) *Node { return Scalar(v) }

// Unary builds op(x).
func (Algebra) Unary(op ops.Op, x *Node) *Node { return Must(Unary(op, x)) }

// Binary builds op(x, y).
func (Algebra) Binary(op ops.Op, x, y *Node) *Node { return Must(Binary(op, x, y)) }

var _ ops.Algebra[*Node] = Algebra{}
