// SPDX-License-Identifier: MIT

package expr

import (
	"sync/atomic"

	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/ops"
	"github.com/katalvlaran/symad/sparsity"
)

var nextID atomic.Uint64

// Node is one immutable operation of a matrix-valued expression graph.
//
// Dependencies are forward edges only and are shared between parents; no
// node carries traversal scratch state, so graphs may be traversed from many
// goroutines at once.
type Node struct {
	id   uint64
	op   ops.Op
	sp   sparsity.Sparsity
	deps []*Node

	// op data
	name   string         // OpInput
	val    *matrix.Sparse // OpConst
	nz     []int          // OpGetNonzeros
	msg    string         // OpAssertion
	solver string         // OpSolve
	fp     uint64         // OpConst value fingerprint
}

func newNode(op ops.Op, sp sparsity.Sparsity, deps ...*Node) *Node {
	return &Node{id: nextID.Add(1), op: op, sp: sp, deps: deps}
}

// ID returns a process-unique creation number. Later nodes have larger IDs.
func (n *Node) ID() uint64 { return n.id }

// Op returns the operation tag.
func (n *Node) Op() ops.Op { return n.op }

// Sparsity returns the output pattern.
func (n *Node) Sparsity() sparsity.Sparsity { return n.sp }

// Rows returns the output row count.
func (n *Node) Rows() int { return n.sp.Rows() }

// Cols returns the output column count.
func (n *Node) Cols() int { return n.sp.Cols() }

// Nnz returns the number of structural nonzeros of the output.
func (n *Node) Nnz() int { return n.sp.Nnz() }

// Deps returns the dependencies. The slice must not be modified.
func (n *Node) Deps() []*Node { return n.deps }

// NDeps returns the number of dependencies.
func (n *Node) NDeps() int { return len(n.deps) }

// Dep returns dependency i.
func (n *Node) Dep(i int) *Node { return n.deps[i] }

// Name returns the symbol name of an input node.
func (n *Node) Name() string { return n.name }

// Value returns the constant value of an OpConst node, nil otherwise.
func (n *Node) Value() *matrix.Sparse { return n.val }

// NZ returns the gathered nonzero indices of an OpGetNonzeros node.
func (n *Node) NZ() []int { return n.nz }

// Message returns the assertion message.
func (n *Node) Message() string { return n.msg }

// Solver returns the linear solver name of an OpSolve node.
func (n *Node) Solver() string { return n.solver }

// IsSymbolic reports a symbolic primitive.
func (n *Node) IsSymbolic() bool { return n.op == ops.OpInput }

// IsConstant reports a constant node.
func (n *Node) IsConstant() bool { return n.op == ops.OpConst }

// IsZero reports a constant whose stored values are all 0, including a
// constant without structural nonzeros.
func (n *Node) IsZero() bool { return n.op == ops.OpConst && n.val.IsZero() }

// IsStructuralZero reports a node without any structural nonzero.
func (n *Node) IsStructuralZero() bool { return n.sp.Nnz() == 0 }

// IsOne reports a dense constant with every entry 1.
func (n *Node) IsOne() bool { return n.op == ops.OpConst && n.val.IsValue(1) }

// IsValue reports a dense constant with every entry v.
func (n *Node) IsValue(v float64) bool { return n.op == ops.OpConst && n.val.IsValue(v) }

// Sym creates a dense rows×cols symbolic primitive.
// Errors: ErrBadShape.
func Sym(name string, rows, cols int) (*Node, error) {
	if rows < 0 || cols < 0 {
		return nil, exprErrorf("Sym", ErrBadShape)
	}
	return SymSparse(name, sparsity.Dense(rows, cols)), nil
}

// SymSparse creates a symbolic primitive with pattern sp.
func SymSparse(name string, sp sparsity.Sparsity) *Node {
	n := newNode(ops.OpInput, sp)
	n.name = name
	return n
}

// Const wraps a numeric matrix. The matrix must not be modified afterwards.
func Const(m *matrix.Sparse) *Node {
	n := newNode(ops.OpConst, m.Sparsity())
	n.val = m
	n.fp = valueHash(m)
	return n
}

// Scalar returns the dense 1×1 constant v.
func Scalar(v float64) *Node { return Const(matrix.Scalar(v)) }

// Zeros returns the constant with pattern sp and every nonzero 0. With an
// empty pattern this is the all-structural-zero matrix of that shape.
func Zeros(sp sparsity.Sparsity) *Node { return Const(matrix.Zeros(sp)) }

// Ones returns the constant with pattern sp and every nonzero 1.
func Ones(sp sparsity.Sparsity) *Node { return Const(matrix.Full(sp, 1)) }
