package sx_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/ops"
	"github.com/katalvlaran/symad/sparsity"
	"github.com/katalvlaran/symad/sx"
)

// TestBinary_Folding checks constant folding and the construction identities.
func TestBinary_Folding(t *testing.T) {
	x := sx.Sym("x")
	zero, one := sx.Const(0), sx.Const(1)

	assert.Equal(t, 5.0, sx.Binary(ops.OpAdd, sx.Const(2), sx.Const(3)).Value())
	assert.Same(t, x, sx.Binary(ops.OpAdd, x, zero))
	assert.Same(t, x, sx.Binary(ops.OpAdd, zero, x))
	assert.Same(t, x, sx.Binary(ops.OpSub, x, zero))
	assert.Same(t, x, sx.Binary(ops.OpMul, one, x))
	assert.Same(t, x, sx.Binary(ops.OpDiv, x, one))
	assert.True(t, sx.Binary(ops.OpMul, x, zero).IsZero())
	assert.True(t, sx.Binary(ops.OpSub, x, x).IsZero())
	assert.Equal(t, "(-x)", sx.Binary(ops.OpSub, zero, x).String())
	assert.Same(t, x, sx.Unary(ops.OpNeg, sx.Unary(ops.OpNeg, x)))
	assert.Equal(t, 1.0, sx.Unary(ops.OpCos, zero).Value())
}

// TestNode_String covers infix and call printing.
func TestNode_String(t *testing.T) {
	x, y := sx.Sym("x"), sx.Sym("y")
	f := sx.Binary(ops.OpAdd, sx.Unary(ops.OpSin, sx.Binary(ops.OpMul, x, y)), sx.Binary(ops.OpPow, x, sx.Const(2)))
	assert.Equal(t, "(sin((x*y))+pow(x,2))", f.String())
	assert.Len(t, f.Deps(), 2)
	assert.Empty(t, x.Deps())
}

// TestPanics_WrongArity ensures tags of the wrong kind are rejected.
func TestPanics_WrongArity(t *testing.T) {
	x := sx.Sym("x")
	assert.Panics(t, func() { sx.Unary(ops.OpAdd, x) })
	assert.Panics(t, func() { sx.Binary(ops.OpSin, x, x) })
}

// TestFunction_Eval evaluates f(x,y) = sin(x*y) + x^2 at (1, 2).
func TestFunction_Eval(t *testing.T) {
	x, y := sx.SymMatrix("x", sparsity.Scalar()), sx.SymMatrix("y", sparsity.Scalar())
	xs, ys := x.Nonzeros()[0], y.Nonzeros()[0]
	f := sx.Binary(ops.OpAdd, sx.Unary(ops.OpSin, sx.Binary(ops.OpMul, xs, ys)), sx.Unary(ops.OpSq, xs))
	out, err := sx.NewMatrix(sparsity.Scalar(), []*sx.Node{f})
	require.NoError(t, err)

	fn, err := sx.NewFunction("f", []sx.Matrix{x, y}, []sx.Matrix{out})
	require.NoError(t, err)
	assert.Equal(t, 2, fn.NumIn())
	assert.Equal(t, 1, fn.NumOut())
	assert.Equal(t, 6, fn.Len())

	res, err := fn.Eval(matrix.Scalar(1), matrix.Scalar(2))
	require.NoError(t, err)
	assert.InDelta(t, math.Sin(2)+1, res[0].Value(), 1e-15)
}

// TestFunction_SparseInputs projects arguments onto the input pattern.
func TestFunction_SparseInputs(t *testing.T) {
	d := sparsity.Diag(2)
	x := sx.SymMatrix("x", d)
	nz := x.Nonzeros()
	out, _ := sx.NewMatrix(sparsity.Dense(1, 1), []*sx.Node{sx.Binary(ops.OpMul, nz[0], nz[1])})
	fn, err := sx.NewFunction("det", []sx.Matrix{x}, []sx.Matrix{out})
	require.NoError(t, err)

	full := matrix.Full(sparsity.Dense(2, 2), 3)
	res, err := fn.Eval(full)
	require.NoError(t, err)
	assert.Equal(t, 9.0, res[0].Value())

	_, err = fn.Eval(matrix.Scalar(1))
	assert.ErrorIs(t, err, sx.ErrDimensionMismatch)
	_, err = fn.Eval()
	assert.ErrorIs(t, err, sx.ErrDimensionMismatch)
}

// TestFunction_Errors covers construction failures and free variables.
func TestFunction_Errors(t *testing.T) {
	x := sx.SymMatrix("x", sparsity.Scalar())
	notSym, _ := sx.NewMatrix(sparsity.Scalar(), []*sx.Node{sx.Const(1)})
	_, err := sx.NewFunction("f", []sx.Matrix{notSym}, nil)
	assert.ErrorIs(t, err, sx.ErrNotSymbolic)

	_, err = sx.NewFunction("f", []sx.Matrix{x, x}, nil)
	assert.ErrorIs(t, err, sx.ErrDuplicateInput)

	_, err = sx.NewMatrix(sparsity.Dense(2, 1), []*sx.Node{sx.Const(1)})
	assert.ErrorIs(t, err, sx.ErrDimensionMismatch)

	z := sx.Sym("z")
	out, _ := sx.NewMatrix(sparsity.Scalar(), []*sx.Node{sx.Binary(ops.OpAdd, x.Nonzeros()[0], z)})
	fn, err := sx.NewFunction("f", []sx.Matrix{x}, []sx.Matrix{out})
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, fn.FreeVariables())
	_, err = fn.Eval(matrix.Scalar(1))
	assert.ErrorIs(t, err, sx.ErrFreeVariables)
}

// TestAlgebra_Partials builds symbolic partial derivatives.
func TestAlgebra_Partials(t *testing.T) {
	x, y := sx.Sym("x"), sx.Sym("y")
	a := sx.Algebra{}
	f := a.Binary(ops.OpMul, x, y)
	px, py := ops.Partials[*sx.Node](a, ops.OpMul, x, y, f)
	assert.Same(t, y, px)
	assert.Same(t, x, py)
}

// TestMatrix_String prints structural zeros.
func TestMatrix_String(t *testing.T) {
	m := sx.SymMatrix("a", sparsity.Diag(2))
	assert.Equal(t, "[a_0, 00; 00, a_1]", m.String())
}

// TestFunction_String lists the algorithm.
func TestFunction_String(t *testing.T) {
	x := sx.SymMatrix("x", sparsity.Scalar())
	out, _ := sx.NewMatrix(sparsity.Scalar(), []*sx.Node{sx.Unary(ops.OpSin, x.Nonzeros()[0])})
	fn, _ := sx.NewFunction("f", []sx.Matrix{x}, []sx.Matrix{out})
	assert.Equal(t, "f:\n@0 = x\n@1 = sin(@0)\noutput[0][0] = @1", fn.String())
}
