package ops_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/katalvlaran/symad/ops"
)

var unaryOps = []ops.Op{
	ops.OpNeg, ops.OpSqrt, ops.OpSq, ops.OpSin, ops.OpCos, ops.OpTan, ops.OpAsin,
	ops.OpAcos, ops.OpAtan, ops.OpSinh, ops.OpCosh, ops.OpTanh, ops.OpExp, ops.OpLog,
	ops.OpAbs, ops.OpInv, ops.OpErf,
}

var binaryOps = []ops.Op{
	ops.OpAdd, ops.OpSub, ops.OpMul, ops.OpDiv, ops.OpPow, ops.OpAtan2, ops.OpFmin, ops.OpFmax,
}

// TestPartials_UnaryMatchFiniteDifference checks every unary rule against a
// central difference at a point inside every domain.
func TestPartials_UnaryMatchFiniteDifference(t *testing.T) {
	const x0 = 0.37
	for _, op := range unaryOps {
		op := op
		t.Run(op.String(), func(t *testing.T) {
			f := ops.Eval1(op, x0)
			d, d2 := ops.Partials[float64](ops.Float64{}, op, x0, 0, f)
			want := fd.Derivative(func(x float64) float64 { return ops.Eval1(op, x) }, x0,
				&fd.Settings{Formula: fd.Central})
			assert.InDelta(t, want, d, 1e-6)
			assert.Zero(t, d2)
		})
	}
}

// TestPartials_BinaryMatchFiniteDifference checks both partials of every
// binary rule.
func TestPartials_BinaryMatchFiniteDifference(t *testing.T) {
	const x0, y0 = 0.8, 1.3
	for _, op := range binaryOps {
		op := op
		t.Run(op.String(), func(t *testing.T) {
			f := ops.Eval2(op, x0, y0)
			dx, dy := ops.Partials[float64](ops.Float64{}, op, x0, y0, f)
			wantX := fd.Derivative(func(x float64) float64 { return ops.Eval2(op, x, y0) }, x0,
				&fd.Settings{Formula: fd.Central})
			wantY := fd.Derivative(func(y float64) float64 { return ops.Eval2(op, x0, y) }, y0,
				&fd.Settings{Formula: fd.Central})
			assert.InDelta(t, wantX, dx, 1e-6)
			assert.InDelta(t, wantY, dy, 1e-6)
		})
	}
}

// TestZeroPreservation pins the predicates that drive sparsity propagation.
func TestZeroPreservation(t *testing.T) {
	assert.True(t, ops.ZeroAtZero(ops.OpSin))
	assert.False(t, ops.ZeroAtZero(ops.OpCos))
	assert.False(t, ops.ZeroAtZero(ops.OpExp))

	assert.True(t, ops.ZeroFirst(ops.OpMul))
	assert.True(t, ops.ZeroFirst(ops.OpDiv))
	assert.False(t, ops.ZeroSecond(ops.OpDiv))
	assert.False(t, ops.ZeroFirst(ops.OpAdd))

	assert.True(t, ops.ZeroBoth(ops.OpAdd))
	assert.True(t, ops.ZeroBoth(ops.OpDiv))
	assert.False(t, ops.ZeroBoth(ops.OpPow))
	assert.False(t, ops.ZeroBoth(ops.OpEq))
}

// TestArityAndLookup covers the table helpers.
func TestArityAndLookup(t *testing.T) {
	assert.Equal(t, 0, ops.OpInput.Arity())
	assert.Equal(t, 1, ops.OpSin.Arity())
	assert.Equal(t, 2, ops.OpPow.Arity())
	assert.Equal(t, 2, ops.OpMtimes.Arity())
	assert.Equal(t, -1, ops.OpHorzcat.Arity())

	op, ok := ops.Lookup("atan2")
	require.True(t, ok)
	assert.Equal(t, ops.OpAtan2, op)
	_, ok = ops.Lookup("nope")
	assert.False(t, ok)

	assert.True(t, math.IsInf(ops.Eval1(ops.OpInv, 0), 1))
	assert.Panics(t, func() { ops.Eval1(ops.OpAdd, 1) })
}
