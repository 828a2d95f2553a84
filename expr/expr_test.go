package expr_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/symad/expr"
	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/ops"
	"github.com/katalvlaran/symad/sparsity"
)

func sym(name string, r, c int) *expr.Node { return expr.Must(expr.Sym(name, r, c)) }

func TestSym(t *testing.T) {
	x := sym("x", 2, 3)
	assert.True(t, x.IsSymbolic())
	assert.Equal(t, "x", x.Name())
	assert.Equal(t, 6, x.Nnz())
	_, err := expr.Sym("bad", -1, 1)
	assert.ErrorIs(t, err, expr.ErrBadShape)
	assert.Panics(t, func() { expr.Must(expr.Sym("bad", 1, -1)) })
}

// TestUnary_Densification: cos on a diagonal pattern projects its input
// onto the dense pattern first; sin keeps the diagonal.
func TestUnary_Densification(t *testing.T) {
	d := expr.SymSparse("d", sparsity.Diag(3))
	c := expr.Must(expr.Cos(d))
	assert.True(t, c.Sparsity().IsDense())
	require.Equal(t, 1, c.NDeps())
	assert.Equal(t, ops.OpProject, c.Dep(0).Op())
	assert.True(t, c.Dep(0).Sparsity().IsDense())

	s := expr.Must(expr.Sin(d))
	assert.True(t, s.Sparsity().Equal(sparsity.Diag(3)))
	assert.Same(t, d, s.Dep(0))
}

func TestBinary_Patterns(t *testing.T) {
	d := expr.SymSparse("d", sparsity.Diag(2))
	full := sym("f", 2, 2)
	s := sym("s", 1, 1)

	assert.True(t, expr.Must(expr.Mul(d, full)).Sparsity().Equal(sparsity.Diag(2)))
	assert.True(t, expr.Must(expr.Add(d, full)).Sparsity().IsDense())
	// scalar-matrix: mul keeps the matrix pattern, add densifies
	assert.True(t, expr.Must(expr.Mul(s, d)).Sparsity().Equal(sparsity.Diag(2)))
	assert.True(t, expr.Must(expr.Add(s, d)).Sparsity().IsDense())
	// matrix-scalar: div keeps the numerator pattern
	assert.True(t, expr.Must(expr.Div(d, s)).Sparsity().Equal(sparsity.Diag(2)))

	_, err := expr.Add(d, sym("z", 3, 3))
	assert.ErrorIs(t, err, expr.ErrDimensionMismatch)
	_, err = expr.Add(d, nil)
	assert.ErrorIs(t, err, expr.ErrNilNode)
	_, err = expr.Binary(ops.OpSin, d, d)
	assert.ErrorIs(t, err, expr.ErrUnsupported)
	_, err = expr.Unary(ops.OpAdd, d)
	assert.ErrorIs(t, err, expr.ErrUnsupported)
}

func TestConstantFolding(t *testing.T) {
	a := expr.Scalar(2)
	b := expr.Scalar(3)
	p := expr.Must(expr.Pow(a, b))
	require.True(t, p.IsConstant())
	assert.Equal(t, 8.0, p.Value().Value())

	c := expr.Must(expr.Cos(expr.Zeros(sparsity.Diag(2))))
	require.True(t, c.IsConstant())
	assert.True(t, c.Value().IsValue(1))
}

func TestSimplifications(t *testing.T) {
	x := sym("x", 2, 2)
	y := sym("y", 2, 2)
	zero := expr.Zeros(sparsity.Dense(2, 2))
	one := expr.Ones(sparsity.Dense(2, 2))

	assert.Same(t, x, expr.Must(expr.Add(x, zero)))
	assert.Same(t, x, expr.Must(expr.Add(zero, x)))
	assert.Same(t, x, expr.Must(expr.Sub(x, zero)))
	assert.Same(t, x, expr.Must(expr.Mul(x, one)))
	assert.Same(t, x, expr.Must(expr.Mul(one, x)))
	assert.Same(t, x, expr.Must(expr.Mul(expr.Scalar(1), x)))
	assert.Same(t, x, expr.Must(expr.Div(x, one)))

	neg := expr.Must(expr.Sub(zero, x))
	assert.Equal(t, ops.OpNeg, neg.Op())
	assert.Same(t, x, expr.Must(expr.Neg(neg)))

	xx := expr.Must(expr.Sub(x, x))
	assert.True(t, xx.IsZero())

	sum := expr.Must(expr.Add(x, y))
	assert.Same(t, y, expr.Must(expr.Sub(sum, x)))
	assert.Same(t, x, expr.Must(expr.Sub(sum, y)))
	diff := expr.Must(expr.Sub(x, y))
	assert.Same(t, x, expr.Must(expr.Add(diff, y)))

	// structural zero times anything is the empty pattern
	z := expr.Zeros(sparsity.Zeros(2, 2))
	prod := expr.Must(expr.Mul(x, z))
	assert.True(t, prod.IsStructuralZero())
}

// TestSimplifications_KeepPattern: x+0 with a sparse x and a dense zero
// would change the pattern, so no rewrite happens.
func TestSimplifications_KeepPattern(t *testing.T) {
	d := expr.SymSparse("d", sparsity.Diag(2))
	zero := expr.Zeros(sparsity.Dense(2, 2))
	n := expr.Must(expr.Add(d, zero))
	assert.NotSame(t, d, n)
	assert.True(t, n.Sparsity().IsDense())
}

func TestIsEqual(t *testing.T) {
	x := sym("x", 1, 1)
	y := sym("y", 1, 1)
	a := expr.Must(expr.Mul(x, y))
	b := expr.Must(expr.Mul(x, y))
	c := expr.Must(expr.Mul(y, x))

	assert.True(t, expr.IsEqual(a, a, 0))
	assert.False(t, expr.IsEqual(a, b, 0))
	assert.True(t, expr.IsEqual(a, b, 1))
	assert.True(t, expr.IsEqual(a, c, 1), "commutative")
	assert.False(t, expr.IsEqual(x, sym("x", 1, 1), 5), "distinct symbols")

	// sin(sin(x*y)) vs rebuilt copy: needs depth 3
	deep1 := expr.Must(expr.Sin(expr.Must(expr.Sin(a))))
	deep2 := expr.Must(expr.Sin(expr.Must(expr.Sin(b))))
	assert.False(t, expr.IsEqual(deep1, deep2, 2))
	assert.True(t, expr.IsEqual(deep1, deep2, 3))

	assert.True(t, expr.IsEqual(expr.Scalar(2), expr.Scalar(2), 1))
	assert.False(t, expr.IsEqual(expr.Scalar(2), expr.Scalar(3), 1))
}

func TestStructural(t *testing.T) {
	x := sym("x", 2, 3)
	xt := expr.Must(expr.Transpose(x))
	assert.Equal(t, 3, xt.Rows())
	assert.Same(t, x, expr.Must(expr.Transpose(xt)))

	r := expr.Must(expr.Reshape(x, 3, 2))
	assert.Equal(t, ops.OpReshape, r.Op())
	_, err := expr.Reshape(x, 4, 2)
	assert.ErrorIs(t, err, expr.ErrDimensionMismatch)

	h := expr.Must(expr.Horzcat(x, sym("y", 2, 1)))
	assert.Equal(t, 4, h.Cols())
	_, err = expr.Horzcat(x, sym("z", 3, 1))
	assert.ErrorIs(t, err, expr.ErrDimensionMismatch)

	parts, err := expr.Horzsplit(h, []int{0, 3, 4})
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, ops.OpGetNonzeros, parts[0].Op())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, parts[0].NZ())
	assert.Equal(t, 1, parts[1].Cols())

	v, err := expr.Vertsplit(x, []int{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4}, v[0].NZ())

	_, err = expr.GetNonzeros(x, sparsity.Dense(1, 1), []int{6})
	assert.ErrorIs(t, err, expr.ErrIndex)

	m, err := expr.Mtimes(xt, x)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Rows())
	_, err = expr.Mtimes(x, x)
	assert.ErrorIs(t, err, expr.ErrDimensionMismatch)

	_, err = expr.Solve(x, x, "lu")
	assert.ErrorIs(t, err, expr.ErrNonSquare)
	a := sym("A", 2, 2)
	s, err := expr.Solve(a, x, "lu")
	require.NoError(t, err)
	assert.Equal(t, "lu", s.Solver())
	_, err = expr.Solve(a, sym("b", 3, 1), "lu")
	assert.ErrorIs(t, err, expr.ErrDimensionMismatch)

	dot := expr.Must(expr.Dot(x, x))
	assert.True(t, dot.Sparsity().IsScalar())
	_, err = expr.Assert(x, x, "bad")
	assert.ErrorIs(t, err, expr.ErrDimensionMismatch)

	nf := expr.Must(expr.NormF(expr.Const(matrix.Column(3, 4))))
	assert.Equal(t, 5.0, nf.Value().Value())
}

func TestSymbolsDepends(t *testing.T) {
	x := sym("x", 1, 1)
	y := sym("y", 1, 1)
	z := sym("z", 1, 1)
	f := expr.Must(expr.Add(expr.Must(expr.Sin(expr.Must(expr.Mul(x, y)))), expr.Must(expr.Sq(x))))
	assert.Equal(t, []*expr.Node{x, y}, expr.Symbols(f))
	assert.True(t, expr.Depends(f, y))
	assert.False(t, expr.Depends(f, z))
	assert.Equal(t, 6, expr.CountNodes(f))
}

func TestString(t *testing.T) {
	x := sym("x", 1, 1)
	y := sym("y", 1, 1)
	f := expr.Must(expr.Add(expr.Must(expr.Sin(expr.Must(expr.Mul(x, y)))), expr.Must(expr.Sq(x))))
	assert.Equal(t, "(sin((x*y))+sq(x))", f.String())
	assert.Equal(t, "2.5", expr.Scalar(2.5).String())
}

// TestAlgebra_Partials builds d/dx sin(x) symbolically.
func TestAlgebra_Partials(t *testing.T) {
	x := sym("x", 1, 1)
	f := expr.Must(expr.Sin(x))
	dx, dy := ops.Partials[*expr.Node](expr.Algebra{}, ops.OpSin, x, nil, f)
	assert.Equal(t, "cos(x)", dx.String())
	assert.True(t, dy.IsZero())
	assert.False(t, math.IsNaN(dy.Value().Value()))
}
