package function_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/symad/expr"
	"github.com/katalvlaran/symad/function"
	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/schedule"
	"github.com/katalvlaran/symad/sparsity"
)

func evalJac(t *testing.T, fn *function.Function, iind, oind int, args []*matrix.Sparse, opts ...function.JacOption) *matrix.Sparse {
	t.Helper()
	j, err := fn.NumericJacobian(iind, oind, args, opts...)
	require.NoError(t, err)
	return j
}

func at(t *testing.T, m *matrix.Sparse, i, j int) float64 {
	t.Helper()
	v, err := m.At(i, j)
	require.NoError(t, err)
	return v
}

func TestJacobian_SinXY(t *testing.T) {
	v, f := sinXY(t)
	fn, err := function.New("f", []*expr.Node{v}, []*expr.Node{f})
	require.NoError(t, err)

	args := []*matrix.Sparse{matrix.Column(1, 2)}
	j := evalJac(t, fn, 0, 0, args)
	require.Equal(t, 1, j.Rows())
	require.Equal(t, 2, j.Cols())
	assert.InDelta(t, 2*math.Cos(2)+2, at(t, j, 0, 0), tol)
	assert.InDelta(t, math.Cos(2), at(t, j, 0, 1), tol)

	// Gradient agrees with the Jacobian row.
	gf, err := fn.GradientFunction(0, 0)
	require.NoError(t, err)
	g, err := gf.Eval(args...)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2*math.Cos(2) + 2, math.Cos(2)}, g[0].Nonzeros(), tol)
}

// vecFunc builds y = [x0*x1; sin(x2)*x0; exp(x1)+x2] for a dense 3-vector.
func vecFunc(t *testing.T, opts ...function.Option) *function.Function {
	t.Helper()
	x := expr.Must(expr.Sym("x", 3, 1))
	p, err := expr.Vertsplit(x, []int{0, 1, 2, 3})
	require.NoError(t, err)
	y := expr.Must(expr.Vertcat(
		expr.Must(expr.Mul(p[0], p[1])),
		expr.Must(expr.Mul(expr.Must(expr.Sin(p[2])), p[0])),
		expr.Must(expr.Add(expr.Must(expr.Exp(p[1])), p[2])),
	))
	fn, err := function.New("v", []*expr.Node{x}, []*expr.Node{y}, opts...)
	require.NoError(t, err)
	return fn
}

func TestJacobian_FiniteDifferences(t *testing.T) {
	fn := vecFunc(t)
	x0 := []float64{0.3, -0.7, 1.1}

	want := mat.NewDense(3, 3, nil)
	fd.Jacobian(want, func(y, x []float64) {
		out, err := fn.Eval(matrix.Column(x...))
		require.NoError(t, err)
		copy(y, matrix.ValuesOn(out[0], sparsity.Dense(3, 1)))
	}, x0, &fd.JacobianSettings{Formula: fd.Central})

	got := matrix.ToDense(evalJac(t, fn, 0, 0, []*matrix.Sparse{matrix.Column(x0...)}))
	assert.True(t, mat.EqualApprox(want, got, 1e-6), "want\n%v\ngot\n%v", mat.Formatted(want), mat.Formatted(got))
}

func TestJacobian_ModesAgree(t *testing.T) {
	args := []*matrix.Sparse{matrix.Column(0.3, -0.7, 1.1)}
	ref := evalJac(t, vecFunc(t), 0, 0, args, function.Uncompressed())

	cases := map[string]struct {
		opts    []function.Option
		jacOpts []function.JacOption
	}{
		"default":        {},
		"forward":        {opts: []function.Option{function.WithADWeight(0)}},
		"adjoint":        {opts: []function.Option{function.WithADWeight(1)}},
		"one-direction":  {opts: []function.Option{function.WithMaxDirections(1)}},
		"breadth-first":  {opts: []function.Option{function.WithSorting(schedule.BreadthFirst)}},
		"no-live-reuse":  {opts: []function.Option{function.WithLiveVariables(false)}},
		"adjoint/1-dir":  {opts: []function.Option{function.WithADWeight(1), function.WithMaxDirections(1)}},
		"uncompressed/1": {opts: []function.Option{function.WithMaxDirections(1)}, jacOpts: []function.JacOption{function.Uncompressed()}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got := evalJac(t, vecFunc(t, tc.opts...), 0, 0, args, tc.jacOpts...)
			assert.True(t, matrix.AllClose(got, ref, matrix.WithTolerance(1e-12, 1e-12)), "got %v want %v", got, ref)
		})
	}
}

// TestJacobian_RandomModesAgree compares the compressed Jacobians of random
// graphs mixing dense, diagonal and scalar operands with the uncompressed one.
func TestJacobian_RandomModesAgree(t *testing.T) {
	configs := map[string][]function.Option{
		"default":           nil,
		"forward":           {function.WithADWeight(0)},
		"adjoint":           {function.WithADWeight(1)},
		"postponed/2-dir":   {function.WithSorting(schedule.Postponed), function.WithMaxDirections(2)},
		"adjoint/breadth/1": {function.WithADWeight(1), function.WithSorting(schedule.BreadthFirst), function.WithMaxDirections(1)},
		"forward/no-live":   {function.WithADWeight(0), function.WithLiveVariables(false)},
	}
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 8; trial++ {
		ins, outs := randomGraph(rng, 34)
		args := randomArgs(t, rng, ins)
		ref, err := function.New("g", ins, outs)
		require.NoError(t, err)
		want := make([][]*matrix.Sparse, len(ins))
		for i := range ins {
			for o := range outs {
				want[i] = append(want[i], evalJac(t, ref, i, o, args, function.Uncompressed()))
			}
		}
		for name, opts := range configs {
			fn, err := function.New("g", ins, outs, opts...)
			require.NoError(t, err, name)
			for i := range ins {
				for o := range outs {
					got := evalJac(t, fn, i, o, args)
					assert.True(t, matrix.AllClose(got, want[i][o], matrix.WithTolerance(tol, tol)),
						"%s trial %d output %d wrt %s: got %v want %v", name, trial, o, ins[i].Name(), got, want[i][o])
				}
			}
		}
	}
}

func TestJacobian_Compact(t *testing.T) {
	x := expr.SymSparse("x", sparsity.Diag(3))
	fn, err := function.New("f", []*expr.Node{x}, []*expr.Node{expr.Must(expr.Cos(x))})
	require.NoError(t, err)

	// cos densifies: off-diagonal entries are the constant cos(0).
	jsp, err := fn.JacSparsity(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 9, jsp.Rows())
	assert.Equal(t, 3, jsp.Cols())
	assert.Equal(t, 3, jsp.Nnz())
	for k, r := range []int{0, 4, 8} {
		assert.True(t, jsp.HasNZ(r, k))
	}

	args := []*matrix.Sparse{matrix.Full(sparsity.Diag(3), 0.5)}
	compact := evalJac(t, fn, 0, 0, args, function.Compact())
	assert.Equal(t, 9, compact.Rows())
	assert.Equal(t, 3, compact.Cols())
	full := evalJac(t, fn, 0, 0, args)
	assert.Equal(t, 9, full.Rows())
	assert.Equal(t, 9, full.Cols())
	for k, r := range []int{0, 4, 8} {
		assert.InDelta(t, -math.Sin(0.5), at(t, compact, r, k), tol)
		assert.InDelta(t, -math.Sin(0.5), at(t, full, r, r), tol)
	}
	assert.Equal(t, 3, full.Nnz())
}

func TestJacobian_QuickExit(t *testing.T) {
	x := expr.Must(expr.Sym("x", 2, 1))
	y := expr.Must(expr.Sym("y", 3, 1))
	fn, err := function.New("f", []*expr.Node{x, y}, []*expr.Node{expr.Must(expr.Sin(y))})
	require.NoError(t, err)

	j, err := fn.Jacobian(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, j.Rows())
	assert.Equal(t, 2, j.Cols())
	assert.Equal(t, 0, j.Nnz())

	_, err = fn.Jacobian(2, 0)
	assert.ErrorIs(t, err, function.ErrIndex)
}

func TestHessian_Symmetric(t *testing.T) {
	x := expr.Must(expr.Sym("x", 2, 1))
	p, err := expr.Vertsplit(x, []int{0, 1, 2})
	require.NoError(t, err)
	f := expr.Must(expr.Add(
		expr.Must(expr.Mul(expr.Must(expr.Sq(p[0])), p[1])),
		expr.Must(expr.Sin(p[1])),
	))
	fn, err := function.New("f", []*expr.Node{x}, []*expr.Node{f})
	require.NoError(t, err)

	hf, err := fn.HessianFunction(0, 0)
	require.NoError(t, err)
	out, err := hf.Eval(matrix.Column(1, 2))
	require.NoError(t, err)
	h, g := out[0], out[1]

	want := [][]float64{{4, 2}, {2, -math.Sin(2)}}
	for i := range want {
		for j := range want[i] {
			assert.InDelta(t, want[i][j], at(t, h, i, j), tol, "H(%d,%d)", i, j)
		}
	}
	assert.InDeltaSlice(t, []float64{4, 1 + math.Cos(2)}, g.Nonzeros(), tol)

	_, err = fn.Jacobian(0, 0, function.Symmetric())
	assert.ErrorIs(t, err, function.ErrDimensionMismatch)
}

func TestHessian_DiagonalStarColoring(t *testing.T) {
	// f = sum(sin(x)): diagonal Hessian, one color.
	x := expr.Must(expr.Sym("x", 4, 1))
	f := expr.Must(expr.Sum(expr.Must(expr.Sin(x))))
	fn, err := function.New("f", []*expr.Node{x}, []*expr.Node{f})
	require.NoError(t, err)

	hf, err := fn.HessianFunction(0, 0)
	require.NoError(t, err)
	xs := []float64{0.1, 0.2, 0.3, 0.4}
	out, err := hf.Eval(matrix.Column(xs...))
	require.NoError(t, err)
	assert.Equal(t, 4, out[0].Nnz())
	for i, v := range xs {
		assert.InDelta(t, -math.Sin(v), at(t, out[0], i, i), tol)
	}
}

func TestGradient_Tangent(t *testing.T) {
	x := expr.Must(expr.Sym("x", 2, 1))
	s := expr.Must(expr.Sym("s", 1, 1))
	y := expr.Must(expr.Mul(s, x))
	fn, err := function.New("f", []*expr.Node{x, s}, []*expr.Node{y})
	require.NoError(t, err)

	_, err = fn.Gradient(0, 0)
	assert.ErrorIs(t, err, function.ErrNotScalar)
	_, err = fn.Tangent(0, 0)
	assert.ErrorIs(t, err, function.ErrNotScalar)

	tf, err := fn.TangentFunction(1, 0)
	require.NoError(t, err)
	out, err := tf.Eval(matrix.Column(3, 4), matrix.Scalar(2))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{3, 4}, out[0].Nonzeros(), tol)
}

func TestJacobian_Solve(t *testing.T) {
	a := expr.Must(expr.Sym("a", 2, 2))
	b := expr.Must(expr.Sym("b", 2, 1))
	fn, err := function.New("f", []*expr.Node{a, b}, []*expr.Node{expr.Must(expr.Solve(a, b, "lu"))})
	require.NoError(t, err)

	av, err := matrix.New(sparsity.Dense(2, 2), []float64{4, 2, 1, 3})
	require.NoError(t, err)
	bv := matrix.Column(1, 2)
	args := []*matrix.Sparse{av, bv}

	// d(A\b)/db = inv(A)
	jb := evalJac(t, fn, 1, 0, args)
	want := [][]float64{{0.3, -0.1}, {-0.2, 0.4}}
	for i := range want {
		for j := range want[i] {
			assert.InDelta(t, want[i][j], at(t, jb, i, j), tol)
		}
	}

	// d(A\b)/dA against finite differences
	ja := matrix.ToDense(evalJac(t, fn, 0, 0, args))
	fdj := mat.NewDense(2, 4, nil)
	fd.Jacobian(fdj, func(y, x []float64) {
		am, err := matrix.New(sparsity.Dense(2, 2), x)
		require.NoError(t, err)
		out, err := fn.Eval(am, bv)
		require.NoError(t, err)
		copy(y, out[0].Nonzeros())
	}, av.Nonzeros(), &fd.JacobianSettings{Formula: fd.Central})
	assert.True(t, mat.EqualApprox(fdj, ja, 1e-6), "want\n%v\ngot\n%v", mat.Formatted(fdj), mat.Formatted(ja))
}

func TestJacobian_MatrixOps(t *testing.T) {
	// y = vec(A*transpose(A)) + norm(A) with reshapes and concatenation.
	a := expr.Must(expr.Sym("a", 2, 3))
	aat := expr.Must(expr.Mtimes(a, expr.Must(expr.Transpose(a))))
	n := expr.Must(expr.NormF(a))
	d := expr.Must(expr.Dot(a, a))
	y := expr.Must(expr.Vertcat(expr.Must(expr.Reshape(aat, 4, 1)), n, d))
	fn, err := function.New("f", []*expr.Node{a}, []*expr.Node{y})
	require.NoError(t, err)

	x0 := []float64{0.5, -1, 2, 0.25, 1.5, -0.75}
	am, err := matrix.New(sparsity.Dense(2, 3), x0)
	require.NoError(t, err)
	for _, w := range []float64{0, 1} {
		fw, err := function.New("f", []*expr.Node{a}, []*expr.Node{y}, function.WithADWeight(w))
		require.NoError(t, err)
		got := matrix.ToDense(evalJac(t, fw, 0, 0, []*matrix.Sparse{am}))

		want := mat.NewDense(6, 6, nil)
		fd.Jacobian(want, func(out, x []float64) {
			m, err := matrix.New(sparsity.Dense(2, 3), x)
			require.NoError(t, err)
			res, err := fn.Eval(m)
			require.NoError(t, err)
			copy(out, matrix.ValuesOn(res[0], sparsity.Dense(6, 1)))
		}, x0, &fd.JacobianSettings{Formula: fd.Central})
		assert.True(t, mat.EqualApprox(want, got, 1e-6), "weight %v: want\n%v\ngot\n%v", w, mat.Formatted(want), mat.Formatted(got))
	}
}

func TestSparsityPropagation(t *testing.T) {
	fn := vecFunc(t)

	// Forward: bit k marks x_k.
	out, err := fn.SpFwd([][]uint64{{1, 2, 4}})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1 | 2, 1 | 4, 2 | 4}, out[0])

	// Adjoint: bit k marks y_k.
	in, err := fn.SpAdj([][]uint64{{1, 2, 4}})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1 | 2, 1 | 4, 2 | 4}, in[0])

	_, err = fn.SpFwd([][]uint64{{1}})
	assert.ErrorIs(t, err, function.ErrSeedMismatch)
	_, err = fn.SpAdj(nil)
	assert.ErrorIs(t, err, function.ErrSeedMismatch)
}

func TestForwardReverse_Duality(t *testing.T) {
	// <J u, w> == <u, Jᵀ w> for symbolic seeds evaluated numerically.
	fn := vecFunc(t)
	x := fn.Input(0)
	u := expr.Must(expr.Sym("u", 3, 1))
	w := expr.Must(expr.Sym("w", 3, 1))

	fsens, err := fn.Forward(nil, [][]*expr.Node{{u}})
	require.NoError(t, err)
	asens, err := fn.Reverse(nil, [][]*expr.Node{{w}})
	require.NoError(t, err)
	lhs := expr.Must(expr.Dot(fsens[0][0], w))
	rhs := expr.Must(expr.Dot(u, asens[0][0]))
	g, err := function.New("dual", []*expr.Node{x, u, w}, []*expr.Node{lhs, rhs})
	require.NoError(t, err)

	out, err := g.Eval(matrix.Column(0.3, -0.7, 1.1), matrix.Column(1, 2, 3), matrix.Column(-1, 0.5, 2))
	require.NoError(t, err)
	assert.InDelta(t, out[0].Value(), out[1].Value(), tol)

	_, err = fn.Forward(nil, [][]*expr.Node{{w, w}})
	assert.ErrorIs(t, err, function.ErrSeedMismatch)
}

func TestDerForwardReverse(t *testing.T) {
	v, f := sinXY(t)
	fn, err := function.New("f", []*expr.Node{v}, []*expr.Node{f})
	require.NoError(t, err)

	fwd, err := fn.DerForward(2)
	require.NoError(t, err)
	assert.Equal(t, 3, fwd.NumIn())
	assert.Equal(t, 2, fwd.NumOut())
	assert.Equal(t, "fwd1_v", fwd.Input(2).Name())
	out, err := fwd.Eval(matrix.Column(1, 2), matrix.Column(1, 0), matrix.Column(0, 1))
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Cos(2)+2, out[0].Value(), tol)
	assert.InDelta(t, math.Cos(2), out[1].Value(), tol)

	adj, err := fn.DerReverse(1)
	require.NoError(t, err)
	assert.Equal(t, 2, adj.NumIn())
	out, err = adj.Eval(matrix.Column(1, 2), matrix.Scalar(2))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2 * (2*math.Cos(2) + 2), 2 * math.Cos(2)}, out[0].Nonzeros(), tol)
}

func BenchmarkJacobian(b *testing.B) {
	x := expr.Must(expr.Sym("x", 50, 1))
	y := expr.Must(expr.Mul(expr.Must(expr.Sin(x)), expr.Must(expr.Exp(x))))
	fn, err := function.New("f", []*expr.Node{x}, []*expr.Node{y})
	require.NoError(b, err)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := fn.Jacobian(0, 0); err != nil {
			b.Fatal(err)
		}
	}
}

func TestPartition(t *testing.T) {
	// Diagonal: one color either way, forward wins ties.
	p, fwd := function.Partition(sparsity.Diag(4), function.DefaultADWeight, false, false)
	assert.True(t, fwd)
	assert.Equal(t, 1, p.Cols())

	// A dense row: every column conflicts, the single row does not.
	p, fwd = function.Partition(sparsity.Dense(1, 5), function.DefaultADWeight, false, false)
	assert.False(t, fwd)
	assert.Equal(t, 1, p.Cols())
	assert.Equal(t, 1, p.Rows())

	// Uncompressed: one color per column.
	p, fwd = function.Partition(sparsity.Diag(3), function.DefaultADWeight, false, true)
	assert.True(t, fwd)
	assert.Equal(t, 3, p.Cols())

	// Symmetric: star coloring of an arrow pattern is recoverable.
	rows := []int{0, 1, 2, 3, 0, 0, 0, 1, 2, 3}
	cols := []int{0, 1, 2, 3, 1, 2, 3, 0, 0, 0}
	arrow, _, err := sparsity.Triplet(4, 4, rows, cols)
	require.NoError(t, err)
	p, fwd = function.Partition(arrow, function.DefaultADWeight, true, false)
	assert.True(t, fwd)
	assert.True(t, arrow.Recoverable(p))
	assert.Less(t, p.Cols(), 4)
}

func TestIsInput(t *testing.T) {
	v, f := sinXY(t)
	fn, err := function.New("f", []*expr.Node{v}, []*expr.Node{f})
	require.NoError(t, err)
	assert.True(t, fn.IsInput([]*expr.Node{v}))
	assert.False(t, fn.IsInput([]*expr.Node{expr.Must(expr.Sym("v", 2, 1))}))
	assert.False(t, fn.IsInput(nil))
}
