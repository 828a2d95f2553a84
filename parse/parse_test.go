// SPDX-License-Identifier: MIT

package parse_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/symad/expr"
	"github.com/katalvlaran/symad/function"
	"github.com/katalvlaran/symad/internal/logger"
	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/ops"
	"github.com/katalvlaran/symad/parse"
)

func symbols(t *testing.T) (x, y, v *expr.Node, env map[string]*expr.Node) {
	t.Helper()
	x = expr.Must(expr.Sym("x", 1, 1))
	y = expr.Must(expr.Sym("y", 1, 1))
	v = expr.Must(expr.Sym("v", 2, 1))
	return x, y, v, map[string]*expr.Node{"x": x, "y": y, "v": v}
}

// eval evaluates n as a function of inputs.
func eval(t *testing.T, n *expr.Node, inputs []*expr.Node, args ...*matrix.Sparse) *matrix.Sparse {
	t.Helper()
	f, err := function.New("f", inputs, []*expr.Node{n})
	require.NoError(t, err)
	out, err := f.Eval(args...)
	require.NoError(t, err)
	return out[0]
}

func TestParse_Scalar(t *testing.T) {
	x, y, _, env := symbols(t)
	tests := []struct {
		src  string
		want float64
	}{
		{"sin(x) * y + 1", math.Sin(2)*3 + 1},
		{"x.sin() * y + 1", math.Sin(2)*3 + 1},
		{"pow(x, 3) - y / 2", 8 - 1.5},
		{"-x + abs(-y)", 1},
		{"fmax(x, y) + fmin(x, y)", 5},
		{"atan2(y, x)", math.Atan2(3, 2)},
		{"x < y", 1},
		{"x > y", 0},
		{"x >= 2.0", 1},
		{"x != y", 1},
		{"exp(log(x)) + sqrt(sq(y))", 5},
		{"2 * pi", 2 * math.Pi},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			n, err := parse.Parse(tc.src, env)
			require.NoError(t, err)
			out := eval(t, n, []*expr.Node{x, y}, matrix.Scalar(2), matrix.Scalar(3))
			assert.InDelta(t, tc.want, out.Value(), 1e-12)
		})
	}
}

func TestParse_Matrix(t *testing.T) {
	_, _, v, env := symbols(t)
	vin := matrix.Column(1, 2)
	tests := []struct {
		src  string
		rows int
		cols int
		want []float64
	}{
		{"[[1, 2], [3, 4]]", 2, 2, []float64{1, 3, 2, 4}},
		{"mtimes([[1, 2], [3, 4]], v)", 2, 1, []float64{5, 11}},
		{"transpose(v)", 1, 2, []float64{1, 2}},
		{"dot(v, v)", 1, 1, []float64{5}},
		{"sum(v) + norm_fro([3, 4])", 1, 1, []float64{8}},
		{"reshape(vertcat(v, v), 2, 2)", 2, 2, []float64{1, 2, 1, 2}},
		{"horzcat(v, ones(2, 1))", 2, 2, []float64{1, 2, 1, 1}},
		{"v[1] * 10", 1, 1, []float64{20}},
		{"solve([[4, 1], [2, 3]], v)", 2, 1, []float64{0.1, 0.6}},
		{"solve([[4, 1], [2, 3]], v, \"qr\")", 2, 1, []float64{0.1, 0.6}},
		{"mtimes(eye(2), v) + zeros(2, 1)", 2, 1, []float64{1, 2}},
		{"assert(v, v[0] > 0.0, \"positive\")", 2, 1, []float64{1, 2}},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			n, err := parse.Parse(tc.src, env)
			require.NoError(t, err)
			require.Equal(t, tc.rows, n.Rows())
			require.Equal(t, tc.cols, n.Cols())
			out := eval(t, n, []*expr.Node{v}, vin)
			want, err := matrix.New(out.Sparsity(), tc.want)
			require.NoError(t, err)
			assert.True(t, matrix.AllClose(out, want, matrix.WithTolerance(1e-12, 1e-12)), "got %v", out)
		})
	}
}

func TestParse_Structure(t *testing.T) {
	x, _, _, env := symbols(t)
	n, err := parse.Parse("cos(x)", env)
	require.NoError(t, err)
	assert.Equal(t, ops.OpCos, n.Op())
	assert.Same(t, x, n.Dep(0))

	// symbols shadow constants
	pi := expr.Must(expr.Sym("pi", 1, 1))
	n, err = parse.Parse("pi", map[string]*expr.Node{"pi": pi})
	require.NoError(t, err)
	assert.Same(t, pi, n)
}

func TestParse_Errors(t *testing.T) {
	_, _, _, env := symbols(t)
	tests := []struct {
		src  string
		want error
	}{
		{"sin(x", parse.ErrSyntax},
		{"z + 1", parse.ErrUnknownSymbol},
		{"gamma(x)", parse.ErrUnknownFunction},
		{"sin(x, y)", parse.ErrArity},
		{"pow(x)", parse.ErrArity},
		{"reshape(v, x, 1)", parse.ErrLiteral},
		{"\"text\"", parse.ErrLiteral},
		{"x && y", parse.ErrUnsupported},
		{"x % y", parse.ErrUnsupported},
		{"{1: 2}", parse.ErrUnsupported},
		{"v[5]", expr.ErrIndex},
		{"mtimes(v, v)", expr.ErrDimensionMismatch},
		{"[[1, 2], 3]", expr.ErrDimensionMismatch},
		{"solve(v, v)", expr.ErrNonSquare},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			_, err := parse.Parse(tc.src, env)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestParser_Options(t *testing.T) {
	_, _, v, env := symbols(t)
	log, logs := logger.NewObserverLogger("debug")
	p, err := parse.New(parse.WithSolver("qr"), parse.WithLogger(log))
	require.NoError(t, err)
	n, err := p.Parse("solve(eye(2), v)", env)
	require.NoError(t, err)
	assert.Equal(t, "qr", n.Solver())
	assert.Same(t, v, n.Dep(1))
	assert.Equal(t, 1, logs.FilterMessage("parsed").Len())

	p, err = parse.New(parse.WithSizeLimit(4))
	require.NoError(t, err)
	_, err = p.Parse("sin(x) + cos(x)", env)
	assert.ErrorIs(t, err, parse.ErrSyntax)
}
