package function

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/symad/expr"
	"github.com/katalvlaran/symad/matrix"
)

func TestMetrics_Counted(t *testing.T) {
	x := expr.Must(expr.Sym("x", 3, 1))
	fn, err := New("m", []*expr.Node{x}, []*expr.Node{expr.Must(expr.Exp(x))})
	require.NoError(t, err)

	numeric := testutil.ToFloat64(evaluations.WithLabelValues("numeric"))
	_, err = fn.Eval(matrix.Column(1, 2, 3))
	require.NoError(t, err)
	assert.Equal(t, numeric+1, testutil.ToFloat64(evaluations.WithLabelValues("numeric")))

	fwd := testutil.ToFloat64(jacobianSweeps.WithLabelValues("forward"))
	spf := testutil.ToFloat64(evaluations.WithLabelValues("sparsity_fwd"))
	_, err = fn.Jacobian(0, 0)
	require.NoError(t, err)
	// exp is elementwise: one color, one forward sweep, one bit word.
	assert.Equal(t, fwd+1, testutil.ToFloat64(jacobianSweeps.WithLabelValues("forward")))
	assert.Equal(t, spf+1, testutil.ToFloat64(evaluations.WithLabelValues("sparsity_fwd")))
}

func TestAssignSlots_NeverAliasArguments(t *testing.T) {
	x := expr.Must(expr.Sym("x", 2, 1))
	a := expr.Must(expr.Sin(x))
	b := expr.Must(expr.Mul(a, a))
	c := expr.Must(expr.Add(b, expr.Must(expr.Cos(a))))
	fn, err := New("s", []*expr.Node{x}, []*expr.Node{c})
	require.NoError(t, err)

	for i, in := range fn.algo {
		for k, s := range in.Arg {
			assert.NotEqual(t, in.Res, s, "instruction %d argument %d", i, k)
			assert.Equal(t, fn.algo[in.from[k]].Res, s)
		}
	}
	assert.Len(t, fn.slotNnz, fn.NumSlots())
}
