// SPDX-License-Identifier: MIT

package function

import (
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/ops"
	"github.com/katalvlaran/symad/schedule"
)

// hooks supply what the element algebra alone cannot: input values and the
// matrix-level operations Solve and Assertion.
type hooks[T any] struct {
	input  func(in *Instr) ([]T, error)
	solve  func(in *Instr, a, b []T) ([]T, error)
	assert func(in *Instr, cond []T) error
}

// run replays the algorithm nonzero by nonzero in the algebra a and returns
// the output nonzeros.
func run[T any](f *Function, a ops.Algebra[T], h hooks[T], parallel bool) ([][]T, error) {
	w := make([][]T, len(f.slotNnz))
	for s, n := range f.slotNnz {
		w[s] = make([]T, n)
	}
	exec := func(i int) error { return step(a, h, &f.algo[i], w) }

	if parallel && f.levels != nil && f.opts.parallel > 1 {
		// 1. Level by level; instructions of one level write distinct slots
		for _, group := range schedule.Groups(f.levels) {
			p := pool.New().WithErrors().WithMaxGoroutines(f.opts.parallel)
			for _, i := range group {
				i := i
				p.Go(func() error { return exec(i) })
			}
			if err := p.Wait(); err != nil {
				return nil, err
			}
		}
	} else {
		for i := range f.algo {
			if err := exec(i); err != nil {
				return nil, err
			}
		}
	}

	out := make([][]T, len(f.outAt))
	for o, at := range f.outAt {
		out[o] = append([]T(nil), w[f.algo[at].Res]...)
	}
	return out, nil
}

// step evaluates one instruction.
func step[T any](a ops.Algebra[T], h hooks[T], in *Instr, w [][]T) error {
	res := w[in.Res]
	arg := func(i int) []T { return w[in.Arg[i]] }
	switch op := in.Op; {
	case op == ops.OpInput:
		v, err := h.input(in)
		if err != nil {
			return err
		}
		copy(res, v)
	case op == ops.OpConst:
		for k, v := range in.Node.Value().Nonzeros() {
			res[k] = a.Const(v)
		}
	case op.IsUnary():
		x := arg(0)
		for k := range res {
			res[k] = a.Unary(op, x[k])
		}
	case op.IsBinary():
		x, y := arg(0), arg(1)
		switch in.kind {
		case matrix.ScalarMatrix:
			for k := range res {
				res[k] = a.Binary(op, x[0], y[k])
			}
		case matrix.MatrixScalar:
			for k := range res {
				res[k] = a.Binary(op, x[k], y[0])
			}
		default:
			for k := range res {
				res[k] = a.Binary(op, x[k], y[k])
			}
		}
	case op == ops.OpTranspose, op == ops.OpGetNonzeros:
		x := arg(0)
		for k, src := range in.idx {
			res[k] = x[src]
		}
	case op == ops.OpReshape:
		copy(res, arg(0))
	case op == ops.OpProject:
		x := arg(0)
		for k, src := range in.idx {
			if src >= 0 {
				res[k] = x[src]
			} else {
				res[k] = a.Const(0)
			}
		}
	case op == ops.OpHorzcat, op == ops.OpVertcat, op == ops.OpDiagcat:
		for i, m := range in.maps {
			p := arg(i)
			for k, dst := range m {
				res[dst] = p[k]
			}
		}
	case op == ops.OpMtimes:
		x, y := arg(0), arg(1)
		for k := range res {
			res[k] = a.Const(0)
		}
		for t := 0; t < len(in.triple); t += 3 {
			z := in.triple[t]
			res[z] = a.Binary(ops.OpAdd, res[z], a.Binary(ops.OpMul, x[in.triple[t+1]], y[in.triple[t+2]]))
		}
	case op == ops.OpDot:
		x, y := arg(0), arg(1)
		s := a.Const(0)
		for k, src := range in.idx {
			if src >= 0 {
				s = a.Binary(ops.OpAdd, s, a.Binary(ops.OpMul, x[k], y[src]))
			}
		}
		res[0] = s
	case op == ops.OpNormF:
		s := a.Const(0)
		for _, v := range arg(0) {
			s = a.Binary(ops.OpAdd, s, a.Unary(ops.OpSq, v))
		}
		res[0] = a.Unary(ops.OpSqrt, s)
	case op == ops.OpSolve:
		v, err := h.solve(in, arg(0), arg(1))
		if err != nil {
			return err
		}
		copy(res, v)
	case op == ops.OpAssertion:
		if err := h.assert(in, arg(1)); err != nil {
			return err
		}
		copy(res, arg(0))
	default:
		return fmt.Errorf("%v: %w", op, ErrUnsupported)
	}
	return nil
}

// Eval evaluates the function numerically. Every argument must have the
// shape of its input; entries outside the input pattern are ignored.
// Errors: ErrFreeVariables, ErrDimensionMismatch, ErrAssertionFailed,
// linear solver errors.
func (f *Function) Eval(args ...*matrix.Sparse) ([]*matrix.Sparse, error) {
	// 1. Validate
	if len(f.free) > 0 {
		return nil, functionErrorf("Eval", f.name, fmt.Errorf("%v: %w", f.free, ErrFreeVariables))
	}
	if len(args) != len(f.inputs) {
		return nil, functionErrorf("Eval", f.name, fmt.Errorf("%d arguments for %d inputs: %w", len(args), len(f.inputs), ErrDimensionMismatch))
	}
	vals := make([][]float64, len(args))
	for i, x := range args {
		sp := f.inputs[i].Sparsity()
		if x == nil || !x.Sparsity().SameShape(sp) {
			return nil, functionErrorf("Eval", f.name, fmt.Errorf("argument %d: %w", i, ErrDimensionMismatch))
		}
		vals[i] = matrix.ValuesOn(x, sp)
	}
	evaluations.WithLabelValues("numeric").Inc()

	// 2. Replay
	h := hooks[float64]{
		input: func(in *Instr) ([]float64, error) { return vals[in.Input], nil },
		solve: func(in *Instr, a, b []float64) ([]float64, error) {
			deps := in.Node.Deps()
			am := matrix.Wrap(deps[0].Sparsity(), append([]float64(nil), a...))
			bm := matrix.Wrap(deps[1].Sparsity(), append([]float64(nil), b...))
			x, err := in.solver.Solve(am, bm, false)
			if err != nil {
				return nil, err
			}
			return matrix.ValuesOn(x, in.Node.Sparsity()), nil
		},
		assert: func(in *Instr, cond []float64) error {
			if len(cond) == 0 || cond[0] == 0 {
				return fmt.Errorf("%s: %w", in.Node.Message(), ErrAssertionFailed)
			}
			return nil
		},
	}
	nz, err := run(f, ops.Float64{}, h, true)
	if err != nil {
		return nil, functionErrorf("Eval", f.name, err)
	}
	// 3. Wrap outputs
	out := make([]*matrix.Sparse, len(nz))
	for o, v := range nz {
		out[o] = matrix.Wrap(f.outputs[o].Sparsity(), v)
	}
	return out, nil
}

// MustEval is Eval that panics on error. Intended for examples and tests.
func (f *Function) MustEval(args ...*matrix.Sparse) []*matrix.Sparse {
	out, err := f.Eval(args...)
	if err != nil {
		panic(err)
	}
	return out
}
