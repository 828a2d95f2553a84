// SPDX-License-Identifier: MIT

package linsol

import (
	"fmt"

	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/ops"
	"github.com/katalvlaran/symad/plugin"
)

// DefaultRefineIterations is the number of correction steps of "refine".
const DefaultRefineIterations = 1

// refine wraps an inner solver with iterative refinement:
// x += inner(A, b - A*x), repeated a fixed number of times.
type refine struct {
	inner Solver
	iter  int
}

func (s refine) Name() string { return "refine." + s.inner.Name() }

func (s refine) Solve(a, b *matrix.Sparse, transpose bool) (*matrix.Sparse, error) {
	x, err := s.inner.Solve(a, b, transpose)
	if err != nil {
		return nil, err
	}
	op := a
	if transpose {
		op = matrix.Transpose(a)
	}
	for i := 0; i < s.iter; i++ {
		// 1. Residual r = b - op*x
		ax, err := matrix.Mtimes(op, x)
		if err != nil {
			return nil, err
		}
		r := matrix.MustBinary(ops.OpSub, b, ax)
		// 2. Correction
		dx, err := s.inner.Solve(a, r, transpose)
		if err != nil {
			return nil, err
		}
		x = matrix.MustBinary(ops.OpAdd, x, dx)
	}
	return x, nil
}

var refinePlugin = plugin.Plugin{
	Name:    "refine",
	Doc:     "iterative refinement around an inner solver (refine.<solver>)",
	Version: plugin.APIVersion,
	Creator: func(r *plugin.Registry, problem any, opts map[string]any) (any, error) {
		inner := "lu"
		if v, ok := opts["refine_solver"]; ok {
			s, isString := v.(string)
			if !isString {
				return nil, fmt.Errorf("refine_solver %T: %w", v, ErrBadOption)
			}
			inner = s
		}
		iter := DefaultRefineIterations
		if v, ok := opts["refine_iterations"]; ok {
			n, isInt := v.(int)
			if !isInt || n < 0 {
				return nil, fmt.Errorf("refine_iterations %v: %w", v, ErrBadOption)
			}
			iter = n
		}
		v, err := r.Instantiate(inner, problem, nil)
		if err != nil {
			return nil, err
		}
		s, ok := v.(Solver)
		if !ok {
			return nil, fmt.Errorf("refine inner %q: %w", inner, ErrNotSolver)
		}
		return refine{inner: s, iter: iter}, nil
	},
}
