// SPDX-License-Identifier: MIT

package linsol

import (
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/plugin"
	"github.com/katalvlaran/symad/sparsity"
)

// Infix is the plugin family of linear solvers.
const Infix = "linsol"

var (
	// ErrNotSolver is returned when a plugin does not create a Solver.
	ErrNotSolver = errors.New("linsol: plugin is not a linear solver")

	// ErrBadOption is returned for an option of the wrong type or value.
	ErrBadOption = errors.New("linsol: invalid option")
)

// Solver solves A*X = B, or Aᵀ*X = B when transpose is set, for a fixed
// pattern of A. Implementations are safe for concurrent use.
type Solver interface {
	Name() string
	Solve(a, b *matrix.Sparse, transpose bool) (*matrix.Sparse, error)
}

// New instantiates the solver name from r for square matrices of pattern sp.
// Errors: ErrNotSolver, matrix.ErrNonSquare, plugin errors.
func New(r *plugin.Registry, name string, sp sparsity.Sparsity, opts map[string]any) (Solver, error) {
	v, err := r.Instantiate(name, sp, opts)
	if err != nil {
		return nil, fmt.Errorf("linsol %q: %w", name, err)
	}
	s, ok := v.(Solver)
	if !ok {
		return nil, fmt.Errorf("linsol %q: %T: %w", name, v, ErrNotSolver)
	}
	return s, nil
}

// Register adds the built-in solvers lu, qr and the refine adaptor to r.
func Register(r *plugin.Registry) error {
	for _, p := range []plugin.Plugin{luPlugin, qrPlugin, refinePlugin} {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}

var (
	defaultOnce sync.Once
	defaultReg  *plugin.Registry
)

// Default returns the process-wide registry holding the built-in solvers
// and loading others from shared libraries.
func Default() *plugin.Registry {
	defaultOnce.Do(func() {
		defaultReg = plugin.NewRegistry(Infix, plugin.WithLoader(plugin.LibraryLoader{}))
		if err := Register(defaultReg); err != nil {
			panic(err)
		}
	})
	return defaultReg
}

func checkSquare(problem any) error {
	if sp, ok := problem.(sparsity.Sparsity); ok && !sp.IsSquare() {
		return fmt.Errorf("linsol: %v: %w", sp, matrix.ErrNonSquare)
	}
	return nil
}

// dense factorizations share the plumbing around gonum.
type factorizer interface {
	Factorize(a mat.Matrix)
	SolveTo(dst *mat.Dense, trans bool, b mat.Matrix) error
}

type denseSolver struct {
	name string
	fact func() factorizer
}

func (s denseSolver) Name() string { return s.name }

// Solve factorizes a densely and solves for every column of b.
// Errors: matrix.ErrNonSquare, matrix.ErrDimensionMismatch, matrix.ErrSingular.
func (s denseSolver) Solve(a, b *matrix.Sparse, transpose bool) (*matrix.Sparse, error) {
	// 1. Validate
	if err := matrix.ValidateSquare(a); err != nil {
		return nil, err
	}
	if a.Rows() != b.Rows() {
		return nil, fmt.Errorf("%s: %dx%d vs %dx%d: %w", s.name, a.Rows(), a.Cols(), b.Rows(), b.Cols(), matrix.ErrDimensionMismatch)
	}
	if a.Rows() == 0 || b.Cols() == 0 {
		return matrix.Zeros(sparsity.Dense(a.Cols(), b.Cols())), nil
	}
	// 2. Factorize and solve
	f := s.fact()
	f.Factorize(matrix.ToDense(a))
	var x mat.Dense
	if err := f.SolveTo(&x, transpose, matrix.ToDense(b)); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", s.name, err, matrix.ErrSingular)
	}
	return matrix.FromDense(&x, matrix.WithNoValidateNaNInf())
}

var luPlugin = plugin.Plugin{
	Name:    "lu",
	Doc:     "dense LU factorization with partial pivoting",
	Version: plugin.APIVersion,
	Creator: func(_ *plugin.Registry, problem any, _ map[string]any) (any, error) {
		if err := checkSquare(problem); err != nil {
			return nil, err
		}
		return denseSolver{name: "lu", fact: func() factorizer { return &mat.LU{} }}, nil
	},
}

var qrPlugin = plugin.Plugin{
	Name:    "qr",
	Doc:     "dense QR factorization",
	Version: plugin.APIVersion,
	Creator: func(_ *plugin.Registry, problem any, _ map[string]any) (any, error) {
		if err := checkSquare(problem); err != nil {
			return nil, err
		}
		return denseSolver{name: "qr", fact: func() factorizer { return &mat.QR{} }}, nil
	},
}
