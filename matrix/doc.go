// Package matrix is the numeric sparse matrix consumed by the evaluator:
// a sparsity.Sparsity plus one float64 per structural nonzero.
//
// The package provides:
//
//   - Constructors (New, Wrap, Zeros, Full, Scalar, Column, Identity) and
//     bounds-checked accessors (At, Set returning ErrOutOfRange).
//   - Elementwise kernels (Unary, Binary) implementing the densification rule:
//     cos of a diagonal matrix is dense with cos(0) = 1 off the diagonal.
//   - Structural kernels (Transpose, Reshape, Horzcat, Vertcat, Diagcat,
//     GetNonzeros, Project) and products (Mtimes, Dot, NormF).
//   - gonum bridges (ToDense, FromDense) used by the linear solvers.
//
// Only the operator surface needed by expression evaluation is covered.
package matrix
