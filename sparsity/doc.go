// Package sparsity describes where the structurally nonzero entries of a
// matrix are, independent of their values.
//
// What:
//
//   - Sparsity: immutable compressed-column (CCS) pattern with set algebra
//     (Union with origin tags, Intersect, Combine for elementwise operations),
//     Transpose with a nonzero mapping, Reshape, MatMul and concatenation.
//   - Coloring: UnidirectionalColoring and StarColoring partition the columns
//     of a Jacobian pattern for compressed differentiation.
//   - Hash: xxhash fingerprint for caching keyed by pattern.
//
// Errors:
//
//   - Constructors return ErrBadShape, ErrInvalidPattern, ErrDimensionMismatch
//     or ErrIndex, matched with errors.Is.
//   - Element queries (HasNZ, NZIndex) with an index outside the shape panic:
//     such an index is a construction bug in the caller.
//
// Complexity: every set operation is linear in ncol + nnz of its operands.
package sparsity
