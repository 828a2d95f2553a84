// Package expr is the matrix-valued symbolic expression graph.
//
// Every Node is immutable and computes its output sparsity at construction
// from the operation and the dependency patterns:
//
//   - Unary: op(0) != 0 densifies (cos of a diagonal is dense).
//   - Binary: same shapes combine patterns (union, intersection for mul,
//     dense when op(0,0) != 0); a 1×1 operand broadcasts over the other.
//   - Structural: Transpose, Reshape, Horzcat/Vertcat/Diagcat, splits and
//     indexing via GetNonzeros, Project, Mtimes, Solve, Dot, NormF, Assert.
//
// Constructors fold constants and apply a few exact rewrites (x+0, x*1,
// -(-x), x-x, (a+b)-a, ...) only when the result pattern is unchanged.
// IsEqual is depth-bounded and never reports a false match.
//
// Errors are the sentinels of errors.go; Must turns them into panics for
// examples and tests.
package expr
