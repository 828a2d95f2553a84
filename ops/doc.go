// Package ops is the operation table of the expression engine.
//
// What:
//
//   - Op tags for leaves (input, const), unary and binary elementwise
//     operations and the structural matrix operations (transpose, reshape,
//     concatenation, nonzero selection, projection, mtimes, solve, dot,
//     Frobenius norm, assertion).
//   - Numeric kernels Eval1/Eval2.
//   - Zero-preservation predicates (ZeroAtZero, ZeroFirst, ZeroSecond,
//     ZeroBoth) used by the sparsity rules of package expr.
//   - Partials: the chain-rule table, generic over an Algebra so that
//     numeric, scalar-symbolic and matrix-symbolic sweeps share it.
//
// Errors:
//
//   - Asking for a kernel, arity or derivative of an operation that does not
//     define one panics: it is a gap in the table, never a data condition.
package ops
