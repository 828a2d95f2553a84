// Package sx is the scalar symbolic graph: every node is a single scalar
// symbol, constant or elementwise operation.
//
// Matrix-valued functions are re-expanded into sx graphs nonzero by nonzero.
// The resulting Function is scheduled depth-first with one work slot per
// scalar node and evaluates with plain float64 arithmetic, which makes it the
// reference the matrix-valued evaluator is checked against.
//
// Construction folds constants and applies the identities x+0, x*1, x*0,
// -(-x) and x-x. Algebra adapts the package to ops.Algebra so the generic
// derivative rules in ops produce scalar expressions directly.
package sx
