// Package parse reads textual expressions into expression graphs.
//
// The grammar is the Common Expression Language: arithmetic and comparison
// operators map onto the elementwise operations, identifiers onto declared
// symbols, numeric literals onto scalar constants and list literals onto
// column vectors ([a, b]) or row-major matrices ([[a, b], [c, d]]).
//
// Calls:
//
//	sin cos tan asin acos atan sinh cosh tanh exp log sqrt sq fabs abs
//	sign inv floor ceil erf neg         unary, elementwise
//	pow atan2 fmin fmax                 binary, elementwise
//	mtimes dot sum norm_fro transpose   linear algebra
//	reshape(x, r, c) horzcat vertcat diagcat
//	solve(a, b[, "solver"]) assert(x, cond, "message")
//	zeros(r, c) ones(r, c) eye(n)
//
// x[k] selects the k-th structural nonzero of x. The identifiers pi and e
// are constants unless a symbol shadows them.
//
// Member syntax is accepted for every call: x.sin() is sin(x).
package parse
