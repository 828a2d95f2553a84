// Package function turns output expressions of symbolic inputs into an
// evaluable, differentiable Function.
//
// What:
//
//   - New schedules the expression DAG below the outputs (package schedule),
//     emits one instruction per node and assigns work slots; with live
//     variables a slot is reused by a later result of the same size.
//   - Eval replays the algorithm numerically, optionally level by level on a
//     bounded goroutine pool.
//   - SpFwd, SpAdj and JacSparsity propagate 64-bit dependency words through
//     the same algorithm to obtain structural Jacobians.
//   - Call, Forward and Reverse replay the algorithm symbolically; Forward
//     and Reverse apply the chain rule per operation and return expressions.
//   - Jacobian colors the structural Jacobian and recovers every nonzero from
//     one sweep per color; Gradient, Tangent and Hessian build on it.
//   - Expand rewrites the function in scalar form (package sx).
//
// One generic replay (run) serves numeric evaluation, dependency propagation
// and expansion: each supplies an ops.Algebra for the element arithmetic and
// hooks for inputs, linear solves and assertions.
//
// Errors:
//
//   - ErrNotSymbolic, ErrDuplicateInput   invalid inputs to New
//   - ErrDimensionMismatch, ErrSeedMismatch wrong argument or seed shapes
//   - ErrFreeVariables                    numeric evaluation with free symbols
//   - ErrAssertionFailed                  an assertion condition evaluated to 0
//   - ErrIndex, ErrNotScalar, ErrUnsupported
package function
