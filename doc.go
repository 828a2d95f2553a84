// Package symad is an expression-graph engine for automatic
// differentiation with sparse Jacobians.
//
// What is symad?
//
//	A library and command line tool that builds matrix-valued expression
//	graphs, schedules them into flat algorithms and differentiates them:
//		• Sparsity patterns: compressed-column, set algebra, graph coloring
//		• Expressions: symbols, constants, elementwise and matrix operations
//		• Scheduling: depth-first, breadth-first levels, postponement
//		• Evaluation: numeric, symbolic, scalar expansion, dependency bits
//		• Derivatives: forward and adjoint sweeps, compressed Jacobians,
//		  gradients, tangents and Hessians
//		• Plugins: linear solvers behind a registry with shared-library loading
//
// Under the hood, everything is organized under these packages:
//
//	ops/       — operation tags, numeric kernels and partial derivatives
//	sparsity/  — immutable compressed-column patterns and colorings
//	matrix/    — numeric sparse matrices over a pattern
//	expr/      — the symbolic node graph and its constructors
//	schedule/  — topological orders and levels over any node type
//	sx/        — scalar expression graphs for expanded functions
//	function/  — Function: evaluation, sweeps and Jacobians
//	plugin/    — plugin registry and loaders
//	linsol/    — linear solver plugins (lu, qr, refine)
//	parse/     — text expressions into expression graphs
//	cmd/symad  — the command line tool
//
// Quick start:
//
//	x := expr.Must(expr.Sym("x", 1, 1))
//	y := expr.Must(expr.Sym("y", 1, 1))
//	f, _ := function.New("f", []*expr.Node{x, y},
//		[]*expr.Node{expr.Must(parse.Parse("sin(x * y) + sq(x)",
//			map[string]*expr.Node{"x": x, "y": y}))})
//	jac, _ := f.NumericJacobian(0, 0, []*matrix.Sparse{matrix.Scalar(1), matrix.Scalar(2)})
package symad
