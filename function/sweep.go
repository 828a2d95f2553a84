// SPDX-License-Identifier: MIT

package function

import (
	"fmt"

	"github.com/katalvlaran/symad/expr"
	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/ops"
	"github.com/katalvlaran/symad/sparsity"
)

// builder chains node constructors and keeps the first error.
type builder struct{ err error }

func (b *builder) do(n *expr.Node, err error) *expr.Node {
	if b.err == nil && err != nil {
		b.err = err
	}
	if b.err != nil {
		return nil
	}
	return n
}

// add returns x+y where nil reads as zero.
func (b *builder) add(x, y *expr.Node) *expr.Node {
	switch {
	case x == nil:
		return y
	case y == nil:
		return x
	}
	return b.do(expr.Add(x, y))
}

// conform returns x on pattern sp (same shape), nil for nil.
func (b *builder) conform(x *expr.Node, sp sparsity.Sparsity) *expr.Node {
	if x == nil || b.err != nil || x.Sparsity().Equal(sp) {
		return x
	}
	return b.do(expr.Project(x, sp))
}

// structuralZeros returns the all-structural-zero node of the shape of sp.
func structuralZeros(sp sparsity.Sparsity) *expr.Node {
	return expr.Zeros(sparsity.Zeros(sp.Rows(), sp.Cols()))
}

// orZeros replaces nil by structural zeros of the shape of sp.
func orZeros(x *expr.Node, sp sparsity.Sparsity) *expr.Node {
	if x == nil {
		return structuralZeros(sp)
	}
	return x
}

// checkArgs validates symbolic arguments against nodes by shape.
func (f *Function) checkArgs(tag string, args []*expr.Node, nodes []*expr.Node, sentinel error) error {
	if len(args) != len(nodes) {
		return functionErrorf(tag, f.name, fmt.Errorf("%d arguments for %d slots: %w", len(args), len(nodes), sentinel))
	}
	for i, x := range args {
		if x != nil && !x.Sparsity().SameShape(nodes[i].Sparsity()) {
			return functionErrorf(tag, f.name, fmt.Errorf("argument %d is %dx%d, want %dx%d: %w",
				i, x.Rows(), x.Cols(), nodes[i].Rows(), nodes[i].Cols(), sentinel))
		}
	}
	return nil
}

// IsInput reports whether args are the inputs themselves, up to the
// construction-time equality depth.
func (f *Function) IsInput(args []*expr.Node) bool {
	if len(args) != len(f.inputs) {
		return false
	}
	for i, a := range args {
		if !expr.IsEqual(a, f.inputs[i], expr.EqualityDepth) {
			return false
		}
	}
	return true
}

// values substitutes args for the inputs and rebuilds every instruction.
// Arguments equal to their input leave the graph untouched, so calling a
// function on its own inputs returns its own nodes.
func (f *Function) values(b *builder, args []*expr.Node) []*expr.Node {
	v := make([]*expr.Node, len(f.algo))
	for i := range f.algo {
		in := &f.algo[i]
		n := in.Node
		if in.Op == ops.OpInput {
			v[i] = n
			if in.Input >= 0 {
				if a := args[in.Input]; a != nil && !expr.IsEqual(a, n, expr.EqualityDepth) {
					v[i] = b.conform(a, n.Sparsity())
				}
			}
			continue
		}
		deps := make([]*expr.Node, len(in.from))
		same := true
		for k, j := range in.from {
			deps[k] = b.conform(v[j], n.Dep(k).Sparsity())
			same = same && deps[k] == n.Dep(k)
		}
		if same {
			v[i] = n
			continue
		}
		v[i] = b.do(rebuild(n, deps))
		if b.err != nil {
			return nil
		}
	}
	return v
}

// rebuild applies the operation of n to new dependencies.
func rebuild(n *expr.Node, d []*expr.Node) (*expr.Node, error) {
	switch op := n.Op(); {
	case op.IsLeaf():
		return n, nil
	case op.IsUnary():
		return expr.Unary(op, d[0])
	case op.IsBinary():
		return expr.Binary(op, d[0], d[1])
	}
	switch n.Op() {
	case ops.OpTranspose:
		return expr.Transpose(d[0])
	case ops.OpReshape:
		return expr.Reshape(d[0], n.Rows(), n.Cols())
	case ops.OpHorzcat:
		return expr.Horzcat(d...)
	case ops.OpVertcat:
		return expr.Vertcat(d...)
	case ops.OpDiagcat:
		return expr.Diagcat(d...)
	case ops.OpGetNonzeros:
		return expr.GetNonzeros(d[0], n.Sparsity(), n.NZ())
	case ops.OpProject:
		return expr.Project(d[0], n.Sparsity())
	case ops.OpMtimes:
		return expr.Mtimes(d[0], d[1])
	case ops.OpSolve:
		return expr.Solve(d[0], d[1], n.Solver())
	case ops.OpDot:
		return expr.Dot(d[0], d[1])
	case ops.OpNormF:
		return expr.NormF(d[0])
	case ops.OpAssertion:
		return expr.Assert(d[0], d[1], n.Message())
	}
	return nil, fmt.Errorf("%v: %w", n.Op(), ErrUnsupported)
}

// Call evaluates the function symbolically: args replace the inputs and the
// result is one expression per output, on the output pattern. A nil argument
// keeps the input symbol.
// Errors: ErrDimensionMismatch, construction errors.
func (f *Function) Call(args ...*expr.Node) ([]*expr.Node, error) {
	if err := f.checkArgs("Call", args, f.inputs, ErrDimensionMismatch); err != nil {
		return nil, err
	}
	if f.IsInput(args) {
		return f.Outputs(), nil
	}
	b := &builder{}
	v := f.values(b, args)
	out := make([]*expr.Node, len(f.outputs))
	for o, at := range f.outAt {
		if b.err != nil {
			break
		}
		out[o] = b.conform(v[at], f.outputs[o].Sparsity())
	}
	if b.err != nil {
		return nil, functionErrorf("Call", f.name, b.err)
	}
	return out, nil
}

// Forward propagates forward seeds: fseeds[d][i] is the tangent of input i
// in direction d (nil for zero) and the result holds fsens[d][o], the
// directional derivative of output o on its pattern. The directional
// derivatives are taken at args (nil keeps the input symbol).
// Errors: ErrDimensionMismatch, ErrSeedMismatch.
func (f *Function) Forward(args []*expr.Node, fseeds [][]*expr.Node) ([][]*expr.Node, error) {
	if args == nil {
		args = make([]*expr.Node, len(f.inputs))
	}
	if err := f.checkArgs("Forward", args, f.inputs, ErrDimensionMismatch); err != nil {
		return nil, err
	}
	for _, s := range fseeds {
		if err := f.checkArgs("Forward", s, f.inputs, ErrSeedMismatch); err != nil {
			return nil, err
		}
	}
	b := &builder{}
	v := f.values(b, args)
	fsens := make([][]*expr.Node, len(fseeds))
	for d, seed := range fseeds {
		t := make([]*expr.Node, len(f.algo))
		for i := range f.algo {
			if b.err != nil {
				break
			}
			t[i] = f.tangent(b, i, v, t, seed)
		}
		fsens[d] = make([]*expr.Node, len(f.outputs))
		for o, at := range f.outAt {
			fsens[d][o] = orZeros(b.conform(t[at], f.outputs[o].Sparsity()), f.outputs[o].Sparsity())
		}
	}
	if b.err != nil {
		return nil, functionErrorf("Forward", f.name, b.err)
	}
	return fsens, nil
}

// tangent returns the tangent of instruction i on the node pattern, nil when
// it is structurally zero.
func (f *Function) tangent(b *builder, i int, v, t []*expr.Node, seed []*expr.Node) *expr.Node {
	in := &f.algo[i]
	n := in.Node
	if in.Op == ops.OpInput {
		if in.Input < 0 {
			return nil
		}
		return b.conform(seed[in.Input], n.Sparsity())
	}
	if in.Op == ops.OpConst {
		return nil
	}
	// 1. Operand values and tangents
	x := make([]*expr.Node, len(in.from))
	dx := make([]*expr.Node, len(in.from))
	seeded := false
	for k, j := range in.from {
		x[k] = v[j]
		dx[k] = t[j]
		seeded = seeded || dx[k] != nil
	}
	if !seeded {
		return nil
	}
	f0 := v[i]
	var r *expr.Node
	// 2. Rule
	switch op := in.Op; {
	case op.IsUnary():
		px, _ := ops.Partials[*expr.Node](expr.Algebra{}, op, x[0], x[0], f0)
		if !px.IsZero() {
			r = b.do(expr.Mul(dx[0], px))
		}
	case op.IsBinary():
		px, py := ops.Partials[*expr.Node](expr.Algebra{}, op, x[0], x[1], f0)
		if dx[0] != nil && !px.IsZero() {
			r = b.add(r, b.do(expr.Mul(dx[0], px)))
		}
		if dx[1] != nil && !py.IsZero() {
			r = b.add(r, b.do(expr.Mul(dx[1], py)))
		}
	case op == ops.OpTranspose:
		r = b.do(expr.Transpose(dx[0]))
	case op == ops.OpReshape:
		r = b.do(expr.Reshape(dx[0], n.Rows(), n.Cols()))
	case op == ops.OpHorzcat, op == ops.OpVertcat, op == ops.OpDiagcat:
		parts := make([]*expr.Node, len(dx))
		for k := range dx {
			parts[k] = b.conform(orZeros(dx[k], x[k].Sparsity()), n.Dep(k).Sparsity())
		}
		r = b.do(rebuild(n, parts))
	case op == ops.OpGetNonzeros:
		r = b.do(expr.GetNonzeros(dx[0], n.Sparsity(), n.NZ()))
	case op == ops.OpProject:
		r = b.do(expr.Project(dx[0], n.Sparsity()))
	case op == ops.OpMtimes:
		if dx[0] != nil {
			r = b.add(r, b.do(expr.Mtimes(dx[0], x[1])))
		}
		if dx[1] != nil {
			r = b.add(r, b.do(expr.Mtimes(x[0], dx[1])))
		}
	case op == ops.OpSolve:
		// A X = B: A dX = dB - dA X
		rhs := dx[1]
		if dx[0] != nil {
			ax := b.do(expr.Mtimes(dx[0], f0))
			if rhs == nil {
				rhs = b.do(expr.Neg(ax))
			} else {
				rhs = b.do(expr.Sub(rhs, ax))
			}
		}
		r = b.do(expr.Solve(x[0], rhs, n.Solver()))
	case op == ops.OpDot:
		if dx[0] != nil {
			r = b.add(r, b.do(expr.Dot(dx[0], x[1])))
		}
		if dx[1] != nil {
			r = b.add(r, b.do(expr.Dot(x[0], dx[1])))
		}
	case op == ops.OpNormF:
		r = b.do(expr.Div(b.do(expr.Dot(x[0], dx[0])), f0))
	case op == ops.OpAssertion:
		r = dx[0]
	default:
		b.do(nil, fmt.Errorf("forward %v: %w", op, ErrUnsupported))
	}
	return b.conform(r, n.Sparsity())
}

// Reverse propagates adjoint seeds: aseeds[d][o] weighs output o in
// direction d (nil for zero) and the result holds asens[d][i], the adjoint
// of input i on its pattern, evaluated at args (nil keeps the input symbol).
// Errors: ErrDimensionMismatch, ErrSeedMismatch.
func (f *Function) Reverse(args []*expr.Node, aseeds [][]*expr.Node) ([][]*expr.Node, error) {
	if args == nil {
		args = make([]*expr.Node, len(f.inputs))
	}
	if err := f.checkArgs("Reverse", args, f.inputs, ErrDimensionMismatch); err != nil {
		return nil, err
	}
	for _, s := range aseeds {
		if err := f.checkArgs("Reverse", s, f.outputs, ErrSeedMismatch); err != nil {
			return nil, err
		}
	}
	b := &builder{}
	v := f.values(b, args)
	asens := make([][]*expr.Node, len(aseeds))
	for d, seed := range aseeds {
		// 1. Seed the outputs
		adj := make([]*expr.Node, len(f.algo))
		for o, at := range f.outAt {
			adj[at] = b.add(adj[at], b.conform(seed[o], f.outputs[o].Sparsity()))
		}
		// 2. Reverse sweep
		res := make([]*expr.Node, len(f.inputs))
		for i := len(f.algo) - 1; i >= 0 && b.err == nil; i-- {
			a := adj[i]
			if a == nil {
				continue
			}
			in := &f.algo[i]
			if in.Op == ops.OpInput {
				if in.Input >= 0 {
					res[in.Input] = b.add(res[in.Input], a)
				}
				continue
			}
			for k, c := range f.adjoint(b, i, v, a) {
				if c == nil {
					continue
				}
				j := in.from[k]
				adj[j] = b.add(adj[j], b.conform(c, f.algo[j].Node.Sparsity()))
			}
			adj[i] = nil
		}
		asens[d] = make([]*expr.Node, len(f.inputs))
		for k, x := range f.inputs {
			asens[d][k] = orZeros(b.conform(res[k], x.Sparsity()), x.Sparsity())
		}
	}
	if b.err != nil {
		return nil, functionErrorf("Reverse", f.name, b.err)
	}
	return asens, nil
}

// adjoint returns the contribution of the adjoint a of instruction i to each
// of its dependencies (nil when none).
func (f *Function) adjoint(b *builder, i int, v []*expr.Node, a *expr.Node) []*expr.Node {
	in := &f.algo[i]
	n := in.Node
	x := make([]*expr.Node, len(in.from))
	for k, j := range in.from {
		x[k] = v[j]
	}
	f0 := v[i]
	c := make([]*expr.Node, len(x))
	switch op := in.Op; {
	case op == ops.OpConst:
	case op.IsUnary():
		px, _ := ops.Partials[*expr.Node](expr.Algebra{}, op, x[0], x[0], f0)
		if !px.IsZero() {
			c[0] = b.do(expr.Mul(a, px))
		}
	case op.IsBinary():
		px, py := ops.Partials[*expr.Node](expr.Algebra{}, op, x[0], x[1], f0)
		if !px.IsZero() {
			c[0] = b.do(expr.Mul(a, px))
			if in.kind == matrix.ScalarMatrix {
				c[0] = b.do(expr.Sum(c[0]))
			}
		}
		if !py.IsZero() {
			c[1] = b.do(expr.Mul(a, py))
			if in.kind == matrix.MatrixScalar {
				c[1] = b.do(expr.Sum(c[1]))
			}
		}
	case op == ops.OpTranspose:
		c[0] = b.do(expr.Transpose(a))
	case op == ops.OpReshape:
		c[0] = b.do(expr.Reshape(a, x[0].Rows(), x[0].Cols()))
	case op == ops.OpHorzcat, op == ops.OpVertcat, op == ops.OpDiagcat:
		for k, m := range in.maps {
			if sp := n.Dep(k).Sparsity(); sp.Nnz() > 0 {
				c[k] = b.do(expr.GetNonzeros(a, sp, m))
			}
		}
	case op == ops.OpGetNonzeros:
		c[0] = scatter(b, a, n.Dep(0).Sparsity(), n.NZ())
	case op == ops.OpProject:
		c[0] = b.do(expr.Project(a, n.Dep(0).Sparsity()))
	case op == ops.OpMtimes:
		// z = x*y: x̄ = z̄ yᵀ, ȳ = xᵀ z̄
		c[0] = b.do(expr.Mtimes(a, b.do(expr.Transpose(x[1]))))
		c[1] = b.do(expr.Mtimes(b.do(expr.Transpose(x[0])), a))
	case op == ops.OpSolve:
		// X = A\B: B̄ = A⁻ᵀ X̄, Ā = -B̄ Xᵀ
		bb := b.do(expr.Solve(b.do(expr.Transpose(x[0])), a, n.Solver()))
		c[1] = bb
		c[0] = b.do(expr.Neg(b.do(expr.Mtimes(bb, b.do(expr.Transpose(f0))))))
	case op == ops.OpDot:
		c[0] = b.do(expr.Mul(a, x[1]))
		c[1] = b.do(expr.Mul(a, x[0]))
	case op == ops.OpNormF:
		c[0] = b.do(expr.Mul(b.do(expr.Div(a, f0)), x[0]))
	case op == ops.OpAssertion:
		c[0] = a
	default:
		b.do(nil, fmt.Errorf("reverse %v: %w", op, ErrUnsupported))
	}
	return c
}

// scatter returns the adjoint of y = x[nz] on the pattern of x: entry nz[k]
// of x receives a[k], repeated indices accumulate. Every round gathers at
// most one contribution per target so it is a single GetNonzeros.
func scatter(b *builder, a *expr.Node, xsp sparsity.Sparsity, nz []int) *expr.Node {
	xcols, xrows := xsp.Columns(), xsp.RowInd()
	seen := make(map[int]int, len(nz))
	rounds := [][]int{}
	for k, src := range nz {
		r := seen[src]
		seen[src] = r + 1
		if r == len(rounds) {
			rounds = append(rounds, nil)
		}
		rounds[r] = append(rounds[r], k)
	}
	col := b.do(expr.Nonzeros(a), nil)
	var out *expr.Node
	for _, ks := range rounds {
		rows := make([]int, len(ks))
		cols := make([]int, len(ks))
		for q, k := range ks {
			rows[q], cols[q] = xrows[nz[k]], xcols[nz[k]]
		}
		sp, mapping, err := sparsity.Triplet(xsp.Rows(), xsp.Cols(), rows, cols)
		if err != nil {
			return b.do(nil, err)
		}
		idx := make([]int, len(ks))
		for q, k := range ks {
			idx[mapping[q]] = k
		}
		out = b.add(out, b.do(expr.GetNonzeros(col, sp, idx)))
	}
	return out
}
