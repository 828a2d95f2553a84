// SPDX-License-Identifier: MIT

package function

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/symad/expr"
	"github.com/katalvlaran/symad/sparsity"
)

// Jacobian returns the symbolic Jacobian of output oind with respect to
// input iind.
//
// Steps:
//  1. quick exit with structural zeros when either side is empty or the
//     output does not depend on the input;
//  2. structural Jacobian by bit propagation (JacSparsity);
//  3. coloring: star coloring of the symmetrized pattern (Symmetric), the
//     identity (Uncompressed), otherwise the cheaper of the column coloring
//     (forward) and the row coloring (adjoint) weighed by the AD weight;
//  4. one symbolic sweep per color, batched by the maximum direction count;
//  5. recovery of every structural nonzero from the compressed product.
//
// The result is numel(y)×numel(x), or nnz(y)×nnz(x) with Compact().
// Errors: ErrIndex, ErrDimensionMismatch (Symmetric on a non-square
// Jacobian), sweep errors.
func (f *Function) Jacobian(iind, oind int, opts ...JacOption) (*expr.Node, error) {
	if err := f.checkIndex("Jacobian", iind, oind); err != nil {
		return nil, err
	}
	var jo jacOptions
	for _, fn := range opts {
		fn(&jo)
	}
	x, y := f.inputs[iind], f.outputs[oind]
	nx, ny := x.Nnz(), y.Nnz()
	shape := func() (int, int) {
		if jo.compact {
			return ny, nx
		}
		return y.Sparsity().Numel(), x.Sparsity().Numel()
	}
	zeros := func() *expr.Node {
		r, c := shape()
		return expr.Zeros(sparsity.Zeros(r, c))
	}
	// 1. Quick exit
	if nx == 0 || ny == 0 || !expr.Depends(y, x) {
		return zeros(), nil
	}
	if jo.symmetric && !x.Sparsity().Equal(y.Sparsity()) {
		return nil, functionErrorf("Jacobian", f.name, fmt.Errorf("symmetric Jacobian of %v by %v: %w", y.Sparsity(), x.Sparsity(), ErrDimensionMismatch))
	}
	// 2. Structure
	jsp, err := f.JacSparsity(iind, oind)
	if err != nil {
		return nil, err
	}
	if jsp.Nnz() == 0 {
		return zeros(), nil
	}
	// 3. Coloring
	var sym sparsity.Sparsity
	if jo.symmetric && !jo.uncompressed {
		sym, _ = jsp.Union(jsp.T())
	}
	partition, forward := Partition(jsp, f.opts.adWeight, jo.symmetric, jo.uncompressed)
	ncolors := partition.Cols()
	jacobianColors.Observe(float64(ncolors))

	// 4. Compressed product, one column per color
	cols, err := f.compressed(iind, oind, partition, forward)
	if err != nil {
		return nil, err
	}
	c, err := expr.Horzcat(cols...)
	if err != nil {
		return nil, functionErrorf("Jacobian", f.name, err)
	}

	// 5. Recovery
	color := sparsity.Colors(partition)
	var count []int
	if jo.symmetric && !jo.uncompressed {
		count = sym.RowColorCount(partition)
	}
	colind, rows := jsp.ColInd(), jsp.RowInd()
	idx := make([]int, jsp.Nnz())
	for j := 0; j < nx; j++ {
		for el := colind[j]; el < colind[j+1]; el++ {
			r := rows[el]
			switch {
			case !forward:
				idx[el] = color[r]*nx + j
			case count != nil && count[r*ncolors+color[j]] != 1:
				// mirrored from row j of the compressed product
				idx[el] = color[r]*ny + j
			default:
				idx[el] = color[j]*ny + r
			}
		}
	}
	f.opts.log.Debug("jacobian",
		zap.String("function", f.name),
		zap.Int("iind", iind),
		zap.Int("oind", oind),
		zap.Int("nnz", jsp.Nnz()),
		zap.Int("colors", ncolors),
		zap.Bool("forward", forward),
		zap.Bool("symmetric", jo.symmetric))

	if jo.compact {
		return f.checked("Jacobian")(expr.GetNonzeros(c, jsp, idx))
	}
	// 6. Element indexing: nonzero r of y is entry yr + yc*rows(y)
	lin := func(sp sparsity.Sparsity) []int {
		out := make([]int, sp.Nnz())
		cc, rr := sp.Columns(), sp.RowInd()
		for k := range out {
			out[k] = rr[k] + cc[k]*sp.Rows()
		}
		return out
	}
	ylin, xlin := lin(y.Sparsity()), lin(x.Sparsity())
	jcols := jsp.Columns()
	er, ec := make([]int, len(idx)), make([]int, len(idx))
	for k := range idx {
		er[k], ec[k] = ylin[rows[k]], xlin[jcols[k]]
	}
	full, mapping, err := sparsity.Triplet(y.Sparsity().Numel(), x.Sparsity().Numel(), er, ec)
	if err != nil {
		return nil, functionErrorf("Jacobian", f.name, err)
	}
	fidx := make([]int, len(idx))
	for k, m := range mapping {
		fidx[m] = idx[k]
	}
	return f.checked("Jacobian")(expr.GetNonzeros(c, full, fidx))
}

// Partition colors the structural Jacobian jsp (ny×nx) for compressed
// evaluation and reports the sweep direction. The partition has one row per
// column of jsp (forward) or per row of jsp (adjoint) and one column per
// color.
//
//   - uncompressed: the identity, forward;
//   - symmetric: star coloring of jsp ∪ jspᵀ, forward;
//   - otherwise forward iff w·nfwd <= (1-w)·nadj for the greedy column and
//     row colorings.
func Partition(jsp sparsity.Sparsity, w float64, symmetric, uncompressed bool) (sparsity.Sparsity, bool) {
	switch {
	case uncompressed:
		color := make([]int, jsp.Cols())
		for j := range color {
			color[j] = j
		}
		return sparsity.FromColors(color, len(color)), true
	case symmetric:
		sym, _ := jsp.Union(jsp.T())
		return sym.StarColoring(), true
	}
	fwd, _ := jsp.UnidirectionalColoring(-1)
	adj, _ := jsp.T().UnidirectionalColoring(-1)
	if w*float64(fwd.Cols()) <= (1-w)*float64(adj.Cols()) {
		return fwd, true
	}
	return adj, false
}

// checked wraps a constructor error with the operation tag.
func (f *Function) checked(tag string) func(*expr.Node, error) (*expr.Node, error) {
	return func(n *expr.Node, err error) (*expr.Node, error) {
		if err != nil {
			return nil, functionErrorf(tag, f.name, err)
		}
		return n, nil
	}
}

// compressed runs one sweep per color of partition and returns the results
// as dense columns: ny-long forward columns or nx-long adjoint columns.
func (f *Function) compressed(iind, oind int, partition sparsity.Sparsity, forward bool) ([]*expr.Node, error) {
	ncolors := partition.Cols()
	seedNode, outNode := f.outputs[oind], f.inputs[iind]
	if forward {
		seedNode, outNode = f.inputs[iind], f.outputs[oind]
	}
	// 1. Seed patterns: the nonzeros of one color
	sc, sr := seedNode.Sparsity().Columns(), seedNode.Sparsity().RowInd()
	pcol, prow := partition.ColInd(), partition.RowInd()
	seeds := make([]*expr.Node, ncolors)
	for c := 0; c < ncolors; c++ {
		var rows, cols []int
		for el := pcol[c]; el < pcol[c+1]; el++ {
			k := prow[el]
			rows = append(rows, sr[k])
			cols = append(cols, sc[k])
		}
		sp, _, err := sparsity.Triplet(seedNode.Rows(), seedNode.Cols(), rows, cols)
		if err != nil {
			return nil, functionErrorf("Jacobian", f.name, err)
		}
		seeds[c] = expr.Ones(sp)
	}
	// 2. Batched sweeps
	out := make([]*expr.Node, 0, ncolors)
	direction := "forward"
	if !forward {
		direction = "reverse"
	}
	for off := 0; off < ncolors; off += f.opts.maxDirections {
		end := min(off+f.opts.maxDirections, ncolors)
		batch := make([][]*expr.Node, 0, end-off)
		for c := off; c < end; c++ {
			if forward {
				s := make([]*expr.Node, len(f.inputs))
				s[iind] = seeds[c]
				batch = append(batch, s)
			} else {
				s := make([]*expr.Node, len(f.outputs))
				s[oind] = seeds[c]
				batch = append(batch, s)
			}
		}
		jacobianSweeps.WithLabelValues(direction).Inc()
		jacobianDirections.Observe(float64(len(batch)))
		var (
			sens [][]*expr.Node
			err  error
			at   = iind
		)
		if forward {
			sens, err = f.Forward(nil, batch)
			at = oind
		} else {
			sens, err = f.Reverse(nil, batch)
		}
		if err != nil {
			return nil, err
		}
		// 3. Columns on the swept pattern
		for _, s := range sens {
			t, err := expr.Project(s[at], outNode.Sparsity())
			if err != nil {
				return nil, functionErrorf("Jacobian", f.name, err)
			}
			out = append(out, expr.Nonzeros(t))
		}
	}
	return out, nil
}

// Gradient returns the gradient of the scalar output oind with respect to
// input iind, on the input pattern.
// Errors: ErrIndex, ErrNotScalar.
func (f *Function) Gradient(iind, oind int) (*expr.Node, error) {
	if err := f.checkIndex("Gradient", iind, oind); err != nil {
		return nil, err
	}
	y := f.outputs[oind]
	if !y.Sparsity().IsScalar() {
		return nil, functionErrorf("Gradient", f.name, fmt.Errorf("output %d is %dx%d: %w", oind, y.Rows(), y.Cols(), ErrNotScalar))
	}
	seed := make([]*expr.Node, len(f.outputs))
	seed[oind] = expr.Scalar(1)
	asens, err := f.Reverse(nil, [][]*expr.Node{seed})
	if err != nil {
		return nil, err
	}
	return f.checked("Gradient")(expr.Project(asens[0][iind], f.inputs[iind].Sparsity()))
}

// Tangent returns the derivative of output oind with respect to the scalar
// input iind, on the output pattern.
// Errors: ErrIndex, ErrNotScalar.
func (f *Function) Tangent(iind, oind int) (*expr.Node, error) {
	if err := f.checkIndex("Tangent", iind, oind); err != nil {
		return nil, err
	}
	x := f.inputs[iind]
	if !x.Sparsity().IsScalar() {
		return nil, functionErrorf("Tangent", f.name, fmt.Errorf("input %d is %dx%d: %w", iind, x.Rows(), x.Cols(), ErrNotScalar))
	}
	seed := make([]*expr.Node, len(f.inputs))
	seed[iind] = expr.Scalar(1)
	fsens, err := f.Forward(nil, [][]*expr.Node{seed})
	if err != nil {
		return nil, err
	}
	return f.checked("Tangent")(expr.Project(fsens[0][oind], f.outputs[oind].Sparsity()))
}

// Hessian returns the Hessian of the scalar output oind with respect to
// input iind together with the gradient it differentiates. The Hessian is
// computed as the symmetric Jacobian of the gradient.
// Errors: ErrIndex, ErrNotScalar.
func (f *Function) Hessian(iind, oind int, opts ...JacOption) (h, g *expr.Node, err error) {
	g, err = f.Gradient(iind, oind)
	if err != nil {
		return nil, nil, err
	}
	gf, err := New(f.name+"_grad", f.inputs, []*expr.Node{g}, f.optList...)
	if err != nil {
		return nil, nil, err
	}
	h, err = gf.Jacobian(iind, 0, append([]JacOption{Symmetric()}, opts...)...)
	if err != nil {
		return nil, nil, err
	}
	return h, g, nil
}
