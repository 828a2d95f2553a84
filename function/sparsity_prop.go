// SPDX-License-Identifier: MIT

package function

import (
	"fmt"
	"math/bits"

	"github.com/katalvlaran/symad/expr"
	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/ops"
	"github.com/katalvlaran/symad/sparsity"
)

// bitAlgebra propagates dependency bits: every result entry depends on the
// union of its operands' dependencies, constants on nothing.
type bitAlgebra struct{}

func (bitAlgebra) Const(float64) uint64                { return 0 }
func (bitAlgebra) Unary(_ ops.Op, x uint64) uint64     { return x }
func (bitAlgebra) Binary(_ ops.Op, x, y uint64) uint64 { return x | y }

var _ ops.Algebra[uint64] = bitAlgebra{}

// SpFwd propagates dependency bits forward: in[i] holds one 64-bit word per
// nonzero of input i and the result one word per nonzero of every output.
// Bit b of an output entry is set when the entry depends on an input entry
// with bit b set. Free variables carry no bits.
// Errors: ErrSeedMismatch.
func (f *Function) SpFwd(in [][]uint64) ([][]uint64, error) {
	if err := f.checkSeeds("SpFwd", in, f.inputs); err != nil {
		return nil, err
	}
	evaluations.WithLabelValues("sparsity_fwd").Inc()
	h := hooks[uint64]{
		input: func(ins *Instr) ([]uint64, error) {
			if ins.Input < 0 {
				return make([]uint64, ins.Node.Nnz()), nil
			}
			return in[ins.Input], nil
		},
		solve:  spSolveFwd,
		assert: func(*Instr, []uint64) error { return nil },
	}
	return run(f, bitAlgebra{}, h, false)
}

// spSolveFwd: column j of X = A\b depends on all of A and column j of b.
func spSolveFwd(in *Instr, a, b []uint64) ([]uint64, error) {
	var acc uint64
	for _, v := range a {
		acc |= v
	}
	bsp := in.Node.Dep(1).Sparsity()
	n := in.Node.Rows()
	res := make([]uint64, in.Node.Nnz())
	colind := bsp.ColInd()
	for j := 0; j < bsp.Cols(); j++ {
		c := acc
		for el := colind[j]; el < colind[j+1]; el++ {
			c |= b[el]
		}
		for i := 0; i < n; i++ {
			res[j*n+i] = c
		}
	}
	return res, nil
}

// SpAdj propagates dependency bits backward from output seeds out[o] (one
// word per output nonzero) to one word per input nonzero.
// Errors: ErrSeedMismatch.
func (f *Function) SpAdj(out [][]uint64) ([][]uint64, error) {
	if err := f.checkSeeds("SpAdj", out, f.outputs); err != nil {
		return nil, err
	}
	evaluations.WithLabelValues("sparsity_adj").Inc()
	// 1. Seed the output slots; outputs sharing a node share the seed
	w := make([][]uint64, len(f.slotNnz))
	for s, n := range f.slotNnz {
		w[s] = make([]uint64, n)
	}
	for o, at := range f.outAt {
		r := w[f.algo[at].Res]
		for k, v := range out[o] {
			r[k] |= v
		}
	}
	res := make([][]uint64, len(f.inputs))
	for i, x := range f.inputs {
		res[i] = make([]uint64, x.Nnz())
	}
	// 2. Reverse sweep; every result slot is cleared once propagated
	for i := len(f.algo) - 1; i >= 0; i-- {
		in := &f.algo[i]
		r := w[in.Res]
		if in.Op == ops.OpInput && in.Input >= 0 {
			for k, v := range r {
				res[in.Input][k] |= v
			}
		} else {
			spAdjStep(in, r, w)
		}
		clear(r)
	}
	return res, nil
}

func spAdjStep(in *Instr, r []uint64, w [][]uint64) {
	arg := func(i int) []uint64 { return w[in.Arg[i]] }
	switch op := in.Op; {
	case op.IsLeaf():
	case op.IsUnary(), op == ops.OpReshape, op == ops.OpAssertion:
		x := arg(0)
		for k, v := range r {
			x[k] |= v
		}
	case op.IsBinary():
		x, y := arg(0), arg(1)
		for k, v := range r {
			switch in.kind {
			case matrix.ScalarMatrix:
				x[0] |= v
				y[k] |= v
			case matrix.MatrixScalar:
				x[k] |= v
				y[0] |= v
			default:
				x[k] |= v
				y[k] |= v
			}
		}
	case op == ops.OpTranspose, op == ops.OpGetNonzeros, op == ops.OpProject:
		x := arg(0)
		for k, src := range in.idx {
			if src >= 0 {
				x[src] |= r[k]
			}
		}
	case op == ops.OpHorzcat, op == ops.OpVertcat, op == ops.OpDiagcat:
		for a, m := range in.maps {
			p := arg(a)
			for k, dst := range m {
				p[k] |= r[dst]
			}
		}
	case op == ops.OpMtimes:
		x, y := arg(0), arg(1)
		for t := 0; t < len(in.triple); t += 3 {
			v := r[in.triple[t]]
			x[in.triple[t+1]] |= v
			y[in.triple[t+2]] |= v
		}
	case op == ops.OpDot:
		x, y := arg(0), arg(1)
		for k, src := range in.idx {
			if src >= 0 {
				x[k] |= r[0]
				y[src] |= r[0]
			}
		}
	case op == ops.OpNormF:
		x := arg(0)
		for k := range x {
			x[k] |= r[0]
		}
	case op == ops.OpSolve:
		a, b := arg(0), arg(1)
		bsp := in.Node.Dep(1).Sparsity()
		colind := bsp.ColInd()
		n := in.Node.Rows()
		var acc uint64
		for j := 0; j < bsp.Cols(); j++ {
			var c uint64
			for i := 0; i < n; i++ {
				c |= r[j*n+i]
			}
			for el := colind[j]; el < colind[j+1]; el++ {
				b[el] |= c
			}
			acc |= c
		}
		for k := range a {
			a[k] |= acc
		}
	}
}

func (f *Function) checkSeeds(tag string, seeds [][]uint64, nodes []*expr.Node) error {
	if len(seeds) != len(nodes) {
		return functionErrorf(tag, f.name, fmt.Errorf("%d seeds for %d arguments: %w", len(seeds), len(nodes), ErrSeedMismatch))
	}
	for i, s := range seeds {
		if len(s) != nodes[i].Nnz() {
			return functionErrorf(tag, f.name, fmt.Errorf("seed %d has %d words for %d nonzeros: %w", i, len(s), nodes[i].Nnz(), ErrSeedMismatch))
		}
	}
	return nil
}

// JacSparsity returns the structural Jacobian of output oind with respect to
// input iind, indexed by nonzeros: ny×nx with ny = nnz(output) and
// nx = nnz(input). Bits are propagated 64 directions at a time, forward when
// nx <= ny and backward otherwise.
// Errors: ErrIndex.
func (f *Function) JacSparsity(iind, oind int) (sparsity.Sparsity, error) {
	if err := f.checkIndex("JacSparsity", iind, oind); err != nil {
		return sparsity.Sparsity{}, err
	}
	nx, ny := f.inputs[iind].Nnz(), f.outputs[oind].Nnz()
	var rows, cols []int
	if nx <= ny {
		// 1. Forward: bit b marks input nonzero off+b
		for off := 0; off < nx; off += 64 {
			seed := f.zeroWords(true)
			for b := 0; b < 64 && off+b < nx; b++ {
				seed[iind][off+b] = 1 << b
			}
			out, err := f.SpFwd(seed)
			if err != nil {
				return sparsity.Sparsity{}, err
			}
			for r, v := range out[oind] {
				for ; v != 0; v &= v - 1 {
					rows = append(rows, r)
					cols = append(cols, off+bits.TrailingZeros64(v))
				}
			}
		}
	} else {
		// 2. Adjoint: bit b marks output nonzero off+b
		for off := 0; off < ny; off += 64 {
			seed := f.zeroWords(false)
			for b := 0; b < 64 && off+b < ny; b++ {
				seed[oind][off+b] = 1 << b
			}
			in, err := f.SpAdj(seed)
			if err != nil {
				return sparsity.Sparsity{}, err
			}
			for c, v := range in[iind] {
				for ; v != 0; v &= v - 1 {
					rows = append(rows, off+bits.TrailingZeros64(v))
					cols = append(cols, c)
				}
			}
		}
	}
	sp, _, err := sparsity.Triplet(ny, nx, rows, cols)
	if err != nil {
		return sparsity.Sparsity{}, functionErrorf("JacSparsity", f.name, err)
	}
	return sp, nil
}

func (f *Function) zeroWords(inputs bool) [][]uint64 {
	nodes := f.outputs
	if inputs {
		nodes = f.inputs
	}
	w := make([][]uint64, len(nodes))
	for i, x := range nodes {
		w[i] = make([]uint64, x.Nnz())
	}
	return w
}
