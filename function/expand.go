// SPDX-License-Identifier: MIT

package function

import (
	"fmt"

	"github.com/katalvlaran/symad/sx"
)

// Expand rewrites the function in scalar symbolic form: every nonzero of
// every node becomes an sx expression. Free variables become fresh scalar
// symbols. Assertions are dropped.
// Errors: ErrUnsupported for linear solves.
func (f *Function) Expand() (*sx.Function, error) {
	ins := make([]sx.Matrix, len(f.inputs))
	for i, x := range f.inputs {
		ins[i] = sx.SymMatrix(x.Name(), x.Sparsity())
	}
	h := hooks[*sx.Node]{
		input: func(in *Instr) ([]*sx.Node, error) {
			if in.Input >= 0 {
				return ins[in.Input].Nonzeros(), nil
			}
			return sx.SymMatrix(in.Node.Name(), in.Node.Sparsity()).Nonzeros(), nil
		},
		solve: func(in *Instr, _, _ []*sx.Node) ([]*sx.Node, error) {
			return nil, fmt.Errorf("expand %v: %w", in.Op, ErrUnsupported)
		},
		assert: func(*Instr, []*sx.Node) error { return nil },
	}
	nz, err := run(f, sx.Algebra{}, h, false)
	if err != nil {
		return nil, functionErrorf("Expand", f.name, err)
	}
	outs := make([]sx.Matrix, len(nz))
	for o, v := range nz {
		m, err := sx.NewMatrix(f.outputs[o].Sparsity(), v)
		if err != nil {
			return nil, functionErrorf("Expand", f.name, err)
		}
		outs[o] = m
	}
	return sx.NewFunction(f.name, ins, outs)
}
