// SPDX-License-Identifier: MIT

package function

import (
	"fmt"

	"github.com/katalvlaran/symad/expr"
	"github.com/katalvlaran/symad/matrix"
)

// JacobianFunction returns a function of the same inputs whose outputs are
// the Jacobian of output oind with respect to input iind followed by the
// outputs of f.
func (f *Function) JacobianFunction(iind, oind int, opts ...JacOption) (*Function, error) {
	j, err := f.Jacobian(iind, oind, opts...)
	if err != nil {
		return nil, err
	}
	return New("jac_"+f.name, f.inputs, append([]*expr.Node{j}, f.outputs...), f.optList...)
}

// GradientFunction returns a function of the same inputs computing the
// gradient of the scalar output oind with respect to input iind, followed by
// the outputs of f.
func (f *Function) GradientFunction(iind, oind int) (*Function, error) {
	g, err := f.Gradient(iind, oind)
	if err != nil {
		return nil, err
	}
	return New("grad_"+f.name, f.inputs, append([]*expr.Node{g}, f.outputs...), f.optList...)
}

// TangentFunction returns a function of the same inputs computing the
// derivative of output oind with respect to the scalar input iind, followed
// by the outputs of f.
func (f *Function) TangentFunction(iind, oind int) (*Function, error) {
	t, err := f.Tangent(iind, oind)
	if err != nil {
		return nil, err
	}
	return New("tang_"+f.name, f.inputs, append([]*expr.Node{t}, f.outputs...), f.optList...)
}

// HessianFunction returns a function of the same inputs with outputs
// (Hessian, gradient) of the scalar output oind with respect to input iind.
func (f *Function) HessianFunction(iind, oind int, opts ...JacOption) (*Function, error) {
	h, g, err := f.Hessian(iind, oind, opts...)
	if err != nil {
		return nil, err
	}
	return New("hess_"+f.name, f.inputs, []*expr.Node{h, g}, f.optList...)
}

// DerForward returns the function of nfwd forward directions. Its inputs
// are the inputs of f followed by nfwd groups of seeds, one per input, named
// fwd<d>_<input>; its outputs are nfwd groups of directional derivatives,
// one per output.
func (f *Function) DerForward(nfwd int) (*Function, error) {
	ins := append([]*expr.Node(nil), f.inputs...)
	seeds := make([][]*expr.Node, nfwd)
	for d := range seeds {
		seeds[d] = make([]*expr.Node, len(f.inputs))
		for i, x := range f.inputs {
			s := expr.SymSparse(fmt.Sprintf("fwd%d_%s", d, x.Name()), x.Sparsity())
			seeds[d][i] = s
			ins = append(ins, s)
		}
	}
	fsens, err := f.Forward(nil, seeds)
	if err != nil {
		return nil, err
	}
	var outs []*expr.Node
	for _, s := range fsens {
		outs = append(outs, s...)
	}
	return New(fmt.Sprintf("fwd%d_%s", nfwd, f.name), ins, outs, f.optList...)
}

// DerReverse returns the function of nadj adjoint directions. Its inputs
// are the inputs of f followed by nadj groups of seeds, one per output,
// named adj<d>_o<k>; its outputs are nadj groups of adjoint sensitivities,
// one per input.
func (f *Function) DerReverse(nadj int) (*Function, error) {
	ins := append([]*expr.Node(nil), f.inputs...)
	seeds := make([][]*expr.Node, nadj)
	for d := range seeds {
		seeds[d] = make([]*expr.Node, len(f.outputs))
		for o, y := range f.outputs {
			s := expr.SymSparse(fmt.Sprintf("adj%d_o%d", d, o), y.Sparsity())
			seeds[d][o] = s
			ins = append(ins, s)
		}
	}
	asens, err := f.Reverse(nil, seeds)
	if err != nil {
		return nil, err
	}
	var outs []*expr.Node
	for _, s := range asens {
		outs = append(outs, s...)
	}
	return New(fmt.Sprintf("adj%d_%s", nadj, f.name), ins, outs, f.optList...)
}

// NumericJacobian evaluates the Jacobian of output oind with respect to
// input iind at args.
func (f *Function) NumericJacobian(iind, oind int, args []*matrix.Sparse, opts ...JacOption) (*matrix.Sparse, error) {
	jf, err := f.JacobianFunction(iind, oind, opts...)
	if err != nil {
		return nil, err
	}
	out, err := jf.Eval(args...)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}
