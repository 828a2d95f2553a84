// SPDX-License-Identifier: MIT

package sx

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/ops"
	"github.com/katalvlaran/symad/schedule"
	"github.com/katalvlaran/symad/sparsity"
)

type instr struct {
	op   ops.Op
	x, y int // operand slots; input index for OpInput
	k    int // nonzero index for OpInput
	val  float64
}

// Function is a scheduled scalar algorithm: one instruction per distinct
// scalar node, each writing its own work slot.
type Function struct {
	name   string
	in     []sparsity.Sparsity
	out    []sparsity.Sparsity
	algo   []instr
	outAt  [][]int
	free   []string
	nodes  []*Node
	inputs []Matrix
}

type inputRef struct{ i, k int }

// NewFunction schedules outputs depth-first against the symbolic inputs.
// Symbols reached from the outputs but absent from the inputs are recorded
// as free variables and make Eval fail.
// Errors: ErrNotSymbolic, ErrDuplicateInput.
func NewFunction(name string, inputs, outputs []Matrix) (*Function, error) {
	// 1. Index input symbols
	where := make(map[*Node]inputRef)
	for i, in := range inputs {
		for k, s := range in.nz {
			if !s.IsSymbolic() {
				return nil, fmt.Errorf("NewFunction %s input %d: %w", name, i, ErrNotSymbolic)
			}
			if _, dup := where[s]; dup {
				return nil, fmt.Errorf("NewFunction %s symbol %s: %w", name, s.name, ErrDuplicateInput)
			}
			where[s] = inputRef{i, k}
		}
	}
	// 2. Schedule every output nonzero
	var roots []*Node
	for _, o := range outputs {
		roots = append(roots, o.nz...)
	}
	order := schedule.DepthFirstSort(roots, (*Node).Deps)

	// 3. One instruction per node
	f := &Function{name: name, nodes: order, inputs: inputs}
	slot := make(map[*Node]int, len(order))
	for i, n := range order {
		slot[n] = i
		in := instr{op: n.op, val: n.val}
		switch {
		case n.op == ops.OpInput:
			ref, ok := where[n]
			if !ok {
				f.free = append(f.free, n.name)
				ref = inputRef{-1, -1}
			}
			in.x, in.k = ref.i, ref.k
		case n.op == ops.OpConst:
		case n.y == nil:
			in.x = slot[n.x]
		default:
			in.x, in.y = slot[n.x], slot[n.y]
		}
		f.algo = append(f.algo, in)
	}
	for _, in := range inputs {
		f.in = append(f.in, in.sp)
	}
	for _, o := range outputs {
		f.out = append(f.out, o.sp)
		at := make([]int, len(o.nz))
		for k, n := range o.nz {
			at[k] = slot[n]
		}
		f.outAt = append(f.outAt, at)
	}
	return f, nil
}

// Name returns the function name.
func (f *Function) Name() string { return f.name }

// NumIn returns the number of inputs.
func (f *Function) NumIn() int { return len(f.in) }

// NumOut returns the number of outputs.
func (f *Function) NumOut() int { return len(f.out) }

// InputSparsity returns the pattern of input i.
func (f *Function) InputSparsity(i int) sparsity.Sparsity { return f.in[i] }

// OutputSparsity returns the pattern of output i.
func (f *Function) OutputSparsity(i int) sparsity.Sparsity { return f.out[i] }

// Input returns the symbolic input i.
func (f *Function) Input(i int) Matrix { return f.inputs[i] }

// Len returns the number of scalar instructions.
func (f *Function) Len() int { return len(f.algo) }

// FreeVariables returns the names of symbols that are not inputs.
func (f *Function) FreeVariables() []string { return f.free }

// Eval evaluates numerically. Arguments must have the input shapes; entries
// outside an input pattern are ignored.
// Errors: ErrDimensionMismatch, ErrFreeVariables.
func (f *Function) Eval(args ...*matrix.Sparse) ([]*matrix.Sparse, error) {
	// 1. Validate
	if len(f.free) > 0 {
		return nil, fmt.Errorf("Eval %s %v: %w", f.name, f.free, ErrFreeVariables)
	}
	if len(args) != len(f.in) {
		return nil, fmt.Errorf("Eval %s: %d arguments for %d inputs: %w", f.name, len(args), len(f.in), ErrDimensionMismatch)
	}
	vals := make([][]float64, len(args))
	for i, a := range args {
		if a == nil || !a.Sparsity().SameShape(f.in[i]) {
			return nil, fmt.Errorf("Eval %s argument %d: %w", f.name, i, ErrDimensionMismatch)
		}
		vals[i] = matrix.ValuesOn(a, f.in[i])
	}
	// 2. Replay
	w := make([]float64, len(f.algo))
	for i, in := range f.algo {
		switch {
		case in.op == ops.OpInput:
			w[i] = vals[in.x][in.k]
		case in.op == ops.OpConst:
			w[i] = in.val
		case in.op.IsUnary():
			w[i] = ops.Eval1(in.op, w[in.x])
		default:
			w[i] = ops.Eval2(in.op, w[in.x], w[in.y])
		}
	}
	// 3. Gather outputs
	out := make([]*matrix.Sparse, len(f.out))
	for o, at := range f.outAt {
		nz := make([]float64, len(at))
		for k, s := range at {
			nz[k] = w[s]
		}
		out[o] = matrix.Wrap(f.out[o], nz)
	}
	return out, nil
}

// String lists the algorithm, one instruction per line.
func (f *Function) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", f.name)
	for i, in := range f.algo {
		fmt.Fprintf(&b, "\n@%d = ", i)
		switch {
		case in.op == ops.OpInput:
			fmt.Fprintf(&b, "%s", f.nodes[i].name)
		case in.op == ops.OpConst:
			fmt.Fprintf(&b, "%g", in.val)
		case in.op.IsUnary():
			fmt.Fprintf(&b, "%v(@%d)", in.op, in.x)
		case infix[in.op] != "":
			fmt.Fprintf(&b, "(@%d%s@%d)", in.x, infix[in.op], in.y)
		default:
			fmt.Fprintf(&b, "%v(@%d,@%d)", in.op, in.x, in.y)
		}
	}
	for o, at := range f.outAt {
		for k, s := range at {
			fmt.Fprintf(&b, "\noutput[%d][%d] = @%d", o, k, s)
		}
	}
	return b.String()
}
