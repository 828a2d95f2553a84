// SPDX-License-Identifier: MIT

package function

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/katalvlaran/symad/expr"
	"github.com/katalvlaran/symad/linsol"
	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/ops"
	"github.com/katalvlaran/symad/schedule"
	"github.com/katalvlaran/symad/sparsity"
)

// Instr is one step of the algorithm: evaluate Node from the work slots Arg
// into the work slot Res.
type Instr struct {
	Op   ops.Op
	Node *expr.Node
	Arg  []int
	Res  int

	// Input is the function input index of an OpInput step, -1 for a free
	// variable.
	Input int

	from   []int            // instruction index of every dependency
	kind   matrix.Broadcast // binary
	idx    []int            // transpose, getnonzeros, project, dot
	maps   [][]int          // concatenations
	triple []int            // mtimes (res, x, y) nonzero triples
	solver linsol.Solver
}

// Function pairs symbolic inputs with output expressions and the scheduled
// algorithm that evaluates them. A Function is immutable after New and safe
// for concurrent use.
type Function struct {
	name    string
	inputs  []*expr.Node
	outputs []*expr.Node
	algo    []Instr
	levels  []int
	slotNnz []int
	outAt   []int // instruction index of every output
	free    []string
	opts    Options
	optList []Option
}

// New schedules outputs against the symbolic inputs.
//
// Steps:
//  1. validate inputs: symbolic primitives, each passed once;
//  2. schedule the graph below the outputs with the configured mode;
//  3. emit one instruction per node with precomputed index maps;
//  4. assign work slots, reusing released slots of equal size when live
//     variables are enabled; outputs are never reused.
//
// Symbols reached from the outputs that are not inputs are free variables:
// the function can be called and differentiated symbolically but numeric
// evaluation fails with ErrFreeVariables.
// Errors: ErrNotSymbolic, ErrDuplicateInput, expr.ErrNilNode, solver
// instantiation errors.
func New(name string, inputs, outputs []*expr.Node, opts ...Option) (*Function, error) {
	o := gatherOptions(opts...)
	// 1. Validate inputs
	inIdx := make(map[*expr.Node]int, len(inputs))
	for i, x := range inputs {
		if x == nil || !x.IsSymbolic() {
			return nil, functionErrorf("New", name, fmt.Errorf("input %d: %w", i, ErrNotSymbolic))
		}
		if _, dup := inIdx[x]; dup {
			return nil, functionErrorf("New", name, fmt.Errorf("input %d (%s): %w", i, x.Name(), ErrDuplicateInput))
		}
		inIdx[x] = i
	}
	for i, y := range outputs {
		if y == nil {
			return nil, functionErrorf("New", name, fmt.Errorf("output %d: %w", i, expr.ErrNilNode))
		}
	}
	// 2. Schedule
	sorting := o.sorting
	if o.parallel > 1 && sorting == schedule.DepthFirst {
		sorting = schedule.BreadthFirst
	}
	order, levels, err := schedule.Sort(outputs, (*expr.Node).Deps, sorting)
	if err != nil {
		return nil, functionErrorf("New", name, err)
	}
	f := &Function{
		name:    name,
		inputs:  append([]*expr.Node(nil), inputs...),
		outputs: append([]*expr.Node(nil), outputs...),
		levels:  levels,
		opts:    o,
		optList: append([]Option(nil), opts...),
	}
	// 3. Instructions
	pos := make(map[*expr.Node]int, len(order))
	f.algo = make([]Instr, len(order))
	for i, n := range order {
		pos[n] = i
		in := Instr{Op: n.Op(), Node: n, Input: -1}
		if err := in.prepare(o); err != nil {
			return nil, functionErrorf("New", name, err)
		}
		if n.IsSymbolic() {
			if k, ok := inIdx[n]; ok {
				in.Input = k
			} else {
				f.free = append(f.free, n.Name())
			}
		}
		f.algo[i] = in
	}
	// 4. Work slots
	f.assignSlots(pos)

	o.log.Debug("function created",
		zap.String("name", name),
		zap.Int("instructions", len(f.algo)),
		zap.Int("slots", len(f.slotNnz)),
		zap.Stringer("sorting", sorting),
		zap.Strings("free", f.free))
	return f, nil
}

// prepare precomputes the index maps of the instruction.
func (in *Instr) prepare(o Options) error {
	n := in.Node
	deps := n.Deps()
	switch op := in.Op; {
	case op.IsBinary():
		in.kind, _ = matrix.ClassifyBinary(deps[0].Sparsity(), deps[1].Sparsity())
	case op == ops.OpTranspose:
		_, in.idx = deps[0].Sparsity().Transpose()
	case op == ops.OpGetNonzeros:
		in.idx = n.NZ()
	case op == ops.OpProject:
		in.idx = deps[0].Sparsity().NZMap(n.Sparsity())
	case op == ops.OpDot:
		in.idx = deps[1].Sparsity().NZMap(deps[0].Sparsity())
	case op == ops.OpHorzcat, op == ops.OpVertcat, op == ops.OpDiagcat:
		sps := make([]sparsity.Sparsity, len(deps))
		for i, d := range deps {
			sps[i] = d.Sparsity()
		}
		switch op {
		case ops.OpHorzcat:
			_, in.maps, _ = sparsity.Horzcat(sps...)
		case ops.OpVertcat:
			_, in.maps, _ = sparsity.Vertcat(sps...)
		default:
			_, in.maps = sparsity.Diagcat(sps...)
		}
	case op == ops.OpMtimes:
		in.triple = mtimesTriples(deps[0].Sparsity(), deps[1].Sparsity(), n.Sparsity())
	case op == ops.OpSolve:
		s, err := linsol.New(o.registry, n.Solver(), deps[0].Sparsity(), nil)
		if err != nil {
			return err
		}
		in.solver = s
	}
	return nil
}

// mtimesTriples lists, for z = x*y, every product x(i,k)*y(k,j) as the
// nonzero indices (z, x, y).
// Complexity: O(flops · log nnz(z)).
func mtimesTriples(x, y, z sparsity.Sparsity) []int {
	xcol, xrow := x.ColInd(), x.RowInd()
	ycol, yrow := y.ColInd(), y.RowInd()
	var t []int
	for j := 0; j < y.Cols(); j++ {
		for el := ycol[j]; el < ycol[j+1]; el++ {
			k := yrow[el]
			for xe := xcol[k]; xe < xcol[k+1]; xe++ {
				if zk, ok := z.NZIndex(xrow[xe], j); ok {
					t = append(t, zk, xe, el)
				}
			}
		}
	}
	return t
}

// assignSlots gives every instruction a result slot and resolves arguments.
// With live variables a slot is released after the last instruction reading
// it and handed to the next result of the same size; the result slot is
// taken before the arguments are released, so no instruction writes a slot
// it reads.
func (f *Function) assignSlots(pos map[*expr.Node]int) {
	// 1. Last reader of every instruction; outputs are pinned
	last := make([]int, len(f.algo))
	for i := range f.algo {
		for _, d := range f.algo[i].Node.Deps() {
			last[pos[d]] = i
		}
	}
	pinned := make([]bool, len(f.algo))
	f.outAt = make([]int, len(f.outputs))
	for o, y := range f.outputs {
		f.outAt[o] = pos[y]
		pinned[pos[y]] = true
	}
	// 2. Allocate in order
	free := make(map[int][]int)
	for i := range f.algo {
		in := &f.algo[i]
		nnz := in.Node.Nnz()
		if pool := free[nnz]; f.opts.liveVariables && len(pool) > 0 {
			in.Res = pool[len(pool)-1]
			free[nnz] = pool[:len(pool)-1]
		} else {
			in.Res = len(f.slotNnz)
			f.slotNnz = append(f.slotNnz, nnz)
		}
		deps := in.Node.Deps()
		in.Arg = make([]int, len(deps))
		in.from = make([]int, len(deps))
		for a, d := range deps {
			in.from[a] = pos[d]
			in.Arg[a] = f.algo[pos[d]].Res
		}
		if !f.opts.liveVariables {
			continue
		}
		// 3. Release arguments read for the last time
		for a, d := range deps {
			p := pos[d]
			if last[p] != i || pinned[p] || repeated(deps[:a], d) {
				continue
			}
			free[d.Nnz()] = append(free[d.Nnz()], in.Arg[a])
		}
	}
}

func repeated(prev []*expr.Node, d *expr.Node) bool {
	for _, p := range prev {
		if p == d {
			return true
		}
	}
	return false
}

// Name returns the function name.
func (f *Function) Name() string { return f.name }

// NumIn returns the number of inputs.
func (f *Function) NumIn() int { return len(f.inputs) }

// NumOut returns the number of outputs.
func (f *Function) NumOut() int { return len(f.outputs) }

// Input returns input i.
func (f *Function) Input(i int) *expr.Node { return f.inputs[i] }

// Output returns output i.
func (f *Function) Output(i int) *expr.Node { return f.outputs[i] }

// Inputs returns a copy of the inputs.
func (f *Function) Inputs() []*expr.Node { return append([]*expr.Node(nil), f.inputs...) }

// Outputs returns a copy of the outputs.
func (f *Function) Outputs() []*expr.Node { return append([]*expr.Node(nil), f.outputs...) }

// InputSparsity returns the pattern of input i.
func (f *Function) InputSparsity(i int) sparsity.Sparsity { return f.inputs[i].Sparsity() }

// OutputSparsity returns the pattern of output i.
func (f *Function) OutputSparsity(i int) sparsity.Sparsity { return f.outputs[i].Sparsity() }

// Algorithm returns the instructions. The slice must not be modified.
func (f *Function) Algorithm() []Instr { return f.algo }

// Levels returns the level of every instruction, nil for depth-first order.
func (f *Function) Levels() []int { return f.levels }

// NumSlots returns the size of the work vector in slots.
func (f *Function) NumSlots() int { return len(f.slotNnz) }

// FreeVariables returns the names of symbols that are not inputs.
func (f *Function) FreeVariables() []string { return f.free }

func (f *Function) checkIndex(tag string, iind, oind int) error {
	if iind < 0 || iind >= len(f.inputs) || oind < 0 || oind >= len(f.outputs) {
		return functionErrorf(tag, f.name, fmt.Errorf("input %d output %d: %w", iind, oind, ErrIndex))
	}
	return nil
}

// String lists the algorithm, one instruction per line.
func (f *Function) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:(", f.name)
	for i, x := range f.inputs {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s[%v]", x.Name(), x.Sparsity())
	}
	b.WriteString(")->(")
	for i, y := range f.outputs {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "o%d[%v]", i, y.Sparsity())
	}
	b.WriteByte(')')
	for _, in := range f.algo {
		fmt.Fprintf(&b, "\n@%d = ", in.Res)
		switch {
		case in.Op == ops.OpInput && in.Input >= 0:
			fmt.Fprintf(&b, "input[%d]", in.Input)
		case in.Op == ops.OpInput:
			fmt.Fprintf(&b, "free %s", in.Node.Name())
		case in.Op == ops.OpConst:
			b.WriteString(in.Node.String())
		default:
			b.WriteString(in.Op.String())
			b.WriteByte('(')
			for a, s := range in.Arg {
				if a > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "@%d", s)
			}
			b.WriteByte(')')
		}
	}
	for o, at := range f.outAt {
		fmt.Fprintf(&b, "\noutput[%d] = @%d", o, f.algo[at].Res)
	}
	return b.String()
}
