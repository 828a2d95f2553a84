// SPDX-License-Identifier: MIT

package expr

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/katalvlaran/symad/ops"
)

// Walk visits every node reachable from roots exactly once, dependencies
// before dependents. Visited state lives in a per-call map.
// Complexity: O(V + E).
func Walk(roots []*Node, visit func(*Node)) {
	done := make(map[*Node]bool)
	st := arraystack.New()
	for i := len(roots) - 1; i >= 0; i-- {
		if roots[i] != nil {
			st.Push(roots[i])
		}
	}
	// 1. Explicit stack: a node is emitted once all its deps are done
	for !st.Empty() {
		top, _ := st.Peek()
		n := top.(*Node)
		if done[n] {
			st.Pop()
			continue
		}
		pushed := false
		for i := len(n.deps) - 1; i >= 0; i-- {
			if d := n.deps[i]; !done[d] {
				st.Push(d)
				pushed = true
			}
		}
		if !pushed {
			st.Pop()
			done[n] = true
			visit(n)
		}
	}
}

// Symbols returns the symbolic primitives reachable from roots, in
// discovery order.
func Symbols(roots ...*Node) []*Node {
	var out []*Node
	Walk(roots, func(n *Node) {
		if n.IsSymbolic() {
			out = append(out, n)
		}
	})
	return out
}

// Depends reports whether x depends on the symbol sym.
func Depends(x, sym *Node) bool {
	found := false
	Walk([]*Node{x}, func(n *Node) {
		if n == sym {
			found = true
		}
	})
	return found
}

// CountNodes returns the number of distinct nodes reachable from roots.
func CountNodes(roots ...*Node) int {
	c := 0
	Walk(roots, func(*Node) { c++ })
	return c
}

var infix = map[ops.Op]string{ops.OpAdd: "+", ops.OpSub: "-", ops.OpMul: "*", ops.OpDiv: "/"}

// String prints the expression. Shared subexpressions are printed at every
// use.
func (n *Node) String() string {
	var b strings.Builder
	n.print(&b, make(map[*Node]string))
	return b.String()
}

func (n *Node) print(b *strings.Builder, memo map[*Node]string) {
	if s, ok := memo[n]; ok {
		b.WriteString(s)
		return
	}
	var sb strings.Builder
	arg := func(i int) string {
		var ab strings.Builder
		n.deps[i].print(&ab, memo)
		return ab.String()
	}
	switch {
	case n.op == ops.OpInput:
		sb.WriteString(n.name)
	case n.op == ops.OpConst:
		if n.sp.IsScalar() {
			fmt.Fprintf(&sb, "%g", n.val.Value())
		} else {
			sb.WriteString(n.val.String())
		}
	case n.op == ops.OpNeg:
		fmt.Fprintf(&sb, "(-%s)", arg(0))
	case infix[n.op] != "":
		fmt.Fprintf(&sb, "(%s%s%s)", arg(0), infix[n.op], arg(1))
	case n.op == ops.OpProject:
		// patterns are an evaluation detail
		sb.WriteString(arg(0))
	case n.op == ops.OpAssertion:
		fmt.Fprintf(&sb, "assertion(%s,%s,%q)", arg(0), arg(1), n.msg)
	default:
		sb.WriteString(n.op.String())
		sb.WriteByte('(')
		for i := range n.deps {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(arg(i))
		}
		sb.WriteByte(')')
	}
	memo[n] = sb.String()
	b.WriteString(memo[n])
}
