// SPDX-License-Identifier: MIT

package schedule

import (
	"errors"
	"fmt"

	"github.com/emirpasic/gods/stacks/arraystack"
)

// ErrInvalidOrder is returned when an order places a node before one of its
// dependencies, repeats a node, or misses a dependency.
var ErrInvalidOrder = errors.New("schedule: invalid order")

// ErrUnknownMode is returned for a scheduling mode that does not exist.
var ErrUnknownMode = errors.New("schedule: unknown mode")

// Mode selects the scheduling algorithm.
type Mode int

const (
	DepthFirst   Mode = iota // depth-first discovery order (default)
	BreadthFirst             // depth-first followed by level grouping
	Postponed                // level grouping followed by postponement
)

var modeNames = map[Mode]string{DepthFirst: "depth-first", BreadthFirst: "breadth-first", Postponed: "postponed"}

// String returns the mode name, e.g. "breadth-first".
func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode resolves a mode by name.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("ParseMode %q: %w", s, ErrUnknownMode)
}

// DepsFunc returns the dependencies of a node.
type DepsFunc[N comparable] func(N) []N

// Sort schedules the graph below roots with the given mode. levels is nil for
// DepthFirst.
func Sort[N comparable](roots []N, deps DepsFunc[N], mode Mode) (order []N, levels []int, err error) {
	order = DepthFirstSort(roots, deps)
	switch mode {
	case DepthFirst:
		return order, nil, nil
	case BreadthFirst:
		order, levels = BreadthFirstSort(order, deps)
		return order, levels, nil
	case Postponed:
		order, levels = BreadthFirstSort(order, deps)
		order, levels = Postpone(order, levels, deps)
		return order, levels, nil
	}
	return nil, nil, fmt.Errorf("Sort: %w", ErrUnknownMode)
}

// DepthFirstSort returns every node reachable from roots, each exactly once,
// dependencies first.
//
// Tie-break: among the dependencies of the node on top of the stack that are
// not scheduled yet, the one with the most dependencies is pushed first, so
// leaf-like nodes wait until the deeper chains are resolved.
func DepthFirstSort[N comparable](roots []N, deps DepsFunc[N]) []N {
	added := make(map[N]bool)
	order := make([]N, 0, len(roots))
	st := arraystack.New()
	for _, r := range roots {
		// 1. Drive DFS from every root not yet scheduled
		if added[r] {
			continue
		}
		st.Push(r)
		for !st.Empty() {
			top, _ := st.Peek()
			n := top.(N)
			if added[n] {
				st.Pop()
				continue
			}
			// 2. Pick the pending dependency with the most dependencies
			var next N
			best := -1
			for _, d := range deps(n) {
				if added[d] {
					continue
				}
				if nd := len(deps(d)); nd > best {
					next, best = d, nd
				}
			}
			// 3. All dependencies scheduled: emit the node
			if best < 0 {
				st.Pop()
				added[n] = true
				order = append(order, n)
				continue
			}
			st.Push(next)
		}
	}
	return order
}

// BreadthFirstSort groups a valid order by level. It returns the regrouped
// order (stable within a level) and the level of each of its entries.
func BreadthFirstSort[N comparable](order []N, deps DepsFunc[N]) ([]N, []int) {
	lvl := levelMap(order, deps)
	levels := make([]int, len(order))
	for i, n := range order {
		levels[i] = lvl[n]
	}
	return bucket(order, levels)
}

// Postpone delays every node to one level below its earliest consumer.
// Nodes without consumers keep their level. Input must be grouped by level as
// returned by BreadthFirstSort.
func Postpone[N comparable](order []N, levels []int, deps DepsFunc[N]) ([]N, []int) {
	if len(order) == 0 {
		return order, levels
	}
	// 1. Reference count per node; unreferenced nodes keep their level
	numref := make(map[N]int, len(order))
	for _, n := range order {
		for _, d := range deps(n) {
			numref[d]++
		}
	}
	maxLevel := 0
	for _, l := range levels {
		maxLevel = max(maxLevel, l)
	}
	// 2. Walk consumers first; every consumer pulls its deps below itself
	target := make(map[N]int, len(order))
	for i, n := range order {
		if numref[n] == 0 {
			target[n] = levels[i]
		}
	}
	stacks := make([]*arraystack.Stack, maxLevel+1)
	for i := range stacks {
		stacks[i] = arraystack.New()
	}
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		l := target[n]
		stacks[l].Push(n)
		for _, d := range deps(n) {
			if cur, ok := target[d]; !ok || l-1 < cur {
				target[d] = l - 1
			}
		}
	}
	// 3. Emit level by level
	out := make([]N, 0, len(order))
	outLevels := make([]int, 0, len(order))
	for l, st := range stacks {
		for !st.Empty() {
			v, _ := st.Pop()
			out = append(out, v.(N))
			outLevels = append(outLevels, l)
		}
	}
	return out, outLevels
}

// Levels returns the level of every entry of a valid order.
// Errors: ErrInvalidOrder.
func Levels[N comparable](order []N, deps DepsFunc[N]) ([]int, error) {
	if err := Validate(order, deps); err != nil {
		return nil, err
	}
	lvl := levelMap(order, deps)
	out := make([]int, len(order))
	for i, n := range order {
		out[i] = lvl[n]
	}
	return out, nil
}

// Validate checks that order contains every node at most once and places it
// after all of its dependencies.
func Validate[N comparable](order []N, deps DepsFunc[N]) error {
	seen := make(map[N]bool, len(order))
	for i, n := range order {
		if seen[n] {
			return fmt.Errorf("Validate: entry %d repeated: %w", i, ErrInvalidOrder)
		}
		for _, d := range deps(n) {
			if !seen[d] {
				return fmt.Errorf("Validate: entry %d before its dependency: %w", i, ErrInvalidOrder)
			}
		}
		seen[n] = true
	}
	return nil
}

// ValidateLevels checks that every dependency sits on a strictly lower level.
func ValidateLevels[N comparable](order []N, levels []int, deps DepsFunc[N]) error {
	if len(levels) != len(order) {
		return fmt.Errorf("ValidateLevels: %d levels for %d nodes: %w", len(levels), len(order), ErrInvalidOrder)
	}
	at := make(map[N]int, len(order))
	for i, n := range order {
		at[n] = levels[i]
	}
	for i, n := range order {
		for _, d := range deps(n) {
			if at[d] >= levels[i] {
				return fmt.Errorf("ValidateLevels: entry %d not above its dependency: %w", i, ErrInvalidOrder)
			}
		}
	}
	return nil
}

func levelMap[N comparable](order []N, deps DepsFunc[N]) map[N]int {
	lvl := make(map[N]int, len(order))
	for _, n := range order {
		l := 0
		for _, d := range deps(n) {
			l = max(l, lvl[d]+1)
		}
		lvl[n] = l
	}
	return lvl
}

// bucket is a stable counting sort of order by level.
func bucket[N comparable](order []N, levels []int) ([]N, []int) {
	maxLevel := 0
	for _, l := range levels {
		maxLevel = max(maxLevel, l)
	}
	start := make([]int, maxLevel+2)
	for _, l := range levels {
		start[l+1]++
	}
	for l := 0; l <= maxLevel; l++ {
		start[l+1] += start[l]
	}
	out := make([]N, len(order))
	outLevels := make([]int, len(order))
	for i, n := range order {
		l := levels[i]
		out[start[l]] = n
		outLevels[start[l]] = l
		start[l]++
	}
	return out, outLevels
}

// Groups splits a level-grouped order into one slice of indices per level.
func Groups(levels []int) [][]int {
	var out [][]int
	for i, l := range levels {
		for len(out) <= l {
			out = append(out, nil)
		}
		out[l] = append(out[l], i)
	}
	return out
}
