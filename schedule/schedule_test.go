package schedule_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/symad/schedule"
)

type node struct {
	name string
	deps []*node
}

func mk(name string, deps ...*node) *node { return &node{name: name, deps: deps} }

func deps(n *node) []*node { return n.deps }

func names(order []*node) []string {
	out := make([]string, len(order))
	for i, n := range order {
		out[i] = n.name
	}
	return out
}

// randomDAG builds n nodes where node i depends on up to k earlier nodes.
func randomDAG(seed int64, n, k int) []*node {
	rng := rand.New(rand.NewSource(seed))
	nodes := make([]*node, n)
	for i := range nodes {
		nodes[i] = mk(fmt.Sprintf("n%d", i))
		if i == 0 {
			continue
		}
		for j := 0; j < rng.Intn(k+1); j++ {
			nodes[i].deps = append(nodes[i].deps, nodes[rng.Intn(i)])
		}
	}
	return nodes
}

// TestDepthFirst_Chain verifies a linear chain is scheduled leaf first.
func TestDepthFirst_Chain(t *testing.T) {
	a := mk("a")
	b := mk("b", a)
	c := mk("c", b)
	assert.Equal(t, []string{"a", "b", "c"}, names(schedule.DepthFirstSort([]*node{c}, deps)))
}

// TestDepthFirst_TieBreak checks that the pending dependency with the most
// dependencies is resolved first.
func TestDepthFirst_TieBreak(t *testing.T) {
	p, q, x := mk("p"), mk("q"), mk("x")
	y := mk("y", p, q)
	r := mk("r", x, y)
	assert.Equal(t, []string{"p", "q", "y", "x", "r"}, names(schedule.DepthFirstSort([]*node{r}, deps)))
}

// TestDepthFirst_SharedAndRepeated ensures shared nodes and repeated roots are
// emitted once.
func TestDepthFirst_SharedAndRepeated(t *testing.T) {
	a := mk("a")
	b := mk("b", a, a)
	c := mk("c", a, b)
	order := schedule.DepthFirstSort([]*node{c, b, c}, deps)
	assert.Len(t, order, 3)
	require.NoError(t, schedule.Validate(order, deps))
}

// TestDepthFirst_Empty covers no roots.
func TestDepthFirst_Empty(t *testing.T) {
	assert.Empty(t, schedule.DepthFirstSort(nil, deps))
}

// TestBreadthFirst_Levels verifies level assignment and grouping.
func TestBreadthFirst_Levels(t *testing.T) {
	a, c := mk("a"), mk("c")
	b := mk("b", a)
	d := mk("d", b)
	e := mk("e", d, c)
	order, levels := schedule.BreadthFirstSort(schedule.DepthFirstSort([]*node{e}, deps), deps)
	got := map[string]int{}
	for i, n := range order {
		got[n.name] = levels[i]
	}
	assert.Equal(t, map[string]int{"a": 0, "c": 0, "b": 1, "d": 2, "e": 3}, got)
	for i := 1; i < len(levels); i++ {
		assert.LessOrEqual(t, levels[i-1], levels[i], "grouped by level")
	}
	require.NoError(t, schedule.ValidateLevels(order, levels, deps))
}

// TestPostpone_DelaysLeaf checks that a leaf consumed only at the top moves
// to the level right below its consumer.
func TestPostpone_DelaysLeaf(t *testing.T) {
	a, c := mk("a"), mk("c")
	b := mk("b", a)
	d := mk("d", b)
	e := mk("e", d, c)
	order, levels, err := schedule.Sort([]*node{e}, deps, schedule.Postponed)
	require.NoError(t, err)
	got := map[string]int{}
	for i, n := range order {
		got[n.name] = levels[i]
	}
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2, "d": 2, "e": 3}, got)
	require.NoError(t, schedule.Validate(order, deps))
	require.NoError(t, schedule.ValidateLevels(order, levels, deps))
}

// TestSort_RandomGraphs checks every mode returns a valid permutation of the
// same node set.
func TestSort_RandomGraphs(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		nodes := randomDAG(seed, 60, 3)
		roots := []*node{nodes[len(nodes)-1], nodes[len(nodes)/2]}
		ref := schedule.DepthFirstSort(roots, deps)
		for _, mode := range []schedule.Mode{schedule.DepthFirst, schedule.BreadthFirst, schedule.Postponed} {
			order, levels, err := schedule.Sort(roots, deps, mode)
			require.NoError(t, err)
			assert.ElementsMatch(t, ref, order, "seed %d mode %v", seed, mode)
			require.NoError(t, schedule.Validate(order, deps), "seed %d mode %v", seed, mode)
			if mode != schedule.DepthFirst {
				require.NoError(t, schedule.ValidateLevels(order, levels, deps))
			}
		}
	}
}

// TestValidate_Rejects covers out-of-order and repeated entries.
func TestValidate_Rejects(t *testing.T) {
	a := mk("a")
	b := mk("b", a)
	assert.ErrorIs(t, schedule.Validate([]*node{b, a}, deps), schedule.ErrInvalidOrder)
	assert.ErrorIs(t, schedule.Validate([]*node{a, a}, deps), schedule.ErrInvalidOrder)
	assert.ErrorIs(t, schedule.ValidateLevels([]*node{a, b}, []int{0, 0}, deps), schedule.ErrInvalidOrder)
	assert.ErrorIs(t, schedule.ValidateLevels([]*node{a, b}, []int{0}, deps), schedule.ErrInvalidOrder)

	_, err := schedule.Levels([]*node{b, a}, deps)
	assert.ErrorIs(t, err, schedule.ErrInvalidOrder)
	lv, err := schedule.Levels([]*node{a, b}, deps)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, lv)
}

// TestGroups splits levels into index groups.
func TestGroups(t *testing.T) {
	assert.Equal(t, [][]int{{0, 1}, {2}, {3, 4}}, schedule.Groups([]int{0, 0, 1, 2, 2}))
	assert.Empty(t, schedule.Groups(nil))
}

// TestMode_Names checks String and ParseMode round trip.
func TestMode_Names(t *testing.T) {
	for _, m := range []schedule.Mode{schedule.DepthFirst, schedule.BreadthFirst, schedule.Postponed} {
		got, err := schedule.ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := schedule.ParseMode("sideways")
	assert.ErrorIs(t, err, schedule.ErrUnknownMode)
	assert.Equal(t, "mode(9)", schedule.Mode(9).String())

	_, _, err = schedule.Sort([]*node{mk("a")}, deps, schedule.Mode(9))
	assert.ErrorIs(t, err, schedule.ErrUnknownMode)
}

func BenchmarkSort_Postponed(b *testing.B) {
	nodes := randomDAG(7, 5000, 3)
	roots := nodes[len(nodes)-10:]
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = schedule.Sort(roots, deps, schedule.Postponed)
	}
}
