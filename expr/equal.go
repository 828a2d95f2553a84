// SPDX-License-Identifier: MIT

package expr

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/katalvlaran/symad/matrix"
	"github.com/katalvlaran/symad/ops"
)

// IsEqual reports whether x and y are structurally equal, recursing at most
// depth levels into the dependencies. Identical nodes are always equal; at
// depth 0 distinct nodes compare unequal, so a true result is never wrong.
// Distinct symbols are never equal, even with the same name.
// Complexity: O(branching^depth).
func IsEqual(x, y *Node, depth int) bool {
	if x == y {
		return true
	}
	if x == nil || y == nil || depth <= 0 {
		return false
	}
	// 1. Same operation, pattern and op data
	if x.op != y.op || !x.sp.Equal(y.sp) || len(x.deps) != len(y.deps) {
		return false
	}
	switch x.op {
	case ops.OpInput:
		return false
	case ops.OpConst:
		return x.fp == y.fp && x.val.Equal(y.val)
	case ops.OpGetNonzeros:
		if !slices.Equal(x.nz, y.nz) {
			return false
		}
	case ops.OpSolve:
		if x.solver != y.solver {
			return false
		}
	case ops.OpAssertion:
		if x.msg != y.msg {
			return false
		}
	}
	// 2. Dependencies pairwise, commutative operations in either order
	if depsEqual(x.deps, y.deps, depth-1) {
		return true
	}
	if x.op.IsCommutative() && len(x.deps) == 2 {
		return IsEqual(x.deps[0], y.deps[1], depth-1) && IsEqual(x.deps[1], y.deps[0], depth-1)
	}
	return false
}

func depsEqual(a, b []*Node, depth int) bool {
	for i := range a {
		if !IsEqual(a[i], b[i], depth) {
			return false
		}
	}
	return true
}

// valueHash fingerprints a constant: pattern plus value bits.
func valueHash(m *matrix.Sparse) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], m.Sparsity().Hash())
	_, _ = d.Write(buf[:])
	for _, v := range m.Nonzeros() {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}
