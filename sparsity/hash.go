// SPDX-License-Identifier: MIT

package sparsity

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Hash returns a 64-bit xxhash fingerprint of shape and nonzero layout.
// Equal patterns hash equally; the converse holds with high probability only.
// Complexity: O(ncol + nnz).
func (s Sparsity) Hash() uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = d.Write(buf[:])
	}
	put(s.nrow)
	put(s.ncol)
	for c := 0; c < s.ncol; c++ {
		put(s.colind[c+1])
	}
	for _, r := range s.row {
		put(r)
	}
	return d.Sum64()
}
