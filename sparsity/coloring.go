// SPDX-License-Identifier: MIT

package sparsity

// Coloring of Jacobian columns for compressed differentiation.
//
// A coloring is returned as a partition pattern P of shape ncol×ncolors:
// column k of P lists (as row indices) the columns of the colored pattern
// that share color k. Seeding direction k with the indicator vector of that
// column of P evaluates all those columns in one sweep.

// UnidirectionalColoring greedily colors the columns of s so that no two
// columns of one color have a nonzero in a common row. When more than
// maxColors colors would be needed the search stops early and ok is false;
// maxColors < 0 means unbounded.
// Complexity: O(sum over rows r of nnz(r)^2) in the worst case.
func (s Sparsity) UnidirectionalColoring(maxColors int) (Sparsity, bool) {
	// 1. Row-wise access through the transpose
	st := s.T()
	color := make([]int, s.ncol)
	forbidden := []int{} // forbidden[c] == j marks c as taken while coloring j
	ncolors := 0
	for j := 0; j < s.ncol; j++ {
		// 2. Forbid the colors of every earlier column sharing a row with j
		for el := s.colind[j]; el < s.colind[j+1]; el++ {
			r := s.row[el]
			for tel := st.colind[r]; tel < st.colind[r+1]; tel++ {
				jj := st.row[tel]
				if jj >= j {
					break
				}
				forbidden[color[jj]] = j
			}
		}
		// 3. Smallest free color
		c := 0
		for c < ncolors && forbidden[c] == j {
			c++
		}
		if c == ncolors {
			if maxColors >= 0 && ncolors == maxColors {
				return Sparsity{}, false
			}
			ncolors++
			forbidden = append(forbidden, -1)
		}
		color[j] = c
	}
	return FromColors(color, ncolors), true
}

// StarColoring colors the columns of a symmetric pattern so that every
// nonzero (i,j) can be recovered from the compressed product, either as the
// single contribution of color(j) in row i or, by symmetry, of color(i) in
// row j. The greedy star coloring is verified; when verification fails the
// distance-2 coloring (always recoverable) is returned instead.
func (s Sparsity) StarColoring() Sparsity {
	if !s.IsSquare() {
		panic("sparsity: StarColoring of a non-square pattern")
	}
	n := s.ncol
	color := make([]int, n)
	for i := range color {
		color[i] = -1
	}
	forbidden := []int{}
	ncolors := 0
	for v := 0; v < n; v++ {
		// 1. Collect forbidden colors from distance-1 and critical distance-2 paths
		for el := s.colind[v]; el < s.colind[v+1]; el++ {
			w := s.row[el]
			if w == v {
				continue
			}
			if color[w] >= 0 {
				forbidden[color[w]] = v
			}
			for wel := s.colind[w]; wel < s.colind[w+1]; wel++ {
				x := s.row[wel]
				if x == w || x == v || color[x] < 0 {
					continue
				}
				if color[w] < 0 {
					forbidden[color[x]] = v
					continue
				}
				// x-w-v with w colored: forbid color(x) when x already has a
				// neighbor other than w with the color of w
				for xel := s.colind[x]; xel < s.colind[x+1]; xel++ {
					y := s.row[xel]
					if y == x || y == w || color[y] < 0 {
						continue
					}
					if color[y] == color[w] {
						forbidden[color[x]] = v
						break
					}
				}
			}
		}
		// 2. Smallest free color
		c := 0
		for c < ncolors && forbidden[c] == v {
			c++
		}
		if c == ncolors {
			ncolors++
			forbidden = append(forbidden, -1)
		}
		color[v] = c
	}

	p := FromColors(color, ncolors)
	if s.Recoverable(p) {
		return p
	}
	d2, _ := s.UnidirectionalColoring(-1)
	return d2
}

// FromColors builds the partition pattern of a color assignment.
func FromColors(color []int, ncolors int) Sparsity {
	colind := make([]int, ncolors+1)
	for _, c := range color {
		colind[c+1]++
	}
	for c := 0; c < ncolors; c++ {
		colind[c+1] += colind[c]
	}
	next := append([]int(nil), colind[:ncolors]...)
	row := make([]int, len(color))
	for j, c := range color {
		row[next[c]] = j
		next[c]++
	}
	return build(len(color), ncolors, colind, row)
}

// Colors returns the color of every column described by a partition pattern.
func Colors(partition Sparsity) []int {
	color := make([]int, partition.nrow)
	for i := range color {
		color[i] = -1
	}
	for c := 0; c < partition.ncol; c++ {
		for el := partition.colind[c]; el < partition.colind[c+1]; el++ {
			color[partition.row[el]] = c
		}
	}
	return color
}

// RowColorCount returns, for every row r and color c, the number of nonzeros
// of s in row r whose column has color c. Index as count[r*ncolors+c].
func (s Sparsity) RowColorCount(partition Sparsity) []int {
	color := Colors(partition)
	nc := partition.ncol
	count := make([]int, s.nrow*nc)
	for j := 0; j < s.ncol; j++ {
		if color[j] < 0 {
			continue
		}
		for el := s.colind[j]; el < s.colind[j+1]; el++ {
			count[s.row[el]*nc+color[j]]++
		}
	}
	return count
}

// IsValidColoring reports whether no two columns of one color share a row.
func (s Sparsity) IsValidColoring(partition Sparsity) bool {
	if partition.nrow != s.ncol {
		return false
	}
	for _, n := range s.RowColorCount(partition) {
		if n > 1 {
			return false
		}
	}
	return true
}

// Recoverable reports whether every nonzero (i,j) of the symmetric pattern s
// is the single contribution of its color in row i or, mirrored, in row j.
func (s Sparsity) Recoverable(partition Sparsity) bool {
	if partition.nrow != s.ncol {
		return false
	}
	color := Colors(partition)
	nc := partition.ncol
	count := s.RowColorCount(partition)
	for j := 0; j < s.ncol; j++ {
		for el := s.colind[j]; el < s.colind[j+1]; el++ {
			i := s.row[el]
			if color[j] < 0 || color[i] < 0 {
				return false
			}
			if count[i*nc+color[j]] != 1 && count[j*nc+color[i]] != 1 {
				return false
			}
		}
	}
	return true
}
