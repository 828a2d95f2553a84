// SPDX-License-Identifier: MIT

package sx

import "errors"

// Sentinel errors of scalar functions.
var (
	// ErrNotSymbolic indicates a function input entry that is not a symbol.
	ErrNotSymbolic = errors.New("sx: input is not symbolic")

	// ErrDuplicateInput indicates a symbol used twice among the inputs.
	ErrDuplicateInput = errors.New("sx: duplicate input symbol")

	// ErrDimensionMismatch indicates an argument or pattern of the wrong size.
	ErrDimensionMismatch = errors.New("sx: dimension mismatch")

	// ErrFreeVariables is returned when outputs depend on symbols that are
	// not inputs.
	ErrFreeVariables = errors.New("sx: free variables")
)
