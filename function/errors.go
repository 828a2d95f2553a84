// SPDX-License-Identifier: MIT

package function

import (
	"errors"
	"fmt"
)

// Sentinel errors of function construction, evaluation and differentiation.
var (
	// ErrNotSymbolic indicates a function input that is not a symbolic primitive.
	ErrNotSymbolic = errors.New("function: input is not symbolic")

	// ErrDuplicateInput indicates the same symbol passed as two inputs.
	ErrDuplicateInput = errors.New("function: duplicate input")

	// ErrDimensionMismatch indicates arguments of the wrong count or shape.
	ErrDimensionMismatch = errors.New("function: dimension mismatch")

	// ErrIndex indicates an input or output index out of range.
	ErrIndex = errors.New("function: index out of range")

	// ErrSeedMismatch indicates forward or adjoint seeds that do not match
	// the input or output shapes.
	ErrSeedMismatch = errors.New("function: seed mismatch")

	// ErrFreeVariables is returned when evaluating outputs that depend on
	// symbols which are not inputs.
	ErrFreeVariables = errors.New("function: free variables")

	// ErrAssertionFailed is returned when an assertion condition evaluates to 0.
	ErrAssertionFailed = errors.New("function: assertion failed")

	// ErrUnsupported marks an operation the chosen evaluator cannot handle.
	ErrUnsupported = errors.New("function: unsupported operation")

	// ErrNotScalar is returned by Gradient and Tangent for non-scalar
	// outputs and inputs respectively.
	ErrNotScalar = errors.New("function: not scalar")
)

func functionErrorf(tag, name string, err error) error {
	return fmt.Errorf("%s %s: %w", tag, name, err)
}
