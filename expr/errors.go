// SPDX-License-Identifier: MIT

package expr

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by node constructors.
var (
	// ErrNilNode indicates a nil dependency.
	ErrNilNode = errors.New("expr: nil node")

	// ErrDimensionMismatch indicates operand shapes incompatible with the operation.
	ErrDimensionMismatch = errors.New("expr: dimension mismatch")

	// ErrNonSquare signals that a square operand was required.
	ErrNonSquare = errors.New("expr: matrix is not square")

	// ErrBadShape is returned for negative extents.
	ErrBadShape = errors.New("expr: invalid shape")

	// ErrIndex indicates a nonzero index or offset outside the operand.
	ErrIndex = errors.New("expr: index out of range")

	// ErrUnsupported marks an operation tag not accepted by the constructor.
	ErrUnsupported = errors.New("expr: unsupported operation")
)

func exprErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// Must returns n or panics with err. Intended for examples and tests.
func Must(n *Node, err error) *Node {
	if err != nil {
		panic(err)
	}
	return n
}
