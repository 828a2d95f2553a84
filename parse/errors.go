// SPDX-License-Identifier: MIT

package parse

import (
	"errors"
	"fmt"
)

// Sentinel errors of expression parsing.
var (
	// ErrSyntax wraps the issues reported by the expression parser.
	ErrSyntax = errors.New("parse: syntax error")

	// ErrUnknownSymbol indicates an identifier that is neither a declared
	// symbol nor a named constant.
	ErrUnknownSymbol = errors.New("parse: unknown symbol")

	// ErrUnknownFunction indicates a call to a function without a mapping.
	ErrUnknownFunction = errors.New("parse: unknown function")

	// ErrArity indicates a call with the wrong number of arguments.
	ErrArity = errors.New("parse: wrong number of arguments")

	// ErrLiteral indicates a literal of an unsupported type, or a non-literal
	// where an integer or string literal is required.
	ErrLiteral = errors.New("parse: invalid literal")

	// ErrUnsupported marks a construct with no expression counterpart
	// (maps, messages, comprehensions, logical operators).
	ErrUnsupported = errors.New("parse: unsupported construct")
)

func parseErrorf(fn string, err error) error {
	return fmt.Errorf("parse %s: %w", fn, err)
}
