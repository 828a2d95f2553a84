// SPDX-License-Identifier: MIT

package plugin

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the registry and the loaders.
var (
	// ErrAlreadyRegistered is returned when a name is registered twice. The
	// first registration stays in effect.
	ErrAlreadyRegistered = errors.New("plugin: already registered")

	// ErrNotFound is returned when no loader could provide a plugin.
	ErrNotFound = errors.New("plugin: not found")

	// ErrInvalidPlugin is returned for a plugin without name or creator.
	ErrInvalidPlugin = errors.New("plugin: invalid plugin")

	// ErrVersion is returned when a plugin was built against another API
	// version.
	ErrVersion = errors.New("plugin: incompatible version")

	// ErrBadSymbol is returned when a library exports the registration symbol
	// with the wrong type.
	ErrBadSymbol = errors.New("plugin: registration symbol has wrong type")
)

func pluginErrorf(tag, name string, err error) error {
	return fmt.Errorf("%s %q: %w", tag, name, err)
}
