package cmd

import (
	"fmt"

	"github.com/katalvlaran/symad/function"
)

// load reads the configuration and compiles the model at path.
func load(path string) (*environment, *Model, *function.Function, error) {
	env, err := newEnvironment()
	if err != nil {
		return nil, nil, nil, err
	}
	m, err := LoadModel(path)
	if err != nil {
		return nil, nil, nil, err
	}
	f, err := env.compile(m)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build %s: %w", m.Name, err)
	}
	return env, m, f, nil
}

// index resolves an input or output by name, or by position when no name
// matches and name is a number.
func index(kind, name string, names []string) (int, error) {
	if name == "" {
		if len(names) == 0 {
			return 0, fmt.Errorf("model has no %ss", kind)
		}
		return 0, nil
	}
	for i, n := range names {
		if n == name {
			return i, nil
		}
	}
	var i int
	if _, err := fmt.Sscanf(name, "%d", &i); err == nil && i >= 0 && i < len(names) {
		return i, nil
	}
	return 0, fmt.Errorf("unknown %s %q", kind, name)
}
