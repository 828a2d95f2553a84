// SPDX-License-Identifier: MIT

package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	goplugin "plugin"
	"strings"
)

//go:generate mockgen -source loader.go -destination mock_loader.go -package plugin Loader

// Loader provides plugins that are not registered yet.
type Loader interface {
	// Load returns the plugin name of family infix.
	Load(infix, name string) (Plugin, error)
}

// PathEnv is the environment variable holding extra library directories,
// separated by the OS list separator.
const PathEnv = "SYMADPATH"

// LibraryLoader loads Go plugins built with -buildmode=plugin. The library
// file for name in family infix is libsymad_<infix>_<name>.so and must
// export
//
//	func Register<Infix>() plugin.Plugin
//
// with <Infix> the family name with an upper-case first letter.
type LibraryLoader struct {
	// Paths are searched first, in order.
	Paths []string
	// Getenv reads PathEnv; nil means os.Getenv.
	Getenv func(string) string
	// Open opens a library; nil means the standard plugin.Open.
	Open func(path string) (Symbols, error)
}

// Symbols is the symbol table of an opened library.
type Symbols interface {
	Lookup(symbol string) (goplugin.Symbol, error)
}

// FileName returns the library file name of a plugin.
func FileName(infix, name string) string {
	return fmt.Sprintf("libsymad_%s_%s.so", infix, name)
}

// SymbolName returns the exported registration function of a family.
func SymbolName(infix string) string {
	if infix == "" {
		return "Register"
	}
	return "Register" + strings.ToUpper(infix[:1]) + infix[1:]
}

// SearchPaths returns the candidate files in search order: configured
// paths, the PathEnv entries, the bare file name, and the working directory.
func (l LibraryLoader) SearchPaths(infix, name string) []string {
	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	file := FileName(infix, name)
	var out []string
	for _, dir := range l.Paths {
		out = append(out, filepath.Join(dir, file))
	}
	for _, dir := range filepath.SplitList(getenv(PathEnv)) {
		if dir != "" {
			out = append(out, filepath.Join(dir, file))
		}
	}
	return append(out, file, "."+string(filepath.Separator)+file)
}

// Load tries every search path in order and registers the first library
// that opens. The error lists every path tried.
// Errors: ErrNotFound, ErrBadSymbol.
func (l LibraryLoader) Load(infix, name string) (Plugin, error) {
	open := l.Open
	if open == nil {
		open = func(path string) (Symbols, error) { return goplugin.Open(path) }
	}
	paths := l.SearchPaths(infix, name)
	var tried []string
	for _, path := range paths {
		lib, err := open(path)
		if err != nil {
			tried = append(tried, fmt.Sprintf("%s (%v)", path, err))
			continue
		}
		// 1. Resolve the registration function
		sym, err := lib.Lookup(SymbolName(infix))
		if err != nil {
			return Plugin{}, fmt.Errorf("Load %s: %v: %w", path, err, ErrBadSymbol)
		}
		reg, ok := sym.(func() Plugin)
		if !ok {
			return Plugin{}, fmt.Errorf("Load %s: %T: %w", path, sym, ErrBadSymbol)
		}
		// 2. Build the plugin
		p := reg()
		if p.Name == "" {
			p.Name = name
		}
		return p, nil
	}
	return Plugin{}, fmt.Errorf("Load %s %q, searched: %s: %w", infix, name, strings.Join(tried, ", "), ErrNotFound)
}
