// SPDX-License-Identifier: MIT

package plugin

import (
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/emirpasic/gods/sets/treeset"
	"go.uber.org/zap"

	"github.com/katalvlaran/symad/internal/logger"
)

// APIVersion is the plugin interface version a Plugin must declare.
const APIVersion = 1

// Creator instantiates a plugin for a problem description. opts may carry
// the adaptor option naming an inner plugin.
type Creator func(r *Registry, problem any, opts map[string]any) (any, error)

// Plugin describes one named implementation.
type Plugin struct {
	Name    string
	Doc     string
	Version int
	Creator Creator

	// AdaptorOption is the option through which an adaptor receives the name
	// of the plugin it wraps. Empty means "<Name>_solver".
	AdaptorOption string
}

func (p Plugin) adaptorOption() string {
	if p.AdaptorOption != "" {
		return p.AdaptorOption
	}
	return p.Name + "_solver"
}

// Registry maps plugin names to plugins for one plugin family (the infix,
// e.g. "linsol"). Unknown names are requested from the Loader once per call
// while the registry lock is held, so concurrent first lookups of a name
// perform a single load.
type Registry struct {
	mu      sync.Mutex
	infix   string
	plugins map[string]Plugin
	names   *treeset.Set
	loader  Loader
	log     logger.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLoader sets the loader consulted for unknown names.
func WithLoader(l Loader) Option {
	return func(r *Registry) { r.loader = l }
}

// WithLogger sets the logger receiving duplicate-registration warnings and
// load diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// NewRegistry returns an empty registry for the plugin family infix.
func NewRegistry(infix string, opts ...Option) *Registry {
	r := &Registry{
		infix:   infix,
		plugins: make(map[string]Plugin),
		names:   treeset.NewWithStringComparator(),
		log:     logger.NewNoopLogger(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Infix returns the plugin family name.
func (r *Registry) Infix() string { return r.infix }

// Register adds p. A second registration of the same name is rejected with
// ErrAlreadyRegistered and a warning; the first one is kept.
// Errors: ErrInvalidPlugin, ErrVersion, ErrAlreadyRegistered.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(p)
}

func (r *Registry) register(p Plugin) error {
	// 1. Validate
	if p.Name == "" || p.Creator == nil || strings.Contains(p.Name, ".") {
		return pluginErrorf("Register", p.Name, ErrInvalidPlugin)
	}
	if p.Version != APIVersion {
		return pluginErrorf("Register", p.Name, fmt.Errorf("version %d, want %d: %w", p.Version, APIVersion, ErrVersion))
	}
	// 2. First registration wins
	if _, dup := r.plugins[p.Name]; dup {
		r.log.Warn("plugin already registered", zap.String("infix", r.infix), zap.String("name", p.Name))
		return pluginErrorf("Register", p.Name, ErrAlreadyRegistered)
	}
	r.plugins[p.Name] = p
	r.names.Add(p.Name)
	return nil
}

// Get returns the plugin name, loading it when it is not registered.
// Failed loads are not remembered: a later call tries the loader again.
// Errors: ErrNotFound and loader errors.
func (r *Registry) Get(name string) (Plugin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(name)
}

func (r *Registry) get(name string) (Plugin, error) {
	if p, ok := r.plugins[name]; ok {
		return p, nil
	}
	if r.loader == nil {
		return Plugin{}, pluginErrorf("Get", name, ErrNotFound)
	}
	r.log.Debug("loading plugin", zap.String("infix", r.infix), zap.String("name", name))
	p, err := r.loader.Load(r.infix, name)
	if err != nil {
		return Plugin{}, pluginErrorf("Get", name, err)
	}
	if p.Name != name {
		return Plugin{}, pluginErrorf("Get", name, fmt.Errorf("loader returned %q: %w", p.Name, ErrInvalidPlugin))
	}
	if err := r.register(p); err != nil {
		return Plugin{}, err
	}
	return p, nil
}

// Has reports whether name, or both parts of an "adaptor.inner" name, can be
// provided, loading them if needed.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, part := range strings.SplitN(name, ".", 2) {
		if _, err := r.get(part); err != nil {
			return false
		}
	}
	return true
}

// Names returns the registered names in ascending order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, r.names.Size())
	for _, v := range r.names.Values() {
		out = append(out, v.(string))
	}
	return out
}

// Instantiate creates the plugin name for problem. A name "adaptor.inner"
// instantiates the adaptor with its adaptor option set to "inner"; the inner
// plugin is resolved first so a missing one fails early.
// opts is not modified.
func (r *Registry) Instantiate(name string, problem any, opts map[string]any) (any, error) {
	outer, inner, nested := strings.Cut(name, ".")
	r.mu.Lock()
	p, err := r.get(outer)
	if err == nil && nested {
		_, err = r.get(strings.SplitN(inner, ".", 2)[0])
	}
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if nested {
		opts = maps.Clone(opts)
		if opts == nil {
			opts = make(map[string]any)
		}
		opts[p.adaptorOption()] = inner
	}
	return p.Creator(r, problem, opts)
}

// Doc returns the documentation string of a registered or loadable plugin.
func (r *Registry) Doc(name string) (string, error) {
	p, err := r.Get(name)
	if err != nil {
		return "", err
	}
	return p.Doc, nil
}
