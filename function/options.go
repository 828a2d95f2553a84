// SPDX-License-Identifier: MIT

package function

import (
	"github.com/katalvlaran/symad/internal/logger"
	"github.com/katalvlaran/symad/linsol"
	"github.com/katalvlaran/symad/plugin"
	"github.com/katalvlaran/symad/schedule"
)

// Defaults.
const (
	// DefaultMaxDirections bounds the directions propagated per symbolic sweep.
	DefaultMaxDirections = 64

	// DefaultADWeight weighs forward against adjoint sweeps when choosing the
	// Jacobian seeding mode: forward iff w*nfwd <= (1-w)*nadj.
	DefaultADWeight = 0.5

	// DefaultSorting is the scheduling mode of the algorithm.
	DefaultSorting = schedule.DepthFirst

	// DefaultLiveVariables enables work-slot reuse.
	DefaultLiveVariables = true
)

const (
	panicMaxDirections = "function: WithMaxDirections(n) requires n >= 1"
	panicADWeight      = "function: WithADWeight(w) requires 0 <= w <= 1"
	panicParallel      = "function: WithParallelLevels(n) requires n >= 0"
	panicNilLogger     = "function: WithLogger(nil)"
	panicNilRegistry   = "function: WithRegistry(nil)"
)

// Options holds the configuration of a Function.
type Options struct {
	sorting       schedule.Mode
	liveVariables bool
	parallel      int
	maxDirections int
	adWeight      float64
	log           logger.Logger
	registry      *plugin.Registry
}

// Option configures a Function.
type Option func(*Options)

// WithSorting selects the scheduling mode.
func WithSorting(m schedule.Mode) Option { return func(o *Options) { o.sorting = m } }

// WithLiveVariables toggles work-slot reuse.
func WithLiveVariables(on bool) Option { return func(o *Options) { o.liveVariables = on } }

// WithParallelLevels evaluates the instructions of one level concurrently
// with at most n goroutines. It needs a level schedule (BreadthFirst or
// Postponed) and disables work-slot reuse. 0 or 1 means sequential.
func WithParallelLevels(n int) Option {
	if n < 0 {
		panic(panicParallel)
	}
	return func(o *Options) { o.parallel = n }
}

// WithMaxDirections bounds the directions per symbolic sweep of Jacobian.
func WithMaxDirections(n int) Option {
	if n < 1 {
		panic(panicMaxDirections)
	}
	return func(o *Options) { o.maxDirections = n }
}

// WithADWeight sets the forward/adjoint weight of Jacobian.
func WithADWeight(w float64) Option {
	if w < 0 || w > 1 || w != w {
		panic(panicADWeight)
	}
	return func(o *Options) { o.adWeight = w }
}

// WithLogger injects a logger.
func WithLogger(l logger.Logger) Option {
	if l == nil {
		panic(panicNilLogger)
	}
	return func(o *Options) { o.log = l }
}

// WithRegistry sets the registry linear solvers are instantiated from.
func WithRegistry(r *plugin.Registry) Option {
	if r == nil {
		panic(panicNilRegistry)
	}
	return func(o *Options) { o.registry = r }
}

func defaultOptions() Options {
	return Options{
		sorting:       DefaultSorting,
		liveVariables: DefaultLiveVariables,
		maxDirections: DefaultMaxDirections,
		adWeight:      DefaultADWeight,
		log:           logger.NewNoopLogger(),
	}
}

func gatherOptions(opts ...Option) Options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.registry == nil {
		o.registry = linsol.Default()
	}
	if o.parallel > 1 {
		o.liveVariables = false
	}
	return o
}

// JacOption configures a single Jacobian request.
type JacOption func(*jacOptions)

type jacOptions struct {
	compact      bool
	symmetric    bool
	uncompressed bool
}

// Compact indexes the Jacobian by nonzeros (ny×nx) instead of elements
// (numel(y)×numel(x)).
func Compact() JacOption { return func(o *jacOptions) { o.compact = true } }

// Symmetric declares the Jacobian symmetric; it is then computed with a star
// coloring and forward sweeps only.
func Symmetric() JacOption { return func(o *jacOptions) { o.symmetric = true } }

// Uncompressed uses one forward direction per input nonzero.
func Uncompressed() JacOption { return func(o *jacOptions) { o.uncompressed = true } }
