// SPDX-License-Identifier: MIT

// Package matrix: functional configuration of ingestion and comparison policy.
//   - Option / Options (functional options with internal state),
//   - documented defaults (constants),
//   - WithX constructors with strong validation (panic on nonsensical values),
//   - gatherOptions helper (internal).
package matrix

import "math"

// Defaults (single source of truth).
const (
	// DefaultValidateNaNInf rejects NaN/±Inf values handed to New and FromDense.
	// Kernels never validate: log(0) = -Inf is a legitimate evaluation result.
	DefaultValidateNaNInf = true

	// DefaultRelTol and DefaultAbsTol are the AllClose tolerances.
	DefaultRelTol = 1e-12
	DefaultAbsTol = 1e-12
)

const (
	panicTolInvalid = "matrix: WithTolerance: tolerances must be finite, non-negative"
)

// Option mutates internal options. Constructors panic only on nonsensical values.
type Option func(*Options)

// Options stores the effective configuration after applying Option setters.
type Options struct {
	validateNaNInf bool
	rtol, atol     float64
}

// WithValidateNaNInf enables strict finite-value validation at ingestion (default).
func WithValidateNaNInf() Option { return func(o *Options) { o.validateNaNInf = true } }

// WithNoValidateNaNInf accepts NaN/±Inf at ingestion.
func WithNoValidateNaNInf() Option { return func(o *Options) { o.validateNaNInf = false } }

// WithTolerance sets the relative and absolute tolerances of AllClose.
// Panics when either is negative or non-finite.
func WithTolerance(rtol, atol float64) Option {
	if isNonFinite(rtol) || isNonFinite(atol) || rtol < 0 || atol < 0 {
		panic(panicTolInvalid)
	}
	return func(o *Options) { o.rtol, o.atol = rtol, atol }
}

func defaultOptions() Options {
	return Options{validateNaNInf: DefaultValidateNaNInf, rtol: DefaultRelTol, atol: DefaultAbsTol}
}

// gatherOptions applies opts over the defaults, in order.
func gatherOptions(opts ...Option) Options {
	o := defaultOptions()
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func isNonFinite(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }
