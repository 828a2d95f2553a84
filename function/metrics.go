// SPDX-License-Identifier: MIT

package function

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "symad"

var (
	evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "function_evaluations_total",
		Help:      "The total number of function evaluations by mode (numeric, sparsity_fwd, sparsity_adj).",
	}, []string{"mode"})

	jacobianSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jacobian_sweeps_total",
		Help:      "The total number of symbolic sweeps issued by Jacobian construction, by direction.",
	}, []string{"direction"})

	jacobianDirections = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "jacobian_sweep_directions",
		Help:      "The number of directions propagated per symbolic Jacobian sweep.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
	})

	jacobianColors = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "jacobian_colors",
		Help:      "The number of colors (seed directions) of compressed Jacobians.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
)
