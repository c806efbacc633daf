package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution sources, used as the "source" label.
const (
	SourceMemory   = "memory"
	SourceStore    = "store"
	SourceProbe    = "probe"
	SourceFallback = "fallback"
)

// Probe outcomes, used as the "outcome" label.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	probesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finance",
			Subsystem: "resolver",
			Name:      "probes_total",
			Help:      "Candidate probes issued, by route key and outcome",
		},
		[]string{"key", "outcome"},
	)
	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "finance",
			Subsystem: "resolver",
			Name:      "resolutions_total",
			Help:      "Resolved routes, by route key and where the answer came from",
		},
		[]string{"key", "source"},
	)
	probeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "finance",
			Subsystem: "resolver",
			Name:      "probe_duration_seconds",
			Help:      "Duration of candidate probes in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"key"},
	)
)
