// Package metrics holds the prometheus collectors of the tracker.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "defi_tracker"

var (
	// RefreshTotal counts refresh attempts by section and outcome.
	RefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_total",
		Help:      "Refresh attempts by section and outcome.",
	}, []string{"section", "outcome"})

	// RefreshDuration observes how long remote queries of a section take.
	RefreshDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "refresh_duration_seconds",
		Help:      "Duration of remote section queries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"section"})

	// SecondaryRefreshFailures counts swallowed asset metadata refresh failures.
	SecondaryRefreshFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "secondary_refresh_failures_total",
		Help:      "Asset metadata refreshes that failed after a section refresh.",
	})

	registerOnce sync.Once
)

// MustRegisterMetrics registers every collector with the default registry.
// It is safe to call more than once.
func MustRegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RefreshTotal, RefreshDuration, SecondaryRefreshFailures)
	})
}
