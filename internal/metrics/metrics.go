// Package metrics exposes Prometheus counters for lint and fix runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every parallelphpcs metric. It is separate from the
// default registry so that embedding programs are not polluted.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// Runs counts lint runs by terminal status (skipped, passed, failed).
	Runs = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parallelphpcs",
		Name:      "runs_total",
		Help:      "Lint runs by terminal status.",
	}, []string{"status"})

	// RunDuration observes how long the linter process took.
	RunDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: "parallelphpcs",
		Name:      "run_duration_seconds",
		Help:      "Wall time of linter invocations.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	})

	// Fixes counts fixer invocations by result (clean, modified, failed).
	Fixes = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parallelphpcs",
		Name:      "fix_total",
		Help:      "Fixer invocations by result.",
	}, []string{"result"})

	// ProbeFallbacks counts "auto" resolutions that fell back to one worker.
	ProbeFallbacks = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "parallelphpcs",
		Name:      "worker_probe_fallbacks_total",
		Help:      "CPU core probes that failed and fell back to a single worker.",
	})
)

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
