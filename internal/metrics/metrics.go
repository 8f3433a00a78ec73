// Package metrics exposes package-level Prometheus collectors for the
// compression engine, following the retrieved corpus's
// pkg/prefetch/metrics.go pattern: a sync.Once-registered singleton struct
// of promauto collectors updated as a pure side channel. Compress and
// Decompress never read from this package, so recording a metric can never
// change what either function returns — the engine's core pure-function
// guarantee (spec §9) holds regardless of whether metrics are wired up by
// the caller's process.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	global *Metrics
	once   sync.Once
)

// Metrics holds the engine's Prometheus collectors, all namespaced under
// ltsc_.
type Metrics struct {
	CompressionsTotal   *prometheus.CounterVec
	DecompressionsTotal *prometheus.CounterVec
	CompressionRatio    prometheus.Histogram
	DiscoveryCandidates prometheus.Histogram
	HierarchicalPasses  prometheus.Histogram
	VerificationFailure prometheus.Counter
	SolverDegradedTotal prometheus.Counter
}

// Get returns the process-wide Metrics singleton, registering its
// collectors with the default registry on first use.
func Get() *Metrics {
	once.Do(func() {
		global = &Metrics{
			CompressionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ltsc_compressions_total",
					Help: "Total number of Compress calls, labeled by selection mode.",
				},
				[]string{"selection_mode"},
			),
			DecompressionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "ltsc_decompressions_total",
					Help: "Total number of Decompress calls, labeled by outcome (ok, error).",
				},
				[]string{"outcome"},
			),
			CompressionRatio: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "ltsc_compression_ratio",
					Help:    "Ratio of compressed_length to original_length per Compress call.",
					Buckets: prometheus.LinearBuckets(0.05, 0.05, 20),
				},
			),
			DiscoveryCandidates: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "ltsc_discovery_candidates",
					Help:    "Number of compressible candidates found per discovery pass.",
					Buckets: prometheus.ExponentialBuckets(1, 2, 12),
				},
			),
			HierarchicalPasses: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "ltsc_hierarchical_passes",
					Help:    "Number of compression passes actually run per Compress call.",
					Buckets: prometheus.LinearBuckets(1, 1, 8),
				},
			),
			VerificationFailure: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "ltsc_verification_failures_total",
					Help: "Total number of round-trip verification failures caught by cfg.Verify.",
				},
			),
			SolverDegradedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "ltsc_solver_degraded_total",
					Help: "Total number of ilp selections that degraded to optimal because no Solver was supplied or the solver declined.",
				},
			),
		}
	})
	return global
}

// RecordCompression records one successful Compress call.
func (m *Metrics) RecordCompression(selectionMode string, originalLen, compressedLen int, passes int) {
	m.CompressionsTotal.WithLabelValues(selectionMode).Inc()
	if originalLen > 0 {
		m.CompressionRatio.Observe(float64(compressedLen) / float64(originalLen))
	}
	m.HierarchicalPasses.Observe(float64(passes))
}

// RecordDiscovery records the size of one discovery pass's candidate set.
func (m *Metrics) RecordDiscovery(candidateCount int) {
	m.DiscoveryCandidates.Observe(float64(candidateCount))
}

// RecordDecompression records one Decompress call's outcome.
func (m *Metrics) RecordDecompression(err error) {
	if err != nil {
		m.DecompressionsTotal.WithLabelValues("error").Inc()
		return
	}
	m.DecompressionsTotal.WithLabelValues("ok").Inc()
}
