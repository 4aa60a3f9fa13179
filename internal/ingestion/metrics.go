package ingestion

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// indexerMetrics holds the Prometheus metrics owned by the Indexer.
type indexerMetrics struct {
	// problemsTotal counts IndexProblem calls partitioned by outcome:
	// "ok" or "error".
	problemsTotal *prometheus.CounterVec

	// chunksTotal counts chunks written to the vector store, partitioned by
	// chunk_type.
	chunksTotal *prometheus.CounterVec

	// embedTokensTotal counts the estimated tokens sent to the embedding
	// provider.
	embedTokensTotal prometheus.Counter

	// durationSeconds records the wall-clock duration of IndexProblem.
	durationSeconds prometheus.Histogram
}

// newIndexerMetrics registers the indexer metrics against reg. A nil reg
// yields working but unregistered metrics.
func newIndexerMetrics(reg prometheus.Registerer) *indexerMetrics {
	factory := promauto.With(reg)

	return &indexerMetrics{
		problemsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leetrag",
			Subsystem: "indexer",
			Name:      "problems_total",
			Help:      "Total number of problems indexed, partitioned by outcome.",
		}, []string{"outcome"}),

		chunksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leetrag",
			Subsystem: "indexer",
			Name:      "chunks_total",
			Help:      "Total number of chunks written to the vector store, partitioned by chunk type.",
		}, []string{"chunk_type"}),

		embedTokensTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "leetrag",
			Subsystem: "indexer",
			Name:      "embed_tokens_estimated_total",
			Help:      "Estimated tokens sent to the embedding provider (4 characters per token).",
		}),

		durationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leetrag",
			Subsystem: "indexer",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of indexing one problem.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
	}
}
