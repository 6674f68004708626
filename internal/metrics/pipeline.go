package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics for the embedding and rerank stages.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assessrec",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "assessrec",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assessrec",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"model", "type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assessrec",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	RerankRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "assessrec",
			Name:      "rerank_requests_total",
			Help:      "Rerank outcomes per recommendation request",
		},
		[]string{"outcome"}, // "ok" / "degraded" / "empty"
	)

	RerankDroppedEntriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "assessrec",
			Name:      "rerank_dropped_entries_total",
			Help:      "Rerank output entries dropped by integrity filtering",
		},
	)

	RerankRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "assessrec",
			Name:      "rerank_request_duration_seconds",
			Help:      "Generative rerank call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"model"},
	)
)

// RegisterPipelineMetrics registers the embedding and rerank metrics explicitly
// (no init side effect, so tests can skip registration).
func RegisterPipelineMetrics() {
	prometheus.MustRegister(
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingTokensTotal,
		EmbeddingCacheTotal,
		RerankRequestsTotal,
		RerankDroppedEntriesTotal,
		RerankRequestDuration,
	)
}
