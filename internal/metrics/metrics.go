package metrics

import "github.com/prometheus/client_golang/prometheus"

// Core Prometheus metrics for the catalog-integration layer.
var (
	RPCRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalink",
			Name:      "rpc_requests_total",
			Help:      "Total number of ERP RPC calls",
		},
		[]string{"endpoint", "method", "status"},
	)

	RPCRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "catalink",
			Name:      "rpc_request_duration_seconds",
			Help:      "ERP RPC call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method"},
	)

	SearchItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalink",
			Name:      "search_items_total",
			Help:      "Per-item catalog search outcomes by strategy tier",
		},
		[]string{"strategy", "status"},
	)

	SearchBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "catalink",
			Name:      "search_batch_duration_seconds",
			Help:      "Multi-item search batch duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	MOQLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalink",
			Name:      "moq_lookups_total",
			Help:      "Batched supplier MOQ lookups by result",
		},
		[]string{"result"}, // "ok" / "degraded"
	)

	MOQCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalink",
			Name:      "moq_cache_total",
			Help:      "Supplier lookup cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	ParserRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "catalink",
			Name:      "parser_requests_total",
			Help:      "Natural-language query parser calls",
		},
		[]string{"status"},
	)
)

// RegisterCoreMetrics registers the catalog-integration metrics with the
// default registry. Called once from the composition root; tests exercise
// the vectors unregistered.
func RegisterCoreMetrics() {
	prometheus.MustRegister(
		RPCRequestsTotal,
		RPCRequestDuration,
		SearchItemsTotal,
		SearchBatchDuration,
		MOQLookupsTotal,
		MOQCacheTotal,
		ParserRequestsTotal,
	)
}
