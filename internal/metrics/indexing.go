package metrics

import "github.com/prometheus/client_golang/prometheus"

// Indexing and sync Prometheus metrics.
var (
	IndexOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scentdex",
			Name:      "index_ops_total",
			Help:      "Total indexing operations",
		},
		[]string{"op", "status"}, // op: upsert / delete / skip
	)

	ReindexDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "scentdex",
			Name:      "reindex_duration_seconds",
			Help:      "Full reindex duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	ReindexDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "scentdex",
			Name:      "reindex_documents",
			Help:      "Documents handled by the last full reindex",
		},
		[]string{"result"}, // indexed / skipped
	)

	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scentdex",
			Name:      "events_total",
			Help:      "Total catalogue events consumed",
		},
		[]string{"topic", "status"}, // status: ok / retried / dropped
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scentdex",
			Name:      "search_requests_total",
			Help:      "Total search queries by kind",
		},
		[]string{"kind", "status"}, // kind: search / similar / recommend
	)
)

var indexingRegistered bool

// RegisterIndexingMetrics registers pipeline metrics. Must be called once from main.
func RegisterIndexingMetrics() {
	if indexingRegistered {
		return
	}
	prometheus.MustRegister(IndexOpsTotal)
	prometheus.MustRegister(ReindexDuration)
	prometheus.MustRegister(ReindexDocuments)
	prometheus.MustRegister(EventsTotal)
	prometheus.MustRegister(SearchRequestsTotal)
	indexingRegistered = true
}
