package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Operation log metrics
	OplogOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dozer_cache_oplog_operations_total",
			Help: "Total number of operations appended to the operation log by kind",
		},
		[]string{"type"},
	)

	OplogNextOperationID = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dozer_cache_oplog_next_operation_id",
			Help: "Next operation id to be minted, per endpoint",
		},
		[]string{"endpoint"},
	)

	OplogPresentRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dozer_cache_oplog_present_records",
			Help: "Number of currently live (non-tombstoned) records, per endpoint",
		},
		[]string{"endpoint"},
	)

	// Query adapter metrics
	QueryBatchesStreamedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dozer_cache_query_batches_streamed_total",
			Help: "Total number of record batches streamed to query callers",
		},
		[]string{"endpoint"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dozer_cache_query_duration_seconds",
			Help:    "End-to-end duration of a query stream, from open to exhaustion or cancellation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	QueryRecordsReturned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dozer_cache_query_records_returned_total",
			Help: "Total number of records returned to query callers after filtering and projection",
		},
		[]string{"endpoint"},
	)

	// Ingestion adapter metrics
	IngestEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dozer_cache_ingest_events_total",
			Help: "Total number of connector events consumed by the ingestion adapter, by kind",
		},
		[]string{"endpoint", "kind"},
	)

	IngestChannelDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dozer_cache_ingest_channel_depth",
			Help: "Current depth of the ingestion adapter's bounded backpressure channel",
		},
		[]string{"endpoint"},
	)

	// Eviction metrics
	EvictionRecordsEvictedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dozer_cache_eviction_records_evicted_total",
			Help: "Total number of records evicted once their lifetime expired",
		},
		[]string{"endpoint"},
	)

	// KV environment metrics
	KVTxnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dozer_cache_kv_txn_duration_seconds",
			Help:    "Duration of KV transactions by mode",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)
)

func init() {
	prometheus.MustRegister(OplogOperationsTotal)
	prometheus.MustRegister(OplogNextOperationID)
	prometheus.MustRegister(OplogPresentRecords)
	prometheus.MustRegister(QueryBatchesStreamedTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryRecordsReturned)
	prometheus.MustRegister(IngestEventsTotal)
	prometheus.MustRegister(IngestChannelDepth)
	prometheus.MustRegister(EvictionRecordsEvictedTotal)
	prometheus.MustRegister(KVTxnDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
