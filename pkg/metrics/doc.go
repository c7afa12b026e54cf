/*
Package metrics defines and registers every Prometheus metric the cache
engine exposes, and exposes them over HTTP for scraping.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Types                   │          │
	│  │                                              │          │
	│  │  Gauge: Instant values (present-record count)│          │
	│  │  Counter: Monotonic increases (ops appended)│          │
	│  │  Histogram: Distributions (query/txn latency)│          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Oplog: operations appended, next op-id,    │          │
	│  │         present-record count                │          │
	│  │  Query: batches streamed, records returned, │          │
	│  │         stream duration                     │          │
	│  │  Ingest: connector events by kind, channel  │          │
	│  │          backpressure depth                 │          │
	│  │  Eviction: records evicted once expired     │          │
	│  │  KV: transaction duration by mode           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Format: Prometheus text exposition       │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

Every metric is labeled by endpoint name where it makes sense, since one
process can host several endpoints and each one's health is usually
inspected independently.

# Usage

	import (
		"net/http"

		"github.com/getdozer/dozer-cache/pkg/metrics"
	)

	func main() {
		metrics.OplogOperationsTotal.WithLabelValues("insert").Inc()

		timer := metrics.NewTimer()
		runQuery()
		timer.ObserveDurationVec(metrics.QueryDuration, "users")

		http.Handle("/metrics", metrics.Handler())
		http.ListenAndServe(":9090", nil)
	}

# Integration Points

This package integrates with:

  - pkg/oplog: Collector samples its next op-id and present-record count
  - pkg/query: records batches streamed, records returned, query duration
  - pkg/ingest: records connector events, channel backpressure depth and
    operations appended to the log
  - pkg/cache: records how many records each EvictDue sweep evicted
  - pkg/kv: KVTxnDuration is registered, but nothing in the module
    observes it
  - Prometheus: scrapes /metrics

# Design Patterns

Package Init Registration:
  - All metrics registered in init()
  - MustRegister panics on duplicate registration
  - Ensures metrics are available before main()

Label Discipline:
  - Use WithLabelValues for cardinality-bounded labels (endpoint name,
    operation kind, txn mode)
  - Avoid high-cardinality labels (record ids, timestamps)
*/
package metrics
