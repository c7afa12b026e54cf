// Package cache wires one endpoint's KV environment, operation log,
// metadata indexes, ingestion adapter, query adapter and eviction
// manager together into a single Endpoint, and loads the YAML config
// that describes an endpoint (SPEC_FULL.md §10.3).
//
// Endpoint is the type everything else in this module — the CLI, a
// future server — drives: it is the concrete shape of spec.md §6.3's
// API-facing interface (get/query/count/subscribe/schema), plus the
// operational entry points (RunIngestion, EvictDue) that keep it fed
// and pruned.
package cache
