// Package eviction implements spec.md §4.6: a secondary index ordered by
// wall-clock eviction time that schedules deletes of log entries whose
// lifetime has expired. InsertLifetime/Evict/Clean mirror the contract
// verbatim; eviction itself is issued as an ordinary pkg/oplog.Delete so
// it produces the same compensating-Delete operation and tombstone a
// client-initiated delete would (spec.md §3.3).
//
// Grounded on spec.md §4.6 directly (no single teacher file covers a
// lifetime index); the ordered-composite-key-over-one-sub-database shape
// mirrors pkg/metadata.HashMetadata's own composite-key emulation of a
// sorted secondary index.
package eviction
