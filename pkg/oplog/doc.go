// Package oplog is the hard center of the engine (spec.md §4.5):
// OperationLog owns the five sub-databases listed in spec.md §6.1 —
// primary_key_metadata, hash_metadata, present_operation_ids,
// next_operation_id, operation_id_to_operation — and enforces the state
// machine and invariants of spec.md §3.2/§4.5.4 through insert_new,
// insert_deleted, update, and delete.
//
// Every exported method keeps the call graph of
// original_source/dozer-cache/.../operation_log/mod.rs line for line: the
// same internal insertOverwriteFlow, debugCheckRecordExistence, and
// deleteWithoutUpdatingMetadata helpers, the same invariant checks, the
// same panic-on-corruption failure semantics (spec.md §4.5.5, §7) for
// anything that denotes storage corruption rather than a caller error.
package oplog
