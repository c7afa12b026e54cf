// Package kv is the materialized-cache engine's storage foundation: a
// transactional, ordered key/value environment with copy-on-write pages, a
// single writer, many concurrent readers, and cursor iteration over named
// sub-databases.
//
// It wraps go.etcd.io/bbolt, which already gives the engine the properties
// spec.md asks of the KV environment (§4.1) — a single memory-mapped file,
// MVCC snapshots for readers, one writer transaction at a time — without the
// cgo/FFI surface the reference implementation paid for talking to LMDB
// directly (see original_source/dozer-core/src/storage/lmdb_sys.rs, which
// this package's Env/Txn/Cursor/Options split is modeled on).
//
// bbolt has no equivalent of MDB_DUPSORT, so sub-databases that need
// duplicate-sorted values (hash_metadata, see pkg/metadata) encode the
// disambiguating suffix into the stored key instead of relying on a second
// native key dimension; every other sub-database (primary_key_metadata,
// present_operation_ids, next_operation_id, operation_id_to_operation) is a
// plain bbolt bucket.
package kv
