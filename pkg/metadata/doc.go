// Package metadata implements spec.md §4.4: the Metadata interface and its
// two instantiations, PrimaryKeyMetadata (keyed on primary-key bytes) and
// HashMetadata (keyed on a 64-bit record hash, dup-sorted by record bytes
// to tolerate collisions).
//
// Grounded on original_source/dozer-cache/.../operation_log/mod.rs's
// MetadataKey enum and get_present_metadata/get_deleted_metadata dispatch,
// translated onto pkg/collection.Map built over pkg/kv.
package metadata
