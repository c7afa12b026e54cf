package metadata

import (
	"bytes"

	"github.com/getdozer/dozer-cache/pkg/codec"
	"github.com/getdozer/dozer-cache/pkg/kv"
	"github.com/getdozer/dozer-cache/pkg/record"
)

// Metadata is the common interface both PrimaryKeyMetadata and
// HashMetadata satisfy (spec.md §4.4). OperationLog talks to whichever
// instantiation the caller selected via the Key it was handed, never to
// the concrete type.
type Metadata interface {
	// GetPresent returns the entry for key if, and only if, it has a
	// live insert (InsertOperationID != nil).
	GetPresent(txn *kv.Txn, key Key) (record.RecordMetadata, bool, error)

	// GetDeleted returns the entry for key if, and only if, it is a
	// tombstone (InsertOperationID == nil).
	GetDeleted(txn *kv.Txn, key Key) (record.RecordMetadata, bool, error)

	// Insert creates a brand new entry. Fails with ErrAlreadyPresent if
	// any entry (live or tombstoned) already exists for key.
	Insert(txn *kv.Txn, key Key, meta record.RecordMetadata) error

	// InsertOverwrite performs a compare-and-swap: the stored entry
	// must byte-equal old, or ErrCASMismatch is returned. On success
	// the entry is replaced with new.
	InsertOverwrite(txn *kv.Txn, key Key, old, new record.RecordMetadata) error

	// CountData returns the number of distinct record identities ever
	// stored, used to mint a fresh record id for a brand new key.
	CountData(txn *kv.Txn) (uint64, error)
}

// sameEncoding reports whether two RecordMetadata values are byte-equal
// once encoded, the CAS comparison spec.md §4.4 specifies.
func sameEncoding(a, b record.RecordMetadata) bool {
	return bytes.Equal(codec.EncodeRecordMetadata(a), codec.EncodeRecordMetadata(b))
}
