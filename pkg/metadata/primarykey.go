package metadata

import (
	"github.com/getdozer/dozer-cache/pkg/collection"
	"github.com/getdozer/dozer-cache/pkg/kv"
	"github.com/getdozer/dozer-cache/pkg/record"
)

// PrimaryKeyMetadata keys directly on the caller-supplied primary-key
// bytes (spec.md §4.4): one entry per key, no collision handling needed
// since primary keys are unique by schema construction.
type PrimaryKeyMetadata struct {
	entries   *collection.Map[[]byte, record.RecordMetadata]
	dataCount *collection.Counter
}

// NewPrimaryKeyMetadata wires a PrimaryKeyMetadata over entriesDB (the
// persisted primary_key_metadata sub-database) and countDB, a small
// sub-database holding the count-of-distinct-identities counter.
func NewPrimaryKeyMetadata(entriesDB, countDB kv.Db) *PrimaryKeyMetadata {
	return &PrimaryKeyMetadata{
		entries:   collection.NewMap[[]byte, record.RecordMetadata](entriesDB, collection.BytesCodec{}, recordMetadataCodec{}),
		dataCount: collection.NewCounter(countDB, []byte("count_data")),
	}
}

func (m *PrimaryKeyMetadata) mapKey(key Key) ([]byte, error) {
	if key.Kind != KeyKindPrimaryKey {
		return nil, ErrWrongKeyKind
	}
	return key.PrimaryKeyBytes, nil
}

// GetPresent implements Metadata.
func (m *PrimaryKeyMetadata) GetPresent(txn *kv.Txn, key Key) (record.RecordMetadata, bool, error) {
	k, err := m.mapKey(key)
	if err != nil {
		return record.RecordMetadata{}, false, err
	}
	v, ok, err := m.entries.Get(txn, k)
	if err != nil || !ok || !v.IsLive() {
		return record.RecordMetadata{}, false, err
	}
	return v, true, nil
}

// GetDeleted implements Metadata.
func (m *PrimaryKeyMetadata) GetDeleted(txn *kv.Txn, key Key) (record.RecordMetadata, bool, error) {
	k, err := m.mapKey(key)
	if err != nil {
		return record.RecordMetadata{}, false, err
	}
	v, ok, err := m.entries.Get(txn, k)
	if err != nil || !ok || v.IsLive() {
		return record.RecordMetadata{}, false, err
	}
	return v, true, nil
}

// Insert implements Metadata.
func (m *PrimaryKeyMetadata) Insert(txn *kv.Txn, key Key, meta record.RecordMetadata) error {
	k, err := m.mapKey(key)
	if err != nil {
		return err
	}
	if err := m.entries.InsertNoOverwrite(txn, k, meta); err != nil {
		return ErrAlreadyPresent
	}
	if _, err := m.dataCount.FetchAdd(txn, 1); err != nil {
		return err
	}
	return nil
}

// InsertOverwrite implements Metadata.
func (m *PrimaryKeyMetadata) InsertOverwrite(txn *kv.Txn, key Key, old, newVal record.RecordMetadata) error {
	k, err := m.mapKey(key)
	if err != nil {
		return err
	}
	current, ok, err := m.entries.Get(txn, k)
	if err != nil {
		return err
	}
	if !ok || !sameEncoding(current, old) {
		return ErrCASMismatch
	}
	return m.entries.Insert(txn, k, newVal)
}

// CountData implements Metadata.
func (m *PrimaryKeyMetadata) CountData(txn *kv.Txn) (uint64, error) {
	return m.dataCount.Get(txn)
}

// PrimaryKeyCursor returns a cursor over every entry, live and
// tombstoned (callers check RecordMetadata.IsLive), in primary-key
// byte order, for the query adapter's predicate push-down (spec.md
// §4.7): a `pk_col op literal` sub-expression seeks to the relevant
// bound and scans forward from there instead of a full table scan.
func (m *PrimaryKeyMetadata) PrimaryKeyCursor(txn *kv.Txn) (*kv.Cursor, error) {
	return txn.Cursor(m.entries.DB())
}

// DecodeEntry decodes a value read off a PrimaryKeyCursor.
func (m *PrimaryKeyMetadata) DecodeEntry(val []byte) (record.RecordMetadata, error) {
	return recordMetadataCodec{}.Decode(val)
}
