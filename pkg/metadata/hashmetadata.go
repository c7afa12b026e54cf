package metadata

import (
	"github.com/getdozer/dozer-cache/pkg/collection"
	"github.com/getdozer/dozer-cache/pkg/kv"
	"github.com/getdozer/dozer-cache/pkg/record"
)

// HashMetadata keys on a 64-bit record hash with collisions tolerated: it
// stores a composite key of the 8-byte big-endian hash followed by the
// full encoded record bytes (spec.md §4.4), which is this package's
// emulation of LMDB's dup-sorted hash_metadata sub-database — see
// pkg/kv's doc comment for why bbolt needs the suffix folded into the key
// instead of a native second key dimension. Distinct records sharing a
// hash get distinct composite keys and coexist; lookups within a bucket
// are exact because the composite key already encodes the record bytes
// that disambiguate them.
type HashMetadata struct {
	entries   *collection.Map[[]byte, record.RecordMetadata]
	dataCount *collection.Counter
}

// NewHashMetadata wires a HashMetadata over entriesDB (the persisted
// hash_metadata sub-database) and countDB for the distinct-identity
// counter.
func NewHashMetadata(entriesDB, countDB kv.Db) *HashMetadata {
	return &HashMetadata{
		entries:   collection.NewMap[[]byte, record.RecordMetadata](entriesDB, collection.BytesCodec{}, recordMetadataCodec{}),
		dataCount: collection.NewCounter(countDB, []byte("count_data")),
	}
}

func compositeKey(key Key) ([]byte, error) {
	if key.Kind != KeyKindHash {
		return nil, ErrWrongKeyKind
	}
	out := make([]byte, 0, 8+len(key.RecordBytes))
	out = append(out, kv.EncodeUint64Key(key.Hash)...)
	out = append(out, key.RecordBytes...)
	return out, nil
}

// GetPresent implements Metadata.
func (m *HashMetadata) GetPresent(txn *kv.Txn, key Key) (record.RecordMetadata, bool, error) {
	k, err := compositeKey(key)
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
func (m *HashMetadata) GetDeleted(txn *kv.Txn, key Key) (record.RecordMetadata, bool, error) {
	k, err := compositeKey(key)
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
func (m *HashMetadata) Insert(txn *kv.Txn, key Key, meta record.RecordMetadata) error {
	k, err := compositeKey(key)
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
func (m *HashMetadata) InsertOverwrite(txn *kv.Txn, key Key, old, newVal record.RecordMetadata) error {
	k, err := compositeKey(key)
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
func (m *HashMetadata) CountData(txn *kv.Txn) (uint64, error) {
	return m.dataCount.Get(txn)
}

// ScanBucket iterates every entry whose hash matches, for callers (the
// query adapter's residual scan, debugging tools) that need every
// candidate in a hash bucket rather than one disambiguated lookup.
func (m *HashMetadata) ScanBucket(txn *kv.Txn, hash uint64) ([]record.RecordMetadata, error) {
	cur, err := txn.Cursor(m.dbHandle())
	if err != nil {
		return nil, err
	}
	prefix := kv.EncodeUint64Key(hash)
	var out []record.RecordMetadata
	_, v, ok := cur.SeekPrefix(prefix)
	for ; ok; _, v, ok = cur.NextWithPrefix(prefix) {
		meta, err := recordMetadataCodec{}.Decode(v)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, nil
}

func (m *HashMetadata) dbHandle() kv.Db {
	return m.entries.DB()
}
