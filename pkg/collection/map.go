package collection

import "github.com/getdozer/dozer-cache/pkg/kv"

// Map is a key/value collection, the shape backing
// OperationLog.operationIDToOperation and metadata's PrimaryKeyMetadata
// and RecordMetadata stores (spec.md §4.4, §4.5).
type Map[K, V any] struct {
	db       kv.Db
	keyCodec Codec[K]
	valCodec Codec[V]
}

// NewMap returns a Map handle over db.
func NewMap[K, V any](db kv.Db, keyCodec Codec[K], valCodec Codec[V]) *Map[K, V] {
	return &Map[K, V]{db: db, keyCodec: keyCodec, valCodec: valCodec}
}

// DB returns the underlying sub-database handle, for callers (e.g.
// pkg/metadata.HashMetadata.ScanBucket) that need a raw cursor alongside
// the typed Map operations.
func (m *Map[K, V]) DB() kv.Db { return m.db }

// Get returns the value stored under k, or ok=false if k is absent.
func (m *Map[K, V]) Get(txn *kv.Txn, k K) (v V, ok bool, err error) {
	b, err := txn.Get(m.db, m.keyCodec.Encode(k))
	if err != nil || b == nil {
		return v, false, err
	}
	v, err = m.valCodec.Decode(b)
	if err != nil {
		return v, false, err
	}
	return v, true, nil
}

// Insert stores v under k, overwriting any prior value.
func (m *Map[K, V]) Insert(txn *kv.Txn, k K, v V) error {
	return txn.Put(m.db, m.keyCodec.Encode(k), m.valCodec.Encode(v), kv.PutDefault)
}

// InsertNoOverwrite stores v under k and fails with kv.ErrKeyExists if k is
// already present — the Go shape of the Rust metadata.insert call that
// "must succeed" the first time a key is ever seen (insert_overwrite's
// old.is_none() branch in operation_log/mod.rs).
func (m *Map[K, V]) InsertNoOverwrite(txn *kv.Txn, k K, v V) error {
	return txn.Put(m.db, m.keyCodec.Encode(k), m.valCodec.Encode(v), kv.PutNoOverwrite)
}

// Delete removes k. Deleting an absent key is a no-op.
func (m *Map[K, V]) Delete(txn *kv.Txn, k K) error {
	return txn.Delete(m.db, m.keyCodec.Encode(k))
}

// Count returns the number of entries currently stored.
func (m *Map[K, V]) Count(txn *kv.Txn) (int, error) {
	return txn.Stats(m.db)
}

// Iter returns a cursor-backed iterator over every entry, in key order.
func (m *Map[K, V]) Iter(txn *kv.Txn) (*Iterator[K, V], error) {
	cur, err := txn.Cursor(m.db)
	if err != nil {
		return nil, err
	}
	return &Iterator[K, V]{cur: cur, keyCodec: m.keyCodec, valCodec: m.valCodec}, nil
}

// Keys returns a KeyIterator over just the keys, skipping value decode —
// used where the caller only needs membership (e.g. counting present ids).
func (m *Map[K, V]) Keys(txn *kv.Txn) (*KeyIterator[K], error) {
	cur, err := txn.Cursor(m.db)
	if err != nil {
		return nil, err
	}
	return &KeyIterator[K]{cur: cur, codec: m.keyCodec}, nil
}

// Iterator walks the key/value pairs of a Map in key order.
type Iterator[K, V any] struct {
	cur      *kv.Cursor
	keyCodec Codec[K]
	valCodec Codec[V]
	started  bool
}

// Next advances the iterator and reports ok=false once exhausted.
func (it *Iterator[K, V]) Next() (k K, v V, ok bool, err error) {
	var key, val []byte
	if !it.started {
		it.started = true
		key, val, ok = it.cur.First()
	} else {
		key, val, ok = it.cur.Next()
	}
	if !ok {
		return k, v, false, nil
	}
	k, err = it.keyCodec.Decode(key)
	if err != nil {
		return k, v, false, err
	}
	v, err = it.valCodec.Decode(val)
	if err != nil {
		return k, v, false, err
	}
	return k, v, true, nil
}
