package collection

import "github.com/getdozer/dozer-cache/pkg/kv"

// Set is a collection of unique items with no associated value, the shape
// backing OperationLog.presentOperationIDs (spec.md §4.5). Each member is
// stored as its own key with an empty value; there is no native dup-sort
// involved, one operation id is one key.
type Set[T any] struct {
	db    kv.Db
	codec Codec[T]
}

// NewSet returns a Set handle over db.
func NewSet[T any](db kv.Db, codec Codec[T]) *Set[T] {
	return &Set[T]{db: db, codec: codec}
}

// Insert adds item to the set. ErrKeyExists is returned if item is
// already a member — callers that treat re-insertion as an invariant
// violation (present_operation_ids must never already contain a
// freshly-minted operation id) turn this into a panic at the call site,
// matching the Rust assert!/panic! in insert_overwrite.
func (s *Set[T]) Insert(txn *kv.Txn, item T) error {
	return txn.Put(s.db, s.codec.Encode(item), nil, kv.PutNoOverwrite)
}

// Contains reports whether item is a member of the set.
func (s *Set[T]) Contains(txn *kv.Txn, item T) (bool, error) {
	v, err := txn.Get(s.db, s.codec.Encode(item))
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// Remove deletes item from the set. Removing an absent item is a no-op;
// callers that must know whether the item was actually present check
// Contains first, as OperationLog.deleteWithoutUpdatingMetadata does.
func (s *Set[T]) Remove(txn *kv.Txn, item T) error {
	return txn.Delete(s.db, s.codec.Encode(item))
}

// Count returns the number of members currently in the set.
func (s *Set[T]) Count(txn *kv.Txn) (int, error) {
	return txn.Stats(s.db)
}

// Iter returns a cursor-backed iterator over every member, in key order.
func (s *Set[T]) Iter(txn *kv.Txn) (*KeyIterator[T], error) {
	cur, err := txn.Cursor(s.db)
	if err != nil {
		return nil, err
	}
	return &KeyIterator[T]{cur: cur, codec: s.codec}, nil
}

// KeyIterator walks the keys of a Set (or the keys of a Map, via
// Map.Keys), decoding each with the collection's key codec.
type KeyIterator[T any] struct {
	cur     *kv.Cursor
	codec   Codec[T]
	started bool
}

// Next advances the iterator and reports ok=false once exhausted.
func (it *KeyIterator[T]) Next() (T, bool, error) {
	var zero T
	var key []byte
	var ok bool
	if !it.started {
		it.started = true
		key, _, ok = it.cur.First()
	} else {
		key, _, ok = it.cur.Next()
	}
	if !ok {
		return zero, false, nil
	}
	v, err := it.codec.Decode(key)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}
