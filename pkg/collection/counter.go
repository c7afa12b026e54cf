package collection

import "github.com/getdozer/dozer-cache/pkg/kv"

// Counter is a single monotonic uint64 stored under a fixed key, the shape
// backing OperationLog.nextOperationID (spec.md §4.5). It corresponds to
// the Rust AtomicU64Cell the reference operation log persists its next-id
// counter in, except here the increment happens inside the caller's
// writer transaction rather than with a CPU atomic, since the whole
// environment only ever has one writer at a time (§5).
type Counter struct {
	db  kv.Db
	key []byte
}

// NewCounter returns a Counter handle over db, stored under key. It does
// not itself touch storage; call Get/Set/FetchAdd within a transaction.
func NewCounter(db kv.Db, key []byte) *Counter {
	return &Counter{db: db, key: key}
}

// Get returns the counter's current value, or 0 if it has never been set.
func (c *Counter) Get(txn *kv.Txn) (uint64, error) {
	v, err := txn.Get(c.db, c.key)
	if err != nil || v == nil {
		return 0, err
	}
	return kv.DecodeUint64Key(v), nil
}

// Set overwrites the counter's stored value.
func (c *Counter) Set(txn *kv.Txn, v uint64) error {
	return txn.Put(c.db, c.key, kv.EncodeUint64Key(v), kv.PutDefault)
}

// FetchAdd reads the counter, stores current+delta, and returns the
// pre-increment value — the same contract as the Rust
// next_operation_id.fetch_add(1, Ordering::SeqCst) call sites in
// operation_log/mod.rs use to mint a fresh operation id.
func (c *Counter) FetchAdd(txn *kv.Txn, delta uint64) (uint64, error) {
	cur, err := c.Get(txn)
	if err != nil {
		return 0, err
	}
	if err := c.Set(txn, cur+delta); err != nil {
		return 0, err
	}
	return cur, nil
}
