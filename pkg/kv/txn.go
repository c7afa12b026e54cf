package kv

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"
)

// DBOptions mirrors the Rust DatabaseOptions in lmdb_sys.rs. DupSort has no
// native bbolt equivalent; sub-databases opened with DupSort set are
// expected to encode their own disambiguating key suffix (see
// pkg/metadata.HashMetadata) — this package only records the flag so
// Cursor can expose dup-aware iteration helpers.
type DBOptions struct {
	// Create creates the named sub-database if it does not already
	// exist. Only valid on a writable transaction.
	Create bool

	// DupSort marks the sub-database as logically duplicate-key-sorted;
	// see the package doc comment for how this is emulated over bbolt.
	DupSort bool

	// IntegerKey marks keys in this sub-database as fixed-width integers
	// compared numerically rather than lexicographically. bbolt always
	// compares keys byte-wise, so callers relying on IntegerKey must
	// encode keys big-endian (EncodeUint64Key does this) so that
	// lexicographic and numeric order coincide.
	IntegerKey bool

	// DupFixed marks duplicate values as fixed-width. No-op under bbolt;
	// kept for interface parity with the reference database options.
	DupFixed bool
}

// Db is a handle to one named sub-database (bbolt bucket) within an
// environment. It is cheap to copy and carries no open resources of its
// own — all I/O happens through the Txn it is passed to.
type Db struct {
	name []byte
	opts DBOptions
}

// Name returns the sub-database's name.
func (d Db) Name() string { return string(d.name) }

// EncodeUint64Key big-endian encodes v so that byte-wise comparison (what
// bbolt does) agrees with numeric comparison. Every integer-keyed
// sub-database in this engine (operation ids, lifetime timestamps) must
// key through this helper rather than a native-endian encoding.
func EncodeUint64Key(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// DecodeUint64Key is the inverse of EncodeUint64Key.
func DecodeUint64Key(key []byte) uint64 {
	return binary.BigEndian.Uint64(key)
}

// Txn wraps a single bbolt transaction, read-only or read-write.
type Txn struct {
	bolt     *bolt.Tx
	env      *Env
	writable bool
}

// Writable reports whether this transaction may mutate the environment.
func (t *Txn) Writable() bool { return t.writable }

// OpenDB opens (and, if requested, creates) a named sub-database.
func (t *Txn) OpenDB(name string, opts DBOptions) (Db, error) {
	nameBytes := []byte(name)
	if opts.Create {
		if !t.writable {
			return Db{}, ErrReadOnlyViolation
		}
		if _, err := t.bolt.CreateBucketIfNotExists(nameBytes); err != nil {
			return Db{}, wrapf(err, "kv: create sub-database %q", name)
		}
		return Db{name: nameBytes, opts: opts}, nil
	}
	if b := t.bolt.Bucket(nameBytes); b == nil {
		return Db{}, ErrDBNotFound
	}
	return Db{name: nameBytes, opts: opts}, nil
}

func (t *Txn) bucket(db Db) (*bolt.Bucket, error) {
	b := t.bolt.Bucket(db.name)
	if b == nil {
		return nil, ErrDBNotFound
	}
	return b, nil
}

// PutFlags mirrors the Rust CursorPutOptions/PutOptions flag set in
// lmdb_sys.rs, as a bitmask so callers can combine them the same way.
type PutFlags uint8

const (
	// PutDefault overwrites any existing value for the key.
	PutDefault PutFlags = 0

	// PutNoOverwrite fails with ErrKeyExists if the key is already
	// present, corresponding to MDB_NOOVERWRITE.
	PutNoOverwrite PutFlags = 1 << iota
)

// Put stores val under key in db, honoring flags.
func (t *Txn) Put(db Db, key, val []byte, flags PutFlags) error {
	if !t.writable {
		return ErrReadOnlyViolation
	}
	b, err := t.bucket(db)
	if err != nil {
		return err
	}
	if flags&PutNoOverwrite != 0 && b.Get(key) != nil {
		return ErrKeyExists
	}
	if err := b.Put(key, val); err != nil {
		return wrapf(err, "kv: put into %q", db.Name())
	}
	return nil
}

// Get fetches the value stored under key in db. A missing key returns
// (nil, nil), matching the reference environment's Option<T> semantics —
// "not found" is not an error condition.
//
// The returned slice is only valid for the lifetime of the transaction;
// callers that need the bytes to outlive the transaction must copy them.
func (t *Txn) Get(db Db, key []byte) ([]byte, error) {
	b, err := t.bucket(db)
	if err != nil {
		return nil, err
	}
	return b.Get(key), nil
}

// GetCopy is Get followed by a defensive copy, for callers that retain the
// result beyond the enclosing transaction.
func (t *Txn) GetCopy(db Db, key []byte) ([]byte, error) {
	v, err := t.Get(db, key)
	if err != nil || v == nil {
		return nil, err
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Delete removes key from db. Deleting an absent key is a no-op, matching
// bbolt and LMDB's own MDB_NOTFOUND-is-not-fatal-on-delete convention at
// this layer; callers that must distinguish "deleted" from "was absent"
// check presence with Get first.
func (t *Txn) Delete(db Db, key []byte) error {
	if !t.writable {
		return ErrReadOnlyViolation
	}
	b, err := t.bucket(db)
	if err != nil {
		return err
	}
	if err := b.Delete(key); err != nil {
		return wrapf(err, "kv: delete from %q", db.Name())
	}
	return nil
}

// Cursor opens a cursor over db for ordered iteration.
func (t *Txn) Cursor(db Db) (*Cursor, error) {
	b, err := t.bucket(db)
	if err != nil {
		return nil, err
	}
	return &Cursor{bolt: b.Cursor(), db: db}, nil
}

// Stats reports the number of key/value pairs currently stored in db.
func (t *Txn) Stats(db Db) (int, error) {
	b, err := t.bucket(db)
	if err != nil {
		return 0, err
	}
	return b.Stats().KeyN, nil
}

// Commit finalizes a transaction opened with Env.Begin. Not needed (and
// must not be called) for transactions run through Env.Update/Env.View,
// which commit/rollback automatically based on the callback's return
// value.
func (t *Txn) Commit() error {
	return translateTxnError(t.bolt.Commit())
}

// Abort discards a transaction opened with Env.Begin without applying any
// of its writes.
func (t *Txn) Abort() error {
	return translateTxnError(t.bolt.Rollback())
}
