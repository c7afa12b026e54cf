package kv

import (
	"bytes"

	bolt "go.etcd.io/bbolt"
)

// Cursor provides ordered iteration over a sub-database, corresponding to
// the Rust Cursor in lmdb_sys.rs. A Cursor is only valid for the lifetime
// of the Txn it was opened from.
type Cursor struct {
	bolt *bolt.Cursor
	db   Db
}

// First positions the cursor on the first key in the sub-database.
func (c *Cursor) First() (key, val []byte, ok bool) {
	k, v := c.bolt.First()
	return k, v, k != nil
}

// Last positions the cursor on the last key in the sub-database.
func (c *Cursor) Last() (key, val []byte, ok bool) {
	k, v := c.bolt.Last()
	return k, v, k != nil
}

// Next advances the cursor, corresponding to Rust Cursor::next.
func (c *Cursor) Next() (key, val []byte, ok bool) {
	k, v := c.bolt.Next()
	return k, v, k != nil
}

// Prev moves the cursor backward.
func (c *Cursor) Prev() (key, val []byte, ok bool) {
	k, v := c.bolt.Prev()
	return k, v, k != nil
}

// SeekExact positions the cursor exactly on key, reporting ok=false if no
// such key exists. Corresponds to Rust Cursor::seek.
func (c *Cursor) SeekExact(key []byte) (val []byte, ok bool) {
	k, v := c.bolt.Seek(key)
	if k == nil || !bytes.Equal(k, key) {
		return nil, false
	}
	return v, true
}

// SeekGE positions the cursor at the first key greater than or equal to
// key, corresponding to Rust Cursor::seek_gte.
func (c *Cursor) SeekGE(key []byte) (foundKey, val []byte, ok bool) {
	k, v := c.bolt.Seek(key)
	return k, v, k != nil
}

// SeekPrefix positions the cursor at the first key with the given prefix.
// Used by dup-sort emulation (pkg/metadata.HashMetadata) to enumerate all
// values stored under a composite-key prefix, corresponding to Rust
// Cursor::seek_partial.
func (c *Cursor) SeekPrefix(prefix []byte) (key, val []byte, ok bool) {
	k, v := c.bolt.Seek(prefix)
	if k == nil || !bytes.HasPrefix(k, prefix) {
		return nil, nil, false
	}
	return k, v, true
}

// NextWithPrefix advances the cursor and reports ok=false once the key no
// longer shares prefix, letting callers enumerate a composite-key bucket
// without running off into the next logical group.
func (c *Cursor) NextWithPrefix(prefix []byte) (key, val []byte, ok bool) {
	k, v := c.bolt.Next()
	if k == nil || !bytes.HasPrefix(k, prefix) {
		return nil, nil, false
	}
	return k, v, true
}

// Put writes key/val at the cursor's current position. Used by the
// append-only insert path to avoid re-walking the B+tree when writes are
// known to be monotonically increasing.
func (c *Cursor) Put(key, val []byte) error {
	if err := c.bolt.Bucket().Put(key, val); err != nil {
		return wrapf(err, "kv: cursor put into %q", c.db.Name())
	}
	return nil
}

// Delete removes the key/value pair at the cursor's current position.
func (c *Cursor) Delete() error {
	if err := c.bolt.Delete(); err != nil {
		return wrapf(err, "kv: cursor delete from %q", c.db.Name())
	}
	return nil
}
