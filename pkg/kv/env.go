package kv

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"
)

// Options mirrors the Rust EnvOptions in
// original_source/dozer-core/src/storage/lmdb_sys.rs. Not every option maps
// onto a real bbolt knob (bbolt has no map_size ceiling or reader-count
// ceiling); the ones that don't are kept for interface parity with the
// reference environment and recorded as no-ops below.
type Options struct {
	// MapSize is advisory under bbolt, which grows its mmap on demand;
	// kept so callers migrating a map_size from the reference
	// environment have somewhere to put it. No-op.
	MapSize int64

	// MaxSubDBs is advisory; bbolt buckets are not pre-declared. No-op.
	MaxSubDBs int

	// MaxReaders is advisory; bbolt does not cap concurrent readers. No-op.
	MaxReaders int

	// NoSync disables fsync on every commit, trading durability for
	// throughput, same trade-off as MDB_NOSYNC.
	NoSync bool

	// NoMetaSync is folded into NoSync under bbolt, which only exposes a
	// single NoSync knob.
	NoMetaSync bool

	// NoSubdir is unused: bbolt always takes a single file path. No-op.
	NoSubdir bool

	// WritableMemMap is unused: bbolt's mmap is always read-only from the
	// process's point of view, writes go through the write-ahead commit
	// path regardless. No-op.
	WritableMemMap bool

	// NoLocking is not passed to bbolt, which always takes its
	// flock-based single-process guard on Open. No-op.
	NoLocking bool

	// NoThreadLocal is unused: Go has no thread-local transaction concept
	// to disable. No-op.
	NoThreadLocal bool

	// OpenTimeout bounds how long Open waits to acquire the environment's
	// file lock before giving up with ErrLocked.
	OpenTimeout time.Duration

	// CreateIfMissing creates the backing file and its parent directory
	// when the path does not already exist.
	CreateIfMissing bool

	// FileMode is the permission bits used when CreateIfMissing creates
	// the backing file.
	FileMode os.FileMode
}

// DefaultOptions returns the options an endpoint opens with absent explicit
// EndpointConfig overrides (SPEC_FULL.md §10.3).
func DefaultOptions() Options {
	return Options{
		OpenTimeout:     time.Second,
		CreateIfMissing: true,
		FileMode:        0o600,
	}
}

// Env is a single materialized-cache environment: one backing file, one
// writer transaction at a time, arbitrarily many concurrent readers. It
// corresponds to the Rust Environment in lmdb_sys.rs.
type Env struct {
	db   *bolt.DB
	path string
	opts Options
	log  zerolog.Logger
}

// Open opens (creating if requested) the environment backing file at path.
func Open(path string, opts Options, logger zerolog.Logger) (*Env, error) {
	if !opts.CreateIfMissing {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, ErrPathMissing
			}
			return nil, wrapf(err, "kv: stat environment path %q", path)
		}
	}

	mode := opts.FileMode
	if mode == 0 {
		mode = 0o600
	}

	db, err := bolt.Open(path, mode, &bolt.Options{
		Timeout:  opts.OpenTimeout,
		ReadOnly: false,
		NoSync:   opts.NoSync || opts.NoMetaSync,
		NoGrowSync: false,
	})
	if err != nil {
		return nil, translateOpenError(err)
	}

	return &Env{
		db:   db,
		path: path,
		opts: opts,
		log:  logger.With().Str("component", "kv").Str("path", path).Logger(),
	}, nil
}

func translateOpenError(err error) error {
	switch {
	case err == nil:
		return nil
	case os.IsNotExist(err):
		return ErrPathMissing
	case os.IsPermission(err):
		return ErrPermissionDenied
	case err == bolt.ErrTimeout:
		return ErrLocked
	case err == bolt.ErrInvalid:
		return ErrVersionMismatch
	case err == bolt.ErrVersionMismatch:
		return ErrVersionMismatch
	case err == bolt.ErrChecksum:
		return ErrCorrupt
	default:
		return wrapf(ErrUnknown, "kv: open environment")
	}
}

// Path returns the backing file path the environment was opened with.
func (e *Env) Path() string { return e.path }

// Close releases the environment's file lock and memory mapping. A closed
// Env must not be used again.
func (e *Env) Close() error {
	if err := e.db.Close(); err != nil {
		return wrapf(err, "kv: close environment %q", e.path)
	}
	return nil
}

// Update runs fn inside a single read-write transaction. The transaction
// commits if fn returns nil and rolls back otherwise, matching bbolt's
// own db.Update(func(tx *bolt.Tx) error {...}) idiom.
func (e *Env) Update(fn func(txn *Txn) error) error {
	err := e.db.Update(func(btx *bolt.Tx) error {
		return fn(&Txn{bolt: btx, env: e, writable: true})
	})
	return translateTxnError(err)
}

// View runs fn inside a read-only transaction against a consistent
// snapshot of the environment.
func (e *Env) View(fn func(txn *Txn) error) error {
	err := e.db.View(func(btx *bolt.Tx) error {
		return fn(&Txn{bolt: btx, env: e, writable: false})
	})
	return translateTxnError(err)
}

// Begin starts a transaction explicitly, for call sites that need to hold
// a transaction open across multiple operations (e.g. query adapter
// streaming). Callers must call Commit or Abort exactly once.
func (e *Env) Begin(writable bool) (*Txn, error) {
	btx, err := e.db.Begin(writable)
	if err != nil {
		return nil, translateTxnError(err)
	}
	return &Txn{bolt: btx, env: e, writable: writable}, nil
}

func translateTxnError(err error) error {
	switch {
	case err == nil:
		return nil
	case err == bolt.ErrDatabaseNotOpen:
		return ErrBadTxn
	case err == bolt.ErrTxClosed:
		return ErrBadTxn
	case err == bolt.ErrTxNotWritable:
		return ErrReadOnlyViolation
	case err == bolt.ErrDatabaseReadOnly:
		return ErrReadOnlyViolation
	case err == ErrDBNotFound, err == ErrKeyExists, err == ErrInvalidArg:
		return err
	default:
		return fmt.Errorf("kv: transaction failed: %w", err)
	}
}
