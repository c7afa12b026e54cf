package kv

import (
	"errors"
	"fmt"
)

// Error taxonomy mirrors the errno-to-error mapping in
// original_source/dozer-core/src/storage/lmdb_sys.rs, translated onto the
// smaller error surface bbolt actually returns. "Not found" is not an error
// here: Get returns (nil, nil) for a missing key, matching the Rust Option<T>
// return of the same call.
var (
	// ErrMapFull corresponds to MDB_MAP_FULL: the environment's map_size is
	// exhausted and no more pages can be allocated.
	ErrMapFull = errors.New("kv: map size exceeded")

	// ErrTxnFull corresponds to MDB_TXN_FULL: a single transaction produced
	// more dirty pages than can be tracked.
	ErrTxnFull = errors.New("kv: transaction too large")

	// ErrReadOnlyViolation is returned when a write is attempted against a
	// read-only transaction or a read-only environment.
	ErrReadOnlyViolation = errors.New("kv: write attempted on read-only transaction")

	// ErrInvalidArg corresponds to MDB_INVALID / EINVAL: a malformed
	// option, name, or key/value was passed.
	ErrInvalidArg = errors.New("kv: invalid argument")

	// ErrIO corresponds to low-level I/O failures surfaced by the backing
	// file.
	ErrIO = errors.New("kv: I/O error")

	// ErrOutOfMemory corresponds to ENOMEM during environment or
	// transaction setup.
	ErrOutOfMemory = errors.New("kv: out of memory")

	// ErrBadTxn corresponds to MDB_BAD_TXN: the transaction is no longer
	// usable (already committed or aborted).
	ErrBadTxn = errors.New("kv: transaction is no longer valid")

	// ErrCorrupt corresponds to MDB_CORRUPTED: the environment's on-disk
	// structure failed a consistency check.
	ErrCorrupt = errors.New("kv: environment is corrupted")

	// ErrVersionMismatch corresponds to MDB_VERSION_MISMATCH: the on-disk
	// file was written by an incompatible version of the storage engine.
	ErrVersionMismatch = errors.New("kv: version mismatch")

	// ErrPathMissing corresponds to ENOENT when opening the environment
	// without CreateIfMissing set.
	ErrPathMissing = errors.New("kv: environment path does not exist")

	// ErrPermissionDenied corresponds to EACCES.
	ErrPermissionDenied = errors.New("kv: permission denied")

	// ErrLocked corresponds to EAGAIN: another process already holds the
	// writer lock on this environment.
	ErrLocked = errors.New("kv: environment is locked by another writer")

	// ErrDBNotFound is returned by Txn.OpenDB when the named sub-database
	// does not exist and Create was not requested.
	ErrDBNotFound = errors.New("kv: sub-database not found")

	// ErrKeyExists is returned by Put when NoOverwrite is set and the key
	// is already present.
	ErrKeyExists = errors.New("kv: key already exists")

	// ErrUnknown wraps any bbolt error this package does not otherwise
	// recognize.
	ErrUnknown = errors.New("kv: unknown storage error")
)

func wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
