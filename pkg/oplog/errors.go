package oplog

import (
	"errors"
	"fmt"
)

// Reported errors (spec.md §4.5.5, §7): these leave the transaction in a
// valid state and the caller may retry after re-reading current metadata.
var (
	// ErrKeyAlreadyPresent is returned by InsertNew when the key
	// already has a live entry.
	ErrKeyAlreadyPresent = errors.New("oplog: key already present")

	// ErrVersionMismatch is returned by InsertDeleted/Update/Delete
	// when the caller's prior metadata no longer matches what is
	// stored — someone else updated the key since the caller last
	// read it.
	ErrVersionMismatch = errors.New("oplog: version mismatch")

	// ErrOperationNotFound names an operation id that was never
	// written. No function in this package returns it: GetOperation and
	// ContainsOperationID report a missing id through their bool result.
	ErrOperationNotFound = errors.New("oplog: operation id not found")
)

// invariantViolation panics with a message naming the offending
// sub-database and identifier, matching the Rust reference
// implementation's panic!("Inconsistent state: ...") call sites exactly
// (spec.md §4.5.5: these are fatal, never downgraded to returned
// errors).
func invariantViolation(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}
