package metadata

import "errors"

var (
	// ErrAlreadyPresent is returned by Insert when key already has an
	// entry of any kind (live or tombstoned).
	ErrAlreadyPresent = errors.New("metadata: key already present")

	// ErrCASMismatch is returned by InsertOverwrite when the stored
	// entry does not byte-equal the expected old value.
	ErrCASMismatch = errors.New("metadata: compare-and-swap mismatch")

	// ErrWrongKeyKind is returned when a Key of the wrong Kind is
	// passed to a Metadata instantiation (e.g. a HashKey passed to
	// PrimaryKeyMetadata).
	ErrWrongKeyKind = errors.New("metadata: wrong key kind for this index")
)
