package codec

import "errors"

// Errors mirror spec.md §4.3/§7's codec failure kinds.
var (
	ErrEmptyInput            = errors.New("codec: empty input")
	ErrBadDataLength         = errors.New("codec: malformed data length")
	ErrUnrecognisedFieldType = errors.New("codec: unrecognised field type tag")
	ErrInvalidUtf8           = errors.New("codec: invalid utf-8")
	ErrAmbiguousTimestamp    = errors.New("codec: ambiguous timestamp")
	ErrInvalidDate           = errors.New("codec: invalid date")
	ErrSchemaMismatch        = errors.New("codec: schema mismatch")
)
