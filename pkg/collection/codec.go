package collection

import (
	"fmt"

	"github.com/getdozer/dozer-cache/pkg/kv"
)

// Codec converts a typed value to and from the bytes a kv.Db stores. Every
// collection in this package is parameterized by one or two Codecs rather
// than assuming a single serialization scheme, since oplog's
// operation-id keys, metadata's composite hash keys, and codec's record
// bytes all need different wire shapes.
type Codec[T any] interface {
	Encode(v T) []byte
	Decode(b []byte) (T, error)
}

// Uint64Codec encodes keys big-endian so that byte-wise comparison (what
// every kv.Cursor does) agrees with numeric order. Used for operation ids
// and lifetime timestamps.
type Uint64Codec struct{}

func (Uint64Codec) Encode(v uint64) []byte { return kv.EncodeUint64Key(v) }

func (Uint64Codec) Decode(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("collection: uint64 key must be 8 bytes, got %d", len(b))
	}
	return kv.DecodeUint64Key(b), nil
}

// BytesCodec is the identity codec, for values already stored as their own
// wire bytes (e.g. encoded records, encoded metadata).
type BytesCodec struct{}

func (BytesCodec) Encode(v []byte) []byte { return v }

func (BytesCodec) Decode(b []byte) ([]byte, error) {
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
