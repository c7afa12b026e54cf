package codec

import (
	"encoding/binary"
	"time"

	"github.com/getdozer/dozer-cache/pkg/record"
)

// EncodeRecord writes a length-prefixed sequence of fields followed by an
// optional lifetime block (spec.md §4.3): a 4-byte big-endian field
// count, each field's EncodeField output concatenated in order, then a
// one-byte lifetime presence flag and, if set, reference/duration as
// big-endian nanosecond int64s — nanosecond resolution end-to-end per
// spec.md §9's resolved open question.
func EncodeRecord(r record.Record) []byte {
	var fieldsBuf [][]byte
	total := lengthPrefixLen
	for _, f := range r.Values {
		b := EncodeField(f)
		fieldsBuf = append(fieldsBuf, b)
		total += len(b)
	}
	total += 1
	if r.Lifetime != nil {
		total += 16
	}

	out := make([]byte, 0, total)
	countBuf := make([]byte, lengthPrefixLen)
	binary.BigEndian.PutUint32(countBuf, uint32(len(r.Values)))
	out = append(out, countBuf...)
	for _, b := range fieldsBuf {
		out = append(out, b...)
	}

	if r.Lifetime == nil {
		return append(out, 0)
	}
	out = append(out, 1)
	refBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(refBuf, uint64(r.Lifetime.Reference.UnixNano()))
	durBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(durBuf, uint64(r.Lifetime.Duration.Nanoseconds()))
	out = append(out, refBuf...)
	out = append(out, durBuf...)
	return out
}

// DecodeRecord is the inverse of EncodeRecord.
func DecodeRecord(data []byte) (record.Record, error) {
	if len(data) < lengthPrefixLen+1 {
		return record.Record{}, ErrBadDataLength
	}
	count := binary.BigEndian.Uint32(data[:lengthPrefixLen])
	pos := lengthPrefixLen

	values := make([]record.Field, 0, count)
	for i := uint32(0); i < count; i++ {
		f, consumed, err := DecodeField(data[pos:])
		if err != nil {
			return record.Record{}, err
		}
		values = append(values, f)
		pos += consumed
	}

	if pos >= len(data) {
		return record.Record{}, ErrBadDataLength
	}
	hasLifetime := data[pos]
	pos++
	r := record.Record{Values: values}
	if hasLifetime == 0 {
		return r, nil
	}
	if pos+16 > len(data) {
		return record.Record{}, ErrBadDataLength
	}
	refNanos := binary.BigEndian.Uint64(data[pos : pos+8])
	durNanos := binary.BigEndian.Uint64(data[pos+8 : pos+16])
	r.Lifetime = &record.Lifetime{
		Reference: time.Unix(0, int64(refNanos)).UTC(),
		Duration:  time.Duration(int64(durNanos)),
	}
	return r, nil
}

// PrimaryKeyBytes encodes each primary-index field in order and
// concatenates the result, the byte string PrimaryKeyMetadata keys on
// (spec.md §4.3).
func PrimaryKeyBytes(schema record.Schema, r record.Record) []byte {
	var out []byte
	for _, idx := range schema.PrimaryIndex {
		out = append(out, EncodeField(r.Values[idx])...)
	}
	return out
}

// NonPrimaryProjectionBytes encodes the fields outside the primary key,
// in schema order — the projection HashMetadata's record-hash covers
// (spec.md §4.3).
func NonPrimaryProjectionBytes(schema record.Schema, r record.Record) []byte {
	var out []byte
	for _, idx := range schema.NonPrimaryIndices() {
		out = append(out, EncodeField(r.Values[idx])...)
	}
	return out
}
