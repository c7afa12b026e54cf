// Package codec implements the canonical binary wire encoding spec.md
// §4.3/§6.1 defines for Field, Record, RecordMeta, RecordMetadata, and
// Operation: one tag byte followed by a fixed or length-prefixed body,
// big-endian throughout. It also derives primary-key bytes and the
// xxHash64 record-hash every metadata index keys on.
//
// Grounded on original_source/dozer-types/src/types/field.rs for the
// exact tag values and per-variant body layout, translated from Rust's
// Cow<[u8]>-returning encode_data()/decode_borrow() pair into a Go
// Encode/Decode pair that threads a byte-consumed count through sequential
// parsing, since a Record is a concatenation of Fields with no separate
// length table.
package codec
