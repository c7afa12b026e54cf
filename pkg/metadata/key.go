package metadata

// KeyKind distinguishes the two ways a record can be addressed in a
// metadata index (spec.md §3.1 MetadataKey entity).
type KeyKind uint8

const (
	KeyKindPrimaryKey KeyKind = iota
	KeyKindHash
)

// Key is the tagged-union address passed to Metadata methods: either raw
// primary-key bytes, or a record-hash paired with the full encoded record
// bytes HashMetadata uses to disambiguate collisions within a hash
// bucket.
type Key struct {
	Kind            KeyKind
	PrimaryKeyBytes []byte
	Hash            uint64
	RecordBytes     []byte
}

// PrimaryKey builds a Key addressing PrimaryKeyMetadata.
func PrimaryKey(b []byte) Key {
	return Key{Kind: KeyKindPrimaryKey, PrimaryKeyBytes: b}
}

// HashKey builds a Key addressing HashMetadata: hash is the 64-bit
// record-hash bucket, recordBytes the full encoded record used to
// disambiguate collisions within that bucket.
func HashKey(hash uint64, recordBytes []byte) Key {
	return Key{Kind: KeyKindHash, Hash: hash, RecordBytes: recordBytes}
}
