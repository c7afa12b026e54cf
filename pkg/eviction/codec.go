package eviction

import (
	"encoding/binary"
	"fmt"

	"github.com/getdozer/dozer-cache/pkg/metadata"
	"github.com/getdozer/dozer-cache/pkg/record"
)

// entryCodec encodes Entry as: joinKey (4-byte length + bytes), primary
// key (4-byte length + bytes), metadata key (1-byte kind tag + variant
// body), record id (8 bytes BE), record version (4 bytes BE), insert
// operation id (8 bytes BE).
type entryCodec struct{}

func appendLengthPrefixed(out, b []byte) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	out = append(out, lenBuf[:]...)
	return append(out, b...)
}

func readLengthPrefixed(data []byte) (b, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("eviction: entry: truncated length prefix")
	}
	n := binary.BigEndian.Uint32(data[:4])
	data = data[4:]
	if uint32(len(data)) < n {
		return nil, nil, fmt.Errorf("eviction: entry: truncated field")
	}
	return data[:n], data[n:], nil
}

func (entryCodec) Encode(e Entry) []byte {
	out := make([]byte, 0, 64+len(e.JoinKey)+len(e.PrimaryKeyBytes))
	out = appendLengthPrefixed(out, []byte(e.JoinKey))
	out = appendLengthPrefixed(out, e.PrimaryKeyBytes)

	out = append(out, byte(e.MetaKey.Kind))
	if e.MetaKey.Kind == metadata.KeyKindHash {
		out = append(out, kv8(e.MetaKey.Hash)...)
		out = appendLengthPrefixed(out, e.MetaKey.RecordBytes)
	} else {
		out = appendLengthPrefixed(out, e.MetaKey.PrimaryKeyBytes)
	}

	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], e.Meta.ID)
	out = append(out, idBuf[:]...)

	var verBuf [4]byte
	binary.BigEndian.PutUint32(verBuf[:], e.Meta.Version)
	out = append(out, verBuf[:]...)

	binary.BigEndian.PutUint64(idBuf[:], e.InsertOperationID)
	out = append(out, idBuf[:]...)

	return out
}

func kv8(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func (entryCodec) Decode(data []byte) (Entry, error) {
	var e Entry

	jk, data, err := readLengthPrefixed(data)
	if err != nil {
		return e, err
	}
	e.JoinKey = string(jk)

	pk, data, err := readLengthPrefixed(data)
	if err != nil {
		return e, err
	}
	e.PrimaryKeyBytes = append([]byte(nil), pk...)

	if len(data) < 1 {
		return e, fmt.Errorf("eviction: entry: truncated metadata key kind")
	}
	kind := metadata.KeyKind(data[0])
	data = data[1:]
	if kind == metadata.KeyKindHash {
		if len(data) < 8 {
			return e, fmt.Errorf("eviction: entry: truncated metadata key hash")
		}
		hash := binary.BigEndian.Uint64(data[:8])
		data = data[8:]
		var recBytes []byte
		recBytes, data, err = readLengthPrefixed(data)
		if err != nil {
			return e, err
		}
		e.MetaKey = metadata.HashKey(hash, append([]byte(nil), recBytes...))
	} else {
		var pkBytes []byte
		pkBytes, data, err = readLengthPrefixed(data)
		if err != nil {
			return e, err
		}
		e.MetaKey = metadata.PrimaryKey(append([]byte(nil), pkBytes...))
	}

	if len(data) < 20 {
		return e, fmt.Errorf("eviction: entry: truncated tail")
	}
	e.Meta = record.RecordMeta{
		ID:      binary.BigEndian.Uint64(data[0:8]),
		Version: binary.BigEndian.Uint32(data[8:12]),
	}
	e.InsertOperationID = binary.BigEndian.Uint64(data[12:20])
	return e, nil
}
