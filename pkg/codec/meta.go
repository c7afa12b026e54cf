package codec

import (
	"encoding/binary"

	"github.com/getdozer/dozer-cache/pkg/record"
)

// EncodeRecordMeta writes id (8-byte BE) then version (4-byte BE), the
// fixed 12-byte encoding spec.md §6.1 specifies for RecordMeta.
func EncodeRecordMeta(m record.RecordMeta) []byte {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint64(buf[0:8], m.ID)
	binary.BigEndian.PutUint32(buf[8:12], m.Version)
	return buf
}

// DecodeRecordMeta is the inverse of EncodeRecordMeta.
func DecodeRecordMeta(data []byte) (record.RecordMeta, int, error) {
	if len(data) < 12 {
		return record.RecordMeta{}, 0, ErrBadDataLength
	}
	return record.RecordMeta{
		ID:      binary.BigEndian.Uint64(data[0:8]),
		Version: binary.BigEndian.Uint32(data[8:12]),
	}, 12, nil
}

// EncodeRecordMetadata writes RecordMeta followed by the
// insert_operation_id option: 0x00 for None, or 0x01 then an 8-byte BE
// op-id for Some (spec.md §6.1).
func EncodeRecordMetadata(m record.RecordMetadata) []byte {
	buf := EncodeRecordMeta(m.Meta)
	if m.InsertOperationID == nil {
		return append(buf, 0x00)
	}
	opBuf := make([]byte, 9)
	opBuf[0] = 0x01
	binary.BigEndian.PutUint64(opBuf[1:], *m.InsertOperationID)
	return append(buf, opBuf...)
}

// DecodeRecordMetadata is the inverse of EncodeRecordMetadata.
func DecodeRecordMetadata(data []byte) (record.RecordMetadata, error) {
	meta, consumed, err := DecodeRecordMeta(data)
	if err != nil {
		return record.RecordMetadata{}, err
	}
	rest := data[consumed:]
	if len(rest) < 1 {
		return record.RecordMetadata{}, ErrBadDataLength
	}
	if rest[0] == 0x00 {
		return record.RecordMetadata{Meta: meta}, nil
	}
	if rest[0] != 0x01 || len(rest) < 9 {
		return record.RecordMetadata{}, ErrBadDataLength
	}
	opID := binary.BigEndian.Uint64(rest[1:9])
	return record.RecordMetadata{Meta: meta, InsertOperationID: &opID}, nil
}
