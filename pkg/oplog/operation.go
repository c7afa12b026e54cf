package oplog

import (
	"encoding/binary"

	"github.com/getdozer/dozer-cache/pkg/codec"
	"github.com/getdozer/dozer-cache/pkg/record"
)

// OperationKind tags the Operation sum type. Values match the wire tags
// in spec.md §6.1 (0 = Delete, 1 = Insert) — do not reorder.
type OperationKind uint8

const (
	OperationKindDelete OperationKind = iota
	OperationKindInsert
)

// Operation is the persisted log entry (spec.md §3.1): either a Delete
// referencing the op-id of the Insert it retires, or an Insert carrying
// the record's meta and payload at the time it became live.
type Operation struct {
	Kind OperationKind

	// DeleteOperationID is valid when Kind == OperationKindDelete: the
	// op-id of the Insert entry this Delete retires.
	DeleteOperationID uint64

	// RecordMeta and Record are valid when Kind == OperationKindInsert.
	RecordMeta record.RecordMeta
	Record     record.Record
}

// EncodeOperation writes the tag-byte-then-body wire encoding spec.md
// §6.1 specifies: Delete is a tag byte then an 8-byte big-endian op-id;
// Insert is a tag byte then an encoded RecordMeta then an encoded
// Record.
func EncodeOperation(op Operation) []byte {
	switch op.Kind {
	case OperationKindDelete:
		buf := make([]byte, 9)
		buf[0] = byte(OperationKindDelete)
		binary.BigEndian.PutUint64(buf[1:], op.DeleteOperationID)
		return buf
	case OperationKindInsert:
		metaBuf := codec.EncodeRecordMeta(op.RecordMeta)
		recBuf := codec.EncodeRecord(op.Record)
		out := make([]byte, 0, 1+len(metaBuf)+len(recBuf))
		out = append(out, byte(OperationKindInsert))
		out = append(out, metaBuf...)
		out = append(out, recBuf...)
		return out
	default:
		invariantViolation("oplog: unknown operation kind %d", op.Kind)
		return nil
	}
}

// DecodeOperation is the inverse of EncodeOperation.
func DecodeOperation(data []byte) (Operation, error) {
	if len(data) == 0 {
		return Operation{}, codec.ErrEmptyInput
	}
	tag := OperationKind(data[0])
	body := data[1:]
	switch tag {
	case OperationKindDelete:
		if len(body) < 8 {
			return Operation{}, codec.ErrBadDataLength
		}
		return Operation{Kind: OperationKindDelete, DeleteOperationID: binary.BigEndian.Uint64(body[:8])}, nil
	case OperationKindInsert:
		meta, consumed, err := codec.DecodeRecordMeta(body)
		if err != nil {
			return Operation{}, err
		}
		rec, err := codec.DecodeRecord(body[consumed:])
		if err != nil {
			return Operation{}, err
		}
		return Operation{Kind: OperationKindInsert, RecordMeta: meta, Record: rec}, nil
	default:
		return Operation{}, codec.ErrUnrecognisedFieldType
	}
}

// operationCodec adapts Encode/DecodeOperation to collection.Codec[Operation].
type operationCodec struct{}

func (operationCodec) Encode(op Operation) []byte { return EncodeOperation(op) }

func (operationCodec) Decode(b []byte) (Operation, error) { return DecodeOperation(b) }
