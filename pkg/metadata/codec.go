package metadata

import (
	"github.com/getdozer/dozer-cache/pkg/codec"
	"github.com/getdozer/dozer-cache/pkg/record"
)

// recordMetadataCodec adapts codec.EncodeRecordMetadata/DecodeRecordMetadata
// to collection.Codec[record.RecordMetadata].
type recordMetadataCodec struct{}

func (recordMetadataCodec) Encode(v record.RecordMetadata) []byte {
	return codec.EncodeRecordMetadata(v)
}

func (recordMetadataCodec) Decode(b []byte) (record.RecordMetadata, error) {
	return codec.DecodeRecordMetadata(b)
}
