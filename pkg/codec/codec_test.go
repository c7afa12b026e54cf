package codec_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/getdozer/dozer-cache/pkg/codec"
	"github.com/getdozer/dozer-cache/pkg/record"
)

func TestFieldRoundTrip(t *testing.T) {
	cases := []record.Field{
		record.FieldFromUInt(42),
		{Type: record.FieldTypeU128, U128: record.U128{Hi: 1, Lo: 2}},
		record.FieldFromInt(-7),
		{Type: record.FieldTypeI128, I128: record.I128{Hi: 0xffffffffffffffff, Lo: 9}},
		record.FieldFromFloat(3.14159),
		record.FieldFromBoolean(true),
		record.FieldFromBoolean(false),
		record.FieldFromString("hello"),
		record.FieldFromText("world"),
		record.FieldFromBinary([]byte{1, 2, 3, 4}),
		record.FieldFromBson([]byte{0xde, 0xad, 0xbe, 0xef}),
		record.FieldFromDecimal(decimal.New(-12345, -2)),
		record.FieldFromDecimal(decimal.NewFromInt(0)),
		record.FieldFromTimestamp(time.UnixMilli(1_700_000_000_123).UTC()),
		record.FieldFromDate(record.Date{Year: 2024, Month: time.March, Day: 15}),
		record.FieldFromPoint(record.Point{X: 1.5, Y: -2.5}),
		record.FieldFromDuration(record.Duration{Seconds: 5, Nanos: 250, Unit: record.TimeUnitMilliseconds}),
		record.FieldNull(),
	}

	for _, f := range cases {
		encoded := codec.EncodeField(f)
		decoded, consumed, err := codec.DecodeField(encoded)
		require.NoError(t, err)
		require.Equal(t, len(encoded), consumed)
		require.Equal(t, f, decoded)
	}
}

func TestDecodeFieldEmptyInput(t *testing.T) {
	_, _, err := codec.DecodeField(nil)
	require.ErrorIs(t, err, codec.ErrEmptyInput)
}

func TestDecodeFieldUnrecognisedTag(t *testing.T) {
	_, _, err := codec.DecodeField([]byte{0xff, 0, 0, 0, 0, 0, 0, 0, 0})
	require.ErrorIs(t, err, codec.ErrUnrecognisedFieldType)
}

func TestDecodeFieldBadLength(t *testing.T) {
	_, _, err := codec.DecodeField([]byte{byte(record.FieldTypeUInt), 1, 2})
	require.ErrorIs(t, err, codec.ErrBadDataLength)
}

func TestRecordRoundTripWithoutLifetime(t *testing.T) {
	r := record.Record{Values: []record.Field{
		record.FieldFromString("A"),
		record.FieldFromInt(10),
	}}
	encoded := codec.EncodeRecord(r)
	decoded, err := codec.DecodeRecord(encoded)
	require.NoError(t, err)
	require.Equal(t, r, decoded)
}

func TestRecordRoundTripWithLifetime(t *testing.T) {
	ref := time.Unix(1_000_000, 123).UTC()
	r := record.Record{
		Values: []record.Field{record.FieldFromString("A")},
		Lifetime: &record.Lifetime{
			Reference: ref,
			Duration:  5 * time.Second,
		},
	}
	encoded := codec.EncodeRecord(r)
	decoded, err := codec.DecodeRecord(encoded)
	require.NoError(t, err)
	require.Equal(t, r.Values, decoded.Values)
	require.True(t, decoded.Lifetime.Reference.Equal(ref))
	require.Equal(t, 5*time.Second, decoded.Lifetime.Duration)
}

func testSchema() record.Schema {
	return record.Schema{
		Fields: []record.FieldDefinition{
			{Name: "id", Type: record.FieldTypeString},
			{Name: "value", Type: record.FieldTypeInt},
		},
		PrimaryIndex: []int{0},
	}
}

func TestPrimaryKeyBytesDeterministic(t *testing.T) {
	schema := testSchema()
	r := record.Record{Values: []record.Field{record.FieldFromString("A"), record.FieldFromInt(10)}}
	a := codec.PrimaryKeyBytes(schema, r)
	b := codec.PrimaryKeyBytes(schema, r)
	require.Equal(t, a, b)

	other := record.Record{Values: []record.Field{record.FieldFromString("B"), record.FieldFromInt(10)}}
	require.NotEqual(t, a, codec.PrimaryKeyBytes(schema, other))
}

func TestRecordHashStableAndSensitiveToNonPKFields(t *testing.T) {
	schema := testSchema()
	r1 := record.Record{Values: []record.Field{record.FieldFromString("A"), record.FieldFromInt(10)}}
	r2 := record.Record{Values: []record.Field{record.FieldFromString("B"), record.FieldFromInt(10)}}
	r3 := record.Record{Values: []record.Field{record.FieldFromString("A"), record.FieldFromInt(20)}}

	require.Equal(t, codec.RecordHash(schema, r1), codec.RecordHash(schema, r1))
	require.Equal(t, codec.RecordHash(schema, r1), codec.RecordHash(schema, r2), "hash only covers the non-PK projection")
	require.NotEqual(t, codec.RecordHash(schema, r1), codec.RecordHash(schema, r3))
}

func TestRecordMetadataRoundTrip(t *testing.T) {
	opID := uint64(42)
	live := record.RecordMetadata{Meta: record.RecordMeta{ID: 1, Version: 2}, InsertOperationID: &opID}
	encoded := codec.EncodeRecordMetadata(live)
	decoded, err := codec.DecodeRecordMetadata(encoded)
	require.NoError(t, err)
	require.Equal(t, live, decoded)

	tombstoned := record.RecordMetadata{Meta: record.RecordMeta{ID: 1, Version: 2}}
	encoded = codec.EncodeRecordMetadata(tombstoned)
	decoded, err = codec.DecodeRecordMetadata(encoded)
	require.NoError(t, err)
	require.Equal(t, tombstoned, decoded)
}
