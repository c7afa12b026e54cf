package oplog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/getdozer/dozer-cache/pkg/oplog"
	"github.com/getdozer/dozer-cache/pkg/record"
)

func TestOperationRoundTrip(t *testing.T) {
	insert := oplog.Operation{
		Kind:       oplog.OperationKindInsert,
		RecordMeta: record.RecordMeta{ID: 7, Version: 2},
		Record:     recWith(10),
	}
	encoded := oplog.EncodeOperation(insert)
	decoded, err := oplog.DecodeOperation(encoded)
	require.NoError(t, err)
	require.Equal(t, insert, decoded)

	del := oplog.Operation{Kind: oplog.OperationKindDelete, DeleteOperationID: 42}
	encoded = oplog.EncodeOperation(del)
	decoded, err = oplog.DecodeOperation(encoded)
	require.NoError(t, err)
	require.Equal(t, del, decoded)
}
