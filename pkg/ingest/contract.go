package ingest

import (
	"context"

	"github.com/google/uuid"

	"github.com/getdozer/dozer-cache/pkg/record"
)

// TableIdentifier names a table a Connector can stream (§6.2's
// list_tables).
type TableIdentifier struct {
	Schema string
	Name   string
}

// CDCType is the change-capture capability a connector offers a table.
type CDCType int

const (
	// CDCOnlyPK means only the primary key of a changed row is known;
	// Update/Delete events carry no field values, only a key.
	CDCOnlyPK CDCType = iota
	// CDCFullChanges means full before/after row images are available.
	CDCFullChanges
	// CDCNothing means the table has no ongoing change capture; only the
	// initial snapshot is available.
	CDCNothing
)

// SourceSchema pairs a table's record.Schema with the CDC capability the
// connector offers for it (§6.2's get_schemas).
type SourceSchema struct {
	Schema  record.Schema
	CDCType CDCType
}

// OpIdentifier is the connector-assigned checkpoint token carried by
// SnapshottingDone and TransactionInfo::Commit (§6.2). The connector
// defines its own encoding; the adapter only threads it through to
// Checkpoint.
type OpIdentifier struct {
	uuid.UUID
}

// NewOpIdentifier mints a fresh checkpoint identifier; connectors that
// don't have a natural source-native token (an LSN, a binlog position)
// can use this as an opaque one.
func NewOpIdentifier() OpIdentifier {
	return OpIdentifier{UUID: uuid.New()}
}

// OpKind is the kind of change an OperationEvent carries.
type OpKind int

const (
	OpInsert OpKind = iota
	OpUpdate
	OpDelete
)

// ChangeOp is one row-level change within an OperationEvent: Old is the
// prior row image (nil for an Insert; required for Update and Delete so
// the adapter can look up the prior metadata by the key derived from
// it), New is the new row image (nil for a Delete).
type ChangeOp struct {
	Kind OpKind
	Old  *record.Record
	New  *record.Record
}

// OperationEventMessage is a single row-level change against one of the
// tables returned by list_tables (§6.2's OperationEvent{table_index, op,
// id}).
type OperationEventMessage struct {
	TableIndex int
	Op         ChangeOp
	ID         *OpIdentifier
}

// CommitInfo carries the checkpoint id and source-reported commit time
// for a TransactionInfo::Commit message.
type CommitInfo struct {
	ID         OpIdentifier
	SourceTime int64 // unix nanoseconds, as reported by the source
}

// TransactionInfoKind distinguishes the three TransactionInfo variants
// (§6.2).
type TransactionInfoKind int

const (
	TxnCommit TransactionInfoKind = iota
	TxnSnapshottingStarted
	TxnSnapshottingDone
)

// TransactionInfoMessage is a transaction-boundary marker. Commit is
// only populated when Kind == TxnCommit.
type TransactionInfoMessage struct {
	Kind   TransactionInfoKind
	Commit CommitInfo
}

// MessageKind discriminates the IngestionMessage union (§6.2).
type MessageKind int

const (
	MsgSnapshottingStarted MessageKind = iota
	MsgSnapshottingDone
	MsgOperationEvent
	MsgTransactionInfo
)

// IngestionMessage is the tagged union a Connector's stream yields.
// Exactly one of OperationEvent/TransactionInfo/SnapshotCheckpoint is
// populated, matching Kind.
type IngestionMessage struct {
	Kind               MessageKind
	SnapshotCheckpoint *OpIdentifier // populated for MsgSnapshottingDone
	OperationEvent     *OperationEventMessage
	TransactionInfo    *TransactionInfoMessage
}

// Connector is the contract a data source implements (§6.2). Start
// streams IngestionMessages onto the returned channel until ctx is
// canceled or the source is exhausted; the connector closes the channel
// when it returns.
type Connector interface {
	ListTables(ctx context.Context) ([]TableIdentifier, error)
	GetSchemas(ctx context.Context, tables []TableIdentifier) ([]SourceSchema, error)
	Start(ctx context.Context, tables []TableIdentifier, checkpoint *OpIdentifier) (<-chan IngestionMessage, error)
	SerializeState() ([]byte, error)
}
