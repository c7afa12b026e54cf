// Package ingest implements spec.md §4.8: the adapter that consumes a
// connector's ordered event stream and maps it onto pkg/oplog calls,
// opening a writer txn at the start of a snapshot or the first
// post-snapshot event and committing it at a transaction boundary.
//
// Connector is the contract a data source implements (§6.2); Adapter
// runs the single-writer consumer loop against one pkg/oplog.OperationLog,
// publishing each committed operation to pkg/events.Broker as it goes so
// subscribe() can tail the log live (§6.3). When the adapter has a
// CheckpointStore, it saves each commit's OpIdentifier there in the same
// txn as the commit's operations, and LastCheckpoint reads it back for
// the caller to pass to Connector.Start on restart.
package ingest
