package ingest

import (
	"github.com/getdozer/dozer-cache/pkg/collection"
	"github.com/getdozer/dozer-cache/pkg/kv"
)

// DBCheckpoints is the sub-database an endpoint's connector checkpoint
// is persisted under: a single entry, under a fixed key, holding the last
// committed checkpoint (spec.md §4.8 point 3:
// "on restart the connector resumes strictly after the last persisted
// checkpoint").
const DBCheckpoints = "ingest_checkpoints"

// CheckpointStore persists the last OpIdentifier an adapter has
// committed through, so a restarted connector can resume from it
// instead of from the start of the source.
type CheckpointStore struct {
	entries *collection.Map[[]byte, []byte]
}

var checkpointKey = []byte("checkpoint")

// OpenCheckpointStore opens (creating if create is set) the checkpoint
// sub-database for one endpoint.
func OpenCheckpointStore(txn *kv.Txn, create bool) (*CheckpointStore, error) {
	db, err := txn.OpenDB(DBCheckpoints, kv.DBOptions{Create: create})
	if err != nil {
		return nil, err
	}
	return &CheckpointStore{
		entries: collection.NewMap[[]byte, []byte](db, collection.BytesCodec{}, collection.BytesCodec{}),
	}, nil
}

// Save persists id as the last committed checkpoint.
func (c *CheckpointStore) Save(txn *kv.Txn, id OpIdentifier) error {
	b, err := id.MarshalBinary()
	if err != nil {
		return err
	}
	return c.entries.Insert(txn, checkpointKey, b)
}

// Load returns the last persisted checkpoint, if any.
func (c *CheckpointStore) Load(txn *kv.Txn) (OpIdentifier, bool, error) {
	b, ok, err := c.entries.Get(txn, checkpointKey)
	if err != nil || !ok {
		return OpIdentifier{}, false, err
	}
	var id OpIdentifier
	if err := id.UnmarshalBinary(b); err != nil {
		return OpIdentifier{}, false, err
	}
	return id, true, nil
}
