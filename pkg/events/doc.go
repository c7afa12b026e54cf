// Package events implements §6.3's subscribe() -> stream<Operation>: a
// broker that fans out oplog.Operations to live subscribers, plus Tail,
// which turns that live fan-out into a from-a-given-op-id stream by
// splicing a historical scan of the persisted log onto the front of it.
//
// Broker itself only ever carries operations published after a given
// Subscribe call — it has no notion of op-id ordering or replay. A
// caller that needs "give me everything from op-id N onward" uses Tail
// instead of Subscribe directly; Tail subscribes first (so nothing
// published mid-scan is lost), reads the log from N up to the op-id
// observed at subscribe time, and then forwards the live channel with
// anything already covered by the historical read filtered out.
package events
