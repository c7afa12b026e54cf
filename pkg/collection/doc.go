// Package collection provides the typed handles spec.md §4.2 calls "typed
// collections": Counter, Set[T], Map[K,V], and the cursor-backed
// KeyIterator[T]/Iterator[K,V] pairs that walk them. Each handle is a thin,
// generic layer over a single pkg/kv.Db — it owns no connection of its own,
// every method takes the *kv.Txn the caller is already inside.
//
// Each bbolt bucket is treated as a typed sub-store, one Go function
// group per entity, except here the typing is expressed with generics
// instead of being duplicated by hand per entity, since every higher
// layer (pkg/metadata, pkg/oplog) needs the same three shapes over
// different key/value types.
package collection
