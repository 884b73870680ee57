package store

import rebase "github.com/iov-one/rebase"

// Aliases for the storage interfaces so the implementations in this
// package can use short names.

type ReadOnlyKVStore = rebase.ReadOnlyKVStore
type SetDeleter = rebase.SetDeleter
type KVStore = rebase.KVStore
type Batch = rebase.Batch
type Iterator = rebase.Iterator
type CacheableKVStore = rebase.CacheableKVStore
type KVCacheWrap = rebase.KVCacheWrap
type CommitKVStore = rebase.CommitKVStore
type CommitID = rebase.CommitID

// Model is a single key-value pair as returned by an iterator.
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a Model.
func Pair(key, value []byte) Model {
	return Model{Key: key, Value: value}
}
