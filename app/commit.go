package app

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
)

// CommitStore wraps a CommitKVStore. Every block works on its own cache
// wrap which is flushed and saved as a new version by Commit.
type CommitStore struct {
	committed rebase.CommitKVStore
}

// NewCommitStore loads the latest version of store.
func NewCommitStore(store rebase.CommitKVStore) (*CommitStore, error) {
	if err := store.LoadLatestVersion(); err != nil {
		return nil, errors.Wrap(err, "load latest version")
	}
	return &CommitStore{committed: store}, nil
}

// CommitInfo returns the current height and hash
func (cs *CommitStore) CommitInfo() (rebase.CommitID, error) {
	return cs.committed.LatestVersion()
}

// Begin returns a scratch pad on top of the committed state. Discard it
// to drop the changes or pass it to Commit to persist them.
func (cs *CommitStore) Begin() rebase.KVCacheWrap {
	return cs.committed.CacheWrap()
}

// Commit flushes block into the underlying store and saves a new version.
func (cs *CommitStore) Commit(block rebase.KVCacheWrap) (rebase.CommitID, error) {
	if err := block.Write(); err != nil {
		return rebase.CommitID{}, errors.Wrap(err, "write block")
	}
	return cs.committed.Commit()
}

//------- storing chainID ---------

// _rb: is a prefix for node internal data
const chainIDKey = "_rb:chainID"

// loadChainID returns the chain id stored if any
func loadChainID(kv rebase.ReadOnlyKVStore) (string, error) {
	v, err := kv.Get([]byte(chainIDKey))
	if err != nil {
		return "", errors.Wrap(err, "load chain id")
	}
	return string(v), nil
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set, or invalid name
func saveChainID(kv rebase.KVStore, chainID string) error {
	if !rebase.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}
	k := []byte(chainIDKey)
	exists, err := kv.Has(k)
	if err != nil {
		return errors.Wrap(err, "load chain id")
	}
	if exists {
		return errors.Wrap(errors.ErrUnauthorized, "can't modify chain id after genesis init")
	}
	if err := kv.Set(k, []byte(chainID)); err != nil {
		return errors.Wrap(err, "save chain id")
	}
	return nil
}
