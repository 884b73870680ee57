package capability

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
)

const optKey = "capability"

// GenesisGrant is a single genesis entry.
type GenesisGrant struct {
	Address      rebase.Address `json:"address"`
	Capabilities []Capability   `json:"capabilities"`
}

// Initializer stores the genesis grants.
type Initializer struct{}

var _ rebase.Initializer = Initializer{}

// FromGenesis reads
//   "capability": {"grants": [{"address": ..., "capabilities": [...]}]}
func (Initializer) FromGenesis(opts rebase.Options, db rebase.KVStore) error {
	var state struct {
		Grants []GenesisGrant `json:"grants"`
	}
	if err := opts.ReadOptions(optKey, &state); err != nil {
		return err
	}
	store := NewStore()
	for i, g := range state.Grants {
		for _, c := range g.Capabilities {
			if err := store.Grant(db, g.Address, c); err != nil {
				return errors.Wrapf(err, "grant #%d", i)
			}
		}
	}
	return nil
}
