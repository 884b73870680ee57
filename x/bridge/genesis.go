package bridge

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
)

const optKey = "bridge"

// Initializer stores the genesis remote domains. The bridge
// configuration itself is read by gconf from the "conf" section.
type Initializer struct{}

var _ rebase.Initializer = Initializer{}

// FromGenesis reads
//   "bridge": {"remotes": [{"domain_id": ..., "enabled": true, "outbound": {...}, "inbound": {...}}]}
// Limiters start full.
func (Initializer) FromGenesis(opts rebase.Options, db rebase.KVStore) error {
	var state struct {
		Remotes []*Remote `json:"remotes"`
	}
	if err := opts.ReadOptions(optKey, &state); err != nil {
		return err
	}
	bucket := NewRemoteBucket()
	for i, r := range state.Remotes {
		if r.Metadata == nil {
			r.Metadata = &rebase.Metadata{Schema: 1}
		}
		r.Outbound.Reset(0)
		r.Inbound.Reset(0)
		if _, err := bucket.Put(db, []byte(r.DomainID), r); err != nil {
			return errors.Wrapf(err, "remote #%d", i)
		}
	}
	return nil
}
