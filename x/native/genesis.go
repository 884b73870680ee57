package native

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
)

const optKey = "native"

// GenesisWallet is used to parse the json from genesis file.
type GenesisWallet struct {
	Address rebase.Address `json:"address"`
	Balance coin.Amount    `json:"balance"`
}

// Initializer loads the genesis wallets.
type Initializer struct{}

var _ rebase.Initializer = Initializer{}

// FromGenesis reads
//   "native": {"wallets": [{"address": ..., "balance": "<amount>"}]}
func (Initializer) FromGenesis(opts rebase.Options, db rebase.KVStore) error {
	var state struct {
		Wallets []GenesisWallet `json:"wallets"`
	}
	if err := opts.ReadOptions(optKey, &state); err != nil {
		return err
	}
	ctrl := NewController()
	for i, w := range state.Wallets {
		if w.Balance.IsAll() {
			return errors.Wrapf(errors.ErrAmount, "wallet #%d", i)
		}
		if err := ctrl.IssueCoins(db, w.Address, w.Balance); err != nil {
			return errors.Wrapf(err, "wallet #%d", i)
		}
	}
	return nil
}
