/*
Package native keeps balances of the native asset that backs the ledger.
Wallets are plain balances without any accrual. The vault holds its
reserve in a wallet of its own, accessed through Custody.
*/
package native

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/orm"
)

// Wallet is the native asset balance of a single address.
type Wallet struct {
	Metadata *rebase.Metadata `json:"metadata"`
	Balance  coin.Amount      `json:"balance"`
}

var _ orm.Model = (*Wallet)(nil)

func (w *Wallet) Validate() error {
	if err := w.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if w.Balance.IsAll() {
		return errors.Wrap(errors.ErrAmount, "balance out of range")
	}
	return nil
}

// NewBucket returns the bucket of wallets, keyed by address.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("wallet", &Wallet{})
}
