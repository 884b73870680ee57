package supply

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/orm"
)

var totalKey = []byte("total")

// TotalSupply tracks the sum of all settled principals. It is never read
// to decide whether an operation is allowed.
type TotalSupply struct {
	Metadata *rebase.Metadata `json:"metadata"`
	Total    coin.Amount      `json:"total"`
}

var _ orm.Model = (*TotalSupply)(nil)

func (s *TotalSupply) Validate() error {
	return errors.Wrap(s.Metadata.Validate(), "metadata")
}

// NewTotalSupplyBucket returns the bucket holding the total supply singleton.
func NewTotalSupplyBucket() orm.ModelBucket {
	return orm.NewModelBucket("supply", &TotalSupply{})
}

// Allowance is the amount a spender may move out of an owner's balance.
// coin.MaxAmount is an unlimited allowance.
type Allowance struct {
	Metadata *rebase.Metadata `json:"metadata"`
	Amount   coin.Amount      `json:"amount"`
}

var _ orm.Model = (*Allowance)(nil)

func (a *Allowance) Validate() error {
	return errors.Wrap(a.Metadata.Validate(), "metadata")
}

// NewAllowanceBucket returns the bucket of allowances, keyed by
// owner and spender addresses.
func NewAllowanceBucket() orm.ModelBucket {
	return orm.NewModelBucket("allowance", &Allowance{})
}

func allowanceKey(owner, spender rebase.Address) []byte {
	key := make([]byte, 0, len(owner)+len(spender)+1)
	key = append(key, owner...)
	key = append(key, '|')
	return append(key, spender...)
}
