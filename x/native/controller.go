package native

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/orm"
)

// Controller moves the native asset between wallets.
type Controller interface {
	MoveCoins(db rebase.KVStore, src, dst rebase.Address, amount coin.Amount) error
	IssueCoins(db rebase.KVStore, dst rebase.Address, amount coin.Amount) error
	Balance(db rebase.ReadOnlyKVStore, addr rebase.Address) (coin.Amount, error)
}

// BaseController is the wallet bucket backed Controller.
type BaseController struct {
	bucket orm.ModelBucket
}

var _ Controller = BaseController{}

// NewController returns a controller using the default wallet bucket.
func NewController() BaseController {
	return BaseController{bucket: NewBucket()}
}

// MoveCoins moves amount from src to dst. It fails if src does not hold
// enough.
func (c BaseController) MoveCoins(db rebase.KVStore, src, dst rebase.Address, amount coin.Amount) error {
	if amount.IsZero() || amount.IsAll() {
		return errors.Wrap(errors.ErrAmount, "move amount")
	}
	if err := dst.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	sender, err := c.load(db, src)
	if err != nil {
		return err
	}
	if sender.Balance, err = sender.Balance.Sub(amount); err != nil {
		return errors.Wrapf(errors.ErrInsufficientBalance, "%s holds %s", src, sender.Balance)
	}
	if _, err := c.bucket.Put(db, src, sender); err != nil {
		return err
	}
	return c.IssueCoins(db, dst, amount)
}

// IssueCoins adds amount to the dst wallet.
func (c BaseController) IssueCoins(db rebase.KVStore, dst rebase.Address, amount coin.Amount) error {
	if err := dst.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	recipient, err := c.load(db, dst)
	if err != nil {
		return err
	}
	if recipient.Balance, err = recipient.Balance.Add(amount); err != nil {
		return errors.Wrap(err, "wallet balance")
	}
	_, err = c.bucket.Put(db, dst, recipient)
	return err
}

// Balance returns the wallet balance, zero for unknown wallets.
func (c BaseController) Balance(db rebase.ReadOnlyKVStore, addr rebase.Address) (coin.Amount, error) {
	w, err := c.load(db, addr)
	if err != nil {
		return coin.Amount{}, err
	}
	return w.Balance, nil
}

func (c BaseController) load(db rebase.ReadOnlyKVStore, addr rebase.Address) (*Wallet, error) {
	var w Wallet
	switch err := c.bucket.One(db, addr, &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return &Wallet{Metadata: &rebase.Metadata{Schema: 1}}, nil
	default:
		return nil, errors.Wrap(err, "cannot load wallet")
	}
}

// Custody is the reserve of a single account. It satisfies the custody
// interface of the vault.
type Custody struct {
	account rebase.Address
	ctrl    Controller
}

// NewCustody returns the custody of the account wallet.
func NewCustody(account rebase.Address, ctrl Controller) *Custody {
	return &Custody{account: account, ctrl: ctrl}
}

// Receive moves amount from the depositor wallet into custody.
func (c *Custody) Receive(db rebase.KVStore, from rebase.Address, amount coin.Amount) error {
	return c.ctrl.MoveCoins(db, from, c.account, amount)
}

// Send pays amount out of custody.
func (c *Custody) Send(db rebase.KVStore, to rebase.Address, amount coin.Amount) error {
	return c.ctrl.MoveCoins(db, c.account, to, amount)
}

// Balance returns the reserve held in custody.
func (c *Custody) Balance(db rebase.ReadOnlyKVStore) (coin.Amount, error) {
	return c.ctrl.Balance(db, c.account)
}
