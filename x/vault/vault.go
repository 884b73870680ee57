/*
Package vault exchanges the native asset for ledger balance and back.

Deposits move the native asset into custody and mint the same amount at
the current global rate. Redemptions burn ledger balance and pay the
native asset out of custody. Interest is not funded automatically, the
reserve only grows through explicit funding.
*/
package vault

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/x/rate"
	"github.com/iov-one/rebase/x/supply"
)

// Condition is the identity the vault mints and burns with. It must hold
// the mint_burn capability.
var Condition = rebase.NewCondition("vault", "module", []byte("vault"))

// Address of the vault module.
var Address = Condition.Address()

// Custody holds the native asset reserve.
type Custody interface {
	Receive(db rebase.KVStore, from rebase.Address, amount coin.Amount) error
	Send(db rebase.KVStore, to rebase.Address, amount coin.Amount) error
	Balance(db rebase.ReadOnlyKVStore) (coin.Amount, error)
}

// Service implements deposit, redeem and fund.
type Service struct {
	supply  *supply.Controller
	rates   *rate.Manager
	custody Custody
}

// NewService returns a vault service.
func NewService(s *supply.Controller, rates *rate.Manager, custody Custody) *Service {
	return &Service{supply: s, rates: rates, custody: custody}
}

// Deposit takes amount of the native asset from the depositor and mints
// the same ledger amount at the current global rate.
func (s *Service) Deposit(ctx rebase.Context, db rebase.KVStore, depositor rebase.Address, amount coin.Amount) error {
	if amount.IsZero() || amount.IsAll() {
		return errors.Wrap(errors.ErrAmount, "deposit amount")
	}
	current, err := s.rates.Current(db)
	if err != nil {
		return err
	}
	if err := s.custody.Receive(db, depositor, amount); err != nil {
		return errors.Wrap(err, "custody")
	}
	if err := s.supply.Mint(ctx, db, Address, depositor, amount, current); err != nil {
		return err
	}
	rebase.GetLogger(ctx).Info("deposit", "depositor", depositor, "amount", amount, "rate", current)
	return nil
}

// Redeem burns amount of the holder balance and pays the same amount of
// the native asset. coin.MaxAmount redeems the whole balance. Nothing is
// changed unless the reserve can pay.
func (s *Service) Redeem(ctx rebase.Context, db rebase.KVStore, holder rebase.Address, amount coin.Amount) (coin.Amount, error) {
	balance, err := s.supply.BalanceOf(ctx, db, holder)
	if err != nil {
		return coin.Amount{}, err
	}
	if amount.IsAll() {
		amount = balance
	}
	if amount.IsZero() {
		return coin.Amount{}, errors.Wrap(errors.ErrAmount, "nothing to redeem")
	}
	if amount.GT(balance) {
		return coin.Amount{}, errors.Wrapf(errors.ErrInsufficientBalance, "redeem %s of %s", amount, balance)
	}
	reserve, err := s.custody.Balance(db)
	if err != nil {
		return coin.Amount{}, errors.Wrap(err, "custody")
	}
	if reserve.LT(amount) {
		return coin.Amount{}, errors.Wrapf(errors.ErrInsufficientLiquidity, "reserve %s, requested %s", reserve, amount)
	}
	burned, _, err := s.supply.Burn(ctx, db, Address, holder, amount)
	if err != nil {
		return coin.Amount{}, err
	}
	if err := s.custody.Send(db, holder, burned); err != nil {
		return coin.Amount{}, errors.Wrap(err, "custody")
	}
	rebase.GetLogger(ctx).Info("redeem", "holder", holder, "amount", burned)
	return burned, nil
}

// Fund adds amount of the native asset to the reserve without minting.
func (s *Service) Fund(ctx rebase.Context, db rebase.KVStore, funder rebase.Address, amount coin.Amount) error {
	if amount.IsZero() || amount.IsAll() {
		return errors.Wrap(errors.ErrAmount, "fund amount")
	}
	if err := s.custody.Receive(db, funder, amount); err != nil {
		return errors.Wrap(err, "custody")
	}
	rebase.GetLogger(ctx).Info("reserve funded", "funder", funder, "amount", amount)
	return nil
}

// Reserve returns the native asset held in custody.
func (s *Service) Reserve(db rebase.ReadOnlyKVStore) (coin.Amount, error) {
	return s.custody.Balance(db)
}
