/*
Package supply is the only place ledger balances are created, destroyed
and moved. Every operation settles the accrual of each touched holder
exactly once before changing its principal.

Minting and burning require the mint_burn capability. Transfers are
initiated by the holder itself.
*/
package supply

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/orm"
	"github.com/iov-one/rebase/x/accrual"
	"github.com/iov-one/rebase/x/capability"
)

// Controller mints, burns and moves ledger balance.
type Controller struct {
	caps       capability.Checker
	engine     *accrual.Engine
	totals     orm.ModelBucket
	allowances orm.ModelBucket
}

// NewController returns a Controller consulting caps for mint and burn.
func NewController(caps capability.Checker, engine *accrual.Engine) *Controller {
	return &Controller{
		caps:       caps,
		engine:     engine,
		totals:     NewTotalSupplyBucket(),
		allowances: NewAllowanceBucket(),
	}
}

// Engine returns the accrual engine used by the controller.
func (c *Controller) Engine() *accrual.Engine {
	return c.engine
}

// Mint credits amount to holder. A holder without principal takes the
// given rate, any other holder keeps its own.
func (c *Controller) Mint(ctx rebase.Context, db rebase.KVStore, caller, holder rebase.Address, amount, rate coin.Amount) error {
	if !c.caps.HasCapability(db, caller, capability.MintBurn) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s cannot mint", caller)
	}
	if amount.IsZero() || amount.IsAll() {
		return errors.Wrap(errors.ErrAmount, "mint amount")
	}
	h, err := c.settle(ctx, db, holder)
	if err != nil {
		return err
	}
	if h.Principal.IsZero() {
		h.Rate = rate
	}
	if h.Principal, err = h.Principal.Add(amount); err != nil {
		return errors.Wrap(err, "principal")
	}
	if err := c.engine.Save(db, holder, h); err != nil {
		return err
	}
	if err := c.adjustTotal(db, amount, true); err != nil {
		return err
	}
	rebase.GetLogger(ctx).Debug("minted", "holder", holder, "amount", amount, "rate", h.Rate)
	return nil
}

// Burn destroys amount of the holder balance and returns the burned
// amount together with the holder rate. coin.MaxAmount burns the whole
// settled balance.
func (c *Controller) Burn(ctx rebase.Context, db rebase.KVStore, caller, holder rebase.Address, amount coin.Amount) (coin.Amount, coin.Amount, error) {
	if !c.caps.HasCapability(db, caller, capability.MintBurn) {
		return coin.Amount{}, coin.Amount{}, errors.Wrapf(errors.ErrUnauthorized, "%s cannot burn", caller)
	}
	h, err := c.settle(ctx, db, holder)
	if err != nil {
		return coin.Amount{}, coin.Amount{}, err
	}
	if amount.IsAll() {
		amount = h.Principal
	}
	if amount.IsZero() {
		return coin.Amount{}, coin.Amount{}, errors.Wrap(errors.ErrAmount, "nothing to burn")
	}
	left, err := h.Principal.Sub(amount)
	if err != nil {
		return coin.Amount{}, coin.Amount{}, errors.Wrapf(errors.ErrInsufficientBalance, "burn %s of %s", amount, h.Principal)
	}
	h.Principal = left
	if err := c.engine.Save(db, holder, h); err != nil {
		return coin.Amount{}, coin.Amount{}, err
	}
	if err := c.adjustTotal(db, amount, false); err != nil {
		return coin.Amount{}, coin.Amount{}, err
	}
	rebase.GetLogger(ctx).Debug("burned", "holder", holder, "amount", amount)
	return amount, h.Rate, nil
}

// Transfer moves amount from one holder to another and returns the
// moved amount. coin.MaxAmount moves the whole settled balance. A
// recipient without principal inherits the sender rate.
func (c *Controller) Transfer(ctx rebase.Context, db rebase.KVStore, from, to rebase.Address, amount coin.Amount) (coin.Amount, error) {
	if err := to.Validate(); err != nil {
		return coin.Amount{}, errors.Wrap(err, "recipient")
	}
	if from.Equals(to) {
		return coin.Amount{}, errors.Wrap(errors.ErrInput, "cannot transfer to self")
	}
	sender, err := c.settle(ctx, db, from)
	if err != nil {
		return coin.Amount{}, err
	}
	if amount.IsAll() {
		amount = sender.Principal
	}
	if amount.IsZero() {
		return coin.Amount{}, errors.Wrap(errors.ErrAmount, "nothing to transfer")
	}
	if sender.Principal, err = sender.Principal.Sub(amount); err != nil {
		return coin.Amount{}, errors.Wrapf(errors.ErrInsufficientBalance, "transfer %s", amount)
	}
	recipient, err := c.settle(ctx, db, to)
	if err != nil {
		return coin.Amount{}, err
	}
	if recipient.Principal.IsZero() {
		recipient.Rate = sender.Rate
	}
	if recipient.Principal, err = recipient.Principal.Add(amount); err != nil {
		return coin.Amount{}, errors.Wrap(err, "recipient principal")
	}
	if err := c.engine.Save(db, from, sender); err != nil {
		return coin.Amount{}, err
	}
	if err := c.engine.Save(db, to, recipient); err != nil {
		return coin.Amount{}, err
	}
	return amount, nil
}

// Approve sets the amount spender may transfer out of the owner balance.
func (c *Controller) Approve(db rebase.KVStore, owner, spender rebase.Address, amount coin.Amount) error {
	if err := spender.Validate(); err != nil {
		return errors.Wrap(err, "spender")
	}
	if owner.Equals(spender) {
		return errors.Wrap(errors.ErrInput, "cannot approve self")
	}
	a := Allowance{Metadata: &rebase.Metadata{Schema: 1}, Amount: amount}
	_, err := c.allowances.Put(db, allowanceKey(owner, spender), &a)
	return err
}

// Allowance returns what spender may still transfer out of the owner
// balance.
func (c *Controller) Allowance(db rebase.ReadOnlyKVStore, owner, spender rebase.Address) (coin.Amount, error) {
	var a Allowance
	switch err := c.allowances.One(db, allowanceKey(owner, spender), &a); {
	case err == nil:
		return a.Amount, nil
	case errors.ErrNotFound.Is(err):
		return coin.Amount{}, nil
	default:
		return coin.Amount{}, errors.Wrap(err, "cannot load allowance")
	}
}

// TransferFrom moves amount out of the owner balance on behalf of the
// spender, consuming the allowance unless it is unlimited.
func (c *Controller) TransferFrom(ctx rebase.Context, db rebase.KVStore, spender, owner, to rebase.Address, amount coin.Amount) (coin.Amount, error) {
	allowed, err := c.Allowance(db, owner, spender)
	if err != nil {
		return coin.Amount{}, err
	}
	if amount.IsAll() {
		now, err := rebase.BlockUnixTime(ctx)
		if err != nil {
			return coin.Amount{}, err
		}
		if amount, err = c.engine.BalanceOf(db, owner, now); err != nil {
			return coin.Amount{}, err
		}
	}
	if !allowed.IsAll() && amount.GT(allowed) {
		return coin.Amount{}, errors.Wrapf(errors.ErrUnauthorized, "allowance %s exceeded", allowed)
	}
	moved, err := c.Transfer(ctx, db, owner, to, amount)
	if err != nil {
		return coin.Amount{}, err
	}
	if allowed.IsAll() {
		return moved, nil
	}
	left, err := allowed.Sub(moved)
	if err != nil {
		return coin.Amount{}, errors.Wrap(err, "allowance")
	}
	return moved, c.Approve(db, owner, spender, left)
}

// BalanceOf returns the holder balance at the block time of ctx.
func (c *Controller) BalanceOf(ctx rebase.Context, db rebase.ReadOnlyKVStore, holder rebase.Address) (coin.Amount, error) {
	now, err := rebase.BlockUnixTime(ctx)
	if err != nil {
		return coin.Amount{}, err
	}
	return c.engine.BalanceOf(db, holder, now)
}

// TotalSupply returns the sum of settled principals.
func (c *Controller) TotalSupply(db rebase.ReadOnlyKVStore) (coin.Amount, error) {
	var s TotalSupply
	switch err := c.totals.One(db, totalKey, &s); {
	case err == nil:
		return s.Total, nil
	case errors.ErrNotFound.Is(err):
		return coin.Amount{}, nil
	default:
		return coin.Amount{}, errors.Wrap(err, "cannot load total supply")
	}
}

func (c *Controller) settle(ctx rebase.Context, db rebase.KVStore, holder rebase.Address) (*accrual.Holder, error) {
	if err := holder.Validate(); err != nil {
		return nil, errors.Wrap(err, "holder")
	}
	now, err := rebase.BlockUnixTime(ctx)
	if err != nil {
		return nil, err
	}
	h, interest, err := c.engine.Settle(db, holder, now)
	if err != nil {
		return nil, err
	}
	if !interest.IsZero() {
		if err := c.adjustTotal(db, interest, true); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// adjustTotal saturates at both ends.
func (c *Controller) adjustTotal(db rebase.KVStore, amount coin.Amount, increase bool) error {
	total, err := c.TotalSupply(db)
	if err != nil {
		return err
	}
	if increase {
		total = total.SaturatingAdd(amount)
	} else if total, err = total.Sub(amount); err != nil {
		total = coin.Amount{}
	}
	s := TotalSupply{Metadata: &rebase.Metadata{Schema: 1}, Total: total}
	_, err = c.totals.Put(db, totalKey, &s)
	return err
}
