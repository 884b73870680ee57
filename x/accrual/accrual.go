/*
Package accrual projects holder balances forward in time.

A holder keeps a principal, a locked per-second rate and the time of the
last settlement. The visible balance is computed lazily:

  balance = floor(principal * (Precision + rate*elapsed) / Precision)

Settlement materializes the projection into the principal. Every write to
a holder must settle first, and only once.
*/
package accrual

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/orm"
)

// Holder is the persisted accrual state of a single address.
type Holder struct {
	Metadata    *rebase.Metadata `json:"metadata"`
	Principal   coin.Amount      `json:"principal"`
	Rate        coin.Amount      `json:"rate"`
	LastAccrual rebase.UnixTime  `json:"last_accrual"`
}

var _ orm.Model = (*Holder)(nil)

func (h *Holder) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", h.Metadata.Validate())
	if h.LastAccrual < 0 {
		errs = errors.Append(errs, errors.Field("LastAccrual", errors.ErrInput, "negative"))
	}
	return errs
}

// NewBucket returns the bucket of holders, keyed by address.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("holder", &Holder{})
}

// Growth returns the growth factor after elapsed seconds, scaled by
// coin.Precision. It saturates instead of overflowing.
func Growth(rate coin.Amount, elapsed uint64) coin.Amount {
	return coin.Precision.SaturatingAdd(rate.SaturatingMul(coin.NewAmount(elapsed)))
}

// Project returns the principal grown at rate for elapsed seconds,
// truncated. It is the identity for a zero rate or zero elapsed time.
func Project(principal, rate coin.Amount, elapsed uint64) (coin.Amount, error) {
	if principal.IsZero() || rate.IsZero() || elapsed == 0 {
		return principal, nil
	}
	return coin.MulDiv(principal, Growth(rate, elapsed), coin.Precision)
}

// elapsed returns the seconds between the last accrual and now. A clock
// that went backwards counts as no time at all.
func (h *Holder) elapsed(now rebase.UnixTime) uint64 {
	if now <= h.LastAccrual {
		return 0
	}
	return uint64(now - h.LastAccrual)
}

// Engine reads and settles holders.
type Engine struct {
	bucket orm.ModelBucket
}

// NewEngine returns an Engine using the default holder bucket.
func NewEngine() *Engine {
	return &Engine{bucket: NewBucket()}
}

// Load returns the stored holder. Unknown holders are returned as a zero
// record without an error.
func (e *Engine) Load(db rebase.ReadOnlyKVStore, addr rebase.Address) (*Holder, error) {
	var h Holder
	switch err := e.bucket.One(db, addr, &h); {
	case err == nil:
		return &h, nil
	case errors.ErrNotFound.Is(err):
		return &Holder{Metadata: &rebase.Metadata{Schema: 1}}, nil
	default:
		return nil, errors.Wrap(err, "cannot load holder")
	}
}

// Save stores the holder.
func (e *Engine) Save(db rebase.KVStore, addr rebase.Address, h *Holder) error {
	if err := addr.Validate(); err != nil {
		return errors.Wrap(err, "holder address")
	}
	_, err := e.bucket.Put(db, addr, h)
	return err
}

// Settle projects the holder principal to now and persists it together
// with the new accrual time. The returned interest is the amount the
// principal grew by. Settling twice at the same time is a no-op.
func (e *Engine) Settle(db rebase.KVStore, addr rebase.Address, now rebase.UnixTime) (*Holder, coin.Amount, error) {
	h, err := e.Load(db, addr)
	if err != nil {
		return nil, coin.Amount{}, err
	}
	accrued, err := Project(h.Principal, h.Rate, h.elapsed(now))
	if err != nil {
		return nil, coin.Amount{}, errors.Wrapf(err, "settle %s", addr)
	}
	interest, err := accrued.Sub(h.Principal)
	if err != nil {
		return nil, coin.Amount{}, errors.Wrap(errors.ErrHuman, "projection decreased the principal")
	}
	h.Principal = accrued
	if now > h.LastAccrual {
		h.LastAccrual = now
	}
	if err := e.Save(db, addr, h); err != nil {
		return nil, coin.Amount{}, err
	}
	return h, interest, nil
}

// BalanceOf returns the balance the holder would have if settled now,
// without persisting anything.
func (e *Engine) BalanceOf(db rebase.ReadOnlyKVStore, addr rebase.Address, now rebase.UnixTime) (coin.Amount, error) {
	h, err := e.Load(db, addr)
	if err != nil {
		return coin.Amount{}, err
	}
	return Project(h.Principal, h.Rate, h.elapsed(now))
}

// PrincipalOf returns the persisted principal.
func (e *Engine) PrincipalOf(db rebase.ReadOnlyKVStore, addr rebase.Address) (coin.Amount, error) {
	h, err := e.Load(db, addr)
	if err != nil {
		return coin.Amount{}, err
	}
	return h.Principal, nil
}

// RateOf returns the locked personal rate, zero for unknown holders.
func (e *Engine) RateOf(db rebase.ReadOnlyKVStore, addr rebase.Address) (coin.Amount, error) {
	h, err := e.Load(db, addr)
	if err != nil {
		return coin.Amount{}, err
	}
	return h.Rate, nil
}
