/*
Package sigs authenticates transactions by their ed25519 signatures and
keeps a per key sequence that protects against replays.
*/
package sigs

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
)

// Decorator verifies the signatures of a SignedTx and exposes the
// signing conditions to the handlers below it through Authenticate. A
// SignedTx without signatures is rejected. Other transactions pass
// through unauthenticated.
type Decorator struct{}

var _ rebase.Decorator = Decorator{}

func NewDecorator() Decorator {
	return Decorator{}
}

func (d Decorator) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx, next rebase.Checker) (*rebase.CheckResult, error) {
	ctx, err := d.verify(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return next.Check(ctx, db, tx)
}

func (d Decorator) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx, next rebase.Deliverer) (*rebase.DeliverResult, error) {
	ctx, err := d.verify(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	return next.Deliver(ctx, db, tx)
}

// verify increments the sequence of every signer in db.
func (Decorator) verify(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (rebase.Context, error) {
	signed, ok := tx.(SignedTx)
	if !ok {
		return ctx, nil
	}
	conds, err := VerifyTxSignatures(db, signed, rebase.GetChainID(ctx))
	if err != nil {
		return nil, errors.Wrap(err, "verify signatures")
	}
	if len(conds) == 0 {
		return nil, errors.Wrap(errors.ErrUnauthorized, "unsigned transaction")
	}
	ctx = rebase.WithLogInfo(ctx, "signer", conds[0].Address())
	return withSigners(ctx, conds), nil
}
