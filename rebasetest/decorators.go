package rebasetest

import rebase "github.com/iov-one/rebase"

// Decorator is a pass through rebase.Decorator that counts its calls.
// A non nil CheckErr or DeliverErr is returned instead of calling the
// next handler.
type Decorator struct {
	CheckErr   error
	DeliverErr error

	checks, delivers int
}

var _ rebase.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx, next rebase.Checker) (*rebase.CheckResult, error) {
	d.checks++
	if d.CheckErr != nil {
		return nil, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx, next rebase.Deliverer) (*rebase.DeliverResult, error) {
	d.delivers++
	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

// CallCount returns the number of Check and Deliver calls together.
func (d *Decorator) CallCount() int {
	return d.checks + d.delivers
}
