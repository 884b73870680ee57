package app

import (
	"reflect"

	rebase "github.com/iov-one/rebase"
)

// Decorators is an ordered decorator stack. The first decorator is the
// outermost one and sees every transaction first.
type Decorators []rebase.Decorator

// ChainDecorators builds a stack from the given decorators. Nil entries,
// including typed nil pointers, are skipped so optional decorators can be
// listed inline.
func ChainDecorators(ds ...rebase.Decorator) Decorators {
	stack := make(Decorators, 0, len(ds))
	for _, d := range ds {
		if !isNil(d) {
			stack = append(stack, d)
		}
	}
	return stack
}

// WithHandler closes the stack with the final handler, usually a Router.
func (ds Decorators) WithHandler(h rebase.Handler) rebase.Handler {
	for i := len(ds) - 1; i >= 0; i-- {
		h = decorated{dec: ds[i], next: h}
	}
	return h
}

func isNil(d rebase.Decorator) bool {
	if d == nil {
		return true
	}
	v := reflect.ValueOf(d)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

type decorated struct {
	dec  rebase.Decorator
	next rebase.Handler
}

func (d decorated) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.CheckResult, error) {
	return d.dec.Check(ctx, db, tx, d.next)
}

func (d decorated) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.DeliverResult, error) {
	return d.dec.Deliver(ctx, db, tx, d.next)
}
