package sigs

import (
	"context"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/x"
)

type contextKey int // local to the sigs module

const (
	contextKeySigners contextKey = iota
)

// withSigners is a private method, as only this module
// can add a signer
func withSigners(ctx rebase.Context, signers []rebase.Condition) rebase.Context {
	return context.WithValue(ctx, contextKeySigners, signers)
}

// Authenticate reads the signers placed in the context by the Decorator.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetConditions returns who signed the current Context.
// May be empty
func (a Authenticate) GetConditions(ctx rebase.Context) []rebase.Condition {
	val, _ := ctx.Value(contextKeySigners).([]rebase.Condition)
	return val
}

// HasAddress returns true if the given address signed the current Context.
func (a Authenticate) HasAddress(ctx rebase.Context, addr rebase.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
