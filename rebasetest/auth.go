package rebasetest

import (
	"context"
	"fmt"

	rebase "github.com/iov-one/rebase"
)

// Auth is a mock implementing x.Authenticator interface.
//
// This structure authenticates any of referenced conditions. Signer and
// Signers are both considered.
type Auth struct {
	// Signer represents an authentication of a single signer.
	Signer rebase.Condition

	// Signers represents an authentication of multiple signers.
	Signers []rebase.Condition
}

func (a *Auth) GetConditions(rebase.Context) []rebase.Condition {
	if a.Signer != nil {
		return append([]rebase.Condition{a.Signer}, a.Signers...)
	}
	return a.Signers
}

func (a *Auth) HasAddress(ctx rebase.Context, addr rebase.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}

// CtxAuth is a mock implementing x.Authenticator interface.
//
// This implementation is using context to store and retrieve conditions.
type CtxAuth struct {
	// Key used to set and retrieve conditions from the context.
	Key string
}

type ctxAuthKey string

func (a *CtxAuth) SetConditions(ctx rebase.Context, conds ...rebase.Condition) rebase.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), conds)
}

func (a *CtxAuth) GetConditions(ctx rebase.Context) []rebase.Condition {
	val := ctx.Value(ctxAuthKey(a.Key))
	if val == nil {
		return nil
	}
	conds, ok := val.([]rebase.Condition)
	if !ok {
		panic(fmt.Sprintf("instead of []rebase.Condition got %T", val))
	}
	return conds
}

func (a *CtxAuth) HasAddress(ctx rebase.Context, addr rebase.Address) bool {
	for _, s := range a.GetConditions(ctx) {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
