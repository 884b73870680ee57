package x

import (
	rebase "github.com/iov-one/rebase"
)

// Authenticator tells handlers which conditions authorized the current
// transaction. Handlers receive it in their constructor so the signature
// scheme stays pluggable.
type Authenticator interface {
	// GetConditions lists the fulfilled conditions, main signer first.
	GetConditions(rebase.Context) []rebase.Condition
	HasAddress(rebase.Context, rebase.Address) bool
}

// MultiAuth merges several authenticators. A condition is fulfilled if
// any of them reports it.
type MultiAuth []Authenticator

var _ Authenticator = MultiAuth(nil)

func ChainAuth(auths ...Authenticator) MultiAuth {
	return MultiAuth(auths)
}

// GetConditions returns the conditions of all authenticators in order,
// without duplicates.
func (m MultiAuth) GetConditions(ctx rebase.Context) []rebase.Condition {
	var all []rebase.Condition
	seen := make(map[string]bool)
	for _, a := range m {
		for _, c := range a.GetConditions(ctx) {
			if !seen[c.String()] {
				seen[c.String()] = true
				all = append(all, c)
			}
		}
	}
	return all
}

func (m MultiAuth) HasAddress(ctx rebase.Context, addr rebase.Address) bool {
	for _, a := range m {
		if a.HasAddress(ctx, addr) {
			return true
		}
	}
	return false
}

// GetAddresses returns the addresses of all fulfilled conditions.
func GetAddresses(ctx rebase.Context, auth Authenticator) []rebase.Address {
	conds := auth.GetConditions(ctx)
	addrs := make([]rebase.Address, 0, len(conds))
	for _, c := range conds {
		addrs = append(addrs, c.Address())
	}
	return addrs
}

// MainSigner returns the first fulfilled condition, or nil.
func MainSigner(ctx rebase.Context, auth Authenticator) rebase.Condition {
	if conds := auth.GetConditions(ctx); len(conds) > 0 {
		return conds[0]
	}
	return nil
}
