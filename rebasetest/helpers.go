package rebasetest

import (
	"crypto/rand"
	"testing"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/crypto"
)

// NewKey returns a fresh ed25519 key.
func NewKey() crypto.Signer {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns the signature condition of a fresh key.
func NewCondition() rebase.Condition {
	return NewKey().PublicKey().Condition()
}

// RandomAddr returns a valid random address generated on the fly.
func RandomAddr(t testing.TB) rebase.Address {
	t.Helper()
	raw := make([]byte, rebase.AddressLength)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("cannot generate a random address: %s", err)
	}
	a := rebase.Address(raw)
	if err := a.Validate(); err != nil {
		t.Fatalf("generated address is not valid: %s", err)
	}
	return a
}
