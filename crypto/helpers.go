/*
Package crypto holds the ed25519 keys used to sign ledger transactions.
A public key maps to the condition "sigs/ed25519/<public key>" and
from there to an address.
*/
package crypto

import (
	rebase "github.com/iov-one/rebase"
)

// ExtensionName is used for the Conditions we get from signatures
const ExtensionName = "sigs"

// Signer is the functionality we use from a private key
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) (*Signature, error)
	PublicKey() *PublicKey
}

// PublicKey is an ed25519 public key.
type PublicKey struct {
	Ed25519 []byte `json:"ed25519"`
}

// PrivateKey is an ed25519 private key, seed and public part included.
type PrivateKey struct {
	Ed25519 []byte `json:"ed25519"`
}

// Signature is an ed25519 signature.
type Signature struct {
	Ed25519 []byte `json:"ed25519"`
}

// Address returns the address of the signature condition of this key.
func (p *PublicKey) Address() rebase.Address {
	return p.Condition().Address()
}
