package sigs

import (
	"encoding/json"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/crypto"
	"github.com/iov-one/rebase/errors"
)

// SignedTx represents a transaction that contains signatures,
// which can be verified by the Decorator
type SignedTx interface {
	// GetSignBytes returns the canonical byte representation of the Msg.
	GetSignBytes() ([]byte, error)

	// Signatures returns the signature of signers who signed the Msg.
	GetSignatures() []*StdSignature
}

// StdSignature is a single signature of a transaction, made for the
// sequence of the signing key.
type StdSignature struct {
	Pubkey    *crypto.PublicKey `json:"pubkey"`
	Signature *crypto.Signature `json:"signature"`
	Sequence  int64             `json:"sequence"`
}

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	if s == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	if s.Sequence < 0 {
		return errors.Wrap(ErrInvalidSequence, "negative")
	}
	if s.Pubkey == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if s.Signature == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}
	return nil
}

// StdTx is the transaction every node accepts: a single message and the
// signatures over it.
type StdTx struct {
	Msg        rebase.Msg
	Signatures []*StdSignature
}

var _ SignedTx = (*StdTx)(nil)
var _ rebase.Tx = (*StdTx)(nil)

// NewStdTx wraps a message into an unsigned transaction.
func NewStdTx(msg rebase.Msg) *StdTx {
	return &StdTx{Msg: msg}
}

func (tx *StdTx) GetMsg() (rebase.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "no message")
	}
	return tx.Msg, nil
}

func (tx *StdTx) GetSignatures() []*StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the message path, a zero byte and the JSON form of
// the message. Struct fields serialize in declaration order.
func (tx *StdTx) GetSignBytes() ([]byte, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrMsg, "cannot serialize %T: %s", msg, err)
	}
	out := make([]byte, 0, len(msg.Path())+1+len(raw))
	out = append(out, msg.Path()...)
	out = append(out, 0)
	out = append(out, raw...)
	return out, nil
}
