package supply

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
)

// TransferMsg moves ledger balance between two holders. An amount of
// "all" moves the whole balance.
type TransferMsg struct {
	Metadata    *rebase.Metadata `json:"metadata"`
	Source      rebase.Address   `json:"source"`
	Destination rebase.Address   `json:"destination"`
	Amount      coin.Amount      `json:"amount"`
}

var _ rebase.Msg = (*TransferMsg)(nil)

func (TransferMsg) Path() string {
	return "supply/transfer"
}

func (m *TransferMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if m.Amount.IsZero() {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must not be zero"))
	}
	return errs
}

// ApproveMsg sets the allowance of a spender over the owner balance.
type ApproveMsg struct {
	Metadata *rebase.Metadata `json:"metadata"`
	Owner    rebase.Address   `json:"owner"`
	Spender  rebase.Address   `json:"spender"`
	Amount   coin.Amount      `json:"amount"`
}

var _ rebase.Msg = (*ApproveMsg)(nil)

func (ApproveMsg) Path() string {
	return "supply/approve"
}

func (m *ApproveMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	errs = errors.AppendField(errs, "Spender", m.Spender.Validate())
	return errs
}

// TransferFromMsg moves balance out of an owner account, signed by a
// spender holding an allowance.
type TransferFromMsg struct {
	Metadata    *rebase.Metadata `json:"metadata"`
	Spender     rebase.Address   `json:"spender"`
	Owner       rebase.Address   `json:"owner"`
	Destination rebase.Address   `json:"destination"`
	Amount      coin.Amount      `json:"amount"`
}

var _ rebase.Msg = (*TransferFromMsg)(nil)

func (TransferFromMsg) Path() string {
	return "supply/transfer_from"
}

func (m *TransferFromMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Spender", m.Spender.Validate())
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if m.Amount.IsZero() {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must not be zero"))
	}
	return errs
}
