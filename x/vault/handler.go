package vault

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/x"
)

// DepositMsg exchanges the native asset for ledger balance.
type DepositMsg struct {
	Metadata  *rebase.Metadata `json:"metadata"`
	Depositor rebase.Address   `json:"depositor"`
	Amount    coin.Amount      `json:"amount"`
}

var _ rebase.Msg = (*DepositMsg)(nil)

func (DepositMsg) Path() string {
	return "vault/deposit"
}

func (m *DepositMsg) Validate() error {
	return validate(m.Metadata, "Depositor", m.Depositor, m.Amount, false)
}

// RedeemMsg exchanges ledger balance for the native asset. An amount of
// "all" redeems everything.
type RedeemMsg struct {
	Metadata *rebase.Metadata `json:"metadata"`
	Holder   rebase.Address   `json:"holder"`
	Amount   coin.Amount      `json:"amount"`
}

var _ rebase.Msg = (*RedeemMsg)(nil)

func (RedeemMsg) Path() string {
	return "vault/redeem"
}

func (m *RedeemMsg) Validate() error {
	return validate(m.Metadata, "Holder", m.Holder, m.Amount, true)
}

// FundMsg adds to the reserve that pays out interest.
type FundMsg struct {
	Metadata *rebase.Metadata `json:"metadata"`
	Funder   rebase.Address   `json:"funder"`
	Amount   coin.Amount      `json:"amount"`
}

var _ rebase.Msg = (*FundMsg)(nil)

func (FundMsg) Path() string {
	return "vault/fund"
}

func (m *FundMsg) Validate() error {
	return validate(m.Metadata, "Funder", m.Funder, m.Amount, false)
}

func validate(meta *rebase.Metadata, field string, addr rebase.Address, amount coin.Amount, allowAll bool) error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", meta.Validate())
	errs = errors.AppendField(errs, field, addr.Validate())
	if amount.IsZero() {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must not be zero"))
	}
	if amount.IsAll() && !allowAll {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "out of range"))
	}
	return errs
}

// RegisterRoutes registers the vault handlers.
func RegisterRoutes(r rebase.Registry, auth x.Authenticator, s *Service) {
	r.Handle(&DepositMsg{}, &vaultHandler{auth: auth, service: s})
	r.Handle(&RedeemMsg{}, &vaultHandler{auth: auth, service: s})
	r.Handle(&FundMsg{}, &vaultHandler{auth: auth, service: s})
}

type vaultHandler struct {
	auth    x.Authenticator
	service *Service
}

func (h *vaultHandler) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &rebase.CheckResult{}, nil
}

func (h *vaultHandler) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	switch msg := msg.(type) {
	case *DepositMsg:
		err = h.service.Deposit(ctx, db, msg.Depositor, msg.Amount)
	case *FundMsg:
		err = h.service.Fund(ctx, db, msg.Funder, msg.Amount)
	case *RedeemMsg:
		paid, err := h.service.Redeem(ctx, db, msg.Holder, msg.Amount)
		if err != nil {
			return nil, err
		}
		return &rebase.DeliverResult{Log: paid.String()}, nil
	}
	if err != nil {
		return nil, err
	}
	return &rebase.DeliverResult{}, nil
}

func (h *vaultHandler) validate(ctx rebase.Context, tx rebase.Tx) (rebase.Msg, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	var signer rebase.Address
	switch msg := msg.(type) {
	case *DepositMsg:
		signer = msg.Depositor
	case *RedeemMsg:
		signer = msg.Holder
	case *FundMsg:
		signer = msg.Funder
	default:
		return nil, errors.WithType(errors.ErrMsg, msg)
	}
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid message")
	}
	if !h.auth.HasAddress(ctx, signer) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "signature required")
	}
	return msg, nil
}
