package native

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/x"
)

// SendMsg moves the native asset between wallets.
type SendMsg struct {
	Metadata    *rebase.Metadata `json:"metadata"`
	Source      rebase.Address   `json:"source"`
	Destination rebase.Address   `json:"destination"`
	Amount      coin.Amount      `json:"amount"`
	Memo        string           `json:"memo,omitempty"`
}

var _ rebase.Msg = (*SendMsg)(nil)

func (SendMsg) Path() string {
	return "native/send"
}

func (m *SendMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if m.Amount.IsZero() || m.Amount.IsAll() {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be positive"))
	}
	if len(m.Memo) > 128 {
		errs = errors.Append(errs, errors.Field("Memo", errors.ErrInput, "too long"))
	}
	return errs
}

// RegisterRoutes registers the send handler.
func RegisterRoutes(r rebase.Registry, auth x.Authenticator, ctrl Controller) {
	r.Handle(&SendMsg{}, &sendHandler{auth: auth, ctrl: ctrl})
}

type sendHandler struct {
	auth x.Authenticator
	ctrl Controller
}

func (h *sendHandler) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &rebase.CheckResult{}, nil
}

func (h *sendHandler) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.MoveCoins(db, msg.Source, msg.Destination, msg.Amount); err != nil {
		return nil, err
	}
	return &rebase.DeliverResult{}, nil
}

func (h *sendHandler) validate(ctx rebase.Context, tx rebase.Tx) (*SendMsg, error) {
	var msg SendMsg
	if err := rebase.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "wallet owner signature missing")
	}
	return &msg, nil
}
