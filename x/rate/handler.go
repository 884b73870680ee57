package rate

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/x"
	"github.com/iov-one/rebase/x/capability"
)

// SetRateMsg lowers the global rate.
type SetRateMsg struct {
	Metadata *rebase.Metadata `json:"metadata"`
	Rate     coin.Amount      `json:"rate"`
}

var _ rebase.Msg = (*SetRateMsg)(nil)

func (SetRateMsg) Path() string {
	return "rate/set"
}

func (m *SetRateMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if m.Rate.IsAll() {
		return errors.Wrap(errors.ErrAmount, "rate out of range")
	}
	return nil
}

// RegisterRoutes registers the rate handler.
func RegisterRoutes(r rebase.Registry, auth x.Authenticator, caps capability.Checker, m *Manager) {
	r.Handle(&SetRateMsg{}, &setRateHandler{auth: auth, caps: caps, manager: m})
}

type setRateHandler struct {
	auth    x.Authenticator
	caps    capability.Checker
	manager *Manager
}

func (h *setRateHandler) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &rebase.CheckResult{}, nil
}

func (h *setRateHandler) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.DeliverResult, error) {
	msg, caller, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.manager.Set(ctx, db, caller, msg.Rate); err != nil {
		return nil, err
	}
	return &rebase.DeliverResult{Log: msg.Rate.String()}, nil
}

func (h *setRateHandler) validate(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*SetRateMsg, rebase.Address, error) {
	var msg SetRateMsg
	if err := rebase.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	caller := capability.Signer(ctx, db, h.auth, h.caps, capability.SetRate)
	if !h.caps.HasCapability(db, caller, capability.SetRate) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "set_rate capability required")
	}
	return &msg, caller, nil
}
