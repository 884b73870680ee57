package supply

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/x"
)

// RegisterRoutes registers the holder initiated operations.
func RegisterRoutes(r rebase.Registry, auth x.Authenticator, ctrl *Controller) {
	r.Handle(&TransferMsg{}, &transferHandler{auth: auth, ctrl: ctrl})
	r.Handle(&ApproveMsg{}, &approveHandler{auth: auth, ctrl: ctrl})
	r.Handle(&TransferFromMsg{}, &transferFromHandler{auth: auth, ctrl: ctrl})
}

type transferHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

func (h *transferHandler) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &rebase.CheckResult{}, nil
}

func (h *transferHandler) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	moved, err := h.ctrl.Transfer(ctx, db, msg.Source, msg.Destination, msg.Amount)
	if err != nil {
		return nil, err
	}
	return &rebase.DeliverResult{Log: moved.String()}, nil
}

func (h *transferHandler) validate(ctx rebase.Context, tx rebase.Tx) (*TransferMsg, error) {
	var msg TransferMsg
	if err := rebase.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "source signature required")
	}
	return &msg, nil
}

type approveHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

func (h *approveHandler) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &rebase.CheckResult{}, nil
}

func (h *approveHandler) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := h.ctrl.Approve(db, msg.Owner, msg.Spender, msg.Amount); err != nil {
		return nil, err
	}
	return &rebase.DeliverResult{}, nil
}

func (h *approveHandler) validate(ctx rebase.Context, tx rebase.Tx) (*ApproveMsg, error) {
	var msg ApproveMsg
	if err := rebase.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Owner) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "owner signature required")
	}
	return &msg, nil
}

type transferFromHandler struct {
	auth x.Authenticator
	ctrl *Controller
}

func (h *transferFromHandler) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.CheckResult, error) {
	if _, err := h.validate(ctx, tx); err != nil {
		return nil, err
	}
	return &rebase.CheckResult{}, nil
}

func (h *transferFromHandler) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.DeliverResult, error) {
	msg, err := h.validate(ctx, tx)
	if err != nil {
		return nil, err
	}
	moved, err := h.ctrl.TransferFrom(ctx, db, msg.Spender, msg.Owner, msg.Destination, msg.Amount)
	if err != nil {
		return nil, err
	}
	return &rebase.DeliverResult{Log: moved.String()}, nil
}

func (h *transferFromHandler) validate(ctx rebase.Context, tx rebase.Tx) (*TransferFromMsg, error) {
	var msg TransferFromMsg
	if err := rebase.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Spender) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "spender signature required")
	}
	return &msg, nil
}
