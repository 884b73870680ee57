package bridge

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/gconf"
	"github.com/iov-one/rebase/x"
	"github.com/iov-one/rebase/x/capability"
)

// RegisterRoutes registers all bridge handlers.
func RegisterRoutes(r rebase.Registry, auth x.Authenticator, caps capability.Checker, s *Service) {
	r.Handle(&SendMsg{}, &sendHandler{auth: auth, service: s})
	r.Handle(&ReceiveMsg{}, &receiveHandler{auth: auth, caps: caps, service: s})
	r.Handle(&RetryMsg{}, &retryHandler{service: s})
	r.Handle(&ConfigureRemoteMsg{}, &configureRemoteHandler{auth: auth, service: s})
	r.Handle(&UpdateConfigurationMsg{}, gconf.NewUpdateConfigurationHandler(pkgName, func() gconf.OwnedConfig { return &Configuration{} }, auth))
}

type sendHandler struct {
	auth    x.Authenticator
	service *Service
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
	sent, err := h.service.Send(ctx, db, msg.Sender, msg.Recipient, msg.Destination, msg.Amount)
	if err != nil {
		return nil, err
	}
	return &rebase.DeliverResult{Data: sent.ID, Log: sent.Amount.String()}, nil
}

func (h *sendHandler) validate(ctx rebase.Context, tx rebase.Tx) (*SendMsg, error) {
	var msg SendMsg
	if err := rebase.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Sender) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "sender signature required")
	}
	return &msg, nil
}

type receiveHandler struct {
	auth    x.Authenticator
	caps    capability.Checker
	service *Service
}

func (h *receiveHandler) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &rebase.CheckResult{}, nil
}

func (h *receiveHandler) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	cdb, ok := db.(rebase.CacheableKVStore)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "receive requires a cacheable store")
	}
	res, err := h.service.Receive(ctx, cdb, msg.Message)
	if err != nil {
		return nil, err
	}
	return deliverResult(res), nil
}

func (h *receiveHandler) validate(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*ReceiveMsg, error) {
	var msg ReceiveMsg
	if err := rebase.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	relayer := capability.Signer(ctx, db, h.auth, h.caps, capability.Relay)
	if !h.caps.HasCapability(db, relayer, capability.Relay) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "relay capability required")
	}
	return &msg, nil
}

type retryHandler struct {
	service *Service
}

func (h *retryHandler) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.CheckResult, error) {
	var msg RetryMsg
	if err := rebase.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return &rebase.CheckResult{}, nil
}

func (h *retryHandler) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.DeliverResult, error) {
	var msg RetryMsg
	if err := rebase.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	cdb, ok := db.(rebase.CacheableKVStore)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "retry requires a cacheable store")
	}
	res, err := h.service.Retry(ctx, cdb, msg.MessageID)
	if err != nil {
		return nil, err
	}
	return deliverResult(res), nil
}

func deliverResult(res *ReceiveResult) *rebase.DeliverResult {
	log := string(res.Outcome)
	if res.Err != nil {
		log += ": " + res.Err.Error()
	}
	return &rebase.DeliverResult{Data: res.Receipt.Message.ID, Log: log}
}

type configureRemoteHandler struct {
	auth    x.Authenticator
	service *Service
}

func (h *configureRemoteHandler) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &rebase.CheckResult{}, nil
}

func (h *configureRemoteHandler) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.service.ConfigureRemote(ctx, db, msg.Remote()); err != nil {
		return nil, err
	}
	return &rebase.DeliverResult{}, nil
}

func (h *configureRemoteHandler) validate(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*ConfigureRemoteMsg, error) {
	var msg ConfigureRemoteMsg
	if err := rebase.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	if !h.auth.HasAddress(ctx, conf.Owner) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "bridge owner signature required")
	}
	return &msg, nil
}
