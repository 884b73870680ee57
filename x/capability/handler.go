package capability

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/gconf"
	"github.com/iov-one/rebase/x"
)

// RegisterRoutes registers the grant, revoke and configuration handlers.
func RegisterRoutes(r rebase.Registry, auth x.Authenticator, store *Store) {
	r.Handle(&GrantMsg{}, &grantHandler{auth: auth, store: store})
	r.Handle(&RevokeMsg{}, &revokeHandler{auth: auth, store: store})
	r.Handle(&UpdateConfigurationMsg{}, gconf.NewUpdateConfigurationHandler(pkgName, func() gconf.OwnedConfig { return &Configuration{} }, auth))
}

type grantHandler struct {
	auth  x.Authenticator
	store *Store
}

func (h *grantHandler) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &rebase.CheckResult{}, nil
}

func (h *grantHandler) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.store.Grant(db, msg.Address, msg.Capability); err != nil {
		return nil, errors.Wrap(err, "grant")
	}
	rebase.GetLogger(ctx).Info("capability granted", "address", msg.Address, "capability", msg.Capability)
	return &rebase.DeliverResult{}, nil
}

func (h *grantHandler) validate(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*GrantMsg, error) {
	var msg GrantMsg
	if err := rebase.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := ownerSigned(ctx, db, h.auth); err != nil {
		return nil, err
	}
	return &msg, nil
}

type revokeHandler struct {
	auth  x.Authenticator
	store *Store
}

func (h *revokeHandler) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &rebase.CheckResult{}, nil
}

func (h *revokeHandler) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := h.store.Revoke(db, msg.Address, msg.Capability); err != nil {
		return nil, errors.Wrap(err, "revoke")
	}
	rebase.GetLogger(ctx).Info("capability revoked", "address", msg.Address, "capability", msg.Capability)
	return &rebase.DeliverResult{}, nil
}

func (h *revokeHandler) validate(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*RevokeMsg, error) {
	var msg RevokeMsg
	if err := rebase.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if err := ownerSigned(ctx, db, h.auth); err != nil {
		return nil, err
	}
	return &msg, nil
}

func ownerSigned(ctx rebase.Context, db rebase.KVStore, auth x.Authenticator) error {
	conf, err := loadConf(db)
	if err != nil {
		return err
	}
	if !auth.HasAddress(ctx, conf.Owner) {
		return errors.Wrap(errors.ErrUnauthorized, "configuration owner signature required")
	}
	return nil
}
