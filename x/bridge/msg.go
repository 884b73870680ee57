package bridge

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
)

// SendMsg burns the sender balance to be minted on another domain.
type SendMsg struct {
	Metadata    *rebase.Metadata `json:"metadata"`
	Sender      rebase.Address   `json:"sender"`
	Recipient   rebase.Address   `json:"recipient"`
	Destination string           `json:"destination"`
	Amount      coin.Amount      `json:"amount"`
}

var _ rebase.Msg = (*SendMsg)(nil)

func (SendMsg) Path() string {
	return "bridge/send"
}

func (m *SendMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Sender", m.Sender.Validate())
	errs = errors.AppendField(errs, "Recipient", m.Recipient.Validate())
	if !rebase.IsValidChainID(m.Destination) {
		errs = errors.Append(errs, errors.Field("Destination", errors.ErrInput, "invalid domain"))
	}
	if m.Amount.IsZero() {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must not be zero"))
	}
	return errs
}

// ReceiveMsg delivers a message sent by another domain.
type ReceiveMsg struct {
	Metadata *rebase.Metadata `json:"metadata"`
	Message  *Message         `json:"message"`
}

var _ rebase.Msg = (*ReceiveMsg)(nil)

func (ReceiveMsg) Path() string {
	return "bridge/receive"
}

func (m *ReceiveMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if m.Message == nil {
		return errors.Append(errs, errors.Field("Message", errors.ErrEmpty, "required"))
	}
	return errors.AppendField(errs, "Message", m.Message.Validate())
}

// RetryMsg attempts to mint a pending inbound message again.
type RetryMsg struct {
	Metadata  *rebase.Metadata `json:"metadata"`
	MessageID []byte           `json:"message_id"`
}

var _ rebase.Msg = (*RetryMsg)(nil)

func (RetryMsg) Path() string {
	return "bridge/retry"
}

func (m *RetryMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if len(m.MessageID) != 32 {
		errs = errors.Append(errs, errors.Field("MessageID", errors.ErrInput, "must be 32 bytes"))
	}
	return errs
}

// ConfigureRemoteMsg creates or replaces a remote domain.
type ConfigureRemoteMsg struct {
	Metadata *rebase.Metadata `json:"metadata"`
	DomainID string           `json:"domain_id"`
	Enabled  bool             `json:"enabled"`
	Outbound *Limiter         `json:"outbound,omitempty"`
	Inbound  *Limiter         `json:"inbound,omitempty"`
}

var _ rebase.Msg = (*ConfigureRemoteMsg)(nil)

func (ConfigureRemoteMsg) Path() string {
	return "bridge/configure_remote"
}

func (m *ConfigureRemoteMsg) Validate() error {
	return m.Remote().Validate()
}

// Remote returns the remote described by the message.
func (m *ConfigureRemoteMsg) Remote() *Remote {
	return &Remote{
		Metadata: m.Metadata,
		DomainID: m.DomainID,
		Enabled:  m.Enabled,
		Outbound: m.Outbound,
		Inbound:  m.Inbound,
	}
}

// UpdateConfigurationMsg patches the bridge configuration.
type UpdateConfigurationMsg struct {
	Metadata *rebase.Metadata `json:"metadata"`
	Patch    *Configuration   `json:"patch"`
}

var _ rebase.Msg = (*UpdateConfigurationMsg)(nil)

func (UpdateConfigurationMsg) Path() string {
	return "bridge/update_configuration"
}

func (m *UpdateConfigurationMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if m.Patch == nil {
		return errors.Wrap(errors.ErrEmpty, "patch")
	}
	return nil
}
