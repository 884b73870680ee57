package capability

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
)

// GrantMsg gives a capability to an address.
type GrantMsg struct {
	Metadata   *rebase.Metadata `json:"metadata"`
	Address    rebase.Address   `json:"address"`
	Capability Capability       `json:"capability"`
}

var _ rebase.Msg = (*GrantMsg)(nil)

func (GrantMsg) Path() string {
	return "capability/grant"
}

func (m *GrantMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Address", m.Address.Validate())
	errs = errors.AppendField(errs, "Capability", m.Capability.Validate())
	return errs
}

// RevokeMsg takes a capability away from an address.
type RevokeMsg struct {
	Metadata   *rebase.Metadata `json:"metadata"`
	Address    rebase.Address   `json:"address"`
	Capability Capability       `json:"capability"`
}

var _ rebase.Msg = (*RevokeMsg)(nil)

func (RevokeMsg) Path() string {
	return "capability/revoke"
}

func (m *RevokeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Address", m.Address.Validate())
	errs = errors.AppendField(errs, "Capability", m.Capability.Validate())
	return errs
}

// UpdateConfigurationMsg patches the capability configuration.
type UpdateConfigurationMsg struct {
	Metadata *rebase.Metadata `json:"metadata"`
	Patch    *Configuration   `json:"patch"`
}

var _ rebase.Msg = (*UpdateConfigurationMsg)(nil)

func (UpdateConfigurationMsg) Path() string {
	return "capability/update_configuration"
}

func (m *UpdateConfigurationMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if m.Patch == nil {
		return errors.Wrap(errors.ErrEmpty, "patch")
	}
	if len(m.Patch.Owner) != 0 {
		return errors.Wrap(m.Patch.Owner.Validate(), "owner")
	}
	return nil
}
