package capability

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/orm"
)

// Capability names a privileged operation.
type Capability string

const (
	// MintBurn allows to create and destroy ledger balance.
	MintBurn Capability = "mint_burn"
	// SetRate allows to lower the global rate.
	SetRate Capability = "set_rate"
	// Relay allows to deliver inbound bridge messages.
	Relay Capability = "relay"
)

// All lists every known capability.
var All = []Capability{MintBurn, SetRate, Relay}

func (c Capability) Validate() error {
	for _, known := range All {
		if c == known {
			return nil
		}
	}
	return errors.Wrapf(errors.ErrInput, "unknown capability %q", string(c))
}

// Grants is the list of capabilities held by a single address.
type Grants struct {
	Metadata     *rebase.Metadata `json:"metadata"`
	Capabilities []string         `json:"capabilities"`
}

var _ orm.Model = (*Grants)(nil)

func (g *Grants) Validate() error {
	if err := g.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	for i, c := range g.Capabilities {
		if err := Capability(c).Validate(); err != nil {
			return errors.Wrapf(err, "capability #%d", i)
		}
	}
	return nil
}

// Has returns true if c is granted.
func (g *Grants) Has(c Capability) bool {
	for _, got := range g.Capabilities {
		if got == string(c) {
			return true
		}
	}
	return false
}

// NewGrantsBucket returns the bucket of grants, keyed by address.
func NewGrantsBucket() orm.ModelBucket {
	return orm.NewModelBucket("capgrant", &Grants{})
}
