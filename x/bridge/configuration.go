package bridge

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/gconf"
)

const pkgName = "bridge"

// Configuration of the local bridge end.
type Configuration struct {
	Metadata *rebase.Metadata `json:"metadata"`
	// Owner may configure remote domains.
	Owner rebase.Address `json:"owner"`
	// DomainID is the identifier of the local domain.
	DomainID string `json:"domain_id"`
}

var _ gconf.OwnedConfig = (*Configuration)(nil)

func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", c.Owner.Validate())
	if !rebase.IsValidChainID(c.DomainID) {
		errs = errors.Append(errs, errors.Field("DomainID", errors.ErrInput, "invalid domain"))
	}
	return errs
}

func (c *Configuration) GetOwner() rebase.Address {
	return c.Owner
}

// NewConfiguration returns an empty configuration, for gconf.
func NewConfiguration() gconf.Configuration {
	return &Configuration{}
}

func loadConf(db gconf.ReadStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, pkgName, &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}
