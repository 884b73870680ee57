/*
Package capability decides which identity may perform a privileged
operation. Grants are stored per address and consulted through the
Checker interface, so the ledger never depends on how grants are made.
*/
package capability

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/orm"
	"github.com/iov-one/rebase/x"
)

// Checker answers "may this identity perform this operation".
type Checker interface {
	HasCapability(db rebase.ReadOnlyKVStore, addr rebase.Address, c Capability) bool
}

// Store is the Checker backed by the grants bucket.
type Store struct {
	bucket orm.ModelBucket
}

var _ Checker = (*Store)(nil)

// NewStore returns a Store using the default grants bucket.
func NewStore() *Store {
	return &Store{bucket: NewGrantsBucket()}
}

// HasCapability returns false for unknown addresses and for any storage
// error.
func (s *Store) HasCapability(db rebase.ReadOnlyKVStore, addr rebase.Address, c Capability) bool {
	if len(addr) == 0 {
		return false
	}
	var g Grants
	if err := s.bucket.One(db, addr, &g); err != nil {
		return false
	}
	return g.Has(c)
}

// Capabilities returns all capabilities granted to addr.
func (s *Store) Capabilities(db rebase.ReadOnlyKVStore, addr rebase.Address) ([]Capability, error) {
	var g Grants
	switch err := s.bucket.One(db, addr, &g); {
	case err == nil:
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
	caps := make([]Capability, len(g.Capabilities))
	for i, c := range g.Capabilities {
		caps[i] = Capability(c)
	}
	return caps, nil
}

// Grant adds c to the capabilities of addr. Granting twice is a no-op.
func (s *Store) Grant(db rebase.KVStore, addr rebase.Address, c Capability) error {
	if err := addr.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	g := Grants{Metadata: &rebase.Metadata{Schema: 1}}
	switch err := s.bucket.One(db, addr, &g); {
	case err == nil, errors.ErrNotFound.Is(err):
	default:
		return errors.Wrap(err, "cannot load grants")
	}
	if g.Has(c) {
		return nil
	}
	g.Capabilities = append(g.Capabilities, string(c))
	_, err := s.bucket.Put(db, addr, &g)
	return err
}

// Revoke removes c from the capabilities of addr. It fails with
// ErrNotFound if c was not granted.
func (s *Store) Revoke(db rebase.KVStore, addr rebase.Address, c Capability) error {
	var g Grants
	if err := s.bucket.One(db, addr, &g); err != nil {
		return errors.Wrap(err, "cannot load grants")
	}
	if !g.Has(c) {
		return errors.Wrapf(errors.ErrNotFound, "%s not granted to %s", c, addr)
	}
	kept := g.Capabilities[:0]
	for _, got := range g.Capabilities {
		if got != string(c) {
			kept = append(kept, got)
		}
	}
	g.Capabilities = kept
	_, err := s.bucket.Put(db, addr, &g)
	return err
}

// Signer returns the first address that signed the current transaction
// and holds c. When none does, the main signer is returned so that the
// controller reports the missing capability. The result is nil for an
// unsigned transaction.
func Signer(ctx rebase.Context, db rebase.ReadOnlyKVStore, auth x.Authenticator, caps Checker, c Capability) rebase.Address {
	for _, addr := range x.GetAddresses(ctx, auth) {
		if caps.HasCapability(db, addr, c) {
			return addr
		}
	}
	if main := x.MainSigner(ctx, auth); main != nil {
		return main.Address()
	}
	return nil
}
