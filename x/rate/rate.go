/*
Package rate holds the single rate offered to new depositors. The rate
can only ever be lowered, and only by an identity holding the set_rate
capability. Holders keep the rate they were first credited with.
*/
package rate

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/orm"
	"github.com/iov-one/rebase/x/capability"
)

var currentKey = []byte("current")

// GlobalRate is the per-second rate, scaled by coin.Precision, given to
// holders on their first credit.
type GlobalRate struct {
	Metadata *rebase.Metadata `json:"metadata"`
	Rate     coin.Amount      `json:"rate"`
}

var _ orm.Model = (*GlobalRate)(nil)

func (g *GlobalRate) Validate() error {
	return errors.Wrap(g.Metadata.Validate(), "metadata")
}

// NewBucket returns the bucket holding the rate singleton.
func NewBucket() orm.ModelBucket {
	return orm.NewModelBucket("rate", &GlobalRate{})
}

// Manager reads and lowers the global rate.
type Manager struct {
	caps   capability.Checker
	bucket orm.ModelBucket
}

// NewManager returns a Manager consulting caps before every change.
func NewManager(caps capability.Checker) *Manager {
	return &Manager{caps: caps, bucket: NewBucket()}
}

// Current returns the global rate. It fails with ErrNotFound before the
// rate was initialized.
func (m *Manager) Current(db rebase.ReadOnlyKVStore) (coin.Amount, error) {
	var g GlobalRate
	if err := m.bucket.One(db, currentKey, &g); err != nil {
		return coin.Amount{}, errors.Wrap(err, "global rate")
	}
	return g.Rate, nil
}

// Set lowers the global rate. Setting the same rate again succeeds.
func (m *Manager) Set(ctx rebase.Context, db rebase.KVStore, caller rebase.Address, rate coin.Amount) error {
	if !m.caps.HasCapability(db, caller, capability.SetRate) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s cannot set the rate", caller)
	}
	current, err := m.Current(db)
	if err != nil {
		return err
	}
	if rate.GT(current) {
		return errors.Wrapf(errors.ErrRateIncrease, "from %s to %s", current, rate)
	}
	if err := m.put(db, rate); err != nil {
		return err
	}
	rebase.GetLogger(ctx).Info("global rate updated", "from", current, "to", rate)
	return nil
}

func (m *Manager) put(db rebase.KVStore, rate coin.Amount) error {
	g := GlobalRate{Metadata: &rebase.Metadata{Schema: 1}, Rate: rate}
	_, err := m.bucket.Put(db, currentKey, &g)
	return err
}

// Initializer stores the initial rate from genesis.
type Initializer struct{}

var _ rebase.Initializer = Initializer{}

// FromGenesis reads
//   "rate": {"initial": "<decimal>"}
// A missing section leaves the rate uninitialized.
func (Initializer) FromGenesis(opts rebase.Options, db rebase.KVStore) error {
	var state struct {
		Initial *coin.Amount `json:"initial"`
	}
	if err := opts.ReadOptions("rate", &state); err != nil {
		return err
	}
	if state.Initial == nil {
		return nil
	}
	if state.Initial.IsAll() {
		return errors.Wrap(errors.ErrAmount, "initial rate out of range")
	}
	return NewManager(nil).put(db, *state.Initial)
}
