package gconf

import (
	rebase "github.com/iov-one/rebase"
)

// Initializer loads the configuration of a single package from the
// "conf" section of the genesis file. New returns an empty instance of
// that configuration.
type Initializer struct {
	Pkg string
	New func() Configuration
}

var _ rebase.Initializer = Initializer{}

// FromGenesis stores the package configuration found in genesis.
func (i Initializer) FromGenesis(opts rebase.Options, db rebase.KVStore) error {
	return InitConfig(db, opts, i.Pkg, i.New())
}
