package app

import (
	"encoding/json"
	"os"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
)

// Genesis file format. AppOptions is handed to the node initializers,
// each extension reads its own key.
type Genesis struct {
	ChainID    string         `json:"chain_id"`
	AppOptions rebase.Options `json:"app_options"`
}

// Validate returns an error if the genesis cannot initialize a node.
func (g *Genesis) Validate() error {
	if !rebase.IsValidChainID(g.ChainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %q", g.ChainID)
	}
	return nil
}

// LoadGenesis reads and validates a genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "genesis file: %s", err)
	}
	var gen Genesis
	if err := json.Unmarshal(raw, &gen); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "unmarshal genesis: %s", err)
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}
