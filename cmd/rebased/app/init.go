package app

import (
	"encoding/json"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/app"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/x/bridge"
	"github.com/iov-one/rebase/x/capability"
	"github.com/iov-one/rebase/x/native"
	"github.com/iov-one/rebase/x/vault"
)

// DefaultRate is the initial global rate of a new domain, per second
// scaled by coin.Precision. It is roughly 15% a year.
var DefaultRate = coin.NewAmount(5000000000)

// DefaultNativeBalance is the native asset the operator starts with.
var DefaultNativeBalance = coin.NewAmount(1000000000000)

// GenesisTemplate produces the genesis of a new domain. The operator
// owns both configurations, may set the rate and relay bridge messages,
// and holds the initial native asset. Every remote domain starts enabled
// without limits.
func GenesisTemplate(domain string, operator rebase.Address, remotes ...string) (*app.Genesis, error) {
	if !rebase.IsValidChainID(domain) {
		return nil, errors.Wrapf(errors.ErrInput, "domain %q", domain)
	}
	if err := operator.Validate(); err != nil {
		return nil, errors.Wrap(err, "operator")
	}

	meta := &rebase.Metadata{Schema: 1}
	rems := make([]*bridge.Remote, 0, len(remotes))
	for _, r := range remotes {
		if r == domain || !rebase.IsValidChainID(r) {
			return nil, errors.Wrapf(errors.ErrInput, "remote domain %q", r)
		}
		rems = append(rems, &bridge.Remote{Metadata: meta, DomainID: r, Enabled: true})
	}

	sections := map[string]interface{}{
		"conf": map[string]interface{}{
			"capability": &capability.Configuration{Metadata: meta, Owner: operator},
			"bridge":     &bridge.Configuration{Metadata: meta, Owner: operator, DomainID: domain},
		},
		"capability": map[string]interface{}{
			"grants": []capability.GenesisGrant{
				{Address: operator, Capabilities: []capability.Capability{capability.SetRate, capability.Relay}},
				{Address: vault.Address, Capabilities: []capability.Capability{capability.MintBurn}},
				{Address: bridge.Address, Capabilities: []capability.Capability{capability.MintBurn}},
			},
		},
		"rate": map[string]interface{}{
			"initial": DefaultRate,
		},
		"native": map[string]interface{}{
			"wallets": []native.GenesisWallet{
				{Address: operator, Balance: DefaultNativeBalance},
			},
		},
		"bridge": map[string]interface{}{
			"remotes": rems,
		},
	}

	opts := make(rebase.Options, len(sections))
	for key, section := range sections {
		raw, err := json.Marshal(section)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInput, "%s section: %s", key, err)
		}
		opts[key] = raw
	}
	return &app.Genesis{ChainID: domain, AppOptions: opts}, nil
}
