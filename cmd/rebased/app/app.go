/*
Package app links together all the various components
to construct a rebased domain node.
*/
package app

import (
	"fmt"
	"path/filepath"
	"strings"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/app"
	"github.com/iov-one/rebase/gconf"
	"github.com/iov-one/rebase/store/iavl"
	"github.com/iov-one/rebase/x"
	"github.com/iov-one/rebase/x/accrual"
	"github.com/iov-one/rebase/x/bridge"
	"github.com/iov-one/rebase/x/capability"
	"github.com/iov-one/rebase/x/native"
	"github.com/iov-one/rebase/x/rate"
	"github.com/iov-one/rebase/x/sigs"
	"github.com/iov-one/rebase/x/supply"
	"github.com/iov-one/rebase/x/utils"
	"github.com/iov-one/rebase/x/vault"
)

// Authenticator accepts ed25519 signatures verified by the sigs decorator.
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{})
}

// Chain returns the decorators every transaction passes before routing.
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		sigs.NewDecorator(),
		utils.NewSavepoint(utils.OnDeliver),
	)
}

// Domain holds the services of a single ledger domain.
type Domain struct {
	Caps   *capability.Store
	Rates  *rate.Manager
	Supply *supply.Controller
	Native native.BaseController
	Vault  *vault.Service
	Bridge *bridge.Service
}

// NewDomain wires all services together.
func NewDomain() *Domain {
	caps := capability.NewStore()
	rates := rate.NewManager(caps)
	ledger := supply.NewController(caps, accrual.NewEngine())
	cash := native.NewController()
	return &Domain{
		Caps:   caps,
		Rates:  rates,
		Supply: ledger,
		Native: cash,
		Vault:  vault.NewService(ledger, rates, native.NewCustody(vault.Address, cash)),
		Bridge: bridge.NewService(ledger),
	}
}

// Router returns a router with every domain message registered.
func (d *Domain) Router(authFn x.Authenticator) *app.Router {
	r := app.NewRouter()
	capability.RegisterRoutes(r, authFn, d.Caps)
	rate.RegisterRoutes(r, authFn, d.Caps, d.Rates)
	supply.RegisterRoutes(r, authFn, d.Supply)
	native.RegisterRoutes(r, authFn, d.Native)
	vault.RegisterRoutes(r, authFn, d.Vault)
	bridge.RegisterRoutes(r, authFn, d.Caps, d.Bridge)
	return r
}

// Stack wires up the router with the standard decorator chain.
func (d *Domain) Stack() rebase.Handler {
	authFn := Authenticator()
	return Chain().WithHandler(d.Router(authFn))
}

// Tickers returns the tickers run at every node tick.
func (d *Domain) Tickers() []rebase.Ticker {
	return []rebase.Ticker{bridge.NewRetryTicker(d.Bridge)}
}

// Initializers returns the genesis initializers of all extensions. Both
// the capability and the bridge configuration are required.
func Initializers() rebase.Initializer {
	return rebase.ChainInitializers(
		gconf.Initializer{Pkg: "capability", New: func() gconf.Configuration { return &capability.Configuration{} }},
		gconf.Initializer{Pkg: "bridge", New: bridge.NewConfiguration},
		capability.Initializer{},
		rate.Initializer{},
		native.Initializer{},
		bridge.Initializer{},
	)
}

// CommitKVStore returns an initialized store that persists the data to
// the named path. An empty path gives an in memory store.
func CommitKVStore(dbPath string) (iavl.CommitStore, error) {
	if dbPath == "" {
		return iavl.NewCommitStore("", "rebased")
	}

	path, err := filepath.Abs(dbPath)
	if err != nil {
		return iavl.CommitStore{}, fmt.Errorf("invalid database name: %s", path)
	}
	// Some external calls accidentally add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))
	return iavl.NewCommitStore(filepath.Dir(path), filepath.Base(path))
}

// Node opens the domain node stored at dbPath. Call the returned function
// to release the database.
func Node(dbPath string, opts ...app.Option) (*app.Node, *Domain, func(), error) {
	kv, err := CommitKVStore(dbPath)
	if err != nil {
		return nil, nil, nil, err
	}
	d := NewDomain()
	opts = append([]app.Option{app.WithTickers(d.Tickers()...)}, opts...)
	n, err := app.NewNode(kv, d.Stack(), Initializers(), opts...)
	if err != nil {
		kv.Close()
		return nil, nil, nil, err
	}
	return n, d, kv.Close, nil
}
