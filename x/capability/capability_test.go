package capability

import (
	"context"
	"encoding/json"
	"testing"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/app"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/gconf"
	"github.com/iov-one/rebase/rebasetest"
	"github.com/iov-one/rebase/rebasetest/assert"
	"github.com/iov-one/rebase/store"
	"github.com/iov-one/rebase/x"
)

func TestStore(t *testing.T) {
	db := store.MemStore()
	s := NewStore()
	alice := rebasetest.RandomAddr(t)

	if s.HasCapability(db, alice, MintBurn) {
		t.Fatal("unknown address must not hold capabilities")
	}
	if s.HasCapability(db, nil, MintBurn) {
		t.Fatal("empty address must not hold capabilities")
	}

	assert.Nil(t, s.Grant(db, alice, MintBurn))
	assert.Nil(t, s.Grant(db, alice, MintBurn))
	assert.Nil(t, s.Grant(db, alice, Relay))
	if !s.HasCapability(db, alice, MintBurn) {
		t.Fatal("granted capability not found")
	}
	if s.HasCapability(db, alice, SetRate) {
		t.Fatal("capability never granted")
	}

	caps, err := s.Capabilities(db, alice)
	assert.Nil(t, err)
	assert.Equal(t, []Capability{MintBurn, Relay}, caps)

	assert.Nil(t, s.Revoke(db, alice, MintBurn))
	if s.HasCapability(db, alice, MintBurn) {
		t.Fatal("revoked capability still held")
	}
	assert.IsErr(t, errors.ErrNotFound, s.Revoke(db, alice, MintBurn))
	assert.IsErr(t, errors.ErrInput, s.Grant(db, alice, Capability("superuser")))
}

func TestStoreFailsClosed(t *testing.T) {
	db := store.MemStore()
	alice := rebasetest.RandomAddr(t)
	// A record that cannot be decoded.
	assert.Nil(t, db.Set(append([]byte("capgrant:"), alice...), []byte{0xff, 0xff, 0xff}))
	if NewStore().HasCapability(db, alice, MintBurn) {
		t.Fatal("corrupted grant must not authorize")
	}
}

func TestSigner(t *testing.T) {
	db := store.MemStore()
	s := NewStore()
	plain := rebasetest.NewCondition()
	minter := rebasetest.NewCondition()
	assert.Nil(t, s.Grant(db, minter.Address(), MintBurn))

	auth := &rebasetest.Auth{Signers: []rebase.Condition{plain, minter}}
	got := Signer(context.Background(), db, auth, s, MintBurn)
	assert.Equal(t, minter.Address(), got)

	got = Signer(context.Background(), db, auth, s, SetRate)
	assert.Equal(t, plain.Address(), got)

	got = Signer(context.Background(), db, &rebasetest.Auth{}, s, SetRate)
	assert.Nil(t, got)
}

func TestGrantHandlers(t *testing.T) {
	owner := rebasetest.NewCondition()
	other := rebasetest.NewCondition()
	target := rebasetest.RandomAddr(t)

	cases := map[string]struct {
		Tx             rebase.Tx
		Auth           x.Authenticator
		WantCheckErr   *errors.Error
		WantDeliverErr *errors.Error
		WantCaps       []Capability
	}{
		"owner can grant": {
			Tx: &rebasetest.Tx{Msg: &GrantMsg{
				Metadata:   &rebase.Metadata{Schema: 1},
				Address:    target,
				Capability: SetRate,
			}},
			Auth:     &rebasetest.Auth{Signer: owner},
			WantCaps: []Capability{Relay, SetRate},
		},
		"owner can revoke": {
			Tx: &rebasetest.Tx{Msg: &RevokeMsg{
				Metadata:   &rebase.Metadata{Schema: 1},
				Address:    target,
				Capability: Relay,
			}},
			Auth:     &rebasetest.Auth{Signer: owner},
			WantCaps: []Capability{},
		},
		"revoking a missing capability fails": {
			Tx: &rebasetest.Tx{Msg: &RevokeMsg{
				Metadata:   &rebase.Metadata{Schema: 1},
				Address:    target,
				Capability: MintBurn,
			}},
			Auth:           &rebasetest.Auth{Signer: owner},
			WantDeliverErr: errors.ErrNotFound,
			WantCaps:       []Capability{Relay},
		},
		"only the owner can grant": {
			Tx: &rebasetest.Tx{Msg: &GrantMsg{
				Metadata:   &rebase.Metadata{Schema: 1},
				Address:    target,
				Capability: MintBurn,
			}},
			Auth:           &rebasetest.Auth{Signer: other},
			WantCheckErr:   errors.ErrUnauthorized,
			WantDeliverErr: errors.ErrUnauthorized,
			WantCaps:       []Capability{Relay},
		},
		"unknown capability": {
			Tx: &rebasetest.Tx{Msg: &GrantMsg{
				Metadata:   &rebase.Metadata{Schema: 1},
				Address:    target,
				Capability: "root",
			}},
			Auth:           &rebasetest.Auth{Signer: owner},
			WantCheckErr:   errors.ErrInput,
			WantDeliverErr: errors.ErrInput,
			WantCaps:       []Capability{Relay},
		},
		"metadata is required": {
			Tx: &rebasetest.Tx{Msg: &GrantMsg{
				Address:    target,
				Capability: MintBurn,
			}},
			Auth:           &rebasetest.Auth{Signer: owner},
			WantCheckErr:   errors.ErrMetadata,
			WantDeliverErr: errors.ErrMetadata,
			WantCaps:       []Capability{Relay},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			s := NewStore()
			conf := &Configuration{Metadata: &rebase.Metadata{Schema: 1}, Owner: owner.Address()}
			assert.Nil(t, gconf.Save(db, pkgName, conf))
			assert.Nil(t, s.Grant(db, target, Relay))

			rt := app.NewRouter()
			RegisterRoutes(rt, tc.Auth, s)

			cache := db.CacheWrap()
			if _, err := rt.Check(context.TODO(), cache, tc.Tx); !tc.WantCheckErr.Is(err) {
				t.Fatalf("unexpected check error: %s", err)
			}
			cache.Discard()
			if _, err := rt.Deliver(context.TODO(), db, tc.Tx); !tc.WantDeliverErr.Is(err) {
				t.Fatalf("unexpected deliver error: %s", err)
			}

			caps, err := s.Capabilities(db, target)
			assert.Nil(t, err)
			assert.Equal(t, tc.WantCaps, caps)
		})
	}
}

func TestGenesis(t *testing.T) {
	alice := rebasetest.RandomAddr(t)
	raw, err := json.Marshal(map[string]interface{}{
		"grants": []GenesisGrant{
			{Address: alice, Capabilities: []Capability{MintBurn, SetRate}},
		},
	})
	assert.Nil(t, err)

	db := store.MemStore()
	var genesis Initializer
	assert.Nil(t, genesis.FromGenesis(rebase.Options{optKey: raw}, db))

	s := NewStore()
	if !s.HasCapability(db, alice, SetRate) {
		t.Fatal("genesis grant missing")
	}

	bad, err := json.Marshal(map[string]interface{}{
		"grants": []GenesisGrant{{Address: alice, Capabilities: []Capability{"nope"}}},
	})
	assert.Nil(t, err)
	assert.IsErr(t, errors.ErrInput, genesis.FromGenesis(rebase.Options{optKey: bad}, store.MemStore()))
}
