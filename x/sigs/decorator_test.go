package sigs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/crypto"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/rebasetest"
	"github.com/iov-one/rebase/store"
)

func TestDecorator(t *testing.T) {
	const chainID = "domain-a"
	ctx := rebase.WithChainID(context.Background(), chainID)
	key := crypto.GenPrivKeyEd25519()
	want := []rebase.Condition{key.PublicKey().Condition()}

	type phase func(kv rebase.KVStore, tx rebase.Tx, next *SigCheckHandler) error
	phases := map[string]phase{
		"check": func(kv rebase.KVStore, tx rebase.Tx, next *SigCheckHandler) error {
			_, err := NewDecorator().Check(ctx, kv, tx, next)
			return err
		},
		"deliver": func(kv rebase.KVStore, tx rebase.Tx, next *SigCheckHandler) error {
			_, err := NewDecorator().Deliver(ctx, kv, tx, next)
			return err
		},
	}

	for name, run := range phases {
		t.Run(name, func(t *testing.T) {
			kv := store.MemStore()
			next := new(SigCheckHandler)
			tx := NewStdTx(&rebasetest.Msg{RoutePath: "vault/deposit"})

			err := run(kv, tx, next)
			assert.True(t, errors.ErrUnauthorized.Is(err), "%+v", err)

			first, err := SignTx(key, tx, chainID, 0)
			require.NoError(t, err)
			tx.Signatures = []*StdSignature{first}
			require.NoError(t, run(kv, tx, next))
			assert.Equal(t, want, next.Signers)

			// The same sequence cannot be used twice.
			next.Signers = nil
			assert.Error(t, run(kv, tx, next))
			assert.Nil(t, next.Signers)

			second, err := SignTx(key, tx, chainID, 1)
			require.NoError(t, err)
			tx.Signatures = []*StdSignature{second}
			require.NoError(t, run(kv, tx, next))
			assert.Equal(t, want, next.Signers)

			// A signature for another domain is rejected.
			foreign, err := SignTx(key, tx, "domain-b", 2)
			require.NoError(t, err)
			tx.Signatures = []*StdSignature{foreign}
			assert.Error(t, run(kv, tx, next))
		})
	}
}

func TestDecoratorPassesUnsignedTx(t *testing.T) {
	kv := store.MemStore()
	signers := new(SigCheckHandler)
	ctx := rebase.WithChainID(context.Background(), "domain-unsigned")

	_, err := NewDecorator().Deliver(ctx, kv, &rebasetest.Tx{Msg: &rebasetest.Msg{RoutePath: "a/b"}}, signers)
	require.NoError(t, err)
	assert.Empty(t, signers.Signers)
}

func TestAuthenticate(t *testing.T) {
	cond := rebasetest.NewCondition()
	other := rebasetest.NewCondition()
	ctx := withSigners(context.Background(), []rebase.Condition{cond})

	var auth Authenticate
	assert.Equal(t, []rebase.Condition{cond}, auth.GetConditions(ctx))
	assert.True(t, auth.HasAddress(ctx, cond.Address()))
	assert.False(t, auth.HasAddress(ctx, other.Address()))
	assert.Empty(t, auth.GetConditions(context.Background()))
}

// SigCheckHandler stores the seen signers on each call
type SigCheckHandler struct {
	Signers []rebase.Condition
}

var _ rebase.Handler = (*SigCheckHandler)(nil)

func (s *SigCheckHandler) Check(ctx rebase.Context, store rebase.KVStore, tx rebase.Tx) (*rebase.CheckResult, error) {
	s.Signers = Authenticate{}.GetConditions(ctx)
	return &rebase.CheckResult{}, nil
}

func (s *SigCheckHandler) Deliver(ctx rebase.Context, store rebase.KVStore, tx rebase.Tx) (*rebase.DeliverResult, error) {
	s.Signers = Authenticate{}.GetConditions(ctx)
	return &rebase.DeliverResult{}, nil
}
