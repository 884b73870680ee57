package native

import (
	"context"
	"encoding/json"
	"testing"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/app"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/rebasetest"
	"github.com/iov-one/rebase/rebasetest/assert"
	"github.com/iov-one/rebase/store"
)

func TestMoveCoins(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()
	alice := rebasetest.RandomAddr(t)
	bob := rebasetest.RandomAddr(t)

	assert.Nil(t, ctrl.IssueCoins(db, alice, coin.NewAmount(100)))
	assert.Nil(t, ctrl.MoveCoins(db, alice, bob, coin.NewAmount(40)))

	got, err := ctrl.Balance(db, alice)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewAmount(60), got)
	got, err = ctrl.Balance(db, bob)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewAmount(40), got)

	assert.IsErr(t, errors.ErrInsufficientBalance, ctrl.MoveCoins(db, alice, bob, coin.NewAmount(61)))
	assert.IsErr(t, errors.ErrAmount, ctrl.MoveCoins(db, alice, bob, coin.Amount{}))
	assert.IsErr(t, errors.ErrEmpty, ctrl.IssueCoins(db, nil, coin.NewAmount(1)))
	assert.IsErr(t, errors.ErrOverflow, ctrl.IssueCoins(db, bob, coin.MaxAmount))
}

func TestCustody(t *testing.T) {
	db := store.MemStore()
	ctrl := NewController()
	reserve := rebase.NewCondition("vault", "module", []byte("vault")).Address()
	custody := NewCustody(reserve, ctrl)
	alice := rebasetest.RandomAddr(t)

	assert.Nil(t, ctrl.IssueCoins(db, alice, coin.NewAmount(10)))
	assert.Nil(t, custody.Receive(db, alice, coin.NewAmount(10)))
	held, err := custody.Balance(db)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewAmount(10), held)

	assert.IsErr(t, errors.ErrInsufficientBalance, custody.Send(db, alice, coin.NewAmount(11)))
	assert.Nil(t, custody.Send(db, alice, coin.NewAmount(3)))
	got, err := ctrl.Balance(db, alice)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewAmount(3), got)
}

func TestSendHandler(t *testing.T) {
	alice := rebasetest.NewCondition()
	bob := rebasetest.NewCondition()

	cases := map[string]struct {
		Signer         rebase.Condition
		Amount         coin.Amount
		WantCheckErr   *errors.Error
		WantDeliverErr *errors.Error
		WantBob        coin.Amount
	}{
		"owner sends": {
			Signer:  alice,
			Amount:  coin.NewAmount(5),
			WantBob: coin.NewAmount(5),
		},
		"not the owner": {
			Signer:         bob,
			Amount:         coin.NewAmount(5),
			WantCheckErr:   errors.ErrUnauthorized,
			WantDeliverErr: errors.ErrUnauthorized,
		},
		"not enough funds": {
			Signer:         alice,
			Amount:         coin.NewAmount(500),
			WantDeliverErr: errors.ErrInsufficientBalance,
		},
		"zero amount": {
			Signer:         alice,
			WantCheckErr:   errors.ErrAmount,
			WantDeliverErr: errors.ErrAmount,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			ctrl := NewController()
			assert.Nil(t, ctrl.IssueCoins(db, alice.Address(), coin.NewAmount(100)))

			rt := app.NewRouter()
			RegisterRoutes(rt, &rebasetest.Auth{Signer: tc.Signer}, ctrl)

			tx := &rebasetest.Tx{Msg: &SendMsg{
				Metadata:    &rebase.Metadata{Schema: 1},
				Source:      alice.Address(),
				Destination: bob.Address(),
				Amount:      tc.Amount,
			}}
			if _, err := rt.Check(context.TODO(), db.CacheWrap(), tx); !tc.WantCheckErr.Is(err) {
				t.Fatalf("unexpected check error: %+v", err)
			}
			if _, err := rt.Deliver(context.TODO(), db, tx); !tc.WantDeliverErr.Is(err) {
				t.Fatalf("unexpected deliver error: %+v", err)
			}
			got, err := ctrl.Balance(db, bob.Address())
			assert.Nil(t, err)
			assert.Equal(t, tc.WantBob, got)
		})
	}
}

func TestGenesis(t *testing.T) {
	alice := rebasetest.RandomAddr(t)
	raw, err := json.Marshal(map[string]interface{}{
		"wallets": []GenesisWallet{{Address: alice, Balance: coin.NewAmount(77)}},
	})
	assert.Nil(t, err)

	db := store.MemStore()
	assert.Nil(t, Initializer{}.FromGenesis(rebase.Options{"native": raw}, db))
	got, err := NewController().Balance(db, alice)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewAmount(77), got)

	bad := rebase.Options{"native": []byte(`{"wallets": [{"address": "` + alice.String() + `", "balance": "all"}]}`)}
	assert.IsErr(t, errors.ErrAmount, Initializer{}.FromGenesis(bad, store.MemStore()))
}
