package vault

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/app"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/rebasetest"
	"github.com/iov-one/rebase/rebasetest/assert"
	"github.com/iov-one/rebase/store"
	"github.com/iov-one/rebase/x/accrual"
	"github.com/iov-one/rebase/x/capability"
	"github.com/iov-one/rebase/x/native"
	"github.com/iov-one/rebase/x/rate"
	"github.com/iov-one/rebase/x/supply"
)

var genesisTime = time.Unix(1600000000, 0)

func atTime(offset time.Duration) rebase.Context {
	return rebase.WithBlockTime(context.Background(), genesisTime.Add(offset))
}

type fixture struct {
	db      rebase.CacheableKVStore
	service *Service
	supply  *supply.Controller
	wallets native.BaseController
}

func newFixture(t *testing.T, globalRate uint64) *fixture {
	t.Helper()
	db := store.MemStore()
	raw, err := json.Marshal(map[string]string{"initial": coin.NewAmount(globalRate).String()})
	assert.Nil(t, err)
	assert.Nil(t, rate.Initializer{}.FromGenesis(rebase.Options{"rate": raw}, db))

	caps := capability.NewStore()
	assert.Nil(t, caps.Grant(db, Address, capability.MintBurn))

	ctrl := supply.NewController(caps, accrual.NewEngine())
	wallets := native.NewController()
	s := NewService(ctrl, rate.NewManager(caps), native.NewCustody(Address, wallets))
	return &fixture{db: db, service: s, supply: ctrl, wallets: wallets}
}

func (f *fixture) fundWallet(t *testing.T, addr rebase.Address, amount uint64) {
	t.Helper()
	assert.Nil(t, f.wallets.IssueCoins(f.db, addr, coin.NewAmount(amount)))
}

func (f *fixture) wallet(t *testing.T, addr rebase.Address) coin.Amount {
	t.Helper()
	b, err := f.wallets.Balance(f.db, addr)
	assert.Nil(t, err)
	return b
}

func TestDepositAndRedeem(t *testing.T) {
	f := newFixture(t, 5e10)
	alice := rebasetest.RandomAddr(t)
	funder := rebasetest.RandomAddr(t)
	f.fundWallet(t, alice, 100000)
	f.fundWallet(t, funder, 1000)

	assert.Nil(t, f.service.Deposit(atTime(0), f.db, alice, coin.NewAmount(100000)))
	assert.Equal(t, coin.Amount{}, f.wallet(t, alice))

	ctx := atTime(time.Hour)
	got, err := f.supply.BalanceOf(ctx, f.db, alice)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewAmount(100018), got)

	// Interest is not backed until someone funds it.
	_, err = f.service.Redeem(ctx, f.db, alice, coin.MaxAmount)
	assert.IsErr(t, errors.ErrInsufficientLiquidity, err)
	got, err = f.supply.BalanceOf(ctx, f.db, alice)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewAmount(100018), got)

	assert.Nil(t, f.service.Fund(ctx, f.db, funder, coin.NewAmount(18)))
	paid, err := f.service.Redeem(ctx, f.db, alice, coin.MaxAmount)
	assert.Nil(t, err)
	assert.Equal(t, coin.NewAmount(100018), paid)
	assert.Equal(t, coin.NewAmount(100018), f.wallet(t, alice))

	reserve, err := f.service.Reserve(f.db)
	assert.Nil(t, err)
	assert.Equal(t, coin.Amount{}, reserve)
	total, err := f.supply.TotalSupply(f.db)
	assert.Nil(t, err)
	assert.Equal(t, coin.Amount{}, total)
}

func TestDepositFailures(t *testing.T) {
	f := newFixture(t, 1)
	alice := rebasetest.RandomAddr(t)
	f.fundWallet(t, alice, 10)
	ctx := atTime(0)

	assert.IsErr(t, errors.ErrAmount, f.service.Deposit(ctx, f.db, alice, coin.Amount{}))
	assert.IsErr(t, errors.ErrInsufficientBalance, f.service.Deposit(ctx, f.db, alice, coin.NewAmount(11)))

	_, err := f.service.Redeem(ctx, f.db, alice, coin.NewAmount(1))
	assert.IsErr(t, errors.ErrInsufficientBalance, err)
	_, err = f.service.Redeem(ctx, f.db, alice, coin.MaxAmount)
	assert.IsErr(t, errors.ErrAmount, err)
}

func TestDepositWithoutRate(t *testing.T) {
	db := store.MemStore()
	caps := capability.NewStore()
	assert.Nil(t, caps.Grant(db, Address, capability.MintBurn))
	wallets := native.NewController()
	s := NewService(supply.NewController(caps, accrual.NewEngine()), rate.NewManager(caps), native.NewCustody(Address, wallets))

	alice := rebasetest.RandomAddr(t)
	assert.Nil(t, wallets.IssueCoins(db, alice, coin.NewAmount(10)))
	assert.IsErr(t, errors.ErrNotFound, s.Deposit(atTime(0), db, alice, coin.NewAmount(10)))
}

func TestVaultHandlers(t *testing.T) {
	alice := rebasetest.NewCondition()
	bob := rebasetest.NewCondition()

	cases := map[string]struct {
		Signer         rebase.Condition
		Msg            rebase.Msg
		WantCheckErr   *errors.Error
		WantDeliverErr *errors.Error
		WantWallet     coin.Amount
		WantLedger     coin.Amount
	}{
		"deposit": {
			Signer: alice,
			Msg: &DepositMsg{
				Metadata:  &rebase.Metadata{Schema: 1},
				Depositor: alice.Address(),
				Amount:    coin.NewAmount(30),
			},
			WantWallet: coin.NewAmount(70),
			WantLedger: coin.NewAmount(80),
		},
		"deposit for someone else": {
			Signer: bob,
			Msg: &DepositMsg{
				Metadata:  &rebase.Metadata{Schema: 1},
				Depositor: alice.Address(),
				Amount:    coin.NewAmount(30),
			},
			WantCheckErr:   errors.ErrUnauthorized,
			WantDeliverErr: errors.ErrUnauthorized,
			WantWallet:     coin.NewAmount(100),
			WantLedger:     coin.NewAmount(50),
		},
		"deposit all is rejected": {
			Signer: alice,
			Msg: &DepositMsg{
				Metadata:  &rebase.Metadata{Schema: 1},
				Depositor: alice.Address(),
				Amount:    coin.MaxAmount,
			},
			WantCheckErr:   errors.ErrAmount,
			WantDeliverErr: errors.ErrAmount,
			WantWallet:     coin.NewAmount(100),
			WantLedger:     coin.NewAmount(50),
		},
		"redeem all": {
			Signer: alice,
			Msg: &RedeemMsg{
				Metadata: &rebase.Metadata{Schema: 1},
				Holder:   alice.Address(),
				Amount:   coin.MaxAmount,
			},
			WantWallet: coin.NewAmount(150),
			WantLedger: coin.Amount{},
		},
		"fund": {
			Signer: alice,
			Msg: &FundMsg{
				Metadata: &rebase.Metadata{Schema: 1},
				Funder:   alice.Address(),
				Amount:   coin.NewAmount(1),
			},
			WantWallet: coin.NewAmount(99),
			WantLedger: coin.NewAmount(50),
		},
		"unknown message": {
			Signer:         alice,
			Msg:            &rebasetest.Msg{RoutePath: "vault/deposit"},
			WantCheckErr:   errors.ErrMsg,
			WantDeliverErr: errors.ErrMsg,
			WantWallet:     coin.NewAmount(100),
			WantLedger:     coin.NewAmount(50),
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t, 0)
			ctx := atTime(0)
			f.fundWallet(t, alice.Address(), 150)
			assert.Nil(t, f.service.Deposit(ctx, f.db, alice.Address(), coin.NewAmount(50)))

			rt := app.NewRouter()
			RegisterRoutes(rt, &rebasetest.Auth{Signer: tc.Signer}, f.service)

			tx := &rebasetest.Tx{Msg: tc.Msg}
			if _, err := rt.Check(ctx, f.db.CacheWrap(), tx); !tc.WantCheckErr.Is(err) {
				t.Fatalf("unexpected check error: %+v", err)
			}
			if _, err := rt.Deliver(ctx, f.db, tx); !tc.WantDeliverErr.Is(err) {
				t.Fatalf("unexpected deliver error: %+v", err)
			}
			assert.Equal(t, tc.WantWallet, f.wallet(t, alice.Address()))
			got, err := f.supply.BalanceOf(ctx, f.db, alice.Address())
			assert.Nil(t, err)
			assert.Equal(t, tc.WantLedger, got)
		})
	}
}
