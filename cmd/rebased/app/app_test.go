package app

import (
	"context"
	"testing"
	"time"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/app"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/crypto"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/rebasetest/assert"
	"github.com/iov-one/rebase/x/native"
	"github.com/iov-one/rebase/x/rate"
	"github.com/iov-one/rebase/x/sigs"
	"github.com/iov-one/rebase/x/vault"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestNode(t *testing.T, domain string, operator crypto.Signer, remotes ...string) (*app.Node, *Domain, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	n, d, closeDB, err := Node("", app.WithClock(clk.Now))
	assert.Nil(t, err)
	t.Cleanup(closeDB)

	gen, err := GenesisTemplate(domain, operator.PublicKey().Address(), remotes...)
	assert.Nil(t, err)
	assert.Nil(t, n.InitGenesis(gen.ChainID, gen.AppOptions))
	return n, d, clk
}

func balances(t *testing.T, n *app.Node, d *Domain, addr rebase.Address) (ledger, cash coin.Amount) {
	t.Helper()
	err := n.View(context.Background(), func(ctx rebase.Context, db rebase.KVStore) error {
		var err error
		if ledger, err = d.Supply.BalanceOf(ctx, db, addr); err != nil {
			return err
		}
		cash, err = d.Native.Balance(db, addr)
		return err
	})
	assert.Nil(t, err)
	return ledger, cash
}

func TestGenesisTemplateValidation(t *testing.T) {
	operator := crypto.GenPrivKeyEd25519().PublicKey().Address()

	_, err := GenesisTemplate("x", operator)
	assert.IsErr(t, errors.ErrInput, err)
	_, err = GenesisTemplate("domain-a", nil)
	assert.IsErr(t, errors.ErrEmpty, err)
	_, err = GenesisTemplate("domain-a", operator, "domain-a")
	assert.IsErr(t, errors.ErrInput, err)
}

func TestDepositAccrueRedeem(t *testing.T) {
	ctx := context.Background()
	operator := crypto.GenPrivKeyEd25519()
	holder := crypto.GenPrivKeyEd25519()
	holderAddr := holder.PublicKey().Address()
	meta := &rebase.Metadata{Schema: 1}

	n, d, clk := newTestNode(t, "domain-a", operator)

	_, err := n.SignAndDeliver(ctx, operator, &native.SendMsg{
		Metadata:    meta,
		Source:      operator.PublicKey().Address(),
		Destination: holderAddr,
		Amount:      coin.NewAmount(100000),
	})
	assert.Nil(t, err)

	_, err = n.SignAndDeliver(ctx, holder, &vault.DepositMsg{
		Metadata:  meta,
		Depositor: holderAddr,
		Amount:    coin.NewAmount(100000),
	})
	assert.Nil(t, err)
	ledger, cash := balances(t, n, d, holderAddr)
	assert.Equal(t, coin.NewAmount(100000), ledger)
	assert.Equal(t, coin.NewAmount(0), cash)

	// 100000 * 5e9 * 3600 / 1e18 = 1.8, truncated.
	clk.Advance(time.Hour)
	ledger, _ = balances(t, n, d, holderAddr)
	assert.Equal(t, coin.NewAmount(100001), ledger)

	// The reserve holds only the principal.
	redeemAll := &vault.RedeemMsg{Metadata: meta, Holder: holderAddr, Amount: coin.MaxAmount}
	_, err = n.SignAndDeliver(ctx, holder, redeemAll)
	assert.IsErr(t, errors.ErrInsufficientLiquidity, err)

	_, err = n.SignAndDeliver(ctx, operator, &vault.FundMsg{
		Metadata: meta,
		Funder:   operator.PublicKey().Address(),
		Amount:   coin.NewAmount(1),
	})
	assert.Nil(t, err)

	res, err := n.SignAndDeliver(ctx, holder, redeemAll)
	assert.Nil(t, err)
	assert.Equal(t, "100001", res.Log)
	ledger, cash = balances(t, n, d, holderAddr)
	assert.Equal(t, coin.NewAmount(0), ledger)
	assert.Equal(t, coin.NewAmount(100001), cash)
}

func TestRateIsOperatorOnly(t *testing.T) {
	ctx := context.Background()
	operator := crypto.GenPrivKeyEd25519()
	stranger := crypto.GenPrivKeyEd25519()
	meta := &rebase.Metadata{Schema: 1}
	n, d, _ := newTestNode(t, "domain-a", operator)

	_, err := n.SignAndDeliver(ctx, stranger, &rate.SetRateMsg{Metadata: meta, Rate: coin.NewAmount(1)})
	assert.IsErr(t, errors.ErrUnauthorized, err)

	higher, err := DefaultRate.Add(coin.NewAmount(1))
	assert.Nil(t, err)
	_, err = n.SignAndDeliver(ctx, operator, &rate.SetRateMsg{Metadata: meta, Rate: higher})
	assert.IsErr(t, errors.ErrRateIncrease, err)

	_, err = n.SignAndDeliver(ctx, operator, &rate.SetRateMsg{Metadata: meta, Rate: coin.NewAmount(1)})
	assert.Nil(t, err)

	err = n.View(ctx, func(_ rebase.Context, db rebase.KVStore) error {
		current, err := d.Rates.Current(db)
		assert.Nil(t, err)
		assert.Equal(t, coin.NewAmount(1), current)
		return nil
	})
	assert.Nil(t, err)
}

func TestUnsignedTransactionRejected(t *testing.T) {
	operator := crypto.GenPrivKeyEd25519()
	n, _, _ := newTestNode(t, "domain-a", operator)

	msg := &rate.SetRateMsg{Metadata: &rebase.Metadata{Schema: 1}, Rate: coin.NewAmount(1)}
	_, err := n.Deliver(context.Background(), sigs.NewStdTx(msg))
	assert.IsErr(t, errors.ErrUnauthorized, err)
	assert.Equal(t, int64(1), n.Height())
}
