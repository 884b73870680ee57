package accrual

import (
	"testing"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/rebasetest"
	"github.com/iov-one/rebase/store"
	. "github.com/smartystreets/goconvey/convey"
)

const hour = 3600

// testRate accrues 0.018% per hour.
var testRate = coin.NewAmount(5e10)

func TestProjection(t *testing.T) {
	Convey("Projection of a principal", t, func() {
		principal := coin.NewAmount(100000)

		Convey("is the identity for zero rate or zero time", func() {
			got, err := Project(principal, coin.Amount{}, hour)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, principal)

			got, err = Project(principal, testRate, 0)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, principal)
		})

		Convey("is monotone in elapsed time", func() {
			prev := principal
			for elapsed := uint64(0); elapsed < 10*hour; elapsed += 97 {
				got, err := Project(principal, testRate, elapsed)
				So(err, ShouldBeNil)
				So(got.LT(prev), ShouldBeFalse)
				prev = got
			}
		})

		Convey("truncates", func() {
			// 7 * (1 + 5e10*1/1e18) = 7.00000035
			got, err := Project(coin.NewAmount(7), testRate, 1)
			So(err, ShouldBeNil)
			So(got, ShouldResemble, coin.NewAmount(7))
		})

		Convey("splitting an interval stays within a unit for small principals", func() {
			first, err := Project(principal, testRate, hour)
			So(err, ShouldBeNil)
			split, err := Project(first, testRate, hour)
			So(err, ShouldBeNil)
			long, err := Project(principal, testRate, 2*hour)
			So(err, ShouldBeNil)
			// Settling in between compounds by about p*(r*t)^2, which stays
			// below one unit for this principal.
			diff, err := split.Sub(long)
			if err != nil {
				diff, err = long.Sub(split)
			}
			So(err, ShouldBeNil)
			So(diff.GT(coin.NewAmount(1)), ShouldBeFalse)
		})

		Convey("growth saturates", func() {
			So(Growth(coin.MaxAmount, 2), ShouldResemble, coin.MaxAmount)
		})
	})
}

func TestEngine(t *testing.T) {
	Convey("Given a holder with a deposit", t, func() {
		db := store.MemStore()
		e := NewEngine()
		alice := rebasetest.RandomAddr(t)
		t0 := rebase.UnixTime(1600000000)

		h, err := e.Load(db, alice)
		So(err, ShouldBeNil)
		h.Principal = coin.NewAmount(100000)
		h.Rate = testRate
		h.LastAccrual = t0
		So(e.Save(db, alice, h), ShouldBeNil)

		Convey("the balance grows hourly by a steady amount", func() {
			b0, err := e.BalanceOf(db, alice, t0)
			So(err, ShouldBeNil)
			b1, err := e.BalanceOf(db, alice, t0+hour)
			So(err, ShouldBeNil)
			b2, err := e.BalanceOf(db, alice, t0+2*hour)
			So(err, ShouldBeNil)

			So(b1.GT(coin.NewAmount(100000)), ShouldBeTrue)
			So(b1, ShouldResemble, coin.NewAmount(100018))
			d1, _ := b1.Sub(b0)
			d2, _ := b2.Sub(b1)
			So(d1, ShouldResemble, d2)
		})

		Convey("reading the balance persists nothing", func() {
			_, err := e.BalanceOf(db, alice, t0+hour)
			So(err, ShouldBeNil)
			p, err := e.PrincipalOf(db, alice)
			So(err, ShouldBeNil)
			So(p, ShouldResemble, coin.NewAmount(100000))
		})

		Convey("settlement materializes interest", func() {
			h, interest, err := e.Settle(db, alice, t0+hour)
			So(err, ShouldBeNil)
			So(interest, ShouldResemble, coin.NewAmount(18))
			So(h.Principal, ShouldResemble, coin.NewAmount(100018))
			So(h.LastAccrual, ShouldEqual, t0+hour)

			Convey("and is idempotent at the same time", func() {
				h, interest, err := e.Settle(db, alice, t0+hour)
				So(err, ShouldBeNil)
				So(interest.IsZero(), ShouldBeTrue)
				So(h.Principal, ShouldResemble, coin.NewAmount(100018))
			})

			Convey("and ignores a clock going backwards", func() {
				h, interest, err := e.Settle(db, alice, t0)
				So(err, ShouldBeNil)
				So(interest.IsZero(), ShouldBeTrue)
				So(h.LastAccrual, ShouldEqual, t0+hour)
			})
		})

		Convey("the rate is locked", func() {
			r, err := e.RateOf(db, alice)
			So(err, ShouldBeNil)
			So(r, ShouldResemble, testRate)
		})
	})

	Convey("Unknown holders read as zero", t, func() {
		db := store.MemStore()
		e := NewEngine()
		bob := rebasetest.RandomAddr(t)

		b, err := e.BalanceOf(db, bob, 1600000000)
		So(err, ShouldBeNil)
		So(b.IsZero(), ShouldBeTrue)
		r, err := e.RateOf(db, bob)
		So(err, ShouldBeNil)
		So(r.IsZero(), ShouldBeTrue)
		p, err := e.PrincipalOf(db, bob)
		So(err, ShouldBeNil)
		So(p.IsZero(), ShouldBeTrue)
	})

	Convey("Saving requires a valid address", t, func() {
		h := &Holder{Metadata: &rebase.Metadata{Schema: 1}}
		err := NewEngine().Save(store.MemStore(), nil, h)
		So(errors.ErrEmpty.Is(err), ShouldBeTrue)
	})
}
