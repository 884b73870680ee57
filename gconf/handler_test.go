package gconf

import (
	"context"
	"testing"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/rebasetest"
	"github.com/iov-one/rebase/rebasetest/assert"
	"github.com/iov-one/rebase/store"
)

type myconfigMsg struct {
	Patch *myconfig
}

var _ rebase.Msg = (*myconfigMsg)(nil)

func (msg *myconfigMsg) Path() string { return "myconfig" }

func (msg *myconfigMsg) Validate() error {
	if msg.Patch == nil {
		return nil
	}
	return msg.Patch.Validate()
}

func TestUpdateConfigurationHandler(t *testing.T) {
	cond := rebasetest.NewCondition()

	cases := map[string]struct {
		init           *myconfig
		msg            rebase.Msg
		msgConditions  []rebase.Condition
		wantCheckErr   *errors.Error
		wantDeliverErr *errors.Error
		wantConfig     *myconfig
	}{
		"success": {
			init: &myconfig{Owner: cond.Address(), Num: 5125, Str: "foobar"},
			msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Num: 333, Str: "boing!"},
			},
			msgConditions: []rebase.Condition{cond},
			wantConfig:    &myconfig{Owner: cond.Address(), Num: 333, Str: "boing!"},
		},
		"message must be signed by the configuration owner": {
			init: &myconfig{Owner: cond.Address(), Num: 5125},
			msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Num: 1},
			},
			msgConditions:  []rebase.Condition{rebasetest.NewCondition()},
			wantCheckErr:   errors.ErrUnauthorized,
			wantDeliverErr: errors.ErrUnauthorized,
		},
		"zero values are not updating the configuration": {
			init: &myconfig{Owner: cond.Address(), Num: 5125, Str: "foobar", Period: 10},
			msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Period: 20},
			},
			msgConditions: []rebase.Condition{cond},
			wantConfig:    &myconfig{Owner: cond.Address(), Num: 5125, Str: "foobar", Period: 20},
		},
		"invalid configuration is not accepted": {
			init: &myconfig{Owner: cond.Address(), Num: 5125},
			msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Num: -4},
			},
			msgConditions:  []rebase.Condition{cond},
			wantCheckErr:   errors.ErrAmount,
			wantDeliverErr: errors.ErrAmount,
		},
		"missing patch": {
			init:           &myconfig{Owner: cond.Address(), Num: 5125},
			msg:            &myconfigMsg{},
			msgConditions:  []rebase.Condition{cond},
			wantCheckErr:   errors.ErrState,
			wantDeliverErr: errors.ErrState,
		},
		"configuration that was never created cannot be patched": {
			msg: &myconfigMsg{
				Patch: &myconfig{Owner: cond.Address(), Num: 1},
			},
			msgConditions:  []rebase.Condition{cond},
			wantCheckErr:   errors.ErrNotFound,
			wantDeliverErr: errors.ErrNotFound,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			if tc.init != nil {
				assert.Nil(t, Save(db, "mypkg", tc.init))
			}

			auth := &rebasetest.CtxAuth{Key: "auth"}
			handler := NewUpdateConfigurationHandler("mypkg", func() OwnedConfig { return &myconfig{} }, auth)

			ctx := rebase.WithHeight(context.Background(), 999)
			ctx = auth.SetConditions(ctx, tc.msgConditions...)
			tx := &rebasetest.Tx{Msg: tc.msg}

			cache := db.CacheWrap()
			_, err := handler.Check(ctx, cache, tx)
			assert.IsErr(t, tc.wantCheckErr, err)
			cache.Discard()

			_, err = handler.Deliver(ctx, db, tx)
			assert.IsErr(t, tc.wantDeliverErr, err)

			if tc.wantConfig != nil {
				var got myconfig
				assert.Nil(t, Load(db, "mypkg", &got))
				assert.Equal(t, tc.wantConfig, &got)
			}
		})
	}
}
