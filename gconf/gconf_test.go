package gconf

import (
	"encoding/json"
	"testing"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/rebasetest"
	"github.com/iov-one/rebase/rebasetest/assert"
	"github.com/iov-one/rebase/store"
)

type myconfig struct {
	Owner  rebase.Address
	Num    int64
	Str    string
	Period rebase.UnixDuration
}

func (c *myconfig) GetOwner() rebase.Address { return c.Owner }

func (c *myconfig) Validate() error {
	if err := c.Owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	if c.Num < 0 {
		return errors.Wrap(errors.ErrAmount, "negative num")
	}
	return nil
}

func TestSaveLoad(t *testing.T) {
	owner := rebasetest.RandomAddr(t)

	cases := map[string]struct {
		conf        *myconfig
		wantSaveErr *errors.Error
	}{
		"all fields": {
			conf: &myconfig{Owner: owner, Num: 852151421, Str: "foobar", Period: 3600},
		},
		"zero values": {
			conf: &myconfig{Owner: owner},
		},
		"invalid address cannot be saved": {
			conf:        &myconfig{Owner: rebase.Address("too short")},
			wantSaveErr: errors.ErrInput,
		},
		"invalid number cannot be saved": {
			conf:        &myconfig{Owner: owner, Num: -1},
			wantSaveErr: errors.ErrAmount,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			err := Save(db, "mypkg", tc.conf)
			assert.IsErr(t, tc.wantSaveErr, err)
			if tc.wantSaveErr != nil {
				return
			}

			var got myconfig
			assert.Nil(t, Load(db, "mypkg", &got))
			assert.Equal(t, tc.conf, &got)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	db := store.MemStore()
	var got myconfig
	assert.IsErr(t, errors.ErrNotFound, Load(db, "mypkg", &got))
}

func TestInitializer(t *testing.T) {
	owner := rebasetest.RandomAddr(t)
	genesis := `{"conf": {"mypkg": {"Owner": "` + owner.String() + `", "Num": 7, "Period": "1m"}}}`

	var opts rebase.Options
	assert.Nil(t, json.Unmarshal([]byte(genesis), &opts))

	db := store.MemStore()
	init := Initializer{Pkg: "mypkg", New: func() Configuration { return &myconfig{} }}
	assert.Nil(t, init.FromGenesis(opts, db))

	var got myconfig
	assert.Nil(t, Load(db, "mypkg", &got))
	assert.Equal(t, owner, got.Owner)
	assert.Equal(t, int64(7), got.Num)
	assert.Equal(t, rebase.UnixDuration(60), got.Period)

	missing := Initializer{Pkg: "otherpkg", New: func() Configuration { return &myconfig{} }}
	assert.IsErr(t, errors.ErrNotFound, missing.FromGenesis(opts, db))
}
