package orm

import (
	"bytes"
	"testing"

	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	db := store.MemStore()

	cases := map[string]struct {
		bucket, name string
		increments   int64
	}{
		"first sequence":            {"holder", "id", 22},
		"same bucket, another name": {"holder", "nonce", 11},
		"another bucket":            {"outbox", "id", 300},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			s := NewSequence(tc.bucket, tc.name)
			init, err := s.Latest(db)
			require.NoError(t, err)

			var last []byte
			for i := int64(0); i < tc.increments; i++ {
				raw, err := s.NextVal(db)
				require.NoError(t, err)
				if last != nil {
					assert.Equal(t, 1, bytes.Compare(raw, last))
				}
				last = raw
			}
			got, err := s.Latest(db)
			require.NoError(t, err)
			assert.Equal(t, init+tc.increments, got)
		})
	}
}

func TestSequenceCorruptedValue(t *testing.T) {
	db := store.MemStore()
	s := NewSequence("holder", "id")
	require.NoError(t, db.Set([]byte("_s.holder:id"), []byte{1, 2}))
	_, err := s.NextInt(db)
	assert.True(t, errors.ErrInput.Is(err))
}

func TestPrefixEnd(t *testing.T) {
	assert.Equal(t, []byte("ab"), prefixEnd([]byte("aa")))
	assert.Equal(t, []byte{0x01}, prefixEnd([]byte{0x00, 0xff}))
	assert.Nil(t, prefixEnd([]byte{0xff, 0xff}))
}
