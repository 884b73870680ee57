package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/iov-one/rebase/errors"
	"github.com/stretchr/testify/require"
)

// Factory opens an empty store and returns a function releasing it.
type Factory func() (CacheableKVStore, func())

// RunSuite checks the behaviour every CacheableKVStore must share:
// cache layering with write back and discard, and ordered iteration
// over a cache merged with its parent. Both the in-memory store and
// the iavl adapter run it.
func RunSuite(t *testing.T, open Factory) {
	t.Run("cache layers", func(t *testing.T) { checkCacheLayers(t, open) })
	t.Run("iteration", func(t *testing.T) { checkIteration(t, open) })
}

func checkCacheLayers(t *testing.T, open Factory) {
	base, release := open()
	defer release()

	holder, principal := []byte("holder/alice"), []byte("1000")
	requireValue(t, base, holder, nil)
	require.NoError(t, base.Set(holder, principal))
	requireValue(t, base, holder, principal)

	cache := base.CacheWrap()
	requireValue(t, cache, holder, principal)

	rate, value := []byte("rate"), []byte("5000000000")
	require.NoError(t, cache.Set(rate, value))
	requireValue(t, cache, rate, value)
	requireValue(t, base, rate, nil)
	require.NoError(t, cache.Write())
	requireValue(t, base, rate, value)

	discarded := base.CacheWrap()
	require.NoError(t, discarded.Set([]byte("vault"), []byte("1")))
	require.NoError(t, discarded.Delete(holder))
	discarded.Discard()
	requireValue(t, base, holder, principal)
	requireValue(t, base, []byte("vault"), nil)

	// A nested cache overrides and deletes parent values without
	// touching the parent until written.
	outer := base.CacheWrap()
	require.NoError(t, outer.Set(holder, []byte("400")))
	inner := outer.CacheWrap()
	require.NoError(t, inner.Delete(rate))
	requireValue(t, inner, holder, []byte("400"))
	requireValue(t, inner, rate, nil)
	requireValue(t, outer, rate, value)
	require.NoError(t, inner.Write())
	requireValue(t, base, rate, value)
	require.NoError(t, outer.Write())
	requireValue(t, base, holder, []byte("400"))
	requireValue(t, base, rate, nil)
}

func checkIteration(t *testing.T, open Factory) {
	base, release := open()
	defer release()
	ref := make(map[string][]byte)

	set := func(kv KVStore, key, value []byte) {
		require.NoError(t, kv.Set(key, value))
		ref[string(key)] = value
	}
	del := func(kv KVStore, key []byte) {
		require.NoError(t, kv.Delete(key))
		delete(ref, string(key))
	}

	parent := randModels(40, 8, 24)
	for _, m := range parent {
		set(base, m.Key, m.Value)
	}
	for _, m := range parent[:10] {
		del(base, m.Key)
	}

	child := base.CacheWrap()
	fresh := randModels(30, 8, 24)
	for _, m := range fresh {
		set(child, m.Key, m.Value)
	}
	for _, m := range parent[10:20] {
		set(child, m.Key, randBytes(24))
	}
	for _, m := range parent[20:30] {
		del(child, m.Key)
	}
	for _, m := range fresh[:5] {
		del(child, m.Key)
	}

	want := sorted(ref)
	require.Len(t, want, 45)
	// A start key that is no longer stored.
	gone := parent[0].Key

	queries := []struct{ start, end []byte }{
		{nil, nil},
		{want[5].Key, nil},
		{nil, want[40].Key},
		{want[3].Key, want[38].Key},
		{gone, nil},
	}
	for _, q := range queries {
		expected := within(want, q.start, q.end)

		it, err := child.Iterator(q.start, q.end)
		require.NoError(t, err)
		require.Equal(t, expected, collect(t, it))

		it, err = child.ReverseIterator(q.start, q.end)
		require.NoError(t, err)
		require.Equal(t, reverse(expected), collect(t, it))
	}

	require.NoError(t, child.Write())
	it, err := base.Iterator(nil, nil)
	require.NoError(t, err)
	require.Equal(t, want, collect(t, it))
}

func requireValue(t testing.TB, kv ReadOnlyKVStore, key, want []byte) {
	t.Helper()
	got, err := kv.Get(key)
	require.NoError(t, err)
	require.Equal(t, want, got)
	has, err := kv.Has(key)
	require.NoError(t, err)
	require.Equal(t, want != nil, has)
}

func collect(t testing.TB, it Iterator) []Model {
	t.Helper()
	defer it.Release()
	var res []Model
	for {
		key, value, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return res
		}
		require.NoError(t, err)
		res = append(res, Model{Key: key, Value: value})
	}
}

func randBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

func randModels(count, keySize, valueSize int) []Model {
	models := make([]Model, count)
	for i := range models {
		models[i] = Model{Key: randBytes(keySize), Value: randBytes(valueSize)}
	}
	return models
}

func sorted(ref map[string][]byte) []Model {
	res := make([]Model, 0, len(ref))
	for k, v := range ref {
		res = append(res, Model{Key: []byte(k), Value: v})
	}
	sort.Slice(res, func(i, j int) bool { return bytes.Compare(res[i].Key, res[j].Key) < 0 })
	return res
}

// within returns the models in [start, end), nil bounds are open.
func within(models []Model, start, end []byte) []Model {
	var res []Model
	for _, m := range models {
		if start != nil && bytes.Compare(m.Key, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(m.Key, end) >= 0 {
			continue
		}
		res = append(res, m)
	}
	return res
}

func reverse(models []Model) []Model {
	if models == nil {
		return nil
	}
	res := make([]Model, len(models))
	for i, m := range models {
		res[len(models)-1-i] = m
	}
	return res
}
