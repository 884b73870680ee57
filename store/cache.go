package store

import (
	"bytes"

	"github.com/google/btree"
)

// BTreeCacheable gives any KVStore a btree backed CacheWrap.
type BTreeCacheable struct {
	KVStore
}

var _ CacheableKVStore = BTreeCacheable{}

// CacheWrap returns a cache whose Write applies the buffered changes to
// the wrapped store in one batch.
func (b BTreeCacheable) CacheWrap() KVCacheWrap {
	return newCache(b.KVStore, b.NewBatch(), nil)
}

// MemStore returns a store held entirely in memory. Never Write it:
// there is nothing underneath to receive the changes.
func MemStore() CacheableKVStore {
	var none EmptyKVStore
	return newCache(none, none.NewBatch(), nil)
}

// cache keeps uncommitted writes in a btree over a read only parent.
// Deletes are kept as tombstones so they hide parent values.
type cache struct {
	tree   *btree.BTree
	free   *btree.FreeList
	parent ReadOnlyKVStore
	batch  Batch
}

var _ KVCacheWrap = (*cache)(nil)

func newCache(parent ReadOnlyKVStore, batch Batch, free *btree.FreeList) *cache {
	if free == nil {
		free = btree.NewFreeList(btree.DefaultFreeListSize)
	}
	return &cache{
		tree:   btree.NewWithFreeList(2, free),
		free:   free,
		parent: parent,
		batch:  batch,
	}
}

// CacheWrap nests another cache, sharing the node free list.
func (c *cache) CacheWrap() KVCacheWrap {
	return newCache(c, c.NewBatch(), c.free)
}

func (c *cache) NewBatch() Batch {
	return NewNonAtomicBatch(c)
}

func (c *cache) Write() error {
	err := c.batch.Write()
	c.Discard()
	return err
}

// Discard drops every buffered change and returns the nodes to the
// free list.
func (c *cache) Discard() {
	for c.tree.DeleteMin() != nil {
	}
}

func (c *cache) Set(key, value []byte) error {
	c.tree.ReplaceOrInsert(entry{key: key, value: value})
	return c.batch.Set(key, value)
}

func (c *cache) Delete(key []byte) error {
	c.tree.ReplaceOrInsert(entry{key: key, deleted: true})
	return c.batch.Delete(key)
}

func (c *cache) Get(key []byte) ([]byte, error) {
	if e, ok := c.lookup(key); ok {
		return e.value, nil
	}
	return c.parent.Get(key)
}

func (c *cache) Has(key []byte) (bool, error) {
	if e, ok := c.lookup(key); ok {
		return !e.deleted, nil
	}
	return c.parent.Has(key)
}

func (c *cache) lookup(key []byte) (entry, bool) {
	item := c.tree.Get(entry{key: key})
	if item == nil {
		return entry{}, false
	}
	return item.(entry), true
}

func (c *cache) Iterator(start, end []byte) (Iterator, error) {
	parent, err := c.parent.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return &mergeIterator{own: c.span(start, end), parent: parent}, nil
}

func (c *cache) ReverseIterator(start, end []byte) (Iterator, error) {
	parent, err := c.parent.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	own := c.span(start, end)
	for i, j := 0, len(own)-1; i < j; i, j = i+1, j-1 {
		own[i], own[j] = own[j], own[i]
	}
	return &mergeIterator{own: own, parent: parent, descending: true}, nil
}

// span copies the entries with a key in [start, end) in ascending order.
func (c *cache) span(start, end []byte) []entry {
	var res []entry
	collect := func(item btree.Item) bool {
		res = append(res, item.(entry))
		return true
	}
	from, to := entry{key: start}, entry{key: end}
	switch {
	case start == nil && end == nil:
		c.tree.Ascend(collect)
	case start == nil:
		c.tree.AscendLessThan(to, collect)
	case end == nil:
		c.tree.AscendGreaterOrEqual(from, collect)
	default:
		c.tree.AscendRange(from, to, collect)
	}
	return res
}

type entry struct {
	key     []byte
	value   []byte
	deleted bool
}

func (e entry) Less(than btree.Item) bool {
	return bytes.Compare(e.key, than.(entry).key) < 0
}
