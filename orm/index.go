package orm

import (
	"bytes"
	"encoding/binary"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
)

const indexPrefix = "_i."

// maxIndexValueLen is the longest value an Indexer may return.
const maxIndexValueLen = 1<<16 - 1

// Indexer calculates the secondary index value of a model. A nil value
// means the model is not indexed.
type Indexer func(Model) ([]byte, error)

// nativeIndex keeps one database entry per indexed model:
//    _i.<bucket>_<index>:<value length><value><primary key>
// All primary keys for a value can be found with a prefix scan.
type nativeIndex struct {
	name    string
	prefix  []byte
	unique  bool
	indexer Indexer
}

func newNativeIndex(bucket, name string, indexer Indexer, unique bool) nativeIndex {
	return nativeIndex{
		name:    name,
		prefix:  []byte(indexPrefix + bucket + "_" + name + ":"),
		unique:  unique,
		indexer: indexer,
	}
}

func (i nativeIndex) valuePrefix(value []byte) []byte {
	out := make([]byte, len(i.prefix)+2+len(value))
	n := copy(out, i.prefix)
	binary.BigEndian.PutUint16(out[n:], uint16(len(value)))
	copy(out[n+2:], value)
	return out
}

func (i nativeIndex) entryKey(value, pk []byte) []byte {
	return append(i.valuePrefix(value), pk...)
}

func (i nativeIndex) value(m Model) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	v, err := i.indexer(m)
	if err != nil {
		return nil, errors.Wrapf(err, "index %q", i.name)
	}
	if len(v) > maxIndexValueLen {
		return nil, errors.Wrapf(errors.ErrInput, "index %q value too long", i.name)
	}
	return v, nil
}

// update moves the entry of the model stored under pk. prev is nil on
// insert and next is nil on delete.
func (i nativeIndex) update(db rebase.KVStore, pk []byte, prev, next Model) error {
	oldVal, err := i.value(prev)
	if err != nil {
		return err
	}
	newVal, err := i.value(next)
	if err != nil {
		return err
	}
	if oldVal != nil && newVal != nil && bytes.Equal(oldVal, newVal) {
		return nil
	}

	if oldVal != nil {
		if err := db.Delete(i.entryKey(oldVal, pk)); err != nil {
			return errors.Wrapf(err, "index %q", i.name)
		}
	}
	if newVal == nil {
		return nil
	}
	if i.unique {
		keys, err := i.keys(db, newVal)
		if err != nil {
			return err
		}
		for _, k := range keys {
			if !bytes.Equal(k, pk) {
				return errors.Wrapf(errors.ErrDuplicate, "unique index %q", i.name)
			}
		}
	}
	if err := db.Set(i.entryKey(newVal, pk), []byte{1}); err != nil {
		return errors.Wrapf(err, "index %q", i.name)
	}
	return nil
}

// keys returns the primary keys of all models indexed under value.
func (i nativeIndex) keys(db rebase.ReadOnlyKVStore, value []byte) ([][]byte, error) {
	start := i.valuePrefix(value)
	it, err := db.Iterator(start, prefixEnd(start))
	if err != nil {
		return nil, errors.Wrapf(err, "index %q", i.name)
	}
	defer it.Release()

	var keys [][]byte
	for {
		key, _, err := it.Next()
		switch {
		case err == nil:
			keys = append(keys, copyBytes(key[len(start):]))
		case errors.ErrIteratorDone.Is(err):
			return keys, nil
		default:
			return nil, errors.Wrapf(err, "index %q", i.name)
		}
	}
}

// prefixEnd returns the first key after all keys starting with prefix,
// or nil when there is no such key.
func prefixEnd(prefix []byte) []byte {
	end := copyBytes(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
