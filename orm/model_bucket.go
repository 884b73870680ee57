package orm

import (
	"fmt"
	"reflect"
	"regexp"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,16}$`).MatchString

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	Validate() error
}

// ModelSlicePtr represents a pointer to a slice of models. Think of it as
// *[]Model. Both *[]MyModel and *[]*MyModel are accepted.
type ModelSlicePtr interface{}

// ModelBucket is implemented by buckets that operates on Models.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db rebase.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key exists and
	// ErrNotFound otherwise.
	Has(db rebase.ReadOnlyKVStore, key []byte) error

	// Put saves given model in the database. If key is nil and the bucket
	// was configured with an ID sequence, a new key is generated. The key
	// the model was stored under is returned.
	Put(db rebase.KVStore, key []byte, m Model) ([]byte, error)

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db rebase.KVStore, key []byte) error

	// ByIndex loads all models indexed under the given value and appends
	// them to dest. The primary keys are returned in the same order.
	ByIndex(db rebase.ReadOnlyKVStore, indexName string, key []byte, dest ModelSlicePtr) ([][]byte, error)

	// ForEach calls fn for every stored model in primary key order. The
	// model passed is a fresh instance. Returning ErrIteratorDone from fn
	// stops the iteration without an error.
	ForEach(db rebase.ReadOnlyKVStore, fn func(key []byte, m Model) error) error

	// Name returns the name of the bucket.
	Name() string
}

// ModelBucketOption configures a ModelBucket.
type ModelBucketOption func(*modelBucket)

// WithIndex adds a secondary index to the bucket.
func WithIndex(name string, indexer Indexer, unique bool) ModelBucketOption {
	return func(mb *modelBucket) {
		if _, ok := mb.indexes[name]; ok {
			panic(fmt.Sprintf("index %q already registered", name))
		}
		mb.indexes[name] = newNativeIndex(mb.name, name, indexer, unique)
	}
}

// WithIDSequence makes Put generate a key for models stored with a nil
// key.
func WithIDSequence(s Sequence) ModelBucketOption {
	return func(mb *modelBucket) {
		mb.idSeq = &s
	}
}

// NewModelBucket returns a ModelBucket storing models of the same type
// as m, which must be a pointer. Bucket name must be a lower case
// identifier.
func NewModelBucket(name string, m Model, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("illegal bucket name: %q", name))
	}
	tp := reflect.TypeOf(m)
	if tp == nil || tp.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("model must be a pointer, got %T", m))
	}
	mb := &modelBucket{
		name:    name,
		prefix:  []byte(name + ":"),
		model:   tp.Elem(),
		indexes: make(map[string]nativeIndex),
	}
	for _, fn := range opts {
		fn(mb)
	}
	return mb
}

type modelBucket struct {
	name    string
	prefix  []byte
	model   reflect.Type
	indexes map[string]nativeIndex
	idSeq   *Sequence
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) Name() string {
	return mb.name
}

func (mb *modelBucket) dbKey(key []byte) []byte {
	out := make([]byte, len(mb.prefix)+len(key))
	n := copy(out, mb.prefix)
	copy(out[n:], key)
	return out
}

func (mb *modelBucket) newModel() Model {
	return reflect.New(mb.model).Interface().(Model)
}

func (mb *modelBucket) checkType(m Model) error {
	tp := reflect.TypeOf(m)
	if tp == nil || tp.Kind() != reflect.Ptr || tp.Elem() != mb.model {
		return errors.Wrapf(errors.ErrType, "bucket %q cannot handle %T", mb.name, m)
	}
	return nil
}

// load returns nil model if the key does not exist.
func (mb *modelBucket) load(db rebase.ReadOnlyKVStore, key []byte) (Model, error) {
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return nil, errors.Wrap(err, "cannot read from the database")
	}
	if raw == nil {
		return nil, nil
	}
	m := mb.newModel()
	if err := Unmarshal(raw, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (mb *modelBucket) One(db rebase.ReadOnlyKVStore, key []byte, dest Model) error {
	if err := mb.checkType(dest); err != nil {
		return err
	}
	m, err := mb.load(db, key)
	if err != nil {
		return err
	}
	if m == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	reflect.ValueOf(dest).Elem().Set(reflect.ValueOf(m).Elem())
	return nil
}

func (mb *modelBucket) Has(db rebase.ReadOnlyKVStore, key []byte) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrNotFound, "empty key")
	}
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot read from the database")
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	return nil
}

func (mb *modelBucket) Put(db rebase.KVStore, key []byte, m Model) ([]byte, error) {
	if err := mb.checkType(m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}

	if len(key) == 0 {
		if mb.idSeq == nil {
			return nil, errors.Wrap(errors.ErrEmpty, "key required")
		}
		next, err := mb.idSeq.NextVal(db)
		if err != nil {
			return nil, errors.Wrap(err, "ID sequence")
		}
		key = next
	}

	raw, err := Marshal(m)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		// A zero model still has to be found by Get.
		raw = []byte{}
	}

	if len(mb.indexes) > 0 {
		prev, err := mb.load(db, key)
		if err != nil {
			return nil, err
		}
		for _, idx := range mb.indexes {
			if err := idx.update(db, key, prev, m); err != nil {
				return nil, err
			}
		}
	}

	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return nil, errors.Wrap(err, "cannot store in the database")
	}
	return key, nil
}

func (mb *modelBucket) Delete(db rebase.KVStore, key []byte) error {
	prev, err := mb.load(db, key)
	if err != nil {
		return err
	}
	if prev == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s %X", mb.name, key)
	}
	for _, idx := range mb.indexes {
		if err := idx.update(db, key, prev, nil); err != nil {
			return err
		}
	}
	if err := db.Delete(mb.dbKey(key)); err != nil {
		return errors.Wrap(err, "cannot delete from the database")
	}
	return nil
}

func (mb *modelBucket) ByIndex(db rebase.ReadOnlyKVStore, indexName string, key []byte, destination ModelSlicePtr) ([][]byte, error) {
	idx, ok := mb.indexes[indexName]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidIndex, "bucket %q has no index %q", mb.name, indexName)
	}

	dest := reflect.ValueOf(destination)
	if dest.Kind() != reflect.Ptr || dest.IsNil() || dest.Elem().Kind() != reflect.Slice {
		return nil, errors.Wrap(errors.ErrType, "destination must be a non nil pointer to a slice of models")
	}
	dest = dest.Elem()
	sliceOfPointers := dest.Type().Elem().Kind() == reflect.Ptr
	allowed := dest.Type().Elem()
	if sliceOfPointers {
		allowed = allowed.Elem()
	}
	if allowed != mb.model {
		return nil, errors.Wrapf(errors.ErrType, "bucket %q cannot return %s", mb.name, allowed)
	}

	keys, err := idx.keys(db, key)
	if err != nil {
		return nil, err
	}
	found := make([][]byte, 0, len(keys))
	for _, k := range keys {
		m, err := mb.load(db, k)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, errors.Wrapf(errors.ErrState, "index %q points to missing %X", indexName, k)
		}
		val := reflect.ValueOf(m)
		if !sliceOfPointers {
			val = val.Elem()
		}
		dest.Set(reflect.Append(dest, val))
		found = append(found, k)
	}
	return found, nil
}

func (mb *modelBucket) ForEach(db rebase.ReadOnlyKVStore, fn func(key []byte, m Model) error) error {
	it, err := db.Iterator(mb.prefix, prefixEnd(mb.prefix))
	if err != nil {
		return errors.Wrap(err, "cannot read from the database")
	}
	defer it.Release()

	for {
		key, raw, err := it.Next()
		if errors.ErrIteratorDone.Is(err) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "cannot read from the database")
		}
		m := mb.newModel()
		if err := Unmarshal(raw, m); err != nil {
			return err
		}
		if err := fn(copyBytes(key[len(mb.prefix):]), m); err != nil {
			if errors.ErrIteratorDone.Is(err) {
				return nil
			}
			return err
		}
	}
}
