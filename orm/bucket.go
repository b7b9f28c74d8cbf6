/*
Package orm stores typed entities in a key value store.

The state is split into buckets. A bucket holds a single entity type under
the "<name>:" prefix, keyed by primary key. It may declare secondary
indexes, unique or not, that are kept in sync on every write and can be
queried directly.
*/
package orm

import (
	"fmt"
	"regexp"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

var validBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`)

// Bucket is the untyped storage primitive. Wrap it in a ModelBucket to get
// type safety.
type Bucket struct {
	name    string
	prefix  []byte
	proto   Cloneable
	indexes map[string]Index
}

var _ weave.QueryHandler = Bucket{}

// NewBucket panics on a malformed name. Buckets are declared at start up,
// so this is always a programming error.
func NewBucket(name string, proto Cloneable) Bucket {
	if !validBucketName.MatchString(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	return Bucket{
		name:   name,
		prefix: []byte(name + ":"),
		proto:  proto,
	}
}

// WithIndex returns a copy of the bucket with one more index. Index names
// must be unique within a bucket.
func (b Bucket) WithIndex(name string, indexer Indexer, unique bool) Bucket {
	if _, ok := b.indexes[name]; ok {
		panic(fmt.Sprintf("Index %s registered twice", name))
	}
	indexes := make(map[string]Index, len(b.indexes)+1)
	for n, idx := range b.indexes {
		indexes[n] = idx
	}
	indexes[name] = NewIndex(b.name+"_"+name, indexer, unique, b.DBKey)
	b.indexes = indexes
	return b
}

// Counter returns a counter living next to the bucket data.
func (b Bucket) Counter(name string) Counter {
	return NewCounter(b.name, name)
}

// Register exposes the bucket under "/<name>" and each index under
// "/<name>/<index>". An empty name falls back to the bucket name.
func (b Bucket) Register(name string, r weave.QueryRouter) {
	if name == "" {
		name = b.name
	}
	root := "/" + name
	r.Register(root, b)
	for n, idx := range b.indexes {
		r.Register(root+"/"+n, idx)
	}
}

// DBKey returns the prefixed key. The result never shares memory with the
// prefix.
func (b Bucket) DBKey(key []byte) []byte {
	out := make([]byte, 0, len(b.prefix)+len(key))
	return append(append(out, b.prefix...), key...)
}

// Query answers an exact lookup or, with the prefix modifier, a scan over
// all keys starting with data.
func (b Bucket) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	key := b.DBKey(data)
	switch mod {
	case weave.KeyQueryMod:
		value, err := db.Get(key)
		if err != nil || value == nil {
			return nil, err
		}
		return []weave.Model{weave.Pair(key, value)}, nil
	case weave.PrefixQueryMod:
		return scanPrefix(db, key)
	}
	return nil, errors.Wrapf(errors.ErrInput, "unknown query mod %q", mod)
}

// Get returns nil without an error when nothing is stored under key.
func (b Bucket) Get(db weave.ReadOnlyKVStore, key []byte) (Object, error) {
	raw, err := db.Get(b.DBKey(key))
	if err != nil || raw == nil {
		return nil, err
	}
	return b.Parse(key, raw)
}

func (b Bucket) Has(db weave.ReadOnlyKVStore, key []byte) (bool, error) {
	return db.Has(b.DBKey(key))
}

// Parse decodes a stored value into a fresh object of the bucket type.
func (b Bucket) Parse(key, raw []byte) (Object, error) {
	obj := b.proto.Clone()
	if err := obj.Value().Unmarshal(raw); err != nil {
		return nil, errors.Wrapf(errors.ErrState, "%s: %s", b.name, err)
	}
	obj.SetKey(key)
	return obj, nil
}

// Save validates and writes the object and updates every index.
func (b Bucket) Save(db weave.KVStore, obj Object) error {
	if err := obj.Validate(); err != nil {
		return err
	}
	raw, err := obj.Value().Marshal()
	if err != nil {
		return err
	}
	if err := b.reindex(db, obj.Key(), obj); err != nil {
		return err
	}
	return db.Set(b.DBKey(obj.Key()), raw)
}

// Delete removes the object and its index entries.
func (b Bucket) Delete(db weave.KVStore, key []byte) error {
	if err := b.reindex(db, key, nil); err != nil {
		return err
	}
	return db.Delete(b.DBKey(key))
}

// reindex moves the index entries of key from the stored version to next.
// A nil next removes them.
func (b Bucket) reindex(db weave.KVStore, key []byte, next Object) error {
	if len(b.indexes) == 0 {
		return nil
	}
	prev, err := b.Get(db, key)
	if err != nil {
		return err
	}
	if prev == nil && next == nil {
		return nil
	}
	for _, idx := range b.indexes {
		if err := idx.Update(db, prev, next); err != nil {
			return err
		}
	}
	return nil
}

// GetIndexed loads every object referenced by the named index at key.
func (b Bucket) GetIndexed(db weave.ReadOnlyKVStore, name string, key []byte) ([]Object, error) {
	idx, ok := b.indexes[name]
	if !ok {
		return nil, errors.Wrap(ErrInvalidIndex, name)
	}
	refs, err := idx.GetAt(db, key)
	if err != nil {
		return nil, err
	}
	objs := make([]Object, 0, len(refs))
	for _, ref := range refs {
		obj, err := b.Get(db, ref)
		switch {
		case err != nil:
			return nil, err
		case obj == nil:
			return nil, errors.Wrapf(errors.ErrState, "index of %s points to a missing entry", b.name)
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

// scanPrefix reads all pairs whose key starts with prefix.
func scanPrefix(db weave.ReadOnlyKVStore, prefix []byte) ([]weave.Model, error) {
	it, err := db.Iterator(prefixRange(prefix))
	if err != nil {
		return nil, err
	}
	defer it.Release()

	var res []weave.Model
	for {
		k, v, err := it.Next()
		switch {
		case errors.ErrIteratorDone.Is(err):
			return res, nil
		case err != nil:
			return nil, err
		}
		res = append(res, weave.Pair(k, v))
	}
}

// prefixRange returns the [start, end) range covering every key with the
// given prefix. An empty prefix, or one made only of 0xFF bytes, has no
// upper bound.
func prefixRange(prefix []byte) (start, end []byte) {
	if len(prefix) == 0 {
		return nil, nil
	}
	n := len(prefix)
	for n > 0 && prefix[n-1] == 0xff {
		n--
	}
	if n == 0 {
		return prefix, nil
	}
	end = append([]byte(nil), prefix[:n]...)
	end[n-1]++
	return prefix, end
}
