package orm

import (
	"bytes"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// Indexer returns the secondary key of an object. A nil key keeps the
// object out of the index.
type Indexer func(Object) ([]byte, error)

// Index maps a secondary key to the primary keys of the objects sharing
// it. A unique index stores the primary key itself, a non unique one a
// MultiRef. Entries live under "_i.<name>:".
type Index struct {
	name   string
	prefix []byte
	unique bool
	index  Indexer
	// refKey turns a primary key into the full key of the object.
	refKey func([]byte) []byte
}

var _ weave.QueryHandler = Index{}

func NewIndex(name string, indexer Indexer, unique bool, refKey func([]byte) []byte) Index {
	return Index{
		name:   name,
		prefix: []byte("_i." + name + ":"),
		unique: unique,
		index:  indexer,
		refKey: refKey,
	}
}

func (i Index) dbKey(key []byte) []byte {
	out := make([]byte, 0, len(i.prefix)+len(key))
	return append(append(out, i.prefix...), key...)
}

// Update keeps the index in sync with a single write. A nil prev is an
// insert, a nil next a delete. The primary key cannot change.
func (i Index) Update(db weave.KVStore, prev, next Object) error {
	if prev == nil && next == nil {
		return errors.Wrap(errors.ErrHuman, "update requires at least one non-nil object")
	}
	if prev != nil && next != nil && !bytes.Equal(prev.Key(), next.Key()) {
		return errors.Wrap(errors.ErrImmutable, "cannot modify the primary key of an object")
	}

	var from, to []byte
	var err error
	if prev != nil {
		if from, err = i.index(prev); err != nil {
			return err
		}
	}
	if next != nil {
		if to, err = i.index(next); err != nil {
			return err
		}
	}
	if prev != nil && next != nil && bytes.Equal(from, to) {
		return nil
	}

	// Add before removing so that a unique conflict leaves the index as
	// it was.
	if to != nil {
		if err := i.add(db, to, next.Key()); err != nil {
			return err
		}
	}
	if from != nil {
		return i.remove(db, from, prev.Key())
	}
	return nil
}

// GetAt returns the primary keys stored at the secondary key.
func (i Index) GetAt(db weave.ReadOnlyKVStore, key []byte) ([][]byte, error) {
	raw, err := db.Get(i.dbKey(key))
	if err != nil || raw == nil {
		return nil, err
	}
	return i.decode(raw)
}

// GetPrefix returns the primary keys stored at any secondary key starting
// with prefix.
func (i Index) GetPrefix(db weave.ReadOnlyKVStore, prefix []byte) ([][]byte, error) {
	entries, err := scanPrefix(db, i.dbKey(prefix))
	if err != nil {
		return nil, err
	}
	var refs [][]byte
	for _, e := range entries {
		r, err := i.decode(e.Value)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r...)
	}
	return refs, nil
}

// Query returns the referenced objects as stored in the bucket.
func (i Index) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	var refs [][]byte
	var err error
	switch mod {
	case weave.KeyQueryMod:
		refs, err = i.GetAt(db, data)
	case weave.PrefixQueryMod:
		refs, err = i.GetPrefix(db, data)
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown query mod %q", mod)
	}
	if err != nil || len(refs) == 0 {
		return nil, err
	}

	res := make([]weave.Model, 0, len(refs))
	for _, ref := range refs {
		key := i.refKey(ref)
		value, err := db.Get(key)
		if err != nil {
			return nil, err
		}
		res = append(res, weave.Pair(key, value))
	}
	return res, nil
}

func (i Index) decode(raw []byte) ([][]byte, error) {
	if i.unique {
		return [][]byte{raw}, nil
	}
	var refs MultiRef
	if err := refs.Unmarshal(raw); err != nil {
		return nil, errors.Wrap(err, "index data")
	}
	return refs.Refs, nil
}

func (i Index) add(db weave.KVStore, key, pk []byte) error {
	dbKey := i.dbKey(key)
	cur, err := db.Get(dbKey)
	if err != nil {
		return err
	}
	if i.unique {
		if cur != nil {
			return errors.Wrapf(errors.ErrDuplicate, "unique index %s", i.name)
		}
		return db.Set(dbKey, pk)
	}

	var refs MultiRef
	if cur != nil {
		if err := refs.Unmarshal(cur); err != nil {
			return errors.Wrap(err, "index data")
		}
	}
	if err := refs.Add(pk); err != nil {
		return err
	}
	return i.store(db, dbKey, &refs)
}

func (i Index) remove(db weave.KVStore, key, pk []byte) error {
	dbKey := i.dbKey(key)
	cur, err := db.Get(dbKey)
	if err != nil {
		return err
	}
	if cur == nil || (i.unique && !bytes.Equal(cur, pk)) {
		return errors.Wrapf(errors.ErrNotFound, "%s is not indexed", pk)
	}
	if i.unique {
		return db.Delete(dbKey)
	}

	var refs MultiRef
	if err := refs.Unmarshal(cur); err != nil {
		return errors.Wrap(err, "index data")
	}
	if err := refs.Remove(pk); err != nil {
		return err
	}
	if len(refs.Refs) == 0 {
		return db.Delete(dbKey)
	}
	return i.store(db, dbKey, &refs)
}

func (i Index) store(db weave.KVStore, dbKey []byte, refs *MultiRef) error {
	raw, err := refs.Marshal()
	if err != nil {
		return err
	}
	return db.Set(dbKey, raw)
}
