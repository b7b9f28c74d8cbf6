/*
Package pebbledb implements a versioned CommitKVStore on top of a pebble
database.

Unlike the iavl store it keeps no merkle tree. The app hash of every
version is a running sha256 over the previous hash and all writes of the
version, so two nodes applying the same writes report the same hash.
*/
package pebbledb

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"io"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
)

// Application data and metadata live in separate key spaces.
var (
	dataPrefix  = []byte{'d'}
	dataEnd     = []byte{'d' + 1}
	versionKey  = []byte("m:version")
	hashKey     = []byte("m:hash")
	writeSet    = byte(1)
	writeDelete = byte(2)
)

// CommitStore is a pebble backed store. Writes are collected in an indexed
// batch, readable through the Adapter, and persisted on Commit.
type CommitStore struct {
	db      *pebble.DB
	working *pebble.Batch
	hasher  hash.Hash
	last    store.CommitID
}

var _ store.CommitKVStore = (*CommitStore)(nil)

// Open opens or creates a pebble database in given directory.
func Open(dir string) (*CommitStore, error) {
	return open(dir, &pebble.Options{})
}

// OpenMem creates a store that keeps everything in memory, for tests.
func OpenMem() (*CommitStore, error) {
	return open("", &pebble.Options{FS: vfs.NewMem()})
}

func open(dir string, opts *pebble.Options) (*CommitStore, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open pebble: %s", err)
	}
	return &CommitStore{db: db}, nil
}

// Close releases the database.
func (s *CommitStore) Close() error {
	if s.working != nil {
		_ = s.working.Close()
	}
	if err := s.db.Close(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// LoadLatestVersion reads the last committed version and prepares a fresh
// working batch.
func (s *CommitStore) LoadLatestVersion() error {
	raw, err := get(s.db, versionKey)
	if err != nil {
		return err
	}
	var id store.CommitID
	if len(raw) == 8 {
		id.Version = int64(binary.BigEndian.Uint64(raw))
	}
	if id.Hash, err = get(s.db, hashKey); err != nil {
		return err
	}
	s.last = id
	s.reset()
	return nil
}

func (s *CommitStore) reset() {
	if s.working != nil {
		_ = s.working.Close()
	}
	s.working = s.db.NewIndexedBatch()
	s.hasher = sha256.New()
	s.hasher.Write(s.last.Hash)
}

// LatestVersion returns info on the latest version saved to disk
func (s *CommitStore) LatestVersion() (store.CommitID, error) {
	return s.last, nil
}

// Get returns the value at last committed state.
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	return get(s.db, dataKey(key))
}

// Commit persists all writes done through the adapter as the next version.
func (s *CommitStore) Commit() (store.CommitID, error) {
	if s.working == nil {
		return store.CommitID{}, errors.Wrap(errors.ErrHuman, "store not loaded")
	}
	next := store.CommitID{
		Version: s.last.Version + 1,
		Hash:    s.hasher.Sum(nil),
	}
	var v [8]byte
	binary.BigEndian.PutUint64(v[:], uint64(next.Version))
	if err := s.working.Set(versionKey, v[:], nil); err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if err := s.working.Set(hashKey, next.Hash, nil); err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if err := s.working.Commit(pebble.Sync); err != nil {
		return store.CommitID{}, errors.Wrapf(errors.ErrDatabase, "commit: %s", err)
	}
	s.last = next
	s.reset()
	return next, nil
}

// CacheWrap gives us a savepoint to perform actions
func (s *CommitStore) CacheWrap() store.KVCacheWrap {
	return s.Adapter().CacheWrap()
}

// Adapter returns the working state. Data written here is visible
// immediately and persisted on Commit.
func (s *CommitStore) Adapter() store.CacheableKVStore {
	return store.BTreeCacheable{KVStore: adapter{s: s}}
}

type adapter struct {
	s *CommitStore
}

var _ store.KVStore = adapter{}

func (a adapter) Get(key []byte) ([]byte, error) {
	return get(a.s.working, dataKey(key))
}

func (a adapter) Has(key []byte) (bool, error) {
	v, err := a.Get(key)
	return v != nil, err
}

func (a adapter) Set(key, value []byte) error {
	a.record(writeSet, key, value)
	if err := a.s.working.Set(dataKey(key), value, nil); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func (a adapter) Delete(key []byte) error {
	a.record(writeDelete, key, nil)
	if err := a.s.working.Delete(dataKey(key), nil); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// record feeds a write into the running app hash.
func (a adapter) record(kind byte, key, value []byte) {
	var size [binary.MaxVarintLen64]byte
	a.s.hasher.Write([]byte{kind})
	a.s.hasher.Write(size[:binary.PutUvarint(size[:], uint64(len(key)))])
	a.s.hasher.Write(key)
	a.s.hasher.Write(size[:binary.PutUvarint(size[:], uint64(len(value)))])
	a.s.hasher.Write(value)
}

func (a adapter) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(a)
}

func (a adapter) Iterator(start, end []byte) (store.Iterator, error) {
	return a.iterate(start, end, false)
}

func (a adapter) ReverseIterator(start, end []byte) (store.Iterator, error) {
	return a.iterate(start, end, true)
}

// iterate loads the whole range, so that writes may happen while the
// iterator is in use.
func (a adapter) iterate(start, end []byte, reverse bool) (store.Iterator, error) {
	opts := &pebble.IterOptions{
		LowerBound: dataPrefix,
		UpperBound: dataEnd,
	}
	if start != nil {
		opts.LowerBound = dataKey(start)
	}
	if end != nil {
		opts.UpperBound = dataKey(end)
	}
	iter, err := a.s.working.NewIter(opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	defer iter.Close()

	var res []store.Model
	if reverse {
		for iter.Last(); iter.Valid(); iter.Prev() {
			res = append(res, model(iter))
		}
	} else {
		for iter.First(); iter.Valid(); iter.Next() {
			res = append(res, model(iter))
		}
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return store.NewSliceIterator(res), nil
}

func model(iter *pebble.Iterator) store.Model {
	key := bytes.TrimPrefix(iter.Key(), dataPrefix)
	return store.Pair(append([]byte(nil), key...), append([]byte(nil), iter.Value()...))
}

func dataKey(key []byte) []byte {
	return append(append(make([]byte, 0, len(key)+1), dataPrefix...), key...)
}

type reader interface {
	Get(key []byte) ([]byte, io.Closer, error)
}

// get returns a copy of the value or nil if not found.
func get(r reader, key []byte) ([]byte, error) {
	val, closer, err := r.Get(key)
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	defer closer.Close()
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}
