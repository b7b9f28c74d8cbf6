package weave

// ReadOnlyKVStore reads state. Get returns a nil value for a missing
// key. Ranges are [start, end) and a nil bound is open.
type ReadOnlyKVStore interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	// Iterator walks keys in ascending order. The range must not be
	// written to while the iterator is open.
	Iterator(start, end []byte) (Iterator, error)
	// ReverseIterator walks keys in descending order.
	ReverseIterator(start, end []byte) (Iterator, error)
}

// SetDeleter is the write side shared by stores and batches.
type SetDeleter interface {
	Set(key, value []byte) error
	Delete(key []byte) error
}

// KVStore is the state a handler works on.
type KVStore interface {
	ReadOnlyKVStore
	SetDeleter
	NewBatch() Batch
}

// Batch collects writes and applies them in a single Write.
type Batch interface {
	SetDeleter
	Write() error
}

// Iterator yields pairs until Next returns ErrIteratorDone. Release
// must always be called.
//
//	it, err := db.Iterator(start, end)
//	...
//	defer it.Release()
//	for {
//		key, value, err := it.Next()
//		if errors.ErrIteratorDone.Is(err) {
//			break
//		}
//		...
//	}
type Iterator interface {
	Next() (key, value []byte, err error)
	Release()
}

// CacheableKVStore can stage writes in a cache on top of itself.
type CacheableKVStore interface {
	KVStore
	CacheWrap() KVCacheWrap
}

// KVCacheWrap buffers writes over a parent store. Reads see the buffered
// writes. Write flushes them to the parent and Discard drops them. A
// cache can itself be cache wrapped, which is how a transaction gets a
// savepoint inside a block.
type KVCacheWrap interface {
	CacheableKVStore
	Write() error
	Discard()
}

// CommitKVStore is the persistent, versioned root of the state. Each
// Commit produces a new version with its own hash.
type CommitKVStore interface {
	// Get reads the last committed version.
	Get(key []byte) ([]byte, error)
	CacheWrap() KVCacheWrap
	Commit() (CommitID, error)
	// LoadLatestVersion opens the newest complete version. After a crash
	// during commit that is the previous one.
	LoadLatestVersion() error
	LatestVersion() (CommitID, error)
}

// CommitID names a committed version.
type CommitID struct {
	Version int64
	Hash    []byte
}
