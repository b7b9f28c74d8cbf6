package store

import "github.com/iov-one/weave-escrow"

// The store interfaces are declared in the root package so handlers do
// not import store. These aliases keep names short inside it.
type (
	ReadOnlyKVStore  = weave.ReadOnlyKVStore
	SetDeleter       = weave.SetDeleter
	KVStore          = weave.KVStore
	Batch            = weave.Batch
	Iterator         = weave.Iterator
	CacheableKVStore = weave.CacheableKVStore
	KVCacheWrap      = weave.KVCacheWrap
	CommitKVStore    = weave.CommitKVStore
	CommitID         = weave.CommitID
	Model            = weave.Model
)

// Pair builds a Model.
func Pair(key, value []byte) Model {
	return weave.Pair(key, value)
}
