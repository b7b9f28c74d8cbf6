package app

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// chainIDKey lives in the "_wv:" namespace reserved for framework data.
var chainIDKey = []byte("_wv:chainID")

// layers holds the committed store together with the two caches built on
// top of it. CheckTx runs against check, DeliverTx against deliver. Only
// deliver is written on commit; check is thrown away.
type layers struct {
	committed weave.CommitKVStore
	check     weave.KVCacheWrap
	deliver   weave.KVCacheWrap
}

func openLayers(kv weave.CommitKVStore) (*layers, error) {
	if err := kv.LoadLatestVersion(); err != nil {
		return nil, errors.Wrap(err, "load latest version")
	}
	l := &layers{committed: kv}
	l.reset()
	return l, nil
}

func (l *layers) reset() {
	l.check = l.committed.CacheWrap()
	l.deliver = l.committed.CacheWrap()
}

func (l *layers) commit() (weave.CommitID, error) {
	if err := l.deliver.Write(); err != nil {
		return weave.CommitID{}, errors.Wrap(err, "flush deliver cache")
	}
	l.check.Discard()
	id, err := l.committed.Commit()
	if err != nil {
		return id, errors.Wrap(err, "commit")
	}
	l.reset()
	return id, nil
}

// snapshot is a read only view of the last committed block.
func (l *layers) snapshot() weave.ReadOnlyKVStore {
	return l.committed.CacheWrap()
}

func readChainID(kv weave.ReadOnlyKVStore) (string, error) {
	raw, err := kv.Get(chainIDKey)
	if err != nil {
		return "", errors.Wrap(err, "load chain id")
	}
	return string(raw), nil
}

// writeChainID stores the chain id. It can only be done once.
func writeChainID(kv weave.KVStore, chainID string) error {
	if !weave.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}
	switch set, err := kv.Has(chainIDKey); {
	case err != nil:
		return errors.Wrap(err, "load chain id")
	case set:
		return errors.Wrap(errors.ErrUnauthorized, "can't modify chain id after genesis init")
	}
	return errors.Wrap(kv.Set(chainIDKey, []byte(chainID)), "save chain id")
}
