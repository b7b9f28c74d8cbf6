package utils

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// Savepoint runs the rest of the stack on a cache of the store. The cache
// is written only when the handler succeeds, so a failed transaction
// leaves no partial writes. Events are held back the same way.
//
// It is off by default. Enable it per phase with OnCheck and OnDeliver.
type Savepoint struct {
	check, deliver bool
}

var _ weave.Decorator = Savepoint{}

// NewSavepoint returns a Savepoint that is disabled in both phases.
func NewSavepoint() Savepoint { return Savepoint{} }

// OnCheck returns a copy that also caches CheckTx.
func (s Savepoint) OnCheck() Savepoint {
	s.check = true
	return s
}

// OnDeliver returns a copy that also caches DeliverTx.
func (s Savepoint) OnDeliver() Savepoint {
	s.deliver = true
	return s
}

// Check runs next on a cache when enabled for CheckTx.
func (s Savepoint) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	if !s.check {
		return next.Check(ctx, db, tx)
	}
	return withSavepoint(ctx, db, func(ctx weave.Context, db weave.KVStore) (*weave.CheckResult, error) {
		return next.Check(ctx, db, tx)
	})
}

// Deliver runs next on a cache when enabled for DeliverTx.
func (s Savepoint) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	if !s.deliver {
		return next.Deliver(ctx, db, tx)
	}
	return withSavepoint(ctx, db, func(ctx weave.Context, db weave.KVStore) (*weave.DeliverResult, error) {
		return next.Deliver(ctx, db, tx)
	})
}

// withSavepoint calls fn on a cache of db. A store that cannot be cache
// wrapped is passed through as is.
func withSavepoint[R any](ctx weave.Context, db weave.KVStore, fn func(weave.Context, weave.KVStore) (*R, error)) (*R, error) {
	parent, ok := db.(weave.CacheableKVStore)
	if !ok {
		return fn(ctx, db)
	}
	cache := parent.CacheWrap()
	var events weave.EventBuffer
	res, err := fn(weave.WithEventBuffer(ctx, &events), cache)
	if err != nil {
		cache.Discard()
		return nil, err
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(err, "write savepoint")
	}
	for _, e := range events.Events() {
		weave.EmitEvent(ctx, e)
	}
	return res, nil
}
