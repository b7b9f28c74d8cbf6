package weave

import (
	"encoding/json"

	"github.com/iov-one/weave-escrow/errors"
)

// Checker validates a transaction against the current state without
// committing anything.
type Checker interface {
	Check(ctx Context, store KVStore, tx Tx) (*CheckResult, error)
}

// Deliverer executes a transaction.
type Deliverer interface {
	Deliver(ctx Context, store KVStore, tx Tx) (*DeliverResult, error)
}

// Handler processes the messages routed to it.
type Handler interface {
	Checker
	Deliverer
}

// Decorator is middleware around a Handler. Signature checks, logging
// and savepoints are all decorators.
type Decorator interface {
	Check(ctx Context, store KVStore, tx Tx, next Checker) (*CheckResult, error)
	Deliver(ctx Context, store KVStore, tx Tx, next Deliverer) (*DeliverResult, error)
}

// Registry binds message paths to handlers.
type Registry interface {
	Handle(path string, h Handler)
}

// Options is the app_state section of the genesis file, keyed by
// module name.
type Options map[string]json.RawMessage

// ReadOptions decodes the section under key into obj. A missing section
// leaves obj untouched.
func (o Options) ReadOptions(key string, obj interface{}) error {
	raw, ok := o[key]
	if !ok || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "genesis %q: %s", key, err)
	}
	return nil
}

// Initializer loads a module's genesis state.
type Initializer interface {
	FromGenesis(Options, KVStore) error
}

// InitializerFunc adapts a function to Initializer.
type InitializerFunc func(Options, KVStore) error

func (fn InitializerFunc) FromGenesis(opts Options, db KVStore) error {
	return fn(opts, db)
}

// ChainInitializers runs every initializer in order and stops at the
// first failure.
func ChainInitializers(inits ...Initializer) Initializer {
	return InitializerFunc(func(opts Options, db KVStore) error {
		for _, in := range inits {
			if err := in.FromGenesis(opts, db); err != nil {
				return err
			}
		}
		return nil
	})
}
