/*
Package app wires the escrow and cash extensions into an ABCI
application: the transaction envelope, the decorator stack, the query
router and the persistent store.
*/
package app

import (
	"context"
	"os"
	"path/filepath"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/app"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/events"
	"github.com/iov-one/weave-escrow/store/iavl"
	"github.com/iov-one/weave-escrow/store/pebbledb"
	"github.com/iov-one/weave-escrow/x"
	"github.com/iov-one/weave-escrow/x/cash"
	"github.com/iov-one/weave-escrow/x/escrow"
	"github.com/iov-one/weave-escrow/x/sigs"
	"github.com/iov-one/weave-escrow/x/utils"
	"github.com/tendermint/tendermint/libs/log"
)

// Name is reported by abci Info.
const Name = "escrowd"

// Supported store backends.
const (
	BackendIAVL   = "iavl"
	BackendPebble = "pebble"
)

// Authenticator returns the typical authentication,
// just using public key signatures
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{})
}

// CashControl returns a controller for cash functions
func CashControl() cash.BaseController {
	return cash.NewController(cash.NewBucket())
}

// Chain returns a chain of decorators, to handle authentication,
// logging, and recovery
func Chain() app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		utils.NewActionTagger(),
		// on CheckTx, bad tx don't affect state
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		// on DeliverTx, bad tx will increment nonce
		// even if the message fails
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router returns a router dispatching to the cash and escrow handlers
func Router(authFn x.Authenticator) *app.Router {
	r := app.NewRouter()
	bank := CashControl()
	cash.RegisterRoutes(r, authFn, bank)
	escrow.RegisterRoutes(r, authFn, bank)
	return r
}

// QueryRouter returns a default query router,
// allowing access to "/wallets", "/auth" and "/escrows"
func QueryRouter() weave.QueryRouter {
	r := weave.NewQueryRouter()
	r.RegisterAll(
		cash.RegisterQuery,
		sigs.RegisterQuery,
		escrow.RegisterQuery,
	)
	return r
}

// Initializers returns the genesis loaders of all extensions.
func Initializers() weave.Initializer {
	return weave.ChainInitializers(
		cash.Initializer{},
		&escrow.Initializer{Issuer: CashControl()},
	)
}

// Stack wires up a standard router with a standard decorator
// chain. This can be passed into BaseApp.
func Stack() weave.Handler {
	authFn := Authenticator()
	return Chain().WithHandler(Router(authFn))
}

// Store is a CommitKVStore holding resources that must be released.
type Store interface {
	weave.CommitKVStore
	Close() error
}

// OpenStore opens the persistent store of the given backend inside home.
// An empty home creates a memory backed store, for tests.
func OpenStore(backend, home string) (Store, error) {
	switch backend {
	case BackendIAVL, "":
		if home == "" {
			return iavl.NewMemCommitStore(), nil
		}
		dir := filepath.Join(home, "data")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrapf(errors.ErrDatabase, "create data dir: %s", err)
		}
		kv, err := iavl.NewCommitStore(dir, "escrow")
		if err != nil {
			return nil, err
		}
		return kv, nil
	case BackendPebble:
		var (
			kv  *pebbledb.CommitStore
			err error
		)
		if home == "" {
			kv, err = pebbledb.OpenMem()
		} else {
			kv, err = pebbledb.Open(filepath.Join(home, "data", "escrow.pebble"))
		}
		if err != nil {
			return nil, err
		}
		return kv, nil
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown store backend %q", backend)
	}
}

// Options configure GenerateApp.
type Options struct {
	Home    string
	Backend string
	Debug   bool
	Logger  log.Logger
	Sink    events.Sink
}

// GenerateApp builds the escrow application on top of the configured
// store. The returned store must be closed once the application stops.
func GenerateApp(opts Options) (*app.BaseApp, Store, error) {
	kv, err := OpenStore(opts.Backend, opts.Home)
	if err != nil {
		return nil, nil, err
	}
	s, err := app.NewStoreApp(Name, kv, QueryRouter(), context.Background())
	if err != nil {
		kv.Close()
		return nil, nil, err
	}
	s.WithInit(Initializers())
	if opts.Logger != nil {
		s.WithLogger(opts.Logger)
	}
	return app.NewBaseApp(s, TxDecoder, Stack(), opts.Sink, opts.Debug), kv, nil
}
