package app

import (
	"encoding/json"
	"fmt"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

// StoreApp implements the state related part of abci.Application: info,
// queries, genesis and commit. BaseApp embeds it and adds transaction
// processing.
//
// InitChain and Commit do not depend on user input. A failure there leaves
// the node in an unknown state, so they panic.
type StoreApp struct {
	name        string
	logger      log.Logger
	state       *layers
	initializer weave.Initializer
	queries     weave.QueryRouter

	// chainID is empty until the genesis is loaded.
	chainID string

	// base lives as long as the app, block is replaced on BeginBlock.
	base  weave.Context
	block weave.Context
}

// NewStoreApp opens the latest version of kv. When the store was already
// initialized, the chain id and the height are restored from it.
func NewStoreApp(name string, kv weave.CommitKVStore, queries weave.QueryRouter, ctx weave.Context) (*StoreApp, error) {
	state, err := openLayers(kv)
	if err != nil {
		return nil, err
	}
	s := &StoreApp{
		name:    name,
		state:   state,
		queries: queries,
		base:    ctx,
	}
	s.WithLogger(log.NewNopLogger())

	if s.chainID, err = readChainID(state.deliver); err != nil {
		return nil, err
	}
	if s.chainID != "" {
		s.base = weave.WithChainID(s.base, s.chainID)
	}
	last, err := s.CommitInfo()
	if err != nil {
		return nil, errors.Wrap(err, "commit info")
	}
	s.block = weave.WithHeight(s.base, last.Version)
	return s, nil
}

func (s *StoreApp) GetChainID() string { return s.chainID }

// WithInit sets the initializer InitState passes the genesis to.
func (s *StoreApp) WithInit(init weave.Initializer) *StoreApp {
	s.initializer = init
	return s
}

// WithLogger sets the logger of the app and of every context it creates.
func (s *StoreApp) WithLogger(logger log.Logger) *StoreApp {
	s.logger = logger
	s.base = weave.WithLogger(s.base, logger)
	if s.block != nil {
		s.block = weave.WithLogger(s.block, logger)
	}
	return s
}

func (s *StoreApp) Logger() log.Logger { return s.logger }

// BlockContext carries the height and time of the current block.
func (s *StoreApp) BlockContext() weave.Context { return s.block }

func (s *StoreApp) DeliverStore() weave.CacheableKVStore { return s.state.deliver }

func (s *StoreApp) CheckStore() weave.CacheableKVStore { return s.state.check }

// CommitInfo returns the height and hash of the last commit.
func (s *StoreApp) CommitInfo() (weave.CommitID, error) {
	return s.state.committed.LatestVersion()
}

// InitState saves the chain id and hands the genesis app state to the
// initializer. A chain can be initialized only once.
func (s *StoreApp) InitState(chainID string, appState []byte) error {
	if s.chainID != "" {
		return errors.Wrapf(errors.ErrState, "app state previously loaded for chain %s", s.chainID)
	}
	if len(appState) == 0 {
		return errors.Wrap(errors.ErrEmpty, "app_state not set in genesis")
	}
	var opts weave.Options
	if err := json.Unmarshal(appState, &opts); err != nil {
		return errors.Wrapf(errors.ErrInput, "app state: %s", err)
	}
	if err := writeChainID(s.DeliverStore(), chainID); err != nil {
		return err
	}
	s.chainID = chainID
	s.base = weave.WithChainID(s.base, chainID)
	// Transactions may be checked before the first block begins.
	last, err := s.CommitInfo()
	if err != nil {
		return errors.Wrap(err, "commit info")
	}
	s.block = weave.WithHeight(s.base, last.Version)

	if s.initializer == nil {
		return nil
	}
	return s.initializer.FromGenesis(opts, s.DeliverStore())
}

// Info reports the last committed block so tendermint knows where to
// resume.
func (s *StoreApp) Info(abci.RequestInfo) abci.ResponseInfo {
	last, err := s.CommitInfo()
	if err != nil {
		panic(err)
	}
	s.logger.Info("Info synced", "height", last.Version, "hash", fmt.Sprintf("%X", last.Hash))
	return abci.ResponseInfo{
		Data:             s.name,
		Version:          weave.Version(),
		LastBlockHeight:  last.Version,
		LastBlockAppHash: last.Hash,
	}
}

func (s *StoreApp) SetOption(abci.RequestSetOption) abci.ResponseSetOption {
	return abci.ResponseSetOption{Log: "Not Implemented"}
}

// Query reads the committed state. The path names a bucket or one of its
// indexes, for example "/escrows" or "/escrows/client", optionally
// followed by "?prefix". Key and Value of the response are serialized
// ResultSets of equal length.
func (s *StoreApp) Query(req abci.RequestQuery) abci.ResponseQuery {
	path, mod := weave.SplitQueryPath(req.Path)
	h := s.queries.Handler(path)
	if h == nil {
		return queryError(errors.Wrapf(errors.ErrNotFound, "unexpected query path %q", req.Path))
	}
	last, err := s.CommitInfo()
	if err != nil {
		return queryError(err)
	}
	models, err := h.Query(s.state.snapshot(), mod, req.Data)
	if err != nil {
		return queryError(err)
	}

	res := abci.ResponseQuery{Height: last.Version}
	if res.Key, err = ResultsFromKeys(models).Marshal(); err != nil {
		return queryError(err)
	}
	if res.Value, err = ResultsFromValues(models).Marshal(); err != nil {
		return queryError(err)
	}
	return res
}

func queryError(err error) abci.ResponseQuery {
	code, log := errors.ABCIInfo(err, false)
	return abci.ResponseQuery{Code: code, Log: log}
}

// Commit persists everything delivered in the current block.
func (s *StoreApp) Commit() abci.ResponseCommit {
	id, err := s.state.commit()
	if err != nil {
		panic(err)
	}
	s.logger.Debug("Commit synced", "height", id.Version, "hash", fmt.Sprintf("%X", id.Hash))
	return abci.ResponseCommit{Data: id.Hash}
}

func (s *StoreApp) InitChain(req abci.RequestInitChain) abci.ResponseInitChain {
	if err := s.InitState(req.ChainId, req.AppStateBytes); err != nil {
		panic(err)
	}
	return abci.ResponseInitChain{}
}

// BeginBlock starts a new block context with the height and time of the
// block header.
func (s *StoreApp) BeginBlock(req abci.RequestBeginBlock) abci.ResponseBeginBlock {
	ctx := weave.WithHeight(s.base, req.Header.GetHeight())
	s.block = weave.WithBlockTime(ctx, req.Header.GetTime())
	return abci.ResponseBeginBlock{}
}

func (s *StoreApp) EndBlock(abci.RequestEndBlock) abci.ResponseEndBlock {
	return abci.ResponseEndBlock{}
}
