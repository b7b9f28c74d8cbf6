package app

import (
	"time"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/events"
	abci "github.com/tendermint/tendermint/abci/types"
)

// BaseApp adds DeliverTx, CheckTx, and BeginBlock
// handlers to the storage and query functionality of StoreApp.
//
// Events emitted by successful transactions become tags of their
// DeliverTx response and are handed to the event sink once the block is
// committed.
type BaseApp struct {
	*StoreApp
	decoder weave.TxDecoder
	handler weave.Handler
	sink    events.Sink
	debug   bool

	// events of the current block, published on Commit
	pending []weave.Event
}

var _ abci.Application = (*BaseApp)(nil)

// NewBaseApp constructs a basic abci application. A nil sink drops all
// events.
func NewBaseApp(
	store *StoreApp,
	decoder weave.TxDecoder,
	handler weave.Handler,
	sink events.Sink,
	debug bool,
) *BaseApp {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &BaseApp{
		StoreApp: store,
		decoder:  decoder,
		handler:  handler,
		sink:     sink,
		debug:    debug,
	}
}

// DeliverTx - ABCI - dispatches to the handler
func (b *BaseApp) DeliverTx(txBytes []byte) abci.ResponseDeliverTx {
	tx, err := b.loadTx(txBytes)
	if err != nil {
		return weave.DeliverTxError(err, b.debug)
	}

	var buf weave.EventBuffer
	ctx := weave.WithLogInfo(b.BlockContext(),
		"call", "deliver_tx",
		"path", weave.GetPath(tx))
	ctx = weave.WithEventBuffer(ctx, &buf)

	res, err := b.handler.Deliver(ctx, b.DeliverStore(), tx)
	if err == nil {
		emitted := buf.Events()
		res.Tags = append(res.Tags, weave.EventTags(emitted)...)
		b.pending = append(b.pending, emitted...)
	}
	return weave.DeliverOrError(res, err, b.debug)
}

// CheckTx - ABCI - dispatches to the handler
func (b *BaseApp) CheckTx(txBytes []byte) abci.ResponseCheckTx {
	tx, err := b.loadTx(txBytes)
	if err != nil {
		return weave.CheckTxError(err, b.debug)
	}

	ctx := weave.WithLogInfo(b.BlockContext(),
		"call", "check_tx",
		"path", weave.GetPath(tx))

	res, err := b.handler.Check(ctx, b.CheckStore(), tx)
	return weave.CheckOrError(res, err, b.debug)
}

// BeginBlock - ABCI
func (b *BaseApp) BeginBlock(req abci.RequestBeginBlock) abci.ResponseBeginBlock {
	b.pending = nil
	return b.StoreApp.BeginBlock(req)
}

// Commit - ABCI - persists the block and publishes its events.
func (b *BaseApp) Commit() abci.ResponseCommit {
	res := b.StoreApp.Commit()

	published := b.pending
	b.pending = nil
	if len(published) == 0 {
		return res
	}
	// Sinks are outside of consensus. Their failure must not halt the
	// chain.
	if err := b.sink.Publish(b.BlockContext(), published); err != nil {
		b.Logger().Error("cannot publish events", "err", err, "count", len(published))
	}
	return res
}

// loadTx calls the decoder, and capture any panics
func (b *BaseApp) loadTx(txBytes []byte) (tx weave.Tx, err error) {
	defer errors.Recover(&err)
	tx, err = b.decoder(txBytes)
	return
}

// BlockResult is the outcome of ExecuteBlock.
type BlockResult struct {
	Height  int64
	Hash    []byte
	Deliver []abci.ResponseDeliverTx
}

// ExecuteBlock runs the given transactions as a new block on top of the
// last committed state and commits it. It drives the application the
// same way a consensus engine would and is meant for single node setups
// that run without one.
func (b *BaseApp) ExecuteBlock(now time.Time, txs ...[]byte) (*BlockResult, error) {
	info, err := b.CommitInfo()
	if err != nil {
		return nil, err
	}
	height := info.Version + 1

	b.BeginBlock(abci.RequestBeginBlock{
		Header: abci.Header{
			ChainID: b.GetChainID(),
			Height:  height,
			Time:    now.UTC(),
		},
	})
	res := BlockResult{Height: height}
	for _, tx := range txs {
		res.Deliver = append(res.Deliver, b.DeliverTx(tx))
	}
	b.EndBlock(abci.RequestEndBlock{Height: height})
	res.Hash = b.Commit().Data
	return &res, nil
}

// SubmitTx checks a single transaction and, if it passes, executes it as
// its own block. Transactions failing the check do not produce a block.
func (b *BaseApp) SubmitTx(now time.Time, txBytes []byte) (*abci.ResponseDeliverTx, int64, error) {
	if chk := b.CheckTx(txBytes); chk.IsErr() {
		return nil, 0, errors.FromABCI(chk.Code, chk.Log)
	}
	block, err := b.ExecuteBlock(now, txBytes)
	if err != nil {
		return nil, 0, err
	}
	res := block.Deliver[0]
	if res.IsErr() {
		return &res, block.Height, errors.FromABCI(res.Code, res.Log)
	}
	return &res, block.Height, nil
}
