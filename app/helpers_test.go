package app

import (
	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/weavetest"
)

// pathDecoder turns the raw bytes into a message routed by that path.
func pathDecoder(raw []byte) (weave.Tx, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(errors.ErrInput, "empty tx")
	}
	if string(raw) == "panic" {
		panic("cannot decode")
	}
	return &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: string(raw)}}, nil
}

// storeHandler writes the message path under a fixed key and emits an
// event, or fails with err.
type storeHandler struct {
	err error
}

var _ weave.Handler = storeHandler{}

func (h storeHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if h.err != nil {
		return nil, h.err
	}
	return &weave.CheckResult{Log: "ok"}, nil
}

func (h storeHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	if h.err != nil {
		return nil, h.err
	}
	path := weave.GetPath(tx)
	if err := db.Set([]byte("last"), []byte(path)); err != nil {
		return nil, err
	}
	weave.EmitEvent(ctx, weave.Event{Module: "test", Topic: "stored", Key: path})
	return &weave.DeliverResult{Data: []byte(path)}, nil
}

// lastQuery returns the value stored by storeHandler.
type lastQuery struct{}

func (lastQuery) Query(db weave.ReadOnlyKVStore, mod string, data []byte) ([]weave.Model, error) {
	v, err := db.Get([]byte("last"))
	if err != nil || v == nil {
		return nil, err
	}
	return []weave.Model{weave.Pair([]byte("last"), v)}, nil
}
