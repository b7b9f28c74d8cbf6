package app

import (
	"context"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/stretchr/testify/assert"
)

func TestChain(t *testing.T) {
	first := &weavetest.Decorator{}
	failing := &weavetest.Decorator{CheckErr: errors.ErrUnauthorized}
	var missing *weavetest.Decorator
	h := &weavetest.Handler{}

	stack := ChainDecorators(first, missing).Chain(nil, failing).WithHandler(h)
	ctx := context.Background()
	db := store.MemStore()
	tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "escrow/fund"}}

	_, err := stack.Check(ctx, db, tx)
	assert.True(t, errors.ErrUnauthorized.Is(err))
	assert.Equal(t, 1, first.CheckCallCount())
	assert.Equal(t, 1, failing.CheckCallCount())
	assert.Equal(t, 0, h.CheckCallCount())

	_, err = stack.Deliver(ctx, db, tx)
	assert.NoError(t, err)
	assert.Equal(t, 1, first.DeliverCallCount())
	assert.Equal(t, 1, h.DeliverCallCount())
}

func TestChainKeepsOriginalUntouched(t *testing.T) {
	base := ChainDecorators(&weavetest.Decorator{})
	a := base.Chain(&weavetest.Decorator{CheckErr: errors.ErrState})
	b := base.Chain(&weavetest.Decorator{})

	var h weave.Handler = &weavetest.Handler{}
	_, err := a.WithHandler(h).Check(context.Background(), store.MemStore(), &weavetest.Tx{})
	assert.True(t, errors.ErrState.Is(err))
	_, err = b.WithHandler(h).Check(context.Background(), store.MemStore(), &weavetest.Tx{})
	assert.NoError(t, err)
}
