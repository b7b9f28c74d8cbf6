package app

import (
	"context"
	"testing"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterDispatch(t *testing.T) {
	r := NewRouter()
	fund := &weavetest.Handler{}
	release := &weavetest.Handler{DeliverErr: errors.ErrState}
	r.Handle("escrow/fund", fund)
	r.Handle("escrow/release", release)

	ctx := context.Background()
	db := store.MemStore()

	_, err := r.Deliver(ctx, db, &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "escrow/fund"}})
	require.NoError(t, err)
	_, err = r.Check(ctx, db, &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "escrow/fund"}})
	require.NoError(t, err)
	assert.Equal(t, 2, fund.CallCount())

	_, err = r.Deliver(ctx, db, &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "escrow/release"}})
	assert.True(t, errors.ErrState.Is(err))
	assert.Equal(t, 1, release.DeliverCallCount())

	_, err = r.Check(ctx, db, &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "escrow/unknown"}})
	assert.True(t, errors.ErrNotFound.Is(err))

	_, err = r.Deliver(ctx, db, &weavetest.Tx{Err: errors.ErrType})
	assert.True(t, errors.ErrType.Is(err))
}

func TestRouterRegistration(t *testing.T) {
	r := NewRouter()
	r.Handle("escrow/create", &weavetest.Handler{})
	assert.Panics(t, func() { r.Handle("escrow/create", &weavetest.Handler{}) })
	assert.Panics(t, func() { r.Handle("escrow create", &weavetest.Handler{}) })
}
