package utils

import (
	"context"
	"testing"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
	"github.com/iov-one/weave-escrow/store"
	"github.com/iov-one/weave-escrow/weavetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSavepoint(t *testing.T) {
	// always written before calling functions
	ok, ov := []byte("demo"), []byte("data")
	// written by the handler
	nk, nv := []byte{1, 2, 3}, []byte{4, 5, 6}

	cases := map[string]struct {
		save    weave.Decorator
		handler weave.Handler
		check   bool
		wantErr *errors.Error

		written [][]byte
		missing [][]byte
		events  int
	}{
		"savepoint deactivated, error keeps the write": {
			save:    NewSavepoint(),
			handler: &writeHandler{key: nk, value: nv, err: errors.ErrState},
			check:   true,
			wantErr: errors.ErrState,
			written: [][]byte{ok, nk},
			events:  1,
		},
		"check savepoint rolls back": {
			save:    NewSavepoint().OnCheck(),
			handler: &writeHandler{key: nk, value: nv, err: errors.ErrState},
			check:   true,
			wantErr: errors.ErrState,
			written: [][]byte{ok},
			missing: [][]byte{nk},
		},
		"deliver savepoint rolls back and drops events": {
			save:    NewSavepoint().OnDeliver(),
			handler: &writeHandler{key: nk, value: nv, err: errors.ErrState},
			wantErr: errors.ErrState,
			written: [][]byte{ok},
			missing: [][]byte{nk},
		},
		"double activation maintains both behaviors": {
			save:    NewSavepoint().OnDeliver().OnCheck(),
			handler: &writeHandler{key: nk, value: nv, err: errors.ErrState},
			wantErr: errors.ErrState,
			written: [][]byte{ok},
			missing: [][]byte{nk},
		},
		"check savepoint does not affect deliver": {
			save:    NewSavepoint().OnCheck(),
			handler: &writeHandler{key: nk, value: nv, err: errors.ErrState},
			wantErr: errors.ErrState,
			written: [][]byte{ok, nk},
			events:  1,
		},
		"success is written and events flushed": {
			save:    NewSavepoint().OnCheck().OnDeliver(),
			handler: &writeHandler{key: nk, value: nv},
			written: [][]byte{ok, nk},
			events:  1,
		},
		"success on check": {
			save:    NewSavepoint().OnCheck(),
			handler: &writeHandler{key: nk, value: nv},
			check:   true,
			written: [][]byte{ok, nk},
			events:  1,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var events weave.EventBuffer
			ctx := weave.WithEventBuffer(context.Background(), &events)
			kv := store.MemStore()
			require.NoError(t, kv.Set(ok, ov))

			stack := weavetest.Decorate(tc.handler, tc.save)
			tx := &weavetest.Tx{Msg: &weavetest.Msg{RoutePath: "test/write"}}
			var err error
			if tc.check {
				_, err = stack.Check(ctx, kv, tx)
			} else {
				_, err = stack.Deliver(ctx, kv, tx)
			}
			if tc.wantErr != nil {
				assert.True(t, tc.wantErr.Is(err), "got %v", err)
			} else {
				assert.NoError(t, err)
			}

			for _, k := range tc.written {
				has, err := kv.Has(k)
				require.NoError(t, err)
				assert.True(t, has, "missing key %X", k)
			}
			for _, k := range tc.missing {
				has, err := kv.Has(k)
				require.NoError(t, err)
				assert.False(t, has, "unexpected key %X", k)
			}
			assert.Len(t, events.Events(), tc.events)
		})
	}
}

// writeHandler writes a single key and emits an event before returning
// the configured error.
type writeHandler struct {
	key   []byte
	value []byte
	err   error
}

func (h *writeHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if err := h.write(ctx, db); err != nil {
		return nil, err
	}
	return &weave.CheckResult{}, h.err
}

func (h *writeHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	if err := h.write(ctx, db); err != nil {
		return nil, err
	}
	return &weave.DeliverResult{}, h.err
}

func (h *writeHandler) write(ctx weave.Context, db weave.KVStore) error {
	weave.EmitEvent(ctx, weave.Event{Module: "test", Topic: "write", Key: string(h.key)})
	return db.Set(h.key, h.value)
}
