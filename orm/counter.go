package orm

import (
	"encoding/binary"
	"math"

	"github.com/iov-one/weave-escrow"
	"github.com/iov-one/weave-escrow/errors"
)

// Counter is a singleton unsigned 32 bit integer kept under a single key.
// It can be decremented and refuses to wrap around.
type Counter struct {
	id []byte
}

// NewCounter returns a counter stored under
//
//	_c.<bucket>:<name>
func NewCounter(bucket, name string) Counter {
	return Counter{id: []byte("_c." + bucket + ":" + name)}
}

// Value returns the current counter state. A counter that was never
// written is zero.
func (c Counter) Value(db weave.ReadOnlyKVStore) (uint32, error) {
	raw, err := db.Get(c.id)
	if err != nil {
		return 0, err
	}
	return decodeCounter(raw)
}

// Increment adds one to the counter and returns the new state.
func (c Counter) Increment(db weave.KVStore) (uint32, error) {
	val, err := c.Value(db)
	if err != nil {
		return 0, err
	}
	if val == math.MaxUint32 {
		return 0, errors.Wrap(errors.ErrOverflow, "counter")
	}
	val++
	return val, db.Set(c.id, encodeCounter(val))
}

// Decrement subtracts one from the counter and returns the new state.
func (c Counter) Decrement(db weave.KVStore) (uint32, error) {
	val, err := c.Value(db)
	if err != nil {
		return 0, err
	}
	if val == 0 {
		return 0, errors.Wrap(errors.ErrOverflow, "counter below zero")
	}
	val--
	return val, db.Set(c.id, encodeCounter(val))
}

// Set overwrites the counter state.
func (c Counter) Set(db weave.KVStore, val uint32) error {
	return db.Set(c.id, encodeCounter(val))
}

func encodeCounter(val uint32) []byte {
	bz := make([]byte, 4)
	binary.BigEndian.PutUint32(bz, val)
	return bz
}

func decodeCounter(bz []byte) (uint32, error) {
	switch len(bz) {
	case 0:
		return 0, nil
	case 4:
		return binary.BigEndian.Uint32(bz), nil
	default:
		return 0, errors.Wrapf(errors.ErrState, "invalid counter length %d", len(bz))
	}
}
