package orm

import (
	"encoding/binary"

	"github.com/iov-one/weave-escrow/codec"
	"github.com/iov-one/weave-escrow/errors"
)

// Tally is a minimal model used across the package tests.
type Tally struct {
	Count int64
}

var _ Model = (*Tally)(nil)

func NewTally(count int64) *Tally {
	return &Tally{Count: count}
}

func (t *Tally) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.Uint64(1, uint64(t.Count))
	return w.Result()
}

func (t *Tally) Unmarshal(raw []byte) error {
	*t = Tally{}
	return codec.Decode(raw, func(f codec.Field) error {
		if f.Num != 1 {
			return nil
		}
		v, err := f.Uint64()
		t.Count = int64(v)
		return err
	})
}

func (t *Tally) Validate() error {
	if t.Count < 0 {
		return errors.Wrap(errors.ErrState, "negative count")
	}
	return nil
}

func (t *Tally) Copy() CloneableData {
	return &Tally{Count: t.Count}
}

// tallyIndex indexes tallies by their big endian encoded count.
func tallyIndex(obj Object) ([]byte, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "cannot take index of nil")
	}
	t, ok := obj.Value().(*Tally)
	if !ok {
		return nil, errors.Wrap(errors.ErrType, "can only take index of Tally")
	}
	return encodeCount(t.Count), nil
}

func encodeCount(n int64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, uint64(n))
	return bz
}
