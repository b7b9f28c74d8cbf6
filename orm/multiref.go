package orm

import (
	"bytes"
	"slices"

	"github.com/iov-one/weave-escrow/codec"
	"github.com/iov-one/weave-escrow/errors"
)

// MultiRef is the sorted set of primary keys kept by a non unique index.
//
// Fields:
//
//	1: repeated bytes refs
type MultiRef struct {
	Refs [][]byte
}

var _ CloneableData = (*MultiRef)(nil)

func NewMultiRef(refs ...[]byte) (*MultiRef, error) {
	var m MultiRef
	for _, r := range refs {
		if err := m.Add(r); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

// Add inserts ref in order. Adding a present ref is an ErrDuplicate.
func (m *MultiRef) Add(ref []byte) error {
	pos, found := slices.BinarySearchFunc(m.Refs, ref, bytes.Compare)
	if found {
		return errors.Wrap(errors.ErrDuplicate, "ref already in set")
	}
	m.Refs = slices.Insert(m.Refs, pos, ref)
	return nil
}

// Remove drops ref. Removing a missing ref is an ErrNotFound.
func (m *MultiRef) Remove(ref []byte) error {
	pos, found := slices.BinarySearchFunc(m.Refs, ref, bytes.Compare)
	if !found {
		return errors.Wrap(errors.ErrNotFound, "ref not in set")
	}
	m.Refs = slices.Delete(m.Refs, pos, pos+1)
	return nil
}

// Validate rejects an empty set; empty index entries are deleted instead.
func (m *MultiRef) Validate() error {
	if len(m.Refs) == 0 {
		return errors.Wrap(errors.ErrEmpty, "no references")
	}
	return nil
}

func (m *MultiRef) Copy() CloneableData {
	return &MultiRef{Refs: slices.Clone(m.Refs)}
}

func (m *MultiRef) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	for _, r := range m.Refs {
		w.Bytes(1, r)
	}
	return w.Result()
}

func (m *MultiRef) Unmarshal(raw []byte) error {
	m.Refs = nil
	return codec.Decode(raw, func(f codec.Field) error {
		if f.Num != 1 {
			return nil
		}
		ref, err := f.Bytes()
		if err == nil {
			m.Refs = append(m.Refs, ref)
		}
		return err
	})
}
