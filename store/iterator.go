package store

import (
	"bytes"

	"github.com/iov-one/weave-escrow/errors"
)

// mergeIterator combines cached items with the iterator of the parent
// store. Cached items shadow parent entries with the same key, and
// deleted items hide them.
type mergeIterator struct {
	items   []*entry
	idx     int
	reverse bool

	parent     Iterator
	parentDone bool
	peeked     bool
	pkey, pval []byte
}

var _ Iterator = (*mergeIterator)(nil)

func newMergeIterator(items []*entry, parent Iterator, reverse bool) *mergeIterator {
	return &mergeIterator{
		items:   items,
		parent:  parent,
		reverse: reverse,
	}
}

// Next returns the next visible key value pair.
func (m *mergeIterator) Next() ([]byte, []byte, error) {
	for {
		if err := m.peek(); err != nil {
			return nil, nil, err
		}

		var ours *entry
		if m.idx < len(m.items) {
			ours = m.items[m.idx]
		}

		switch {
		case ours == nil && m.parentDone:
			return nil, nil, errors.Wrap(errors.ErrIteratorDone, "cache")
		case ours == nil:
			return m.takeParent()
		case m.parentDone:
			m.idx++
		default:
			cmp := bytes.Compare(ours.key, m.pkey)
			if m.reverse {
				cmp = -cmp
			}
			if cmp > 0 {
				return m.takeParent()
			}
			m.idx++
			if cmp == 0 {
				// Parent value is shadowed by the cache.
				m.peeked = false
			}
		}

		if !ours.deleted {
			return ours.key, ours.value, nil
		}
	}
}

// peek loads the next parent item unless one is already loaded.
func (m *mergeIterator) peek() error {
	if m.peeked || m.parentDone {
		return nil
	}
	k, v, err := m.parent.Next()
	switch {
	case errors.ErrIteratorDone.Is(err):
		m.parentDone = true
	case err != nil:
		return err
	default:
		m.pkey, m.pval, m.peeked = k, v, true
	}
	return nil
}

func (m *mergeIterator) takeParent() ([]byte, []byte, error) {
	m.peeked = false
	return m.pkey, m.pval, nil
}

// Release releases the parent iterator.
func (m *mergeIterator) Release() {
	m.parent.Release()
	m.items = nil
}
