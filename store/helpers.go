package store

import "github.com/iov-one/weave-escrow/errors"

// SliceIterator iterates over models that are already loaded in memory.
// The iavl and pebble adapters use it to return range results.
type SliceIterator struct {
	rest []Model
}

var _ Iterator = (*SliceIterator)(nil)

func NewSliceIterator(models []Model) *SliceIterator {
	return &SliceIterator{rest: models}
}

func (s *SliceIterator) Next() (key, value []byte, err error) {
	if len(s.rest) == 0 {
		return nil, nil, errors.Wrap(errors.ErrIteratorDone, "slice iterator")
	}
	m := s.rest[0]
	s.rest = s.rest[1:]
	return m.Key, m.Value, nil
}

func (s *SliceIterator) Release() { s.rest = nil }

// EmptyKVStore holds nothing and drops every write. It is the bottom layer
// of MemStore.
type EmptyKVStore struct{}

var _ KVStore = EmptyKVStore{}

func (EmptyKVStore) Get([]byte) ([]byte, error) { return nil, nil }
func (EmptyKVStore) Has([]byte) (bool, error)   { return false, nil }
func (EmptyKVStore) Set(_, _ []byte) error      { return nil }
func (EmptyKVStore) Delete([]byte) error        { return nil }
func (EmptyKVStore) Iterator(_, _ []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}
func (EmptyKVStore) ReverseIterator(_, _ []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}
func (e EmptyKVStore) NewBatch() Batch { return NewNonAtomicBatch(e) }

// Op is a single pending write.
type Op struct {
	key    []byte
	value  []byte
	delete bool
}

func SetOp(key, value []byte) Op { return Op{key: key, value: value} }

func DelOp(key []byte) Op { return Op{key: key, delete: true} }

// Apply runs the write against out.
func (o Op) Apply(out SetDeleter) error {
	if o.delete {
		return out.Delete(o.key)
	}
	return out.Set(o.key, o.value)
}

// NonAtomicBatch queues writes and replays them one by one on Write. A
// failure halfway leaves the target partially written, so it only backs
// in-memory layers. Persistent stores provide their own batch.
type NonAtomicBatch struct {
	out SetDeleter
	ops []Op
}

var _ Batch = (*NonAtomicBatch)(nil)

func NewNonAtomicBatch(out SetDeleter) *NonAtomicBatch {
	return &NonAtomicBatch{out: out}
}

func (b *NonAtomicBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, SetOp(key, value))
	return nil
}

func (b *NonAtomicBatch) Delete(key []byte) error {
	b.ops = append(b.ops, DelOp(key))
	return nil
}

// Write replays all queued writes and empties the batch.
func (b *NonAtomicBatch) Write() error {
	for i, op := range b.ops {
		if err := op.Apply(b.out); err != nil {
			b.ops = b.ops[i:]
			return err
		}
	}
	b.ops = nil
	return nil
}

// Reset drops all queued writes.
func (b *NonAtomicBatch) Reset() { b.ops = nil }

// ShowOps returns the queued writes in order.
func (b *NonAtomicBatch) ShowOps() []Op { return b.ops }
