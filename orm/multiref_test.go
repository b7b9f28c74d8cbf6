package orm

import (
	"testing"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/stretchr/testify/require"
)

func TestMultiRef(t *testing.T) {
	m, err := NewMultiRef([]byte("b"), []byte("c"), []byte("a"))
	require.Nil(t, err)
	require.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, m.Refs)

	if err := m.Add([]byte("b")); !errors.ErrDuplicate.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
	require.Nil(t, m.Remove([]byte("b")))
	if err := m.Remove([]byte("b")); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	raw, err := m.Marshal()
	require.Nil(t, err)
	var loaded MultiRef
	require.Nil(t, loaded.Unmarshal(raw))
	require.Equal(t, m.Refs, loaded.Refs)

	var empty MultiRef
	if err := empty.Validate(); !errors.ErrEmpty.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}
