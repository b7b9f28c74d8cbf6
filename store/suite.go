package store

import (
	"fmt"
	"testing"

	"github.com/iov-one/weave-escrow/errors"
	"github.com/stretchr/testify/require"
)

// Opener returns an empty store for a single scenario. Any resources must
// be released through t.Cleanup.
type Opener func(t *testing.T) CacheableKVStore

// RunSuite checks the behaviour every CacheableKVStore implementation
// must share: cache layering, overlay semantics and ordered iteration
// across a parent and its cache.
func RunSuite(t *testing.T, open Opener) {
	t.Run("cache layering", func(t *testing.T) { layering(t, open(t)) })
	t.Run("overlay", func(t *testing.T) { overlay(t, open) })
	t.Run("iteration", func(t *testing.T) { iteration(t, open) })
	t.Run("large range", func(t *testing.T) { largeRange(t, open(t)) })
	t.Run("write while iterating", func(t *testing.T) { writeWhileIterating(t, open(t)) })
}

func layering(t *testing.T, base CacheableKVStore) {
	e1, e2, e3 := []byte("esc:e1"), []byte("esc:e2"), []byte("esc:e3")

	requireValue(t, base, e1, nil)
	require.NoError(t, base.Set(e1, []byte("created")))
	requireValue(t, base, e1, []byte("created"))

	cache := base.CacheWrap()
	requireValue(t, cache, e1, []byte("created"))
	require.NoError(t, cache.Set(e2, []byte("funded")))
	requireValue(t, cache, e2, []byte("funded"))
	requireValue(t, base, e2, nil)

	require.NoError(t, cache.Write())
	requireValue(t, base, e2, []byte("funded"))

	dropped := base.CacheWrap()
	require.NoError(t, dropped.Set(e3, []byte("created")))
	dropped.Discard()

	kept := base.CacheWrap()
	require.NoError(t, kept.Delete(e1))
	require.NoError(t, kept.Write())

	requireValue(t, base, e1, nil)
	requireValue(t, base, e2, []byte("funded"))
	requireValue(t, base, e3, nil)
}

func overlay(t *testing.T, open Opener) {
	cases := map[string]struct {
		parent []Op
		child  []Op
		// nil means the key must be missing
		wantParent map[string]string
		wantChild  map[string]string
	}{
		"child overwrites and deletes": {
			parent:     []Op{set("esc:a", "1"), set("esc:b", "2")},
			child:      []Op{set("esc:a", "11"), del("esc:b"), set("esc:c", "3")},
			wantParent: map[string]string{"esc:a": "1", "esc:b": "2"},
			wantChild:  map[string]string{"esc:a": "11", "esc:c": "3"},
		},
		"delete then set again": {
			parent:     []Op{set("esc:a", "1")},
			child:      []Op{del("esc:a"), set("esc:a", "again")},
			wantParent: map[string]string{"esc:a": "1"},
			wantChild:  map[string]string{"esc:a": "again"},
		},
		"empty value is not missing": {
			child:     []Op{set("cnt:escrow", "")},
			wantChild: map[string]string{"cnt:escrow": ""},
		},
	}

	keys := []string{"esc:a", "esc:b", "esc:c", "cnt:escrow"}
	check := func(t *testing.T, kv ReadOnlyKVStore, want map[string]string) {
		t.Helper()
		for _, k := range keys {
			v, ok := want[k]
			if !ok {
				requireValue(t, kv, []byte(k), nil)
				continue
			}
			requireValue(t, kv, []byte(k), []byte(v))
		}
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			parent := open(t)
			apply(t, parent, tc.parent)
			child := parent.CacheWrap()
			apply(t, child, tc.child)

			check(t, parent, tc.wantParent)
			check(t, child, tc.wantChild)

			require.NoError(t, child.Write())
			check(t, parent, tc.wantChild)
		})
	}
}

type scan struct {
	start, end string
	reverse    bool
	want       []string
}

func iteration(t *testing.T, open Opener) {
	cases := map[string]struct {
		parent []Op
		child  []Op
		scans  []scan
	}{
		"child only": {
			child: []Op{set("b", "2"), set("a", "1"), set("c", "3")},
			scans: []scan{
				{want: []string{"a=1", "b=2", "c=3"}},
				{start: "b", want: []string{"b=2", "c=3"}},
				{end: "c", reverse: true, want: []string{"b=2", "a=1"}},
			},
		},
		"parent only": {
			parent: []Op{set("a", "1"), set("b", "2"), set("c", "3")},
			scans: []scan{
				{start: "b", end: "c", want: []string{"b=2"}},
				{reverse: true, want: []string{"c=3", "b=2", "a=1"}},
			},
		},
		"merged with overwrites": {
			parent: []Op{set("a", "1"), set("c", "3"), set("e", "5")},
			child:  []Op{set("b", "2"), set("c", "33"), set("d", "4")},
			scans: []scan{
				{want: []string{"a=1", "b=2", "c=33", "d=4", "e=5"}},
				{start: "b", end: "e", want: []string{"b=2", "c=33", "d=4"}},
				{start: "b", end: "e", reverse: true, want: []string{"d=4", "c=33", "b=2"}},
			},
		},
		"deletes hide parent data": {
			parent: []Op{set("a", "1"), set("c", "3"), set("d", "4")},
			child:  []Op{del("a"), del("b"), del("d")},
			scans: []scan{
				{want: []string{"c=3"}},
				{end: "c", want: nil},
				{reverse: true, want: []string{"c=3"}},
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			parent := open(t)
			apply(t, parent, tc.parent)
			child := parent.CacheWrap()
			apply(t, child, tc.child)
			for _, s := range tc.scans {
				require.Equal(t, s.want, collect(t, child, s), "scan %+v", s)
			}
		})
	}
}

func largeRange(t *testing.T, base CacheableKVStore) {
	const n = 60
	key := func(i int) string { return fmt.Sprintf("esc:%03d", i) }

	var want []string
	for i := 0; i < n; i++ {
		v := fmt.Sprintf("v%d", i)
		// Even entries live in the parent, odd ones in the cache.
		if i%2 == 0 {
			require.NoError(t, base.Set([]byte(key(i)), []byte(v)))
		}
		if i%5 != 0 {
			want = append(want, key(i)+"="+v)
		}
	}
	child := base.CacheWrap()
	for i := 0; i < n; i++ {
		if i%2 == 1 {
			require.NoError(t, child.Set([]byte(key(i)), []byte(fmt.Sprintf("v%d", i))))
		}
		if i%5 == 0 {
			require.NoError(t, child.Delete([]byte(key(i))))
		}
	}

	require.Equal(t, want, collect(t, child, scan{}))
	require.Equal(t, want[10:20], collect(t, child, scan{start: key(13), end: key(26)}))

	require.NoError(t, child.Write())
	got := collect(t, base, scan{reverse: true})
	require.Len(t, got, len(want))
	require.Equal(t, want[len(want)-1], got[0])
	require.Equal(t, want[0], got[len(got)-1])
}

func writeWhileIterating(t *testing.T, base CacheableKVStore) {
	child := base.CacheWrap()
	keys := []string{"esc:a", "esc:b", "esc:c", "esc:d"}
	for _, k := range keys {
		require.NoError(t, child.Set([]byte(k), []byte("open")))
	}

	iter, err := child.Iterator(nil, nil)
	require.NoError(t, err)
	defer iter.Release()
	for _, want := range keys {
		k, _, err := iter.Next()
		require.NoError(t, err)
		require.Equal(t, want, string(k))
		require.NoError(t, child.Set(k, []byte("released")))
	}
	_, _, err = iter.Next()
	require.True(t, errors.ErrIteratorDone.Is(err), "got %v", err)

	require.NoError(t, child.Write())
	for _, k := range keys {
		requireValue(t, base, []byte(k), []byte("released"))
	}
}

func requireValue(t testing.TB, kv ReadOnlyKVStore, key, want []byte) {
	t.Helper()
	got, err := kv.Get(key)
	require.NoError(t, err)
	has, err := kv.Has(key)
	require.NoError(t, err)
	if want == nil {
		require.Nil(t, got, "key %q", key)
		require.False(t, has, "key %q", key)
		return
	}
	require.True(t, has, "key %q", key)
	require.Equal(t, string(want), string(got), "key %q", key)
}

func collect(t testing.TB, kv ReadOnlyKVStore, s scan) []string {
	t.Helper()
	var start, end []byte
	if s.start != "" {
		start = []byte(s.start)
	}
	if s.end != "" {
		end = []byte(s.end)
	}
	var (
		iter Iterator
		err  error
	)
	if s.reverse {
		iter, err = kv.ReverseIterator(start, end)
	} else {
		iter, err = kv.Iterator(start, end)
	}
	require.NoError(t, err)
	defer iter.Release()

	var res []string
	for {
		k, v, err := iter.Next()
		if errors.ErrIteratorDone.Is(err) {
			return res
		}
		require.NoError(t, err)
		res = append(res, string(k)+"="+string(v))
	}
}

func apply(t testing.TB, kv SetDeleter, ops []Op) {
	t.Helper()
	for _, op := range ops {
		require.NoError(t, op.Apply(kv))
	}
}

func set(k, v string) Op { return SetOp([]byte(k), []byte(v)) }

func del(k string) Op { return DelOp([]byte(k)) }
