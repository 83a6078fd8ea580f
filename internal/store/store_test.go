package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	b, err := OpenBolt(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return map[string]Store{"mem": NewMem(), "bolt": b}
}

func TestPutGetDelete(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get("missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put("room:1", []byte("a")))
			v, err := s.Get("room:1")
			require.NoError(t, err)
			assert.Equal(t, []byte("a"), v)

			require.NoError(t, s.Put("room:1", []byte("b")))
			v, err = s.Get("room:1")
			require.NoError(t, err)
			assert.Equal(t, []byte("b"), v)

			require.NoError(t, s.Delete("room:1"))
			_, err = s.Get("room:1")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, s.Delete("room:1"), "double delete is fine")
		})
	}
}

func TestListByPrefix(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put("room:1", []byte("a")))
			require.NoError(t, s.Put("room:2", []byte("b")))
			require.NoError(t, s.Put("player:1", []byte("c")))

			got, err := s.List("room:")
			require.NoError(t, err)
			assert.Len(t, got, 2)
			assert.Equal(t, []byte("a"), got["room:1"])
			assert.Equal(t, []byte("b"), got["room:2"])

			all, err := s.List("")
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestValuesAreCopied(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			v := []byte("orig")
			require.NoError(t, s.Put("k", v))
			v[0] = 'X'

			got, err := s.Get("k")
			require.NoError(t, err)
			assert.Equal(t, []byte("orig"), got)

			got[0] = 'Y'
			again, err := s.Get("k")
			require.NoError(t, err)
			assert.Equal(t, []byte("orig"), again)
		})
	}
}
