package lstore

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/ValentinKolb/pKV/lib/db"
	"github.com/ValentinKolb/pKV/lib/db/engines/radix"
	"github.com/ValentinKolb/pKV/lib/store"
	"github.com/ValentinKolb/pKV/lib/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.IStore {
	t.Helper()
	s := NewLocalStore(func() db.KVDB { return radix.NewRadixDB(nil) })
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetGetDelete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("k", []byte("v")))
	v, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, s.Delete("k"))
	ok, err = s.Has("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWriteIndexDrivesTTL(t *testing.T) {
	s := newTestStore(t)

	// expires after two more writes
	require.NoError(t, s.SetE("session", []byte("data"), 2, 0))

	_, ok, _ := s.Get("session")
	assert.True(t, ok)

	require.NoError(t, s.Set("other-1", nil))
	require.NoError(t, s.Set("other-2", nil))

	_, ok, _ = s.Get("session")
	assert.False(t, ok, "value must be expired")
	ok, _ = s.Has("session")
	assert.True(t, ok, "key stays findable")
}

func TestSetEIfUnset(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetEIfUnset("lock", []byte("a"), 0, 0))
	require.NoError(t, s.SetEIfUnset("lock", []byte("b"), 0, 0))

	v, _, _ := s.Get("lock")
	assert.Equal(t, []byte("a"), v)
}

func TestPrefixOperations(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Set(fmt.Sprintf("user:1:%d", i), []byte("x")))
		require.NoError(t, s.Set(fmt.Sprintf("user:2:%d", i), []byte("y")))
	}

	entries, err := s.Scan("user:1:", 0)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
		assert.Equal(t, []byte("x"), e.Value)
	}
	sort.Strings(keys)
	assert.Equal(t, "user:1:0", keys[0])

	entries, err = s.Scan("user:", 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	removed, err := s.DeletePrefix("user:1:")
	require.NoError(t, err)
	assert.Equal(t, 5, removed)

	entries, _ = s.Scan("user:", 0)
	assert.Len(t, entries, 5)
}

func TestInvalidArgument(t *testing.T) {
	s := newTestStore(t)

	err := s.Set("", []byte("v"))
	require.Error(t, err)

	var storeErr *store.Error
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, store.RetCInvalidArgument, storeErr.Code)
	assert.ErrorIs(t, err, trie.ErrInvalidArgument)

	_, err = s.DeletePrefix("")
	assert.ErrorIs(t, err, trie.ErrInvalidArgument)
}

func TestGetDBInfo(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Set("k", []byte("v")))

	info, err := s.GetDBInfo()
	require.NoError(t, err)
	assert.Equal(t, db.ImplRadix, info.DbType)
}
