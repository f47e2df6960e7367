package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/pKV/lib/db"
	"github.com/ValentinKolb/pKV/lib/db/engines/radix"
	"github.com/ValentinKolb/pKV/lib/store"
	"github.com/ValentinKolb/pKV/lib/store/lstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	s := lstore.NewLocalStore(func() db.KVDB { return radix.NewRadixDB(radix.DefaultOptions()) })
	t.Cleanup(func() { _ = s.Close() })
	return NewManager(s, nil, &Options{LockWait: time.Millisecond})
}

func key(k string) CacheKey {
	return CacheKey{Key: k, CacheTime: Forever}
}

func TestGetSet(t *testing.T) {
	m := newTestManager(t)

	_, ok, err := m.Get(key("a"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(key("a"), []byte("1")))
	v, ok, err := m.Get(key("a"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	stats := m.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Sets)
}

func TestZeroCacheTimeIsNotStored(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.Set(CacheKey{Key: "a"}, []byte("1")))
	_, ok, err := m.Get(CacheKey{Key: "a"})
	require.NoError(t, err)
	assert.False(t, ok)

	calls := 0
	for i := 0; i < 3; i++ {
		v, err := m.GetOrCreate(context.Background(), CacheKey{Key: "b"}, func() ([]byte, error) {
			calls++
			return []byte("x"), nil
		})
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), v)
	}
	assert.Equal(t, 3, calls)
}

func TestCacheTime(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.Set(CacheKey{Key: "short", CacheTime: 2}, []byte("1")))
	require.NoError(t, m.Set(key("other-1"), []byte("x")))
	_, ok, err := m.Get(CacheKey{Key: "short"})
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.Set(key("other-2"), []byte("x")))
	_, ok, err = m.Get(CacheKey{Key: "short"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetOrAdd(t *testing.T) {
	m := newTestManager(t)

	v, loaded, err := m.GetOrAdd(key("a"), []byte("1"))
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Equal(t, []byte("1"), v)

	v, loaded, err = m.GetOrAdd(key("a"), []byte("2"))
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, []byte("1"), v)
}

func TestGetOrAddEqualValuesHaveOneWriter(t *testing.T) {
	m := newTestManager(t)

	var (
		added atomic.Int32
		wg    sync.WaitGroup
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, loaded, err := m.GetOrAdd(key("same"), []byte("v"))
			assert.NoError(t, err)
			assert.Equal(t, []byte("v"), v)
			if !loaded {
				added.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), added.Load())
	assert.Equal(t, uint64(1), m.Stats().Sets)

	// an equal value that is already cached counts as loaded
	_, loaded, err := m.GetOrAdd(key("same"), []byte("v"))
	require.NoError(t, err)
	assert.True(t, loaded)
}

func TestGetOrCreateCallsAcquireOnce(t *testing.T) {
	m := newTestManager(t)

	var (
		calls atomic.Int32
		wg    sync.WaitGroup
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.GetOrCreate(context.Background(), key("expensive"), func() ([]byte, error) {
				calls.Add(1)
				time.Sleep(10 * time.Millisecond)
				return []byte("result"), nil
			})
			assert.NoError(t, err)
			assert.Equal(t, []byte("result"), v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())

	// the lock is released again
	ok, owner, err := m.Locks().AcquireLock(m.storeKey("expensive"), 0)
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = m.Locks().ReleaseLock(m.storeKey("expensive"), owner)
	require.NoError(t, err)
}

func TestGetOrCreateError(t *testing.T) {
	m := newTestManager(t)
	boom := errors.New("boom")

	_, err := m.GetOrCreate(context.Background(), key("a"), func() ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, ok, err := m.Get(key("a"))
	require.NoError(t, err)
	assert.False(t, ok)

	// nothing is left locked
	v, err := m.GetOrCreate(context.Background(), key("a"), func() ([]byte, error) { return []byte("ok"), nil })
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), v)
}

func TestGetOrCreateHonoursContext(t *testing.T) {
	m := newTestManager(t)

	// somebody else holds the lock
	ok, _, err := m.Locks().AcquireLock(m.storeKey("a"), 0)
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = m.GetOrCreate(ctx, key("a"), func() ([]byte, error) { return []byte("x"), nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Positive(t, m.Stats().LockWaits)
}

func TestRemoveByPrefix(t *testing.T) {
	m := newTestManager(t)
	b := m.Builder()

	tmpl := CacheKey{Key: "product.{0}.{1}", Prefixes: []string{"product.{0}."}, CacheTime: Forever}
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			k, err := b.Prepare(tmpl, i, j)
			require.NoError(t, err)
			require.NoError(t, m.Set(k, []byte("v")))
		}
	}
	require.NoError(t, m.Set(key("productx"), []byte("v")))

	n, err := m.RemoveByPrefix("product.{0}.", 1)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	entries, err := m.Scan("product", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 9)
	for _, e := range entries {
		assert.NotContains(t, e.Key, "product.1.")
	}

	_, err = m.RemoveByPrefix("")
	var se *store.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, store.RetCInvalidArgument, se.Code)
}

func TestClearKeepsOtherNamespaces(t *testing.T) {
	m := newTestManager(t)
	other := NewManager(m.Store(), nil, &Options{Namespace: "other:"})

	for i := 0; i < 5; i++ {
		require.NoError(t, m.Set(key(fmt.Sprint(i)), []byte("v")))
	}
	require.NoError(t, other.Set(key("0"), []byte("kept")))

	n, err := m.Clear()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	v, ok, err := other.Get(key("0"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("kept"), v)
}

func TestExpireAndRemove(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.Set(key("a"), []byte("1")))
	require.NoError(t, m.Expire(key("a")))
	_, ok, err := m.Get(key("a"))
	require.NoError(t, err)
	assert.False(t, ok)
	has, err := m.Store().Has(m.storeKey("a"))
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, m.Remove(key("a")))
	has, err = m.Store().Has(m.storeKey("a"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestTypedHelpers(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, SetAs(m, key("v"), testValue{Name: "tea", Price: 1.5}))
	v, ok, err := GetAs[testValue](m, key("v"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tea", v.Name)

	calls := 0
	for i := 0; i < 2; i++ {
		got, err := GetOrCreateAs(context.Background(), m, key("w"), func() (testValue, error) {
			calls++
			return testValue{Name: "coffee"}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "coffee", got.Name)
	}
	assert.Equal(t, 1, calls)
}

func TestWritePrometheus(t *testing.T) {
	m := newTestManager(t)
	_, _, _ = m.Get(key("a"))

	var buf bytes.Buffer
	m.WritePrometheus(&buf)
	assert.Contains(t, buf.String(), "pkv_cache_misses_total 1")
	assert.Contains(t, buf.String(), "pkv_cache_hits_total 0")
}
