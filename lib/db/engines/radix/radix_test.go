package radix

import (
	"fmt"
	"testing"
	"time"

	"github.com/ValentinKolb/pKV/lib/db"
	"github.com/ValentinKolb/pKV/lib/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, opts *DBOptions) *radixImpl {
	t.Helper()
	if opts == nil {
		opts = &DBOptions{GCInterval: 5 * time.Millisecond}
	}
	r := newRadixDB(opts)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestStaleWritesAreIgnored(t *testing.T) {
	r := newTestDB(t, nil)

	require.NoError(t, r.Set("k", []byte("new"), 10))
	require.NoError(t, r.Set("k", []byte("old"), 5))

	v, ok := r.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), v)

	// stale deletes too
	require.NoError(t, r.Delete("k", 7))
	assert.True(t, r.Has("k"))

	require.NoError(t, r.Delete("k", 10))
	assert.False(t, r.Has("k"))
}

func TestEmptyKeyIsRejected(t *testing.T) {
	r := newTestDB(t, nil)

	assert.ErrorIs(t, r.Set("", []byte("v"), 0), trie.ErrInvalidArgument)
	assert.ErrorIs(t, r.SetE("", []byte("v"), 0, 1, 1), trie.ErrInvalidArgument)
	assert.ErrorIs(t, r.SetEIfUnset("", []byte("v"), 0, 1, 1), trie.ErrInvalidArgument)
	assert.ErrorIs(t, r.Expire("", 0), trie.ErrInvalidArgument)
	assert.ErrorIs(t, r.Delete("", 0), trie.ErrInvalidArgument)
	_, err := r.DeletePrefix("", 0)
	assert.ErrorIs(t, err, trie.ErrInvalidArgument)

	_, ok := r.Get("")
	assert.False(t, ok)
	assert.False(t, r.Has(""))
}

func TestSetEIfUnsetAfterDelete(t *testing.T) {
	r := newTestDB(t, nil)

	require.NoError(t, r.SetE("k", []byte("a"), 1, 0, 5))
	r.SetWriteIdx(6) // logically deleted, still stored

	require.NoError(t, r.SetEIfUnset("k", []byte("b"), 6, 0, 0))
	v, ok := r.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("b"), v)
}

func TestDeletePrefix(t *testing.T) {
	r := newTestDB(t, nil)

	for i := 0; i < 10; i++ {
		require.NoError(t, r.Set(fmt.Sprintf("user:1:%d", i), []byte("v"), 1))
		require.NoError(t, r.Set(fmt.Sprintf("user:2:%d", i), []byte("v"), 1))
	}
	// a logically deleted entry is not counted
	require.NoError(t, r.SetE("user:1:gone", []byte("v"), 1, 0, 1))
	r.SetWriteIdx(2)

	removed, err := r.DeletePrefix("user:1:", 3)
	require.NoError(t, err)
	assert.Equal(t, 10, removed)

	for i := 0; i < 10; i++ {
		assert.False(t, r.Has(fmt.Sprintf("user:1:%d", i)))
		assert.True(t, r.Has(fmt.Sprintf("user:2:%d", i)))
	}

	removed, err = r.DeletePrefix("user:1:", 4)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestScan(t *testing.T) {
	r := newTestDB(t, nil)

	require.NoError(t, r.Set("a/1", []byte("1"), 1))
	require.NoError(t, r.Set("a/2", []byte("2"), 1))
	require.NoError(t, r.SetE("a/3", []byte("3"), 1, 1, 0))
	require.NoError(t, r.Set("b/1", []byte("x"), 1))
	r.SetWriteIdx(2)

	got := make(map[string]string)
	for k, v := range r.Scan("a/") {
		got[k] = string(v)
	}
	assert.Equal(t, map[string]string{"a/1": "1", "a/2": "2"}, got)

	// values are copies
	for _, v := range r.Scan("b/") {
		v[0] = 'y'
	}
	v, _ := r.Get("b/1")
	assert.Equal(t, []byte("x"), v)
}

// --------------------------------------------------------------------------
// Garbage Collection
// --------------------------------------------------------------------------

func TestGCRemovesDeletedEntries(t *testing.T) {
	r := newTestDB(t, nil)

	require.NoError(t, r.SetE("k", []byte("v"), 1, 0, 5))
	require.Eventually(t, func() bool { return r.scheduledDelete.Load() == 1 }, time.Second, time.Millisecond)

	r.SetWriteIdx(10)
	require.Eventually(t, func() bool { return !r.data.Has("k") }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return r.scheduledDelete.Load() == 0 }, time.Second, time.Millisecond)
}

func TestGCFreesExpiredValues(t *testing.T) {
	r := newTestDB(t, nil)

	require.NoError(t, r.SetE("k", []byte("v"), 1, 2, 0))
	r.SetWriteIdx(5)

	require.Eventually(t, func() bool {
		e, ok := r.data.Get("k")
		return ok && e.Value == nil
	}, time.Second, time.Millisecond)
	assert.True(t, r.Has("k"), "expired keys stay findable")
}

func TestGCKeepsRewrittenEntries(t *testing.T) {
	r := newTestDB(t, nil)

	require.NoError(t, r.SetE("k", []byte("v1"), 1, 0, 5))
	require.NoError(t, r.SetE("k", []byte("v2"), 2, 0, 100))
	r.SetWriteIdx(10)

	// let a few cycles pass
	time.Sleep(50 * time.Millisecond)
	v, ok := r.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), v)
}

func TestGCForgetsPrunedKeys(t *testing.T) {
	r := newTestDB(t, nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, r.SetE(fmt.Sprintf("p/%d", i), []byte("v"), 1, 0, 100))
	}
	require.NoError(t, r.SetE("q/0", []byte("v"), 1, 0, 100))
	require.Eventually(t, func() bool { return r.scheduledDelete.Load() == 6 }, time.Second, time.Millisecond)

	_, err := r.DeletePrefix("p/", 2)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return r.scheduledDelete.Load() == 1 }, time.Second, time.Millisecond)
}

func TestEventQueueOverflow(t *testing.T) {
	r := newTestDB(t, &DBOptions{GCInterval: time.Hour, EventQueueSize: 2})

	// the queue is far too small, writers have to wake the gc
	for i := 0; i < 100; i++ {
		require.NoError(t, r.SetE(fmt.Sprintf("k%d", i), []byte("v"), 1, 10, 0))
	}
	require.Eventually(t, func() bool { return r.scheduledExpire.Load() >= 98 }, time.Second, time.Millisecond)
}

func TestCloseIsIdempotent(t *testing.T) {
	r := newRadixDB(&DBOptions{EventQueueSize: 1})
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	// writes after close must not block on the full queue
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = r.SetE(fmt.Sprintf("k%d", i), []byte("v"), 1, 1, 1)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("write blocked after Close")
	}
}

// --------------------------------------------------------------------------
// Metadata
// --------------------------------------------------------------------------

func TestGetInfo(t *testing.T) {
	r := newTestDB(t, nil)
	for i := 0; i < 100; i++ {
		require.NoError(t, r.Set(fmt.Sprintf("key-%d", i), make([]byte, 100), 1))
	}

	info := r.GetInfo()
	assert.Equal(t, db.ImplRadix, info.DbType)
	assert.Greater(t, info.SizeBytes, 100*100)
	assert.Contains(t, info.SupportedFeatures, db.FeatureDeletePrefix)
	assert.NotNil(t, info.Metadata)

	assert.True(t, r.SupportsFeature(db.FeatureScan|db.FeatureDeletePrefix|db.FeatureGet))
	assert.False(t, r.SupportsFeature(db.Feature(1<<40)))
}
