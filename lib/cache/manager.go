package cache

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"time"

	"github.com/ValentinKolb/pKV/lib/lockmgr"
	"github.com/ValentinKolb/pKV/lib/store"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("cache")

// Forever can be used as CacheTime for entries that are only removed explicitly
const Forever uint64 = math.MaxUint64

// Options configures a Manager
type Options struct {
	// Namespace is put in front of every key, it must not be empty
	Namespace string
	// Serializer is used by the typed helpers (GetAs, SetAs, GetOrCreateAs)
	Serializer Serializer
	// LockTimeout is the lifetime (in writes) of the lock taken by GetOrCreate
	LockTimeout uint64
	// LockWait is the time GetOrCreate waits before checking again if another goroutine
	// is creating the same entry
	LockWait time.Duration
	// MetricsPrefix is the prefix of all metric names
	MetricsPrefix string
}

// DefaultOptions returns the default options for a Manager
func DefaultOptions() *Options {
	return &Options{
		Namespace:     "cache:",
		Serializer:    NewJSONSerializer(),
		LockTimeout:   1 << 12,
		LockWait:      2 * time.Millisecond,
		MetricsPrefix: "pkv_cache",
	}
}

// Stats is a snapshot of the counters of a Manager
type Stats struct {
	Hits           uint64 `json:"hits"`
	Misses         uint64 `json:"misses"`
	Sets           uint64 `json:"sets"`
	Removes        uint64 `json:"removes"`
	PrefixRemoves  uint64 `json:"prefixRemoves"`
	RemovedEntries uint64 `json:"removedEntries"`
	LockWaits      uint64 `json:"lockWaits"`
}

// Manager is a cache on top of a store.IStore
type Manager struct {
	store   store.IStore
	locks   lockmgr.ILockManager
	builder *KeyBuilder
	opts    Options

	metrics        *metrics.Set
	hits           *metrics.Counter
	misses         *metrics.Counter
	sets           *metrics.Counter
	removes        *metrics.Counter
	prefixRemoves  *metrics.Counter
	removedEntries *metrics.Counter
	lockWaits      *metrics.Counter
}

// NewManager creates a new cache manager on top of s. If builder is nil, NewKeyBuilder() is used.
// Missing options are taken from DefaultOptions().
func NewManager(s store.IStore, builder *KeyBuilder, opts *Options) *Manager {
	o := *DefaultOptions()
	if opts != nil {
		if opts.Namespace != "" {
			o.Namespace = opts.Namespace
		}
		if opts.Serializer != nil {
			o.Serializer = opts.Serializer
		}
		if opts.LockTimeout != 0 {
			o.LockTimeout = opts.LockTimeout
		}
		if opts.LockWait > 0 {
			o.LockWait = opts.LockWait
		}
		if opts.MetricsPrefix != "" {
			o.MetricsPrefix = opts.MetricsPrefix
		}
	}
	if builder == nil {
		builder = NewKeyBuilder()
	}

	set := metrics.NewSet()
	m := &Manager{
		store:          s,
		locks:          lockmgr.NewLockManager(s),
		builder:        builder,
		opts:           o,
		metrics:        set,
		hits:           set.NewCounter(o.MetricsPrefix + "_hits_total"),
		misses:         set.NewCounter(o.MetricsPrefix + "_misses_total"),
		sets:           set.NewCounter(o.MetricsPrefix + "_sets_total"),
		removes:        set.NewCounter(o.MetricsPrefix + "_removes_total"),
		prefixRemoves:  set.NewCounter(o.MetricsPrefix + "_prefix_removes_total"),
		removedEntries: set.NewCounter(o.MetricsPrefix + "_removed_entries_total"),
		lockWaits:      set.NewCounter(o.MetricsPrefix + "_lock_waits_total"),
	}
	Logger.Debugf("cache manager created (namespace=%q)", o.Namespace)
	return m
}

// Builder returns the key builder of the manager
func (m *Manager) Builder() *KeyBuilder {
	return m.builder
}

// Locks returns the lock manager that shares the store of the cache
func (m *Manager) Locks() lockmgr.ILockManager {
	return m.locks
}

// Store returns the underlying store
func (m *Manager) Store() store.IStore {
	return m.store
}

func (m *Manager) storeKey(key string) string {
	return m.opts.Namespace + key
}

// --------------------------------------------------------------------------
// Raw Values
// --------------------------------------------------------------------------

// Get returns the value cached for key
func (m *Manager) Get(key CacheKey) ([]byte, bool, error) {
	v, ok, err := m.store.Get(m.storeKey(key.Key))
	if err != nil {
		return nil, false, err
	}
	if ok {
		m.hits.Inc()
	} else {
		m.misses.Inc()
	}
	return v, ok, nil
}

// Set caches value for key.CacheTime writes. Keys with a cache time of 0 are not stored.
func (m *Manager) Set(key CacheKey, value []byte) error {
	if key.CacheTime == 0 {
		return nil
	}
	for _, p := range key.Prefixes {
		if !strings.HasPrefix(key.Key, p) {
			Logger.Debugf("key %q is not below its prefix %q and won't be removed with it", key.Key, p)
		}
	}

	deleteIn := key.CacheTime
	if deleteIn == Forever {
		deleteIn = 0
	}
	if err := m.store.SetE(m.storeKey(key.Key), value, 0, deleteIn); err != nil {
		return err
	}
	m.sets.Inc()
	return nil
}

// GetOrAdd returns the cached value for key. If there is none, value is cached and returned.
// The boolean is true if the value was already cached. Concurrent callers for the same key
// are serialized by the lock of the key, so exactly one of them adds its value.
func (m *Manager) GetOrAdd(key CacheKey, value []byte) ([]byte, bool, error) {
	v, created, err := m.getOrCreate(context.Background(), key, func() ([]byte, error) {
		return value, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, !created, nil
}

// GetOrCreate returns the cached value for key. On a miss acquire is called and its
// result is cached. Concurrent callers for the same key wait for the first one instead of
// calling acquire themselves. Errors of acquire are returned and nothing is cached.
func (m *Manager) GetOrCreate(ctx context.Context, key CacheKey, acquire func() ([]byte, error)) ([]byte, error) {
	v, _, err := m.getOrCreate(ctx, key, acquire)
	return v, err
}

// getOrCreate is the shared implementation of GetOrAdd and GetOrCreate.
// created reports whether the returned value comes from this call of acquire.
func (m *Manager) getOrCreate(ctx context.Context, key CacheKey, acquire func() ([]byte, error)) ([]byte, bool, error) {
	if v, ok, err := m.Get(key); err != nil || ok {
		return v, false, err
	}
	if key.CacheTime == 0 {
		v, err := acquire()
		return v, err == nil, err
	}

	lockKey := m.storeKey(key.Key)
	for {
		ok, owner, err := m.locks.AcquireLock(lockKey, m.opts.LockTimeout)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return m.create(key, lockKey, owner, acquire)
		}

		m.lockWaits.Inc()
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(m.opts.LockWait):
		}

		v, found, err := m.store.Get(m.storeKey(key.Key))
		if err != nil {
			return nil, false, err
		}
		if found {
			m.hits.Inc()
			return v, false, nil
		}
	}
}

// create runs acquire while holding the lock of key
func (m *Manager) create(key CacheKey, lockKey string, owner []byte, acquire func() ([]byte, error)) ([]byte, bool, error) {
	defer func() {
		if _, err := m.locks.ReleaseLock(lockKey, owner); err != nil {
			Logger.Warningf("could not release lock of %q: %v", key.Key, err)
		}
	}()

	// someone else could have finished just before we got the lock
	if v, ok, err := m.store.Get(m.storeKey(key.Key)); err != nil || ok {
		return v, false, err
	}

	v, err := acquire()
	if err != nil {
		return nil, false, err
	}
	if err := m.Set(key, v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Expire drops the value of key but keeps the key itself
func (m *Manager) Expire(key CacheKey) error {
	return m.store.Expire(m.storeKey(key.Key))
}

// Remove removes key from the cache
func (m *Manager) Remove(key CacheKey) error {
	if err := m.store.Delete(m.storeKey(key.Key)); err != nil {
		return err
	}
	m.removes.Inc()
	return nil
}

// RemoveByPrefix removes all keys starting with the prefix. The placeholders of prefix
// are filled in with params. It returns the number of removed entries.
func (m *Manager) RemoveByPrefix(prefix string, params ...any) (int, error) {
	p, err := m.builder.PreparePrefix(prefix, params...)
	if err != nil {
		return 0, err
	}
	if p == "" {
		return 0, store.NewError(store.RetCInvalidArgument, "cache: empty prefix")
	}

	n, err := m.store.DeletePrefix(m.storeKey(p))
	if err != nil {
		return 0, err
	}
	m.prefixRemoves.Inc()
	m.removedEntries.Add(n)
	Logger.Debugf("removed %d entries with prefix %q", n, p)
	return n, nil
}

// Clear removes all entries of the cache
func (m *Manager) Clear() (int, error) {
	n, err := m.store.DeletePrefix(m.opts.Namespace)
	if err != nil {
		return 0, err
	}
	m.removedEntries.Add(n)
	Logger.Infof("cleared cache (%d entries)", n)
	return n, nil
}

// Scan returns up to limit cached entries whose key starts with prefix (limit <= 0 means all).
// The keys are returned without namespace.
func (m *Manager) Scan(prefix string, limit int) ([]store.KeyValue, error) {
	entries, err := m.store.Scan(m.storeKey(prefix), limit)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Key = strings.TrimPrefix(entries[i].Key, m.opts.Namespace)
	}
	return entries, nil
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

// Stats returns the current counters
func (m *Manager) Stats() Stats {
	return Stats{
		Hits:           m.hits.Get(),
		Misses:         m.misses.Get(),
		Sets:           m.sets.Get(),
		Removes:        m.removes.Get(),
		PrefixRemoves:  m.prefixRemoves.Get(),
		RemovedEntries: m.removedEntries.Get(),
		LockWaits:      m.lockWaits.Get(),
	}
}

// WritePrometheus writes the counters in Prometheus text format to w
func (m *Manager) WritePrometheus(w io.Writer) {
	m.metrics.WritePrometheus(w)
}

// --------------------------------------------------------------------------
// Typed Values
// --------------------------------------------------------------------------

// GetAs returns the cached value for key decoded with the serializer of m
func GetAs[T any](m *Manager, key CacheKey) (T, bool, error) {
	var out T
	b, ok, err := m.Get(key)
	if err != nil || !ok {
		return out, false, err
	}
	if err := m.opts.Serializer.Deserialize(b, &out); err != nil {
		return out, false, err
	}
	return out, true, nil
}

// SetAs caches v encoded with the serializer of m
func SetAs[T any](m *Manager, key CacheKey, v T) error {
	b, err := m.opts.Serializer.Serialize(v)
	if err != nil {
		return err
	}
	return m.Set(key, b)
}

// GetOrCreateAs is the typed version of Manager.GetOrCreate
func GetOrCreateAs[T any](ctx context.Context, m *Manager, key CacheKey, acquire func() (T, error)) (T, error) {
	var (
		out     T
		created bool
	)
	b, err := m.GetOrCreate(ctx, key, func() ([]byte, error) {
		v, err := acquire()
		if err != nil {
			return nil, err
		}
		out, created = v, true
		return m.opts.Serializer.Serialize(v)
	})
	if err != nil {
		return out, err
	}
	if created {
		return out, nil
	}
	if err := m.opts.Serializer.Deserialize(b, &out); err != nil {
		return out, errors.Join(errors.New("cache: could not decode cached value"), err)
	}
	return out, nil
}
