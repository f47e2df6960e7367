package radix

import (
	"fmt"
	"iter"
	"slices"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/pKV/lib/db"
	"github.com/ValentinKolb/pKV/lib/db/engines/radix/internal"
	"github.com/ValentinKolb/pKV/lib/db/util"
	"github.com/ValentinKolb/pKV/lib/trie"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("db")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultGCInterval     = 100 * time.Millisecond // Default interval between GC runs
	defaultEventQueueSize = 1 << 16                // Default capacity of the GC event queue
	infoSamples           = 1000                   // Entries sampled by GetInfo
	entryOverhead         = 32                     // 8 bytes each for the entry pointer, expireAt, deleteAt, index
)

// --------------------------------------------------------------------------
// Core radix database structure
// --------------------------------------------------------------------------

// radixImpl implements db.KVDB on top of a concurrent radix tree
type radixImpl struct {
	data      *trie.Trie[*internal.Entry] // key -> entry
	currIndex atomic.Uint64               // Current logical timestamp (for TTLInfo)

	// garbage collection
	events      *xsync.MPMCQueueOf[internal.Event]
	kick        chan struct{} // wakes the gc when the event queue is full
	gcStop      chan struct{}
	gcDone      chan struct{}
	gcInterval  time.Duration
	gcIsRunning atomic.Bool

	// owned by the gc goroutine
	expireHeap *util.MapHeap[string]
	deleteHeap *util.MapHeap[string]

	// heap sizes published by the gc for GetInfo
	scheduledExpire atomic.Int64
	scheduledDelete atomic.Int64
}

// DBOptions configures the radixImpl behavior during initialization
type DBOptions struct {
	Stripes        int           // Number of stripe locks of the trie (0 = auto)
	GCInterval     time.Duration // Time between GC runs (0 = use default)
	EventQueueSize int           // Capacity of the GC event queue (0 = use default)
}

// DefaultOptions returns the default radixImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		Stripes:        trie.DefaultOptions().Stripes,
		GCInterval:     defaultGCInterval,
		EventQueueSize: defaultEventQueueSize,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewRadixDB creates a new radix database with the specified options (optional)
func NewRadixDB(opts *DBOptions) db.KVDB {
	return newRadixDB(opts)
}

func newRadixDB(opts *DBOptions) *radixImpl {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.GCInterval <= 0 {
		opts.GCInterval = defaultGCInterval
	}
	if opts.EventQueueSize <= 0 {
		opts.EventQueueSize = defaultEventQueueSize
	}

	newDB := &radixImpl{
		data:       trie.New[*internal.Entry](&trie.Options{Stripes: opts.Stripes}),
		events:     xsync.NewMPMCQueueOf[internal.Event](opts.EventQueueSize),
		kick:       make(chan struct{}, 1),
		gcStop:     make(chan struct{}),
		gcDone:     make(chan struct{}),
		gcInterval: opts.GCInterval,
		expireHeap: util.NewMapHeap[string](),
		deleteHeap: util.NewMapHeap[string](),
	}

	newDB.startGC()
	return newDB
}

// checkKey rejects keys the trie can not store
func checkKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key must not be empty", trie.ErrInvalidArgument)
	}
	return nil
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Set inserts or updates an entry with the given key, value, and writeIndex.
// If the key already exists, the old value is overwritten.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *radixImpl) Set(key string, value []byte, writeIdx uint64) error {
	return r.compute(key, value, writeIdx, 0, 0, func(new, _ *internal.Entry, _ bool) *internal.Entry {
		return new
	})
}

// SetE stores a value for a key with an expiration time.
// If the key already exists, the old value, old expireIn and old deleteIn are overwritten.
//
//   - expireIn: when the value should expire (relative to writeIndex) (0 = no expiration, the key can still be found with the Has() method)
//   - deleteIn: when the key and value should be deleted (relative to writeIndex) (0 = no deletion)
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *radixImpl) SetE(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64) error {
	return r.compute(key, value, writeIndex, expireIn, deleteIn, func(new, _ *internal.Entry, _ bool) *internal.Entry {
		return new
	})
}

// SetEIfUnset works like SetE but keeps an existing entry that is not (logically) deleted.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *radixImpl) SetEIfUnset(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64) error {
	return r.compute(key, value, writeIndex, expireIn, deleteIn, func(new, _ *internal.Entry, loaded bool) *internal.Entry {
		if loaded {
			return nil
		}
		return new
	})
}

// Expire marks the entry with the specified key as expired. This change is immediate.
// The key is still findable with the Has() method.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *radixImpl) Expire(key string, writeIndex uint64) error {
	return r.compute(key, nil, writeIndex, 0, 0, func(_, old *internal.Entry, loaded bool) *internal.Entry {
		if !loaded {
			return nil // never create an entry
		}
		return old.Expired(writeIndex)
	})
}

// compute is the shared implementation of Set, SetE, SetEIfUnset and Expire.
//
// fn receives the new entry and the current one (old, nil if there is none). loaded is
// false if there is no current entry or if it is logically deleted. An expired
// current entry is passed without value. fn returns the entry to store or nil to
// leave the trie untouched. Writes with an index lower than that of the current
// entry are ignored without calling fn.
//
// Thread-safety: Changes of a key are linearized by the value slot of the trie.
func (r *radixImpl) compute(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64, fn func(new, old *internal.Entry, loaded bool) *internal.Entry) error {
	if err := checkKey(key); err != nil {
		return err
	}

	// update the current index
	r.SetWriteIdx(writeIndex)

	// copy value to prevent memory corruption
	newEntry := internal.NewEntry(slices.Clone(value), writeIndex, expireIn, deleteIn)

	for {
		// CASE no entry, try to add a new one
		if _, exists := r.data.Get(key); !exists {
			e := fn(newEntry, nil, false)
			if e == nil {
				return nil
			}
			stored, err := r.data.GetOrAdd(key, e)
			if err != nil {
				return err
			}
			if stored != e {
				continue // someone else was faster, decide again with their entry
			}
			r.written(key, e)
			return nil
		}

		// CASE existing entry, replace it atomically
		var result *internal.Entry
		updated, err := r.data.Update(key, func(old *internal.Entry) *internal.Entry {
			result = nil

			// stale writes are ignored
			if writeIndex < old.Index {
				return old
			}

			// fn only ever sees a consistent view of the entry
			view, loaded := old, true
			isExpired, isDeleted := old.TTLInfo(writeIndex)
			if isDeleted {
				loaded = false
			} else if isExpired {
				view = old.Expired(writeIndex)
			}

			if result = fn(newEntry, view, loaded); result == nil {
				return old
			}
			return result
		})
		if err != nil {
			return err
		}
		if !updated {
			continue // removed in between
		}
		if result != nil {
			r.written(key, result)
		}
		return nil
	}
}

// written registers entries with a ttl at the garbage collector
func (r *radixImpl) written(key string, e *internal.Entry) {
	if e.HasTTL() {
		r.push(internal.Event{Type: internal.EventTWrite, Key: key})
	}
}

// Delete removes an entry with the specified key. This change is immediate.
// Deletes with an index lower than that of the stored entry are ignored.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *radixImpl) Delete(key string, writeIndex uint64) error {
	if err := checkKey(key); err != nil {
		return err
	}

	r.SetWriteIdx(writeIndex)

	var hadTTL bool
	removed, err := r.data.RemoveFunc(key, func(e *internal.Entry) bool {
		hadTTL = e.HasTTL()
		return writeIndex >= e.Index
	})
	if err != nil {
		return err
	}

	// the gc does not need to track the entry anymore
	if removed && hadTTL {
		r.push(internal.Event{Type: internal.EventTDelete, Key: key})
	}
	return nil
}

// DeletePrefix removes all entries whose key starts with prefix by detaching the
// subtree from the trie. It returns how many entries were not yet logically deleted.
// The detached entries are handed to the garbage collector.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *radixImpl) DeletePrefix(prefix string, writeIndex uint64) (int, error) {
	r.SetWriteIdx(writeIndex)

	pruned, ok, err := r.data.Prune(prefix)
	if err != nil || !ok {
		return 0, err
	}

	idx := r.currIndex.Load()
	removed := 0
	for _, e := range pruned.Search("") {
		if _, isDeleted := e.TTLInfo(idx); !isDeleted {
			removed++
		}
	}

	r.push(internal.Event{Type: internal.EventTPrune, Pruned: pruned})
	Logger.Debugf("deleted %d entries with prefix %q", removed, prefix)
	return removed, nil
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves a value for a key.
// The boolean indicates whether a (not expired) value for the key was found.
// The returned value is a copy of the stored data and therefore safe to use and modify.
// Deleted entries found on the way are removed right away.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *radixImpl) Get(key string) ([]byte, bool) {
	e, ok := r.data.Get(key)
	if !ok {
		return nil, false
	}

	idx := r.currIndex.Load()
	isExpired, isDeleted := e.TTLInfo(idx)

	if isDeleted {
		_, _ = r.data.RemoveFunc(key, func(cur *internal.Entry) bool {
			_, del := cur.TTLInfo(idx)
			return del
		})
		return nil, false
	}
	if isExpired {
		return nil, false
	}

	data := make([]byte, len(e.Value))
	copy(data, e.Value)
	return data, true
}

// Has checks if a key exists in the database.
// This method does not check if the value for the key is expired. Use Get() for that.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *radixImpl) Has(key string) bool {
	e, ok := r.data.Get(key)
	if !ok {
		return false
	}

	// expired keys are still findable
	_, isDeleted := e.TTLInfo(r.currIndex.Load())
	return !isDeleted
}

// Scan enumerates all entries with a (not expired) value whose key starts with prefix.
// The values are copies.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *radixImpl) Scan(prefix string) iter.Seq2[string, []byte] {
	return func(yield func(string, []byte) bool) {
		idx := r.currIndex.Load()
		for key, e := range r.data.Search(prefix) {
			if isExpired, isDeleted := e.TTLInfo(idx); isExpired || isDeleted {
				continue
			}
			data := make([]byte, len(e.Value))
			copy(data, e.Value)
			if !yield(key, data) {
				return
			}
		}
	}
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the database
func (r *radixImpl) GetInfo() db.DatabaseInfo {

	// get current index only once
	currentWriteIndex := r.currIndex.Load()

	// sample the first entries for the size histogram and the gc backlog
	histogram := util.NewSizeHistogram()
	samplesCount := 0
	expiredBacklog := 0
	deletedBacklog := 0
	for _, e := range r.data.Search("") {
		histogram.AddSample(len(e.Value))

		// expired or deleted but not yet processed by the gc
		isExpired, isDeleted := e.TTLInfo(currentWriteIndex)
		if isExpired && e.Value != nil {
			expiredBacklog++
		}
		if isDeleted {
			deletedBacklog++
		}

		samplesCount++
		if samplesCount >= infoSamples {
			break
		}
	}

	stats := r.data.Stats()

	// weighted estimate per entry (60% median, 40% average)
	medianSize := histogram.MedianEstimate() + entryOverhead
	avgSize := histogram.AverageSize() + entryOverhead
	sizeBytes := stats.Values * (medianSize*60 + avgSize*40) / 100

	var expiredRatio, deletedRatio float64
	if samplesCount > 0 {
		expiredRatio = float64(expiredBacklog) / float64(samplesCount)
		deletedRatio = float64(deletedBacklog) / float64(samplesCount)
	}

	// Metadata for this specific database implementation
	meta := &struct {
		CurrentWriteIndex  uint64                 `json:"current_write_index"`
		Entries            int                    `json:"entries"`
		Trie               trie.Stats             `json:"trie"`
		StripeDistribution util.DistributionStats `json:"stripe_distribution"`
		ExpiredBacklog     float64                `json:"expired_backlog"`
		DeletedBacklog     float64                `json:"deleted_backlog"`
		ScheduledExpire    int64                  `json:"scheduled_expire"`
		ScheduledDelete    int64                  `json:"scheduled_delete"`
		Info               string                 `json:"info"`
	}{
		CurrentWriteIndex:  currentWriteIndex,
		Entries:            stats.Values,
		Trie:               stats,
		StripeDistribution: util.NewDistributionStats(stats.StripeLoad),
		ExpiredBacklog:     expiredRatio, // share of sampled entries expired but not yet processed by the gc
		DeletedBacklog:     deletedRatio, // share of sampled entries deleted but not yet processed by the gc
		ScheduledExpire:    r.scheduledExpire.Load(),
		ScheduledDelete:    r.scheduledDelete.Load(),
		Info:               "All values (including SizeBytes) are estimates and may vary depending on the database state.",
	}

	return db.DatabaseInfo{
		SizeBytes:         sizeBytes,
		DbType:            db.ImplRadix,
		SupportedFeatures: supportedFeatureList,
		Metadata:          meta,
	}
}

var supportedFeatureList = []db.Feature{
	db.FeatureSet, db.FeatureSetE, db.FeatureSetEIfUnset,
	db.FeatureExpire, db.FeatureDelete,
	db.FeatureGet, db.FeatureHas,
	db.FeatureScan, db.FeatureDeletePrefix,
	db.FeatureGarbageCollect,
}

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (r *radixImpl) SupportsFeature(feature db.Feature) bool {
	var supported db.Feature
	for _, f := range supportedFeatureList {
		supported |= f
	}
	return supported&feature == feature
}

// Close stops the garbage collector
func (r *radixImpl) Close() error {
	r.stopGC()
	return nil
}

// --------------------------------------------------------------------------
// Index and Timestamp Management
// --------------------------------------------------------------------------

// SetWriteIdx safely updates the current index
// It only updates if the new index is greater than the current one
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *radixImpl) SetWriteIdx(newIdx uint64) {
	for {
		currIdx := r.currIndex.Load()
		if newIdx <= currIdx {
			return
		}
		if r.currIndex.CompareAndSwap(currIdx, newIdx) {
			return
		}
	}
}

// WriteIdx returns the current index of the database
func (r *radixImpl) WriteIdx() uint64 {
	return r.currIndex.Load()
}
