package db

import "iter"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplRadix Implementation = "radix"
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureSet            Feature = 1 << iota // Support for Set operations
	FeatureSetE                               // Support for SetE operations
	FeatureSetEIfUnset                        // Support for SetEIfUnset operations
	FeatureGet                                // Support for Get operations
	FeatureExpire                             // Support for Expire operations
	FeatureDelete                             // Support for Delete operations
	FeatureHas                                // Support for Has operations
	FeatureScan                               // Support for Scan (prefix enumeration)
	FeatureDeletePrefix                       // Support for DeletePrefix operations
	FeatureGarbageCollect                     // Support for GarbageCollect operations
)

func (f Feature) String() string {
	switch f {
	case FeatureSet:
		return "Set"
	case FeatureGet:
		return "Get"
	case FeatureSetE:
		return "SetE"
	case FeatureSetEIfUnset:
		return "SetEIfUnset"
	case FeatureExpire:
		return "Expire"
	case FeatureDelete:
		return "Delete"
	case FeatureHas:
		return "Has"
	case FeatureScan:
		return "Scan"
	case FeatureDeletePrefix:
		return "DeletePrefix"
	case FeatureGarbageCollect:
		return "GarbageCollect"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for prefix-indexed key-value database implementations.
// Keys are non-empty strings. Keys that share a prefix can be enumerated (Scan)
// and removed (DeletePrefix) together.
// Implementations can vary in their feature support, which can be queried with SupportsFeature.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Set inserts or updates an entry with the given key, value, and writeIndex.
	// If the key already exists, the old value is overwritten.
	// The writeIndex parameter is used as a logical timestamp for the entry.
	Set(key string, value []byte, writeIndex uint64) error

	// SetE inserts or updates an entry with the given key, value, writeIndex and a ttl (time to live).
	// If the key already exists, the old value is overwritten.
	// The expireIn parameter is used to set an expiration time for the entry, the entry is still findable after expiration with the Has() method.
	// The deleteIn parameter is used to set a deletion time for the entry, the entry is not findable after deletion.
	// Note: expireIn=0 and deleteIn=0 means no expiration or deletion. Setting expireIn=0 and deleteIn=N is equivalent to expireIn=N and deleteIn=N.
	SetE(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64) error

	// SetEIfUnset works like SetE but leaves an existing (not deleted) entry untouched.
	SetEIfUnset(key string, value []byte, writeIndex uint64, expireIn, deleteIn uint64) error

	// Expire marks the entry with the specified key as expired.
	// The key is still findable with the Has() method.
	Expire(key string, writeIndex uint64) error

	// Delete removes an entry with the specified key.
	// The key is not findable anymore.
	Delete(key string, writeIndex uint64) error

	// DeletePrefix removes all entries whose key starts with prefix in a single
	// atomic step and returns how many (not yet deleted) entries were removed.
	// The prefix must not be empty.
	DeletePrefix(prefix string, writeIndex uint64) (removed int, err error)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves the value for an exact key.
	// The boolean return value indicates whether a (not expired) value for the key was found.
	Get(key string) (value []byte, loaded bool)

	// Has checks whether a key exists in the database.
	// This method returns true even if the value for the key is expired.
	Has(key string) (loaded bool)

	// Scan enumerates all entries with a (not expired) value whose key starts with prefix.
	// The empty prefix enumerates everything. The order is unspecified and the
	// enumeration is weakly consistent with concurrent writes.
	Scan(prefix string) iter.Seq2[string, []byte]

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Returns true if the feature is supported, false otherwise.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// --------------------------------------------------------------------------
	// Write Index Operations
	// --------------------------------------------------------------------------

	// SetWriteIdx sets the current index of the database only if the provided index is greater than the current index.
	SetWriteIdx(index uint64)

	// WriteIdx returns the current index of the database.
	WriteIdx() (index uint64)

	// Close stops background work of the database.
	Close() (err error)
}
