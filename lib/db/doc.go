// Package db provides a standardized interface for prefix-indexed key-value database implementations.
// It defines the KVDB interface that allows for consistent interaction with
// different database backends while abstracting implementation details.
//
// Key Components:
//
//   - KVDB Interface: The core interface that all database implementations must satisfy.
//     It provides methods for basic operations (Set, Get, Has, Delete),
//     time-based operations (SetE, Expire), specialized operations (SetEIfUnset),
//     prefix operations (Scan, DeletePrefix) and metadata retrieval (GetInfo).
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     can advertise through the SupportsFeature method.
//
//   - Implementation Identifiers: The Implementation type provides string constants
//     for different database backends (currently "radix").
//
//   - Database Information: The DatabaseInfo structure reports size estimates,
//     implementation type and implementation-specific metadata.
//
// Note on Keys:
//   - Keys must not be empty. Write operations reject the empty key with an error
//     that wraps trie.ErrInvalidArgument.
//   - Keys are meant to be hierarchical (e.g. "user:42:profile"). Everything that
//     belongs to one scope shares a prefix and can be dropped with one DeletePrefix.
//
// Note on Time-Based Operations:
//   - All write operations require a write-index parameter that serves as a logical
//     timestamp. This write-index is used to:
//     1. Record when an entry was created or modified
//     2. Calculate expiration and deletion times (by adding offsets to the current write-index)
//     3. Update the database's global logical clock
//   - Read operations always operate against the most recently set write-index.
//   - SetWriteIdx advances the logical time without performing a write.
//   - The write-index only increases. Attempts to set a lower one are ignored.
//   - Writes carrying an index lower than that of the stored entry are ignored.
//
// Note on Garbage Collection:
//   - Implementations must eventually remove deleted entries.
//   - Get() never returns an entry that has logically expired, even if it still
//     exists internally pending collection.
//   - Has() never returns true for an entry that has been logically deleted.
//
// Related Packages:
//
// The engines/radix package (github.com/ValentinKolb/pKV/lib/db/engines/radix) implements
// KVDB on top of the concurrent radix tree from lib/trie.
//
// The util package (github.com/ValentinKolb/pKV/lib/db/util) provides the hash
// functions, the keyed heap of the garbage collector and size statistics.
//
// The testing package (github.com/ValentinKolb/pKV/lib/db/testing) provides
// standardized tests and benchmarks for every db.KVDB implementation.
package db
