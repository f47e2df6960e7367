// Package radix implements a prefix-indexed key-value database (KVDB) on top of
// the concurrent radix tree from lib/trie. It provides a complete implementation
// of the db.KVDB interface including prefix scans and prefix deletes.
//
// Key Components:
//
//   - radixImpl: The database structure implementing db.KVDB. It owns the trie,
//     the logical write index and the garbage collector. The write index is not
//     generated here but passed in by the caller (see lstore for a local counter).
//
//   - Entry: The value stored in the trie. Each entry contains the byte value,
//     expiration timestamp, deletion timestamp and creation index. Entries are
//     never changed after they are stored. Every write swaps in a new entry
//     through the atomic value slot of the trie, which linearizes all writes of
//     a key without any additional locking.
//
//   - Event System: Writers report entries with a ttl, removed entries and
//     detached subtrees through an xsync.MPMCQueueOf. The queue is drained by
//     the single garbage collector goroutine.
//
// Internal Mechanisms:
//
//   - Write Index: A logical timestamp that orders operations in the database.
//     It only ever increases and serves as the clock for expiration and deletion.
//
//   - Stale Write Prevention: A write is only applied if its write index is
//     greater than or equal to the index of the stored entry.
//
//   - Time-based Operations:
//     1. Expiration (expireIn): Expired entries return false for Get() but true for Has().
//     2. Deletion (deleteIn): Deleted entries return false for both Get() and Has().
//
//   - Prefix Deletes: DeletePrefix detaches the whole subtree with trie.Prune. All
//     keys below the prefix disappear in a single step. The detached trie is
//     handed to the garbage collector, which stops tracking its keys.
//
// Garbage Collection:
//
//   - Two min-heaps (util.MapHeap) keyed by entry key and ordered by expiration
//     and deletion index. The heaps are only touched by the gc goroutine.
//
//   - Every cycle the gc drains the event queue into the heaps, frees the values
//     of expired entries and removes deleted entries. Entries changed in the
//     meantime are checked again against the current write index before anything
//     is touched.
//
//   - Get() removes deleted entries it comes across right away. Get() and Has()
//     never rely on the gc for correctness.
package radix
