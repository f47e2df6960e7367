// Package trie implements a concurrent compressed prefix tree (radix tree)
// that maps string keys to values of any type. It is the index behind the
// radix database engine and therefore behind every cache built with pKV.
//
// Besides point lookups, inserts and removals the trie supports enumerating
// all keys below a prefix (Search) and atomically detaching such a subtree
// (Prune). Detaching is what makes scope based cache invalidation cheap: all
// keys of an entity type or of a single entity share a prefix and disappear
// with a single structural change.
//
// Key Components:
//
//   - Value slot: every node holds its value in a slot with three states
//     (absent, present, tombstoned). All value transitions are a single atomic
//     compare-and-swap, so value-only operations never take a lock.
//
//   - Node: an immutable label (the edge fragment from the parent), a
//     collection of children keyed by the first byte of their label and a
//     value slot. Splits, merges and prunes never change a label in place,
//     they create a relabelled node that takes over the children collection
//     and the slot of the node it replaces.
//
//   - Stripe locks: a fixed table of upgradeable reader/writer locks
//     (runtime.NumCPU() * 8 by default). A node is guarded by the lock its
//     children collection hashes to. Since relabelled nodes share the
//     collection, a node keeps its lock across structural changes.
//
//   - Structure lock: one reader-biased lock (xsync.RBMutex) per trie. Lookups,
//     value updates and new leaves take it in read mode; splits, merges and
//     prunes take it in write mode.
//
// Locking Protocol:
//
//	Locks are always taken in this order: structure lock, then stripe locks.
//
//	- Holding the structure lock in read mode, an operation holds at most one
//	  stripe lock at a time. Only new leaves are attached this way (upgradeable
//	  read, upgraded to write).
//	- Only the holder of the structure lock in write mode ever holds more than
//	  one stripe lock. It acquires them through lockSet, which merges aliased
//	  stripes (different nodes hashing to the same lock) into one acquisition
//	  and takes the stripes in ascending order.
//	- Enumerations take one stripe lock in read mode at a time and never wait
//	  for another lock while holding one.
//
//	A goroutine that waits while holding a stripe lock is therefore either
//	upgrading (waiting only for plain readers, who never wait) or inside
//	lockSet (waiting only for stripes with a higher index). Neither can close
//	a cycle, so the protocol is deadlock free. This also holds for tries
//	created by Prune, which share the lock table with their source.
//
// Insert:
//
//	An insert first descends under the structure lock in read mode. Existing
//	keys get their value swapped in place, missing branches get a new leaf.
//	If a label has to be split the insert releases everything, takes the
//	structure lock in write mode, walks the consumed path again and checks
//	that it still leads to the same node. If not, another goroutine changed
//	the shape and the insert starts over. Retries therefore only happen
//	after real progress elsewhere.
//
// Remove:
//
//	A remove clears the value slot under the structure lock in read mode. The
//	key is gone from that moment on. Afterward it takes the structure lock in
//	write mode, looks the key up again and unlinks an empty leaf or merges a
//	valueless node with its only child. If the key was written again in the
//	meantime the cleanup is skipped. Cleanup is best effort; the visible
//	content of the trie never depends on it.
//
// Search:
//
//	Search returns an iter.Seq2 that walks the subtree depth first with an
//	explicit stack. The children of every node are copied under its stripe
//	lock before descending, so the walk is weakly consistent and never blocks
//	writers for the duration of the enumeration.
//
// Prune:
//
//	Prune takes the structure lock in write mode, unlinks the topmost node
//	whose path starts with the prefix and hands it to a new trie. The keys
//	keep their full names. The nodes are moved, not copied.
//
// Usage Example:
//
//	t := trie.New[int](nil)
//	_ = t.Set("cat", 1)
//	_ = t.Set("car", 2)
//	_ = t.Set("dog", 3)
//
//	for k, v := range t.Search("ca") {
//		fmt.Println(k, v) // cat 1, car 2 (any order)
//	}
//
//	if sub, ok, _ := t.Prune("do"); ok {
//		v, _ := sub.Get("dog") // 3
//	}
package trie
