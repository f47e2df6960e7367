// Package lockmgr implements a locking mechanism using
// key-value stores that implement the store.IStore interface. It provides
// a simple yet robust way to coordinate access to shared resources, e.g. to
// make sure only one goroutine recomputes an expensive cache entry.
//
// The lockmgr only ever stores in the provides IStore and has no other internal
// state. Therefor it is safe to be created multiple times on the same store.
// It is event possible to create a new lockmgr for every acquire and or release
// operation. As long as the same store is used every time, all locks will
// work as expected.
//
// Core Functionality:
//   - Lock acquisition with ownership verification
//   - Automatic lock expiration through configurable timeouts
//   - Safe release operations that verify ownership
//
// Implementation Approach:
//
//	Locks are implemented by leveraging the atomic conditional operations
//	of the underlying store. Specifically:
//
//	- Lock Acquisition: Attempts to create a key using SetEIfUnset, which
//	  guarantees that only one requester can successfully create the key.
//	  The value contains a random UUID as owner ID that identifies the
//	  lock holder. All lock keys share the prefix "lock:", so ReleaseAll can
//	  drop every lock with a single DeletePrefix.
//
//	- Lock Verification: A successful SetEIfUnset operation is followed by
//	  a Get operation to confirm the lock was acquired by checking that the
//	  stored value matches the owner ID.
//
//	- Timeouts: Locks can be configured with an optional timeout (deleteIn)
//	  that automatically releases the lock after the specified period,
//	  preventing deadlocks if a client crashes.
//
//	- Safe Release: The ReleaseLock operation first verifies that the
//	  requester is the legitimate owner of the lock by comparing owner IDs
//	  before executing the Delete operation.
//
// Thread Safety:
//
//	The lockmgr is as thread-safe as the underlying store.IStore
//	implementation. All operations are performed through the store interface,
//	which typically provides thread safety guarantees.
package lockmgr
