package trie

import "sync"

// --------------------------------------------------------------------------
// Upgradeable Reader/Writer Lock
// --------------------------------------------------------------------------

// rwLock is a reader/writer lock with an additional upgradeable read mode.
//
// Plain readers share the lock with each other and with at most one
// upgradeable reader. Upgradeable readers and writers are serialized through
// the gate mutex, so while an upgradeable reader holds the lock nobody else
// can mutate the guarded state and the upgrade to write mode can not lose
// any information.
//
// The lock is not reentrant.
type rwLock struct {
	gate sync.Mutex   // held by upgradeable readers and writers
	rw   sync.RWMutex // held by everyone
}

// RLock acquires the lock in read mode
func (l *rwLock) RLock() { l.rw.RLock() }

// RUnlock releases the read mode
func (l *rwLock) RUnlock() { l.rw.RUnlock() }

// Lock acquires the lock in write mode
func (l *rwLock) Lock() {
	l.gate.Lock()
	l.rw.Lock()
}

// Unlock releases the write mode
func (l *rwLock) Unlock() {
	l.rw.Unlock()
	l.gate.Unlock()
}

// ULock acquires the lock in upgradeable read mode
func (l *rwLock) ULock() {
	l.gate.Lock()
	l.rw.RLock()
}

// UUnlock releases the upgradeable read mode
func (l *rwLock) UUnlock() {
	l.rw.RUnlock()
	l.gate.Unlock()
}

// Upgrade turns an upgradeable read into a write lock.
// Between the two calls no writer can slip in since the gate stays held.
func (l *rwLock) Upgrade() {
	l.rw.RUnlock()
	l.rw.Lock()
}

// Downgrade turns a write lock obtained with Upgrade back into an upgradeable read
func (l *rwLock) Downgrade() {
	l.rw.Unlock()
	l.rw.RLock()
}
