package trie

// --------------------------------------------------------------------------
// Remove
// --------------------------------------------------------------------------

// Remove deletes the value stored for key. Removing a missing key is a no-op.
//
// The key is gone as soon as its value slot is cleared, the following
// restructuring (unlinking an empty leaf, merging a single-child chain) is
// done afterward under the structure lock and skipped if the key got a value
// again in between.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *Trie[V]) Remove(key string) error {
	_, err := t.RemoveFunc(key, nil)
	return err
}

// RemoveFunc deletes the value stored for key if cond (when not nil) returns
// true for it. The check and the removal are one atomic step. It reports
// whether a value was removed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *Trie[V]) RemoveFunc(key string, cond func(V) bool) (bool, error) {
	if err := validate("key", key); err != nil {
		return false, err
	}

	if !t.take(key, cond) {
		return false, nil
	}

	t.compactPath(key)
	return true, nil
}

// take clears the value of key under the structure lock in read mode
func (t *Trie[V]) take(key string, cond func(V) bool) bool {
	tok := t.structure.RLock()
	defer t.structure.RUnlock(tok)

	n := t.find(t.root, key)
	if n == nil {
		return false
	}

	_, ok := n.slot.takeIf(cond)
	return ok
}

// compactPath restores the compression invariant around the node of key
// after its value was taken. The path is walked again from the root since the
// tree may have changed since the value was taken.
func (t *Trie[V]) compactPath(key string) {
	t.structure.Lock()
	defer t.structure.Unlock()

	grandparent, parent, n := t.findPath(key)

	// gone already, e.g. merged away or pruned by someone else
	if n == nil || parent == nil {
		return
	}

	// a value was written while we were waiting for the lock
	if n.slot.hasValue() {
		t.abandons.Add(1)
		Logger.Debugf("cleanup of %q abandoned, key was written again", key)
		return
	}

	lk := lockFor(t.stripes, n)
	lk.RLock()
	nChildren := len(n.kids.m)
	lk.RUnlock()

	switch nChildren {
	case 0:
		// an empty leaf is unlinked, afterward the parent may be left with a single child
		unlock := lockSet(t.stripes, parent, grandparent)
		defer unlock()

		delete(parent.kids.m, n.label[0])
		n.slot.tombstone()

		if grandparent != nil {
			t.mergeLocked(grandparent, parent)
		}

	case 1:
		// a valueless node with one child is merged with that child
		unlock := lockSet(t.stripes, parent)
		defer unlock()

		t.mergeLocked(parent, n)
	}
}

// mergeLocked replaces n in parent by its only child (with the joined label)
// if n has no value and exactly one child.
// The caller must hold the structure lock in write mode and the write lock of parent.
func (t *Trie[V]) mergeLocked(parent, n *node[V]) {
	if n.slot.hasValue() || len(n.kids.m) != 1 {
		return
	}

	sole := n.soleChild()
	parent.kids.m[n.label[0]] = sole.relabel(n.label + sole.label)
	n.slot.tombstone()

	t.merges.Add(1)
}
