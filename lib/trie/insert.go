package trie

// --------------------------------------------------------------------------
// Insert / GetOrAdd
// --------------------------------------------------------------------------

// Set stores value for key, overwriting any previous value.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *Trie[V]) Set(key string, value V) error {
	if err := validate("key", key); err != nil {
		return err
	}
	t.insert(key, value, true)
	return nil
}

// GetOrAdd stores value for key only if the key has no value yet.
// It returns the value stored afterward, which is either value or the value
// that was already present (possibly installed by a concurrent caller).
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *Trie[V]) GetOrAdd(key string, value V) (V, error) {
	if err := validate("key", key); err != nil {
		var zero V
		return zero, err
	}
	return t.insert(key, value, false), nil
}

// Update atomically replaces the value of an existing key with fn(old).
// It returns false if the key has no value. fn can be called more than once
// if other goroutines write the same key concurrently.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *Trie[V]) Update(key string, fn func(old V) V) (bool, error) {
	if err := validate("key", key); err != nil {
		return false, err
	}

	tok := t.structure.RLock()
	defer t.structure.RUnlock(tok)

	n := t.find(t.root, key)
	if n == nil {
		return false, nil
	}
	return n.slot.update(fn), nil
}

// splitPoint tells the exclusive phase of an insert where the shared phase stopped
type splitPoint[V any] struct {
	parent   *node[V] // node whose child has to be split
	consumed int      // length of the key prefix that leads to parent
}

// insert runs the shared phase and, if the tree has to be reshaped, the
// exclusive phase. A failed exclusive phase means another goroutine changed
// the shape in between, so the whole insert starts over.
func (t *Trie[V]) insert(key string, value V, overwrite bool) V {
	for {
		out, sp, done := t.insertShared(key, value, overwrite)
		if done {
			return out
		}

		if out, done = t.insertExclusive(key, value, overwrite, sp); done {
			return out
		}

		t.retries.Add(1)
		Logger.Debugf("insert of %q retried after concurrent restructuring", key)
	}
}

// storeValue writes value into the slot of an existing node
func storeValue[V any](n *node[V], value V, overwrite bool) (V, bool) {
	if overwrite {
		return value, n.slot.trySet(value)
	}
	return n.slot.getOrSet(value)
}

// insertShared descends under the structure lock in read mode. It handles
// value updates of existing nodes and new leaves below existing nodes. If a
// label has to be split it gives up and reports where.
func (t *Trie[V]) insertShared(key string, value V, overwrite bool) (V, splitPoint[V], bool) {
	tok := t.structure.RLock()
	defer t.structure.RUnlock(tok)

	var zero V
	n, rest := t.root, key
	for {
		c := rest[0]
		lk := lockFor(t.stripes, n)
		lk.ULock()

		next, ok := n.child(c)

		// no child starts with c, so the rest of the key becomes a new leaf
		if !ok {
			lk.Upgrade()
			n.kids.m[c] = newLeaf(rest, value)
			lk.Unlock()
			return value, splitPoint[V]{}, true
		}

		// while the structure lock is held in read mode nobody can replace next
		lk.UUnlock()

		i := commonPrefixLen(next.label, rest)

		// the label has to be split, this needs the structure lock in write mode
		if i < len(next.label) {
			return zero, splitPoint[V]{parent: n, consumed: len(key) - len(rest)}, false
		}

		// keys are equal, this is the node we are looking for
		if i == len(rest) {
			out, ok := storeValue(next, value, overwrite)
			if !ok {
				// tombstoned nodes are unlinked under the write lock only, start over
				return zero, splitPoint[V]{}, false
			}
			return out, splitPoint[V]{}, true
		}

		rest = rest[i:]
		n = next
	}
}

// insertExclusive re-validates the split point under the structure lock in
// write mode and performs the split. It returns false if the tree changed
// since the shared phase.
func (t *Trie[V]) insertExclusive(key string, value V, overwrite bool, sp splitPoint[V]) (V, bool) {
	var zero V
	if sp.parent == nil {
		return zero, false
	}

	t.structure.Lock()
	defer t.structure.Unlock()

	// the path has to lead to the very same node again
	n := t.find(t.root, key[:sp.consumed])
	if n != sp.parent {
		return zero, false
	}

	rest := key[sp.consumed:]
	c := rest[0]
	lk := lockFor(t.stripes, n)
	lk.ULock()
	defer lk.UUnlock()

	next, ok := n.child(c)
	if !ok {
		return zero, false
	}

	i := commonPrefixLen(next.label, rest)
	if i == len(next.label) {
		// another goroutine has already split this label
		if i == len(rest) {
			return storeValue(next, value, overwrite)
		}
		return zero, false
	}

	// the new inner node holds the shared part of the label
	split := newNode[V](rest[:i])
	split.kids.m[next.label[i]] = next.relabel(next.label[i:])

	if i == len(rest) {
		// the key ends at the split point
		split.slot.trySet(value)
	} else {
		// the key diverges, branch off with a new leaf
		split.kids.m[rest[i]] = newLeaf(rest[i:], value)
	}

	lk.Upgrade()
	n.kids.m[c] = split
	lk.Downgrade()

	t.splits.Add(1)
	return value, true
}
