package trie

import "iter"

// --------------------------------------------------------------------------
// Search (prefix enumeration)
// --------------------------------------------------------------------------

// Search returns all key/value pairs whose key starts with prefix.
//
// The sequence is lazy and can be iterated more than once, every iteration
// walks the current tree again. The walk snapshots the children of each node
// before descending, so it never holds a lock while yielding and never blocks
// writers for longer than a single snapshot. Concurrent writes may or may not
// be visible (weakly consistent). The order of the pairs is unspecified.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *Trie[V]) Search(prefix string) iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		tok := t.structure.RLock()
		start, path, ok := t.locate(prefix)
		t.structure.RUnlock(tok)

		if !ok {
			return
		}

		t.traverse(start, path, func(n *node[V], key string) bool {
			if v, ok := n.slot.get(); ok {
				return yield(key, v)
			}
			return true
		})
	}
}

// Keys returns all keys of the trie (equivalent to Search("") without values)
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *Trie[V]) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		for k := range t.Search("") {
			if !yield(k) {
				return
			}
		}
	}
}

// traverse visits start and all its descendants depth first. key is the full
// path of start. It stops as soon as fn returns false.
func (t *Trie[V]) traverse(start *node[V], key string, fn func(n *node[V], key string) bool) {
	type frame struct {
		n   *node[V]
		key string
	}

	stack := []frame{{n: start, key: key}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(f.n, f.key) {
			return
		}

		lk := lockFor(t.stripes, f.n)
		lk.RLock()
		kids := f.n.snapshot()
		lk.RUnlock()

		for _, c := range kids {
			stack = append(stack, frame{n: c, key: f.key + c.label})
		}
	}
}

// --------------------------------------------------------------------------
// Prune
// --------------------------------------------------------------------------

// Prune detaches the subtree holding all keys that start with prefix and
// returns it as a new trie. Keys keep their full names in the new trie. The
// boolean is false if no key starts with prefix.
//
// The detached nodes are moved, not copied: afterward they belong to the new
// trie only. Both tries keep sharing the stripe lock table.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *Trie[V]) Prune(prefix string) (*Trie[V], bool, error) {
	if err := validate("prefix", prefix); err != nil {
		return nil, false, err
	}

	t.structure.Lock()
	defer t.structure.Unlock()

	var (
		parent *node[V]
		n      = t.root
		rest   = prefix
		path   string
	)
	for {
		c := rest[0]
		next, ok := t.childOf(n, c)
		if !ok {
			return nil, false, nil
		}

		i := commonPrefixLen(rest, next.label)

		// the prefix ends at or inside this label, next is the subtree to detach
		if i == len(rest) {
			unlock := lockSet(t.stripes, parent, n)
			delete(n.kids.m, c)
			if parent != nil {
				// n may be left as a valueless node with a single child
				t.mergeLocked(parent, n)
			}
			unlock()

			sub := newWithStripes[V](t.stripes)
			moved := next.relabel(path + next.label)
			sub.root.kids.m[moved.label[0]] = moved

			t.prunes.Add(1)
			Logger.Debugf("pruned subtree %q", prefix)
			return sub, true, nil
		}

		// the prefix diverges inside the label
		if i < len(next.label) {
			return nil, false, nil
		}

		path += next.label
		rest = rest[i:]
		parent, n = n, next
	}
}
