package trie

import "sync/atomic"

// --------------------------------------------------------------------------
// Trie Node
// --------------------------------------------------------------------------

// collectionIDs hands out the identities of children collections.
// The id selects the stripe lock of every node sharing the collection.
var collectionIDs atomic.Uint64

// children is the edge map of a node, keyed by the first byte of each child label.
// A collection keeps its id for its whole life, even when the owning node is
// replaced by a relabelled copy (split, merge or prune).
type children[V any] struct {
	id uint64
	m  map[byte]*node[V]
}

func newChildren[V any]() *children[V] {
	return &children[V]{
		id: collectionIDs.Add(1),
		m:  make(map[byte]*node[V]),
	}
}

// node is an edge-labelled trie node. The label is immutable, structural
// changes create new nodes that take over the children and slot of the old one.
type node[V any] struct {
	label string
	kids  *children[V]
	slot  *slot[V]
}

// newNode creates a node with an empty children collection and an absent value
func newNode[V any](label string) *node[V] {
	return &node[V]{
		label: label,
		kids:  newChildren[V](),
		slot:  &slot[V]{},
	}
}

// newLeaf creates a node that already holds v
func newLeaf[V any](label string, v V) *node[V] {
	n := newNode[V](label)
	n.slot.trySet(v)
	return n
}

// relabel returns a node with a new label that takes over the children and
// the value of n. n must be unlinked by the caller.
func (n *node[V]) relabel(label string) *node[V] {
	return &node[V]{
		label: label,
		kids:  n.kids,
		slot:  n.slot,
	}
}

// child returns the child for c.
// The caller must hold the stripe lock of n (any mode).
func (n *node[V]) child(c byte) (*node[V], bool) {
	next, ok := n.kids.m[c]
	return next, ok
}

// soleChild returns the only child of n.
// The caller must hold the stripe lock of n and know that there is exactly one child.
func (n *node[V]) soleChild() *node[V] {
	for _, c := range n.kids.m {
		return c
	}
	panic("trie: soleChild called on a node without children")
}

// snapshot copies the current children of n into a slice.
// The caller must hold the stripe lock of n (any mode).
func (n *node[V]) snapshot() []*node[V] {
	out := make([]*node[V], 0, len(n.kids.m))
	for _, c := range n.kids.m {
		out = append(out, c)
	}
	return out
}

// commonPrefixLen returns the length of the longest common prefix of a and b
func commonPrefixLen(a, b string) int {
	i, n := 0, len(a)
	if len(b) < n {
		n = len(b)
	}
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
