package trie

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("trie")

// ErrInvalidArgument is returned (wrapped) when a key or prefix is rejected
var ErrInvalidArgument = errors.New("trie: invalid argument")

// --------------------------------------------------------------------------
// Constants and Options
// --------------------------------------------------------------------------

// stripesPerCPU is the default number of stripe locks per available CPU
const stripesPerCPU = 8

// Options configures a Trie during initialization
type Options struct {
	Stripes int // Number of stripe locks (0 = auto)
}

// DefaultOptions returns the default trie options
func DefaultOptions() *Options {
	return &Options{
		Stripes: runtime.NumCPU() * stripesPerCPU,
	}
}

// --------------------------------------------------------------------------
// Trie
// --------------------------------------------------------------------------

// Trie is a concurrent compressed prefix tree mapping string keys to values of type V.
//
// Lookups, value updates and enumeration run in parallel. Operations that
// change the shape of the tree (splitting a label, merging a single-child
// chain, detaching a subtree) serialize on the structure lock.
type Trie[V any] struct {
	root      *node[V]       // guarded by structure
	structure *xsync.RBMutex // read: shape preserving ops, write: shape changes
	stripes   *stripes

	splits   atomic.Uint64
	merges   atomic.Uint64
	retries  atomic.Uint64
	prunes   atomic.Uint64
	abandons atomic.Uint64
}

// New creates an empty trie with the given options (optional)
func New[V any](opts *Options) *Trie[V] {
	if opts == nil {
		opts = DefaultOptions()
	}
	n := opts.Stripes
	if n <= 0 {
		n = DefaultOptions().Stripes
	}
	return newWithStripes[V](newStripes(n))
}

// newWithStripes creates an empty trie using an existing lock table
func newWithStripes[V any](s *stripes) *Trie[V] {
	return &Trie[V]{
		root:      newNode[V](""),
		structure: xsync.NewRBMutex(),
		stripes:   s,
	}
}

// --------------------------------------------------------------------------
// Argument Validation
// --------------------------------------------------------------------------

func validate(name, s string) error {
	if s == "" {
		return fmt.Errorf("%w: %s must not be empty", ErrInvalidArgument, name)
	}
	return nil
}

// --------------------------------------------------------------------------
// Lookup
// --------------------------------------------------------------------------

// Get returns the value stored for key.
// The empty key addresses the root, which never holds a value.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *Trie[V]) Get(key string) (V, bool) {
	tok := t.structure.RLock()
	defer t.structure.RUnlock(tok)

	n := t.find(t.root, key)
	if n == nil {
		var zero V
		return zero, false
	}
	return n.slot.get()
}

// Has reports whether a value is stored for key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *Trie[V]) Has(key string) bool {
	_, ok := t.Get(key)
	return ok
}

// childOf looks up the child of n for c under the read lock of n
func (t *Trie[V]) childOf(n *node[V], c byte) (*node[V], bool) {
	lk := lockFor(t.stripes, n)
	lk.RLock()
	next, ok := n.child(c)
	lk.RUnlock()
	return next, ok
}

// find returns the node whose full path equals key, or nil.
// The node is returned even if it has no value.
// The caller must hold the structure lock (any mode).
func (t *Trie[V]) find(from *node[V], key string) *node[V] {
	n, rest := from, key
	for len(rest) > 0 {
		next, ok := t.childOf(n, rest[0])
		if !ok {
			return nil
		}

		// the label has to be a prefix of the remaining key
		i := commonPrefixLen(rest, next.label)
		if i != len(next.label) {
			return nil
		}

		rest = rest[i:]
		n = next
	}
	return n
}

// findPath works like find but also returns the parent and grandparent of the match.
// parent is nil only for the root, grandparent is nil for children of the root.
// The caller must hold the structure lock (any mode).
func (t *Trie[V]) findPath(key string) (grandparent, parent, n *node[V]) {
	n, rest := t.root, key
	for len(rest) > 0 {
		next, ok := t.childOf(n, rest[0])
		if !ok {
			return nil, nil, nil
		}

		i := commonPrefixLen(rest, next.label)
		if i != len(next.label) {
			return nil, nil, nil
		}

		rest = rest[i:]
		grandparent, parent, n = parent, n, next
	}
	return grandparent, parent, n
}

// locate returns the topmost node whose path starts with prefix together with
// that path. The prefix may end inside the label of the returned node.
// The caller must hold the structure lock (any mode).
func (t *Trie[V]) locate(prefix string) (*node[V], string, bool) {
	n, rest, path := t.root, prefix, ""
	for len(rest) > 0 {
		next, ok := t.childOf(n, rest[0])
		if !ok {
			return nil, "", false
		}

		i := commonPrefixLen(rest, next.label)

		// prefix is used up (at or inside the label)
		if i == len(rest) {
			return next, path + next.label, true
		}

		// the key diverges inside the label
		if i < len(next.label) {
			return nil, "", false
		}

		path += next.label
		rest = rest[i:]
		n = next
	}
	return n, path, true
}

// --------------------------------------------------------------------------
// Clear and Statistics
// --------------------------------------------------------------------------

// Clear removes all entries by replacing the root.
// Enumerations that are already running keep seeing the old nodes.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *Trie[V]) Clear() {
	t.structure.Lock()
	defer t.structure.Unlock()
	t.root = newNode[V]("")
}

// Len counts the stored values. The result is weakly consistent under concurrent writes.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *Trie[V]) Len() int {
	count := 0
	for range t.Search("") {
		count++
	}
	return count
}

// Stats describes the shape of a trie and the work its structure lock has seen
type Stats struct {
	Nodes      int       `json:"nodes"`
	Values     int       `json:"values"`
	Stripes    int       `json:"stripes"`
	StripeLoad []float64 `json:"-"` // children collections per stripe
	Splits     uint64    `json:"splits"`
	Merges     uint64    `json:"merges"`
	Retries    uint64    `json:"retries"`
	Prunes     uint64    `json:"prunes"`
	Abandoned  uint64    `json:"abandoned"` // cleanups skipped because the node got a value again
}

// Stats walks the trie and returns a weakly consistent summary
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (t *Trie[V]) Stats() Stats {
	tok := t.structure.RLock()
	root := t.root
	t.structure.RUnlock(tok)

	var (
		ids   []uint64
		nodes int
		vals  int
	)
	t.traverse(root, "", func(n *node[V], _ string) bool {
		nodes++
		ids = append(ids, n.kids.id)
		if n.slot.hasValue() {
			vals++
		}
		return true
	})

	return Stats{
		Nodes:      nodes - 1, // without the root sentinel
		Values:     vals,
		Stripes:    len(t.stripes.locks),
		StripeLoad: t.stripes.distribution(ids),
		Splits:     t.splits.Load(),
		Merges:     t.merges.Load(),
		Retries:    t.retries.Load(),
		Prunes:     t.prunes.Load(),
		Abandoned:  t.abandons.Load(),
	}
}
