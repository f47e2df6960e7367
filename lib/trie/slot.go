package trie

import "sync/atomic"

// --------------------------------------------------------------------------
// Value Slot
// --------------------------------------------------------------------------

// box wraps a stored value so the slot can swap it with a single pointer CAS
type box[V any] struct {
	v    V
	dead bool // set on the tombstone box only
}

// slot holds the value of a node. It is in one of three states:
//   - absent: the pointer is nil
//   - present: the pointer references a box holding the value
//   - tombstoned: the pointer references a dead box, the node has been unlinked
//
// All transitions are compare-and-swap operations on the pointer. No locks are taken.
type slot[V any] struct {
	p atomic.Pointer[box[V]]
}

// get returns the value if the slot is present
func (s *slot[V]) get() (V, bool) {
	b := s.p.Load()
	if b == nil || b.dead {
		var zero V
		return zero, false
	}
	return b.v, true
}

// hasValue reports whether the slot is present
func (s *slot[V]) hasValue() bool {
	b := s.p.Load()
	return b != nil && !b.dead
}

// isTombstoned reports whether the owning node was retired
func (s *slot[V]) isTombstoned() bool {
	b := s.p.Load()
	return b != nil && b.dead
}

// trySet overwrites the value. It fails only if the slot is tombstoned.
func (s *slot[V]) trySet(v V) bool {
	nb := &box[V]{v: v}
	for {
		b := s.p.Load()
		if b != nil && b.dead {
			return false
		}
		if s.p.CompareAndSwap(b, nb) {
			return true
		}
	}
}

// getOrSet stores v only if the slot is absent and returns whatever value is
// stored afterward. The boolean is false if the slot is tombstoned.
func (s *slot[V]) getOrSet(v V) (V, bool) {
	nb := &box[V]{v: v}
	for {
		if s.p.CompareAndSwap(nil, nb) {
			return v, true
		}
		b := s.p.Load()
		if b != nil && b.dead {
			var zero V
			return zero, false
		}
		if b != nil {
			return b.v, true
		}
		// cleared between the CAS and the load, try again
	}
}

// tryTakeAndClear atomically reads the value and resets the slot to absent
func (s *slot[V]) tryTakeAndClear() (V, bool) {
	return s.takeIf(nil)
}

// takeIf clears the slot if it is present and cond (if given) accepts the current value
func (s *slot[V]) takeIf(cond func(V) bool) (V, bool) {
	var zero V
	for {
		b := s.p.Load()
		if b == nil || b.dead {
			return zero, false
		}
		if cond != nil && !cond(b.v) {
			return zero, false
		}
		if s.p.CompareAndSwap(b, nil) {
			return b.v, true
		}
	}
}

// update replaces a present value with fn(old). fn may be called more than
// once under contention and must not have side effects.
func (s *slot[V]) update(fn func(V) V) bool {
	for {
		b := s.p.Load()
		if b == nil || b.dead {
			return false
		}
		if s.p.CompareAndSwap(b, &box[V]{v: fn(b.v)}) {
			return true
		}
	}
}

// tombstone retires the slot for good.
// Must only be called while holding the structure lock in write mode.
func (s *slot[V]) tombstone() {
	s.p.Store(&box[V]{dead: true})
}
