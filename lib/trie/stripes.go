package trie

import (
	"sort"

	"github.com/ValentinKolb/pKV/lib/db/util"
)

// --------------------------------------------------------------------------
// Stripe Lock Table
// --------------------------------------------------------------------------

// stripes is a fixed pool of upgradeable reader/writer locks shared by all
// nodes of a trie. Several nodes can map to the same lock, callers that hold
// more than one stripe at a time must go through lockSet.
type stripes struct {
	seed  uint64
	locks []rwLock
}

func newStripes(n int) *stripes {
	if n < 1 {
		n = 1
	}
	return &stripes{
		seed:  util.GenerateSeed(),
		locks: make([]rwLock, n),
	}
}

// index returns the stripe position for a children collection id
func (s *stripes) index(id uint64) int {
	return int(uint64(util.HashUint64(id, s.seed)) % uint64(len(s.locks)))
}

// lockFor returns the lock guarding the children of n
func lockFor[V any](s *stripes, n *node[V]) *rwLock {
	return &s.locks[s.index(n.kids.id)]
}

// lockSet acquires the write locks of all given nodes. Nodes whose
// collections map to the same stripe share one acquisition, and stripes are
// always taken in ascending order. The returned function releases everything.
func lockSet[V any](s *stripes, nodes ...*node[V]) (unlock func()) {
	idx := make([]int, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		i := s.index(n.kids.id)
		dup := false
		for _, j := range idx {
			if i == j {
				dup = true
				break
			}
		}
		if !dup {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)

	for _, i := range idx {
		s.locks[i].Lock()
	}
	return func() {
		for k := len(idx) - 1; k >= 0; k-- {
			s.locks[idx[k]].Unlock()
		}
	}
}

// distribution counts how many of the given collection ids fall on each stripe
func (s *stripes) distribution(ids []uint64) []float64 {
	out := make([]float64, len(s.locks))
	for _, id := range ids {
		out[s.index(id)]++
	}
	return out
}
