package trie

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// rwLock
// --------------------------------------------------------------------------

func TestRWLockReadersShareWithUpgradeable(t *testing.T) {
	var l rwLock
	l.ULock()

	// plain readers are not blocked by an upgradeable reader
	done := make(chan struct{})
	go func() {
		l.RLock()
		l.RUnlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reader blocked by upgradeable read")
	}
	l.UUnlock()
}

func TestRWLockUpgradeableExcludesWriters(t *testing.T) {
	var l rwLock
	l.ULock()

	var acquired atomic.Bool
	go func() {
		l.Lock()
		acquired.Store(true)
		l.Unlock()
	}()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, acquired.Load(), "writer entered during upgradeable read")

	l.Upgrade()
	assert.False(t, acquired.Load())
	l.Downgrade()
	l.UUnlock()

	require.Eventually(t, acquired.Load, time.Second, time.Millisecond)
}

func TestRWLockUpgradeIsExclusive(t *testing.T) {
	var (
		l       rwLock
		wg      sync.WaitGroup
		counter int
	)

	// increments done through upgrades and through plain writes must not race
	for g := 0; g < 8; g++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				l.ULock()
				l.Upgrade()
				counter++
				l.Unlock()
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				l.Lock()
				counter++
				l.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 16000, counter)
}

// --------------------------------------------------------------------------
// Stripes
// --------------------------------------------------------------------------

func TestLockSetAliasedStripes(t *testing.T) {
	s := newStripes(1)
	a, b, c := newNode[int]("a"), newNode[int]("b"), newNode[int]("c")

	// all three nodes map to the single stripe, which must be taken once
	done := make(chan struct{})
	go func() {
		unlock := lockSet(s, a, nil, b, c)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lockSet deadlocked on aliased stripes")
	}

	// and is free again afterward
	lockFor(s, a).Lock()
	lockFor(s, a).Unlock()
}

func TestLockSetOrdering(t *testing.T) {
	s := newStripes(4)
	nodes := make([]*node[int], 32)
	for i := range nodes {
		nodes[i] = newNode[int]("n")
	}

	// opposite argument orders must not deadlock
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				x, y := nodes[(i+g)%len(nodes)], nodes[(i*7+g)%len(nodes)]
				if g%2 == 0 {
					x, y = y, x
				}
				unlock := lockSet(s, x, y)
				unlock()
			}
		}(g)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("lockSet deadlocked")
	}
}

func TestRelabelKeepsStripe(t *testing.T) {
	s := newStripes(64)
	n := newNode[int]("abc")
	moved := n.relabel("xyzabc")

	assert.Same(t, lockFor(s, n), lockFor(s, moved))
	assert.Same(t, n.slot, moved.slot)
}

func TestStripeDistribution(t *testing.T) {
	s := newStripes(8)
	ids := make([]uint64, 800)
	for i := range ids {
		ids[i] = uint64(i + 1)
	}

	load := s.distribution(ids)
	require.Len(t, load, 8)

	var total float64
	for _, l := range load {
		assert.Greater(t, l, 0.0)
		total += l
	}
	assert.Equal(t, 800.0, total)
}

// --------------------------------------------------------------------------
// Value Slot
// --------------------------------------------------------------------------

func TestSlotStates(t *testing.T) {
	var s slot[string]

	_, ok := s.get()
	assert.False(t, ok)
	assert.False(t, s.hasValue())

	assert.True(t, s.trySet("a"))
	v, ok := s.get()
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = s.getOrSet("b")
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = s.tryTakeAndClear()
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	assert.False(t, s.hasValue())

	_, ok = s.tryTakeAndClear()
	assert.False(t, ok)

	v, ok = s.getOrSet("b")
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	s.tombstone()
	assert.True(t, s.isTombstoned())
	assert.False(t, s.hasValue())
	assert.False(t, s.trySet("c"))
	_, ok = s.getOrSet("c")
	assert.False(t, ok)
	assert.False(t, s.update(func(v string) string { return v }))
	_, ok = s.takeIf(nil)
	assert.False(t, ok)
}

func TestSlotConcurrentGetOrSet(t *testing.T) {
	var (
		s       slot[int]
		wg      sync.WaitGroup
		winners atomic.Int32
	)

	for g := 1; g <= 32; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			if v, _ := s.getOrSet(g); v == g {
				winners.Add(1)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}
