package trie

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stressGoroutines = 16
	stressKeys       = 1000
)

// stressKey produces keys with long shared prefixes so that goroutines
// constantly split and merge each other's labels
func stressKey(g, i int) string {
	return fmt.Sprintf("tenant/%d/item/%d/g%d", i%7, i, g)
}

func TestConcurrentSetGet(t *testing.T) {
	tr := New[int](&Options{Stripes: 16})

	var wg sync.WaitGroup
	for g := 0; g < stressGoroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < stressKeys; i++ {
				_ = tr.Set(stressKey(g, i), g*stressKeys+i)
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < stressGoroutines; g++ {
		for i := 0; i < stressKeys; i++ {
			v, ok := tr.Get(stressKey(g, i))
			require.True(t, ok, "key %s lost", stressKey(g, i))
			require.Equal(t, g*stressKeys+i, v)
		}
	}
	assert.Equal(t, stressGoroutines*stressKeys, tr.Len())
	checkShape(t, tr)
}

func TestConcurrentDisjointSetRemove(t *testing.T) {
	tr := New[int](&Options{Stripes: 4})

	var wg sync.WaitGroup
	for g := 0; g < stressGoroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < stressKeys; i++ {
				_ = tr.Set(stressKey(g, i), i)
			}
			// odd goroutines remove everything again, even ones every second key
			for i := 0; i < stressKeys; i++ {
				if g%2 == 1 || i%2 == 0 {
					_ = tr.Remove(stressKey(g, i))
				}
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < stressGoroutines; g++ {
		for i := 0; i < stressKeys; i++ {
			want := g%2 == 0 && i%2 == 1
			assert.Equal(t, want, tr.Has(stressKey(g, i)), "key %s", stressKey(g, i))
		}
	}
	checkShape(t, tr)
}

func TestConcurrentGetOrAddAgrees(t *testing.T) {
	tr := New[int](nil)

	results := make([][]int, stressGoroutines)
	var wg sync.WaitGroup
	for g := 0; g < stressGoroutines; g++ {
		results[g] = make([]int, stressKeys)
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < stressKeys; i++ {
				v, err := tr.GetOrAdd(fmt.Sprintf("shared/%d", i), g)
				if err != nil {
					panic(err)
				}
				results[g][i] = v
			}
		}(g)
	}
	wg.Wait()

	// every caller has to see the value of the single winner
	for i := 0; i < stressKeys; i++ {
		winner, ok := tr.Get(fmt.Sprintf("shared/%d", i))
		require.True(t, ok)
		for g := 0; g < stressGoroutines; g++ {
			require.Equal(t, winner, results[g][i], "key shared/%d", i)
		}
	}
}

func TestConcurrentUpdateCounts(t *testing.T) {
	tr := New[int](nil)
	_ = tr.Set("counter", 0)

	var wg sync.WaitGroup
	for g := 0; g < stressGoroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < stressKeys; i++ {
				_, _ = tr.Update("counter", func(old int) int { return old + 1 })
			}
		}()
	}
	wg.Wait()

	v, _ := tr.Get("counter")
	assert.Equal(t, stressGoroutines*stressKeys, v)
}

func TestConcurrentPruneLosesNothing(t *testing.T) {
	tr := New[int](&Options{Stripes: 8})

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		pruned []*Trie[int]
		done   = make(chan struct{})
	)

	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < stressKeys; i++ {
				_ = tr.Set(fmt.Sprintf("a/%d/%d", g, i), i)
				_ = tr.Set(fmt.Sprintf("b/%d/%d", g, i), i)
			}
		}(g)
	}

	// prune the "a/" scope until all writers are done
	var pwg sync.WaitGroup
	pwg.Add(1)
	go func() {
		defer pwg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			if sub, ok, err := tr.Prune("a/"); err == nil && ok {
				mu.Lock()
				pruned = append(pruned, sub)
				mu.Unlock()
			}
		}
	}()

	wg.Wait()
	close(done)
	pwg.Wait()

	// every "a/" key ended up in exactly one place
	seen := make(map[string]int)
	for k := range tr.Search("a/") {
		seen[k]++
	}
	for _, sub := range pruned {
		for k := range sub.Keys() {
			require.True(t, strings.HasPrefix(k, "a/"), "foreign key %q in pruned trie", k)
			seen[k]++
		}
		checkShape(t, sub)
	}
	assert.Len(t, seen, 4*stressKeys)
	for k, n := range seen {
		assert.Equal(t, 1, n, "key %q seen %d times", k, n)
	}

	// the "b/" scope is untouched
	for g := 0; g < 4; g++ {
		for i := 0; i < stressKeys; i++ {
			assert.True(t, tr.Has(fmt.Sprintf("b/%d/%d", g, i)))
		}
	}
	checkShape(t, tr)
}

func TestConcurrentSearchWhileWriting(t *testing.T) {
	tr := New[int](nil)
	for i := 0; i < stressKeys; i++ {
		_ = tr.Set(fmt.Sprintf("stable/%d", i), i)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
				}
				k := fmt.Sprintf("stable/%d/%d", i%stressKeys, g)
				_ = tr.Set(k, i)
				_ = tr.Remove(k)
			}
		}(g)
	}

	// keys that are never touched by the writers are always visible
	for round := 0; round < 20; round++ {
		count := 0
		for k := range tr.Search("stable/") {
			require.True(t, strings.HasPrefix(k, "stable/"))
			if strings.Count(k, "/") == 1 {
				count++
			}
		}
		require.Equal(t, stressKeys, count, "round %d", round)
	}

	close(stop)
	wg.Wait()
	checkShape(t, tr)
}

func TestConcurrentSingleStripe(t *testing.T) {
	// every node shares one lock, aliasing on every structural change
	tr := New[int](&Options{Stripes: 1})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := stressKey(g, i)
				_ = tr.Set(k, i)
				if i%3 == 0 {
					_ = tr.Remove(k)
				}
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < 8; g++ {
		for i := 0; i < 500; i++ {
			assert.Equal(t, i%3 != 0, tr.Has(stressKey(g, i)))
		}
	}
	checkShape(t, tr)
}
