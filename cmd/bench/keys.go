package bench

import (
	"fmt"
	"math/rand/v2"
)

// keys is a fixed set of hierarchical test keys: bench/<name>/<group>/<i>
type keys struct {
	all    []string
	groups []string
}

func newKeys(name string, n int) *keys {
	k := &keys{
		all:    make([]string, n),
		groups: make([]string, groups),
	}
	for g := 0; g < groups; g++ {
		k.groups[g] = fmt.Sprintf("bench/%s/%02d/", name, g)
	}
	for i := 0; i < n; i++ {
		k.all[i] = fmt.Sprintf("%s%d", k.groups[i%groups], i)
	}
	return k
}

// get returns a key by index (with wraparound)
func (k *keys) get(i int) string {
	return k.all[i%len(k.all)]
}

// group returns the prefix of the group of the i-th key
func (k *keys) group(i int) string {
	return k.groups[i%groups]
}

// randomStart spreads the goroutines of a parallel benchmark over the key space
func randomStart() int {
	return rand.IntN(1 << 20)
}
