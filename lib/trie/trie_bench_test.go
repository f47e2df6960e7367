package trie

import (
	"fmt"
	"sync/atomic"
	"testing"
)

func benchKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("entity/%d/field/%d", i%97, i)
	}
	return keys
}

func BenchmarkSet(b *testing.B) {
	keys := benchKeys(100_000)
	tr := New[int](nil)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = tr.Set(keys[i%len(keys)], i)
	}
}

func BenchmarkGetParallel(b *testing.B) {
	keys := benchKeys(100_000)
	tr := New[int](nil)
	for i, k := range keys {
		_ = tr.Set(k, i)
	}
	b.ResetTimer()

	var ctr atomic.Uint64
	b.RunParallel(func(pb *testing.PB) {
		i := int(ctr.Add(1) * 7919)
		for pb.Next() {
			tr.Get(keys[i%len(keys)])
			i++
		}
	})
}

func BenchmarkMixedParallel(b *testing.B) {
	keys := benchKeys(100_000)
	tr := New[int](nil)
	b.ResetTimer()

	var ctr atomic.Uint64
	b.RunParallel(func(pb *testing.PB) {
		i := int(ctr.Add(1) * 7919)
		for pb.Next() {
			k := keys[i%len(keys)]
			switch i % 4 {
			case 0:
				_ = tr.Set(k, i)
			case 1:
				_ = tr.Remove(k)
			default:
				tr.Get(k)
			}
			i++
		}
	})
}

func BenchmarkSearch(b *testing.B) {
	keys := benchKeys(100_000)
	tr := New[int](nil)
	for i, k := range keys {
		_ = tr.Set(k, i)
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		for range tr.Search(fmt.Sprintf("entity/%d/", i%97)) {
		}
	}
}
