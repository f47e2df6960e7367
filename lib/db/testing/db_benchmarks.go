package testing

import (
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/pKV/lib/db"
)

// The benchmark workload mirrors how the cache uses the index: keys are
// hierarchical (entity:id:field), ids are decimal so "user:1" is a prefix of
// "user:1:", "user:12:" and "user:123:", and whole entities are dropped with
// DeletePrefix while other goroutines keep writing next to them.

var entities = []string{"user", "order", "session", "tenant"}

var fields = []string{"name", "mail", "state", "created", "owner", "items", "total", "token"}

const benchIDs = 5_000

func entityPrefix(n int) string {
	return fmt.Sprintf("%s:%d:", entities[n%len(entities)], n%benchIDs)
}

func entityKey(n, field int) string {
	return entityPrefix(n) + fields[field%len(fields)]
}

// populate writes every field of the first count entities and returns the next write index
func populate(database db.KVDB, count int) uint64 {
	idx := uint64(1)
	for n := 0; n < count; n++ {
		for f := range fields {
			_ = database.Set(entityKey(n, f), []byte(fmt.Sprintf("value-%d-%d", n, f)), idx)
			idx++
		}
	}
	return idx
}

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementations
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("SetEntity", func(b *testing.B) {
			benchmarkSetEntity(b, factory())
		})

		b.Run("GetEntity", func(b *testing.B) {
			benchmarkGetEntity(b, factory())
		})

		b.Run("Has(missing field)", func(b *testing.B) {
			benchmarkHasMissingField(b, factory())
		})

		b.Run("SetWithTTL", func(b *testing.B) {
			benchmarkSetWithTTL(b, factory())
		})

		b.Run("ScanEntity", func(b *testing.B) {
			benchmarkScanEntity(b, factory())
		})

		b.Run("ScanOverlapping", func(b *testing.B) {
			benchmarkScanOverlapping(b, factory())
		})

		b.Run("DeleteEntity", func(b *testing.B) {
			benchmarkDeleteEntity(b, factory())
		})

		b.Run("SetDeletePrefix", func(b *testing.B) {
			benchmarkSetDeletePrefix(b, factory())
		})

		b.Run("MixedPrefixScoped", func(b *testing.B) {
			benchmarkMixedPrefixScoped(b, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// every goroutine writes fields of shared entities, so edges are split concurrently
func benchmarkSetEntity(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)

	var idx atomic.Uint64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		n := 0
		for pb.Next() {
			i := idx.Add(1)
			_ = database.Set(entityKey(int(i), n), []byte("value"), i)
			n++
		}
	})
}

func benchmarkGetEntity(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureGet)

	populate(database, benchIDs)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		n := 0
		for pb.Next() {
			database.Get(entityKey(n, n/benchIDs))
			n++
		}
	})
}

// the lookup ends inside the edge of an existing sibling field
func benchmarkHasMissingField(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureHas)

	populate(database, benchIDs)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		n := 0
		for pb.Next() {
			database.Has(entityPrefix(n) + "na")
			n++
		}
	})
}

func benchmarkSetWithTTL(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSetE)

	var idx atomic.Uint64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		n := 0
		for pb.Next() {
			i := idx.Add(1)
			_ = database.SetE(entityKey(int(i), n), []byte("value"), i, 100, 200)
			n++
		}
	})
}

func benchmarkScanEntity(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureScan)

	populate(database, benchIDs)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		n := 0
		for pb.Next() {
			for range database.Scan(entityPrefix(n)) {
			}
			n++
		}
	})
}

// "user:1" covers user:1, user:1x and user:1xx, so scopes of different size overlap
func benchmarkScanOverlapping(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureScan)

	populate(database, benchIDs)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		n := 0
		for pb.Next() {
			prefix := fmt.Sprintf("%s:%d", entities[n%len(entities)], n%100)
			for range database.Scan(prefix) {
			}
			n++
		}
	})
}

// every iteration drops one entity with all its fields
func benchmarkDeleteEntity(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureDeletePrefix)

	idx := uint64(1)
	for n := 0; n < b.N; n++ {
		for f := range fields {
			_ = database.Set(fmt.Sprintf("entity:%d:%s", n, fields[f]), []byte("value"), idx)
			idx++
		}
	}

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_, _ = database.DeletePrefix(fmt.Sprintf("entity:%d:", n), idx)
		idx++
	}
}

// writers keep splitting edges while entities are pruned next to them
func benchmarkSetDeletePrefix(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSet)
	requireFeature(b, database, db.FeatureDeletePrefix)

	var idx atomic.Uint64
	idx.Store(populate(database, benchIDs))

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		n := 0
		for pb.Next() {
			i := idx.Add(1)
			if n%10 == 0 {
				_, _ = database.DeletePrefix(entityPrefix(int(i)), i)
			} else {
				_ = database.Set(entityKey(int(i), n), []byte("value"), i)
			}
			n++
		}
	})
}

func benchmarkMixedPrefixScoped(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, db.FeatureSetE)
	requireFeature(b, database, db.FeatureGet)
	requireFeature(b, database, db.FeatureDelete)
	requireFeature(b, database, db.FeatureScan)
	requireFeature(b, database, db.FeatureDeletePrefix)

	var idx atomic.Uint64
	idx.Store(populate(database, benchIDs))

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		for pb.Next() {
			n := rnd.Intn(benchIDs * len(entities))
			key := entityKey(n, rnd.Intn(len(fields)))

			// 60% Get, 25% SetE, 8% Delete, 5% Scan, 2% DeletePrefix
			switch op := rnd.Intn(100); {
			case op < 60:
				database.Get(key)
			case op < 85:
				i := idx.Add(1)
				_ = database.SetE(key, []byte("value"), i, uint64(rnd.Intn(500)), 0)
			case op < 93:
				_ = database.Delete(key, idx.Add(1))
			case op < 98:
				for range database.Scan(entityPrefix(n)) {
				}
			default:
				_, _ = database.DeletePrefix(entityPrefix(n), idx.Add(1))
			}
		}
	})
}
