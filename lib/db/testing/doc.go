// Package testing holds the conformance suite and the benchmarks every db.KVDB
// engine is checked against.
//
// RunKVDBTests covers the storage contract: write index ordering, expiry and
// delete windows, prefix scans and DeletePrefix. RunKVDBBenchmarks measures
// the engine under the workload of the cache, hierarchical entity:id:field
// keys whose prefixes overlap, with writers and DeletePrefix running side by
// side.
//
// The package name clashes with the standard library, import it under an alias:
//
//	import dbtesting "github.com/ValentinKolb/pKV/lib/db/testing"
//
//	func TestKVDBInterface(t *testing.T) {
//		dbtesting.RunKVDBTests(t, "RadixDB", func() db.KVDB {
//			return radix.NewRadixDB(radix.DefaultOptions())
//		})
//	}
//
//	func BenchmarkKVDBInterface(b *testing.B) {
//		dbtesting.RunKVDBBenchmarks(b, "RadixDB", func() db.KVDB {
//			return radix.NewRadixDB(radix.DefaultOptions())
//		})
//	}
package testing
