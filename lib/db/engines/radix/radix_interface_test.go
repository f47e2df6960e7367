package radix

import (
	"testing"

	"github.com/ValentinKolb/pKV/lib/db"
	dbtesting "github.com/ValentinKolb/pKV/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "RadixDB", func() db.KVDB {
		return NewRadixDB(nil)
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "RadixDB", func() db.KVDB {
		return NewRadixDB(nil)
	})
}
