package bench

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/ValentinKolb/pKV/cmd/util"
	"github.com/rcrowley/go-metrics"
)

// groups is the number of key groups used by search and prune
const groups = 16

// registry holds one latency timer per benchmark
var registry = metrics.NewRegistry()

// benchmark is a single operation that is run in parallel
type benchmark struct {
	name string
	// prefill stores all keys before the benchmark starts
	prefill bool
	op      func(t target, k *keys, i int, value []byte) error
}

var benchmarks = []benchmark{
	{
		name: "set",
		op: func(t target, k *keys, i int, value []byte) error {
			return t.set(k.get(i), value)
		},
	},
	{
		name:    "get",
		prefill: true,
		op: func(t target, k *keys, i int, _ []byte) error {
			return t.get(k.get(i))
		},
	},
	{
		name: "getoradd",
		op: func(t target, k *keys, i int, value []byte) error {
			return t.getOrAdd(k.get(i), value)
		},
	},
	{
		name:    "remove",
		prefill: true,
		op: func(t target, k *keys, i int, value []byte) error {
			// re-add every other key, so that not only empty paths are removed
			if i%2 == 0 {
				return t.set(k.get(i), value)
			}
			return t.remove(k.get(i))
		},
	},
	{
		name:    "search",
		prefill: true,
		op: func(t target, k *keys, i int, _ []byte) error {
			_, err := t.search(k.group(i))
			return err
		},
	},
	{
		name:    "prune",
		prefill: true,
		op: func(t target, k *keys, i int, value []byte) error {
			// refill one group while pruning the opposite one
			if err := t.set(k.get(i), value); err != nil {
				return err
			}
			return t.prune(k.group(i + groups/2))
		},
	},
	{
		name:    "mixed",
		prefill: true,
		op: func(t target, k *keys, i int, value []byte) error {
			key := k.get(i)
			switch i % 5 {
			case 0:
				return t.set(key, value)
			case 1:
				return t.get(key)
			case 2:
				return t.getOrAdd(key, value)
			case 3:
				return t.remove(key)
			default:
				_, err := t.search(k.group(i))
				return err
			}
		},
	},
}

// result of a benchmark, latencies are in nanoseconds
type result struct {
	name    string
	bench   testing.BenchmarkResult
	p50     float64
	p99     float64
	p999    float64
	errors  int64
	skipped bool
}

// runBenchmark runs bm against a new target
func runBenchmark(bm benchmark) (result, error) {
	var (
		timer  metrics.Timer
		errors metrics.Counter
		runErr error
	)

	res := testing.Benchmark(func(b *testing.B) {
		t, err := newTarget(benchTarget)
		if err != nil {
			runErr = err
			return
		}
		b.Cleanup(func() {
			if err := t.close(); err != nil {
				util.Logger.Warningf("(%s) - error closing target: %v", bm.name, err)
			}
		})

		k := newKeys(bm.name, benchKeySpread)
		value := make([]byte, benchValueSize)
		if bm.prefill {
			for i := 0; i < benchKeySpread; i++ {
				if err := t.set(k.get(i), value); err != nil {
					runErr = err
					return
				}
			}
		}

		// every run of b.N gets fresh metrics, the last run is reported
		registry.Unregister(bm.name)
		registry.Unregister(bm.name + ".errors")
		timer = metrics.GetOrRegisterTimer(bm.name, registry)
		errors = metrics.GetOrRegisterCounter(bm.name+".errors", registry)

		b.SetParallelism(benchNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := randomStart()
			for pb.Next() {
				start := time.Now()
				err := bm.op(t, k, counter, value)
				timer.UpdateSince(start)
				if err != nil {
					errors.Inc(1)
					util.Logger.Debugf("(%s) - error performing operation: %v", bm.name, err)
				}
				counter++
			}
		})
	})
	if runErr != nil {
		return result{}, runErr
	}
	if timer == nil {
		return result{name: bm.name, skipped: true}, nil
	}

	ps := timer.Percentiles([]float64{0.5, 0.99, 0.999})
	return result{
		name:   bm.name,
		bench:  res,
		p50:    ps[0],
		p99:    ps[1],
		p999:   ps[2],
		errors: errors.Count(),
	}, nil
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(r result) {
	if r.skipped || r.bench.NsPerOp() == 0 {
		fmt.Printf("%-12sskipped\n", r.name)
		return
	}

	nsPerOp := math.Max(float64(r.bench.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-12s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p99=%s p99.9=%s",
		r.name, nsPerOp, time.Duration(nsPerOp), opsPerSec,
		time.Duration(r.p50), time.Duration(r.p99), time.Duration(r.p999))
	if r.errors > 0 {
		fmt.Printf("\terrors=%d", r.errors)
	}
	fmt.Println()
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []result) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50Ns", "P99Ns", "P999Ns", "Errors", "Skipped",
		"Target", "Stripes", "Threads", "ValueSize", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for _, r := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if r.skipped || r.bench.NsPerOp() == 0 {
			skipped = "true"
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(r.bench.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			r.name,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			fmt.Sprintf("%.0f", r.p50),
			fmt.Sprintf("%.0f", r.p99),
			fmt.Sprintf("%.0f", r.p999),
			strconv.FormatInt(r.errors, 10),
			skipped,
			benchTarget,
			strconv.Itoa(util.GetTrieOptions().Stripes),
			strconv.Itoa(benchNumThreads),
			strconv.Itoa(benchValueSize),
			strconv.Itoa(benchKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", r.name, err)
		}
	}

	return nil
}
