package bench

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ValentinKolb/pKV/cmd/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// BenchCmd runs the benchmarks
	BenchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Performance testing tool for the radix tree and the database",
		Long: fmt.Sprintf(`Runs in-process benchmarks against a fresh radix tree (--target trie)
or a store on top of the radix database (--target db).

Available benchmarks: %s`, strings.Join(benchmarkNames(), ", ")),
		Args:    cobra.NoArgs,
		RunE:    run,
		PreRunE: processBenchConfig,
	}
	benchTarget     = "trie"
	benchNumThreads = 10
	benchKeySpread  = 10_000
	benchValueSize  = 64
	benchSkip       = make([]string, 0)
)

func init() {
	// add flags
	key := "target"
	BenchCmd.Flags().String(key, "trie", util.WrapString("What to benchmark (trie, db)"))
	key = "skip"
	BenchCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. set,get)"))
	key = "threads"
	BenchCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "keys"
	BenchCmd.Flags().Int(key, 10_000, util.WrapString("How many different keys to use for the tests"))
	key = "value-size"
	BenchCmd.Flags().Int(key, 64, util.WrapString("Size of the values (in bytes)"))
	key = "csv"
	BenchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processBenchConfig(_ *cobra.Command, _ []string) error {
	// Read the configuration from the command line flags and environment variables
	benchTarget = viper.GetString("target")
	benchKeySpread = viper.GetInt("keys")
	benchNumThreads = viper.GetInt("threads")
	benchValueSize = viper.GetInt("value-size")
	benchSkip = strings.Split(viper.GetString("skip"), ",")

	if benchKeySpread < groups {
		return fmt.Errorf("keys must be at least %d", groups)
	}
	if benchNumThreads < 1 {
		return fmt.Errorf("threads must be at least 1")
	}
	return nil
}

func run(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for pKV")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("Target: %s\n", benchTarget)
	fmt.Printf("Stripes: %d\n", util.GetTrieOptions().Stripes)
	fmt.Printf("Threads: %d\n", benchNumThreads)
	fmt.Printf("Keys: %d\n", benchKeySpread)
	fmt.Printf("Value size: %dB\n", benchValueSize)
	fmt.Println()

	fmt.Println("starting tests...")

	results := make([]result, 0, len(benchmarks))
	for _, bm := range benchmarks {
		if shouldSkip(bm.name) {
			results = append(results, result{name: bm.name, skipped: true})
			printResult(results[len(results)-1])
			continue
		}
		res, err := runBenchmark(bm)
		if err != nil {
			return err
		}
		results = append(results, res)
		printResult(res)
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	return slices.Contains(benchSkip, test)
}

func benchmarkNames() []string {
	names := make([]string, len(benchmarks))
	for i, bm := range benchmarks {
		names[i] = bm.name
	}
	return names
}
