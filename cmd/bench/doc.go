// Package bench implements the "pkv bench" command. It runs parallel benchmarks with
// testing.Benchmark against a radix tree or a store and reports ns/op together with
// latency percentiles measured with go-metrics timers.
package bench
