// Package util
//
// This file implements the statistics the radix engine reports through
// GetInfo: a size histogram for stored values and distribution metrics for the
// stripe locks of the trie.
//
// The histogram uses exponential buckets (16 bytes up to 4 GB) and atomic
// counters, so samples can be added from any goroutine without locking.
package util

import (
	"math"
	"sync/atomic"
)

// ----------------------------------------------------------------------------
// Distribution statistics
// ----------------------------------------------------------------------------

type Stats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewStats computes mean, standard deviation, minimum and maximum of values
func NewStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	lo, hi := values[0], values[0]
	var sum float64
	for _, v := range values {
		sum += v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}

	ratio := 1.0
	if hi > 0 {
		ratio = lo / hi
	}

	return Stats{
		StdDeviation: math.Sqrt(sq / float64(len(values))),
		Min:          lo,
		Max:          hi,
		Mean:         mean,
		MinMaxRatio:  ratio,
	}
}

type DistributionStats struct {
	Stats
	DistributionQuality float64 `json:"distribution_quality"`
}

// NewDistributionStats rates how evenly items are spread over buckets
// (e.g. trie nodes over stripe locks). 1.0 is a perfect spread.
func NewDistributionStats(bucketSizes []float64) DistributionStats {
	if len(bucketSizes) == 0 {
		return DistributionStats{}
	}
	stats := NewStats(bucketSizes)

	// coefficient of variation
	var cv float64
	if stats.Mean > 0 {
		cv = stats.StdDeviation / stats.Mean
	}

	// lower CV and higher min/max ratio indicate a better spread
	return DistributionStats{
		Stats:               stats,
		DistributionQuality: (1.0-math.Min(1.0, cv))*0.5 + stats.MinMaxRatio*0.5,
	}
}

// ----------------------------------------------------------------------------
// SizeHistogram
// ----------------------------------------------------------------------------

// histogramBoundaries are the upper bounds of the buckets, larger sizes go to the last bucket
var histogramBoundaries = [...]int{
	16, 64, 256, 1024, 4096,           // bytes
	16384, 65536, 262144, 1048576,     // KB
	4194304, 16777216, 67108864,       // MB
	268435456, 1073741824, 4294967296, // up to 4 GB
}

// SizeHistogram tracks the distribution of value sizes
type SizeHistogram struct {
	buckets [len(histogramBoundaries) + 1]atomic.Int64
	count   atomic.Int64
	sum     atomic.Int64
}

// NewSizeHistogram creates an empty histogram
func NewSizeHistogram() *SizeHistogram {
	return &SizeHistogram{}
}

// AddSample adds a size sample
//
// Thread-safety: This method is safe for concurrent use
func (h *SizeHistogram) AddSample(size int) {
	idx := len(histogramBoundaries)
	for i, b := range histogramBoundaries {
		if size <= b {
			idx = i
			break
		}
	}
	h.buckets[idx].Add(1)
	h.count.Add(1)
	h.sum.Add(int64(size))
}

// GetCount returns the total number of samples
func (h *SizeHistogram) GetCount() int64 {
	return h.count.Load()
}

// AverageSize returns the average sample size
func (h *SizeHistogram) AverageSize() int {
	n := h.count.Load()
	if n == 0 {
		return 0
	}
	return int(h.sum.Load() / n)
}

// MedianEstimate estimates the median size from the buckets
func (h *SizeHistogram) MedianEstimate() int {
	return h.GetPercentileEstimate(50)
}

// GetPercentileEstimate estimates the given percentile (0-100) from the buckets.
// A bucket is represented by the middle of its bounds.
func (h *SizeHistogram) GetPercentileEstimate(percentile int) int {
	n := h.count.Load()
	if n == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	target := int64(math.Ceil(float64(n) * float64(percentile) / 100.0))
	var cumulative int64
	for i := range h.buckets {
		cumulative += h.buckets[i].Load()
		if cumulative < target {
			continue
		}
		switch {
		case i == 0:
			return histogramBoundaries[0] / 2
		case i < len(histogramBoundaries):
			return (histogramBoundaries[i-1] + histogramBoundaries[i]) / 2
		default:
			return histogramBoundaries[len(histogramBoundaries)-1] * 2
		}
	}

	// concurrent samples moved the count, fall back to the average
	return h.AverageSize()
}

// Reset clears all samples
func (h *SizeHistogram) Reset() {
	for i := range h.buckets {
		h.buckets[i].Store(0)
	}
	h.count.Store(0)
	h.sum.Store(0)
}
