package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeHistogram(t *testing.T) {
	h := NewSizeHistogram()
	assert.Equal(t, 0, h.MedianEstimate())
	assert.Equal(t, 0, h.AverageSize())

	for i := 0; i < 90; i++ {
		h.AddSample(10) // first bucket
	}
	for i := 0; i < 10; i++ {
		h.AddSample(2000) // 1024 < x <= 4096
	}

	assert.Equal(t, int64(100), h.GetCount())
	assert.Equal(t, (90*10+10*2000)/100, h.AverageSize())
	assert.Equal(t, 8, h.MedianEstimate())
	assert.Equal(t, (1024+4096)/2, h.GetPercentileEstimate(99))
	assert.Equal(t, 0, h.GetPercentileEstimate(101))

	h.Reset()
	assert.Equal(t, int64(0), h.GetCount())
}

func TestSizeHistogramConcurrent(t *testing.T) {
	h := NewSizeHistogram()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				h.AddSample(i)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(8000), h.GetCount())
}

func TestDistributionStats(t *testing.T) {
	even := NewDistributionStats([]float64{4, 4, 4, 4})
	assert.InDelta(t, 1.0, even.DistributionQuality, 1e-9)
	assert.InDelta(t, 0.0, even.StdDeviation, 1e-9)

	skewed := NewDistributionStats([]float64{0, 0, 0, 16})
	assert.Less(t, skewed.DistributionQuality, even.DistributionQuality)
	assert.Equal(t, 16.0, skewed.Max)
	assert.Equal(t, 0.0, skewed.Min)

	assert.Equal(t, DistributionStats{}, NewDistributionStats(nil))
	assert.Equal(t, DistributionStats{}, NewDistributionStats([]float64{}))
}

func TestHashUint64Spread(t *testing.T) {
	seed := GenerateSeed()
	buckets := make([]float64, 16)
	for id := uint64(1); id <= 16*256; id++ {
		buckets[uint64(HashUint64(id, seed))%16]++
	}
	stats := NewDistributionStats(buckets)
	assert.Greater(t, stats.Min, 0.0, "sequential ids must reach every bucket")

	assert.Equal(t, HashUint64(42, 7), HashUint64(42, 7))
	assert.NotEqual(t, HashUint64(42, 7), HashUint64(43, 7))
}
