package util

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// --------------------------------------------------------------------------
// General Utility Functions
// --------------------------------------------------------------------------

// GenerateSeed creates a random seed for internal hash distribution
func GenerateSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// only if the system random source is unavailable
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// --------------------------------------------------------------------------
// Hash Functions
// --------------------------------------------------------------------------

// UintKey is a hash value used to spread items over a fixed number of slots
type UintKey uint64

// FNV-1a parameters
const (
	offset64 = 14695981039346656037
	prime64  = 1099511628211
)

// HashUint64 hashes the eight bytes of v (little endian) with FNV-1a and a seed.
// Sequential ids (counters) end up well spread over the result space.
func HashUint64(v uint64, seed uint64) UintKey {
	hash := uint64(offset64) ^ seed

	for i := 0; i < 8; i++ {
		hash ^= v & 0xff
		hash *= prime64
		v >>= 8
	}

	return UintKey(hash)
}
