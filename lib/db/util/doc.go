// Package util provides helper components for the database engines of pKV.
//
// The package contains:
//   - functions: seeds and FNV-1a based hash functions (used to pick stripe locks)
//   - mapheap: a keyed priority queue used to schedule expiration and deletion
//   - statistics: a lock-free size histogram and distribution metrics reported by GetInfo
package util
