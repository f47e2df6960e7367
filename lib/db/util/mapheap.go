// Package util
//
// This file provides a keyed priority queue used by the garbage collector of
// the radix engine to track when entries expire or have to be deleted.
//
// A binary heap ordered by priority (a logical write index) is combined with
// a map from key to heap item, so an entry can be rescheduled or dropped by
// its key without scanning the heap:
//   - O(log n) for AddItem (insert or reschedule) and RemoveByKey
//   - O(1) for Peek, Contains and GetByKey
//
// The heap is not thread-safe. The garbage collector owns its heaps and is
// the only goroutine touching them.
//
// Example usage:
//
//	expire := NewMapHeap[string]()
//	expire.AddItem("user:42", 17)
//
//	for {
//		item, ok := expire.Peek()
//		if !ok || item.Priority > now {
//			break
//		}
//		// handle item.Key
//		expire.RemoveByKey(item.Key)
//	}
package util

import (
	"container/heap"
	"fmt"
)

// HeapItem is a key scheduled at a priority
type HeapItem[K comparable] struct {
	Key      K      // Identifier of the item
	Priority uint64 // Smaller priorities come first
	index    int    // Position in the heap, maintained by the heap package
}

func (i *HeapItem[K]) String() string {
	return fmt.Sprintf("{Key: %v, Priority: %d}", i.Key, i.Priority)
}

// MapHeap is a min-heap of keys by priority with key-based access
type MapHeap[K comparable] struct {
	items    []*HeapItem[K]
	itemsMap map[K]*HeapItem[K]
}

// NewMapHeap creates an empty heap
func NewMapHeap[K comparable]() *MapHeap[K] {
	return &MapHeap[K]{
		items:    make([]*HeapItem[K], 0),
		itemsMap: make(map[K]*HeapItem[K]),
	}
}

// Len returns the number of scheduled keys (heap.Interface)
func (h *MapHeap[K]) Len() int { return len(h.items) }

// Less orders by priority (heap.Interface)
func (h *MapHeap[K]) Less(i, j int) bool {
	return h.items[i].Priority < h.items[j].Priority
}

// Swap exchanges two items (heap.Interface)
func (h *MapHeap[K]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

// Push appends an item (heap.Interface, use AddItem instead)
func (h *MapHeap[K]) Push(x any) {
	it := x.(*HeapItem[K])
	it.index = len(h.items)
	h.items = append(h.items, it)
	h.itemsMap[it.Key] = it
}

// Pop removes the last item (heap.Interface, use RemoveByKey instead)
func (h *MapHeap[K]) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	h.items = old[:n-1]
	delete(h.itemsMap, it.Key)
	return it
}

// AddItem schedules key at priority, or reschedules it if already present
func (h *MapHeap[K]) AddItem(key K, priority uint64) {
	if it, ok := h.itemsMap[key]; ok {
		it.Priority = priority
		heap.Fix(h, it.index)
		return
	}
	heap.Push(h, &HeapItem[K]{Key: key, Priority: priority})
}

// RemoveByKey unschedules key and returns its priority
func (h *MapHeap[K]) RemoveByKey(key K) (uint64, bool) {
	it, ok := h.itemsMap[key]
	if !ok {
		return 0, false
	}
	heap.Remove(h, it.index)
	return it.Priority, true
}

// Peek returns the item with the smallest priority without removing it
func (h *MapHeap[K]) Peek() (*HeapItem[K], bool) {
	if len(h.items) == 0 {
		return nil, false
	}
	return h.items[0], true
}

// Contains reports whether key is scheduled
func (h *MapHeap[K]) Contains(key K) bool {
	_, ok := h.itemsMap[key]
	return ok
}

// GetByKey returns the item of key without removing it
func (h *MapHeap[K]) GetByKey(key K) (*HeapItem[K], bool) {
	it, ok := h.itemsMap[key]
	return it, ok
}
