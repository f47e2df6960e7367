package radix

import (
	"fmt"
	"runtime"
	"time"

	"github.com/ValentinKolb/pKV/lib/db/engines/radix/internal"
)

// --------------------------------------------------------------------------
// Garbage Collection
// --------------------------------------------------------------------------

// push hands an event to the garbage collector. If the queue is full the gc
// is woken up and the caller waits until there is room again. Events are
// dropped once the gc has been stopped.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *radixImpl) push(ev internal.Event) {
	for !r.events.TryEnqueue(ev) {
		if !r.gcIsRunning.Load() {
			return
		}
		select {
		case r.kick <- struct{}{}:
		default:
		}
		runtime.Gosched()
	}
}

// startGC starts the garbage collector
// if the GC is already running, this function does nothing
func (r *radixImpl) startGC() {
	if r.gcIsRunning.CompareAndSwap(false, true) {
		go r.garbageCollector()
	}
}

// stopGC stops the garbage collector and waits until it has exited.
// The gc can't be started again after it has been stopped!
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (r *radixImpl) stopGC() {
	if r.gcIsRunning.CompareAndSwap(true, false) {
		close(r.gcStop)
		<-r.gcDone
	}
}

// garbageCollector is the main garbage collection loop
// WARNING: this method should never be called directly! Use startGC() and stopGC()
func (r *radixImpl) garbageCollector() {
	defer close(r.gcDone)

	ticker := time.NewTicker(r.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.gcStop:
			return
		case <-r.kick:
			r.drainEvents()
		case <-ticker.C:
			r.drainEvents()
			r.collect(r.currIndex.Load())
		}
	}
}

// drainEvents moves all queued events into the heaps
func (r *radixImpl) drainEvents() {
	for {
		event, ok := r.events.TryDequeue()
		if !ok {
			break
		}

		switch event.Type {
		case internal.EventTWrite:
			entry, ok := r.data.Get(event.Key)
			if !ok {
				continue
			}
			if entry.ExpireAt != 0 {
				r.expireHeap.AddItem(event.Key, entry.ExpireAt)
			}
			if entry.DeleteAt != 0 {
				r.deleteHeap.AddItem(event.Key, entry.DeleteAt)
			}

		case internal.EventTDelete:
			r.untrack(event.Key)

		case internal.EventTPrune:
			// keys written again after the prune are still tracked
			for key := range event.Pruned.Keys() {
				if !r.data.Has(key) {
					r.untrack(key)
				}
			}

		default:
			panic(fmt.Sprintf("unknown event %s", event))
		}
	}

	r.publishBacklog()
}

// untrack removes key from both heaps
func (r *radixImpl) untrack(key string) {
	r.expireHeap.RemoveByKey(key)
	r.deleteHeap.RemoveByKey(key)
}

func (r *radixImpl) publishBacklog() {
	r.scheduledExpire.Store(int64(r.expireHeap.Len()))
	r.scheduledDelete.Store(int64(r.deleteHeap.Len()))
}

// collect frees the values of expired entries and removes deleted entries.
//
// writeIndex is read once per cycle so that a concurrently advancing index
// can not keep the loops below running forever.
func (r *radixImpl) collect(writeIndex uint64) {

	// expire entries
	for {
		item, exists := r.expireHeap.Peek()
		if !exists || item.Priority > writeIndex {
			break
		}

		_, _ = r.data.Update(item.Key, func(e *internal.Entry) *internal.Entry {
			// the entry could have been updated in the meantime
			if isExpired, _ := e.TTLInfo(writeIndex); !isExpired || e.Value == nil {
				return e
			}
			return e.Expired(e.ExpireAt)
		})

		// updated entries are rescheduled by their own write event
		r.expireHeap.RemoveByKey(item.Key)
	}

	// delete entries
	for {
		item, exists := r.deleteHeap.Peek()
		if !exists || item.Priority > writeIndex {
			break
		}

		_, _ = r.data.RemoveFunc(item.Key, func(e *internal.Entry) bool {
			_, isDeleted := e.TTLInfo(writeIndex)
			return isDeleted
		})

		r.untrack(item.Key)
	}

	r.publishBacklog()
}
