package internal

import (
	"fmt"

	"github.com/ValentinKolb/pKV/lib/trie"
)

// --------------------------------------------------------------------------
// Event Types are used to signal changes in the database state
// --------------------------------------------------------------------------

type EventType int

const (
	EventTWrite  EventType = iota // an entry with a ttl was written
	EventTDelete                  // an entry was removed
	EventTPrune                   // a whole subtree was detached
)

func (e EventType) String() string {
	switch e {
	case EventTWrite:
		return "Write"
	case EventTDelete:
		return "Delete"
	case EventTPrune:
		return "Prune"
	default:
		return "Unknown"
	}
}

// Event is sent from writers to the garbage collector
type Event struct {
	Type   EventType
	Key    string             // Write and Delete
	Pruned *trie.Trie[*Entry] // Prune: the detached entries
}

func (e Event) String() string {
	if e.Type == EventTPrune {
		return fmt.Sprintf("Event{Type: %s}", e.Type)
	}
	return fmt.Sprintf("Event{Type: %s, Key: %q}", e.Type, e.Key)
}

// --------------------------------------------------------------------------
// Entry Type (value with metadata)
// --------------------------------------------------------------------------

// Entry stores a value with its metadata.
// Entries are never modified after they have been stored in the trie,
// every change stores a new entry.
type Entry struct {
	Value    []byte // Stored data
	ExpireAt uint64 // Expiration timestamp (0 = never)
	DeleteAt uint64 // Deletion timestamp (0 = never)
	Index    uint64 // Write index when this entry was created/updated
}

// NewEntry creates an entry written at writeIndex with relative expire and delete times
func NewEntry(value []byte, writeIndex, expireIn, deleteIn uint64) *Entry {
	e := &Entry{
		Value: value,
		Index: writeIndex,
	}
	if expireIn > 0 {
		e.ExpireAt = writeIndex + expireIn
	}
	if deleteIn > 0 {
		e.DeleteAt = writeIndex + deleteIn
	}
	return e
}

// TTLInfo returns whether the entry is expired and whether the entry is deleted (at the given write index)
func (e *Entry) TTLInfo(writeIdx uint64) (bool, bool) {
	var (
		isExpired = e.ExpireAt != 0 && writeIdx >= e.ExpireAt
		isDeleted = e.DeleteAt != 0 && writeIdx >= e.DeleteAt
	)

	return isExpired, isDeleted
}

// HasTTL reports whether the garbage collector has to track the entry
func (e *Entry) HasTTL() bool {
	return e.ExpireAt != 0 || e.DeleteAt != 0
}

// Expired returns a copy of e without value that counts as expired from writeIdx on
func (e *Entry) Expired(writeIdx uint64) *Entry {
	return &Entry{
		Value:    nil,
		ExpireAt: writeIdx,
		DeleteAt: e.DeleteAt,
		Index:    e.Index,
	}
}
