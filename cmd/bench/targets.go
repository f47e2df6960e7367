package bench

import (
	"fmt"

	"github.com/ValentinKolb/pKV/cmd/util"
	"github.com/ValentinKolb/pKV/lib/store"
	"github.com/ValentinKolb/pKV/lib/trie"
)

// target is the structure under test
type target interface {
	set(key string, value []byte) error
	get(key string) error
	getOrAdd(key string, value []byte) error
	remove(key string) error
	search(prefix string) (int, error)
	prune(prefix string) error
	close() error
}

func newTarget(name string) (target, error) {
	switch name {
	case "trie":
		return &trieTarget{t: trie.New[[]byte](util.GetTrieOptions())}, nil
	case "db":
		return &storeTarget{s: util.NewStore()}, nil
	default:
		return nil, fmt.Errorf("invalid target %s (trie, db)", name)
	}
}

// --------------------------------------------------------------------------
// Radix Tree
// --------------------------------------------------------------------------

type trieTarget struct {
	t *trie.Trie[[]byte]
}

func (t *trieTarget) set(key string, value []byte) error {
	return t.t.Set(key, value)
}

func (t *trieTarget) get(key string) error {
	_, _ = t.t.Get(key)
	return nil
}

func (t *trieTarget) getOrAdd(key string, value []byte) error {
	_, err := t.t.GetOrAdd(key, value)
	return err
}

func (t *trieTarget) remove(key string) error {
	return t.t.Remove(key)
}

func (t *trieTarget) search(prefix string) (int, error) {
	n := 0
	for range t.t.Search(prefix) {
		n++
	}
	return n, nil
}

func (t *trieTarget) prune(prefix string) error {
	_, _, err := t.t.Prune(prefix)
	return err
}

func (t *trieTarget) close() error {
	t.t.Clear()
	return nil
}

// --------------------------------------------------------------------------
// Store (radix database with gc and write index)
// --------------------------------------------------------------------------

type storeTarget struct {
	s store.IStore
}

func (s *storeTarget) set(key string, value []byte) error {
	return s.s.Set(key, value)
}

func (s *storeTarget) get(key string) error {
	_, _, err := s.s.Get(key)
	return err
}

func (s *storeTarget) getOrAdd(key string, value []byte) error {
	if err := s.s.SetEIfUnset(key, value, 0, 0); err != nil {
		return err
	}
	_, _, err := s.s.Get(key)
	return err
}

func (s *storeTarget) remove(key string) error {
	return s.s.Delete(key)
}

func (s *storeTarget) search(prefix string) (int, error) {
	entries, err := s.s.Scan(prefix, 0)
	return len(entries), err
}

func (s *storeTarget) prune(prefix string) error {
	_, err := s.s.DeletePrefix(prefix)
	return err
}

func (s *storeTarget) close() error {
	return s.s.Close()
}
