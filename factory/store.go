package factory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pooldex/swapd/config"
	"github.com/pooldex/swapd/pair"
)

// Store is the pair registry keyed by the sorted concatenation of the
// two raw asset keys. Range walks entries in key order.
type Store interface {
	Get(key string) (*pair.Info, error)
	Put(key string, info *pair.Info) error
	Range(startAfter string, limit int) ([]*pair.Info, error)
}

type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*pair.Info
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*pair.Info)}
}

func (s *MemoryStore) Get(key string) (*pair.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	c := *info
	return &c, nil
}

func (s *MemoryStore) Put(key string, info *pair.Info) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *info
	s.entries[key] = &c
	return nil
}

func (s *MemoryStore) Range(startAfter string, limit int) ([]*pair.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		if startAfter == "" || k > startAfter {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}
	infos := make([]*pair.Info, 0, len(keys))
	for _, k := range keys {
		c := *s.entries[k]
		infos = append(infos, &c)
	}
	return infos, nil
}

func clampLimit(limit *int) int {
	if limit == nil || *limit <= 0 {
		return config.DefaultListLimit
	}
	if *limit > config.MaxListLimit {
		return config.MaxListLimit
	}
	return *limit
}
