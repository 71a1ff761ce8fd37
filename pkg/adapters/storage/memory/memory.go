package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aescanero/dagsys/pkg/ports"
)

// InMemoryStore implements KeyValueStore using an in-memory map
type InMemoryStore struct {
	records map[string]ports.Record
	mu      sync.RWMutex
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]ports.Record),
	}
}

// Put stores rec under rec.Key, replacing any previous value
func (s *InMemoryStore) Put(ctx context.Context, rec ports.Record) error {
	if rec.Key == "" {
		return fmt.Errorf("key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.Key] = rec
	return nil
}

// Get retrieves the record stored under key
func (s *InMemoryStore) Get(ctx context.Context, key string) (ports.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return ports.Record{}, fmt.Errorf("%w: %s", ports.ErrNotFound, key)
	}
	return rec, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *InMemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// List returns all stored keys in lexical order
func (s *InMemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op for the in-memory store
func (s *InMemoryStore) Close() error {
	return nil
}
