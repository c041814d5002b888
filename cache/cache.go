// Package cache holds resolved geocodes keyed by the full query string.
// Entries never expire and only successful lookups are stored.
package cache

import (
	"context"
	"sync"

	"taxi-analytics/models"
)

// Store is an append-only key -> coordinates map. Writers racing on the same
// key are harmless because the value for a key is deterministic.
type Store interface {
	Get(ctx context.Context, key string) (models.Coordinates, bool, error)
	Set(ctx context.Context, key string, c models.Coordinates) error
}

// MemoryStore is the default process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.Coordinates
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]models.Coordinates)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (models.Coordinates, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.entries[key]
	return c, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, c models.Coordinates) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = c
	return nil
}

// Len returns the number of cached entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
