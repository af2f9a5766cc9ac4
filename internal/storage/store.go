// Package storage persists named records: the server-side counterpart of a
// browser's local key-value storage. Each record is an opaque byte value
// written and read wholesale.
package storage

import (
	"context"
	"fmt"
	"sync"
)

// KeyValue reads and writes whole records by key.
type KeyValue interface {
	// Get returns the record under key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set replaces the record under key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the record under key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// HealthChecker is implemented by backends that depend on a remote service.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// MemoryKV is an in-memory implementation of KeyValue.
type MemoryKV struct {
	records map[string][]byte
	writes  int
	mu      sync.RWMutex
}

// NewMemoryKV creates an empty in-memory record store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		records: make(map[string][]byte),
	}
}

func (s *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.records[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("record key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = append([]byte(nil), value...)
	s.writes++
	return nil
}

func (s *MemoryKV) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// Writes returns how many Set calls succeeded.
func (s *MemoryKV) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
