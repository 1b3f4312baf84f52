package blob

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/lueurxax/faculty-research-sync/internal/core/errors"
)

// MemoryStore keeps objects in a map. It is used by tests and dry runs.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Driver() string { return DriverMemory }

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, ok := s.objects[k]
	s.mu.RUnlock()

	if !ok {
		record(DriverMemory, opGet, statusNotFound)

		return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, key)
	}

	record(DriverMemory, opGet, statusSuccess)

	return append([]byte(nil), data...), nil
}

func (s *MemoryStore) Put(_ context.Context, key string, data []byte) error {
	k, err := sanitizeKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.objects[k] = append([]byte(nil), data...)
	s.mu.Unlock()

	record(DriverMemory, opPut, statusSuccess)

	return nil
}

func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return false, err
	}

	s.mu.RLock()
	_, ok := s.objects[k]
	s.mu.RUnlock()

	record(DriverMemory, opExists, statusSuccess)

	return ok, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
