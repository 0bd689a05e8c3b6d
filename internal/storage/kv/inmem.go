package kv

import (
	"context"
	"sync"

	"LearnLoom/internal/app_errors"
)

// InMem is a map-backed Store for tests and single-process runs.
type InMem struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewInMem() *InMem {
	return &InMem{data: make(map[string][]byte)}
}

func (s *InMem) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, app_errors.ErrKeyNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (s *InMem) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[key] = cp
	return nil
}

func (s *InMem) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
