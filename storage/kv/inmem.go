// Package kvstore provides core.KVStore implementations: an in-memory
// store for tests and local development, and a Redis-backed store.
package kvstore

import (
	"context"
	"sync"

	"github.com/darasahq/darasa/core"
)

type inMemStore struct {
	sync.RWMutex
	table map[string]string
}

var _ core.KVStore = (*inMemStore)(nil) // interface compliance check

// NewInMem returns a process-local, map-backed KVStore.
func NewInMem() core.KVStore {
	return &inMemStore{table: make(map[string]string)}
}

func (s *inMemStore) Get(_ context.Context, key string) (string, error) {
	s.RLock()
	defer s.RUnlock()

	if val, ok := s.table[key]; ok {
		return val, nil
	}
	return "", core.ErrKeyNotFound
}

func (s *inMemStore) Set(_ context.Context, key, value string) error {
	s.Lock()
	defer s.Unlock()

	s.table[key] = value
	return nil
}

func (s *inMemStore) Delete(_ context.Context, key string) error {
	s.Lock()
	defer s.Unlock()

	delete(s.table, key)
	return nil
}
