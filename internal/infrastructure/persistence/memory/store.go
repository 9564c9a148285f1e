// Package memory provides an in-memory KeyValueStore used for tests and for
// ephemeral sessions (storage.driver=memory).
package memory

import (
	"context"
	"sync"

	"github.com/skillplay/skillplay-life/internal/domain/shared"
)

// Compile-time contract assertion.
var _ shared.KeyValueStore = (*Store)(nil)

// Store keeps values in a map. Values are copied on the way in and out.
type Store struct {
	mu       sync.RWMutex
	data     map[string][]byte
	failures map[string]error
	writes   int
	closed   bool
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		data:     make(map[string][]byte),
		failures: make(map[string]error),
	}
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, shared.ErrEmptyKey
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, shared.ErrClosed
	}
	v, ok := s.data[key]
	if !ok {
		return nil, shared.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return shared.ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return shared.ErrClosed
	}
	if err := s.failures[key]; err != nil {
		return err
	}
	s.data[key] = append([]byte(nil), value...)
	s.writes++
	return nil
}

// Delete removes keys. Missing keys are ignored.
func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return shared.ErrClosed
	}
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

// Close marks the store closed. Data is discarded.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.data = nil
	return nil
}

// FailWrites makes every Set on key return err. A nil err clears the failure.
func (s *Store) FailWrites(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failures, key)
		return
	}
	s.failures[key] = err
}

// Writes returns the number of successful Set calls.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Keys returns the number of stored keys.
func (s *Store) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
