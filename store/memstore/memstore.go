// Package memstore provides an in-memory record store for tests and
// single-process deployments. Records are copied on the way in and out so
// callers can never mutate stored state through a shared pointer.
package memstore

import (
	"context"
	"strconv"
	"sync"

	"github.com/bitmast/sessiongate"
)

// Store is an in-memory implementation of sessiongate.Store.
type Store struct {
	mu      sync.RWMutex
	records map[string]*sessiongate.Record
	rev     uint64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		records: make(map[string]*sessiongate.Record),
	}
}

var _ sessiongate.Store = (*Store)(nil)

// Get returns a copy of the record at key, or a not-found error.
func (s *Store) Get(ctx context.Context, key string) (*sessiongate.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[key]
	if !ok {
		return nil, sessiongate.ErrRecordNotFound.Clone().WithMetadata(map[string]any{
			"key": key,
		})
	}

	clone := *record
	return &clone, nil
}

// Insert creates or replaces the record at its key, advancing its revision.
func (s *Store) Insert(ctx context.Context, record *sessiongate.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rev++
	clone := *record
	clone.Rev = strconv.FormatUint(s.rev, 10)
	s.records[record.Key] = &clone

	return nil
}

// Len reports how many records the store holds.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Delete removes the record at key if present.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
}
