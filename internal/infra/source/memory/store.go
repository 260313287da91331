// Package memory provides an in-process element source.
package memory

import (
	"context"
	"sync"

	"gtasync/internal/source/core"
	"gtasync/pkg/domain"
)

// Store keeps elements in a map. Records are cloned on the way in and out.
type Store struct {
	mu       sync.RWMutex
	elements map[int64]domain.Element
}

// New returns a store seeded with elements.
func New(elements ...domain.Element) *Store {
	s := &Store{elements: make(map[int64]domain.Element, len(elements))}
	for _, e := range elements {
		s.elements[e.ID] = domain.CloneElement(e)
	}
	return s
}

// Put stores e, replacing any element with the same id.
func (s *Store) Put(e domain.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[e.ID] = domain.CloneElement(e)
}

// FetchElement implements core.Fetcher.
func (s *Store) FetchElement(ctx context.Context, id int64) (domain.Element, error) {
	if err := ctx.Err(); err != nil {
		return domain.Element{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.elements[id]
	if !ok {
		return domain.Element{}, core.NotFound(id)
	}
	return domain.CloneElement(e), nil
}

// Driver implements core.Fetcher.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Close implements core.Fetcher.
func (s *Store) Close() error { return nil }
