// Package memstore contains the in-memory [domain.Storage] implementation:
// collections of entries held in maps, iterated in insertion order.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/leoafarias/firekit-sub000/domain"
)

// Store implements [domain.Storage]. All operations complete synchronously;
// the mutex only guards against interleaved goroutine access, matching the
// single-writer cooperative model the engine targets.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	closed      bool
}

// collection keeps an id-keyed map plus a side list preserving insertion
// order, so List is deterministic and sort tie-breaks are testable.
type collection struct {
	entries map[string]*domain.StorageEntry
	order   []string
}

// NewStore returns a new in-memory implementation of [domain.Storage].
func NewStore() *Store {
	return &Store{
		collections: make(map[string]*collection),
	}
}

// Get implements [domain.Storage].
func (s *Store) Get(ctx context.Context, collectionName, id string) (*domain.StorageEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrClosed
	}
	coll, ok := s.collections[collectionName]
	if !ok {
		return nil, &domain.ErrNotFound{Collection: collectionName, ID: id}
	}
	entry, ok := coll.entries[id]
	if !ok {
		return nil, &domain.ErrNotFound{Collection: collectionName, ID: id}
	}
	return entry.Clone(), nil
}

// Set implements [domain.Storage].
func (s *Store) Set(ctx context.Context, collectionName, id string, entry *domain.StorageEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrClosed
	}
	coll, ok := s.collections[collectionName]
	if !ok {
		coll = &collection{entries: make(map[string]*domain.StorageEntry)}
		s.collections[collectionName] = coll
	}
	if _, exists := coll.entries[id]; !exists {
		coll.order = append(coll.order, id)
	}
	coll.entries[id] = entry.Clone()
	return nil
}

// Delete implements [domain.Storage].
func (s *Store) Delete(ctx context.Context, collectionName, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrClosed
	}
	coll, ok := s.collections[collectionName]
	if !ok {
		return nil
	}
	if _, exists := coll.entries[id]; !exists {
		return nil
	}
	delete(coll.entries, id)
	if idx := slices.Index(coll.order, id); idx >= 0 {
		coll.order = slices.Delete(coll.order, idx, idx+1)
	}
	return nil
}

// List implements [domain.Storage].
func (s *Store) List(ctx context.Context, collectionName string) ([]*domain.StorageEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrClosed
	}
	coll, ok := s.collections[collectionName]
	if !ok {
		return nil, nil
	}
	res := make([]*domain.StorageEntry, 0, len(coll.order))
	for _, id := range coll.order {
		res = append(res, coll.entries[id].Clone())
	}
	return res, nil
}

// Collections implements [domain.Storage].
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrClosed
	}
	res := make([]string, 0, len(s.collections))
	for name, coll := range s.collections {
		if len(coll.entries) > 0 {
			res = append(res, name)
		}
	}
	slices.Sort(res)
	return res, nil
}

// Close implements [domain.Storage].
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.collections = nil
	return nil
}
