// Package memory provides an in-process RouteStore. It forgets everything on
// restart and doubles as the store used in tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"finance/internal/storage"
)

type Store struct {
	mu     sync.Mutex
	routes map[string]storage.RouteEntry
}

var _ storage.RouteStore = (*Store)(nil)

func New() *Store {
	return &Store{routes: make(map[string]storage.RouteEntry)}
}

// GetRoute returns the stored entry or storage.ErrRouteNotFound.
func (s *Store) GetRoute(_ context.Context, storageKey string) (storage.RouteEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.routes[storageKey]
	if !ok {
		return storage.RouteEntry{}, storage.ErrRouteNotFound
	}
	return e, nil
}

// SaveRoute stores entry, stamping ResolvedAt when unset.
func (s *Store) SaveRoute(_ context.Context, entry storage.RouteEntry) error {
	if entry.ResolvedAt.IsZero() {
		entry.ResolvedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[entry.StorageKey] = entry
	return nil
}

func (s *Store) DeleteRoute(_ context.Context, storageKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.routes, storageKey)
	return nil
}

func (s *Store) ListRoutes(_ context.Context, prefix string) ([]storage.RouteEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storage.RouteEntry, 0, len(s.routes))
	for k, e := range s.routes {
		if strings.HasPrefix(k, prefix) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StorageKey < out[j].StorageKey })
	return out, nil
}

func (s *Store) Close() error { return nil }
