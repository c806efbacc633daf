// Package storage persists resolved routes so a resolution survives process
// restarts. Entries are keyed by the resolver storage key, which already
// combines the route key and the base URL.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrRouteNotFound is returned by GetRoute when no entry exists.
var ErrRouteNotFound = errors.New("route not found")

// RouteEntry is one persisted resolution.
type RouteEntry struct {
	StorageKey string
	Path       string
	ResolvedAt time.Time
}

// RouteStore is the persistent side of the resolver cache.
type RouteStore interface {
	// GetRoute returns the entry for storageKey or ErrRouteNotFound.
	GetRoute(ctx context.Context, storageKey string) (RouteEntry, error)
	// SaveRoute inserts or replaces an entry.
	SaveRoute(ctx context.Context, entry RouteEntry) error
	// DeleteRoute removes an entry; deleting a missing entry is not an error.
	DeleteRoute(ctx context.Context, storageKey string) error
	// ListRoutes returns entries whose key starts with prefix, sorted by key.
	ListRoutes(ctx context.Context, prefix string) ([]RouteEntry, error)
	Close() error
}
