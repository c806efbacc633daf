// Package storetest holds the behaviour every storage.RouteStore must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance/internal/storage"
)

// Run exercises s against the RouteStore contract. s must start empty.
func Run(t *testing.T, s storage.RouteStore) {
	t.Helper()
	ctx := context.Background()

	_, err := s.GetRoute(ctx, "finance.route:accounts:http://api")
	require.ErrorIs(t, err, storage.ErrRouteNotFound)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveRoute(ctx, storage.RouteEntry{
		StorageKey: "finance.route:accounts:http://api",
		Path:       "/contas",
		ResolvedAt: at,
	}))
	got, err := s.GetRoute(ctx, "finance.route:accounts:http://api")
	require.NoError(t, err)
	assert.Equal(t, "/contas", got.Path)
	assert.True(t, at.Equal(got.ResolvedAt), "resolved_at %v != %v", got.ResolvedAt, at)

	// Upsert replaces the path.
	require.NoError(t, s.SaveRoute(ctx, storage.RouteEntry{
		StorageKey: "finance.route:accounts:http://api",
		Path:       "/api/accounts",
		ResolvedAt: at.Add(time.Hour),
	}))
	got, err = s.GetRoute(ctx, "finance.route:accounts:http://api")
	require.NoError(t, err)
	assert.Equal(t, "/api/accounts", got.Path)

	// Missing ResolvedAt is stamped.
	require.NoError(t, s.SaveRoute(ctx, storage.RouteEntry{
		StorageKey: "finance.route:plans:http://api",
		Path:       "/planos",
	}))
	got, err = s.GetRoute(ctx, "finance.route:plans:http://api")
	require.NoError(t, err)
	assert.False(t, got.ResolvedAt.IsZero())

	require.NoError(t, s.SaveRoute(ctx, storage.RouteEntry{
		StorageKey: "other:key",
		Path:       "/x",
		ResolvedAt: at,
	}))

	list, err := s.ListRoutes(ctx, "finance.route:")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "finance.route:accounts:http://api", list[0].StorageKey)
	assert.Equal(t, "finance.route:plans:http://api", list[1].StorageKey)

	all, err := s.ListRoutes(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.DeleteRoute(ctx, "finance.route:accounts:http://api"))
	require.NoError(t, s.DeleteRoute(ctx, "finance.route:accounts:http://api"))
	_, err = s.GetRoute(ctx, "finance.route:accounts:http://api")
	require.ErrorIs(t, err, storage.ErrRouteNotFound)
}
