// Package postgres provides a pgx-backed RouteStore, for deployments where
// several processes should share one set of resolved routes.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finance/internal/storage"
)

const schema = `
create table if not exists resolved_routes (
    storage_key text primary key,
    path        text not null,
    resolved_at timestamptz not null
)`

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.RouteStore = (*Store)(nil)

// Open establishes a pgx pool using the provided connection string and makes
// sure the table exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the resolved_routes table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) GetRoute(ctx context.Context, storageKey string) (storage.RouteEntry, error) {
	e := storage.RouteEntry{StorageKey: storageKey}
	err := s.pool.QueryRow(ctx,
		`select path, resolved_at from resolved_routes where storage_key = $1`, storageKey,
	).Scan(&e.Path, &e.ResolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.RouteEntry{}, storage.ErrRouteNotFound
	}
	if err != nil {
		return storage.RouteEntry{}, fmt.Errorf("get route %s: %w", storageKey, err)
	}
	e.ResolvedAt = e.ResolvedAt.UTC()
	return e, nil
}

func (s *Store) SaveRoute(ctx context.Context, entry storage.RouteEntry) error {
	if entry.ResolvedAt.IsZero() {
		entry.ResolvedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		insert into resolved_routes (storage_key, path, resolved_at)
		values ($1, $2, $3)
		on conflict (storage_key) do update set path = excluded.path, resolved_at = excluded.resolved_at`,
		entry.StorageKey, entry.Path, entry.ResolvedAt)
	if err != nil {
		return fmt.Errorf("save route %s: %w", entry.StorageKey, err)
	}
	return nil
}

func (s *Store) DeleteRoute(ctx context.Context, storageKey string) error {
	if _, err := s.pool.Exec(ctx, `delete from resolved_routes where storage_key = $1`, storageKey); err != nil {
		return fmt.Errorf("delete route %s: %w", storageKey, err)
	}
	return nil
}

func (s *Store) ListRoutes(ctx context.Context, prefix string) ([]storage.RouteEntry, error) {
	rows, err := s.pool.Query(ctx, `
		select storage_key, path, resolved_at from resolved_routes
		where left(storage_key, length($1)) = $1
		order by storage_key`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()

	var out []storage.RouteEntry
	for rows.Next() {
		var e storage.RouteEntry
		if err := rows.Scan(&e.StorageKey, &e.Path, &e.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		e.ResolvedAt = e.ResolvedAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routes: %w", err)
	}
	return out, nil
}
