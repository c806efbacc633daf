package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"finance/internal/log"
)

// SQLiteRouteStore keeps resolved routes in a local SQLite file.
type SQLiteRouteStore struct {
	db *sql.DB
}

var _ RouteStore = (*SQLiteRouteStore)(nil)

// NewSQLiteRouteStore opens (creating if needed) the database at dbPath and
// applies the embedded migrations.
func NewSQLiteRouteStore(dbPath string) (*SQLiteRouteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRouteStore{db: db}, nil
}

func (s *SQLiteRouteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetRoute implements RouteStore
func (s *SQLiteRouteStore) GetRoute(ctx context.Context, storageKey string) (RouteEntry, error) {
	var (
		path       string
		resolvedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT path, resolved_at FROM resolved_routes WHERE storage_key = ?`, storageKey,
	).Scan(&path, &resolvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return RouteEntry{}, ErrRouteNotFound
	}
	if err != nil {
		return RouteEntry{}, fmt.Errorf("get route %s: %w", storageKey, err)
	}
	return RouteEntry{
		StorageKey: storageKey,
		Path:       path,
		ResolvedAt: time.UnixMilli(resolvedAt).UTC(),
	}, nil
}

// SaveRoute implements RouteStore
func (s *SQLiteRouteStore) SaveRoute(ctx context.Context, entry RouteEntry) error {
	if entry.ResolvedAt.IsZero() {
		entry.ResolvedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resolved_routes (storage_key, path, resolved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(storage_key) DO UPDATE SET
			path = excluded.path,
			resolved_at = excluded.resolved_at`,
		entry.StorageKey, entry.Path, entry.ResolvedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save route %s: %w", entry.StorageKey, err)
	}

	log.FromContext(ctx).WithComponent(log.ComponentStorage).DebugContext(ctx, "Route saved",
		log.FieldStore, "sqlite",
		"storage_key", entry.StorageKey,
		log.FieldPath, entry.Path)
	return nil
}

// DeleteRoute implements RouteStore
func (s *SQLiteRouteStore) DeleteRoute(ctx context.Context, storageKey string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM resolved_routes WHERE storage_key = ?`, storageKey); err != nil {
		return fmt.Errorf("delete route %s: %w", storageKey, err)
	}
	return nil
}

// ListRoutes implements RouteStore
func (s *SQLiteRouteStore) ListRoutes(ctx context.Context, prefix string) ([]RouteEntry, error) {
	query := `SELECT storage_key, path, resolved_at FROM resolved_routes`
	var args []any
	if prefix != "" {
		query += ` WHERE storage_key >= ?`
		args = append(args, prefix)
		if upper, ok := prefixUpperBound(prefix); ok {
			query += ` AND storage_key < ?`
			args = append(args, upper)
		}
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY storage_key`, args...)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()

	var out []RouteEntry
	for rows.Next() {
		var (
			e          RouteEntry
			resolvedAt int64
		)
		if err := rows.Scan(&e.StorageKey, &e.Path, &resolvedAt); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		e.ResolvedAt = time.UnixMilli(resolvedAt).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate routes: %w", err)
	}
	return out, nil
}

// prefixUpperBound returns the smallest string greater than every string
// starting with prefix, under byte-wise comparison. ok is false when prefix
// is all 0xff bytes and there is no such bound.
func prefixUpperBound(prefix string) (string, bool) {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1]), true
		}
	}
	return "", false
}
