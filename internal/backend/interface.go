// Package backend builds the route store and the resolution notifier chosen
// by configuration.
package backend

import (
	"context"

	"finance/internal/resolver"
	"finance/internal/storage"
)

// CleanupFunc releases resources held by a backend
type CleanupFunc func() error

// Result holds the built components. Notifier is nil when AMQP is disabled.
type Result struct {
	Store    storage.RouteStore
	Notifier resolver.Notifier
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type StoreType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Optional resolution events
	AMQPURL      string
	AMQPExchange string
}

// StoreType selects where resolved routes are persisted
type StoreType string

const (
	MemoryStore   StoreType = "memory"
	SQLiteStore   StoreType = "sqlite"
	PostgresStore StoreType = "postgres"
)

// String implements fmt.Stringer
func (st StoreType) String() string {
	return string(st)
}

// IsValid returns true if the store type is valid
func (st StoreType) IsValid() bool {
	switch st {
	case MemoryStore, SQLiteStore, PostgresStore:
		return true
	default:
		return false
	}
}
