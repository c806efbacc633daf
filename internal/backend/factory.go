package backend

import (
	"context"
	"errors"
	"fmt"

	"finance/internal/amqp"
	"finance/internal/log"
	"finance/internal/storage"
	"finance/internal/storage/memory"
	"finance/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend. An unreachable AMQP broker
// is logged and the backend is returned without a notifier.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		store storage.RouteStore
		err   error
	)
	switch config.Type {
	case SQLiteStore:
		store, err = f.createSQLiteStore(config)
	case PostgresStore:
		store, err = f.createPostgresStore(ctx, config)
	case MemoryStore:
		store = memory.New()
		f.logger.InfoContext(ctx, "Initialized memory route store")
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{Store: store, Cleanup: store.Close}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, f.logger)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without route events",
				log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange)
			result.Notifier = client
			result.Cleanup = func() error {
				return errors.Join(client.Close(), store.Close())
			}
		}
	}

	return result, nil
}

func (f *DefaultFactory) createSQLiteStore(config Config) (storage.RouteStore, error) {
	store, err := storage.NewSQLiteRouteStore(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite route store: %w", err)
	}
	f.logger.Info("Initialized SQLite route store", "db_path", config.SQLiteDBPath)
	return store, nil
}

func (f *DefaultFactory) createPostgresStore(ctx context.Context, config Config) (storage.RouteStore, error) {
	store, err := postgres.Open(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres route store: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized Postgres route store")
	return store, nil
}
