package backend

import (
	"fmt"

	"finance/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	storeType := StoreType(appConfig.RouteStore)
	if !storeType.IsValid() {
		return Config{}, fmt.Errorf("invalid route store in config: %s", appConfig.RouteStore)
	}

	return Config{
		Type:         storeType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		DatabaseURL:  appConfig.DatabaseURL,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid store type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteStore:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite store")
		}
	case PostgresStore:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database URL is required for postgres store")
		}
	case MemoryStore:
		// nothing to check
	}

	// AMQP is optional; the exchange name only matters when it is enabled.
	if c.AMQPURL != "" && c.AMQPExchange == "" {
		return fmt.Errorf("AMQP exchange is required when AMQP URL is set")
	}
	return nil
}

// GetStoreTypes returns all valid store types
func GetStoreTypes() []StoreType {
	return []StoreType{MemoryStore, SQLiteStore, PostgresStore}
}

// GetStoreTypeStrings returns all valid store type strings
func GetStoreTypeStrings() []string {
	types := GetStoreTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
