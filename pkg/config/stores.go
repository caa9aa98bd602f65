package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marmos91/gridstore/internal/logger"
	"github.com/marmos91/gridstore/pkg/docstore"
	"github.com/marmos91/gridstore/pkg/docstore/badger"
	"github.com/marmos91/gridstore/pkg/docstore/memory"
	"github.com/marmos91/gridstore/pkg/docstore/mongo"
	"github.com/marmos91/gridstore/pkg/docstore/sql"
)

// OpenStore creates a document store instance from configuration.
//
// The caller owns the returned store and must Close it on shutdown.
func OpenStore(ctx context.Context, cfg StoreConfig) (docstore.Store, error) {
	logger.Info("opening document store",
		logger.KeyStoreType, string(cfg.Type))

	switch cfg.Type {
	case StoreTypeMemory:
		return memory.New(), nil

	case StoreTypeMongo:
		store, err := mongo.Connect(ctx, cfg.URI, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to mongodb: %w", err)
		}
		return store, nil

	case StoreTypeBadger:
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("create badger directory: %w", err)
		}
		store, err := badger.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return store, nil

	case StoreTypeSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		store, err := sql.Open(sql.Config{Type: sql.DatabaseSQLite, DSN: cfg.Path})
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil

	case StoreTypePostgres:
		store, err := sql.Open(sql.Config{Type: sql.DatabasePostgres, DSN: cfg.DSN})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store type: %q", cfg.Type)
	}
}
