// Package backend selects and opens the persistence store.
package backend

import (
	"context"
	"fmt"

	applog "propledger/internal/log"
	"propledger/internal/storage"
	"propledger/internal/storage/memory"
)

// Factory opens stores and logs which one it picked.
type Factory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) *Factory {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &Factory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// Open validates cfg and opens the store it names. The SQLite store runs
// its migrations before Open returns.
func (f *Factory) Open(ctx context.Context, cfg Config) (*Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		f.logger.InfoContext(ctx, "Opened SQLite store", "db_path", cfg.SQLiteDBPath, "schema_version", repo.SchemaVersion())
		return &Handle{Store: repo, Close: repo.Close}, nil
	case Memory:
		store := memory.New()
		f.logger.InfoContext(ctx, "Opened memory store")
		return &Handle{Store: store, Close: store.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported backend %s", cfg.Type)
	}
}
