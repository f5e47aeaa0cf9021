// Package store persists the diet domain in Postgres (pgx) or SQLite
// (modernc.org/sqlite). Both backends share the SQL in sql.go.
package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lyleguay/fitlog/internal/config"
	"github.com/lyleguay/fitlog/internal/diet"
)

// DB is a diet.Store with lifecycle and schema management.
type DB interface {
	diet.Store
	Migrate(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ DB = (*Postgres)(nil)
	_ DB = (*SQLite)(nil)
)

// Open connects to the backend selected by cfg.StorageBackend.
func Open(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (DB, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		return OpenPostgres(ctx, cfg.DBURL, log)
	case config.BackendSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
