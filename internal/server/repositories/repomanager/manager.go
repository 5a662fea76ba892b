// Package repomanager opens the configured store, prepares it (schema
// migrations or index rebuild) and vends the repositories bound to it.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/scorekeeper/internal/logging"
	"github.com/dmitrijs2005/scorekeeper/internal/server/config"
	"github.com/dmitrijs2005/scorekeeper/internal/server/repositories/users"
)

// RepositoryManager owns the store connection.
type RepositoryManager interface {
	// RunMigrations brings the store up to date before the server accepts
	// requests.
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the backend selected by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config, logger logging.Logger) (RepositoryManager, error) {
	switch cfg.StoreBackend {
	case config.BackendRedis:
		return OpenRedis(ctx, cfg, logger)
	case config.BackendPostgres:
		return OpenPostgres(ctx, cfg.DatabaseDSN, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
