package di

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/fundamentals/internal/config"
	"github.com/aristath/fundamentals/internal/database"
)

// InitializeDatabases opens the cache database and applies its schema.
// Statement data lives in memory; only recomputable batches and market
// snapshots are persisted.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	if err := cacheDB.Migrate(); err != nil {
		cacheDB.Close()
		return nil, fmt.Errorf("failed to migrate cache database: %w", err)
	}

	log.Info().Str("path", cacheDB.Path()).Msg("Cache database initialized")
	return &Container{CacheDB: cacheDB}, nil
}
