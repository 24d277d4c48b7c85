package di

import (
	"github.com/aristath/fundamentals/internal/clientdata"
	"github.com/aristath/fundamentals/internal/database"
	"github.com/aristath/fundamentals/internal/modules/fundamentals"
	"github.com/aristath/fundamentals/internal/modules/identity"
	"github.com/aristath/fundamentals/internal/modules/ingest"
	"github.com/aristath/fundamentals/internal/modules/market"
	"github.com/aristath/fundamentals/internal/modules/screener"
	"github.com/aristath/fundamentals/internal/modules/statements"
	"github.com/aristath/fundamentals/internal/scheduler"
)

// Container holds all application dependencies. It is created by Wire and
// handed to the server.
type Container struct {
	// Databases
	CacheDB *database.DB

	// Repositories
	ClientDataRepo *clientdata.Repository

	// Inputs
	Source   ingest.Source
	Loader   *ingest.Loader
	Resolver *identity.Resolver
	Markets  market.Provider

	// Services
	Store               *statements.Store
	ScreenerRunner      *screener.Runner
	FundamentalsService *fundamentals.Service

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered background jobs so they can be run
// on demand.
type JobInstances struct {
	Reload        *scheduler.ReloadJob
	CacheCleanup  *clientdata.CleanupJob
	WALCheckpoint *scheduler.CheckWALCheckpointsJob
}

// Close releases the databases held by the container.
func (c *Container) Close() error {
	if c.CacheDB == nil {
		return nil
	}
	return c.CacheDB.Close()
}
