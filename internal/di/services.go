package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/fundamentals/internal/clientdata"
	"github.com/aristath/fundamentals/internal/config"
	"github.com/aristath/fundamentals/internal/modules/fundamentals"
	"github.com/aristath/fundamentals/internal/modules/identity"
	"github.com/aristath/fundamentals/internal/modules/ingest"
	"github.com/aristath/fundamentals/internal/modules/market"
	"github.com/aristath/fundamentals/internal/modules/screener"
	"github.com/aristath/fundamentals/internal/modules/statements"
)

// InitializeServices builds the filing source, loaders and query services.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.ClientDataRepo = clientdata.NewRepository(container.CacheDB.Conn())

	source, err := newSource(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create filing source: %w", err)
	}
	container.Source = source
	container.Loader = ingest.NewLoader(source, cfg.ITRYears, cfg.DFPYears, log)
	log.Info().
		Str("source", source.String()).
		Ints("itr_years", cfg.ITRYears).
		Ints("dfp_years", cfg.DFPYears).
		Msg("Filing source configured")

	resolver, err := identity.LoadFile(cfg.TickersFile, log)
	if err != nil {
		return fmt.Errorf("failed to load ticker table: %w", err)
	}
	container.Resolver = resolver

	container.Markets = market.NewCachedProvider(
		market.NewFileProvider(cfg.MarketFile, log),
		container.ClientDataRepo,
		clientdata.TTLMarketSnapshot,
		log,
	)

	container.Store = statements.NewStore(log)
	container.ScreenerRunner = screener.NewRunner(
		screener.NewAggregator(container.Markets, log),
		container.ClientDataRepo,
		cfg.ScreenerTTL,
		log,
	)
	container.FundamentalsService = fundamentals.NewService(
		container.Store,
		container.Loader.Load,
		container.Resolver,
		container.Markets,
		container.ScreenerRunner,
		log,
	)
	return nil
}

func newSource(ctx context.Context, cfg *config.Config) (ingest.Source, error) {
	if !cfg.S3.Enabled() {
		return ingest.NewDirSource(cfg.SourceDir), nil
	}
	return ingest.NewS3SourceFromOptions(ctx, ingest.S3Options{
		Bucket:          cfg.S3.Bucket,
		Prefix:          cfg.S3.Prefix,
		Endpoint:        cfg.S3.Endpoint,
		Region:          cfg.S3.Region,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
	})
}
