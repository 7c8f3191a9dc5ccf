package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/clients/aviation"
	"github.com/skylease/watchtower/internal/clients/country"
	"github.com/skylease/watchtower/internal/clients/flightactivity"
	"github.com/skylease/watchtower/internal/clients/fundamentals"
	"github.com/skylease/watchtower/internal/config"
	"github.com/skylease/watchtower/internal/database"
	"github.com/skylease/watchtower/internal/modules/portfolio"
	portfoliohandlers "github.com/skylease/watchtower/internal/modules/portfolio/handlers"
	"github.com/skylease/watchtower/internal/modules/risk"
	riskhandlers "github.com/skylease/watchtower/internal/modules/risk/handlers"
	"github.com/skylease/watchtower/internal/modules/scoring"
	"github.com/skylease/watchtower/internal/modules/scoring/evaluators"
	"github.com/skylease/watchtower/internal/reliability"
)

// InitializeServices creates clients, the risk engine and the handlers.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	// External clients share the persistent response cache.
	container.CountryClient = country.NewClient(container.ClientDataRepo, log)
	container.FundamentalsClient = fundamentals.NewClient(
		cfg.FundamentalsBaseURL, cfg.FundamentalsAPIKey, container.ClientDataRepo, log)
	container.AviationClient = aviation.NewClient(
		cfg.AviationBaseURL, cfg.AviationAPIKey, container.ClientDataRepo, log)
	container.ActivityClient = flightactivity.NewClient(
		cfg.FlightFeedURL, cfg.FlightFeedAPIKey, container.ClientDataRepo, log)

	// Risk engine: evaluation order is fixed; the financial evaluator runs
	// before asset liquidity so its fundamentals back-fill is visible there.
	container.EngineConfig = cfg.Engine
	container.Aggregator = scoring.NewAggregator(cfg.Engine, []scoring.Evaluator{
		evaluators.NewJurisdictionEvaluator(),
		evaluators.NewScaleEvaluator(),
		evaluators.NewFinancialEvaluator(container.FundamentalsClient, log),
		evaluators.NewAssetLiquidityEvaluator(),
	}, log)

	container.RiskService = risk.NewService(
		container.AirlineRepo,
		container.CountryClient,
		container.ActivityClient,
		container.Aggregator,
		container.SnapshotRepo,
		log,
	)

	container.Calculator = portfolio.NewCalculator(cfg.Engine.Thresholds, log)

	if cfg.BackupEnabled {
		s3Client, err := reliability.NewS3Client(context.Background(), reliability.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize s3 client: %w", err)
		}
		container.BackupService = reliability.NewBackupService(
			s3Client,
			[]*database.DB{container.FleetDB, container.PortfolioDB, container.CacheDB},
			cfg.DataDir,
			log,
		)
	}

	container.RiskHandler = riskhandlers.NewHandler(container.AirlineRepo, container.RiskService, log)
	container.PortfolioHandler = portfoliohandlers.NewHandler(
		container.ExposureRepo, container.Calculator, container.RiskService, log)

	return nil
}
