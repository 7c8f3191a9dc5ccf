package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/config"
	"github.com/skylease/watchtower/internal/database"
)

// InitializeDatabases opens the three databases and applies schemas.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. fleet.db - Airline universe
	fleetDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/fleet.db",
		Profile: database.ProfileStandard,
		Name:    "fleet",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fleet database: %w", err)
	}
	container.FleetDB = fleetDB

	// 2. portfolio.db - Portfolios, exposures, risk snapshots
	portfolioDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/portfolio.db",
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		fleetDB.Close()
		return nil, fmt.Errorf("failed to initialize portfolio database: %w", err)
	}
	container.PortfolioDB = portfolioDB

	// 3. cache.db - Provider response cache (ephemeral)
	cacheDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/cache.db",
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		fleetDB.Close()
		portfolioDB.Close()
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	for _, db := range []*database.DB{fleetDB, portfolioDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to migrate %s database: %w", db.Name(), err)
		}
	}

	log.Info().Str("data_dir", cfg.DataDir).Msg("Databases initialized")

	return container, nil
}
