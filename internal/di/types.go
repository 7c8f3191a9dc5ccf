// Package di provides dependency injection for Watchtower.
//
// The Container is the single source of truth for all service instances and
// is passed to the server for access to handlers and services.
package di

import (
	"github.com/skylease/watchtower/internal/clientdata"
	"github.com/skylease/watchtower/internal/clients/aviation"
	"github.com/skylease/watchtower/internal/clients/country"
	"github.com/skylease/watchtower/internal/clients/flightactivity"
	"github.com/skylease/watchtower/internal/clients/fundamentals"
	"github.com/skylease/watchtower/internal/database"
	"github.com/skylease/watchtower/internal/modules/airlines"
	"github.com/skylease/watchtower/internal/modules/portfolio"
	portfoliohandlers "github.com/skylease/watchtower/internal/modules/portfolio/handlers"
	"github.com/skylease/watchtower/internal/modules/risk"
	riskhandlers "github.com/skylease/watchtower/internal/modules/risk/handlers"
	"github.com/skylease/watchtower/internal/modules/scoring"
	"github.com/skylease/watchtower/internal/modules/snapshots"
	"github.com/skylease/watchtower/internal/reliability"
)

// Container holds all dependencies for the application.
type Container struct {
	// Databases
	FleetDB     *database.DB
	PortfolioDB *database.DB
	CacheDB     *database.DB

	// Repositories
	AirlineRepo    *airlines.Repository
	ExposureRepo   *portfolio.ExposureRepository
	SnapshotRepo   *snapshots.Repository
	ClientDataRepo *clientdata.Repository

	// External clients
	CountryClient      *country.Client
	FundamentalsClient *fundamentals.Client
	AviationClient     *aviation.Client
	ActivityClient     *flightactivity.Client

	// Engine + services
	EngineConfig scoring.Config
	Aggregator   *scoring.Aggregator
	RiskService  *risk.Service
	Calculator   *portfolio.Calculator

	// Reliability (nil when backups are disabled)
	BackupService *reliability.BackupService

	// Handlers
	RiskHandler      *riskhandlers.Handler
	PortfolioHandler *portfoliohandlers.Handler
}

// Close releases all database connections.
func (c *Container) Close() {
	for _, db := range []*database.DB{c.FleetDB, c.PortfolioDB, c.CacheDB} {
		if db != nil {
			db.Close()
		}
	}
}
