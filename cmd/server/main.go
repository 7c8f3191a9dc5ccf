// Package main is the entry point for the Watchtower counterparty risk engine.
// The application scores airline counterparties, aggregates portfolio exposure
// risk for aircraft lessors, and keeps risk snapshots fresh in the background.
//
// The application follows clean architecture principles:
// - Domain layer is pure (no infrastructure dependencies)
// - Dependency injection via DI container
// - Repository pattern for data access
// - Service layer for business logic
// - HTTP handlers for API endpoints
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skylease/watchtower/internal/clientdata"
	"github.com/skylease/watchtower/internal/config"
	"github.com/skylease/watchtower/internal/di"
	"github.com/skylease/watchtower/internal/scheduler"
	"github.com/skylease/watchtower/internal/server"
	"github.com/skylease/watchtower/pkg/logger"
)

// main orchestrates the system startup sequence:
//  1. Loads configuration from environment variables
//  2. Initializes logging
//  3. Wires all dependencies via the DI container (databases, repositories, services)
//  4. Starts the HTTP server for API endpoints
//  5. Starts the scheduler with background jobs (snapshot refresh, fleet sync,
//     cache cleanup, backups)
//  6. Optionally connects the live flight activity feed
//  7. Waits for a shutdown signal and performs graceful shutdown
//
// The application uses a 3-database architecture:
// - fleet.db: Airline universe (counterparty master data)
// - portfolio.db: Portfolios, exposures and risk snapshots
// - cache.db: Ephemeral provider response cache
func main() {
	// Load configuration first to get the log level.
	cfg, err := config.Load()
	if err != nil {
		// Use a fallback logger so the configuration error itself is logged.
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().Msg("Starting Watchtower")

	// Wire all dependencies using the DI container.
	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	// All three databases must be closed on exit so WAL checkpoints are
	// written and database integrity is maintained.
	defer container.Close()

	srv := server.New(server.Config{
		Log:         log,
		FleetDB:     container.FleetDB,
		PortfolioDB: container.PortfolioDB,
		CacheDB:     container.CacheDB,
		Config:      cfg,
		Port:        cfg.Port,
		Container:   container,
	})

	// Background jobs. The snapshot refresh sweep runs every 30 minutes;
	// fleet sync and cache cleanup run once a day during quiet hours.
	sched := scheduler.New(log)

	snapshotRefreshJob := scheduler.NewSnapshotRefreshJob(container.RiskService, log)
	if err := sched.AddJob("0 */30 * * * *", snapshotRefreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule snapshot refresh job")
	}

	fleetSyncJob := scheduler.NewFleetSyncJob(container.AirlineRepo, container.AviationClient, log)
	if err := sched.AddJob("0 0 4 * * *", fleetSyncJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule fleet sync job")
	}

	cleanupJob := clientdata.NewCleanupJob(container.ClientDataRepo, log)
	if err := sched.AddJob("0 15 4 * * *", cleanupJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule cache cleanup job")
	}

	var backupJob scheduler.Job
	if cfg.BackupEnabled && container.BackupService != nil {
		job := scheduler.NewBackupJob(container.BackupService, cfg.BackupRetentionDays, log)
		if err := sched.AddJob("0 30 3 * * *", job); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule backup job")
		}
		backupJob = job
		log.Info().Int("retention_days", cfg.BackupRetentionDays).Msg("Database backups enabled")
	}

	// Manual trigger endpoints reuse the same job instances.
	srv.SystemHandlers().SetJobs(sched, snapshotRefreshJob, fleetSyncJob, backupJob)

	sched.Start()
	log.Info().Msg("Scheduler started")

	// Live flight activity feed is optional; scoring degrades to cached
	// activity data when it is disabled or unavailable.
	if cfg.FlightFeedEnabled {
		if err := container.ActivityClient.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start flight activity feed, continuing without it")
		} else {
			log.Info().Msg("Flight activity feed started")
		}
	}

	// The HTTP server runs in a separate goroutine so the main thread can
	// block on the shutdown signal.
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop the scheduler first so no new job runs start during shutdown;
	// Stop waits for in-progress jobs to complete.
	sched.Stop()
	log.Info().Msg("Scheduler stopped")

	if cfg.FlightFeedEnabled {
		if err := container.ActivityClient.Stop(); err != nil {
			log.Error().Err(err).Msg("Error stopping flight activity feed")
		} else {
			log.Info().Msg("Flight activity feed stopped")
		}
	}

	// The HTTP server gets up to 10 seconds to finish in-flight requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
