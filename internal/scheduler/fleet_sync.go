package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/clients/aviation"
	"github.com/skylease/watchtower/internal/modules/airlines"
)

// FleetSyncJob refreshes airline directory metadata (fleet size, active flag)
// from the aviation provider. Per-airline failures are logged and skipped.
type FleetSyncJob struct {
	airlineRepo *airlines.Repository
	aviation    *aviation.Client
	log         zerolog.Logger
}

// NewFleetSyncJob creates a fleet metadata sync job.
func NewFleetSyncJob(airlineRepo *airlines.Repository, aviationClient *aviation.Client, log zerolog.Logger) *FleetSyncJob {
	return &FleetSyncJob{
		airlineRepo: airlineRepo,
		aviation:    aviationClient,
		log:         log.With().Str("job", "fleet_sync").Logger(),
	}
}

// Run walks the airline universe and refreshes each row from the directory.
func (j *FleetSyncJob) Run() error {
	list, err := j.airlineRepo.GetAll()
	if err != nil {
		return fmt.Errorf("failed to list airlines: %w", err)
	}

	updated := 0
	for _, airline := range list {
		entry, err := j.aviation.Directory(airline.Code)
		if err != nil {
			j.log.Warn().Err(err).Str("airline", airline.Code).Msg("Directory lookup failed")
			continue
		}

		if entry.FleetSize == airline.FleetSize && entry.Active == airline.Active {
			continue
		}

		airline.FleetSize = entry.FleetSize
		airline.Active = entry.Active
		if entry.Name != "" {
			airline.Name = entry.Name
		}
		if entry.CountryCode != "" {
			airline.CountryCode = entry.CountryCode
		}

		if err := j.airlineRepo.Upsert(airline); err != nil {
			j.log.Error().Err(err).Str("airline", airline.Code).Msg("Failed to update airline")
			continue
		}
		updated++
	}

	j.log.Info().
		Int("airlines", len(list)).
		Int("updated", updated).
		Msg("Fleet metadata sync completed")

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *FleetSyncJob) Name() string {
	return "fleet_sync"
}
