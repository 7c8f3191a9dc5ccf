package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/modules/risk"
)

// SnapshotRefreshJob recomputes risk snapshots that have lapsed so interactive
// reads stay cache-hits.
type SnapshotRefreshJob struct {
	riskService *risk.Service
	log         zerolog.Logger
}

// NewSnapshotRefreshJob creates a snapshot refresh job.
func NewSnapshotRefreshJob(riskService *risk.Service, log zerolog.Logger) *SnapshotRefreshJob {
	return &SnapshotRefreshJob{
		riskService: riskService,
		log:         log.With().Str("job", "snapshot_refresh").Logger(),
	}
}

// Run recomputes every expired or missing snapshot.
func (j *SnapshotRefreshJob) Run() error {
	refreshed, err := j.riskService.RefreshExpired()
	if err != nil {
		j.log.Error().Err(err).Msg("Snapshot refresh sweep failed")
		return err
	}

	if refreshed > 0 {
		j.log.Info().Int("refreshed", refreshed).Msg("Risk snapshots refreshed")
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *SnapshotRefreshJob) Name() string {
	return "snapshot_refresh"
}
