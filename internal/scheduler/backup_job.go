package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/skylease/watchtower/internal/reliability"
)

const backupTimeout = 10 * time.Minute

// BackupJob archives the databases to object storage and rotates old archives.
type BackupJob struct {
	backupService *reliability.BackupService
	retentionDays int
	log           zerolog.Logger
}

// NewBackupJob creates a backup job.
func NewBackupJob(backupService *reliability.BackupService, retentionDays int, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backupService: backupService,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "backup").Logger(),
	}
}

// Run creates and uploads a backup, then prunes old ones.
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	if err := j.backupService.CreateAndUploadBackup(ctx); err != nil {
		j.log.Error().Err(err).Msg("Backup failed")
		return err
	}

	if err := j.backupService.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Error().Err(err).Msg("Backup rotation failed")
		return err
	}

	return nil
}

// Name returns the job name for scheduling and logging.
func (j *BackupJob) Name() string {
	return "database_backup"
}
