package reliability

import (
	"context"

	"github.com/rs/zerolog"
)

// BackupJob runs the S3 backup on a schedule.
type BackupJob struct {
	service *BackupService
	log     zerolog.Logger
}

// NewBackupJob creates a new backup job.
func NewBackupJob(service *BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service: service,
		log:     log.With().Str("job", "s3_backup").Logger(),
	}
}

// Name returns the job identifier.
func (j *BackupJob) Name() string {
	return "s3_backup"
}

// Schedule runs daily at 00:15 UTC, after history pruning and cache cleanup.
func (j *BackupJob) Schedule() string {
	return "0 15 0 * * *"
}

// Run creates and uploads a backup archive.
func (j *BackupJob) Run(ctx context.Context) error {
	return j.service.CreateAndUploadBackup(ctx)
}
