package scheduler

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/kimkyngt/decay-dynamics/internal/archive"
	"github.com/kimkyngt/decay-dynamics/internal/database"
	"github.com/kimkyngt/decay-dynamics/internal/modules/coupling"
)

// CacheCleanupJob evicts expired coupling cache entries
type CacheCleanupJob struct {
	service *coupling.Service
	log     zerolog.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(service *coupling.Service, log zerolog.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		service: service,
		log:     log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string { return "cache_cleanup" }

// Run removes expired entries from the coupling cache
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	removed, err := j.service.CleanupCache()
	if err != nil {
		return fmt.Errorf("cache cleanup failed: %w", err)
	}

	if removed > 0 {
		j.log.Info().Int64("removed", removed).Msg("Expired cache entries removed")
	}

	return nil
}

// PruneRunsJob deletes persisted runs older than the retention period
type PruneRunsJob struct {
	service *coupling.Service
	maxAge  time.Duration
	log     zerolog.Logger
}

// NewPruneRunsJob creates a new run pruning job
func NewPruneRunsJob(service *coupling.Service, maxAge time.Duration, log zerolog.Logger) *PruneRunsJob {
	return &PruneRunsJob{
		service: service,
		maxAge:  maxAge,
		log:     log.With().Str("job", "prune_runs").Logger(),
	}
}

// Name returns the job name
func (j *PruneRunsJob) Name() string { return "prune_runs" }

// Run deletes runs older than the configured retention period
func (j *PruneRunsJob) Run(ctx context.Context) error {
	pruned, err := j.service.PruneRuns(j.maxAge)
	if err != nil {
		return fmt.Errorf("run pruning failed: %w", err)
	}

	if pruned > 0 {
		j.log.Info().Int64("pruned", pruned).Msg("Old runs pruned")
	}

	return nil
}

// MaintenanceJob performs daily database maintenance: integrity check,
// WAL checkpoint, disk space check and size reporting
type MaintenanceJob struct {
	db      *database.DB
	dataDir string
	log     zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(db *database.DB, dataDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		db:      db,
		dataDir: dataDir,
		log:     log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string { return "maintenance" }

// Run executes the maintenance steps
func (j *MaintenanceJob) Run(ctx context.Context) error {
	j.log.Info().Msg("Starting database maintenance")
	startTime := time.Now()

	if err := j.db.HealthCheck(ctx); err != nil {
		j.log.Error().Err(err).Msg("Integrity check failed")
		return fmt.Errorf("integrity check failed: %w", err)
	}

	// Keep the WAL from growing unbounded.
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.reportSize()

	j.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Msg("Database maintenance completed")

	return nil
}

// checkDiskSpace verifies sufficient disk space is available under the
// data directory
func (j *MaintenanceJob) checkDiskSpace() error {
	stat := syscall.Statfs_t{}
	if err := syscall.Statfs(j.dataDir, &stat); err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(stat.Bavail*uint64(stat.Bsize)) / 1e9

	switch {
	case availableGB < 0.5:
		j.log.Error().Float64("available_gb", availableGB).Msg("Critically low disk space")
		return fmt.Errorf("only %.2f GB free below data directory", availableGB)
	case availableGB < 5.0:
		j.log.Warn().Float64("available_gb", availableGB).Msg("Disk space running low")
	default:
		j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")
	}

	return nil
}

// reportSize logs database size metrics for growth tracking
func (j *MaintenanceJob) reportSize() {
	stats, err := j.db.GetStats()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to get database stats")
		return
	}

	j.log.Info().
		Int64("size_bytes", stats.SizeBytes).
		Int64("wal_size_bytes", stats.WALSizeBytes).
		Int64("freelist_pages", stats.FreelistCount).
		Msg("Database size")
}

// ArchiveJob exports the results database to object storage and rotates
// old archives out
type ArchiveJob struct {
	service *archive.Service
	log     zerolog.Logger
}

// NewArchiveJob creates a new archive job
func NewArchiveJob(service *archive.Service, log zerolog.Logger) *ArchiveJob {
	return &ArchiveJob{
		service: service,
		log:     log.With().Str("job", "archive").Logger(),
	}
}

// Name returns the job name
func (j *ArchiveJob) Name() string { return "archive" }

// Run uploads a fresh archive and rotates expired ones
func (j *ArchiveJob) Run(ctx context.Context) error {
	if err := j.service.CreateAndUpload(ctx); err != nil {
		return err
	}

	return j.service.Rotate(ctx)
}
