package jobs

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/wonny/areascore/pkg/logger"
)

// ArtifactCleanupJob removes stale temp files left by interrupted exports
type ArtifactCleanupJob struct {
	dir    string
	maxAge time.Duration
	clock  clockwork.Clock
	logger *logger.Logger
}

// NewArtifactCleanupJob creates a new cleanup job for an output directory
func NewArtifactCleanupJob(dir string, maxAge time.Duration, clock clockwork.Clock, log *logger.Logger) *ArtifactCleanupJob {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ArtifactCleanupJob{
		dir:    dir,
		maxAge: maxAge,
		clock:  clock,
		logger: log,
	}
}

// Name returns the job name
func (j *ArtifactCleanupJob) Name() string {
	return "artifact_cleanup"
}

// Schedule returns the cron schedule (daily at 04:00)
func (j *ArtifactCleanupJob) Schedule() string {
	return "0 0 4 * * *"
}

// Timeout bounds one cleanup pass
func (j *ArtifactCleanupJob) Timeout() time.Duration {
	return 5 * time.Minute
}

// Run removes *.tmp files older than maxAge
func (j *ArtifactCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled artifact cleanup")

	matches, err := filepath.Glob(filepath.Join(j.dir, "*.tmp"))
	if err != nil {
		return err
	}

	cutoff := j.clock.Now().Add(-j.maxAge)
	count := 0
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := os.Stat(path)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			j.logger.WithError(err).WithField("path", path).Warn("Failed to remove stale artifact")
			continue
		}
		count++
	}

	if count > 0 {
		j.logger.WithField("removed", count).Info("Artifact cleanup completed")
	}

	return nil
}

// StaleCache is a cache that can drop expired entries
type StaleCache interface {
	CleanStale() int
}

// CacheCleanupJob evicts expired forecasts from the in-process cache
type CacheCleanupJob struct {
	cache  StaleCache
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(cache StaleCache, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{cache: cache, logger: log}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (every hour)
func (j *CacheCleanupJob) Schedule() string {
	return "0 0 * * * *"
}

// Run removes stale cache entries
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	removed := j.cache.CleanStale()
	j.logger.WithField("removed", removed).Debug("Cache cleanup completed")
	return nil
}
