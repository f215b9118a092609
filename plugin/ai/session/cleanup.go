package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/bazaarbot/store"
)

// DefaultCleanupInterval is the default interval between cleanup runs.
const DefaultCleanupInterval = time.Hour

// Purger deletes conversations created before a cutoff.
type Purger interface {
	DeleteConversations(ctx context.Context, delete *store.DeleteConversations) (int64, error)
}

// CleanupConfig holds configuration for the cleanup job.
type CleanupConfig struct {
	RetentionDays   int           // Conversations older than this are deleted (default: 7)
	CleanupInterval time.Duration // Interval between cleanup runs (default: 1h)
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RetentionDays:   DefaultRetentionDays,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// CleanupJob periodically deletes conversations that fell out of the
// retention window. They are never read again once superseded.
type CleanupJob struct {
	purger Purger
	config CleanupConfig
	now    func() time.Time

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewCleanupJob creates a new cleanup job.
func NewCleanupJob(purger Purger, config CleanupConfig) *CleanupJob {
	if config.RetentionDays <= 0 {
		config.RetentionDays = DefaultRetentionDays
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}

	return &CleanupJob{
		purger: purger,
		config: config,
		now:    time.Now,
	}
}

// Start begins the periodic cleanup job.
// This method is non-blocking and starts the cleanup in a goroutine.
func (j *CleanupJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return nil // Already running
	}

	j.running = true
	j.stopChan = make(chan struct{})

	go j.run(ctx, j.stopChan)

	slog.Info("conversation cleanup job started",
		"retention_days", j.config.RetentionDays,
		"interval", j.config.CleanupInterval)

	return nil
}

// Stop stops the cleanup job.
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}

	close(j.stopChan)
	j.running = false

	slog.Info("conversation cleanup job stopped")
}

// RunOnce executes a single cleanup run immediately.
// Useful for testing or manual cleanup.
func (j *CleanupJob) RunOnce(ctx context.Context) (int64, error) {
	return j.cleanup(ctx)
}

// run is the main loop for the cleanup job.
func (j *CleanupJob) run(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(j.config.CleanupInterval)
	defer ticker.Stop()

	// Run immediately on start
	if deleted, err := j.cleanup(ctx); err != nil {
		slog.Error("initial conversation cleanup failed", "error", err)
	} else if deleted > 0 {
		slog.Info("initial conversation cleanup completed", "deleted", deleted)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if deleted, err := j.cleanup(ctx); err != nil {
				slog.Error("conversation cleanup failed", "error", err)
			} else if deleted > 0 {
				slog.Info("conversation cleanup completed", "deleted", deleted)
			}
		}
	}
}

// cleanup performs the actual cleanup.
func (j *CleanupJob) cleanup(ctx context.Context) (int64, error) {
	cutoff := j.now().AddDate(0, 0, -j.config.RetentionDays).Unix()
	return j.purger.DeleteConversations(ctx, &store.DeleteConversations{CreatedBefore: cutoff})
}

// IsRunning returns whether the cleanup job is currently running.
func (j *CleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
