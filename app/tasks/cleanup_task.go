package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const cleanupTimeout = 10 * time.Minute

// CleanupTask removes items that have not been refreshed within the retention
// window and compacts the database file afterwards.
type CleanupTask struct {
	Task
	sweeper   Sweeper
	vacuumer  Vacuumer
	retention time.Duration
	now       func() time.Time
}

func NewCleanupTask(trigger string, sweeper Sweeper, vacuumer Vacuumer, retention time.Duration) *CleanupTask {
	return &CleanupTask{
		Task:      NewTask(TaskTypeCleanup, trigger, DefaultMaxRetries, cleanupTimeout),
		sweeper:   sweeper,
		vacuumer:  vacuumer,
		retention: retention,
		now:       time.Now,
	}
}

func (t *CleanupTask) Execute(ctx context.Context) error {
	cutoff := t.now().UTC().Add(-t.retention)

	deleted, err := t.sweeper.DeleteStaleItems(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete stale items: %w", err)
	}

	if t.vacuumer != nil {
		if err := t.vacuumer.Vacuum(ctx); err != nil {
			return fmt.Errorf("failed to vacuum database: %w", err)
		}
	}

	slog.Info("Retention sweep completed", "id", t.ID, "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	return nil
}
