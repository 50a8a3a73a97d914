package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/kitarena/kitarena-backend/pkg/logger"
)

type snapshotSweeper interface {
	DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SnapshotCleanupJobParams configure the checkout snapshot retention job.
type SnapshotCleanupJobParams struct {
	Logger    *logger.Logger
	Snapshots snapshotSweeper
	Window    time.Duration
	Now       func() time.Time
}

// NewSnapshotCleanupJob builds the job that deletes checkout snapshots whose
// payment never completed. Confirmed intents live on through the orders table,
// so only abandoned checkouts are removed.
func NewSnapshotCleanupJob(params SnapshotCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Snapshots == nil {
		return nil, fmt.Errorf("snapshot repository required")
	}
	if params.Window <= 0 {
		return nil, fmt.Errorf("retention window must be positive")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &snapshotCleanupJob{
		logg:      params.Logger,
		snapshots: params.Snapshots,
		window:    params.Window,
		now:       now,
	}, nil
}

type snapshotCleanupJob struct {
	logg      *logger.Logger
	snapshots snapshotSweeper
	window    time.Duration
	now       func() time.Time
}

func (j *snapshotCleanupJob) Name() string { return "snapshot-cleanup" }

func (j *snapshotCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.window)
	deleted, err := j.snapshots.DeleteSnapshotsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("deleting stale snapshots: %w", err)
	}
	ctx = j.logg.WithFields(ctx, map[string]any{
		"deleted": deleted,
		"cutoff":  cutoff.Format(time.RFC3339),
	})
	j.logg.Info(ctx, "stale checkout snapshots removed")
	return nil
}
