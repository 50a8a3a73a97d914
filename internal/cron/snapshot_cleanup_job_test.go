package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitarena/kitarena-backend/pkg/logger"
)

type fakeSweeper struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (f *fakeSweeper) DeleteSnapshotsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.deleted, f.err
}

func TestSnapshotCleanupDeletesBeforeWindow(t *testing.T) {
	sweeper := &fakeSweeper{deleted: 3}
	fixed := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	job, err := NewSnapshotCleanupJob(SnapshotCleanupJobParams{
		Logger:    testLogger(),
		Snapshots: sweeper,
		Window:    72 * time.Hour,
		Now:       func() time.Time { return fixed },
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, fixed.Add(-72*time.Hour), sweeper.cutoff)
}

func TestSnapshotCleanupPropagatesError(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("db down")}

	job, err := NewSnapshotCleanupJob(SnapshotCleanupJobParams{
		Logger:    testLogger(),
		Snapshots: sweeper,
		Window:    time.Hour,
	})
	require.NoError(t, err)

	assert.Error(t, job.Run(context.Background()))
}

func TestSnapshotCleanupRequiresWindow(t *testing.T) {
	_, err := NewSnapshotCleanupJob(SnapshotCleanupJobParams{
		Logger:    testLogger(),
		Snapshots: &fakeSweeper{},
	})
	assert.Error(t, err)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error")})
}
