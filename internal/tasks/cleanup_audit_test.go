package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCleaner struct {
	retention time.Duration
	deleted   int64
	err       error
	logged    []error
}

func (f *fakeCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	f.retention = retention
	return f.deleted, f.err
}

func (f *fakeCleaner) LogCleanup(_ int64, _ time.Duration, err error) {
	f.logged = append(f.logged, err)
}

type fakePruner struct {
	cutoff time.Time
	err    error
}

func (f *fakePruner) Prune(olderThan time.Time) (int, error) {
	f.cutoff = olderThan
	return 2, f.err
}

func TestCleanupAuditEventsTaskConfig(t *testing.T) {
	cfg := CleanupAuditEventsTask{}.Config()

	assert.Equal(t, "cleanup_audit_events", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	t.Run("uses task retention", func(t *testing.T) {
		cleaner := &fakeCleaner{deleted: 4}
		pruner := &fakePruner{}
		process := CleanupAuditEventsProcessor(cleaner, pruner, nil)

		require.NoError(t, process(context.Background(), CleanupAuditEventsTask{RetentionDays: 7}))
		assert.Equal(t, 7*24*time.Hour, cleaner.retention)
		assert.Equal(t, []error{nil}, cleaner.logged)
		assert.WithinDuration(t, time.Now().Add(-7*24*time.Hour), pruner.cutoff, time.Minute)
	})

	t.Run("defaults retention", func(t *testing.T) {
		cleaner := &fakeCleaner{}
		process := CleanupAuditEventsProcessor(cleaner, nil, nil)

		require.NoError(t, process(context.Background(), CleanupAuditEventsTask{}))
		assert.Equal(t, DefaultRetentionDays*24*time.Hour, cleaner.retention)
	})

	t.Run("reports cleaner failure", func(t *testing.T) {
		cleaner := &fakeCleaner{err: errors.New("locked")}
		pruner := &fakePruner{}
		process := CleanupAuditEventsProcessor(cleaner, pruner, nil)

		err := process(context.Background(), CleanupAuditEventsTask{RetentionDays: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "locked")
		require.Len(t, cleaner.logged, 1)
		assert.Error(t, cleaner.logged[0])
		assert.True(t, pruner.cutoff.IsZero(), "archives are kept when event cleanup fails")
	})

	t.Run("reports pruner failure", func(t *testing.T) {
		process := CleanupAuditEventsProcessor(&fakeCleaner{}, &fakePruner{err: errors.New("read-only")}, nil)
		assert.Error(t, process(context.Background(), CleanupAuditEventsTask{RetentionDays: 1}))
	})

	t.Run("requires a cleaner", func(t *testing.T) {
		process := CleanupAuditEventsProcessor(nil, nil, nil)
		assert.Error(t, process(context.Background(), CleanupAuditEventsTask{}))
	})
}
