package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCronSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		valid    bool
	}{
		{"30 3 * * *", true},
		{"*/15 * * * *", true},
		{"0 0 * * 0", true},
		{"not a schedule", false},
		{"* * * * * *", false},
	}
	for _, tt := range tests {
		t.Run(tt.schedule, func(t *testing.T) {
			err := ValidateCronSchedule(tt.schedule)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNextRunTime(t *testing.T) {
	from := time.Date(2024, 5, 1, 2, 0, 0, 0, time.UTC)
	next, err := NextRunTime("30 3 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 3, 30, 0, 0, time.UTC), next)
}

func TestAuditCleanupScheduler_StartStop(t *testing.T) {
	s := NewAuditCleanupScheduler("30 3 * * *", func(context.Context) error { return nil }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	require.NotNil(t, s.NextRun())

	require.NoError(t, s.Start(ctx), "starting twice is a no-op")

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRun())
}

func TestAuditCleanupScheduler_Disabled(t *testing.T) {
	s := NewAuditCleanupScheduler("", func(context.Context) error { return nil }, nil)
	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestAuditCleanupScheduler_InvalidSchedule(t *testing.T) {
	s := NewAuditCleanupScheduler("every day", func(context.Context) error { return nil }, nil)
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron schedule")
}

func TestAuditCleanupScheduler_RunNow(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	s := NewAuditCleanupScheduler("30 3 * * *", func(context.Context) error {
		calls.Add(1)
		return boom
	}, nil)

	assert.ErrorIs(t, s.RunNow(context.Background()), boom)
	s.run()
	assert.Equal(t, int32(2), calls.Load())
}
