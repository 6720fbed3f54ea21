package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/assessment-importer/internal/logger"
)

// DefaultRetentionDays applies when a task carries no retention.
const DefaultRetentionDays = 90

// AuditEventCleaner provides the ability to delete old audit events.
type AuditEventCleaner interface {
	DeleteOldEvents(retention time.Duration) (int64, error)
	LogCleanup(deleted int64, retention time.Duration, err error)
}

// ArchivePruner removes archived uploads older than a cutoff.
type ArchivePruner interface {
	Prune(olderThan time.Time) (int, error)
}

// CleanupAuditEventsTask removes audit events older than the configured
// retention period, together with archived uploads of the same age.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for audit cleanup tasks.
func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_audit_events",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupAuditEventsProcessor creates a processor function for
// CleanupAuditEventsTask. pruner may be nil when archiving is disabled.
func CleanupAuditEventsProcessor(cleaner AuditEventCleaner, pruner ArchivePruner, log *logger.Logger) backlite.QueueProcessor[CleanupAuditEventsTask] {
	log = logger.OrNop(log)
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return fmt.Errorf("audit event cleaner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = DefaultRetentionDays
		}
		retention := time.Duration(retentionDays) * 24 * time.Hour

		deleted, err := cleaner.DeleteOldEvents(retention)
		cleaner.LogCleanup(deleted, retention, err)
		if err != nil {
			return fmt.Errorf("cleanup audit events: %w", err)
		}

		pruned := 0
		if pruner != nil {
			pruned, err = pruner.Prune(time.Now().Add(-retention))
			if err != nil {
				return fmt.Errorf("prune archived uploads: %w", err)
			}
		}

		log.Info("audit cleanup finished", "events_deleted", deleted, "archives_pruned", pruned, "retention_days", retentionDays)
		return nil
	}
}

// NewCleanupAuditEventsQueue creates a backlite queue for audit cleanup tasks.
func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner, pruner ArchivePruner, log *logger.Logger) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner, pruner, log))
}
