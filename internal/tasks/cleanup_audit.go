package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/marked/internal/logger"
)

// AuditEventCleaner provides the ability to delete old audit events.
type AuditEventCleaner interface {
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}

// CleanupAuditEventsTask removes audit events older than the configured retention period.
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

// CleanupAuditEvents deletes events older than retentionDays (90 when unset).
func CleanupAuditEvents(ctx context.Context, cleaner AuditEventCleaner, retentionDays int, log logger.Logger) error {
	if cleaner == nil {
		return fmt.Errorf("audit event cleaner not configured")
	}

	if retentionDays <= 0 {
		retentionDays = 90
	}
	retention := time.Duration(retentionDays) * 24 * time.Hour

	deleted, err := cleaner.DeleteOldEvents(ctx, retention)
	if err != nil {
		return fmt.Errorf("cleanup audit events: %w", err)
	}

	log.Info("cleaned up audit events",
		logger.Int64("deleted", deleted),
		logger.Int("retention_days", retentionDays))
	return nil
}

// CleanupAuditEventsProcessor creates a processor function for CleanupAuditEventsTask.
func CleanupAuditEventsProcessor(cleaner AuditEventCleaner, log logger.Logger) backlite.QueueProcessor[CleanupAuditEventsTask] {
	if log == nil {
		log = logger.Nop()
	}
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		return CleanupAuditEvents(ctx, cleaner, task.RetentionDays, log)
	}
}

// NewCleanupAuditEventsQueue creates a backlite queue for audit cleanup tasks.
func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner, log logger.Logger) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner, log))
}
