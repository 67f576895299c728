package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/marked/internal/logger"
)

// OrphanTagsCleaner provides the ability to delete orphan tags.
type OrphanTagsCleaner interface {
	DeleteOrphanTags(ctx context.Context) (int64, error)
}

// CleanupOrphanTagsTask removes tags that no saved link uses anymore.
type CleanupOrphanTagsTask struct{}

// Config returns the queue configuration for cleanup tasks.
func (t CleanupOrphanTagsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_orphan_tags",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupOrphanTags deletes unused tags once.
func CleanupOrphanTags(ctx context.Context, cleaner OrphanTagsCleaner, log logger.Logger) error {
	if cleaner == nil {
		return fmt.Errorf("orphan tags cleaner not configured")
	}

	deleted, err := cleaner.DeleteOrphanTags(ctx)
	if err != nil {
		return fmt.Errorf("cleanup orphan tags: %w", err)
	}

	log.Info("cleaned up orphan tags", logger.Int64("deleted", deleted))
	return nil
}

// CleanupOrphanTagsProcessor creates a processor function for CleanupOrphanTagsTask.
func CleanupOrphanTagsProcessor(cleaner OrphanTagsCleaner, log logger.Logger) backlite.QueueProcessor[CleanupOrphanTagsTask] {
	if log == nil {
		log = logger.Nop()
	}
	return func(ctx context.Context, _ CleanupOrphanTagsTask) error {
		return CleanupOrphanTags(ctx, cleaner, log)
	}
}

// NewCleanupOrphanTagsQueue creates a backlite queue for tag cleanup tasks.
func NewCleanupOrphanTagsQueue(cleaner OrphanTagsCleaner, log logger.Logger) backlite.Queue {
	return backlite.NewQueue(CleanupOrphanTagsProcessor(cleaner, log))
}
