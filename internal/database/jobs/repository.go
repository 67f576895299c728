// Package jobs provides database operations for import jobs.
//
// Status only moves forward: queued -> running -> completed | failed. A
// queued job is failed directly only when nothing will ever run it: its
// dispatch failed, or its queue task is gone. Every transition and progress
// update is a conditional update on the current status, so two writers
// cannot both move the same job and a finished job stops counting.
//
// # Interface Implementation
//
//	var _ importers.JobTracker = (*Repository)(nil)
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/marked/internal/entities"
)

// ErrInvalidTransition is returned when a job is not in the state the update requires.
var ErrInvalidTransition = errors.New("invalid import job state transition")

// Messages recorded on jobs failed by the stale import reaper.
const (
	InterruptedMessage = "import was interrupted before it finished"
	AbandonedMessage   = "import was queued but is no longer scheduled to run"
)

// Repository handles all import job database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new jobs repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a new queued job. An empty ID is filled with a UUID.
func (r *Repository) Create(ctx context.Context, job *entities.ImportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = entities.ImportJobQueued
	return r.db.WithContext(ctx).Create(job).Error
}

// Get retrieves a job including its stored source content.
func (r *Repository) Get(ctx context.Context, id string) (*entities.ImportJob, error) {
	var job entities.ImportJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// GetForUser retrieves one of the user's jobs without the source content.
func (r *Repository) GetForUser(ctx context.Context, userID uint, id string) (*entities.ImportJob, error) {
	var job entities.ImportJob
	err := r.db.WithContext(ctx).
		Omit("source_content").
		Where("id = ? AND user_id = ?", id, userID).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListForUser returns a page of the user's jobs, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]entities.ImportJob, int64, error) {
	var jobs []entities.ImportJob
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.ImportJob{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Omit("source_content", "failed_bookmarks").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&jobs).Error
	return jobs, total, err
}

// SetTaskID records the queue task that will run the job.
func (r *Repository) SetTaskID(ctx context.Context, id, taskID string) error {
	return r.db.WithContext(ctx).Model(&entities.ImportJob{}).
		Where("id = ?", id).
		Update("task_id", taskID).Error
}

// MarkRunning moves a queued job to running.
func (r *Repository) MarkRunning(ctx context.Context, id string) error {
	now := time.Now()
	return r.transition(ctx, id, []entities.ImportJobStatus{entities.ImportJobQueued}, map[string]any{
		"status":     entities.ImportJobRunning,
		"started_at": now,
		"updated_at": now,
	})
}

// SetTotal records the number of bookmarks found in the file.
func (r *Repository) SetTotal(ctx context.Context, id string, total int) error {
	return r.progress(ctx, id, map[string]any{
		"total_items": total,
		"updated_at":  time.Now(),
	})
}

// IncrementProgress counts one more processed bookmark, and one more failure if failed.
func (r *Repository) IncrementProgress(ctx context.Context, id string, failed bool) error {
	changes := map[string]any{
		"processed_items": gorm.Expr("processed_items + 1"),
		"updated_at":      time.Now(),
	}
	if failed {
		changes["failed_items"] = gorm.Expr("failed_items + 1")
	}
	return r.progress(ctx, id, changes)
}

// Complete finishes a running job and drops its source content.
func (r *Repository) Complete(ctx context.Context, id string, created, skipped int, failed []entities.FailedBookmark) error {
	var job entities.ImportJob
	if err := job.SetFailedList(failed); err != nil {
		return err
	}

	now := time.Now()
	return r.transition(ctx, id, []entities.ImportJobStatus{entities.ImportJobRunning}, map[string]any{
		"status":           entities.ImportJobCompleted,
		"links_created":    created,
		"links_skipped":    skipped,
		"failed_bookmarks": job.FailedBookmarks,
		"source_content":   "",
		"completed_at":     now,
		"updated_at":       now,
	})
}

// Fail finishes a queued or running job with message.
func (r *Repository) Fail(ctx context.Context, id string, message string) error {
	now := time.Now()
	return r.transition(ctx, id, []entities.ImportJobStatus{entities.ImportJobQueued, entities.ImportJobRunning}, map[string]any{
		"status":         entities.ImportJobFailed,
		"error":          message,
		"source_content": "",
		"completed_at":   now,
		"updated_at":     now,
	})
}

// FailStale fails running jobs not touched since cutoff. It returns the
// number of jobs failed. Queued jobs are left alone; see ListQueuedBefore.
func (r *Repository) FailStale(ctx context.Context, cutoff time.Time) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&entities.ImportJob{}).
		Where("status = ? AND updated_at < ?", entities.ImportJobRunning, cutoff).
		Updates(map[string]any{
			"status":         entities.ImportJobFailed,
			"error":          InterruptedMessage,
			"source_content": "",
			"completed_at":   now,
			"updated_at":     now,
		})
	return result.RowsAffected, result.Error
}

// ListQueuedBefore returns queued jobs created before cutoff, oldest first,
// without their source content.
func (r *Repository) ListQueuedBefore(ctx context.Context, cutoff time.Time) ([]entities.ImportJob, error) {
	var jobs []entities.ImportJob
	err := r.db.WithContext(ctx).
		Omit("source_content", "failed_bookmarks").
		Where("status = ? AND created_at < ?", entities.ImportJobQueued, cutoff).
		Order("created_at ASC").
		Find(&jobs).Error
	return jobs, err
}

// FailQueued fails a job that is still queued. It returns
// ErrInvalidTransition when the job has started in the meantime.
func (r *Repository) FailQueued(ctx context.Context, id, message string) error {
	now := time.Now()
	return r.transition(ctx, id, []entities.ImportJobStatus{entities.ImportJobQueued}, map[string]any{
		"status":         entities.ImportJobFailed,
		"error":          message,
		"source_content": "",
		"completed_at":   now,
		"updated_at":     now,
	})
}

// progress updates counters on a running job.
func (r *Repository) progress(ctx context.Context, id string, changes map[string]any) error {
	return r.transition(ctx, id, []entities.ImportJobStatus{entities.ImportJobRunning}, changes)
}

func (r *Repository) transition(ctx context.Context, id string, from []entities.ImportJobStatus, changes map[string]any) error {
	result := r.db.WithContext(ctx).Model(&entities.ImportJob{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(changes)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}
