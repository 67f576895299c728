package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/marked/internal/database/jobs"
	"github.com/mrlokans/marked/internal/entities"
	"github.com/mrlokans/marked/internal/importers"
	"github.com/mrlokans/marked/internal/logger"
)

// ImportQueueName is the backlite queue that runs bookmark imports.
const ImportQueueName = "import_bookmarks"

// ImportBookmarksTask runs the import pipeline for one stored job.
type ImportBookmarksTask struct {
	JobID string `json:"job_id"`
}

// Config returns the queue configuration for import tasks. A job leaves the
// queued state on its first run, so a retry could only fail; one attempt.
func (t ImportBookmarksTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        ImportQueueName,
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// JobLoader fetches a job together with its stored file content.
type JobLoader interface {
	Get(ctx context.Context, id string) (*entities.ImportJob, error)
}

// ImportAuditor records finished imports.
type ImportAuditor interface {
	LogImport(job *entities.ImportJob, result *importers.Result, err error)
}

// ImportRunner loads a queued job and feeds it to the pipeline. Both the
// backlite queue and the inline dispatcher execute imports through it.
type ImportRunner struct {
	jobs     JobLoader
	pipeline *importers.Pipeline
	auditor  ImportAuditor
	timeout  time.Duration
	logger   logger.Logger
}

func NewImportRunner(jobLoader JobLoader, pipeline *importers.Pipeline, auditor ImportAuditor, timeout time.Duration, log logger.Logger) *ImportRunner {
	if log == nil {
		log = logger.Nop()
	}
	return &ImportRunner{
		jobs:     jobLoader,
		pipeline: pipeline,
		auditor:  auditor,
		timeout:  timeout,
		logger:   log.Named("import_runner"),
	}
}

// Run executes the job. Import failures are recorded on the job itself, so
// Run only returns an error when the job could not be loaded.
func (r *ImportRunner) Run(ctx context.Context, jobID string) error {
	job, err := r.jobs.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load import job %s: %w", jobID, err)
	}
	if job.Status != entities.ImportJobQueued {
		r.logger.Warn("skipping import job that is not queued",
			logger.String("job_id", job.ID),
			logger.String("status", string(job.Status)))
		return nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	opts := importers.Options{
		WrapInFolder:   job.WrapInFolder,
		WrapFolderName: job.WrapFolderName,
	}

	start := time.Now()
	result, err := r.pipeline.ProcessImportJob(ctx, job.ID, job.UserID, job.SourceContent, importers.ImportFormat(job.SourceType), opts)
	if errors.Is(err, jobs.ErrInvalidTransition) {
		// Another worker claimed the job first.
		r.logger.Warn("import job already claimed", logger.String("job_id", job.ID))
		return nil
	}

	if err != nil {
		r.logger.Error("import job failed",
			logger.String("job_id", job.ID),
			logger.Uint("user_id", job.UserID),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err))
	} else {
		r.logger.Info("import job completed",
			logger.String("job_id", job.ID),
			logger.Uint("user_id", job.UserID),
			logger.Int("links_created", result.LinksCreated),
			logger.Int("links_skipped", result.LinksSkipped),
			logger.Int("failed", len(result.FailedBookmarks)),
			logger.Duration("elapsed", time.Since(start)))
	}

	if r.auditor != nil {
		r.auditor.LogImport(job, result, err)
	}
	return nil
}

// ImportBookmarksProcessor creates a processor function for ImportBookmarksTask.
func ImportBookmarksProcessor(runner *ImportRunner) backlite.QueueProcessor[ImportBookmarksTask] {
	return func(ctx context.Context, task ImportBookmarksTask) error {
		if runner == nil {
			return fmt.Errorf("import runner not configured")
		}
		return runner.Run(ctx, task.JobID)
	}
}

// NewImportBookmarksQueue creates a backlite queue for import tasks.
func NewImportBookmarksQueue(runner *ImportRunner) backlite.Queue {
	return backlite.NewQueue(ImportBookmarksProcessor(runner))
}
