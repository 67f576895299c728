package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/marked/internal/database/jobs"
	"github.com/mrlokans/marked/internal/entities"
	"github.com/mrlokans/marked/internal/logger"
)

// Maintenance job names.
const (
	JobStaleImportReaper = "stale_import_reaper"
	JobAuditCleanup      = "audit_cleanup"
	JobOrphanTagCleanup  = "orphan_tag_cleanup"
)

// StaleJobFailer fails import jobs that will never finish.
type StaleJobFailer interface {
	FailStale(ctx context.Context, cutoff time.Time) (int64, error)
	ListQueuedBefore(ctx context.Context, cutoff time.Time) ([]entities.ImportJob, error)
	FailQueued(ctx context.Context, id, message string) error
}

// PendingChecker reports whether a queued job is still due to be run.
type PendingChecker interface {
	IsPending(ctx context.Context, job *entities.ImportJob) (bool, error)
}

// TaskEnqueuer adds tasks to the background queue.
type TaskEnqueuer interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// StaleImportReaper fails running imports not updated within staleAfter,
// which happens when the process died mid-import. Queued jobs older than
// staleAfter are failed only when pending reports that nothing will run
// them; a nil pending leaves queued jobs alone.
func StaleImportReaper(store StaleJobFailer, pending PendingChecker, staleAfter time.Duration, schedule string, log logger.Logger) Job {
	if log == nil {
		log = logger.Nop()
	}
	return Job{
		Name:     JobStaleImportReaper,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().Add(-staleAfter)
			failed, err := store.FailStale(ctx, cutoff)
			if err != nil {
				return fmt.Errorf("fail stale imports: %w", err)
			}
			if failed > 0 {
				log.Warn("failed stale import jobs",
					logger.Int64("count", failed),
					logger.Duration("stale_after", staleAfter))
			}

			if pending == nil {
				return nil
			}
			abandoned, err := failAbandoned(ctx, store, pending, cutoff)
			if abandoned > 0 {
				log.Warn("failed abandoned import jobs", logger.Int("count", abandoned))
			}
			return err
		},
	}
}

func failAbandoned(ctx context.Context, store StaleJobFailer, pending PendingChecker, cutoff time.Time) (int, error) {
	queued, err := store.ListQueuedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list queued imports: %w", err)
	}

	failed := 0
	for i := range queued {
		ok, err := pending.IsPending(ctx, &queued[i])
		if err != nil {
			return failed, fmt.Errorf("check import %s: %w", queued[i].ID, err)
		}
		if ok {
			continue
		}
		err = store.FailQueued(ctx, queued[i].ID, jobs.AbandonedMessage)
		if errors.Is(err, jobs.ErrInvalidTransition) {
			continue // started meanwhile
		}
		if err != nil {
			return failed, fmt.Errorf("fail import %s: %w", queued[i].ID, err)
		}
		failed++
	}
	return failed, nil
}

// EnqueueTask returns a job that hands task to the background queue.
func EnqueueTask(name, schedule string, queue TaskEnqueuer, task backlite.Task) Job {
	return Job{
		Name:     name,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			if _, err := queue.Add(task).Ctx(ctx).Save(); err != nil {
				return fmt.Errorf("enqueue %s: %w", name, err)
			}
			return nil
		},
	}
}
