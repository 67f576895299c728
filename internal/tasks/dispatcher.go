package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mrlokans/marked/internal/entities"
	"github.com/mrlokans/marked/internal/logger"
)

// Dispatcher hands a stored, queued import job to whatever executes it.
// Dispatch must return without waiting for the import to finish.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobID string) error
}

// TaskIDRecorder stores the queue task id on the job.
type TaskIDRecorder interface {
	SetTaskID(ctx context.Context, id, taskID string) error
}

// QueueDispatcher enqueues imports on the backlite queue.
type QueueDispatcher struct {
	client *Client
	jobs   TaskIDRecorder
	logger logger.Logger
}

func NewQueueDispatcher(client *Client, jobs TaskIDRecorder, log logger.Logger) *QueueDispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &QueueDispatcher{client: client, jobs: jobs, logger: log.Named("dispatch")}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, jobID string) error {
	ids, err := d.client.Add(ImportBookmarksTask{JobID: jobID}).Ctx(ctx).Save()
	if err != nil {
		return fmt.Errorf("enqueue import job %s: %w", jobID, err)
	}
	if len(ids) > 0 && d.jobs != nil {
		// Without a task id the reaper cannot tell the job is pending. The
		// caller fails the job, and the runner skips it when the task fires.
		if err := d.jobs.SetTaskID(ctx, jobID, ids[0]); err != nil {
			return fmt.Errorf("record task id for import job %s: %w", jobID, err)
		}
		d.logger.Debug("import job enqueued", logger.String("job_id", jobID), logger.String("task_id", ids[0]))
	}
	return nil
}

// IsPending reports whether the job's queue task still exists.
func (d *QueueDispatcher) IsPending(ctx context.Context, job *entities.ImportJob) (bool, error) {
	if job.TaskID == "" {
		return false, nil
	}
	return d.client.TaskPending(ctx, job.TaskID)
}

// Runner executes one import job to completion.
type Runner interface {
	Run(ctx context.Context, jobID string) error
}

// InlineDispatcher runs imports on goroutines of this process, at most
// workers at a time. It is used when the task queue is disabled.
type InlineDispatcher struct {
	runner Runner
	logger logger.Logger
	sem    chan struct{}

	startedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewInlineDispatcher(runner Runner, workers int, log logger.Logger) *InlineDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &InlineDispatcher{
		runner:    runner,
		logger:    log.Named("dispatch"),
		sem:          make(chan struct{}, workers),
		startedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// IsPending reports whether job was handed to this dispatcher. Queued jobs
// created before it started belonged to an earlier process and are lost.
func (d *InlineDispatcher) IsPending(_ context.Context, job *entities.ImportJob) (bool, error) {
	return !job.CreatedAt.Before(d.startedAt), nil
}

// ErrDispatcherClosed is returned by Dispatch after Shutdown.
var ErrDispatcherClosed = errors.New("dispatcher is shut down")

// Dispatch starts the job in the background. The request context is not
// used for the import so that it outlives the request.
func (d *InlineDispatcher) Dispatch(_ context.Context, jobID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		select {
		case d.sem <- struct{}{}:
		case <-d.ctx.Done():
			// Still queued; the stale job reaper fails it later.
			return
		}
		defer func() { <-d.sem }()

		if err := d.runner.Run(d.ctx, jobID); err != nil {
			d.logger.Error("inline import failed", logger.String("job_id", jobID), logger.Error(err))
		}
	}()
	return nil
}

// Shutdown stops accepting jobs and waits for running ones. When ctx
// expires first, running imports are cancelled and Shutdown returns false.
func (d *InlineDispatcher) Shutdown(ctx context.Context) bool {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return true
	case <-ctx.Done():
		d.cancel()
		<-done
		return false
	}
}
