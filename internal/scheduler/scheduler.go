// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/marked/internal/logger"
)

// Job is one periodic maintenance job.
type Job struct {
	Name     string
	Schedule string // five-field cron expression
	Run      func(ctx context.Context) error
}

type entry struct {
	job     Job
	id      cron.EntryID
	running bool
}

// Scheduler runs jobs on their schedules. A job whose previous run is still
// in progress is skipped for that tick.
type Scheduler struct {
	cron    *cron.Cron
	logger  logger.Logger
	timeout time.Duration

	mu        sync.Mutex
	entries   map[string]*entry
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

func newParser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
}

// New creates a scheduler. timeout bounds a single job run; zero means no limit.
func New(timeout time.Duration, log logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithParser(newParser())),
		logger:  log.Named("scheduler"),
		timeout: timeout,
		entries: make(map[string]*entry),
	}
}

// Add registers a job. Jobs with an empty schedule are ignored so that a
// schedule can be disabled through configuration.
func (s *Scheduler) Add(job Job) error {
	if job.Schedule == "" {
		s.logger.Info("job disabled", logger.String("job", job.Name))
		return nil
	}
	if err := ValidateSchedule(job.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[job.Name]; exists {
		return fmt.Errorf("job %s already registered", job.Name)
	}

	e := &entry{job: job}
	id, err := s.cron.AddFunc(job.Schedule, func() { s.run(e) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
	}
	e.id = id
	s.entries[job.Name] = e
	return nil
}

// Start begins running jobs. Stop is called when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.isRunning = true

	for name, e := range s.entries {
		s.logger.Info("job scheduled",
			logger.String("job", name),
			logger.String("schedule", e.job.Schedule),
			logger.String("description", DescribeSchedule(e.job.Schedule)))
	}

	runCtx := s.ctx
	go func() {
		<-runCtx.Done()
		s.Stop()
	}()
}

// Stop waits for running jobs to finish. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	// Jobs take the lock themselves, so wait without holding it.
	<-s.cron.Stop().Done()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.logger.Info("scheduler stopped")
}

// RunNow runs a registered job immediately and waits for it.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %s", name)
	}
	return s.execute(ctx, e)
}

// NextRun returns when the job runs next, or nil when the scheduler is
// stopped or the job is unknown.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return nil
	}
	e, ok := s.entries[name]
	if !ok {
		return nil
	}
	next := s.cron.Entry(e.id).Next
	return &next
}

func (s *Scheduler) run(e *entry) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.execute(ctx, e); err != nil && !errors.Is(err, errSkipped) {
		s.logger.Error("job failed", logger.String("job", e.job.Name), logger.Error(err))
	}
}

var errSkipped = errors.New("previous run still in progress")

func (s *Scheduler) execute(ctx context.Context, e *entry) error {
	s.mu.Lock()
	if e.running {
		s.mu.Unlock()
		s.logger.Warn("job skipped, previous run still in progress", logger.String("job", e.job.Name))
		return errSkipped
	}
	e.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		e.running = false
		s.mu.Unlock()
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := e.job.Run(ctx)
	if err == nil {
		s.logger.Debug("job finished",
			logger.String("job", e.job.Name),
			logger.Duration("elapsed", time.Since(start)))
	}
	return err
}

// ValidateSchedule checks that schedule is a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := newParser().Parse(schedule)
	return err
}

// NextRunTime calculates when schedule fires next after from.
func NextRunTime(schedule string, from time.Time) (time.Time, error) {
	sched, err := newParser().Parse(schedule)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// DescribeSchedule returns a human-readable description of common schedules.
func DescribeSchedule(schedule string) string {
	switch schedule {
	case "*/5 * * * *":
		return "Every 5 minutes"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "0 * * * *":
		return "Every hour at :00"
	case "0 3 * * *":
		return "Daily at 03:00"
	case "30 3 * * *":
		return "Daily at 03:30"
	case "0 0 * * *":
		return "Daily at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}
