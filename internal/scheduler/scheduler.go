// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/user/sentrix/internal/state"
)

// Job is a named piece of work run on a cron schedule. An empty Schedule
// disables the job.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Scheduler runs jobs on their cron schedules. A job that is still running
// when its next tick arrives skips that tick.
type Scheduler struct {
	jobs    []Job
	timeout time.Duration
	cron    *cron.Cron
	cancel  context.CancelFunc
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a Scheduler for jobs. Each run gets a context bounded by
// timeout; zero means no per-run limit.
func New(timeout time.Duration, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:    jobs,
		timeout: timeout,
	}
}

// Validate checks that every enabled job's schedule parses.
func Validate(jobs []Job) error {
	for _, job := range jobs {
		if job.Schedule == "" {
			continue
		}
		if _, err := cronParser.Parse(job.Schedule); err != nil {
			return fmt.Errorf("invalid schedule %q for %s: %w", job.Schedule, job.Name, err)
		}
	}
	return nil
}

// Start registers the enabled jobs and starts the cron ticker. Runs stop
// when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := Validate(s.jobs); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.cron = cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	for _, job := range s.jobs {
		if job.Schedule == "" {
			slog.Debug("job disabled", "name", job.Name)
			continue
		}

		job := job
		if _, err := s.cron.AddFunc(job.Schedule, func() { s.run(runCtx, job) }); err != nil {
			cancel()
			return fmt.Errorf("schedule %s: %w", job.Name, err)
		}
		slog.Info("scheduled job", "name", job.Name, "schedule", job.Schedule)
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) run(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	slog.Debug("cron firing job", "name", job.Name)
	if err := job.Run(ctx); err != nil {
		slog.Warn("job failed", "name", job.Name, "error", err, "duration", time.Since(start))
		return
	}
	slog.Debug("job finished", "name", job.Name, "duration", time.Since(start))
}

// Stop stops the cron ticker, cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
}

// RefreshJobs returns the jobs that keep a store's dashboard and report
// index current.
func RefreshJobs(store *state.Store, dashboardSchedule, reportsSchedule string) []Job {
	return []Job{
		{Name: "dashboard", Schedule: dashboardSchedule, Run: store.Dashboard.Refresh},
		{Name: "reports", Schedule: reportsSchedule, Run: store.Reports.Refresh},
	}
}
