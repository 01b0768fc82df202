// Package runner schedules the background maintenance jobs.
package runner

import (
	"context"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
)

var jobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "remfix_job_runs_total",
	Help: "Background job executions by job and result.",
}, []string{"job", "result"})

// Job is one scheduled background task.
type Job interface {
	Name() string
	Schedule() string // cron expression
	Run(ctx context.Context) error
}

// Runner drives jobs on their cron schedules.
type Runner struct {
	cron   *cron.Cron
	logger *log.Logger
}

// Option configures the runner.
type Option func(*Runner)

// WithLogger sets a custom logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates an empty runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		cron:   cron.New(),
		logger: log.New(log.Writer(), "[RUNNER] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a job to the schedule.
func (r *Runner) Register(job Job) error {
	_, err := r.cron.AddFunc(job.Schedule(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := job.Run(ctx); err != nil {
			jobRunsTotal.WithLabelValues(job.Name(), "error").Inc()
			r.logger.Printf("job %s: %v", job.Name(), err)
			return
		}
		jobRunsTotal.WithLabelValues(job.Name(), "ok").Inc()
	})
	if err != nil {
		return err
	}
	r.logger.Printf("registered job %s (%s)", job.Name(), job.Schedule())
	return nil
}

// Start launches the scheduler in its own goroutine.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts scheduling and waits for running jobs.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}
