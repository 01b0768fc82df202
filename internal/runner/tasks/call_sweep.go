package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/remfix/remfix/internal/repository"
)

// staleCallAge is how long a call may sit in ringing or answered before the
// sweep closes it. Providers occasionally drop the hangup webhook.
const staleCallAge = 4 * time.Hour

// CallSweepTask closes call records whose hangup event never arrived.
type CallSweepTask struct {
	calls    repository.CallRepository
	interval time.Duration
	logger   *log.Logger
}

// NewCallSweepTask creates the sweep job.
func NewCallSweepTask(calls repository.CallRepository, interval time.Duration) *CallSweepTask {
	return &CallSweepTask{
		calls:    calls,
		interval: interval,
		logger:   log.New(log.Writer(), "[CALL-SWEEP] ", log.LstdFlags),
	}
}

// Name returns the task name.
func (t *CallSweepTask) Name() string {
	return "call-sweep"
}

// Schedule converts the configured interval into a cron expression.
func (t *CallSweepTask) Schedule() string {
	return IntervalSchedule(t.interval)
}

// Run closes stale open calls.
func (t *CallSweepTask) Run(ctx context.Context) error {
	n, err := t.calls.SweepStale(ctx, staleCallAge)
	if err != nil {
		return fmt.Errorf("sweep stale calls: %w", err)
	}
	if n > 0 {
		t.logger.Printf("closed %d stale calls", n)
	}
	return nil
}
