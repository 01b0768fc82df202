// Package tasks holds the background job implementations.
package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/remfix/remfix/internal/repository"
)

// SessionCleanupTask deletes expired and idle sessions.
type SessionCleanupTask struct {
	sessions repository.SessionRepository
	maxAge   time.Duration
	idleAge  time.Duration
	interval time.Duration
	logger   *log.Logger
}

// NewSessionCleanupTask creates the cleanup job.
func NewSessionCleanupTask(sessions repository.SessionRepository, maxAge, idleAge, interval time.Duration) *SessionCleanupTask {
	return &SessionCleanupTask{
		sessions: sessions,
		maxAge:   maxAge,
		idleAge:  idleAge,
		interval: interval,
		logger:   log.New(log.Writer(), "[SESSION-CLEANUP] ", log.LstdFlags),
	}
}

// Name returns the task name.
func (t *SessionCleanupTask) Name() string {
	return "session-cleanup"
}

// Schedule converts the configured interval into a cron expression.
func (t *SessionCleanupTask) Schedule() string {
	return IntervalSchedule(t.interval)
}

// Run deletes expired sessions.
func (t *SessionCleanupTask) Run(ctx context.Context) error {
	n, err := t.sessions.DeleteExpired(ctx, t.maxAge, t.idleAge)
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	if n > 0 {
		t.logger.Printf("removed %d expired sessions", n)
	}
	return nil
}

// IntervalSchedule turns a duration into a minute-granular cron expression.
// Sub-minute intervals round up to every minute; intervals of an hour or
// more run at the top of each hour.
func IntervalSchedule(interval time.Duration) string {
	minutes := int(interval.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	if minutes >= 60 {
		return "0 * * * *"
	}
	return fmt.Sprintf("*/%d * * * *", minutes)
}
