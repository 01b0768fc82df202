package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/remfix/remfix/internal/models"
)

// SessionRepository defines the interface for session operations.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, sessionID string) (*models.Session, error)
	UpdateLastRequest(ctx context.Context, sessionID string, at time.Time) error
	Delete(ctx context.Context, sessionID string) error
	DeleteByUserID(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context, maxAge, idle time.Duration) (int64, error)
}

// SessionSQLRepository handles database operations for the sessions table.
type SessionSQLRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sqlx.DB) *SessionSQLRepository {
	return &SessionSQLRepository{db: db}
}

// Create stores a new session.
func (r *SessionSQLRepository) Create(ctx context.Context, session *models.Session) error {
	if session.SessionID == "" {
		return errors.New("session ID is required")
	}
	query := r.db.Rebind(`
		INSERT INTO sessions (session_id, user_id, username, role, remote_addr, user_agent, create_time, last_request)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query,
		session.SessionID, session.UserID, session.Username, session.Role,
		session.RemoteAddr, session.UserAgent, session.CreateTime, session.LastRequest,
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetByID fetches one session.
func (r *SessionSQLRepository) GetByID(ctx context.Context, sessionID string) (*models.Session, error) {
	var s models.Session
	query := r.db.Rebind(`SELECT * FROM sessions WHERE session_id = ?`)
	if err := r.db.GetContext(ctx, &s, query, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}
	return &s, nil
}

// UpdateLastRequest bumps the idle timer.
func (r *SessionSQLRepository) UpdateLastRequest(ctx context.Context, sessionID string, at time.Time) error {
	query := r.db.Rebind(`UPDATE sessions SET last_request = ? WHERE session_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, at.UTC(), sessionID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// Delete removes one session (logout).
func (r *SessionSQLRepository) Delete(ctx context.Context, sessionID string) error {
	query := r.db.Rebind(`DELETE FROM sessions WHERE session_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByUserID removes all of a user's sessions, returning the count.
func (r *SessionSQLRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	query := r.db.Rebind(`DELETE FROM sessions WHERE user_id = ?`)
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions for user %d: %w", userID, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DeleteExpired removes sessions past their lifetime or idle limit.
func (r *SessionSQLRepository) DeleteExpired(ctx context.Context, maxAge, idle time.Duration) (int64, error) {
	now := time.Now().UTC()
	var total int64

	if maxAge > 0 {
		query := r.db.Rebind(`DELETE FROM sessions WHERE create_time <= ?`)
		res, err := r.db.ExecContext(ctx, query, now.Add(-maxAge))
		if err != nil {
			return total, fmt.Errorf("delete aged sessions: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	if idle > 0 {
		query := r.db.Rebind(`DELETE FROM sessions WHERE last_request <= ?`)
		res, err := r.db.ExecContext(ctx, query, now.Add(-idle))
		if err != nil {
			return total, fmt.Errorf("delete idle sessions: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}
