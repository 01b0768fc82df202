// Package service holds the business logic between the HTTP layer and the
// repositories.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/remfix/remfix/internal/models"
	"github.com/remfix/remfix/internal/repository"
)

// ErrBadCredentials is returned for a wrong username or password. One error
// for both cases so responses do not leak which part was wrong.
var ErrBadCredentials = errors.New("invalid username or password")

// ErrSessionExpired is returned when a session exists but has timed out.
var ErrSessionExpired = errors.New("session expired")

// AuthService handles login, logout, and session validation. Passwords are
// stored as bcrypt hashes; comparison goes through bcrypt which is
// constant-time over the hash.
type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	maxAge   time.Duration
	idleAge  time.Duration
	logger   *log.Logger
}

// AuthOption configures the service.
type AuthOption func(*AuthService)

// WithAuthLogger sets a custom logger.
func WithAuthLogger(l *log.Logger) AuthOption {
	return func(s *AuthService) { s.logger = l }
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, sessions repository.SessionRepository, maxAge, idleAge time.Duration, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:    users,
		sessions: sessions,
		maxAge:   maxAge,
		idleAge:  idleAge,
		logger:   log.New(log.Writer(), "[AUTH] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies credentials and issues a session.
func (s *AuthService) Login(ctx context.Context, username, password, remoteAddr, userAgent string) (*models.User, *models.Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// burn a bcrypt round anyway so missing users cost the same
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0W6QJ1B1G0cW9eXaaO9mJ0P6u1m"), []byte(password))
			return nil, nil, ErrBadCredentials
		}
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsValid() {
		return nil, nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrBadCredentials
	}

	now := time.Now().UTC()
	session := &models.Session{
		SessionID:   uuid.NewString(),
		UserID:      user.ID,
		Username:    user.Username,
		Role:        user.Role,
		RemoteAddr:  remoteAddr,
		UserAgent:   userAgent,
		CreateTime:  now,
		LastRequest: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	s.logger.Printf("user %s logged in from %s", user.Username, remoteAddr)
	return user, session, nil
}

// Logout deletes the session. Unknown session IDs are a no-op.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// ValidateSession loads a session, enforces its lifetime, and bumps the
// idle timer.
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if session.ExpiredAt(now, s.maxAge, s.idleAge) {
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, ErrSessionExpired
	}
	if err := s.sessions.UpdateLastRequest(ctx, sessionID, now); err != nil {
		s.logger.Printf("touch session: %v", err)
	}
	return session, nil
}

// User loads the session's account.
func (s *AuthService) User(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
