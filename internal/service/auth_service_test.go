package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remfix/remfix/internal/models"
	"github.com/remfix/remfix/internal/repository"
)

func seedUser(t *testing.T, users repository.UserRepository, username, password, role string) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Username: username, PasswordHash: hash, FullName: "Test User", Role: role}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestLoginAndValidate(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	svc := NewAuthService(users, sessions, 8*time.Hour, 2*time.Hour)
	ctx := context.Background()

	seedUser(t, users, "operator1", "correct horse", models.RoleOperator)

	user, session, err := svc.Login(ctx, "operator1", "correct horse", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOperator, user.Role)
	require.NotEmpty(t, session.SessionID)

	got, err := svc.ValidateSession(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
	assert.Equal(t, models.RoleOperator, got.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	svc := NewAuthService(users, sessions, time.Hour, 0)
	ctx := context.Background()

	seedUser(t, users, "operator1", "correct horse", models.RoleOperator)

	_, _, err := svc.Login(ctx, "operator1", "wrong", "", "")
	assert.True(t, errors.Is(err, ErrBadCredentials))

	_, _, err = svc.Login(ctx, "nobody", "whatever", "", "")
	assert.True(t, errors.Is(err, ErrBadCredentials), "unknown user must yield the same error as a bad password")
}

func TestLoginRejectsDisabledUser(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	svc := NewAuthService(users, sessions, time.Hour, 0)
	ctx := context.Background()

	u := seedUser(t, users, "gone", "pw", models.RoleOperator)
	_, err := db.Exec(db.Rebind(`UPDATE users SET valid_id = 2 WHERE id = ?`), u.ID)
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "gone", "pw", "", "")
	assert.True(t, errors.Is(err, ErrBadCredentials))
}

func TestValidateSessionExpiry(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	svc := NewAuthService(users, sessions, 30*time.Minute, 0)
	ctx := context.Background()

	old := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, sessions.Create(ctx, &models.Session{
		SessionID:   "stale",
		UserID:      1,
		Username:    "x",
		Role:        models.RoleAdmin,
		CreateTime:  old,
		LastRequest: old,
	}))

	_, err := svc.ValidateSession(ctx, "stale")
	assert.True(t, errors.Is(err, ErrSessionExpired))

	// expired sessions are deleted on detection
	_, err = sessions.GetByID(ctx, "stale")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestLogout(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	svc := NewAuthService(users, sessions, time.Hour, 0)
	ctx := context.Background()

	seedUser(t, users, "op", "pw", models.RoleOperator)
	_, session, err := svc.Login(ctx, "op", "pw", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.SessionID))
	_, err = svc.ValidateSession(ctx, session.SessionID)
	assert.Error(t, err)
}

func TestHashPasswordNotPlaintext(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, len(hash) > 50)
}
