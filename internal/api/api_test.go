package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/remfix/remfix/internal/config"
	"github.com/remfix/remfix/internal/database"
	"github.com/remfix/remfix/internal/middleware"
	"github.com/remfix/remfix/internal/models"
	"github.com/remfix/remfix/internal/realtime"
	"github.com/remfix/remfix/internal/repository"
	"github.com/remfix/remfix/internal/service"
	"github.com/remfix/remfix/internal/telephony"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	api      *API
	router   *gin.Engine
	users    repository.UserRepository
	sessions repository.SessionRepository
	masters  repository.MasterRepository
	tickets  *service.TicketService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	cfg := &config.Config{}
	cfg.Auth.SessionMaxAge = 8 * time.Hour
	cfg.Auth.SessionIdleAge = 2 * time.Hour
	cfg.Auth.JWTSecret = "test-secret"
	cfg.RateLimit.LoginPerHour = 100
	cfg.Telephony.ZadarmaSecret = "zdsecret"

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	masterRepo := repository.NewMasterRepository(db)
	callRepo := repository.NewCallRepository(db)
	fraudRepo := repository.NewFraudRepository(db)

	hub := realtime.NewHub()
	authSvc := service.NewAuthService(users, sessions, cfg.Auth.SessionMaxAge, cfg.Auth.SessionIdleAge)
	ticketSvc := service.NewTicketService(ticketRepo, historyRepo, masterRepo, hub)
	masterSvc := service.NewMasterService(masterRepo, hub)
	statsSvc := service.NewStatsService(ticketRepo, masterRepo, fraudRepo, callRepo)
	telSvc := telephony.NewService(callRepo, hub, cfg.Telephony)

	a := New(Deps{
		Config:         cfg,
		Auth:           authSvc,
		Tickets:        ticketSvc,
		Masters:        masterSvc,
		Stats:          statsSvc,
		Telephony:      telSvc,
		Customers:      repository.NewCustomerRepository(db),
		ServiceCenters: repository.NewServiceCenterRepository(db),
		Fraud:          fraudRepo,
		Hub:            hub,
		Limiter:        middleware.NewRateLimiter(),
	})

	return &testEnv{
		api:      a,
		router:   a.Router(),
		users:    users,
		sessions: sessions,
		masters:  masterRepo,
		tickets:  ticketSvc,
	}
}

// seedSession creates a user with the given role plus a live session, and
// returns the session cookie value.
func (e *testEnv) seedSession(t *testing.T, role string, masterID *int64) string {
	t.Helper()
	ctx := context.Background()

	user := &models.User{
		Username:     role + "-" + uuid.NewString()[:8],
		PasswordHash: "x",
		FullName:     "Test " + role,
		Role:         role,
		MasterID:     masterID,
		ValidID:      1,
	}
	require.NoError(t, e.users.Create(ctx, user))

	now := time.Now().UTC()
	session := &models.Session{
		SessionID:   uuid.NewString(),
		UserID:      user.ID,
		Username:    user.Username,
		Role:        role,
		CreateTime:  now,
		LastRequest: now,
	}
	require.NoError(t, e.sessions.Create(ctx, session))
	return session.SessionID
}

func (e *testEnv) request(t *testing.T, method, path, sessionID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: models.SessionCookieName, Value: sessionID})
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createTicket(t *testing.T) *models.Ticket {
	t.Helper()
	ticket, err := e.tickets.Create(context.Background(), &service.CreateInput{
		CustomerName:  "Olim Karimov",
		CustomerPhone: "+998935554433",
		Address:       "Tashkent, Chilonzor 5",
		DeviceType:    "washing machine",
		Issue:         "does not spin",
	})
	require.NoError(t, err)
	return ticket
}
