// Package telephony verifies and normalizes webhook callbacks from the
// supported PBX providers (Zadarma, OnlinePBX, Twilio) into call records
// and realtime dashboard events.
package telephony

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/remfix/remfix/internal/config"
	"github.com/remfix/remfix/internal/models"
	"github.com/remfix/remfix/internal/realtime"
	"github.com/remfix/remfix/internal/repository"
)

var verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "remfix_webhook_verifications_total",
	Help: "Webhook signature checks by provider and result.",
}, []string{"provider", "result"})

// ErrBadSignature is returned when a webhook fails signature verification,
// including the fail-closed case where no secret is configured.
var ErrBadSignature = errors.New("webhook signature verification failed")

// ErrUnknownEvent is returned for provider events the service does not handle.
var ErrUnknownEvent = errors.New("unknown provider event")

// Service processes provider webhooks.
type Service struct {
	calls  repository.CallRepository
	hub    realtime.Broadcaster
	cfg    config.TelephonyConfig
	logger *log.Logger
	now    func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the clock; used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a telephony service.
func NewService(calls repository.CallRepository, hub realtime.Broadcaster, cfg config.TelephonyConfig, opts ...Option) *Service {
	s := &Service{
		calls:  calls,
		hub:    hub,
		cfg:    cfg,
		logger: log.New(log.Writer(), "[TELEPHONY] ", log.LstdFlags),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// skipVerification reports whether an empty secret means "skip" rather than
// "reject". Verification fails closed by default; the operator must opt in
// to running unverified.
func (s *Service) skipVerification(secret, provider string) bool {
	if secret != "" {
		return false
	}
	if s.cfg.AllowUnverified {
		s.logger.Printf("WARNING: %s secret not configured, accepting unverified webhooks", provider)
		return true
	}
	return false
}

// verify runs the provider's signature check and records the outcome. With
// no secret configured the check cannot pass, so the request is rejected
// unless AllowUnverified skips it.
func (s *Service) verify(provider, secret string, check func() bool) error {
	if s.skipVerification(secret, provider) {
		verificationsTotal.WithLabelValues(provider, "skipped").Inc()
		return nil
	}
	if !check() {
		verificationsTotal.WithLabelValues(provider, "rejected").Inc()
		return ErrBadSignature
	}
	verificationsTotal.WithLabelValues(provider, "ok").Inc()
	return nil
}

// Recent returns the latest call records for the dashboard call log.
func (s *Service) Recent(ctx context.Context, limit int) ([]*models.CallRecord, error) {
	return s.calls.List(ctx, limit)
}

// open finds the live record for a provider call id, or creates one when the
// start event was lost.
func (s *Service) open(ctx context.Context, provider, providerID, direction, from, to string) (*models.CallRecord, error) {
	cr, err := s.calls.GetByProviderID(ctx, provider, providerID)
	if err == nil {
		return cr, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	cr = &models.CallRecord{
		Provider:   provider,
		ProviderID: providerID,
		Direction:  direction,
		FromNumber: from,
		ToNumber:   to,
		Status:     models.CallStatusRinging,
		StartedAt:  s.now().UTC(),
	}
	if err := s.calls.Create(ctx, cr); err != nil {
		return nil, err
	}
	return cr, nil
}

func (s *Service) close(ctx context.Context, cr *models.CallRecord, status string) error {
	ended := s.now().UTC()
	if err := s.calls.UpdateStatus(ctx, cr.ID, status, &ended); err != nil {
		return err
	}
	cr.Status = status
	cr.EndedAt = &ended
	return nil
}
