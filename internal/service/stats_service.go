package service

import (
	"context"
	"time"

	"github.com/remfix/remfix/internal/repository"
	"github.com/remfix/remfix/internal/status"
)

// Stats is the dashboard summary payload.
type Stats struct {
	TicketsByStatus map[string]int64 `json:"tickets_by_status"`
	TicketsTotal    int64            `json:"tickets_total"`
	TicketsOpen     int64            `json:"tickets_open"`
	MastersTotal    int              `json:"masters_total"`
	MastersOnline   int              `json:"masters_online"`
	OpenFraudAlerts int              `json:"open_fraud_alerts"`
	RecentCalls     int              `json:"recent_calls"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// StatsService aggregates the dashboard numbers.
type StatsService struct {
	tickets repository.TicketRepository
	masters repository.MasterRepository
	fraud   repository.FraudRepository
	calls   repository.CallRepository
	now     func() time.Time
}

// NewStatsService creates a new stats service.
func NewStatsService(tickets repository.TicketRepository, masters repository.MasterRepository, fraud repository.FraudRepository, calls repository.CallRepository) *StatsService {
	return &StatsService{tickets: tickets, masters: masters, fraud: fraud, calls: calls, now: time.Now}
}

// Summary computes the current dashboard stats.
func (s *StatsService) Summary(ctx context.Context) (*Stats, error) {
	byStatus, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	var total, open int64
	for slug, n := range byStatus {
		total += n
		if slug != status.Closed && slug != status.Delivered {
			open += n
		}
	}

	masters, err := s.masters.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	online := 0
	for _, m := range masters {
		if m.OnlineAt(now) {
			online++
		}
	}

	alerts, err := s.fraud.List(ctx, false)
	if err != nil {
		return nil, err
	}
	calls, err := s.calls.List(ctx, 100)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TicketsByStatus: byStatus,
		TicketsTotal:    total,
		TicketsOpen:     open,
		MastersTotal:    len(masters),
		MastersOnline:   online,
		OpenFraudAlerts: len(alerts),
		RecentCalls:     len(calls),
		GeneratedAt:     now.UTC(),
	}, nil
}
