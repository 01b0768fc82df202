package service

import (
	"context"
	"log"
	"time"

	"github.com/remfix/remfix/internal/models"
	"github.com/remfix/remfix/internal/realtime"
	"github.com/remfix/remfix/internal/repository"
)

// MasterView is a master plus the derived online flag the dashboard shows.
type MasterView struct {
	*models.Master
	Online bool `json:"online"`
}

// MasterService manages technicians and their live location.
type MasterService struct {
	masters repository.MasterRepository
	hub     realtime.Broadcaster
	now     func() time.Time
	logger  *log.Logger
}

// MasterOption configures the service.
type MasterOption func(*MasterService)

// WithMasterClock overrides the clock; used by tests.
func WithMasterClock(now func() time.Time) MasterOption {
	return func(s *MasterService) { s.now = now }
}

// WithMasterLogger sets a custom logger.
func WithMasterLogger(l *log.Logger) MasterOption {
	return func(s *MasterService) { s.logger = l }
}

// NewMasterService creates a new master service.
func NewMasterService(masters repository.MasterRepository, hub realtime.Broadcaster, opts ...MasterOption) *MasterService {
	s := &MasterService{
		masters: masters,
		hub:     hub,
		now:     time.Now,
		logger:  log.New(log.Writer(), "[MASTER] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new master.
func (s *MasterService) Create(ctx context.Context, m *models.Master) error {
	return s.masters.Create(ctx, m)
}

// Get returns one master with the derived online state.
func (s *MasterService) Get(ctx context.Context, id int64) (*MasterView, error) {
	m, err := s.masters.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &MasterView{Master: m, Online: m.OnlineAt(s.now())}, nil
}

// List returns all masters with derived online state.
func (s *MasterService) List(ctx context.Context) ([]*MasterView, error) {
	masters, err := s.masters.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]*MasterView, 0, len(masters))
	for _, m := range masters {
		views = append(views, &MasterView{Master: m, Online: m.OnlineAt(now)})
	}
	return views, nil
}

// Update rewrites a master's profile.
func (s *MasterService) Update(ctx context.Context, m *models.Master) error {
	return s.masters.Update(ctx, m)
}

// Delete removes a master.
func (s *MasterService) Delete(ctx context.Context, id int64) error {
	return s.masters.Delete(ctx, id)
}

// UpdateLocation stores a GPS fix from the field-agent app and broadcasts
// master_location so the dashboard map moves without polling.
func (s *MasterService) UpdateLocation(ctx context.Context, id int64, lat, lng float64) error {
	at := s.now().UTC()
	if err := s.masters.UpdateLocation(ctx, id, lat, lng, at); err != nil {
		return err
	}
	s.hub.Broadcast(realtime.Event{Type: realtime.EventMasterLocation, Payload: map[string]interface{}{
		"master_id": id,
		"latitude":  lat,
		"longitude": lng,
		"at":        at,
	}})
	return nil
}
