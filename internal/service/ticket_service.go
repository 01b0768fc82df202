package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/remfix/remfix/internal/models"
	"github.com/remfix/remfix/internal/realtime"
	"github.com/remfix/remfix/internal/repository"
	"github.com/remfix/remfix/internal/status"
)

// ErrInvalidStatus is returned when a status value is outside the canonical
// lifecycle, after alias normalization.
var ErrInvalidStatus = errors.New("status is not part of the ticket lifecycle")

// AssignmentNotifier pushes an accept/reject prompt to the assigned master.
// Implemented by the Telegram bot; a nil notifier disables notifications.
type AssignmentNotifier interface {
	NotifyAssignment(ctx context.Context, t *models.Ticket, m *models.Master) error
}

// TicketService implements the ticket lifecycle. Every mutation writes the
// row, records history, then broadcasts; broadcast failures cannot fail the
// mutation because Broadcast never returns an error.
type TicketService struct {
	tickets  repository.TicketRepository
	history  repository.HistoryRepository
	masters  repository.MasterRepository
	hub      realtime.Broadcaster
	notifier AssignmentNotifier
	logger   *log.Logger
}

// TicketOption configures the service.
type TicketOption func(*TicketService)

// WithTicketLogger sets a custom logger.
func WithTicketLogger(l *log.Logger) TicketOption {
	return func(s *TicketService) { s.logger = l }
}

// WithAssignmentNotifier sets the notifier used on master assignment.
func WithAssignmentNotifier(n AssignmentNotifier) TicketOption {
	return func(s *TicketService) { s.notifier = n }
}

// NewTicketService creates a new ticket service.
func NewTicketService(tickets repository.TicketRepository, history repository.HistoryRepository, masters repository.MasterRepository, hub realtime.Broadcaster, opts ...TicketOption) *TicketService {
	s := &TicketService{
		tickets: tickets,
		history: history,
		masters: masters,
		hub:     hub,
		logger:  log.New(log.Writer(), "[TICKET] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries the intake form.
type CreateInput struct {
	CustomerName  string
	CustomerPhone string
	Address       string
	DeviceType    string
	DeviceModel   string
	Issue         string
	Status        string // optional; empty means status.Default
	Warranty      bool
	CostEstimate  float64
	ScheduledAt   *time.Time
	ActorID       *int64
}

// Create registers a new ticket and broadcasts ticket_created.
func (s *TicketService) Create(ctx context.Context, in *CreateInput) (*models.Ticket, error) {
	slug := status.Default
	if in.Status != "" {
		normalized, ok := status.Normalize(in.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		slug = normalized
	}

	now := time.Now().UTC()
	t := &models.Ticket{
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		Address:       in.Address,
		DeviceType:    in.DeviceType,
		DeviceModel:   in.DeviceModel,
		Issue:         in.Issue,
		Status:        slug,
		Warranty:      in.Warranty,
		CostEstimate:  in.CostEstimate,
		ScheduledAt:   in.ScheduledAt,
		CreateTime:    now,
		ChangeTime:    now,
	}
	// Numbers are derived from a same-day count, so two concurrent creates
	// can collide on the unique number column. Recompute and retry.
	const createAttempts = 3
	for attempt := 1; ; attempt++ {
		number, err := s.tickets.NextNumber(ctx, now)
		if err != nil {
			return nil, err
		}
		t.Number = number
		err = s.tickets.Create(ctx, t)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicate) && attempt < createAttempts {
			s.logger.Printf("ticket number %s taken, retrying", number)
			continue
		}
		return nil, err
	}

	s.record(ctx, &models.TicketHistoryEntry{
		TicketID:  t.ID,
		Action:    models.HistoryActionCreated,
		NewStatus: &t.Status,
		ActorID:   in.ActorID,
		Note:      "ticket " + t.Number + " created",
	})
	s.hub.Broadcast(realtime.Event{Type: realtime.EventTicketCreated, Payload: t})
	return t, nil
}

// Get fetches one ticket.
func (s *TicketService) Get(ctx context.Context, id int64) (*models.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// List returns a filtered page.
func (s *TicketService) List(ctx context.Context, req *models.TicketListRequest) (*models.TicketListResponse, error) {
	return s.tickets.List(ctx, req)
}

// History returns the ticket's audit trail.
func (s *TicketService) History(ctx context.Context, ticketID int64) ([]*models.TicketHistoryEntry, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.history.ListByTicket(ctx, ticketID)
}

// Update patches ticket fields and broadcasts ticket_updated.
func (s *TicketService) Update(ctx context.Context, id int64, upd *repository.TicketUpdate, actorID *int64) (*models.Ticket, error) {
	if err := s.tickets.Update(ctx, id, upd); err != nil {
		return nil, err
	}
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.record(ctx, &models.TicketHistoryEntry{
		TicketID: id,
		Action:   models.HistoryActionUpdated,
		ActorID:  actorID,
		Note:     "fields updated",
	})
	s.hub.Broadcast(realtime.Event{Type: realtime.EventTicketUpdated, Payload: t})
	return t, nil
}

// ChangeStatus sets the status. Any in-sequence value is accepted regardless
// of the current one; there is no monotonicity guard. The event is broadcast
// on every call, including writes of the same value.
func (s *TicketService) ChangeStatus(ctx context.Context, id int64, rawStatus string, actorID *int64) (*models.Ticket, error) {
	slug, ok := status.Normalize(rawStatus)
	if !ok {
		return nil, ErrInvalidStatus
	}

	before, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.UpdateStatus(ctx, id, slug); err != nil {
		return nil, err
	}
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.record(ctx, &models.TicketHistoryEntry{
		TicketID:  id,
		Action:    models.HistoryActionStatusChanged,
		OldStatus: &before.Status,
		NewStatus: &t.Status,
		ActorID:   actorID,
		Note:      fmt.Sprintf("%s -> %s", before.Status, t.Status),
	})
	s.hub.Broadcast(realtime.Event{Type: realtime.EventTicketUpdated, Payload: t})
	return t, nil
}

// Assign proposes a master for the ticket, moves it to assigned, and sends
// the accept/reject prompt. Notification failure is logged, never returned.
func (s *TicketService) Assign(ctx context.Context, ticketID, masterID int64, actorID *int64) (*models.Ticket, error) {
	master, err := s.masters.GetByID(ctx, masterID)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Assign(ctx, ticketID, &master.ID, &master.Name); err != nil {
		return nil, err
	}
	if err := s.tickets.UpdateStatus(ctx, ticketID, status.Assigned); err != nil {
		return nil, err
	}
	t, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	s.record(ctx, &models.TicketHistoryEntry{
		TicketID: ticketID,
		Action:   models.HistoryActionMasterAssigned,
		ActorID:  actorID,
		Note:     "assigned to " + master.Name,
	})
	s.hub.Broadcast(realtime.Event{Type: realtime.EventTicketUpdated, Payload: t})

	if s.notifier != nil {
		if err := s.notifier.NotifyAssignment(ctx, t, master); err != nil {
			s.logger.Printf("notify master %d about ticket %s: %v", master.ID, t.Number, err)
		}
	}
	return t, nil
}

// AcceptAssignment is the master's confirmation (Telegram callback).
func (s *TicketService) AcceptAssignment(ctx context.Context, ticketID, masterID int64) (*models.Ticket, error) {
	master, err := s.masters.GetByID(ctx, masterID)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Assign(ctx, ticketID, &master.ID, &master.Name); err != nil {
		return nil, err
	}
	return s.ChangeStatus(ctx, ticketID, status.Accepted, nil)
}

// RejectAssignment clears the assignee and returns the ticket to created.
func (s *TicketService) RejectAssignment(ctx context.Context, ticketID, masterID int64) (*models.Ticket, error) {
	master, err := s.masters.GetByID(ctx, masterID)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Assign(ctx, ticketID, nil, nil); err != nil {
		return nil, err
	}
	s.record(ctx, &models.TicketHistoryEntry{
		TicketID: ticketID,
		Action:   models.HistoryActionMasterRejected,
		Note:     master.Name + " rejected the job",
	})
	return s.ChangeStatus(ctx, ticketID, status.Created, nil)
}

// Delete removes the ticket (admin only, enforced at the HTTP layer) and
// broadcasts ticket_deleted.
func (s *TicketService) Delete(ctx context.Context, id int64, actorID *int64) error {
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, &models.TicketHistoryEntry{
		TicketID: id,
		Action:   models.HistoryActionDeleted,
		ActorID:  actorID,
		Note:     "ticket " + t.Number + " deleted",
	})
	s.hub.Broadcast(realtime.Event{Type: realtime.EventTicketDeleted, Payload: map[string]int64{"id": id}})
	return nil
}

func (s *TicketService) record(ctx context.Context, entry *models.TicketHistoryEntry) {
	if err := s.history.Add(ctx, entry); err != nil {
		s.logger.Printf("record history for ticket %d: %v", entry.TicketID, err)
	}
}
