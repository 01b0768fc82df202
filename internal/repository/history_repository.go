package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/remfix/remfix/internal/models"
)

// HistoryRepository records ticket mutations.
type HistoryRepository interface {
	Add(ctx context.Context, entry *models.TicketHistoryEntry) error
	ListByTicket(ctx context.Context, ticketID int64) ([]*models.TicketHistoryEntry, error)
}

// HistorySQLRepository is the sqlx implementation of HistoryRepository.
type HistorySQLRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *sqlx.DB) *HistorySQLRepository {
	return &HistorySQLRepository{db: db}
}

// Add appends one history entry.
func (r *HistorySQLRepository) Add(ctx context.Context, entry *models.TicketHistoryEntry) error {
	if entry.CreateTime.IsZero() {
		entry.CreateTime = time.Now().UTC()
	}
	query := r.db.Rebind(`
		INSERT INTO ticket_history (ticket_id, action, old_status, new_status, actor_id, note, create_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query,
		entry.TicketID, entry.Action, entry.OldStatus, entry.NewStatus,
		entry.ActorID, entry.Note, entry.CreateTime,
	); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// ListByTicket returns a ticket's history, oldest first.
func (r *HistorySQLRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*models.TicketHistoryEntry, error) {
	entries := []*models.TicketHistoryEntry{}
	query := r.db.Rebind(`SELECT * FROM ticket_history WHERE ticket_id = ? ORDER BY create_time ASC, id ASC`)
	if err := r.db.SelectContext(ctx, &entries, query, ticketID); err != nil {
		return nil, fmt.Errorf("select history for ticket %d: %w", ticketID, err)
	}
	return entries, nil
}
