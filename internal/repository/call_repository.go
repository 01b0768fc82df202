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

// CallRepository defines call-record persistence operations.
type CallRepository interface {
	Create(ctx context.Context, cr *models.CallRecord) error
	GetByProviderID(ctx context.Context, provider, providerID string) (*models.CallRecord, error)
	UpdateStatus(ctx context.Context, id int64, callStatus string, endedAt *time.Time) error
	List(ctx context.Context, limit int) ([]*models.CallRecord, error)
	SweepStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CallSQLRepository is the sqlx implementation of CallRepository.
type CallSQLRepository struct {
	db *sqlx.DB
}

// NewCallRepository creates a new call repository.
func NewCallRepository(db *sqlx.DB) *CallSQLRepository {
	return &CallSQLRepository{db: db}
}

// Create inserts the call record and fills its ID.
func (r *CallSQLRepository) Create(ctx context.Context, cr *models.CallRecord) error {
	if cr.StartedAt.IsZero() {
		cr.StartedAt = time.Now().UTC()
	}
	query := r.db.Rebind(`
		INSERT INTO call_records (provider, provider_id, direction, from_number, to_number,
			ticket_id, master_id, status, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	if r.db.DriverName() == "postgres" {
		query += " RETURNING id"
		return r.db.QueryRowContext(ctx, query,
			cr.Provider, cr.ProviderID, cr.Direction, cr.FromNumber, cr.ToNumber,
			cr.TicketID, cr.MasterID, cr.Status, cr.StartedAt, cr.EndedAt,
		).Scan(&cr.ID)
	}

	res, err := r.db.ExecContext(ctx, query,
		cr.Provider, cr.ProviderID, cr.Direction, cr.FromNumber, cr.ToNumber,
		cr.TicketID, cr.MasterID, cr.Status, cr.StartedAt, cr.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("insert call record: %w", err)
	}
	cr.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("call record id: %w", err)
	}
	return nil
}

// GetByProviderID fetches the latest record for a provider call id.
func (r *CallSQLRepository) GetByProviderID(ctx context.Context, provider, providerID string) (*models.CallRecord, error) {
	var cr models.CallRecord
	query := r.db.Rebind(`
		SELECT * FROM call_records WHERE provider = ? AND provider_id = ?
		ORDER BY started_at DESC LIMIT 1`)
	if err := r.db.GetContext(ctx, &cr, query, provider, providerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select call %s/%s: %w", provider, providerID, err)
	}
	return &cr, nil
}

// UpdateStatus moves the record to a new status, optionally closing it.
func (r *CallSQLRepository) UpdateStatus(ctx context.Context, id int64, callStatus string, endedAt *time.Time) error {
	query := r.db.Rebind(`UPDATE call_records SET status = ?, ended_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, callStatus, endedAt, id)
	if err != nil {
		return fmt.Errorf("update call %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns recent calls, newest first.
func (r *CallSQLRepository) List(ctx context.Context, limit int) ([]*models.CallRecord, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	calls := []*models.CallRecord{}
	query := r.db.Rebind(`SELECT * FROM call_records ORDER BY started_at DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &calls, query, limit); err != nil {
		return nil, fmt.Errorf("select calls: %w", err)
	}
	return calls, nil
}

// SweepStale closes ringing/answered calls with no hangup event. Providers
// occasionally drop the final webhook, which would leave calls open forever.
func (r *CallSQLRepository) SweepStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	query := r.db.Rebind(`
		UPDATE call_records SET status = ?, ended_at = ?
		WHERE status IN (?, ?) AND started_at <= ?`)
	res, err := r.db.ExecContext(ctx, query,
		models.CallStatusEnded, time.Now().UTC(),
		models.CallStatusRinging, models.CallStatusAnswered, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweep stale calls: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
