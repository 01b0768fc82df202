package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/remfix/remfix/internal/models"
)

// FraudRepository defines fraud-alert persistence operations.
type FraudRepository interface {
	Create(ctx context.Context, a *models.FraudAlert) error
	List(ctx context.Context, includeResolved bool) ([]*models.FraudAlert, error)
	Resolve(ctx context.Context, id, resolverID int64) error
}

// FraudSQLRepository is the sqlx implementation of FraudRepository.
type FraudSQLRepository struct {
	db *sqlx.DB
}

// NewFraudRepository creates a new fraud-alert repository.
func NewFraudRepository(db *sqlx.DB) *FraudSQLRepository {
	return &FraudSQLRepository{db: db}
}

// Create inserts the alert and fills its ID.
func (r *FraudSQLRepository) Create(ctx context.Context, a *models.FraudAlert) error {
	if a.DetectedAt.IsZero() {
		a.DetectedAt = time.Now().UTC()
	}
	query := r.db.Rebind(`
		INSERT INTO fraud_alerts (ticket_id, master_id, issue, severity, detected_at, resolved)
		VALUES (?, ?, ?, ?, ?, ?)`)

	if r.db.DriverName() == "postgres" {
		query += " RETURNING id"
		return r.db.QueryRowContext(ctx, query,
			a.TicketID, a.MasterID, a.Issue, a.Severity, a.DetectedAt, a.Resolved,
		).Scan(&a.ID)
	}

	res, err := r.db.ExecContext(ctx, query,
		a.TicketID, a.MasterID, a.Issue, a.Severity, a.DetectedAt, a.Resolved)
	if err != nil {
		return fmt.Errorf("insert fraud alert: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("fraud alert id: %w", err)
	}
	return nil
}

// List returns alerts, newest first, optionally including resolved ones.
func (r *FraudSQLRepository) List(ctx context.Context, includeResolved bool) ([]*models.FraudAlert, error) {
	alerts := []*models.FraudAlert{}
	query := `SELECT * FROM fraud_alerts`
	if !includeResolved {
		query += ` WHERE resolved = ` + r.boolLiteral(false)
	}
	query += ` ORDER BY detected_at DESC`
	if err := r.db.SelectContext(ctx, &alerts, query); err != nil {
		return nil, fmt.Errorf("select fraud alerts: %w", err)
	}
	return alerts, nil
}

// Resolve marks an alert handled.
func (r *FraudSQLRepository) Resolve(ctx context.Context, id, resolverID int64) error {
	query := r.db.Rebind(`
		UPDATE fraud_alerts SET resolved = ?, resolved_by = ?, resolved_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, true, resolverID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("resolve fraud alert %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// boolLiteral papers over sqlite storing booleans as integers.
func (r *FraudSQLRepository) boolLiteral(v bool) string {
	if r.db.DriverName() == "sqlite3" {
		if v {
			return "1"
		}
		return "0"
	}
	if v {
		return "TRUE"
	}
	return "FALSE"
}
