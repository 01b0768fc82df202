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

// MasterRepository defines technician persistence operations.
type MasterRepository interface {
	Create(ctx context.Context, m *models.Master) error
	GetByID(ctx context.Context, id int64) (*models.Master, error)
	GetByTelegramChat(ctx context.Context, chatID int64) (*models.Master, error)
	List(ctx context.Context) ([]*models.Master, error)
	Update(ctx context.Context, m *models.Master) error
	UpdateLocation(ctx context.Context, id int64, lat, lng float64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// MasterSQLRepository is the sqlx implementation of MasterRepository.
type MasterSQLRepository struct {
	db *sqlx.DB
}

// NewMasterRepository creates a new master repository.
func NewMasterRepository(db *sqlx.DB) *MasterSQLRepository {
	return &MasterSQLRepository{db: db}
}

// Create inserts the master and fills its ID.
func (r *MasterSQLRepository) Create(ctx context.Context, m *models.Master) error {
	now := time.Now().UTC()
	if m.CreateTime.IsZero() {
		m.CreateTime = now
	}
	m.ChangeTime = now

	query := r.db.Rebind(`
		INSERT INTO masters (name, phone, region, telegram_chat_id,
			last_latitude, last_longitude, last_location_time, create_time, change_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	if r.db.DriverName() == "postgres" {
		query += " RETURNING id"
		return r.db.QueryRowContext(ctx, query,
			m.Name, m.Phone, m.Region, m.TelegramChatID,
			m.LastLatitude, m.LastLongitude, m.LastLocationTime,
			m.CreateTime, m.ChangeTime,
		).Scan(&m.ID)
	}

	res, err := r.db.ExecContext(ctx, query,
		m.Name, m.Phone, m.Region, m.TelegramChatID,
		m.LastLatitude, m.LastLongitude, m.LastLocationTime,
		m.CreateTime, m.ChangeTime,
	)
	if err != nil {
		return fmt.Errorf("insert master: %w", err)
	}
	m.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("master id: %w", err)
	}
	return nil
}

// GetByID fetches one master.
func (r *MasterSQLRepository) GetByID(ctx context.Context, id int64) (*models.Master, error) {
	var m models.Master
	query := r.db.Rebind(`SELECT * FROM masters WHERE id = ?`)
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select master %d: %w", id, err)
	}
	return &m, nil
}

// GetByTelegramChat fetches the master linked to a Telegram chat.
func (r *MasterSQLRepository) GetByTelegramChat(ctx context.Context, chatID int64) (*models.Master, error) {
	var m models.Master
	query := r.db.Rebind(`SELECT * FROM masters WHERE telegram_chat_id = ?`)
	if err := r.db.GetContext(ctx, &m, query, chatID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select master by chat %d: %w", chatID, err)
	}
	return &m, nil
}

// List returns all masters ordered by name.
func (r *MasterSQLRepository) List(ctx context.Context) ([]*models.Master, error) {
	masters := []*models.Master{}
	if err := r.db.SelectContext(ctx, &masters, `SELECT * FROM masters ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("select masters: %w", err)
	}
	return masters, nil
}

// Update rewrites the editable profile fields.
func (r *MasterSQLRepository) Update(ctx context.Context, m *models.Master) error {
	query := r.db.Rebind(`
		UPDATE masters SET name = ?, phone = ?, region = ?, telegram_chat_id = ?, change_time = ?
		WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		m.Name, m.Phone, m.Region, m.TelegramChatID, time.Now().UTC(), m.ID)
	if err != nil {
		return fmt.Errorf("update master %d: %w", m.ID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLocation stores the latest GPS fix; online state derives from it.
func (r *MasterSQLRepository) UpdateLocation(ctx context.Context, id int64, lat, lng float64, at time.Time) error {
	query := r.db.Rebind(`
		UPDATE masters SET last_latitude = ?, last_longitude = ?, last_location_time = ?, change_time = ?
		WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, lat, lng, at.UTC(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update master %d location: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the master row.
func (r *MasterSQLRepository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM masters WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete master %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}
