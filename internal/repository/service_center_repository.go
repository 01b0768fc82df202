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

// ServiceCenterRepository defines workshop persistence operations.
type ServiceCenterRepository interface {
	Create(ctx context.Context, sc *models.ServiceCenter) error
	GetByID(ctx context.Context, id int64) (*models.ServiceCenter, error)
	List(ctx context.Context) ([]*models.ServiceCenter, error)
	Update(ctx context.Context, sc *models.ServiceCenter) error
	Delete(ctx context.Context, id int64) error
}

// ServiceCenterSQLRepository is the sqlx implementation.
type ServiceCenterSQLRepository struct {
	db *sqlx.DB
}

// NewServiceCenterRepository creates a new service-center repository.
func NewServiceCenterRepository(db *sqlx.DB) *ServiceCenterSQLRepository {
	return &ServiceCenterSQLRepository{db: db}
}

// Create inserts the service center and fills its ID.
func (r *ServiceCenterSQLRepository) Create(ctx context.Context, sc *models.ServiceCenter) error {
	now := time.Now().UTC()
	if sc.CreateTime.IsZero() {
		sc.CreateTime = now
	}
	sc.ChangeTime = now

	query := r.db.Rebind(`
		INSERT INTO service_centers (name, address, phone, region, latitude, longitude, create_time, change_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	if r.db.DriverName() == "postgres" {
		query += " RETURNING id"
		return r.db.QueryRowContext(ctx, query,
			sc.Name, sc.Address, sc.Phone, sc.Region, sc.Latitude, sc.Longitude,
			sc.CreateTime, sc.ChangeTime,
		).Scan(&sc.ID)
	}

	res, err := r.db.ExecContext(ctx, query,
		sc.Name, sc.Address, sc.Phone, sc.Region, sc.Latitude, sc.Longitude,
		sc.CreateTime, sc.ChangeTime,
	)
	if err != nil {
		return fmt.Errorf("insert service center: %w", err)
	}
	sc.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("service center id: %w", err)
	}
	return nil
}

// GetByID fetches one service center.
func (r *ServiceCenterSQLRepository) GetByID(ctx context.Context, id int64) (*models.ServiceCenter, error) {
	var sc models.ServiceCenter
	query := r.db.Rebind(`SELECT * FROM service_centers WHERE id = ?`)
	if err := r.db.GetContext(ctx, &sc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select service center %d: %w", id, err)
	}
	return &sc, nil
}

// List returns all service centers ordered by name.
func (r *ServiceCenterSQLRepository) List(ctx context.Context) ([]*models.ServiceCenter, error) {
	centers := []*models.ServiceCenter{}
	if err := r.db.SelectContext(ctx, &centers, `SELECT * FROM service_centers ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("select service centers: %w", err)
	}
	return centers, nil
}

// Update rewrites the editable fields.
func (r *ServiceCenterSQLRepository) Update(ctx context.Context, sc *models.ServiceCenter) error {
	query := r.db.Rebind(`
		UPDATE service_centers SET name = ?, address = ?, phone = ?, region = ?,
			latitude = ?, longitude = ?, change_time = ?
		WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		sc.Name, sc.Address, sc.Phone, sc.Region, sc.Latitude, sc.Longitude,
		time.Now().UTC(), sc.ID)
	if err != nil {
		return fmt.Errorf("update service center %d: %w", sc.ID, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the service center row.
func (r *ServiceCenterSQLRepository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM service_centers WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete service center %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}
