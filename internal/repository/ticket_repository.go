package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/remfix/remfix/internal/models"
)

// TicketRepository defines ticket persistence operations.
type TicketRepository interface {
	Create(ctx context.Context, t *models.Ticket) error
	GetByID(ctx context.Context, id int64) (*models.Ticket, error)
	List(ctx context.Context, req *models.TicketListRequest) (*models.TicketListResponse, error)
	Update(ctx context.Context, id int64, upd *TicketUpdate) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Assign(ctx context.Context, id int64, masterID *int64, masterName *string) error
	Delete(ctx context.Context, id int64) error
	NextNumber(ctx context.Context, now time.Time) (string, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// TicketUpdate carries the patchable ticket fields. Nil means "leave as is".
type TicketUpdate struct {
	CustomerName  *string
	CustomerPhone *string
	Address       *string
	DeviceType    *string
	DeviceModel   *string
	Issue         *string
	Warranty      *bool
	CostEstimate  *float64
	CostActual    *float64
	DistanceKm    *float64
	Latitude      *float64
	Longitude     *float64
	PhotoURLs     *string
	SignatureRef  *string
	ScheduledAt   *time.Time
	CompletedAt   *time.Time
}

// TicketSQLRepository is the sqlx implementation of TicketRepository.
type TicketSQLRepository struct {
	db *sqlx.DB
}

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(db *sqlx.DB) *TicketSQLRepository {
	return &TicketSQLRepository{db: db}
}

// Create inserts the ticket and fills its ID.
func (r *TicketSQLRepository) Create(ctx context.Context, t *models.Ticket) error {
	query := r.db.Rebind(`
		INSERT INTO tickets (
			number, customer_name, customer_phone, address, device_type,
			device_model, issue, status, master_id, master_name, warranty,
			cost_estimate, cost_actual, distance_km, latitude, longitude,
			photo_urls, signature_ref, scheduled_at, completed_at,
			create_time, change_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	if r.db.DriverName() == "postgres" {
		query += " RETURNING id"
		err := r.db.QueryRowContext(ctx, query,
			t.Number, t.CustomerName, t.CustomerPhone, t.Address, t.DeviceType,
			t.DeviceModel, t.Issue, t.Status, t.MasterID, t.MasterName, t.Warranty,
			t.CostEstimate, t.CostActual, t.DistanceKm, t.Latitude, t.Longitude,
			t.PhotoURLs, t.SignatureRef, t.ScheduledAt, t.CompletedAt,
			t.CreateTime, t.ChangeTime,
		).Scan(&t.ID)
		if isUniqueViolation(err) {
			return fmt.Errorf("insert ticket %s: %w", t.Number, ErrDuplicate)
		}
		return err
	}

	res, err := r.db.ExecContext(ctx, query,
		t.Number, t.CustomerName, t.CustomerPhone, t.Address, t.DeviceType,
		t.DeviceModel, t.Issue, t.Status, t.MasterID, t.MasterName, t.Warranty,
		t.CostEstimate, t.CostActual, t.DistanceKm, t.Latitude, t.Longitude,
		t.PhotoURLs, t.SignatureRef, t.ScheduledAt, t.CompletedAt,
		t.CreateTime, t.ChangeTime,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert ticket %s: %w", t.Number, ErrDuplicate)
		}
		return fmt.Errorf("insert ticket: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("ticket id: %w", err)
	}
	return nil
}

// GetByID fetches one ticket.
func (r *TicketSQLRepository) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	var t models.Ticket
	query := r.db.Rebind(`SELECT * FROM tickets WHERE id = ?`)
	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select ticket %d: %w", id, err)
	}
	return &t, nil
}

// List returns a filtered page of tickets, newest first.
func (r *TicketSQLRepository) List(ctx context.Context, req *models.TicketListRequest) (*models.TicketListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	perPage := req.PerPage
	if perPage < 1 || perPage > 200 {
		perPage = 25
	}

	where := []string{"1=1"}
	args := []interface{}{}
	if req.Status != "" {
		where = append(where, "status = ?")
		args = append(args, req.Status)
	}
	if req.MasterID > 0 {
		where = append(where, "master_id = ?")
		args = append(args, req.MasterID)
	}
	if req.Search != "" {
		like := "%" + req.Search + "%"
		where = append(where, "(customer_name LIKE ? OR customer_phone LIKE ? OR number LIKE ? OR address LIKE ?)")
		args = append(args, like, like, like, like)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countQuery := r.db.Rebind("SELECT COUNT(*) FROM tickets WHERE " + cond)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}

	listQuery := r.db.Rebind("SELECT * FROM tickets WHERE " + cond +
		" ORDER BY create_time DESC, id DESC LIMIT ? OFFSET ?")
	args = append(args, perPage, (page-1)*perPage)

	tickets := []*models.Ticket{}
	if err := r.db.SelectContext(ctx, &tickets, listQuery, args...); err != nil {
		return nil, fmt.Errorf("select tickets: %w", err)
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return &models.TicketListResponse{
		Tickets: tickets,
		Pagination: models.Pagination{
			Page:       page,
			PerPage:    perPage,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

// Update applies the non-nil fields of upd.
func (r *TicketSQLRepository) Update(ctx context.Context, id int64, upd *TicketUpdate) error {
	set := []string{}
	args := []interface{}{}
	add := func(col string, v interface{}) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}

	if upd.CustomerName != nil {
		add("customer_name", *upd.CustomerName)
	}
	if upd.CustomerPhone != nil {
		add("customer_phone", *upd.CustomerPhone)
	}
	if upd.Address != nil {
		add("address", *upd.Address)
	}
	if upd.DeviceType != nil {
		add("device_type", *upd.DeviceType)
	}
	if upd.DeviceModel != nil {
		add("device_model", *upd.DeviceModel)
	}
	if upd.Issue != nil {
		add("issue", *upd.Issue)
	}
	if upd.Warranty != nil {
		add("warranty", *upd.Warranty)
	}
	if upd.CostEstimate != nil {
		add("cost_estimate", *upd.CostEstimate)
	}
	if upd.CostActual != nil {
		add("cost_actual", *upd.CostActual)
	}
	if upd.DistanceKm != nil {
		add("distance_km", *upd.DistanceKm)
	}
	if upd.Latitude != nil {
		add("latitude", *upd.Latitude)
	}
	if upd.Longitude != nil {
		add("longitude", *upd.Longitude)
	}
	if upd.PhotoURLs != nil {
		add("photo_urls", *upd.PhotoURLs)
	}
	if upd.SignatureRef != nil {
		add("signature_ref", *upd.SignatureRef)
	}
	if upd.ScheduledAt != nil {
		add("scheduled_at", *upd.ScheduledAt)
	}
	if upd.CompletedAt != nil {
		add("completed_at", *upd.CompletedAt)
	}
	if len(set) == 0 {
		return nil
	}
	add("change_time", time.Now().UTC())
	args = append(args, id)

	query := r.db.Rebind("UPDATE tickets SET " + strings.Join(set, ", ") + " WHERE id = ?")
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update ticket %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus sets the status column. Idempotent writes still succeed.
func (r *TicketSQLRepository) UpdateStatus(ctx context.Context, id int64, statusSlug string) error {
	query := r.db.Rebind(`UPDATE tickets SET status = ?, change_time = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, statusSlug, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update ticket %d status: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Assign sets or clears the assigned master.
func (r *TicketSQLRepository) Assign(ctx context.Context, id int64, masterID *int64, masterName *string) error {
	query := r.db.Rebind(`UPDATE tickets SET master_id = ?, master_name = ?, change_time = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, masterID, masterName, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("assign ticket %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the ticket row.
func (r *TicketSQLRepository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM tickets WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete ticket %d: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// NextNumber builds the next human-readable number, RF-YYYYMMDD-NNNN,
// counting tickets created the same day.
func (r *TicketSQLRepository) NextNumber(ctx context.Context, now time.Time) (string, error) {
	day := now.UTC().Format("20060102")
	var count int64
	query := r.db.Rebind(`SELECT COUNT(*) FROM tickets WHERE number LIKE ?`)
	if err := r.db.GetContext(ctx, &count, query, "RF-"+day+"-%"); err != nil {
		return "", fmt.Errorf("count day tickets: %w", err)
	}
	return fmt.Sprintf("RF-%s-%04d", day, count+1), nil
}

// CountByStatus groups ticket counts for the stats endpoint.
func (r *TicketSQLRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var statusSlug string
		var n int64
		if err := rows.Scan(&statusSlug, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[statusSlug] = n
	}
	return counts, rows.Err()
}
