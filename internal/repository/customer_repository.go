package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/remfix/remfix/internal/models"
)

// CustomerRepository computes the aggregated customer view. Customers are
// not stored: they are tickets grouped by phone+name at query time.
type CustomerRepository interface {
	List(ctx context.Context, search string) ([]*models.Customer, error)
}

// CustomerSQLRepository is the sqlx implementation of CustomerRepository.
type CustomerSQLRepository struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a new customer repository.
func NewCustomerRepository(db *sqlx.DB) *CustomerSQLRepository {
	return &CustomerSQLRepository{db: db}
}

// List aggregates tickets into customers, most recent activity first.
// lifetime_value sums actual cost, so unfinished work counts as zero until
// it is billed. The latest ticket id and status ride along as correlated
// subqueries, keeping the whole listing a single round trip.
func (r *CustomerSQLRepository) List(ctx context.Context, search string) ([]*models.Customer, error) {
	query := `
		SELECT
			t.customer_name AS name,
			t.customer_phone AS phone,
			MAX(t.address) AS address,
			COUNT(*) AS order_count,
			COALESCE(SUM(t.cost_actual), 0) AS lifetime_value,
			MIN(t.create_time) AS first_order_at,
			MAX(t.create_time) AS last_order_at,
			(SELECT l.id FROM tickets l
				WHERE l.customer_phone = t.customer_phone AND l.customer_name = t.customer_name
				ORDER BY l.create_time DESC, l.id DESC LIMIT 1) AS last_ticket_id,
			(SELECT l.status FROM tickets l
				WHERE l.customer_phone = t.customer_phone AND l.customer_name = t.customer_name
				ORDER BY l.create_time DESC, l.id DESC LIMIT 1) AS last_status
		FROM tickets t`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE t.customer_name LIKE ? OR t.customer_phone LIKE ?`
		like := "%" + search + "%"
		args = append(args, like, like)
	}
	query += `
		GROUP BY t.customer_phone, t.customer_name
		ORDER BY last_order_at DESC`

	customers := []*models.Customer{}
	if err := r.db.SelectContext(ctx, &customers, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("aggregate customers: %w", err)
	}
	return customers, nil
}
