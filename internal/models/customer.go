package models

import "time"

// Customer is an aggregated view over tickets grouped by phone+name.
// Computed at query time; customers are not a stored entity.
type Customer struct {
	Name          string    `db:"name" json:"name"`
	Phone         string    `db:"phone" json:"phone"`
	Address       string    `db:"address" json:"address"`
	OrderCount    int       `db:"order_count" json:"order_count"`
	LifetimeValue float64   `db:"lifetime_value" json:"lifetime_value"`
	FirstOrderAt  time.Time `db:"first_order_at" json:"first_order_at"`
	LastOrderAt   time.Time `db:"last_order_at" json:"last_order_at"`
	LastStatus    string    `db:"last_status" json:"last_status"`
	LastTicketID  *int64    `db:"last_ticket_id" json:"last_ticket_id,omitempty"`
}
