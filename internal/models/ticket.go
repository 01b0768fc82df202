package models

import "time"

// Ticket represents a service request tracked from intake to closure.
// Maps to the `tickets` table.
type Ticket struct {
	ID            int64      `db:"id" json:"id"`
	Number        string     `db:"number" json:"number"`
	CustomerName  string     `db:"customer_name" json:"customer_name"`
	CustomerPhone string     `db:"customer_phone" json:"customer_phone"`
	Address       string     `db:"address" json:"address"`
	DeviceType    string     `db:"device_type" json:"device_type"`
	DeviceModel   string     `db:"device_model" json:"device_model"`
	Issue         string     `db:"issue" json:"issue"`
	Status        string     `db:"status" json:"status"`
	MasterID      *int64     `db:"master_id" json:"master_id,omitempty"`
	MasterName    *string    `db:"master_name" json:"master_name,omitempty"`
	Warranty      bool       `db:"warranty" json:"warranty"`
	CostEstimate  float64    `db:"cost_estimate" json:"cost_estimate"`
	CostActual    float64    `db:"cost_actual" json:"cost_actual"`
	DistanceKm    float64    `db:"distance_km" json:"distance_km"`
	Latitude      *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude     *float64   `db:"longitude" json:"longitude,omitempty"`
	PhotoURLs     *string    `db:"photo_urls" json:"photo_urls,omitempty"`
	SignatureRef  *string    `db:"signature_ref" json:"signature_ref,omitempty"`
	ScheduledAt   *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreateTime    time.Time  `db:"create_time" json:"create_time"`
	ChangeTime    time.Time  `db:"change_time" json:"change_time"`
}

// TicketListRequest carries list filters and pagination.
type TicketListRequest struct {
	Page     int
	PerPage  int
	Status   string
	MasterID int64
	Search   string
}

// TicketListResponse is a page of tickets plus pagination metadata.
type TicketListResponse struct {
	Tickets    []*Ticket
	Pagination Pagination
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// TicketHistoryEntry records one mutation of a ticket.
// Maps to the `ticket_history` table.
type TicketHistoryEntry struct {
	ID         int64     `db:"id" json:"id"`
	TicketID   int64     `db:"ticket_id" json:"ticket_id"`
	Action     string    `db:"action" json:"action"`
	OldStatus  *string   `db:"old_status" json:"old_status,omitempty"`
	NewStatus  *string   `db:"new_status" json:"new_status,omitempty"`
	ActorID    *int64    `db:"actor_id" json:"actor_id,omitempty"`
	Note       string    `db:"note" json:"note"`
	CreateTime time.Time `db:"create_time" json:"create_time"`
}

// History actions.
const (
	HistoryActionCreated        = "created"
	HistoryActionUpdated        = "updated"
	HistoryActionStatusChanged  = "status_changed"
	HistoryActionMasterAssigned = "master_assigned"
	HistoryActionMasterRejected = "master_rejected"
	HistoryActionDeleted        = "deleted"
)
