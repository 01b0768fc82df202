package models

import "time"

// Call providers.
const (
	CallProviderZadarma   = "zadarma"
	CallProviderOnlinePBX = "onlinepbx"
	CallProviderTwilio    = "twilio"
)

// Call directions.
const (
	CallDirectionInbound  = "inbound"
	CallDirectionOutbound = "outbound"
)

// Call statuses.
const (
	CallStatusRinging  = "ringing"
	CallStatusAnswered = "answered"
	CallStatusRejected = "rejected"
	CallStatusMissed   = "missed"
	CallStatusEnded    = "ended"
)

// CallRecord is one telephony event chain (ring to hangup).
// Maps to the `call_records` table.
type CallRecord struct {
	ID         int64      `db:"id" json:"id"`
	Provider   string     `db:"provider" json:"provider"`
	ProviderID string     `db:"provider_id" json:"provider_id"`
	Direction  string     `db:"direction" json:"direction"`
	FromNumber string     `db:"from_number" json:"from_number"`
	ToNumber   string     `db:"to_number" json:"to_number"`
	TicketID   *int64     `db:"ticket_id" json:"ticket_id,omitempty"`
	MasterID   *int64     `db:"master_id" json:"master_id,omitempty"`
	Status     string     `db:"status" json:"status"`
	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	EndedAt    *time.Time `db:"ended_at" json:"ended_at,omitempty"`
}
