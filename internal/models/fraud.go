package models

import "time"

// Fraud alert severities.
const (
	FraudSeverityLow    = "low"
	FraudSeverityMedium = "medium"
	FraudSeverityHigh   = "high"
)

// FraudAlert flags an anomaly in technician behavior on a ticket.
// Maps to the `fraud_alerts` table.
type FraudAlert struct {
	ID         int64      `db:"id" json:"id"`
	TicketID   int64      `db:"ticket_id" json:"ticket_id"`
	MasterID   int64      `db:"master_id" json:"master_id"`
	Issue      string     `db:"issue" json:"issue"`
	Severity   string     `db:"severity" json:"severity"`
	DetectedAt time.Time  `db:"detected_at" json:"detected_at"`
	Resolved   bool       `db:"resolved" json:"resolved"`
	ResolvedBy *int64     `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}
