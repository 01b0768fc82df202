package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// schemaTables holds the DDL with a {{pk}} placeholder for the
// driver-specific auto-increment primary key clause.
var schemaTables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {{pk}},
		username VARCHAR(120) NOT NULL UNIQUE,
		password_hash VARCHAR(200) NOT NULL,
		full_name VARCHAR(200) NOT NULL DEFAULT '',
		role VARCHAR(40) NOT NULL,
		master_id BIGINT,
		valid_id INTEGER NOT NULL DEFAULT 1,
		create_time TIMESTAMP NOT NULL,
		change_time TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id VARCHAR(64) PRIMARY KEY,
		user_id BIGINT NOT NULL,
		username VARCHAR(120) NOT NULL,
		role VARCHAR(40) NOT NULL,
		remote_addr VARCHAR(64) NOT NULL DEFAULT '',
		user_agent VARCHAR(400) NOT NULL DEFAULT '',
		create_time TIMESTAMP NOT NULL,
		last_request TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS masters (
		id {{pk}},
		name VARCHAR(200) NOT NULL,
		phone VARCHAR(40) NOT NULL DEFAULT '',
		region VARCHAR(120) NOT NULL DEFAULT '',
		telegram_chat_id BIGINT,
		last_latitude DOUBLE PRECISION,
		last_longitude DOUBLE PRECISION,
		last_location_time TIMESTAMP,
		create_time TIMESTAMP NOT NULL,
		change_time TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id {{pk}},
		number VARCHAR(40) NOT NULL UNIQUE,
		customer_name VARCHAR(200) NOT NULL,
		customer_phone VARCHAR(40) NOT NULL,
		address VARCHAR(400) NOT NULL DEFAULT '',
		device_type VARCHAR(120) NOT NULL DEFAULT '',
		device_model VARCHAR(120) NOT NULL DEFAULT '',
		issue TEXT NOT NULL,
		status VARCHAR(40) NOT NULL,
		master_id BIGINT,
		master_name VARCHAR(200),
		warranty BOOLEAN NOT NULL DEFAULT FALSE,
		cost_estimate DOUBLE PRECISION NOT NULL DEFAULT 0,
		cost_actual DOUBLE PRECISION NOT NULL DEFAULT 0,
		distance_km DOUBLE PRECISION NOT NULL DEFAULT 0,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		photo_urls TEXT,
		signature_ref VARCHAR(400),
		scheduled_at TIMESTAMP,
		completed_at TIMESTAMP,
		create_time TIMESTAMP NOT NULL,
		change_time TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ticket_history (
		id {{pk}},
		ticket_id BIGINT NOT NULL,
		action VARCHAR(60) NOT NULL,
		old_status VARCHAR(40),
		new_status VARCHAR(40),
		actor_id BIGINT,
		note TEXT NOT NULL,
		create_time TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS call_records (
		id {{pk}},
		provider VARCHAR(40) NOT NULL,
		provider_id VARCHAR(120) NOT NULL DEFAULT '',
		direction VARCHAR(20) NOT NULL,
		from_number VARCHAR(40) NOT NULL,
		to_number VARCHAR(40) NOT NULL DEFAULT '',
		ticket_id BIGINT,
		master_id BIGINT,
		status VARCHAR(20) NOT NULL,
		started_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS fraud_alerts (
		id {{pk}},
		ticket_id BIGINT NOT NULL,
		master_id BIGINT NOT NULL,
		issue TEXT NOT NULL,
		severity VARCHAR(20) NOT NULL,
		detected_at TIMESTAMP NOT NULL,
		resolved BOOLEAN NOT NULL DEFAULT FALSE,
		resolved_by BIGINT,
		resolved_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS service_centers (
		id {{pk}},
		name VARCHAR(200) NOT NULL,
		address VARCHAR(400) NOT NULL DEFAULT '',
		phone VARCHAR(40) NOT NULL DEFAULT '',
		region VARCHAR(120) NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		create_time TIMESTAMP NOT NULL,
		change_time TIMESTAMP NOT NULL
	)`,
}

var schemaIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets (status)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_master ON tickets (master_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_phone ON tickets (customer_phone)`,
	`CREATE INDEX IF NOT EXISTS idx_history_ticket ON ticket_history (ticket_id)`,
	`CREATE INDEX IF NOT EXISTS idx_calls_started ON call_records (started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions (user_id)`,
}

func pkClause(driver string) string {
	switch driver {
	case "postgres":
		return "BIGSERIAL PRIMARY KEY"
	case "mysql":
		return "BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY"
	default: // sqlite3
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

// Migrate creates missing tables and indexes. Statements are idempotent so
// the call is safe on every startup.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	pk := pkClause(db.DriverName())
	for _, ddl := range schemaTables {
		stmt := strings.ReplaceAll(ddl, "{{pk}}", pk)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, ddl := range schemaIndexes {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
