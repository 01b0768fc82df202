package models

import "time"

// MasterOnlineWindow is the rolling window inside which a location update
// counts as "online". An update exactly this old is offline.
const MasterOnlineWindow = 2 * time.Hour

// Master represents a field technician.
// Maps to the `masters` table.
type Master struct {
	ID               int64      `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	Phone            string     `db:"phone" json:"phone"`
	Region           string     `db:"region" json:"region"`
	TelegramChatID   *int64     `db:"telegram_chat_id" json:"telegram_chat_id,omitempty"`
	LastLatitude     *float64   `db:"last_latitude" json:"last_latitude,omitempty"`
	LastLongitude    *float64   `db:"last_longitude" json:"last_longitude,omitempty"`
	LastLocationTime *time.Time `db:"last_location_time" json:"last_location_time,omitempty"`
	CreateTime       time.Time  `db:"create_time" json:"create_time"`
	ChangeTime       time.Time  `db:"change_time" json:"change_time"`
}

// OnlineAt reports whether the master counts as online at the given instant.
// Online is derived, never stored: a location update strictly newer than the
// rolling window. A master with no location update yet is offline.
func (m *Master) OnlineAt(now time.Time) bool {
	if m.LastLocationTime == nil {
		return false
	}
	return now.Sub(*m.LastLocationTime) < MasterOnlineWindow
}
