package models

import "time"

// SessionCookieName is the cookie carrying the session ID.
const SessionCookieName = "remfix_session"

// Session represents an active user session.
// Maps to the `sessions` table.
type Session struct {
	SessionID   string    `db:"session_id" json:"session_id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Username    string    `db:"username" json:"username"`
	Role        string    `db:"role" json:"role"`
	RemoteAddr  string    `db:"remote_addr" json:"remote_addr"`
	UserAgent   string    `db:"user_agent" json:"user_agent"`
	CreateTime  time.Time `db:"create_time" json:"create_time"`
	LastRequest time.Time `db:"last_request" json:"last_request"`
}

// ExpiredAt reports whether the session has outlived maxAge or sat idle
// longer than idle at the given instant. A zero duration disables that check.
func (s *Session) ExpiredAt(now time.Time, maxAge, idle time.Duration) bool {
	if maxAge > 0 && now.Sub(s.CreateTime) >= maxAge {
		return true
	}
	if idle > 0 && now.Sub(s.LastRequest) >= idle {
		return true
	}
	return false
}
