package models

import "time"

// Role names. The permission matrix is keyed by these; anything else is
// treated as an unknown role and gets no capabilities.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleMaster   = "master"
)

// User is a session principal.
// Maps to the `users` table. PasswordHash is a bcrypt hash; the password
// itself is never stored.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         string    `db:"role" json:"role"`
	MasterID     *int64    `db:"master_id" json:"master_id,omitempty"`
	ValidID      int       `db:"valid_id" json:"valid_id"`
	CreateTime   time.Time `db:"create_time" json:"create_time"`
	ChangeTime   time.Time `db:"change_time" json:"change_time"`
}

// IsValid returns true if the account is active (valid_id = 1).
func (u *User) IsValid() bool {
	return u.ValidID == 1
}
