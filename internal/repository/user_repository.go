package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/remfix/remfix/internal/models"
)

// UserRepository defines account persistence operations.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// UserSQLRepository is the sqlx implementation of UserRepository.
type UserSQLRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sqlx.DB) *UserSQLRepository {
	return &UserSQLRepository{db: db}
}

// Create inserts the user and fills its ID.
func (r *UserSQLRepository) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.CreateTime.IsZero() {
		u.CreateTime = now
	}
	u.ChangeTime = now
	if u.ValidID == 0 {
		u.ValidID = 1
	}

	query := r.db.Rebind(`
		INSERT INTO users (username, password_hash, full_name, role, master_id, valid_id, create_time, change_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	if r.db.DriverName() == "postgres" {
		query += " RETURNING id"
		return r.db.QueryRowContext(ctx, query,
			u.Username, u.PasswordHash, u.FullName, u.Role, u.MasterID,
			u.ValidID, u.CreateTime, u.ChangeTime,
		).Scan(&u.ID)
	}

	res, err := r.db.ExecContext(ctx, query,
		u.Username, u.PasswordHash, u.FullName, u.Role, u.MasterID,
		u.ValidID, u.CreateTime, u.ChangeTime,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	return nil
}

// GetByID fetches one user.
func (r *UserSQLRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	query := r.db.Rebind(`SELECT * FROM users WHERE id = ?`)
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user %d: %w", id, err)
	}
	return &u, nil
}

// GetByUsername fetches one user by login name.
func (r *UserSQLRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	query := r.db.Rebind(`SELECT * FROM users WHERE username = ?`)
	if err := r.db.GetContext(ctx, &u, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user %q: %w", username, err)
	}
	return &u, nil
}

// List returns all users ordered by username.
func (r *UserSQLRepository) List(ctx context.Context) ([]*models.User, error) {
	users := []*models.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY username ASC`); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return users, nil
}

// UpdatePassword replaces the stored bcrypt hash.
func (r *UserSQLRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := r.db.Rebind(`UPDATE users SET password_hash = ?, change_time = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update user %d password: %w", id, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}
