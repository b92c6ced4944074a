package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/spiderhome/internal/model"
)

// UserRepo persists back-office accounts in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, username, password_hash, role, created_at, updated_at"

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername fetches a user by trimmed username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = ? LIMIT 1", strings.TrimSpace(username)))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id))
}

// EnsureAdmin inserts the admin row only when the username is free.
// INSERT IGNORE keeps an existing credential and tolerates two processes
// seeding concurrently.
func (r *UserRepo) EnsureAdmin(ctx context.Context, username, passwordHash, role string) (bool, error) {
	now := Now()
	res, err := r.DB.ExecContext(ctx,
		`INSERT IGNORE INTO users (username, password_hash, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		strings.TrimSpace(username), passwordHash, role, now, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// LoginAttemptRepo persists login attempts in the 'login_attempts' table.
type LoginAttemptRepo struct{ DB *sql.DB }

func NewLoginAttemptRepo(db *sql.DB) *LoginAttemptRepo { return &LoginAttemptRepo{DB: db} }

// Record inserts one attempt.
func (r *LoginAttemptRepo) Record(ctx context.Context, a model.LoginAttempt) error {
	if a.AttemptedAt.IsZero() {
		a.AttemptedAt = Now()
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO login_attempts (ip, username, success, attempted_at) VALUES (?, ?, ?, ?)",
		a.IP, a.Username, a.Success, a.AttemptedAt)
	return err
}

// CountFailures returns failed attempts from ip at or after since.
func (r *LoginAttemptRepo) CountFailures(ctx context.Context, ip string, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM login_attempts WHERE ip = ? AND success = 0 AND attempted_at >= ?",
		ip, since.UTC()).Scan(&n)
	return n, err
}
