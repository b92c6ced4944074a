package model

import "time"

// Roles accepted on admin routes.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// User represents a back-office account as stored in the `users` table.
// The password hash never leaves the server; handlers respond with
// PublicUser instead.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique login name.
//	PasswordHash – bcrypt hashed password.
//	Role         – admin or editor.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// PublicUser is the serialized form of a user in login responses.
type PublicUser struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Public strips credentials from u.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Role: u.Role}
}

// LoginAttempt models an entry in the `login_attempts` table.  Every
// login request records one row; failures within a window feed the
// brute-force counter.
type LoginAttempt struct {
	ID          uint64    // login_attempts.id
	IP          string    // login_attempts.ip
	Username    string    // login_attempts.username
	Success     bool      // login_attempts.success
	AttemptedAt time.Time // login_attempts.attempted_at
}
