package model

import "time"

// Account roles stored in `users.role`. Platform administration is layered on
// top through `admin_users`, so an admin keeps an ordinary account role.
const (
	RoleOwner    = "OWNER"
	RoleBusiness = "BUSINESS"
	RoleAdmin    = "ADMIN"
)

// User represents a row of the `users` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lower-cased email address.
//  FullName     – display name used in emails.
//  PasswordHash – bcrypt hashed password.
//  Role         – OWNER, BUSINESS or ADMIN.
//  IsActive     – whether the account is active.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	FullName     string    // users.full_name
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// DisplayName falls back to the email when no name was given at signup.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// RefreshToken models an entry in the `refresh_tokens` table. The plain
// token is not stored; only its SHA‑256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
