package model

import "time"

// AdminRole is the platform administration level stored in `admin_users`.
type AdminRole string

const (
	AdminRoleAdmin      AdminRole = "admin"
	AdminRoleSuperAdmin AdminRole = "super_admin"
)

// ValidAdminRole reports whether r is a known admin role.
func ValidAdminRole(r string) bool {
	switch AdminRole(r) {
	case AdminRoleAdmin, AdminRoleSuperAdmin:
		return true
	}
	return false
}

// InvitationTTL is how long an admin invitation can be accepted.
const InvitationTTL = 7 * 24 * time.Hour

// AdminInvitation mirrors `admin_invitations`. Only the SHA-256 hash of the
// token is persisted; the raw token travels in the invitation email.
type AdminInvitation struct {
	ID         uint64     `json:"id"`
	Email      string     `json:"email"`
	Role       AdminRole  `json:"role"`
	TokenHash  string     `json:"-"`
	InvitedBy  uint64     `json:"invited_by"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Accepted reports whether the single use of the token has been consumed.
func (i AdminInvitation) Accepted() bool { return i.AcceptedAt != nil }

// Expired is derived, never stored: past expiry and still unaccepted.
func (i AdminInvitation) Expired(now time.Time) bool {
	return i.AcceptedAt == nil && now.After(i.ExpiresAt)
}

// Live reports whether the invitation can still be accepted.
func (i AdminInvitation) Live(now time.Time) bool {
	return i.AcceptedAt == nil && !now.After(i.ExpiresAt)
}

// AdminUser mirrors `admin_users`.
type AdminUser struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Email     string    `json:"email"`
	Role      AdminRole `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
