package service

import "github.com/iliyamo/maddi-booking/internal/model"

// Identity is the authenticated caller of an operation. It is built per
// request from the access token (and the admin_users row for admin routes)
// and passed explicitly instead of living in shared state.
type Identity struct {
	UserID    uint64
	Email     string
	Role      string
	AdminRole model.AdminRole
}

// IsAdmin reports whether the caller holds any platform admin role.
func (i Identity) IsAdmin() bool { return model.ValidAdminRole(string(i.AdminRole)) }

// IsSuperAdmin reports whether the caller may manage other admins.
func (i Identity) IsSuperAdmin() bool { return i.AdminRole == model.AdminRoleSuperAdmin }
