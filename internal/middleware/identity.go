package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// CtxAdminRole holds the admin role resolved by RequireAdmin.
const CtxAdminRole = "admin_role"

// UserID returns the authenticated user id, or 0 for anonymous requests.
func UserID(c echo.Context) uint64 {
	id, _ := c.Get(CtxUserID).(uint64)
	return id
}

// Role returns the account role claim.
func Role(c echo.Context) string {
	r, _ := c.Get(CtxRole).(string)
	return r
}

// Email returns the email claim.
func Email(c echo.Context) string {
	e, _ := c.Get(CtxEmail).(string)
	return e
}

// AdminRole returns the admin role stored by RequireAdmin, or "".
func AdminRole(c echo.Context) string {
	r, _ := c.Get(CtxAdminRole).(string)
	return r
}

// userKey identifies the caller for rate limit keys; anonymous callers
// share "anon" and are told apart by IP.
func userKey(c echo.Context) string {
	if id := UserID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
