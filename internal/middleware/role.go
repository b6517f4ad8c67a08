package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified account roles. It assumes
// JWTAuth ran first.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[Role(c)] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// AdminResolver maps a user to its admin role; "" means not an admin.
type AdminResolver interface {
	ResolveAdmin(ctx context.Context, userID uint64) (string, error)
}

// AdminResolverFunc adapts a function to AdminResolver.
type AdminResolverFunc func(ctx context.Context, userID uint64) (string, error)

func (f AdminResolverFunc) ResolveAdmin(ctx context.Context, userID uint64) (string, error) {
	return f(ctx, userID)
}

// LoadAdminRole stores the caller's admin role under CtxAdminRole when the
// caller is an administrator. Lookup failures are logged and treated as
// "not an admin"; it never rejects a request.
func LoadAdminRole(res AdminResolver, log *logrus.Entry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if uid := UserID(c); uid != 0 {
				role, err := res.ResolveAdmin(c.Request().Context(), uid)
				if err != nil {
					log.WithError(err).WithField("user_id", uid).Warn("admin lookup failed")
				} else if role != "" {
					c.Set(CtxAdminRole, role)
				}
			}
			return next(c)
		}
	}
}

// RequireAdmin admits only users with an admin_users record. Admin rights
// live in the database rather than the token, so a revoked admin loses
// access on the next request.
func RequireAdmin(res AdminResolver, log *logrus.Entry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid := UserID(c)
			if uid == 0 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			if AdminRole(c) != "" {
				return next(c)
			}
			role, err := res.ResolveAdmin(c.Request().Context(), uid)
			if err != nil {
				log.WithError(err).WithField("user_id", uid).Error("admin lookup failed")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "admin lookup failed"})
			}
			if role == "" {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			c.Set(CtxAdminRole, role)
			return next(c)
		}
	}
}
