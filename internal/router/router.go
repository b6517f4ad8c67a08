package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/maddi-booking/internal/handler"
	"github.com/iliyamo/maddi-booking/internal/middleware"
	"github.com/iliyamo/maddi-booking/internal/model"
)

// Deps carries everything the routes need.
type Deps struct {
	JWTSecret     string
	Auth          *handler.AuthHandler
	Billboards    *handler.BillboardHandler
	Bookings      *handler.BookingHandler
	Notifications *handler.NotificationHandler
	Admin         *handler.AdminHandler
	Admins        middleware.AdminResolver
	Ready         echo.HandlerFunc
	Cache         echo.MiddlewareFunc // wraps cacheable public reads; nil disables
	Log           *logrus.Entry
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	if d.Ready != nil {
		e.GET("/readyz", d.Ready)
	}

	cache := d.Cache
	if cache == nil {
		cache = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	// Browse lists are cached; the calendar and its stream never are.
	e.GET("/v1/billboards", d.Billboards.List, cache)
	e.GET("/v1/billboards/:id", d.Billboards.Get)
	e.GET("/v1/billboards/:id/availability", d.Billboards.Availability)
	e.GET("/v1/billboards/:id/availability/events", d.Billboards.AvailabilityEvents)
	e.GET("/v1/billboards/:id/blocked-dates", d.Billboards.BlockedDates)

	e.GET("/v1/admin/invitations/validate", d.Admin.ValidateInvitation)
	e.POST("/v1/admin/invitations/accept-signup", d.Admin.AcceptInvitationSignup)
}

// RegisterAuth registers authentication routes. Unauthenticated token
// operations live under /v1/auth.
func RegisterAuth(e *echo.Echo, d Deps) *echo.Group {
	g := e.Group("/v1/auth")
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.POST("/refresh", d.Auth.Refresh)
	g.POST("/logout", d.Auth.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(d.JWTSecret), middleware.LoadAdminRole(d.Admins, d.Log))
	auth.GET("/me", d.Auth.Me)
	return auth
}

// RegisterProtected registers the marketplace routes on the authenticated
// group returned by RegisterAuth.
func RegisterProtected(auth *echo.Group, d Deps) {
	owner := middleware.RequireRole(model.RoleOwner)
	business := middleware.RequireRole(model.RoleBusiness)

	auth.POST("/billboards", d.Billboards.Create, owner)
	auth.PUT("/billboards/:id", d.Billboards.Update, owner)
	auth.GET("/me/billboards", d.Billboards.ListMine, owner)
	auth.PATCH("/billboards/:id/pause", d.Billboards.SetPaused, owner)
	auth.POST("/billboards/:id/blocked-dates", d.Billboards.AddBlockedDate, owner)
	auth.DELETE("/billboards/:id/blocked-dates/:blockId", d.Billboards.RemoveBlockedDate, owner)

	auth.POST("/bookings", d.Bookings.Create, business)
	auth.GET("/bookings", d.Bookings.ListMine)
	auth.GET("/bookings/:id", d.Bookings.Get)
	auth.POST("/bookings/:id/approve", d.Bookings.Approve, owner)
	auth.POST("/bookings/:id/reject", d.Bookings.Reject, owner)
	auth.POST("/bookings/:id/cancel", d.Bookings.Cancel, business)
	auth.GET("/campaigns/summary", d.Bookings.Summary)

	auth.GET("/notifications", d.Notifications.List)
	auth.POST("/notifications/read-all", d.Notifications.MarkAllRead)
	auth.POST("/notifications/:id/read", d.Notifications.MarkRead)

	// any signed-in account may accept an invitation issued to its email
	auth.POST("/admin/invitations/accept", d.Admin.AcceptInvitation)
}

// RegisterAdmin registers platform administration routes.
func RegisterAdmin(auth *echo.Group, d Deps) {
	admin := auth.Group("/admin", middleware.RequireAdmin(d.Admins, d.Log))
	admin.POST("/invitations", d.Admin.CreateInvitation)
	admin.GET("/invitations", d.Admin.ListInvitations)
	admin.POST("/lifecycle/run", d.Admin.RunLifecycle)
	admin.PATCH("/billboards/:id/pause", d.Billboards.SetPaused)
}

// Register wires every route group.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e, d)
	auth := RegisterAuth(e, d)
	RegisterProtected(auth, d)
	RegisterAdmin(auth, d)
}
