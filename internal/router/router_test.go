package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/maddi-booking/internal/handler"
)

func testDeps() Deps {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return Deps{
		JWTSecret:     "router-secret",
		Auth:          &handler.AuthHandler{},
		Billboards:    &handler.BillboardHandler{},
		Bookings:      &handler.BookingHandler{},
		Notifications: &handler.NotificationHandler{},
		Admin:         &handler.AdminHandler{},
		Log:           logrus.NewEntry(l),
	}
}

func TestRegisterMountsEveryRoute(t *testing.T) {
	e := echo.New()
	Register(e, testDeps())

	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"GET /v1/billboards",
		"GET /v1/billboards/:id/availability",
		"GET /v1/billboards/:id/availability/events",
		"POST /v1/auth/login",
		"GET /v1/me",
		"POST /v1/bookings",
		"POST /v1/bookings/:id/approve",
		"POST /v1/bookings/:id/reject",
		"POST /v1/bookings/:id/cancel",
		"GET /v1/campaigns/summary",
		"POST /v1/notifications/:id/read",
		"GET /v1/admin/invitations/validate",
		"POST /v1/admin/invitations/accept-signup",
		"POST /v1/admin/invitations/accept",
		"POST /v1/admin/invitations",
		"POST /v1/admin/lifecycle/run",
		"PATCH /v1/admin/billboards/:id/pause",
	} {
		assert.True(t, got[want], "missing route %s", want)
	}
	assert.False(t, got["GET /readyz"], "readiness is only mounted with a probe")
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	e := echo.New()
	Register(e, testDeps())

	for _, path := range []string{"/v1/me", "/v1/bookings", "/v1/admin/invitations"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
