package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/maddi-booking/internal/middleware"
	"github.com/iliyamo/maddi-booking/internal/model"
	"github.com/iliyamo/maddi-booking/internal/service"
	"github.com/iliyamo/maddi-booking/internal/utils"
)

var handlerNow = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

type bookingFixture struct {
	e        *echo.Echo
	store    *store
	owner    string
	business string
	stranger string
}

func token(t *testing.T, uid uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, uid, role, "", 5)
	require.NoError(t, err)
	return tok.Token
}

func newBookingFixture(t *testing.T) *bookingFixture {
	st := newStore()
	users := newMemUsers()
	ctx := context.Background()
	ownerID, err := users.Create(ctx, "owner@example.com", "Olive", "long-enough", model.RoleOwner, 4)
	require.NoError(t, err)
	businessID, err := users.Create(ctx, "ads@example.com", "Acme", "long-enough", model.RoleBusiness, 4)
	require.NoError(t, err)
	st.seq = 100
	st.billboards[100] = model.Billboard{ID: 100, OwnerID: ownerID, Title: "North", Type: model.BillboardStatic, IsAvailable: true, PricePerMonth: 30000}

	bookings := service.NewBookingService(bookingStore{st}, st, users, nil, time.UTC, quiet())
	bookings.Now = func() time.Time { return handlerNow }
	billboards := service.NewBillboardService(st, st, nil, time.UTC, quiet())
	billboards.Now = bookings.Now

	bh := NewBookingHandler(bookings, quiet())
	bbh := NewBillboardHandler(billboards, nil, quiet())
	admin := NewAdminHandler(nil, bookings, nil, quiet())

	e := newEcho()
	e.GET("/billboards/:id", bbh.Get)
	e.GET("/billboards/:id/availability", bbh.Availability)
	g := e.Group("", middleware.JWTAuth(testSecret))
	g.POST("/bookings", bh.Create, middleware.RequireRole(model.RoleBusiness))
	g.GET("/bookings", bh.ListMine)
	g.GET("/bookings/:id", bh.Get)
	g.POST("/bookings/:id/approve", bh.Approve, middleware.RequireRole(model.RoleOwner))
	g.POST("/bookings/:id/cancel", bh.Cancel, middleware.RequireRole(model.RoleBusiness))
	g.GET("/campaigns/summary", bh.Summary)
	g.PATCH("/billboards/:id/pause", bbh.SetPaused, middleware.RequireRole(model.RoleOwner))
	g.POST("/lifecycle/run", admin.RunLifecycle)

	return &bookingFixture{
		e:        e,
		store:    st,
		owner:    token(t, ownerID, model.RoleOwner),
		business: token(t, businessID, model.RoleBusiness),
		stranger: token(t, 77, model.RoleOwner),
	}
}

func (f *bookingFixture) do(method, path, body, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+auth)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *bookingFixture) create(t *testing.T, start, end string) service.BookingView {
	t.Helper()
	rec := f.do(http.MethodPost, "/bookings", `{"billboard_id":100,"start_date":"`+start+`","end_date":"`+end+`"}`, f.business)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var v service.BookingView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	f := newBookingFixture(t)

	first := f.create(t, "2025-06-15", "2025-06-20")
	assert.Equal(t, model.BookingPending, first.Status)
	assert.EqualValues(t, "pending", first.Campaign)
	assert.Equal(t, int64(6000), first.TotalPrice)

	second := f.create(t, "2025-06-20", "2025-06-22")

	rec := f.do(http.MethodPost, "/bookings/"+itoa(first.ID)+"/approve", "", f.stranger)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/bookings/"+itoa(first.ID)+"/approve", "", f.owner)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"campaign_status":"scheduled"`)

	rec = f.do(http.MethodPost, "/bookings/"+itoa(second.ID)+"/approve", "", f.owner)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPost, "/bookings/"+itoa(first.ID)+"/approve", "", f.owner)
	assert.Equal(t, http.StatusConflict, rec.Code, "approving twice is an invalid transition")

	rec = f.do(http.MethodPost, "/bookings/"+itoa(first.ID)+"/cancel", "", f.business)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)

	rec = f.do(http.MethodGet, "/bookings", "", f.business)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []service.BookingView `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Items, 2)

	rec = f.do(http.MethodGet, "/campaigns/summary", "", f.business)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":2`)
}

func TestBookingHandlerErrors(t *testing.T) {
	f := newBookingFixture(t)

	rec := f.do(http.MethodPost, "/bookings", `{"billboard_id":100}`, f.business)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/bookings", `{"billboard_id":100,"start_date":"2025-06-01","end_date":"2025-06-02"}`, f.business)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/bookings", `{"billboard_id":5,"start_date":"2025-07-01","end_date":"2025-07-02"}`, f.business)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/bookings", `{"billboard_id":100,"start_date":"2025-07-01","end_date":"2025-07-02"}`, f.owner)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/bookings/abc/approve", "", f.owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/bookings/9999/approve", "", f.owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/bookings/1", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAvailabilityOverHTTP(t *testing.T) {
	f := newBookingFixture(t)
	b := f.create(t, "2025-06-12", "2025-06-12")
	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/bookings/"+itoa(b.ID)+"/approve", "", f.owner).Code)

	rec := f.do(http.MethodGet, "/billboards/100/availability?from=2025-06-11&to=2025-06-13", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view service.AvailabilityView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Days, 3)
	assert.EqualValues(t, "booked", view.Days[1].Status)
	assert.False(t, view.Days[1].Selectable)
	assert.True(t, view.Days[2].Selectable)

	rec = f.do(http.MethodGet, "/billboards/100/availability?from=13-06-2025", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(http.MethodGet, "/billboards/404/availability", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPatch, "/billboards/100/pause", `{"paused":true}`, f.stranger)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(http.MethodPatch, "/billboards/100/pause", `{"paused":true}`, f.owner)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/billboards/100", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available_today":false`)
	assert.Contains(t, rec.Body.String(), `"pause_reason":"owner"`)
}

func TestRunLifecycleOverHTTP(t *testing.T) {
	f := newBookingFixture(t)
	rec := f.do(http.MethodPost, "/lifecycle/run", "", f.owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"day":"2025-06-10","completed":0,"started":0,"failed":0}`, rec.Body.String())
}

func itoa(n uint64) string { return strconv.FormatUint(n, 10) }
