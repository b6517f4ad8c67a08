package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/maddi-booking/internal/model"
	"github.com/iliyamo/maddi-booking/internal/service"
)

// BookingHandler exposes the booking request state machine.
type BookingHandler struct {
	Bookings *service.BookingService
	Log      *logrus.Entry
}

func NewBookingHandler(s *service.BookingService, log *logrus.Entry) *BookingHandler {
	return &BookingHandler{Bookings: s, Log: log.WithField("handler", "booking")}
}

type createBookingReq struct {
	BillboardID uint64 `json:"billboard_id" validate:"required"`
	StartDate   string `json:"start_date" validate:"required"`
	EndDate     string `json:"end_date" validate:"required"`
}

func (h *BookingHandler) view(b model.Booking) service.BookingView {
	return h.Bookings.Views([]model.Booking{b})[0]
}

// Create submits a pending booking request.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	b, err := h.Bookings.Create(c.Request().Context(), identity(c), service.CreateRequest{
		BillboardID: req.BillboardID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, h.view(b))
}

type bookingOp func(ctx context.Context, caller service.Identity, id uint64) (model.Booking, error)

func (h *BookingHandler) byID(c echo.Context, op bookingOp) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "booking id")
	}
	b, err := op(c.Request().Context(), identity(c), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, h.view(b))
}

// Approve accepts a pending request on one of the caller's billboards.
func (h *BookingHandler) Approve(c echo.Context) error { return h.byID(c, h.Bookings.Approve) }

// Reject declines a pending request.
func (h *BookingHandler) Reject(c echo.Context) error { return h.byID(c, h.Bookings.Reject) }

// Cancel withdraws the caller's own request.
func (h *BookingHandler) Cancel(c echo.Context) error { return h.byID(c, h.Bookings.Cancel) }

// Get returns one booking visible to the caller.
func (h *BookingHandler) Get(c echo.Context) error { return h.byID(c, h.Bookings.Get) }

// ListMine lists the caller's bookings with their campaign status.
func (h *BookingHandler) ListMine(c echo.Context) error {
	items, err := h.Bookings.ListMine(c.Request().Context(), identity(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": h.Bookings.Views(items)})
}

// Summary counts the caller's bookings per campaign status.
func (h *BookingHandler) Summary(c echo.Context) error {
	sum, err := h.Bookings.Summary(c.Request().Context(), identity(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, sum)
}
