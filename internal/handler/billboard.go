package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/maddi-booking/internal/realtime"
	"github.com/iliyamo/maddi-booking/internal/service"
)

// BillboardHandler serves billboard management, blocked dates and the
// availability calendar.
type BillboardHandler struct {
	Billboards *service.BillboardService
	Feed       realtime.Feed
	Heartbeat  time.Duration
	Log        *logrus.Entry
}

func NewBillboardHandler(s *service.BillboardService, feed realtime.Feed, log *logrus.Entry) *BillboardHandler {
	return &BillboardHandler{Billboards: s, Feed: feed, Heartbeat: 25 * time.Second, Log: log.WithField("handler", "billboard")}
}

type billboardReq struct {
	Title            string  `json:"title" validate:"required,max=255"`
	Location         string  `json:"location" validate:"max=512"`
	Latitude         float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude        float64 `json:"longitude" validate:"gte=-180,lte=180"`
	WidthM           float64 `json:"width_m" validate:"gte=0"`
	HeightM          float64 `json:"height_m" validate:"gte=0"`
	Type             string  `json:"billboard_type" validate:"required,oneof=static digital"`
	DailyImpressions uint32  `json:"daily_impressions"`
	PricePerMonth    int64   `json:"price_per_month_cents" validate:"gte=0"`
}

func (r billboardReq) input() service.BillboardInput {
	return service.BillboardInput{
		Title:            r.Title,
		Location:         r.Location,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		WidthM:           r.WidthM,
		HeightM:          r.HeightM,
		Type:             r.Type,
		DailyImpressions: r.DailyImpressions,
		PricePerMonth:    r.PricePerMonth,
	}
}

type blockedDateReq struct {
	StartDate string  `json:"start_date" validate:"required"`
	EndDate   string  `json:"end_date" validate:"required"`
	Reason    *string `json:"reason" validate:"omitempty,max=255"`
}

type pauseReq struct {
	Paused bool `json:"paused"`
}

// Create registers a billboard for the calling owner.
func (h *BillboardHandler) Create(c echo.Context) error {
	var req billboardReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	b, err := h.Billboards.Create(c.Request().Context(), identity(c), req.input())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// Update replaces the descriptive fields of an owned billboard.
func (h *BillboardHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "billboard id")
	}
	var req billboardReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	b, err := h.Billboards.Update(c.Request().Context(), identity(c), id, req.input())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// Get returns one billboard with today's availability.
func (h *BillboardHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "billboard id")
	}
	d, err := h.Billboards.Detail(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, d)
}

// List pages through all billboards (?limit, ?offset).
func (h *BillboardHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	items, err := h.Billboards.ListPublic(c.Request().Context(), limit, offset)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "limit": limit, "offset": offset})
}

// ListMine returns the calling owner's billboards.
func (h *BillboardHandler) ListMine(c echo.Context) error {
	items, err := h.Billboards.ListMine(c.Request().Context(), identity(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// SetPaused pauses or resumes a billboard. Admin callers pause with the
// admin reason.
func (h *BillboardHandler) SetPaused(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "billboard id")
	}
	var req pauseReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	b, err := h.Billboards.SetPaused(c.Request().Context(), identity(c), id, req.Paused)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// BlockedDates lists the blocked windows of a billboard.
func (h *BillboardHandler) BlockedDates(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "billboard id")
	}
	items, err := h.Billboards.BlockedDates(c.Request().Context(), id)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// AddBlockedDate blocks an inclusive date range on an owned billboard.
func (h *BillboardHandler) AddBlockedDate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "billboard id")
	}
	var req blockedDateReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	d, err := h.Billboards.AddBlockedDate(c.Request().Context(), identity(c), id, req.StartDate, req.EndDate, req.Reason)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, d)
}

// RemoveBlockedDate deletes one blocked window.
func (h *BillboardHandler) RemoveBlockedDate(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "billboard id")
	}
	blockID, ok := pathID(c, "blockId")
	if !ok {
		return badID(c, "blocked date id")
	}
	if err := h.Billboards.RemoveBlockedDate(c.Request().Context(), identity(c), id, blockID); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Availability returns the calendar between ?from and ?to (YYYY-MM-DD).
func (h *BillboardHandler) Availability(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "billboard id")
	}
	view, err := h.Billboards.Availability(c.Request().Context(), id, c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, view)
}

// AvailabilityEvents streams change events for one billboard as
// server-sent events. Clients refetch the calendar on each event.
func (h *BillboardHandler) AvailabilityEvents(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "billboard id")
	}
	ctx := c.Request().Context()
	if _, err := h.Billboards.Get(ctx, id); err != nil {
		return fail(c, h.Log, err)
	}
	events, cancel, err := h.Feed.Subscribe(ctx, id)
	if err != nil {
		h.Log.WithError(err).WithField("billboard_id", id).Error("subscribe failed")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "change feed unavailable"})
	}
	defer cancel()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "event: ready\ndata: {\"billboard_id\":%d}\n\n", id)
	w.Flush()

	beat := h.Heartbeat
	if beat <= 0 {
		beat = 25 * time.Second
	}
	ticker := time.NewTicker(beat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			w.Flush()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
			w.Flush()
		}
	}
}
