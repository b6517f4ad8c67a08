package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/maddi-booking/internal/service"
)

// NotificationHandler serves the in-app inbox.
type NotificationHandler struct {
	Notifications *service.NotificationService
	Log           *logrus.Entry
}

func NewNotificationHandler(s *service.NotificationService, log *logrus.Entry) *NotificationHandler {
	return &NotificationHandler{Notifications: s, Log: log.WithField("handler", "notification")}
}

// List returns the caller's notifications (?unread=true, ?limit).
func (h *NotificationHandler) List(c echo.Context) error {
	unread, _ := strconv.ParseBool(c.QueryParam("unread"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, err := h.Notifications.List(c.Request().Context(), identity(c), unread, limit)
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MarkRead flags one notification as read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badID(c, "notification id")
	}
	if err := h.Notifications.MarkRead(c.Request().Context(), identity(c), id); err != nil {
		return fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead flags every notification of the caller as read.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	n, err := h.Notifications.MarkAllRead(c.Request().Context(), identity(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"updated": n})
}
