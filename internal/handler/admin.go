package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/maddi-booking/internal/model"
	"github.com/iliyamo/maddi-booking/internal/repository"
	"github.com/iliyamo/maddi-booking/internal/service"
	"github.com/iliyamo/maddi-booking/internal/utils"
)

// AdminHandler serves administrator onboarding and platform operations.
type AdminHandler struct {
	Invitations *service.InvitationService
	Bookings    *service.BookingService
	Auth        *AuthHandler
	Log         *logrus.Entry
}

func NewAdminHandler(inv *service.InvitationService, bookings *service.BookingService, auth *AuthHandler, log *logrus.Entry) *AdminHandler {
	return &AdminHandler{Invitations: inv, Bookings: bookings, Auth: auth, Log: log.WithField("handler", "admin")}
}

type inviteReq struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin super_admin"`
}

type acceptSignupReq struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"max=255"`
}

type acceptReq struct {
	Token string `json:"token" validate:"required"`
}

// CreateInvitation lets a super admin invite another administrator.
func (h *AdminHandler) CreateInvitation(c echo.Context) error {
	var req inviteReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	out, err := h.Invitations.Create(c.Request().Context(), identity(c), req.Email, model.AdminRole(req.Role))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// ListInvitations returns every invitation.
func (h *AdminHandler) ListInvitations(c echo.Context) error {
	items, err := h.Invitations.List(c.Request().Context(), identity(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ValidateInvitation tells a token holder which email and role the
// invitation grants (?token=).
func (h *AdminHandler) ValidateInvitation(c echo.Context) error {
	info, err := h.Invitations.Validate(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, info)
}

// AcceptInvitationSignup creates the account for the invited email and
// grants the invited admin role in one step. Existing accounts must sign in
// and use AcceptInvitation instead.
func (h *AdminHandler) AcceptInvitationSignup(c echo.Context) error {
	var req acceptSignupReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	info, err := h.Invitations.Validate(ctx, req.Token)
	if err != nil {
		return fail(c, h.Log, err)
	}
	if err := utils.CheckPasswordPolicy(req.Password); err != nil {
		return badRequest(c, err)
	}
	uid, err := h.Auth.Users.Create(ctx, info.Email, req.FullName, req.Password, model.RoleAdmin, h.Auth.Cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "an account already exists for this email; sign in to accept"})
	}
	if err != nil {
		h.Log.WithError(err).Error("create admin account failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	user := model.User{ID: uid, Email: info.Email, FullName: strings.TrimSpace(req.FullName), Role: model.RoleAdmin, IsActive: true}
	admin, err := h.Invitations.Accept(ctx, req.Token, service.Identity{UserID: uid, Email: info.Email, Role: model.RoleAdmin})
	if err != nil {
		h.Log.WithError(err).WithField("user_id", uid).Warn("account created but invitation not accepted")
		return fail(c, h.Log, err)
	}
	tokens, err := h.Auth.issue(ctx, user)
	if err != nil {
		h.Log.WithError(err).Error("issue tokens failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"admin": admin, "auth": tokens})
}

// AcceptInvitation binds the invitation to the signed-in account.
func (h *AdminHandler) AcceptInvitation(c echo.Context) error {
	var req acceptReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	admin, err := h.Invitations.Accept(c.Request().Context(), req.Token, identity(c))
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, admin)
}

// RunLifecycle triggers the daily lifecycle pass immediately.
func (h *AdminHandler) RunLifecycle(c echo.Context) error {
	rep, err := h.Bookings.RunDaily(c.Request().Context())
	if err != nil {
		return fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, rep)
}
