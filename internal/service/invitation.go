package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/maddi-booking/internal/model"
	"github.com/iliyamo/maddi-booking/internal/repository"
	"github.com/iliyamo/maddi-booking/internal/utils"
)

// InvitationStore persists admin invitations by token hash.
type InvitationStore interface {
	CreateInvitation(ctx context.Context, inv *model.AdminInvitation) error
	GetByTokenHash(ctx context.Context, tokenHash string) (model.AdminInvitation, error)
	HasLiveInvitation(ctx context.Context, email string, now time.Time) (bool, error)
	// MarkAccepted sets accepted_at only while it is still NULL and returns
	// repository.ErrStatusChanged otherwise.
	MarkAccepted(ctx context.Context, id uint64, at time.Time) error
	ListInvitations(ctx context.Context) ([]model.AdminInvitation, error)
}

// AdminStore persists admin_users rows.
type AdminStore interface {
	GetByUserID(ctx context.Context, userID uint64) (model.AdminUser, error)
	GetByEmail(ctx context.Context, email string) (model.AdminUser, error)
	CreateAdmin(ctx context.Context, a *model.AdminUser) error
}

// InvitationService runs administrator onboarding through single-use tokens.
type InvitationService struct {
	Invitations InvitationStore
	Admins      AdminStore
	Dispatch    *Dispatcher
	BaseURL     string
	Now         func() time.Time
	NewToken    func() (string, error)
	Log         *logrus.Entry
}

// NewInvitationService wires the service; baseURL prefixes acceptance links.
func NewInvitationService(inv InvitationStore, admins AdminStore, d *Dispatcher, baseURL string, log *logrus.Entry) *InvitationService {
	return &InvitationService{
		Invitations: inv,
		Admins:      admins,
		Dispatch:    d,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Now:         time.Now,
		NewToken:    utils.NewOpaqueToken,
		Log:         log.WithField("component", "invitation"),
	}
}

// CreatedInvitation is returned to the inviting super admin.
type CreatedInvitation struct {
	Invitation model.AdminInvitation `json:"invitation"`
	AcceptURL  string                `json:"accept_url"`
}

// Create invites email as an admin of the given role. Only super admins
// may invite; the email must not already be an admin nor hold another
// live invitation.
func (s *InvitationService) Create(ctx context.Context, caller Identity, email string, role model.AdminRole) (CreatedInvitation, error) {
	if !caller.IsSuperAdmin() {
		return CreatedInvitation{}, fail(ErrUnauthorized, "only super admins can invite administrators")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return CreatedInvitation{}, fail(ErrValidation, "a valid email is required")
	}
	if !model.ValidAdminRole(string(role)) {
		return CreatedInvitation{}, fail(ErrValidation, "role must be admin or super_admin")
	}

	_, err := s.Admins.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return CreatedInvitation{}, fail(ErrConflict, "%s is already an administrator", email)
	case !errors.Is(err, repository.ErrNotFound):
		return CreatedInvitation{}, storeErr("admin lookup", err)
	}
	now := s.Now()
	live, err := s.Invitations.HasLiveInvitation(ctx, email, now)
	if err != nil {
		return CreatedInvitation{}, storeErr("invitation lookup", err)
	}
	if live {
		return CreatedInvitation{}, fail(ErrConflict, "%s already has a pending invitation", email)
	}

	raw, err := s.NewToken()
	if err != nil {
		return CreatedInvitation{}, err
	}
	inv := model.AdminInvitation{
		Email:     email,
		Role:      role,
		TokenHash: utils.HashToken(raw),
		InvitedBy: caller.UserID,
		ExpiresAt: now.UTC().Add(model.InvitationTTL),
	}
	if err := s.Invitations.CreateInvitation(ctx, &inv); err != nil {
		return CreatedInvitation{}, storeErr("create invitation", err)
	}

	link := s.BaseURL + "/admin/accept?token=" + url.QueryEscape(raw)
	s.Dispatch.Email(ctx, model.EmailMessage{
		RecipientEmail: email,
		RecipientName:  email,
		Template:       model.EmailAdminInvitation,
		Data: map[string]string{
			"role":       string(role),
			"accept_url": link,
			"expires_at": inv.ExpiresAt.Format(time.RFC1123),
		},
	})
	return CreatedInvitation{Invitation: inv, AcceptURL: link}, nil
}

// InvitationInfo is what a token holder may learn about the invitation.
type InvitationInfo struct {
	Email     string          `json:"email"`
	Role      model.AdminRole `json:"role"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Validate resolves a raw token. It fails with ErrNotFound, ErrAlreadyUsed
// or ErrExpired, in that order of precedence.
func (s *InvitationService) Validate(ctx context.Context, token string) (InvitationInfo, error) {
	inv, err := s.lookup(ctx, token)
	if err != nil {
		return InvitationInfo{}, err
	}
	return InvitationInfo{Email: inv.Email, Role: inv.Role, ExpiresAt: inv.ExpiresAt}, nil
}

func (s *InvitationService) lookup(ctx context.Context, token string) (model.AdminInvitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.AdminInvitation{}, fail(ErrNotFound, "invitation")
	}
	inv, err := s.Invitations.GetByTokenHash(ctx, utils.HashToken(token))
	if err != nil {
		return model.AdminInvitation{}, storeErr("invitation", err)
	}
	if inv.Accepted() {
		return model.AdminInvitation{}, fail(ErrAlreadyUsed, "invitation for %s", inv.Email)
	}
	if inv.Expired(s.Now()) {
		return model.AdminInvitation{}, fail(ErrExpired, "invitation for %s", inv.Email)
	}
	return inv, nil
}

// Accept binds the invitation to user, whose account must have been created
// for the invited email. The admin record is inserted first; if that fails
// the token stays usable. If marking the token fails afterwards the access
// already granted stands and the failure is only logged; retrying the same
// token then finds the admin row and finishes marking it.
func (s *InvitationService) Accept(ctx context.Context, token string, user Identity) (model.AdminUser, error) {
	inv, err := s.lookup(ctx, token)
	if err != nil {
		return model.AdminUser{}, err
	}
	if user.UserID == 0 {
		return model.AdminUser{}, fail(ErrValidation, "an account is required to accept an invitation")
	}
	if !strings.EqualFold(strings.TrimSpace(user.Email), inv.Email) {
		return model.AdminUser{}, fail(ErrUnauthorized, "invitation was issued to another email")
	}

	admin := model.AdminUser{UserID: user.UserID, Email: inv.Email, Role: inv.Role}
	if err := s.Admins.CreateAdmin(ctx, &admin); err != nil {
		if !errors.Is(err, repository.ErrConflict) {
			return model.AdminUser{}, storeErr("create admin", err)
		}
		// an earlier accept granted access but failed to mark the token
		existing, gerr := s.Admins.GetByUserID(ctx, user.UserID)
		if gerr != nil || !strings.EqualFold(existing.Email, inv.Email) {
			return model.AdminUser{}, storeErr("create admin", err)
		}
		admin = existing
	}
	if err := s.Invitations.MarkAccepted(ctx, inv.ID, s.Now().UTC()); err != nil {
		s.Log.WithError(err).WithFields(logrus.Fields{
			"invitation_id": inv.ID,
			"user_id":       user.UserID,
		}).Warn("admin created but invitation not marked accepted")
	}
	return admin, nil
}

// List returns every invitation for super admins, newest first.
func (s *InvitationService) List(ctx context.Context, caller Identity) ([]model.AdminInvitation, error) {
	if !caller.IsSuperAdmin() {
		return nil, fail(ErrUnauthorized, "only super admins can list invitations")
	}
	out, err := s.Invitations.ListInvitations(ctx)
	if err != nil {
		return nil, storeErr("list invitations", err)
	}
	return out, nil
}

// ResolveAdmin returns the admin role of a user, or "" when the user is not
// an administrator.
func (s *InvitationService) ResolveAdmin(ctx context.Context, userID uint64) (model.AdminRole, error) {
	a, err := s.Admins.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", storeErr("admin lookup", err)
	}
	return a.Role, nil
}
