package handler

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/maddi-booking/internal/config"
	"github.com/iliyamo/maddi-booking/internal/model"
	"github.com/iliyamo/maddi-booking/internal/repository"
	"github.com/iliyamo/maddi-booking/internal/utils"
)

const testSecret = "handler-secret"

func quiet() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func testConfig() config.Config {
	return config.Config{JWTSecret: testSecret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4, Location: time.UTC}
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

type memUsers struct {
	mu    sync.Mutex
	users map[uint64]model.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[uint64]model.User{}} }

func (m *memUsers) Create(_ context.Context, email, fullName, password, role string, cost int) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	id := uint64(len(m.users) + 1)
	m.users[id] = model.User{ID: id, Email: email, FullName: fullName, PasswordHash: hash, Role: role, IsActive: true}
	return id, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken
}

func newMemTokens() *memTokens { return &memTokens{tokens: map[string]*model.RefreshToken{}} }

func (m *memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[hash] = &model.RefreshToken{UserID: userID, TokenHash: hash, ExpiresAt: exp}
	return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[hash]
	if !ok || t.RevokedAt != nil || time.Now().After(t.ExpiresAt) {
		return 0, repository.ErrNotFound
	}
	return t.UserID, nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[hash]; ok && t.RevokedAt == nil {
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for _, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

// store backs the booking and billboard services.
type store struct {
	mu         sync.Mutex
	seq        uint64
	billboards map[uint64]model.Billboard
	bookings   map[uint64]model.Booking
}

func newStore() *store {
	return &store{billboards: map[uint64]model.Billboard{}, bookings: map[uint64]model.Booking{}}
}

func (s *store) id() uint64 {
	s.seq++
	return s.seq
}

func (s *store) GetBillboard(_ context.Context, id uint64) (model.Billboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.billboards[id]
	if !ok {
		return model.Billboard{}, repository.ErrNotFound
	}
	return b, nil
}

func (s *store) CreateBillboard(_ context.Context, b *model.Billboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	s.billboards[b.ID] = *b
	return nil
}

func (s *store) UpdateBillboard(_ context.Context, b *model.Billboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.billboards[b.ID] = *b
	return nil
}

func (s *store) SetPause(_ context.Context, id uint64, reason model.PauseReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.billboards[id]
	b.PauseReason, b.IsAvailable = reason, reason == model.PauseNone
	s.billboards[id] = b
	return nil
}

func (s *store) ListPublic(context.Context, int, int) ([]model.Billboard, error) { return nil, nil }

func (s *store) ListByOwner(context.Context, uint64) ([]model.Billboard, error) { return nil, nil }

func (s *store) ListBlockedDates(context.Context, uint64) ([]model.BlockedDate, error) {
	return nil, nil
}

func (s *store) CreateBlockedDate(context.Context, *model.BlockedDate) error { return nil }

func (s *store) DeleteBlockedDate(context.Context, uint64, uint64) error { return nil }

func (s *store) ListActiveForBillboard(_ context.Context, billboardID uint64) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.BillboardID == billboardID && (b.Status == model.BookingPending || b.Status == model.BookingApproved) {
			out = append(out, b)
		}
	}
	return out, nil
}

type bookingStore struct{ *store }

func (s bookingStore) CreateBooking(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	s.bookings[b.ID] = *b
	return nil
}

func (s bookingStore) GetBooking(_ context.Context, id uint64) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (s bookingStore) ApproveBooking(_ context.Context, id uint64, exclusive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bookings[id]
	if b.Status != model.BookingPending {
		return repository.ErrStatusChanged
	}
	if exclusive {
		for _, o := range s.bookings {
			if o.ID != id && o.BillboardID == b.BillboardID && o.Status == model.BookingApproved && o.OverlapsWith(b) {
				return repository.ErrConflict
			}
		}
	}
	b.Status = model.BookingApproved
	s.bookings[id] = b
	return nil
}

func (s bookingStore) TransitionBooking(_ context.Context, id uint64, from, to model.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Status != from {
		return repository.ErrStatusChanged
	}
	b.Status = to
	s.bookings[id] = b
	return nil
}

func (s bookingStore) ListApprovedEndingBy(context.Context, string) ([]model.Booking, error) {
	return nil, nil
}

func (s bookingStore) ListApprovedStartingOn(context.Context, string) ([]model.Booking, error) {
	return nil, nil
}

func (s bookingStore) MarkStartNotified(context.Context, uint64) (bool, error) { return false, nil }

func (s bookingStore) ListByBusiness(_ context.Context, businessID uint64) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Booking
	for _, b := range s.bookings {
		if b.BusinessID == businessID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s bookingStore) ListByOwner(context.Context, uint64) ([]model.Booking, error) { return nil, nil }

type invitations struct {
	mu     sync.Mutex
	byHash map[string]*model.AdminInvitation
}

func (f *invitations) CreateInvitation(_ context.Context, inv *model.AdminInvitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv.ID = uint64(len(f.byHash) + 1)
	cp := *inv
	f.byHash[inv.TokenHash] = &cp
	return nil
}

func (f *invitations) GetByTokenHash(_ context.Context, h string) (model.AdminInvitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byHash[h]
	if !ok {
		return model.AdminInvitation{}, repository.ErrNotFound
	}
	return *inv, nil
}

func (f *invitations) HasLiveInvitation(context.Context, string, time.Time) (bool, error) {
	return false, nil
}

func (f *invitations) MarkAccepted(_ context.Context, id uint64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.byHash {
		if inv.ID == id {
			inv.AcceptedAt = &at
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *invitations) ListInvitations(context.Context) ([]model.AdminInvitation, error) {
	return nil, nil
}

type admins struct {
	mu     sync.Mutex
	byUser map[uint64]model.AdminUser
}

func (f *admins) GetByUserID(_ context.Context, id uint64) (model.AdminUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byUser[id]
	if !ok {
		return model.AdminUser{}, repository.ErrNotFound
	}
	return a, nil
}

func (f *admins) GetByEmail(context.Context, string) (model.AdminUser, error) {
	return model.AdminUser{}, repository.ErrNotFound
}

func (f *admins) CreateAdmin(_ context.Context, a *model.AdminUser) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUser[a.UserID] = *a
	return nil
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }
