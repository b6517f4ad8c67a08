package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/maddi-booking/internal/model"
	"github.com/iliyamo/maddi-booking/internal/realtime"
	"github.com/iliyamo/maddi-booking/internal/repository"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// memDB is a shared in-memory backing for the store fakes below.
type memDB struct {
	mu         sync.Mutex
	seq        uint64
	bookings   map[uint64]model.Booking
	billboards map[uint64]model.Billboard
	blocked    map[uint64][]model.BlockedDate
	users      map[uint64]model.User
}

func newMemDB() *memDB {
	return &memDB{
		bookings:   map[uint64]model.Booking{},
		billboards: map[uint64]model.Billboard{},
		blocked:    map[uint64][]model.BlockedDate{},
		users:      map[uint64]model.User{},
	}
}

func (m *memDB) next() uint64 {
	m.seq++
	return m.seq
}

func (m *memDB) addUser(u model.User) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		u.ID = m.next()
	}
	m.users[u.ID] = u
	return u
}

func (m *memDB) addBillboard(b model.Billboard) model.Billboard {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.next()
	if b.Type == "" {
		b.Type = model.BillboardStatic
	}
	m.billboards[b.ID] = b
	return b
}

func (m *memDB) addBooking(b model.Booking) model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.next()
	m.bookings[b.ID] = b
	return b
}

func (m *memDB) status(id uint64) model.BookingStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id].Status
}

func sortedBookings(in map[uint64]model.Booking, keep func(model.Booking) bool) []model.Booking {
	var out []model.Booking
	for _, b := range in {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type bookingFake struct{ *memDB }

func (f bookingFake) CreateBooking(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = f.next()
	f.bookings[b.ID] = *b
	return nil
}

func (f bookingFake) GetBooking(_ context.Context, id uint64) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return model.Booking{}, repository.ErrNotFound
	}
	return b, nil
}

func (f bookingFake) ApproveBooking(_ context.Context, id uint64, exclusive bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Status != model.BookingPending {
		return repository.ErrStatusChanged
	}
	if exclusive {
		for _, o := range f.bookings {
			if o.ID != id && o.BillboardID == b.BillboardID && o.Status == model.BookingApproved && o.OverlapsWith(b) {
				return repository.ErrConflict
			}
		}
	}
	b.Status = model.BookingApproved
	f.bookings[id] = b
	return nil
}

func (f bookingFake) TransitionBooking(_ context.Context, id uint64, from, to model.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Status != from {
		return repository.ErrStatusChanged
	}
	b.Status = to
	f.bookings[id] = b
	return nil
}

func (f bookingFake) ListApprovedEndingBy(_ context.Context, day string) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedBookings(f.bookings, func(b model.Booking) bool {
		return b.Status == model.BookingApproved && b.EndDate <= day
	}), nil
}

func (f bookingFake) ListApprovedStartingOn(_ context.Context, day string) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedBookings(f.bookings, func(b model.Booking) bool {
		return b.Status == model.BookingApproved && b.StartDate == day && b.StartNotifiedAt == nil
	}), nil
}

func (f bookingFake) MarkStartNotified(_ context.Context, id uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if b.StartNotifiedAt != nil {
		return false, nil
	}
	now := time.Now()
	b.StartNotifiedAt = &now
	f.bookings[id] = b
	return true, nil
}

func (f bookingFake) ListByBusiness(_ context.Context, businessID uint64) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedBookings(f.bookings, func(b model.Booking) bool { return b.BusinessID == businessID }), nil
}

func (f bookingFake) ListByOwner(_ context.Context, ownerID uint64) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedBookings(f.bookings, func(b model.Booking) bool { return f.billboards[b.BillboardID].OwnerID == ownerID }), nil
}

func (f bookingFake) ListActiveForBillboard(_ context.Context, billboardID uint64) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedBookings(f.bookings, func(b model.Booking) bool {
		return b.BillboardID == billboardID && (b.Status == model.BookingPending || b.Status == model.BookingApproved)
	}), nil
}

type billboardFake struct{ *memDB }

func (f billboardFake) GetBillboard(_ context.Context, id uint64) (model.Billboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.billboards[id]
	if !ok {
		return model.Billboard{}, repository.ErrNotFound
	}
	return b, nil
}

func (f billboardFake) CreateBillboard(_ context.Context, b *model.Billboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = f.next()
	f.billboards[b.ID] = *b
	return nil
}

func (f billboardFake) UpdateBillboard(_ context.Context, b *model.Billboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.billboards[b.ID]; !ok {
		return repository.ErrNotFound
	}
	f.billboards[b.ID] = *b
	return nil
}

func (f billboardFake) SetPause(_ context.Context, id uint64, reason model.PauseReason) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.billboards[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.PauseReason = reason
	b.IsAvailable = reason == model.PauseNone
	f.billboards[id] = b
	return nil
}

func (f billboardFake) ListPublic(_ context.Context, limit, offset int) ([]model.Billboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.Billboard
	for _, b := range f.billboards {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f billboardFake) ListByOwner(_ context.Context, ownerID uint64) ([]model.Billboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Billboard
	for _, b := range f.billboards {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f billboardFake) ListBlockedDates(_ context.Context, billboardID uint64) ([]model.BlockedDate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.BlockedDate(nil), f.blocked[billboardID]...), nil
}

func (f billboardFake) CreateBlockedDate(_ context.Context, d *model.BlockedDate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = f.next()
	f.blocked[d.BillboardID] = append(f.blocked[d.BillboardID], *d)
	return nil
}

func (f billboardFake) DeleteBlockedDate(_ context.Context, billboardID, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.blocked[billboardID]
	for i, d := range list {
		if d.ID == id {
			f.blocked[billboardID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type userFake struct{ *memDB }

func (f userFake) GetByID(_ context.Context, id uint64) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

// sinks records every side effect the dispatcher fires.
type sinks struct {
	mu     sync.Mutex
	notes  []model.Notification
	emails []model.EmailMessage
	fail   error
}

func (s *sinks) CreateNotification(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.notes = append(s.notes, *n)
	return nil
}

func (s *sinks) SendEmail(_ context.Context, msg model.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.emails = append(s.emails, msg)
	return nil
}

func (s *sinks) notesOf(kind model.NotificationType) []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Notification
	for _, n := range s.notes {
		if n.Type == kind {
			out = append(out, n)
		}
	}
	return out
}

func (s *sinks) emailsOf(tpl model.EmailTemplate) []model.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.EmailMessage
	for _, e := range s.emails {
		if e.Template == tpl {
			out = append(out, e)
		}
	}
	return out
}

// fixture is a booking world pinned to a fixed clock.
type fixture struct {
	db         *memDB
	sinks      *sinks
	feed       *realtime.MemoryFeed
	bookings   *BookingService
	billboards *BillboardService
	owner      model.User
	business   model.User
}

var fixedNow = time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)

func newFixture() *fixture {
	db := newMemDB()
	sk := &sinks{}
	feed := realtime.NewMemoryFeed()
	d := &Dispatcher{Notifications: sk, Emails: sk, Feed: feed, Timeout: time.Second, Log: quietLog()}

	f := &fixture{db: db, sinks: sk, feed: feed}
	f.owner = db.addUser(model.User{Email: "owner@example.com", FullName: "Olive Owner", Role: model.RoleOwner, IsActive: true})
	f.business = db.addUser(model.User{Email: "ads@example.com", FullName: "Acme Ads", Role: model.RoleBusiness, IsActive: true})

	f.bookings = NewBookingService(bookingFake{db}, billboardFake{db}, userFake{db}, d, time.UTC, quietLog())
	f.bookings.Now = func() time.Time { return fixedNow }
	f.billboards = NewBillboardService(billboardFake{db}, bookingFake{db}, d, time.UTC, quietLog())
	f.billboards.Now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) ownerID() Identity {
	return Identity{UserID: f.owner.ID, Email: f.owner.Email, Role: model.RoleOwner}
}

func (f *fixture) businessID() Identity {
	return Identity{UserID: f.business.ID, Email: f.business.Email, Role: model.RoleBusiness}
}

func (f *fixture) billboard(t model.BillboardType) model.Billboard {
	return f.db.addBillboard(model.Billboard{
		OwnerID:       f.owner.ID,
		Title:         "Ring Road North",
		Location:      "Tehran",
		Type:          t,
		IsAvailable:   true,
		PricePerMonth: 300000,
	})
}

func (f *fixture) booking(bb model.Billboard, status model.BookingStatus, start, end string) model.Booking {
	return f.db.addBooking(model.Booking{
		BillboardID: bb.ID,
		BusinessID:  f.business.ID,
		StartDate:   start,
		EndDate:     end,
		Status:      status,
	})
}
