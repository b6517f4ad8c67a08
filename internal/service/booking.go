package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/maddi-booking/internal/model"
	"github.com/iliyamo/maddi-booking/internal/realtime"
	"github.com/iliyamo/maddi-booking/internal/repository"
	"github.com/iliyamo/maddi-booking/internal/utils"
)

// BookingStore is the persistence contract of the booking lifecycle.
type BookingStore interface {
	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id uint64) (model.Booking, error)
	// ApproveBooking moves a pending booking to approved. When exclusive is
	// true the overlap check against other approved bookings of the same
	// billboard and the status write happen atomically; an overlap yields
	// repository.ErrConflict. A booking no longer pending yields
	// repository.ErrStatusChanged.
	ApproveBooking(ctx context.Context, id uint64, exclusive bool) error
	// TransitionBooking is a conditional status update from -> to.
	TransitionBooking(ctx context.Context, id uint64, from, to model.BookingStatus) error
	ListApprovedEndingBy(ctx context.Context, day string) ([]model.Booking, error)
	ListApprovedStartingOn(ctx context.Context, day string) ([]model.Booking, error)
	// MarkStartNotified sets start_notified_at once and reports whether this
	// call was the one that set it.
	MarkStartNotified(ctx context.Context, id uint64) (bool, error)
	ListByBusiness(ctx context.Context, businessID uint64) ([]model.Booking, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Booking, error)
}

// BillboardReader loads billboards referenced by bookings.
type BillboardReader interface {
	GetBillboard(ctx context.Context, id uint64) (model.Billboard, error)
}

// UserReader loads the parties of a booking for emails.
type UserReader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// BookingService implements the reservation request state machine.
type BookingService struct {
	Bookings   BookingStore
	Billboards BillboardReader
	Users      UserReader
	Dispatch   *Dispatcher
	Loc        *time.Location
	Now        func() time.Time
	Log        *logrus.Entry
}

// NewBookingService wires a BookingService operating in loc.
func NewBookingService(b BookingStore, bb BillboardReader, u UserReader, d *Dispatcher, loc *time.Location, log *logrus.Entry) *BookingService {
	if loc == nil {
		loc = time.Local
	}
	return &BookingService{
		Bookings:   b,
		Billboards: bb,
		Users:      u,
		Dispatch:   d,
		Loc:        loc,
		Now:        time.Now,
		Log:        log.WithField("component", "booking"),
	}
}

func (s *BookingService) now() time.Time { return s.Now().In(s.Loc) }

func (s *BookingService) today() string { return utils.FormatDateOnly(s.now()) }

// CreateRequest is the input of Create.
type CreateRequest struct {
	BillboardID uint64
	StartDate   string
	EndDate     string
}

// Create stores a new pending request for caller. Overlapping pending or
// approved bookings are not checked here; exclusivity is decided at
// approval time.
func (s *BookingService) Create(ctx context.Context, caller Identity, req CreateRequest) (model.Booking, error) {
	if caller.Role != model.RoleBusiness {
		return model.Booking{}, fail(ErrUnauthorized, "only business accounts can request bookings")
	}
	start, err := utils.ParseDateOnlyStartIn(req.StartDate, s.Loc)
	if err != nil {
		return model.Booking{}, fail(ErrValidation, "start_date: %v", err)
	}
	end, err := utils.ParseDateOnlyStartIn(req.EndDate, s.Loc)
	if err != nil {
		return model.Booking{}, fail(ErrValidation, "end_date: %v", err)
	}
	if end.Before(start) {
		return model.Booking{}, fail(ErrValidation, "start_date must not be after end_date")
	}
	if start.Before(utils.TodayStart(s.now())) {
		return model.Booking{}, fail(ErrValidation, "start_date must not be in the past")
	}

	bb, err := s.Billboards.GetBillboard(ctx, req.BillboardID)
	if err != nil {
		return model.Booking{}, storeErr("billboard", err)
	}
	if bb.OwnerID == caller.UserID {
		return model.Booking{}, fail(ErrValidation, "cannot book your own billboard")
	}
	if bb.Paused() {
		return model.Booking{}, fail(ErrConflict, "billboard is paused")
	}

	days, _ := utils.DaysInclusive(utils.FormatDateOnly(start), utils.FormatDateOnly(end))
	b := model.Booking{
		BillboardID: bb.ID,
		BusinessID:  caller.UserID,
		StartDate:   utils.FormatDateOnly(start),
		EndDate:     utils.FormatDateOnly(end),
		TotalPrice:  ProratePrice(bb.PricePerMonth, days),
		Status:      model.BookingPending,
	}
	if err := s.Bookings.CreateBooking(ctx, &b); err != nil {
		return model.Booking{}, storeErr("create booking", err)
	}

	s.Dispatch.Changed(ctx, bb.ID, realtime.KindBookings, b.ID)
	s.Dispatch.Notify(ctx, model.Notification{
		UserID:             bb.OwnerID,
		Title:              "New booking request",
		Message:            fmt.Sprintf("%q was requested for %s to %s", bb.Title, b.StartDate, b.EndDate),
		Type:               model.NotifyBookingRequest,
		RelatedBookingID:   &b.ID,
		RelatedBillboardID: &bb.ID,
	})
	if owner, err := s.Users.GetByID(ctx, bb.OwnerID); err == nil {
		s.Dispatch.Email(ctx, s.bookingEmail(owner, model.EmailBookingRequest, bb, b))
	} else {
		s.Log.WithError(err).WithField("owner_id", bb.OwnerID).Warn("owner lookup for email failed")
	}
	return b, nil
}

// ProratePrice charges a thirtieth of the monthly price per booked day,
// rounded to the nearest cent.
func ProratePrice(pricePerMonth int64, days int) int64 {
	if days <= 0 || pricePerMonth <= 0 {
		return 0
	}
	return (pricePerMonth*int64(days) + 15) / 30
}

// loadForOwner fetches a booking and its billboard and checks that caller
// owns the billboard.
func (s *BookingService) loadForOwner(ctx context.Context, caller Identity, id uint64) (model.Booking, model.Billboard, error) {
	b, err := s.Bookings.GetBooking(ctx, id)
	if err != nil {
		return model.Booking{}, model.Billboard{}, storeErr("booking", err)
	}
	bb, err := s.Billboards.GetBillboard(ctx, b.BillboardID)
	if err != nil {
		return model.Booking{}, model.Billboard{}, storeErr("billboard", err)
	}
	if bb.OwnerID != caller.UserID {
		return model.Booking{}, model.Billboard{}, fail(ErrUnauthorized, "billboard %d is not yours", bb.ID)
	}
	return b, bb, nil
}

// Approve accepts a pending request. On static billboards it fails with
// ErrConflict when another approved booking already claims any of its days.
func (s *BookingService) Approve(ctx context.Context, caller Identity, id uint64) (model.Booking, error) {
	b, bb, err := s.loadForOwner(ctx, caller, id)
	if err != nil {
		return model.Booking{}, err
	}
	if !model.CanTransition(b.Status, model.BookingApproved) {
		return model.Booking{}, fail(ErrInvalidTransition, "booking %d is %s", b.ID, b.Status)
	}
	if err := s.Bookings.ApproveBooking(ctx, b.ID, !bb.IsDigital()); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Booking{}, fail(ErrConflict, "billboard %d is already booked for some of %s to %s", bb.ID, b.StartDate, b.EndDate)
		}
		return model.Booking{}, storeErr("approve booking", err)
	}
	b.Status = model.BookingApproved

	s.Dispatch.Changed(ctx, bb.ID, realtime.KindBookings, b.ID)
	s.Dispatch.Notify(ctx, model.Notification{
		UserID:             b.BusinessID,
		Title:              "Booking approved",
		Message:            fmt.Sprintf("Your booking of %q from %s to %s was approved", bb.Title, b.StartDate, b.EndDate),
		Type:               model.NotifyBookingApproved,
		RelatedBookingID:   &b.ID,
		RelatedBillboardID: &bb.ID,
	})
	s.emailBusiness(ctx, model.EmailBookingApproved, bb, b)
	return b, nil
}

// Reject declines a pending request.
func (s *BookingService) Reject(ctx context.Context, caller Identity, id uint64) (model.Booking, error) {
	b, bb, err := s.loadForOwner(ctx, caller, id)
	if err != nil {
		return model.Booking{}, err
	}
	if !model.CanTransition(b.Status, model.BookingRejected) {
		return model.Booking{}, fail(ErrInvalidTransition, "booking %d is %s", b.ID, b.Status)
	}
	if err := s.Bookings.TransitionBooking(ctx, b.ID, model.BookingPending, model.BookingRejected); err != nil {
		return model.Booking{}, storeErr("reject booking", err)
	}
	b.Status = model.BookingRejected

	s.Dispatch.Changed(ctx, bb.ID, realtime.KindBookings, b.ID)
	s.Dispatch.Notify(ctx, model.Notification{
		UserID:             b.BusinessID,
		Title:              "Booking rejected",
		Message:            fmt.Sprintf("Your booking of %q from %s to %s was declined", bb.Title, b.StartDate, b.EndDate),
		Type:               model.NotifyBookingRejected,
		RelatedBookingID:   &b.ID,
		RelatedBillboardID: &bb.ID,
	})
	s.emailBusiness(ctx, model.EmailBookingRejected, bb, b)
	return b, nil
}

// Cancel withdraws the caller's own request. Pending requests can always be
// cancelled; approved ones only before their first day.
func (s *BookingService) Cancel(ctx context.Context, caller Identity, id uint64) (model.Booking, error) {
	b, err := s.Bookings.GetBooking(ctx, id)
	if err != nil {
		return model.Booking{}, storeErr("booking", err)
	}
	if b.BusinessID != caller.UserID {
		return model.Booking{}, fail(ErrUnauthorized, "booking %d is not yours", b.ID)
	}
	if !model.CanTransition(b.Status, model.BookingCancelled) {
		return model.Booking{}, fail(ErrInvalidTransition, "booking %d is %s", b.ID, b.Status)
	}
	if b.Status == model.BookingApproved && b.StartDate <= s.today() {
		return model.Booking{}, fail(ErrInvalidTransition, "campaign %d has already started", b.ID)
	}
	if err := s.Bookings.TransitionBooking(ctx, b.ID, b.Status, model.BookingCancelled); err != nil {
		return model.Booking{}, storeErr("cancel booking", err)
	}
	b.Status = model.BookingCancelled

	s.Dispatch.Changed(ctx, b.BillboardID, realtime.KindBookings, b.ID)
	if bb, err := s.Billboards.GetBillboard(ctx, b.BillboardID); err == nil {
		s.Dispatch.Notify(ctx, model.Notification{
			UserID:             bb.OwnerID,
			Title:              "Booking cancelled",
			Message:            fmt.Sprintf("The booking of %q from %s to %s was cancelled by the client", bb.Title, b.StartDate, b.EndDate),
			Type:               model.NotifyBookingCancelled,
			RelatedBookingID:   &b.ID,
			RelatedBillboardID: &bb.ID,
		})
	} else {
		s.Log.WithError(err).WithField("booking_id", b.ID).Warn("billboard lookup for cancel notification failed")
	}
	return b, nil
}

// Get returns a booking visible to caller: its requester, the billboard
// owner, or an admin.
func (s *BookingService) Get(ctx context.Context, caller Identity, id uint64) (model.Booking, error) {
	b, err := s.Bookings.GetBooking(ctx, id)
	if err != nil {
		return model.Booking{}, storeErr("booking", err)
	}
	if b.BusinessID == caller.UserID || caller.IsAdmin() {
		return b, nil
	}
	bb, err := s.Billboards.GetBillboard(ctx, b.BillboardID)
	if err != nil {
		return model.Booking{}, storeErr("billboard", err)
	}
	if bb.OwnerID != caller.UserID {
		return model.Booking{}, fail(ErrUnauthorized, "booking %d is not visible to you", b.ID)
	}
	return b, nil
}

// ListMine returns the caller's bookings: requests made for business
// accounts, requests received for owner accounts.
func (s *BookingService) ListMine(ctx context.Context, caller Identity) ([]model.Booking, error) {
	var (
		out []model.Booking
		err error
	)
	switch caller.Role {
	case model.RoleBusiness:
		out, err = s.Bookings.ListByBusiness(ctx, caller.UserID)
	case model.RoleOwner:
		out, err = s.Bookings.ListByOwner(ctx, caller.UserID)
	default:
		return nil, fail(ErrUnauthorized, "role %q has no bookings", caller.Role)
	}
	if err != nil {
		return nil, storeErr("list bookings", err)
	}
	return out, nil
}

// DailyReport summarizes one RunDaily pass.
type DailyReport struct {
	Day       string `json:"day"`
	Completed int    `json:"completed"`
	Started   int    `json:"started"`
	Failed    int    `json:"failed"`
}

// RunDaily announces campaigns starting today and then completes approved
// bookings whose last day is today (or earlier, when a previous run was
// missed). Both halves are idempotent: notifications fire only for the call
// whose conditional write actually changed the row.
func (s *BookingService) RunDaily(ctx context.Context) (DailyReport, error) {
	rep := DailyReport{Day: s.today()}

	// starts go first so a one-day campaign is announced before it completes
	starting, err := s.Bookings.ListApprovedStartingOn(ctx, rep.Day)
	if err != nil {
		return rep, storeErr("list starting bookings", err)
	}
	for _, b := range starting {
		first, err := s.Bookings.MarkStartNotified(ctx, b.ID)
		if err != nil {
			rep.Failed++
			s.Log.WithError(err).WithField("booking_id", b.ID).Error("start marker failed")
			continue
		}
		if !first {
			continue
		}
		rep.Started++
		s.announce(ctx, b, model.NotifyCampaignStarted, "Campaign started",
			"The campaign on %q from %s to %s is now live")
	}

	ending, err := s.Bookings.ListApprovedEndingBy(ctx, rep.Day)
	if err != nil {
		return rep, storeErr("list ending bookings", err)
	}
	for _, b := range ending {
		err := s.Bookings.TransitionBooking(ctx, b.ID, model.BookingApproved, model.BookingCompleted)
		if errors.Is(err, repository.ErrStatusChanged) {
			continue
		}
		if err != nil {
			rep.Failed++
			s.Log.WithError(err).WithField("booking_id", b.ID).Error("auto-complete failed")
			continue
		}
		rep.Completed++
		s.announce(ctx, b, model.NotifyCampaignEnded, "Campaign ended",
			"The campaign on %q from %s to %s has ended")
	}

	s.Log.WithFields(logrus.Fields{
		"day":       rep.Day,
		"completed": rep.Completed,
		"started":   rep.Started,
		"failed":    rep.Failed,
	}).Info("daily lifecycle pass finished")
	return rep, nil
}

// announce notifies both the business and the billboard owner.
func (s *BookingService) announce(ctx context.Context, b model.Booking, kind model.NotificationType, title, format string) {
	bb, err := s.Billboards.GetBillboard(ctx, b.BillboardID)
	if err != nil {
		s.Log.WithError(err).WithField("booking_id", b.ID).Warn("billboard lookup for announcement failed")
		return
	}
	msg := fmt.Sprintf(format, bb.Title, b.StartDate, b.EndDate)
	for _, uid := range []uint64{b.BusinessID, bb.OwnerID} {
		s.Dispatch.Notify(ctx, model.Notification{
			UserID:             uid,
			Title:              title,
			Message:            msg,
			Type:               kind,
			RelatedBookingID:   &b.ID,
			RelatedBillboardID: &bb.ID,
		})
	}
	if kind == model.NotifyCampaignEnded {
		s.emailBusiness(ctx, model.EmailCampaignEnded, bb, b)
	}
}

func (s *BookingService) emailBusiness(ctx context.Context, tpl model.EmailTemplate, bb model.Billboard, b model.Booking) {
	u, err := s.Users.GetByID(ctx, b.BusinessID)
	if err != nil {
		s.Log.WithError(err).WithField("business_id", b.BusinessID).Warn("business lookup for email failed")
		return
	}
	s.Dispatch.Email(ctx, s.bookingEmail(u, tpl, bb, b))
}

func (s *BookingService) bookingEmail(to model.User, tpl model.EmailTemplate, bb model.Billboard, b model.Booking) model.EmailMessage {
	return model.EmailMessage{
		RecipientEmail: to.Email,
		RecipientName:  to.DisplayName(),
		Template:       tpl,
		Data: map[string]string{
			"booking_id":      fmt.Sprint(b.ID),
			"billboard_title": bb.Title,
			"location":        bb.Location,
			"start_date":      b.StartDate,
			"end_date":        b.EndDate,
			"total_price":     FormatCents(b.TotalPrice),
		},
	}
}

// FormatCents renders an integer cent amount as a decimal string.
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
