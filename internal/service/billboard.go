package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/maddi-booking/internal/availability"
	"github.com/iliyamo/maddi-booking/internal/model"
	"github.com/iliyamo/maddi-booking/internal/realtime"
	"github.com/iliyamo/maddi-booking/internal/utils"
)

// BillboardStore persists billboards and their blocked ranges.
type BillboardStore interface {
	BillboardReader
	CreateBillboard(ctx context.Context, b *model.Billboard) error
	UpdateBillboard(ctx context.Context, b *model.Billboard) error
	SetPause(ctx context.Context, id uint64, reason model.PauseReason) error
	ListPublic(ctx context.Context, limit, offset int) ([]model.Billboard, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Billboard, error)
	ListBlockedDates(ctx context.Context, billboardID uint64) ([]model.BlockedDate, error)
	CreateBlockedDate(ctx context.Context, d *model.BlockedDate) error
	DeleteBlockedDate(ctx context.Context, billboardID, id uint64) error
}

// ActiveBookingLister returns the pending and approved bookings of a
// billboard, the only ones that influence its calendar.
type ActiveBookingLister interface {
	ListActiveForBillboard(ctx context.Context, billboardID uint64) ([]model.Booking, error)
}

// BillboardService covers billboard management and availability reads.
type BillboardService struct {
	Billboards BillboardStore
	Bookings   ActiveBookingLister
	Dispatch   *Dispatcher
	Loc        *time.Location
	Now        func() time.Time
	Log        *logrus.Entry
}

// NewBillboardService wires a BillboardService operating in loc.
func NewBillboardService(bb BillboardStore, bk ActiveBookingLister, d *Dispatcher, loc *time.Location, log *logrus.Entry) *BillboardService {
	if loc == nil {
		loc = time.Local
	}
	return &BillboardService{
		Billboards: bb,
		Bookings:   bk,
		Dispatch:   d,
		Loc:        loc,
		Now:        time.Now,
		Log:        log.WithField("component", "billboard"),
	}
}

func (s *BillboardService) now() time.Time { return s.Now().In(s.Loc) }

// BillboardInput carries the owner-editable attributes.
type BillboardInput struct {
	Title            string
	Location         string
	Latitude         float64
	Longitude        float64
	WidthM           float64
	HeightM          float64
	Type             string
	DailyImpressions uint32
	PricePerMonth    int64
}

func (in BillboardInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fail(ErrValidation, "title is required")
	}
	if !model.ValidBillboardType(in.Type) {
		return fail(ErrValidation, "billboard_type must be static or digital")
	}
	if in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180 {
		return fail(ErrValidation, "coordinates out of range")
	}
	if in.WidthM < 0 || in.HeightM < 0 || in.PricePerMonth < 0 {
		return fail(ErrValidation, "dimensions and price must not be negative")
	}
	return nil
}

func (in BillboardInput) apply(b *model.Billboard) {
	b.Title = strings.TrimSpace(in.Title)
	b.Location = strings.TrimSpace(in.Location)
	b.Latitude, b.Longitude = in.Latitude, in.Longitude
	b.WidthM, b.HeightM = in.WidthM, in.HeightM
	b.Type = model.BillboardType(in.Type)
	b.DailyImpressions = in.DailyImpressions
	b.PricePerMonth = in.PricePerMonth
}

// Create registers a billboard owned by caller.
func (s *BillboardService) Create(ctx context.Context, caller Identity, in BillboardInput) (model.Billboard, error) {
	if caller.Role != model.RoleOwner {
		return model.Billboard{}, fail(ErrUnauthorized, "only owners can list billboards")
	}
	if err := in.validate(); err != nil {
		return model.Billboard{}, err
	}
	b := model.Billboard{OwnerID: caller.UserID, IsAvailable: true}
	in.apply(&b)
	if err := s.Billboards.CreateBillboard(ctx, &b); err != nil {
		return model.Billboard{}, storeErr("create billboard", err)
	}
	return b, nil
}

// Update edits an owned billboard. Pause state is not touched.
func (s *BillboardService) Update(ctx context.Context, caller Identity, id uint64, in BillboardInput) (model.Billboard, error) {
	b, err := s.owned(ctx, caller, id)
	if err != nil {
		return model.Billboard{}, err
	}
	if err := in.validate(); err != nil {
		return model.Billboard{}, err
	}
	typeChanged := b.Type != model.BillboardType(in.Type)
	in.apply(&b)
	if err := s.Billboards.UpdateBillboard(ctx, &b); err != nil {
		return model.Billboard{}, storeErr("update billboard", err)
	}
	if typeChanged {
		s.Dispatch.Changed(ctx, b.ID, realtime.KindBillboard, 0)
	}
	return b, nil
}

// Get returns a single billboard.
func (s *BillboardService) Get(ctx context.Context, id uint64) (model.Billboard, error) {
	b, err := s.Billboards.GetBillboard(ctx, id)
	if err != nil {
		return model.Billboard{}, storeErr("billboard", err)
	}
	return b, nil
}

// ListPublic pages through all billboards.
func (s *BillboardService) ListPublic(ctx context.Context, limit, offset int) ([]model.Billboard, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	out, err := s.Billboards.ListPublic(ctx, limit, offset)
	if err != nil {
		return nil, storeErr("list billboards", err)
	}
	return out, nil
}

// ListMine returns the caller's billboards.
func (s *BillboardService) ListMine(ctx context.Context, caller Identity) ([]model.Billboard, error) {
	out, err := s.Billboards.ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, storeErr("list billboards", err)
	}
	return out, nil
}

// SetPaused pauses or resumes a billboard. Owners act on their own
// billboards with reason "owner"; admins act on any billboard with reason
// "admin". While an admin pause holds, the owner can neither resume nor
// re-pause the billboard.
func (s *BillboardService) SetPaused(ctx context.Context, caller Identity, id uint64, paused bool) (model.Billboard, error) {
	b, err := s.Billboards.GetBillboard(ctx, id)
	if err != nil {
		return model.Billboard{}, storeErr("billboard", err)
	}
	reason := model.PauseOwner
	switch {
	case caller.IsAdmin():
		reason = model.PauseAdmin
	case b.OwnerID != caller.UserID:
		return model.Billboard{}, fail(ErrUnauthorized, "billboard %d is not yours", id)
	case b.PauseReason == model.PauseAdmin:
		// re-pausing would relabel the pause as the owner's and unlock a resume
		return model.Billboard{}, fail(ErrUnauthorized, "billboard %d was paused by an administrator", id)
	}
	if !paused {
		reason = model.PauseNone
	}
	if err := s.Billboards.SetPause(ctx, id, reason); err != nil {
		return model.Billboard{}, storeErr("pause billboard", err)
	}
	b.PauseReason = reason
	b.IsAvailable = !paused
	s.Dispatch.Changed(ctx, id, realtime.KindBillboard, 0)
	return b, nil
}

// BlockedDates lists the explicit unavailability windows of a billboard.
func (s *BillboardService) BlockedDates(ctx context.Context, billboardID uint64) ([]model.BlockedDate, error) {
	out, err := s.Billboards.ListBlockedDates(ctx, billboardID)
	if err != nil {
		return nil, storeErr("list blocked dates", err)
	}
	return out, nil
}

// AddBlockedDate blocks [start, end] on a billboard owned by caller (or any
// billboard for admins).
func (s *BillboardService) AddBlockedDate(ctx context.Context, caller Identity, billboardID uint64, start, end string, reason *string) (model.BlockedDate, error) {
	if _, err := s.ownedOrAdmin(ctx, caller, billboardID); err != nil {
		return model.BlockedDate{}, err
	}
	st, err := utils.ParseDateOnlyStartIn(start, s.Loc)
	if err != nil {
		return model.BlockedDate{}, fail(ErrValidation, "start_date: %v", err)
	}
	en, err := utils.ParseDateOnlyStartIn(end, s.Loc)
	if err != nil {
		return model.BlockedDate{}, fail(ErrValidation, "end_date: %v", err)
	}
	if en.Before(st) {
		return model.BlockedDate{}, fail(ErrValidation, "start_date must not be after end_date")
	}
	d := model.BlockedDate{
		BillboardID: billboardID,
		StartDate:   utils.FormatDateOnly(st),
		EndDate:     utils.FormatDateOnly(en),
		Reason:      reason,
	}
	if err := s.Billboards.CreateBlockedDate(ctx, &d); err != nil {
		return model.BlockedDate{}, storeErr("create blocked date", err)
	}
	s.Dispatch.Changed(ctx, billboardID, realtime.KindBlockedDates, 0)
	return d, nil
}

// RemoveBlockedDate deletes one blocked range.
func (s *BillboardService) RemoveBlockedDate(ctx context.Context, caller Identity, billboardID, id uint64) error {
	if _, err := s.ownedOrAdmin(ctx, caller, billboardID); err != nil {
		return err
	}
	if err := s.Billboards.DeleteBlockedDate(ctx, billboardID, id); err != nil {
		return storeErr("delete blocked date", err)
	}
	s.Dispatch.Changed(ctx, billboardID, realtime.KindBlockedDates, 0)
	return nil
}

// AvailabilityView is the calendar of a billboard over a window.
type AvailabilityView struct {
	BillboardID    uint64             `json:"billboard_id"`
	IsDigital      bool               `json:"is_digital"`
	Paused         bool               `json:"paused"`
	AvailableToday bool               `json:"available_today"`
	From           string             `json:"from"`
	To             string             `json:"to"`
	Days           []availability.Day `json:"days"`
}

// maxWindowDays bounds a single availability query.
const maxWindowDays = 366

// Availability evaluates [from, to] for a billboard from a fresh snapshot.
// Empty bounds default to today and today+60 days. A paused billboard
// reports every day unselectable.
func (s *BillboardService) Availability(ctx context.Context, billboardID uint64, from, to string) (AvailabilityView, error) {
	now := s.now()
	start, end := utils.TodayStart(now), utils.TodayStart(now).AddDate(0, 0, 60)
	var err error
	if from != "" {
		if start, err = utils.ParseDateOnlyStartIn(from, s.Loc); err != nil {
			return AvailabilityView{}, fail(ErrValidation, "from: %v", err)
		}
	}
	if to != "" {
		if end, err = utils.ParseDateOnlyStartIn(to, s.Loc); err != nil {
			return AvailabilityView{}, fail(ErrValidation, "to: %v", err)
		}
	}
	if end.Before(start) {
		return AvailabilityView{}, fail(ErrValidation, "from must not be after to")
	}
	if end.Sub(start) > maxWindowDays*24*time.Hour {
		return AvailabilityView{}, fail(ErrValidation, "window longer than %d days", maxWindowDays)
	}

	bb, err := s.Billboards.GetBillboard(ctx, billboardID)
	if err != nil {
		return AvailabilityView{}, storeErr("billboard", err)
	}
	bookings, err := s.Bookings.ListActiveForBillboard(ctx, billboardID)
	if err != nil {
		return AvailabilityView{}, storeErr("list bookings", err)
	}
	blocked, err := s.Billboards.ListBlockedDates(ctx, billboardID)
	if err != nil {
		return AvailabilityView{}, storeErr("list blocked dates", err)
	}

	days := availability.Calendar(start, end, now, bookings, blocked, bb.IsDigital())
	if bb.Paused() {
		for i := range days {
			days[i].Selectable = false
		}
	}
	return AvailabilityView{
		BillboardID:    bb.ID,
		IsDigital:      bb.IsDigital(),
		Paused:         bb.Paused(),
		AvailableToday: !bb.Paused() && availability.IsSelectable(now, now, bookings, blocked, bb.IsDigital()),
		From:           utils.FormatDateOnly(start),
		To:             utils.FormatDateOnly(end),
		Days:           days,
	}, nil
}

func (s *BillboardService) owned(ctx context.Context, caller Identity, id uint64) (model.Billboard, error) {
	b, err := s.Billboards.GetBillboard(ctx, id)
	if err != nil {
		return model.Billboard{}, storeErr("billboard", err)
	}
	if b.OwnerID != caller.UserID {
		return model.Billboard{}, fail(ErrUnauthorized, "billboard %d is not yours", id)
	}
	return b, nil
}

func (s *BillboardService) ownedOrAdmin(ctx context.Context, caller Identity, id uint64) (model.Billboard, error) {
	if caller.IsAdmin() {
		return s.Get(ctx, id)
	}
	return s.owned(ctx, caller, id)
}

// BillboardDetail is the public detail of a billboard.
type BillboardDetail struct {
	model.Billboard
	AvailableToday bool `json:"available_today"`
}

// Detail returns a billboard with its read-time availability for today.
func (s *BillboardService) Detail(ctx context.Context, id uint64) (BillboardDetail, error) {
	bb, err := s.Get(ctx, id)
	if err != nil {
		return BillboardDetail{}, err
	}
	if bb.Paused() {
		return BillboardDetail{Billboard: bb}, nil
	}
	bookings, err := s.Bookings.ListActiveForBillboard(ctx, id)
	if err != nil {
		return BillboardDetail{}, storeErr("list bookings", err)
	}
	blocked, err := s.Billboards.ListBlockedDates(ctx, id)
	if err != nil {
		return BillboardDetail{}, storeErr("list blocked dates", err)
	}
	now := s.now()
	return BillboardDetail{
		Billboard:      bb,
		AvailableToday: availability.IsSelectable(now, now, bookings, blocked, bb.IsDigital()),
	}, nil
}
