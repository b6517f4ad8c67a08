// Package availability classifies billboard calendar days from a snapshot
// of bookings and blocked ranges. Every function is pure: callers re-run
// them whenever the snapshot changes. The result is an optimistic hint for
// pickers; the approval-time exclusivity check stays the final authority.
package availability

import (
	"time"

	"github.com/iliyamo/maddi-booking/internal/model"
	"github.com/iliyamo/maddi-booking/internal/utils"
)

// DayStatus is the calendar classification of a single day.
type DayStatus string

const (
	Available DayStatus = "available"
	Pending   DayStatus = "pending"
	Booked    DayStatus = "booked"
	Blocked   DayStatus = "blocked"
)

// ClassifyDay returns the status of the calendar day containing day.
// Ranges are normalized in day's location through the date utilities.
// A blocked range wins over everything; an approved booking wins over a
// pending one no matter where either sits in the slice. Rows with
// unparsable dates are ignored.
func ClassifyDay(day time.Time, bookings []model.Booking, blocked []model.BlockedDate) DayStatus {
	loc := day.Location()
	for _, b := range blocked {
		if contains(b.StartDate, b.EndDate, day, loc) {
			return Blocked
		}
	}
	status := Available
	for _, bk := range bookings {
		if bk.Status != model.BookingApproved && bk.Status != model.BookingPending {
			continue
		}
		if !contains(bk.StartDate, bk.EndDate, day, loc) {
			continue
		}
		if bk.Status == model.BookingApproved {
			return Booked
		}
		status = Pending
	}
	return status
}

// IsSelectable reports whether day may be part of a new reservation
// request. Past days and blocked days never are. On static billboards an
// approved booking makes the day unavailable while pending requests may be
// stacked; digital billboards ignore bookings entirely.
func IsSelectable(day, now time.Time, bookings []model.Booking, blocked []model.BlockedDate, isDigital bool) bool {
	if utils.StartOfDay(day).Before(utils.TodayStart(now.In(day.Location()))) {
		return false
	}
	status := ClassifyDay(day, bookings, blocked)
	switch status {
	case Blocked:
		return false
	case Booked:
		return isDigital
	default:
		return true
	}
}

// Day is one cell of a rendered availability calendar.
type Day struct {
	Date       string    `json:"date"`
	Status     DayStatus `json:"status"`
	Selectable bool      `json:"selectable"`
}

// Calendar evaluates every day of the inclusive window [from, to]. from and
// to are interpreted in from's location; a reversed window yields nil.
func Calendar(from, to, now time.Time, bookings []model.Booking, blocked []model.BlockedDate, isDigital bool) []Day {
	start := utils.StartOfDay(from)
	end := utils.StartOfDay(to.In(from.Location()))
	if end.Before(start) {
		return nil
	}
	var days []Day
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, Day{
			Date:       utils.FormatDateOnly(d),
			Status:     ClassifyDay(d, bookings, blocked),
			Selectable: IsSelectable(d, now, bookings, blocked, isDigital),
		})
	}
	return days
}

// RangeSelectable reports whether every day of [start, end] is selectable.
// It is used to warn about a request before it is submitted.
func RangeSelectable(start, end, now time.Time, bookings []model.Booking, blocked []model.BlockedDate, isDigital bool) bool {
	for _, d := range Calendar(start, end, now, bookings, blocked, isDigital) {
		if !d.Selectable {
			return false
		}
	}
	return true
}

func contains(startDate, endDate string, day time.Time, loc *time.Location) bool {
	start, err := utils.ParseDateOnlyStartIn(startDate, loc)
	if err != nil {
		return false
	}
	end, err := utils.ParseDateOnlyEndIn(endDate, loc)
	if err != nil {
		return false
	}
	return !day.Before(start) && !day.After(end)
}
