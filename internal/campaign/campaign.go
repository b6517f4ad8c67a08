// Package campaign derives dashboard labels for bookings at read time.
package campaign

import (
	"time"

	"github.com/iliyamo/maddi-booking/internal/model"
	"github.com/iliyamo/maddi-booking/internal/utils"
)

// Status is the display state of a booking seen as an ad campaign.
type Status string

const (
	Scheduled Status = "scheduled"
	Ongoing   Status = "ongoing"
	Past      Status = "past"
	Pending   Status = "pending"
	Rejected  Status = "rejected"
	Cancelled Status = "cancelled"
	// Unknown labels a stored status the classifier does not recognize.
	Unknown Status = "unknown"
)

// Classify maps a booking's stored status and inclusive date range to a
// campaign status as of now. The stored status is checked first; dates only
// refine approved bookings. An approved booking whose end has passed is
// reported as past even if the daily job has not completed it yet. Approved
// bookings with unparsable dates fall back to scheduled; an unrecognized
// stored status is Unknown regardless of its dates.
func Classify(status model.BookingStatus, startDate, endDate string, now time.Time) Status {
	switch status {
	case model.BookingPending:
		return Pending
	case model.BookingRejected:
		return Rejected
	case model.BookingCancelled:
		return Cancelled
	case model.BookingCompleted:
		return Past
	case model.BookingApproved:
		return classifyApproved(startDate, endDate, now)
	}
	return Unknown
}

func classifyApproved(startDate, endDate string, now time.Time) Status {
	loc := now.Location()
	start, err := utils.ParseDateOnlyStartIn(startDate, loc)
	if err != nil {
		return Scheduled
	}
	end, err := utils.ParseDateOnlyEndIn(endDate, loc)
	if err != nil {
		return Scheduled
	}
	switch {
	case now.Before(start):
		return Scheduled
	case now.After(end):
		return Past
	default:
		return Ongoing
	}
}

// ClassifyBooking is Classify applied to a stored booking.
func ClassifyBooking(b model.Booking, now time.Time) Status {
	return Classify(b.Status, b.StartDate, b.EndDate, now)
}

// Summary counts campaigns per display state.
type Summary struct {
	Scheduled int `json:"scheduled"`
	Ongoing   int `json:"ongoing"`
	Past      int `json:"past"`
	Pending   int `json:"pending"`
	Rejected  int `json:"rejected"`
	Cancelled int `json:"cancelled"`
	Total     int `json:"total"`
}

// Summarize classifies every booking and tallies the result. Unknown
// bookings count only toward Total.
func Summarize(bookings []model.Booking, now time.Time) Summary {
	var s Summary
	for _, b := range bookings {
		switch ClassifyBooking(b, now) {
		case Scheduled:
			s.Scheduled++
		case Ongoing:
			s.Ongoing++
		case Past:
			s.Past++
		case Pending:
			s.Pending++
		case Rejected:
			s.Rejected++
		case Cancelled:
			s.Cancelled++
		}
		s.Total++
	}
	return s
}
