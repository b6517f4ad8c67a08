package model

import "time"

// BookingStatus is the single stored lifecycle state of a reservation request.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingRejected  BookingStatus = "rejected"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

var allowedTransitions = map[BookingStatus]map[BookingStatus]bool{
	BookingPending:   {BookingApproved: true, BookingRejected: true, BookingCancelled: true},
	BookingApproved:  {BookingCompleted: true, BookingCancelled: true},
	BookingRejected:  {},
	BookingCompleted: {},
	BookingCancelled: {},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to BookingStatus) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// Terminal reports whether no transition leaves s.
func (s BookingStatus) Terminal() bool { return len(allowedTransitions[s]) == 0 }

// Valid reports whether s is one of the five stored states.
func (s BookingStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// Booking mirrors the `bookings` table. StartDate and EndDate are inclusive
// date-only strings (YYYY-MM-DD); they are never stored as instants.
type Booking struct {
	ID              uint64        `json:"id"`
	BillboardID     uint64        `json:"billboard_id"`
	BusinessID      uint64        `json:"business_id"`
	StartDate       string        `json:"start_date"`
	EndDate         string        `json:"end_date"`
	TotalPrice      int64         `json:"total_price_cents"`
	Status          BookingStatus `json:"status"`
	StartNotifiedAt *time.Time    `json:"-"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Overlaps reports whether two inclusive date-only ranges share a day.
// YYYY-MM-DD strings order lexically the same way as the days they name.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	return aStart <= bEnd && bStart <= aEnd
}

// OverlapsWith reports whether b and o claim at least one common day.
func (b Booking) OverlapsWith(o Booking) bool {
	return Overlaps(b.StartDate, b.EndDate, o.StartDate, o.EndDate)
}
