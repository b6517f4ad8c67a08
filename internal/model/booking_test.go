package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []BookingStatus{BookingPending, BookingApproved, BookingRejected, BookingCompleted, BookingCancelled}
	allowed := map[[2]BookingStatus]bool{
		{BookingPending, BookingApproved}:   true,
		{BookingPending, BookingRejected}:   true,
		{BookingPending, BookingCancelled}:  true,
		{BookingApproved, BookingCompleted}: true,
		{BookingApproved, BookingCancelled}: true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equalf(t, allowed[[2]BookingStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition("archived", BookingApproved))
}

func TestTerminalAndValid(t *testing.T) {
	assert.True(t, BookingRejected.Terminal())
	assert.True(t, BookingCompleted.Terminal())
	assert.True(t, BookingCancelled.Terminal())
	assert.False(t, BookingPending.Terminal())
	assert.False(t, BookingApproved.Terminal())

	assert.True(t, BookingPending.Valid())
	assert.False(t, BookingStatus("active").Valid())
}

func TestOverlaps(t *testing.T) {
	assert.True(t, Overlaps("2025-01-01", "2025-01-10", "2025-01-10", "2025-01-20"), "shared last day")
	assert.True(t, Overlaps("2025-01-05", "2025-01-06", "2025-01-01", "2025-01-31"), "nested")
	assert.False(t, Overlaps("2025-01-01", "2025-01-09", "2025-01-10", "2025-01-20"), "adjacent")
	assert.False(t, Overlaps("2025-02-01", "2025-02-02", "2025-01-01", "2025-01-31"))

	a := Booking{StartDate: "2025-03-01", EndDate: "2025-03-03"}
	b := Booking{StartDate: "2025-03-03", EndDate: "2025-03-04"}
	assert.True(t, a.OverlapsWith(b))
	assert.True(t, b.OverlapsWith(a))
}

func TestBillboardPaused(t *testing.T) {
	assert.False(t, Billboard{IsAvailable: true}.Paused())
	assert.True(t, Billboard{IsAvailable: false}.Paused())
	assert.True(t, Billboard{IsAvailable: true, PauseReason: PauseAdmin}.Paused())
	assert.True(t, Billboard{Type: BillboardDigital}.IsDigital())
	assert.True(t, ValidBillboardType("static"))
	assert.False(t, ValidBillboardType("neon"))
}
