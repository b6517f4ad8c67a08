package service

import (
	"context"

	"github.com/iliyamo/maddi-booking/internal/campaign"
	"github.com/iliyamo/maddi-booking/internal/model"
)

// BookingView is a booking with its dashboard classification.
type BookingView struct {
	model.Booking
	Campaign campaign.Status `json:"campaign_status"`
}

// Views classifies bookings against the current day.
func (s *BookingService) Views(bookings []model.Booking) []BookingView {
	now := s.now()
	out := make([]BookingView, len(bookings))
	for i, b := range bookings {
		out[i] = BookingView{Booking: b, Campaign: campaign.ClassifyBooking(b, now)}
	}
	return out
}

// Summary counts the caller's bookings per campaign status.
func (s *BookingService) Summary(ctx context.Context, caller Identity) (campaign.Summary, error) {
	bookings, err := s.ListMine(ctx, caller)
	if err != nil {
		return campaign.Summary{}, err
	}
	return campaign.Summarize(bookings, s.now()), nil
}
