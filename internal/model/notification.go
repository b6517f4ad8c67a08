package model

import "time"

// NotificationType groups in-app notifications for filtering in the client.
type NotificationType string

const (
	NotifyBookingRequest   NotificationType = "booking_request"
	NotifyBookingApproved  NotificationType = "booking_approved"
	NotifyBookingRejected  NotificationType = "booking_rejected"
	NotifyBookingCancelled NotificationType = "booking_cancelled"
	NotifyCampaignStarted  NotificationType = "campaign_started"
	NotifyCampaignEnded    NotificationType = "campaign_ended"
)

// Notification mirrors the `notifications` table.
type Notification struct {
	ID                 uint64           `json:"id"`
	UserID             uint64           `json:"user_id"`
	Title              string           `json:"title"`
	Message            string           `json:"message"`
	Type               NotificationType `json:"type"`
	RelatedBookingID   *uint64          `json:"related_booking_id,omitempty"`
	RelatedBillboardID *uint64          `json:"related_billboard_id,omitempty"`
	IsRead             bool             `json:"is_read"`
	CreatedAt          time.Time        `json:"created_at"`
}

// EmailTemplate names a transactional email layout known to the mailer.
type EmailTemplate string

const (
	EmailBookingApproved EmailTemplate = "booking_approved"
	EmailBookingRejected EmailTemplate = "booking_rejected"
	EmailBookingRequest  EmailTemplate = "booking_request"
	EmailCampaignEnded   EmailTemplate = "campaign_ended"
	EmailAdminInvitation EmailTemplate = "admin_invitation"
)

// EmailMessage is the payload handed to the email sink.
type EmailMessage struct {
	RecipientEmail string            `json:"recipient_email"`
	RecipientName  string            `json:"recipient_name"`
	Template       EmailTemplate     `json:"template_type"`
	Data           map[string]string `json:"template_data"`
}
