package model

import "time"

// BillboardType distinguishes exclusive physical surfaces from shared
// digital screens.
type BillboardType string

const (
	BillboardStatic  BillboardType = "static"
	BillboardDigital BillboardType = "digital"
)

// PauseReason records who switched a billboard off. Empty means not paused.
type PauseReason string

const (
	PauseNone  PauseReason = ""
	PauseOwner PauseReason = "owner"
	PauseAdmin PauseReason = "admin"
)

// Billboard mirrors the `billboards` table.
type Billboard struct {
	ID               uint64        `json:"id"`
	OwnerID          uint64        `json:"owner_id"`
	Title            string        `json:"title"`
	Location         string        `json:"location"`
	Latitude         float64       `json:"latitude"`
	Longitude        float64       `json:"longitude"`
	WidthM           float64       `json:"width_m"`
	HeightM          float64       `json:"height_m"`
	Type             BillboardType `json:"billboard_type"`
	IsAvailable      bool          `json:"is_available"`
	PauseReason      PauseReason   `json:"pause_reason,omitempty"`
	DailyImpressions uint32        `json:"daily_impressions"`
	PricePerMonth    int64         `json:"price_per_month_cents"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// IsDigital reports whether bookings on b may share calendar days.
func (b Billboard) IsDigital() bool { return b.Type == BillboardDigital }

// Paused reports whether an owner or admin switched the billboard off.
func (b Billboard) Paused() bool { return !b.IsAvailable || b.PauseReason != PauseNone }

// ValidBillboardType reports whether t names a known billboard type.
func ValidBillboardType(t string) bool {
	switch BillboardType(t) {
	case BillboardStatic, BillboardDigital:
		return true
	}
	return false
}

// BlockedDate mirrors `blocked_dates`: an explicit unavailability window
// that disables selection independently of bookings.
type BlockedDate struct {
	ID          uint64    `json:"id"`
	BillboardID uint64    `json:"billboard_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Reason      *string   `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
