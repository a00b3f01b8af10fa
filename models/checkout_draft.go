package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DraftOpen        = "open"
	DraftInvalidated = "invalidated"
	DraftCommitted   = "committed"
)

// CheckoutDraft is the persisted form of an in-progress checkout, keyed by
// the order id handed to the payment gateway.
type CheckoutDraft struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	OrderID       string         `gorm:"column:order_id;uniqueIndex;size:64" json:"orderId"`
	Selection     datatypes.JSON `json:"selection"`
	Contact       datatypes.JSON `json:"contact"`
	QuotedTotal   int64          `gorm:"column:quoted_total" json:"quotedTotal"`
	Status        string         `gorm:"size:20;index" json:"status"`
	InvalidReason string         `gorm:"size:100" json:"invalidReason,omitempty"`
	ExpiresAt     time.Time      `json:"expiresAt"`
	BookingID     *uint          `json:"bookingId,omitempty"`
}
