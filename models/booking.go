package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"hotel-inventory/daterange"
)

// Payment status of a booking. Every status except cancelled holds the unit.
const (
	PaymentPending   = "pending"
	PaymentConfirmed = "confirmed"
	PaymentCompleted = "completed"
	PaymentCancelled = "cancelled"
)

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	BookingCode string `gorm:"column:booking_code;uniqueIndex;size:32" json:"bookingCode"`
	RoomID      *uint  `gorm:"column:room_id;index" json:"roomId,omitempty"`
	GuestID     *uint  `gorm:"column:guest_id;index" json:"guestId,omitempty"`

	// Free-text contact as entered, kept even after the guest is reconciled.
	GuestName  string `gorm:"column:guest_name;size:255" json:"guestName"`
	GuestEmail string `gorm:"column:guest_email;size:255" json:"guestEmail"`
	GuestPhone string `gorm:"column:guest_phone;size:50" json:"guestPhone"`

	CheckIn  time.Time `gorm:"column:check_in;type:date;index" json:"checkIn"`
	CheckOut time.Time `gorm:"column:check_out;type:date;index" json:"checkOut"`
	Guests   int       `gorm:"column:guests;default:1" json:"guests"`

	PaymentStatus string `gorm:"column:payment_status;size:20;index" json:"paymentStatus"`
	TotalAmount   int64  `gorm:"column:total_amount" json:"totalAmount"`
	OrderID       string `gorm:"column:order_id;size:64;index" json:"orderId,omitempty"`

	RateVariantID *uint  `gorm:"column:rate_variant_id" json:"rateVariantId,omitempty"`
	MealPlan      string `gorm:"column:meal_plan;size:20" json:"mealPlan,omitempty"`

	// Point-in-time snapshots; never re-derived from the catalog.
	Breakdown datatypes.JSON `gorm:"column:breakdown" json:"breakdown,omitempty"`
	Addons    datatypes.JSON `gorm:"column:addons" json:"addons,omitempty"`
	Pickup    datatypes.JSON `gorm:"column:pickup" json:"pickup,omitempty"`
	Bedding   datatypes.JSON `gorm:"column:bedding" json:"bedding,omitempty"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	Room  *Room  `gorm:"foreignKey:RoomID;references:ID" json:"room,omitempty"`
	Guest *Guest `gorm:"foreignKey:GuestID;references:ID" json:"guest,omitempty"`
}

func (b Booking) Range() daterange.Range {
	return daterange.New(b.CheckIn, b.CheckOut)
}

// Blocks reports whether the booking holds its unit for its range.
func (b Booking) Blocks() bool {
	return b.PaymentStatus != PaymentCancelled
}

func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentPending, PaymentConfirmed, PaymentCompleted, PaymentCancelled:
		return true
	}
	return false
}
