package models

import "time"

type Payment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	BookingID  uint   `gorm:"index;not null" json:"bookingId"`
	PaymentRef string `gorm:"column:payment_ref;uniqueIndex;size:128" json:"paymentRef"`
	OrderID    string `gorm:"size:64;index" json:"orderId"`
	Amount     int64  `json:"amount"`
	Status     string `gorm:"size:20" json:"status"`
}
