package models

import "time"

// ConsumedEvent records a processed payment event so redelivery is a no-op.
type ConsumedEvent struct {
	ID          string `gorm:"primaryKey;size:128"` // payment id
	EventKey    string `gorm:"index;size:64"`
	BookingID   uint
	ProcessedAt time.Time
}
