// Package events carries booking and payment messages over RabbitMQ.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Routing keys.
const (
	RKPaymentSucceeded = "payment.succeeded"
	RKBookingCreated   = "booking.created"
)

// BookingCreated is published once a booking is persisted.
type BookingCreated struct {
	BookingID   uint      `json:"booking_id"`
	BookingCode string    `json:"booking_code"`
	RoomTypeID  uint      `json:"room_type_id"`
	RoomID      uint      `json:"room_id"`
	RoomNumber  string    `json:"room_number"`
	GuestID     uint      `json:"guest_id"`
	CheckIn     string    `json:"check_in"`
	CheckOut    string    `json:"check_out"`
	Status      string    `json:"status"`
	Total       int64     `json:"total"`
	OrderID     string    `json:"order_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func unmarshal[T any](b []byte) (T, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return v, nil
}
