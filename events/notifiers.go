package events

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"hotel-inventory/daterange"
	"hotel-inventory/services"
	"hotel-inventory/utils"
)

// JSONPublisher is satisfied by *Publisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// BookingPublisher announces persisted bookings on the booking exchange.
type BookingPublisher struct {
	pub JSONPublisher
}

func NewBookingPublisher(pub JSONPublisher) *BookingPublisher {
	return &BookingPublisher{pub: pub}
}

func (b *BookingPublisher) BookingCreated(ctx context.Context, n services.BookingNotice) error {
	ev := BookingCreated{
		BookingID:   n.Booking.ID,
		BookingCode: n.Booking.BookingCode,
		RoomTypeID:  n.RoomType.ID,
		RoomID:      n.Room.ID,
		RoomNumber:  n.Room.RoomNumber,
		CheckIn:     n.Booking.CheckIn.Format(daterange.Layout),
		CheckOut:    n.Booking.CheckOut.Format(daterange.Layout),
		Status:      n.Booking.PaymentStatus,
		Total:       n.Booking.TotalAmount,
		OrderID:     n.Booking.OrderID,
		CreatedAt:   n.Booking.CreatedAt,
	}
	if n.Guest != nil {
		ev.GuestID = n.Guest.ID
	}
	return b.pub.PublishJSON(ctx, RKBookingCreated, ev)
}

// EmailNotifier mails a confirmation to the guest.
type EmailNotifier struct {
	smtp utils.SMTPConfig
	log  *logrus.Logger
	send func(utils.SMTPConfig, *logrus.Logger, utils.BookingEmail) error
}

func NewEmailNotifier(cfg utils.SMTPConfig, log *logrus.Logger) *EmailNotifier {
	return &EmailNotifier{smtp: cfg, log: log, send: utils.SendBookingConfirmationEmail}
}

func (e *EmailNotifier) BookingCreated(_ context.Context, n services.BookingNotice) error {
	to := n.Booking.GuestEmail
	if to == "" && n.Guest != nil {
		to = n.Guest.Email
	}
	if to == "" {
		return nil
	}

	lines := make([]string, 0, len(n.Quote.Breakdown))
	for _, l := range n.Quote.Breakdown {
		lines = append(lines, fmt.Sprintf("%s: %s", l.Label, money(l.Amount)))
	}
	return e.send(e.smtp, e.log, utils.BookingEmail{
		To:          to,
		GuestName:   n.Booking.GuestName,
		BookingCode: n.Booking.BookingCode,
		RoomType:    n.RoomType.Name,
		RoomNumber:  n.Room.RoomNumber,
		CheckIn:     n.Booking.CheckIn.Format(daterange.Layout),
		CheckOut:    n.Booking.CheckOut.Format(daterange.Layout),
		Total:       money(n.Booking.TotalAmount),
		Lines:       lines,
	})
}

// money renders minor units with two decimals.
func money(minor int64) string {
	sign := ""
	if minor < 0 {
		sign, minor = "-", -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
