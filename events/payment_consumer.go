package events

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"hotel-inventory/services"
)

// PaymentConfirmer turns a payment event into a booking.
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, ev services.PaymentEvent) (*services.CommitResult, error)
}

// PaymentConsumer feeds payment.succeeded deliveries into the booking
// coordinator. Only a committed or replayed booking is acked; transient
// failures are requeued once and everything else is rejected to the
// dead-letter exchange for manual follow-up.
type PaymentConsumer struct {
	confirmer PaymentConfirmer
	log       *logrus.Entry
}

func NewPaymentConsumer(confirmer PaymentConfirmer, log *logrus.Logger) *PaymentConsumer {
	return &PaymentConsumer{confirmer: confirmer, log: log.WithField("component", "payment_consumer")}
}

// Run handles deliveries until ctx ends or the channel closes.
func (p *PaymentConsumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			p.HandleDelivery(ctx, d)
		}
	}
}

func (p *PaymentConsumer) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	log := p.log.WithFields(logrus.Fields{"routing_key": d.RoutingKey, "message_id": d.MessageId})

	if d.RoutingKey != RKPaymentSucceeded {
		log.Warn("skip unknown routing key")
		_ = d.Ack(false)
		return
	}

	ev, err := unmarshal[services.PaymentEvent](d.Body)
	if err != nil {
		log.WithError(err).Error("malformed payment event, rejecting")
		_ = d.Reject(false)
		return
	}
	log = log.WithFields(logrus.Fields{"payment_id": ev.PaymentID, "order_id": ev.OrderID})

	res, err := p.confirmer.ConfirmPayment(ctx, ev)
	switch {
	case err == nil:
		log.WithFields(logrus.Fields{"booking_id": res.Booking.ID, "replayed": res.Replayed}).Info("payment committed")
		_ = d.Ack(false)
	case retryable(err) && !d.Redelivered:
		log.WithError(err).Warn("payment commit failed, requeueing")
		_ = d.Nack(false, true)
	default:
		log.WithError(err).WithField("kind", services.KindOf(err)).Error("payment could not be committed, dead-lettering")
		_ = d.Reject(false)
	}
}

func retryable(err error) bool {
	var e *services.Error
	if errors.As(err, &e) {
		return e.Kind.Retryable()
	}
	return true
}
