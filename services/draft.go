package services

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"hotel-inventory/models"
)

// Reasons a draft stops being committable.
const (
	ReasonExpired      = "expired"
	ReasonSlotTaken    = "slot_taken"
	ReasonPriceChanged = "price_changed"
	ReasonAdmin        = "admin"
)

// Draft is an in-progress checkout: a priced selection waiting for payment.
// External signals end it through Invalidate; it never refreshes itself.
type Draft struct {
	OrderID     string     `json:"order_id"`
	Selection   Selection  `json:"selection"`
	Contact     Contact    `json:"contact"`
	QuotedTotal int64      `json:"quoted_total"`
	Breakdown   []LineItem `json:"breakdown,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Status      string     `json:"status"`
	Reason      string     `json:"reason,omitempty"`
	BookingID   *uint      `json:"booking_id,omitempty"`

	id uint
}

// Invalidate closes an open draft. Calling it on a closed draft keeps the
// first reason.
func (d *Draft) Invalidate(reason string) bool {
	if d.Status != models.DraftOpen {
		return false
	}
	d.Status = models.DraftInvalidated
	d.Reason = reason
	return true
}

// Expired reports whether the TTL has run out.
func (d *Draft) Expired(now time.Time) bool {
	return !now.Before(d.ExpiresAt)
}

// Usable returns a DRAFT_INVALID error unless the draft can be committed.
func (d *Draft) Usable(now time.Time) error {
	const op = "Draft.Usable"
	switch {
	case d.Status == models.DraftCommitted:
		return E(KindDraft, op, fmt.Errorf("order %s is already committed", d.OrderID))
	case d.Status != models.DraftOpen:
		return E(KindDraft, op, fmt.Errorf("order %s was invalidated: %s", d.OrderID, d.Reason))
	case d.Expired(now):
		return E(KindDraft, op, fmt.Errorf("order %s expired at %s", d.OrderID, d.ExpiresAt.Format(time.RFC3339)))
	}
	return nil
}

func draftFromModel(m *models.CheckoutDraft) (*Draft, error) {
	d := &Draft{
		OrderID:     m.OrderID,
		QuotedTotal: m.QuotedTotal,
		ExpiresAt:   m.ExpiresAt,
		Status:      m.Status,
		Reason:      m.InvalidReason,
		BookingID:   m.BookingID,
		id:          m.ID,
	}
	if err := json.Unmarshal(m.Selection, &d.Selection); err != nil {
		return nil, fmt.Errorf("decode draft selection: %w", err)
	}
	if len(m.Contact) > 0 {
		if err := json.Unmarshal(m.Contact, &d.Contact); err != nil {
			return nil, fmt.Errorf("decode draft contact: %w", err)
		}
	}
	return d, nil
}

func (d *Draft) toModel() (*models.CheckoutDraft, error) {
	sel, err := json.Marshal(d.Selection)
	if err != nil {
		return nil, err
	}
	contact, err := json.Marshal(d.Contact)
	if err != nil {
		return nil, err
	}
	return &models.CheckoutDraft{
		ID:            d.id,
		OrderID:       d.OrderID,
		Selection:     datatypes.JSON(sel),
		Contact:       datatypes.JSON(contact),
		QuotedTotal:   d.QuotedTotal,
		Status:        d.Status,
		InvalidReason: d.Reason,
		ExpiresAt:     d.ExpiresAt,
		BookingID:     d.BookingID,
	}, nil
}
