package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"hotel-inventory/models"
	"hotel-inventory/repository"
)

// GuestService is the admin side of guest profiles. Matching itself lives in
// GuestMatcher.
type GuestService struct {
	store   repository.Store
	matcher GuestMatcher
	opts    Options
	log     *logrus.Entry
}

func NewGuestService(store repository.Store, opts Options) *GuestService {
	opts = opts.withDefaults()
	return &GuestService{
		store:   store,
		matcher: NewGuestMatcher(opts.Phone),
		opts:    opts,
		log:     opts.Log.WithField("service", "guest"),
	}
}

// ----------------------------------------------------
// READ
// ----------------------------------------------------

func (s *GuestService) List(ctx context.Context, query string) ([]models.Guest, error) {
	ctx, cancel := s.opts.bounded(ctx)
	defer cancel()

	guests, err := s.store.Guests(ctx, query)
	if err != nil {
		s.log.WithError(err).Error("list guests")
		return nil, queryErr("GuestService.List", err)
	}
	return guests, nil
}

func (s *GuestService) Get(ctx context.Context, id uint) (*models.Guest, error) {
	ctx, cancel := s.opts.bounded(ctx)
	defer cancel()

	g, err := s.store.Guest(ctx, id)
	if err != nil {
		return nil, queryErr("GuestService.Get", err)
	}
	return g, nil
}

// Lookup is the guest search used by the booking forms. (nil, nil) means
// "create a new guest".
func (s *GuestService) Lookup(ctx context.Context, email, phone string) (*models.Guest, error) {
	if strings.TrimSpace(email) == "" && strings.TrimSpace(phone) == "" {
		return nil, invalid("GuestService.Lookup", "email or phone is required")
	}
	ctx, cancel := s.opts.bounded(ctx)
	defer cancel()

	g, err := s.matcher.FindExisting(ctx, s.store, email, phone)
	if err != nil {
		s.log.WithError(err).Warn("guest lookup failed")
		return nil, err
	}
	return g, nil
}

// ----------------------------------------------------
// WRITE
// ----------------------------------------------------

// Upsert is manual guest entry: an existing guest matching the contact is
// updated, never duplicated.
func (s *GuestService) Upsert(ctx context.Context, c Contact) (*models.Guest, bool, error) {
	const op = "GuestService.Upsert"
	if err := c.Validate(op); err != nil {
		return nil, false, err
	}

	var (
		guest   *models.Guest
		created bool
	)
	err := s.store.Transact(ctx, func(tx repository.Tx) error {
		var err error
		guest, created, err = s.matcher.Resolve(ctx, tx, c)
		return err
	})
	if err != nil {
		return nil, false, commandErr(op, err)
	}
	s.log.WithFields(logrus.Fields{"guest_id": guest.ID, "created": created}).Info("guest upserted")
	return guest, created, nil
}

// SetBlacklisted flags or clears a guest. Guests are never removed.
func (s *GuestService) SetBlacklisted(ctx context.Context, id uint, blacklisted bool, reason string) (*models.Guest, error) {
	const op = "GuestService.SetBlacklisted"
	var guest *models.Guest
	err := s.store.Transact(ctx, func(tx repository.Tx) error {
		g, err := tx.Guest(ctx, id)
		if err != nil {
			return queryErr(op, err)
		}
		g.Blacklisted = blacklisted
		g.BlacklistReason = ""
		if blacklisted {
			g.BlacklistReason = strings.TrimSpace(reason)
		}
		g.Documents = nil
		if err := tx.Save(ctx, g); err != nil {
			return err
		}
		guest = g
		return nil
	})
	if err != nil {
		return nil, commandErr(op, err)
	}
	s.log.WithFields(logrus.Fields{"guest_id": id, "blacklisted": blacklisted}).Warn("guest blacklist flag changed")
	return guest, nil
}

// AttachDocument records an identity document for a guest.
func (s *GuestService) AttachDocument(ctx context.Context, guestID uint, doc *models.GuestDocument) error {
	const op = "GuestService.AttachDocument"
	if strings.TrimSpace(doc.IDType) == "" || strings.TrimSpace(doc.IDNumber) == "" {
		return invalid(op, "id type and id number are required")
	}
	doc.GuestID = guestID
	err := s.store.Transact(ctx, func(tx repository.Tx) error {
		if _, err := tx.Guest(ctx, guestID); err != nil {
			return queryErr(op, err)
		}
		return tx.Create(ctx, doc)
	})
	return commandErr(op, err)
}

// Delete is refused; use SetBlacklisted.
func (s *GuestService) Delete(_ context.Context, id uint) error {
	s.log.WithField("guest_id", id).Warn("guest delete blocked")
	return invalid("GuestService.Delete", "guest %d cannot be deleted, blacklist it instead", id)
}
