package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"hotel-inventory/models"
	"hotel-inventory/repository"
	"hotel-inventory/utils"
)

// CommitState is the progress of one booking attempt.
type CommitState string

const (
	StateDraft                 CommitState = "DRAFT"
	StateAvailabilityConfirmed CommitState = "AVAILABILITY_CONFIRMED"
	StateGuestResolved         CommitState = "GUEST_RESOLVED"
	StatePersisted             CommitState = "PERSISTED"
	StateFailed                CommitState = "FAILED"
)

const (
	maxCommitAttempts = 3
	paymentEventKey   = "payment.succeeded"
)

// statusTransitions lists the allowed payment status moves. Cancelled and
// completed are terminal.
var statusTransitions = map[string][]string{
	models.PaymentPending:   {models.PaymentConfirmed, models.PaymentCancelled},
	models.PaymentConfirmed: {models.PaymentCompleted, models.PaymentCancelled},
}

func CanTransition(from, to string) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// PaymentEvent is the upstream "payment succeeded" signal.
type PaymentEvent struct {
	PaymentID     string `json:"paymentId"`
	OrderID       string `json:"orderId"`
	AmountCharged int64  `json:"amountCharged"`
}

func (e PaymentEvent) Validate(op string) error {
	if strings.TrimSpace(e.PaymentID) == "" {
		return invalid(op, "paymentId is required")
	}
	if e.AmountCharged < 0 {
		return invalid(op, "amountCharged cannot be negative")
	}
	return nil
}

type CommitRequest struct {
	Selection Selection     `json:"selection"`
	Contact   Contact       `json:"contact"`
	Payment   *PaymentEvent `json:"payment,omitempty"`
}

type CommitResult struct {
	Booking      *models.Booking `json:"booking"`
	Guest        *models.Guest   `json:"guest,omitempty"`
	GuestCreated bool            `json:"guest_created"`
	Quote        *Quote          `json:"quote,omitempty"`
	State        CommitState     `json:"state"`
	// Replayed is set when the payment had already been committed and the
	// existing booking is returned.
	Replayed bool          `json:"replayed"`
	Trace    []CommitState `json:"-"`
}

// BookingNotice is handed to notifiers after a booking is persisted.
type BookingNotice struct {
	Booking  models.Booking
	Guest    *models.Guest
	RoomType models.RoomType
	Room     models.Room
	Quote    Quote
}

// BookingNotifier hears about persisted bookings. Its failures are logged
// and never undo a booking.
type BookingNotifier interface {
	BookingCreated(ctx context.Context, n BookingNotice) error
}

type attempt struct {
	state CommitState
	trace []CommitState
}

func newAttempt() *attempt {
	return &attempt{state: StateDraft, trace: []CommitState{StateDraft}}
}

func (a *attempt) advance(to CommitState) {
	a.state = to
	a.trace = append(a.trace, to)
}

// BookingService is the booking write coordinator: it re-checks the unit,
// resolves the guest and persists the booking and payment in a single
// transaction.
type BookingService struct {
	store        repository.Store
	pricing      *PriceComposer
	availability *AvailabilityService
	matcher      GuestMatcher
	notifiers    []BookingNotifier
	opts         Options
	log          *logrus.Entry

	now        func() time.Time
	newCode    func() (string, error)
	newOrderID func() string

	pending sync.WaitGroup
}

func NewBookingService(store repository.Store, pricing *PriceComposer, availability *AvailabilityService, opts Options, notifiers ...BookingNotifier) *BookingService {
	opts = opts.withDefaults()
	return &BookingService{
		store:        store,
		pricing:      pricing,
		availability: availability,
		matcher:      NewGuestMatcher(opts.Phone),
		notifiers:    notifiers,
		opts:         opts,
		log:          opts.Log.WithField("service", "booking"),
		now:          func() time.Time { return time.Now().UTC() },
		newCode:      utils.GenerateBookingCode,
		newOrderID:   uuid.NewString,
	}
}

// Wait blocks until in-flight notifications finish.
func (s *BookingService) Wait() { s.pending.Wait() }

// ----------------------------------------------------
// COMMIT
// ----------------------------------------------------

// Commit places a booking for a selection. With a payment event the booking
// is confirmed and the payment recorded; without one it is a pending manual
// booking. A unit that is no longer free fails with SLOT_TAKEN and nothing is
// written.
func (s *BookingService) Commit(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	return s.commit(ctx, req, nil)
}

// CreateManual is an admin booking without payment.
func (s *BookingService) CreateManual(ctx context.Context, sel Selection, contact Contact) (*CommitResult, error) {
	return s.commit(ctx, CommitRequest{Selection: sel, Contact: contact}, nil)
}

func (s *BookingService) commit(ctx context.Context, req CommitRequest, draft *Draft) (*CommitResult, error) {
	const op = "BookingService.Commit"
	if err := req.Contact.Validate(op); err != nil {
		return nil, err
	}
	if req.Payment != nil {
		if err := req.Payment.Validate(op); err != nil {
			return nil, err
		}
		if res, err := s.replay(ctx, req.Payment.PaymentID); res != nil || err != nil {
			return res, err
		}
	}

	priced, err := s.pricing.Quote(ctx, req.Selection)
	if err != nil {
		return nil, err
	}

	status := models.PaymentPending
	if req.Payment != nil {
		if req.Payment.AmountCharged != priced.Quote.Total {
			s.log.WithFields(logrus.Fields{
				"payment_id": req.Payment.PaymentID,
				"order_id":   req.Payment.OrderID,
				"charged":    req.Payment.AmountCharged,
				"quoted":     priced.Quote.Total,
			}).Warn("payment amount does not match quote, booking not written")
			if draft != nil && draft.QuotedTotal != priced.Quote.Total {
				s.invalidateQuietly(ctx, draft.OrderID, ReasonPriceChanged)
			}
			return nil, E(KindAmount, op, fmt.Errorf("charged %d but the stay costs %d", req.Payment.AmountCharged, priced.Quote.Total))
		}
		status = models.PaymentConfirmed
	}

	var res *CommitResult
	for i := 0; i < maxCommitAttempts; i++ {
		res, err = s.persist(ctx, req, priced, status, draft)
		if err == nil || !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		s.log.WithError(err).Warn("duplicate key while committing, retrying")
	}
	if err != nil {
		err = commandErr(op, err)
		fields := logrus.Fields{"room_type_id": req.Selection.RoomTypeID, "room_id": req.Selection.RoomID, "range": priced.Range.String(), "kind": KindOf(err)}
		if errors.Is(err, ErrSlotTaken) {
			s.log.WithFields(fields).Info("booking commit lost the slot")
			if draft != nil {
				s.invalidateQuietly(ctx, draft.OrderID, ReasonSlotTaken)
			}
		} else {
			s.log.WithFields(fields).WithError(err).Error("booking commit failed")
		}
		return nil, err
	}

	if res.Replayed {
		return res, nil
	}
	s.log.WithFields(logrus.Fields{
		"booking_id":   res.Booking.ID,
		"booking_code": res.Booking.BookingCode,
		"guest_id":     res.Guest.ID,
		"status":       res.Booking.PaymentStatus,
		"total":        res.Booking.TotalAmount,
	}).Info("booking persisted")
	s.notify(ctx, res, priced)
	return res, nil
}

// replay returns the booking already committed for paymentID, or nil.
func (s *BookingService) replay(ctx context.Context, paymentID string) (*CommitResult, error) {
	const op = "BookingService.replay"
	ctx, cancel := s.opts.bounded(ctx)
	defer cancel()

	ev, err := s.store.ConsumedEvent(ctx, paymentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, queryErr(op, err)
	}
	b, err := s.store.Booking(ctx, ev.BookingID)
	if err != nil {
		return nil, queryErr(op, err)
	}
	s.log.WithFields(logrus.Fields{"payment_id": paymentID, "booking_id": b.ID}).Info("payment already processed")
	return &CommitResult{Booking: b, State: StatePersisted, Replayed: true}, nil
}

func (s *BookingService) persist(ctx context.Context, req CommitRequest, priced *PricedSelection, status string, draft *Draft) (*CommitResult, error) {
	const op = "BookingService.persist"
	a := newAttempt()
	res := &CommitResult{}

	err := s.store.Transact(ctx, func(tx repository.Tx) error {
		if req.Payment != nil {
			rctx, cancel := s.opts.bounded(ctx)
			defer cancel()
			ev, err := tx.ConsumedEvent(rctx, req.Payment.PaymentID)
			if err == nil {
				b, err := tx.Booking(rctx, ev.BookingID)
				if err != nil {
					return queryErr(op, err)
				}
				res.Booking, res.Replayed = b, true
				return nil
			}
			if !errors.Is(err, repository.ErrNotFound) {
				return queryErr(op, err)
			}
		}

		var draftRow *models.CheckoutDraft
		if draft != nil {
			rctx, cancel := s.opts.bounded(ctx)
			defer cancel()
			var err error
			if draftRow, err = tx.Draft(rctx, draft.OrderID); err != nil {
				return queryErr(op, err)
			}
			current, err := draftFromModel(draftRow)
			if err != nil {
				return E(KindQuery, op, err)
			}
			if err := current.Usable(s.now()); err != nil {
				return err
			}
		}

		cctx, cancel := s.opts.bounded(ctx)
		room, err := s.claimUnit(cctx, tx, priced)
		cancel()
		if err != nil {
			return err
		}
		a.advance(StateAvailabilityConfirmed)

		gctx, cancel := s.opts.bounded(ctx)
		guest, created, err := s.matcher.Resolve(gctx, tx, req.Contact)
		cancel()
		if err != nil {
			return err
		}
		if guest.Blacklisted {
			s.log.WithFields(logrus.Fields{"guest_id": guest.ID, "reason": guest.BlacklistReason}).Warn("booking for blacklisted guest")
		}
		a.advance(StateGuestResolved)

		booking, err := s.newBooking(priced, room, guest, req, status)
		if err != nil {
			return err
		}
		if err := tx.Create(ctx, booking); err != nil {
			return err
		}

		if p := req.Payment; p != nil {
			if err := tx.Create(ctx, &models.Payment{
				BookingID:  booking.ID,
				PaymentRef: p.PaymentID,
				OrderID:    p.OrderID,
				Amount:     p.AmountCharged,
				Status:     "succeeded",
			}); err != nil {
				return err
			}
			if err := tx.Create(ctx, &models.ConsumedEvent{
				ID:          p.PaymentID,
				EventKey:    paymentEventKey,
				BookingID:   booking.ID,
				ProcessedAt: s.now(),
			}); err != nil {
				return err
			}
		}

		if draftRow != nil {
			draftRow.Status = models.DraftCommitted
			draftRow.BookingID = &booking.ID
			if err := tx.Save(ctx, draftRow); err != nil {
				return err
			}
		}

		a.advance(StatePersisted)
		res.Booking, res.Guest, res.GuestCreated = booking, guest, created
		res.Quote = &priced.Quote
		return nil
	})
	if err != nil {
		a.advance(StateFailed)
		s.log.WithFields(logrus.Fields{"trace": a.trace}).Debug("booking attempt failed")
		return nil, err
	}
	if res.Replayed {
		res.State = StatePersisted
		return res, nil
	}
	res.State, res.Trace = a.state, a.trace
	return res, nil
}

// claimUnit locks and re-checks the unit inside the transaction. A chosen
// unit is never swapped for another; with only a room type the first free
// unit by room number is taken.
func (s *BookingService) claimUnit(ctx context.Context, tx repository.Tx, priced *PricedSelection) (*models.Room, error) {
	const op = "BookingService.claimUnit"
	sel, r := priced.Selection, priced.Range

	check := func(id uint) (*models.Room, error) {
		room, err := tx.LockRoom(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid(op, "room %d does not exist", id)
		}
		if err != nil {
			return nil, queryErr(op, err)
		}
		if room.RoomTypeID != sel.RoomTypeID {
			return nil, invalid(op, "room %s is not a %s", room.RoomNumber, priced.RoomType.Name)
		}
		if room.Status != models.UnitActive {
			return nil, E(KindSlotTaken, op, fmt.Errorf("room %s is %s", room.RoomNumber, room.Status))
		}
		clash, err := tx.Overlapping(ctx, room.ID, r)
		if err == nil {
			// a store that ignores ctx must still not answer late
			err = ctx.Err()
		}
		if err != nil {
			return nil, queryErr(op, err)
		}
		if clash != nil {
			return nil, E(KindSlotTaken, op, fmt.Errorf("room %s is held by %s for %s", room.RoomNumber, clash.BookingCode, clash.Range()))
		}
		return room, nil
	}

	if sel.RoomID != 0 {
		return check(sel.RoomID)
	}

	units, err := tx.Rooms(ctx, sel.RoomTypeID)
	if err != nil {
		return nil, queryErr(op, err)
	}
	for _, u := range units {
		if u.Status != models.UnitActive {
			continue
		}
		room, err := check(u.ID)
		if err == nil {
			return room, nil
		}
		if !errors.Is(err, ErrSlotTaken) {
			return nil, err
		}
	}
	return nil, E(KindSlotTaken, op, fmt.Errorf("no %s unit is free for %s", priced.RoomType.Name, r))
}

func (s *BookingService) newBooking(priced *PricedSelection, room *models.Room, guest *models.Guest, req CommitRequest, status string) (*models.Booking, error) {
	code, err := s.newCode()
	if err != nil {
		return nil, fmt.Errorf("generate booking code: %w", err)
	}

	snap := func(v any) (datatypes.JSON, error) {
		b, err := json.Marshal(v)
		return datatypes.JSON(b), err
	}
	in := priced.Input
	breakdown, err := snap(priced.Quote.Breakdown)
	if err != nil {
		return nil, err
	}
	addons, err := snap(in.Addons)
	if err != nil {
		return nil, err
	}
	pickup, err := snap(in.Pickup)
	if err != nil {
		return nil, err
	}
	bedding, err := snap(in.Bedding)
	if err != nil {
		return nil, err
	}

	roomID, guestID := room.ID, guest.ID
	b := &models.Booking{
		BookingCode:   code,
		RoomID:        &roomID,
		GuestID:       &guestID,
		GuestName:     req.Contact.trimmed().FullName(),
		GuestEmail:    strings.TrimSpace(req.Contact.Email),
		GuestPhone:    strings.TrimSpace(req.Contact.Phone),
		CheckIn:       priced.Range.CheckIn,
		CheckOut:      priced.Range.CheckOut,
		Guests:        priced.Selection.Guests,
		PaymentStatus: status,
		TotalAmount:   priced.Quote.Total,
		MealPlan:      string(priced.Selection.MealPlan),
		Breakdown:     breakdown,
		Addons:        addons,
		Pickup:        pickup,
		Bedding:       bedding,
		Notes:         strings.TrimSpace(priced.Selection.Notes),
	}
	if in.Variant != nil {
		id := in.Variant.ID
		b.RateVariantID = &id
		b.MealPlan = in.Variant.MealPlan
	}
	if req.Payment != nil {
		b.OrderID = req.Payment.OrderID
	}
	return b, nil
}

func (s *BookingService) notify(ctx context.Context, res *CommitResult, priced *PricedSelection) {
	if len(s.notifiers) == 0 {
		return
	}
	n := BookingNotice{Booking: *res.Booking, Guest: res.Guest, RoomType: priced.RoomType, Quote: priced.Quote}
	if room, err := s.store.Room(ctx, *res.Booking.RoomID); err == nil {
		n.Room = *room
	}

	ctx = context.WithoutCancel(ctx)
	for _, nt := range s.notifiers {
		s.pending.Add(1)
		go func(nt BookingNotifier) {
			defer s.pending.Done()
			nctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := nt.BookingCreated(nctx, n); err != nil {
				s.log.WithError(err).WithField("booking_id", n.Booking.ID).Warn("booking notification failed")
			}
		}(nt)
	}
}

// ----------------------------------------------------
// CHECKOUT DRAFTS
// ----------------------------------------------------

// CreateDraft prices a selection and opens a draft keyed by a new order id
// for the payment step. The slot is checked but not held.
func (s *BookingService) CreateDraft(ctx context.Context, sel Selection, contact Contact) (*Draft, error) {
	const op = "BookingService.CreateDraft"
	if err := contact.Validate(op); err != nil {
		return nil, err
	}
	priced, err := s.pricing.Quote(ctx, sel)
	if err != nil {
		return nil, err
	}
	ok, err := s.availability.IsAvailable(ctx, sel.RoomTypeID, sel.RoomID, priced.Range)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, E(KindSlotTaken, op, fmt.Errorf("no %s unit is free for %s", priced.RoomType.Name, priced.Range))
	}

	d := &Draft{
		OrderID:     s.newOrderID(),
		Selection:   sel,
		Contact:     contact.trimmed(),
		QuotedTotal: priced.Quote.Total,
		Breakdown:   priced.Quote.Breakdown,
		ExpiresAt:   s.now().Add(s.opts.DraftTTL),
		Status:      models.DraftOpen,
	}
	row, err := d.toModel()
	if err != nil {
		return nil, E(KindCommand, op, err)
	}
	err = s.store.Transact(ctx, func(tx repository.Tx) error {
		return tx.Create(ctx, row)
	})
	if err != nil {
		return nil, commandErr(op, err)
	}
	d.id = row.ID
	s.log.WithFields(logrus.Fields{"order_id": d.OrderID, "total": d.QuotedTotal}).Info("checkout draft opened")
	return d, nil
}

func (s *BookingService) GetDraft(ctx context.Context, orderID string) (*Draft, error) {
	const op = "BookingService.GetDraft"
	ctx, cancel := s.opts.bounded(ctx)
	defer cancel()

	row, err := s.store.Draft(ctx, orderID)
	if err != nil {
		return nil, queryErr(op, err)
	}
	d, err := draftFromModel(row)
	if err != nil {
		return nil, E(KindQuery, op, err)
	}
	return d, nil
}

// InvalidateDraft closes an open draft. Closed drafts are returned as they
// are.
func (s *BookingService) InvalidateDraft(ctx context.Context, orderID, reason string) (*Draft, error) {
	const op = "BookingService.InvalidateDraft"
	if strings.TrimSpace(reason) == "" {
		reason = ReasonAdmin
	}
	var d *Draft
	err := s.store.Transact(ctx, func(tx repository.Tx) error {
		row, err := tx.Draft(ctx, orderID)
		if err != nil {
			return queryErr(op, err)
		}
		if d, err = draftFromModel(row); err != nil {
			return E(KindQuery, op, err)
		}
		if !d.Invalidate(reason) {
			return nil
		}
		row.Status, row.InvalidReason = d.Status, d.Reason
		return tx.Save(ctx, row)
	})
	if err != nil {
		return nil, commandErr(op, err)
	}
	s.log.WithFields(logrus.Fields{"order_id": orderID, "status": d.Status, "reason": d.Reason}).Info("checkout draft invalidated")
	return d, nil
}

func (s *BookingService) invalidateQuietly(ctx context.Context, orderID, reason string) {
	if _, err := s.InvalidateDraft(ctx, orderID, reason); err != nil {
		s.log.WithError(err).WithField("order_id", orderID).Warn("could not invalidate draft")
	}
}

// ConfirmPayment commits the draft behind a payment event. Delivering the
// same payment again returns the booking it produced.
func (s *BookingService) ConfirmPayment(ctx context.Context, ev PaymentEvent) (*CommitResult, error) {
	const op = "BookingService.ConfirmPayment"
	if err := ev.Validate(op); err != nil {
		return nil, err
	}
	if strings.TrimSpace(ev.OrderID) == "" {
		return nil, invalid(op, "orderId is required")
	}
	if res, err := s.replay(ctx, ev.PaymentID); res != nil || err != nil {
		return res, err
	}

	d, err := s.GetDraft(ctx, ev.OrderID)
	if err != nil {
		return nil, err
	}
	if d.Status == models.DraftOpen && d.Expired(s.now()) {
		s.invalidateQuietly(ctx, d.OrderID, ReasonExpired)
		d.Invalidate(ReasonExpired)
	}
	if err := d.Usable(s.now()); err != nil {
		s.log.WithFields(logrus.Fields{"order_id": d.OrderID, "payment_id": ev.PaymentID}).WithError(err).Warn("payment for unusable draft")
		return nil, err
	}
	return s.commit(ctx, CommitRequest{Selection: d.Selection, Contact: d.Contact, Payment: &ev}, d)
}

// ----------------------------------------------------
// LIFECYCLE
// ----------------------------------------------------

func (s *BookingService) Get(ctx context.Context, id uint) (*models.Booking, error) {
	ctx, cancel := s.opts.bounded(ctx)
	defer cancel()

	b, err := s.store.Booking(ctx, id)
	if err != nil {
		return nil, queryErr("BookingService.Get", err)
	}
	return b, nil
}

// UpdateStatus moves a booking along its payment status lifecycle.
func (s *BookingService) UpdateStatus(ctx context.Context, id uint, to string) (*models.Booking, error) {
	const op = "BookingService.UpdateStatus"
	if !models.ValidPaymentStatus(to) {
		return nil, invalid(op, "unknown status %q", to)
	}
	var booking *models.Booking
	err := s.store.Transact(ctx, func(tx repository.Tx) error {
		b, err := tx.Booking(ctx, id)
		if err != nil {
			return queryErr(op, err)
		}
		booking = b
		if b.PaymentStatus == to {
			return nil
		}
		if !CanTransition(b.PaymentStatus, to) {
			return invalid(op, "booking %s cannot move from %s to %s", b.BookingCode, b.PaymentStatus, to)
		}
		b.PaymentStatus = to
		return tx.Save(ctx, b)
	})
	if err != nil {
		return nil, commandErr(op, err)
	}
	s.log.WithFields(logrus.Fields{"booking_id": id, "status": to}).Info("booking status changed")
	return booking, nil
}
