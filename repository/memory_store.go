package repository

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"hotel-inventory/daterange"
	"hotel-inventory/models"
)

// MemoryStore keeps all records in process. Transactions run one at a time
// against a copy of the committed state and replace it on success, so a
// failed transaction leaves nothing behind. It also refuses overlapping
// non-cancelled bookings on insert, like the PostgreSQL exclusion constraint.
type MemoryStore struct {
	memReader

	txMu  sync.Mutex
	mu    sync.RWMutex
	state *memState
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{state: newMemState()}
	s.memReader = memReader{load: s.current}
	return s
}

func (s *MemoryStore) current() *memState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *MemoryStore) Transact(ctx context.Context, fn func(tx Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.current().clone()
	if err := fn(&memTx{memReader: memReader{load: func() *memState { return work }}, st: work}); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = work
	s.mu.Unlock()
	return nil
}

type memState struct {
	seq uint

	roomTypes map[uint]models.RoomType
	rooms     map[uint]models.Room
	bookings  map[uint]models.Booking
	guests    map[uint]models.Guest
	documents map[uint]models.GuestDocument
	addons    map[uint]models.Addon
	mealRates map[uint]models.MealRate
	pickups   map[uint]models.PickupService
	bedding   map[uint]models.BeddingOption
	variants  map[uint]models.RateVariant
	payments  map[uint]models.Payment
	drafts    map[uint]models.CheckoutDraft
	events    map[string]models.ConsumedEvent
	admins    map[uint]models.Admin
}

func newMemState() *memState {
	return &memState{
		roomTypes: map[uint]models.RoomType{},
		rooms:     map[uint]models.Room{},
		bookings:  map[uint]models.Booking{},
		guests:    map[uint]models.Guest{},
		documents: map[uint]models.GuestDocument{},
		addons:    map[uint]models.Addon{},
		mealRates: map[uint]models.MealRate{},
		pickups:   map[uint]models.PickupService{},
		bedding:   map[uint]models.BeddingOption{},
		variants:  map[uint]models.RateVariant{},
		payments:  map[uint]models.Payment{},
		drafts:    map[uint]models.CheckoutDraft{},
		events:    map[string]models.ConsumedEvent{},
		admins:    map[uint]models.Admin{},
	}
}

// clone copies the maps. Records are values and are replaced, never
// mutated in place, so a shallow copy is enough.
func (st *memState) clone() *memState {
	return &memState{
		seq:       st.seq,
		roomTypes: maps.Clone(st.roomTypes),
		rooms:     maps.Clone(st.rooms),
		bookings:  maps.Clone(st.bookings),
		guests:    maps.Clone(st.guests),
		documents: maps.Clone(st.documents),
		addons:    maps.Clone(st.addons),
		mealRates: maps.Clone(st.mealRates),
		pickups:   maps.Clone(st.pickups),
		bedding:   maps.Clone(st.bedding),
		variants:  maps.Clone(st.variants),
		payments:  maps.Clone(st.payments),
		drafts:    maps.Clone(st.drafts),
		events:    maps.Clone(st.events),
		admins:    maps.Clone(st.admins),
	}
}

func (st *memState) nextID() uint {
	st.seq++
	return st.seq
}

// values returns the records of m in ascending id order.
func values[T any](m map[uint]T) []T {
	ids := slices.Sorted(maps.Keys(m))
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func ptr[T any](v T) *T { return &v }

type memReader struct {
	load func() *memState
}

func (r memReader) state(ctx context.Context) (*memState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.load(), nil
}

func (r memReader) RoomTypes(ctx context.Context, f RoomTypeFilter) ([]models.RoomType, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.RoomType{}
	for _, rt := range values(st.roomTypes) {
		if len(f.IDs) > 0 && !slices.Contains(f.IDs, rt.ID) {
			continue
		}
		if f.PublishedOnly && !rt.Published {
			continue
		}
		if f.MinGuests > 0 && rt.MaxGuests < f.MinGuests {
			continue
		}
		out = append(out, rt)
	}
	slices.SortStableFunc(out, func(a, b models.RoomType) int {
		return cmp.Compare(a.BasePrice, b.BasePrice)
	})
	return out, nil
}

func (r memReader) RoomType(ctx context.Context, id uint) (*models.RoomType, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	rt, ok := st.roomTypes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rt, nil
}

func (r memReader) Rooms(ctx context.Context, roomTypeID uint) ([]models.Room, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Room{}
	for _, room := range values(st.rooms) {
		if roomTypeID == 0 || room.RoomTypeID == roomTypeID {
			out = append(out, room)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Room) int {
		return strings.Compare(a.RoomNumber, b.RoomNumber)
	})
	return out, nil
}

func (r memReader) Room(ctx context.Context, id uint) (*models.Room, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	room, ok := st.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &room, nil
}

func (r memReader) Bookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Booking{}
	if f.hasRange() && !f.Range.Valid() {
		return out, nil
	}
	for _, b := range values(st.bookings) {
		if len(f.RoomIDs) > 0 && (b.RoomID == nil || !slices.Contains(f.RoomIDs, *b.RoomID)) {
			continue
		}
		if f.hasRange() && !b.Range().Overlaps(f.Range) {
			continue
		}
		if f.Status != "" && b.PaymentStatus != f.Status {
			continue
		}
		out = append(out, b)
	}
	slices.SortStableFunc(out, func(a, b models.Booking) int {
		return a.CheckIn.Compare(b.CheckIn)
	})
	return out, nil
}

func (r memReader) Booking(ctx context.Context, id uint) (*models.Booking, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	b, ok := st.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r memReader) Addons(ctx context.Context, kind string) ([]models.Addon, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.Addon{}
	for _, a := range values(st.addons) {
		if a.Active && (kind == "" || a.Kind == kind) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memReader) MealRates(ctx context.Context) ([]models.MealRate, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.MealRate{}
	for _, m := range values(st.mealRates) {
		if m.Active {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r memReader) PickupServices(ctx context.Context) ([]models.PickupService, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.PickupService{}
	for _, p := range values(st.pickups) {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memReader) BeddingOptions(ctx context.Context) ([]models.BeddingOption, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.BeddingOption{}
	for _, b := range values(st.bedding) {
		if b.Active {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r memReader) RateVariants(ctx context.Context, roomTypeID uint) ([]models.RateVariant, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	out := []models.RateVariant{}
	for _, v := range values(st.variants) {
		if v.Active && v.RoomTypeID == roomTypeID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r memReader) RateVariant(ctx context.Context, id uint) (*models.RateVariant, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	v, ok := st.variants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (r memReader) Guest(ctx context.Context, id uint) (*models.Guest, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	g, ok := st.guests[id]
	if !ok {
		return nil, ErrNotFound
	}
	g.Documents = nil
	for _, d := range values(st.documents) {
		if d.GuestID == id {
			g.Documents = append(g.Documents, d)
		}
	}
	return &g, nil
}

func (r memReader) GuestByEmail(ctx context.Context, email string) (*models.Guest, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range values(st.guests) {
		if g.Email == email {
			return ptr(g), nil
		}
	}
	return nil, ErrNotFound
}

func (r memReader) GuestByPhone(ctx context.Context, normalized string) (*models.Guest, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range values(st.guests) {
		if g.PhoneNormalized == normalized {
			return ptr(g), nil
		}
	}
	return nil, ErrNotFound
}

func (r memReader) Guests(ctx context.Context, query string) ([]models.Guest, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	out := []models.Guest{}
	for _, g := range values(st.guests) {
		if query == "" ||
			strings.Contains(strings.ToLower(g.FirstName), query) ||
			strings.Contains(strings.ToLower(g.LastName), query) ||
			strings.Contains(strings.ToLower(g.Email), query) ||
			strings.Contains(g.Phone, query) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r memReader) Draft(ctx context.Context, orderID string) (*models.CheckoutDraft, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range st.drafts {
		if d.OrderID == orderID {
			return ptr(d), nil
		}
	}
	return nil, ErrNotFound
}

func (r memReader) ConsumedEvent(ctx context.Context, id string) (*models.ConsumedEvent, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	e, ok := st.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (r memReader) AdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	st, err := r.state(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range st.admins {
		if a.Username == username {
			return ptr(a), nil
		}
	}
	return nil, ErrNotFound
}

type memTx struct {
	memReader
	st *memState
}

// LockRoom only checks existence; transactions are already serialized.
func (t *memTx) LockRoom(ctx context.Context, id uint) (*models.Room, error) {
	return t.Room(ctx, id)
}

func (t *memTx) Overlapping(ctx context.Context, roomID uint, r daterange.Range) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.st.overlapping(roomID, r, 0), nil
}

func (st *memState) overlapping(roomID uint, r daterange.Range, skip uint) *models.Booking {
	for _, b := range values(st.bookings) {
		if b.ID == skip || b.RoomID == nil || *b.RoomID != roomID || !b.Blocks() {
			continue
		}
		if b.Range().Overlaps(r) {
			return ptr(b)
		}
	}
	return nil
}

func (t *memTx) Create(ctx context.Context, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st := t.st
	now := time.Now().UTC()
	switch x := v.(type) {
	case *models.RoomType:
		x.ID, x.CreatedAt, x.UpdatedAt = st.nextID(), now, now
		st.roomTypes[x.ID] = *x
	case *models.Room:
		for _, r := range st.rooms {
			if r.RoomNumber == x.RoomNumber {
				return fmt.Errorf("%w: room_number %s", ErrDuplicate, x.RoomNumber)
			}
		}
		x.ID, x.CreatedAt, x.UpdatedAt = st.nextID(), now, now
		st.rooms[x.ID] = *x
	case *models.Booking:
		for _, b := range st.bookings {
			if b.BookingCode == x.BookingCode {
				return fmt.Errorf("%w: booking_code %s", ErrDuplicate, x.BookingCode)
			}
		}
		if x.RoomID != nil && x.Blocks() && st.overlapping(*x.RoomID, x.Range(), 0) != nil {
			return ErrOverlap
		}
		x.ID, x.CreatedAt, x.UpdatedAt = st.nextID(), now, now
		st.bookings[x.ID] = *x
	case *models.Guest:
		x.ID, x.CreatedAt, x.UpdatedAt = st.nextID(), now, now
		docs := x.Documents
		x.Documents = nil
		st.guests[x.ID] = *x
		x.Documents = docs
	case *models.GuestDocument:
		if _, ok := st.guests[x.GuestID]; !ok {
			return fmt.Errorf("guest %d: %w", x.GuestID, ErrNotFound)
		}
		x.ID, x.CreatedAt = st.nextID(), now
		st.documents[x.ID] = *x
	case *models.Addon:
		x.ID = st.nextID()
		st.addons[x.ID] = *x
	case *models.MealRate:
		for _, m := range st.mealRates {
			if m.Slot == x.Slot {
				return fmt.Errorf("%w: meal slot %s", ErrDuplicate, x.Slot)
			}
		}
		x.ID = st.nextID()
		st.mealRates[x.ID] = *x
	case *models.PickupService:
		x.ID = st.nextID()
		st.pickups[x.ID] = *x
	case *models.BeddingOption:
		x.ID = st.nextID()
		st.bedding[x.ID] = *x
	case *models.RateVariant:
		x.ID = st.nextID()
		st.variants[x.ID] = *x
	case *models.Payment:
		for _, p := range st.payments {
			if p.PaymentRef == x.PaymentRef {
				return fmt.Errorf("%w: payment_ref %s", ErrDuplicate, x.PaymentRef)
			}
		}
		x.ID, x.CreatedAt = st.nextID(), now
		st.payments[x.ID] = *x
	case *models.CheckoutDraft:
		for _, d := range st.drafts {
			if d.OrderID == x.OrderID {
				return fmt.Errorf("%w: order_id %s", ErrDuplicate, x.OrderID)
			}
		}
		x.ID, x.CreatedAt, x.UpdatedAt = st.nextID(), now, now
		st.drafts[x.ID] = *x
	case *models.ConsumedEvent:
		if _, ok := st.events[x.ID]; ok {
			return fmt.Errorf("%w: event %s", ErrDuplicate, x.ID)
		}
		st.events[x.ID] = *x
	case *models.Admin:
		for _, a := range st.admins {
			if a.Username == x.Username {
				return fmt.Errorf("%w: username %s", ErrDuplicate, x.Username)
			}
		}
		x.ID, x.CreatedAt, x.UpdatedAt = st.nextID(), now, now
		st.admins[x.ID] = *x
	default:
		return fmt.Errorf("memory store: unsupported type %T", v)
	}
	return nil
}

func (t *memTx) Save(ctx context.Context, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st := t.st
	now := time.Now().UTC()
	switch x := v.(type) {
	case *models.RoomType:
		if _, ok := st.roomTypes[x.ID]; !ok {
			return ErrNotFound
		}
		x.UpdatedAt = now
		st.roomTypes[x.ID] = *x
	case *models.Room:
		if _, ok := st.rooms[x.ID]; !ok {
			return ErrNotFound
		}
		x.UpdatedAt = now
		st.rooms[x.ID] = *x
	case *models.Booking:
		if _, ok := st.bookings[x.ID]; !ok {
			return ErrNotFound
		}
		if x.RoomID != nil && x.Blocks() && st.overlapping(*x.RoomID, x.Range(), x.ID) != nil {
			return ErrOverlap
		}
		x.UpdatedAt = now
		st.bookings[x.ID] = *x
	case *models.Guest:
		if _, ok := st.guests[x.ID]; !ok {
			return ErrNotFound
		}
		x.UpdatedAt = now
		g := *x
		g.Documents = nil
		st.guests[x.ID] = g
	case *models.CheckoutDraft:
		if _, ok := st.drafts[x.ID]; !ok {
			return ErrNotFound
		}
		x.UpdatedAt = now
		st.drafts[x.ID] = *x
	default:
		return fmt.Errorf("memory store: unsupported type %T", v)
	}
	return nil
}
