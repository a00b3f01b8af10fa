package services

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"hotel-inventory/daterange"
	"hotel-inventory/models"
	"hotel-inventory/repository"
)

// MaxGridDays bounds a calendar grid request.
const MaxGridDays = 93

type DayStatus string

const (
	DayAvailable   DayStatus = "available"
	DayMaintenance DayStatus = "maintenance"
	DayInactive    DayStatus = "inactive"
	DayPending     DayStatus = "pending"
	DayConfirmed   DayStatus = "confirmed"
	DayCompleted   DayStatus = "completed"
	// DayCancelled is shown for audit only; the unit is still free.
	DayCancelled DayStatus = "cancelled"
)

type DayState struct {
	Date        string    `json:"date"`
	Status      DayStatus `json:"status"`
	BookingID   uint      `json:"booking_id,omitempty"`
	BookingCode string    `json:"booking_code,omitempty"`
}

type UnitGrid struct {
	RoomID     uint       `json:"room_id"`
	RoomNumber string     `json:"room_number"`
	RoomTypeID uint       `json:"room_type_id"`
	UnitStatus string     `json:"unit_status"`
	Days       []DayState `json:"days"`
}

// UnitsStatus computes the per-day status of each unit over r. Maintenance
// wins over bookings; otherwise the earliest non-cancelled booking occupying
// the day decides; a cancelled one is only shown when nothing else holds the
// day. An invalid range yields empty day lists.
func UnitsStatus(units []models.Room, bookings []models.Booking, r daterange.Range) map[uint][]DayState {
	days := r.Days()
	byRoom := bookingsByRoom(bookings)

	out := make(map[uint][]DayState, len(units))
	for _, u := range units {
		states := make([]DayState, 0, len(days))
		for _, d := range days {
			states = append(states, dayState(u, byRoom[u.ID], d))
		}
		out[u.ID] = states
	}
	return out
}

func dayState(u models.Room, bookings []models.Booking, day time.Time) DayState {
	st := DayState{Date: day.Format(daterange.Layout), Status: DayAvailable}
	switch u.Status {
	case models.UnitMaintenance:
		st.Status = DayMaintenance
		return st
	case models.UnitInactive:
		st.Status = DayInactive
		return st
	}

	var cancelled *models.Booking
	for i := range bookings {
		b := &bookings[i]
		if !b.Range().Occupies(day) {
			continue
		}
		if !b.Blocks() {
			if cancelled == nil {
				cancelled = b
			}
			continue
		}
		st.Status = DayStatus(b.PaymentStatus)
		st.BookingID, st.BookingCode = b.ID, b.BookingCode
		return st
	}
	if cancelled != nil {
		st.Status = DayCancelled
		st.BookingID, st.BookingCode = cancelled.ID, cancelled.BookingCode
	}
	return st
}

// bookingsByRoom groups bookings per unit, each group ordered by check-in
// then id.
func bookingsByRoom(bookings []models.Booking) map[uint][]models.Booking {
	out := map[uint][]models.Booking{}
	for _, b := range bookings {
		if b.RoomID == nil {
			continue
		}
		out[*b.RoomID] = append(out[*b.RoomID], b)
	}
	for id := range out {
		slices.SortStableFunc(out[id], func(a, b models.Booking) int {
			if c := a.CheckIn.Compare(b.CheckIn); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
	}
	return out
}

// FreeUnits returns the units that are active and hold no non-cancelled
// booking on any night of r, ordered by room number. Partially free units are
// not free.
func FreeUnits(units []models.Room, bookings []models.Booking, r daterange.Range) []models.Room {
	if !r.Valid() {
		return nil
	}
	byRoom := bookingsByRoom(bookings)
	var free []models.Room
	for _, u := range units {
		if u.Status != models.UnitActive {
			continue
		}
		taken := false
		for _, b := range byRoom[u.ID] {
			if b.Blocks() && b.Range().Overlaps(r) {
				taken = true
				break
			}
		}
		if !taken {
			free = append(free, u)
		}
	}
	slices.SortStableFunc(free, func(a, b models.Room) int {
		return strings.Compare(a.RoomNumber, b.RoomNumber)
	})
	return free
}

type SearchRequest struct {
	Range      daterange.Range
	Guests     int
	RoomTypeID uint
}

type AvailableRoom struct {
	RoomType       models.RoomType `json:"room_type"`
	AvailableCount int             `json:"available_count"`
	Nights         int             `json:"nights"`
	StayPrice      int64           `json:"stay_price"`
}

// AvailabilityService answers availability questions from persisted units
// and bookings.
type AvailabilityService struct {
	store repository.Reader
	opts  Options
	log   *logrus.Entry
}

func NewAvailabilityService(store repository.Reader, opts Options) *AvailabilityService {
	opts = opts.withDefaults()
	return &AvailabilityService{store: store, opts: opts, log: opts.Log.WithField("service", "availability")}
}

type inventorySnapshot struct {
	types    []models.RoomType
	units    []models.Room
	bookings []models.Booking
}

// load reads room types, units and bookings for r concurrently.
func (s *AvailabilityService) load(ctx context.Context, types repository.RoomTypeFilter, roomTypeID uint, r daterange.Range) (inventorySnapshot, error) {
	ctx, cancel := s.opts.bounded(ctx)
	defer cancel()

	var snap inventorySnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.types, err = s.store.RoomTypes(gctx, types)
		return err
	})
	g.Go(func() error {
		var err error
		snap.units, err = s.store.Rooms(gctx, roomTypeID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.bookings, err = s.store.Bookings(gctx, repository.BookingFilter{Range: r})
		return err
	})
	return snap, g.Wait()
}

// CountAvailable is the number of units of a room type free for the whole of
// r. Invalid ranges count zero.
func (s *AvailabilityService) CountAvailable(ctx context.Context, roomTypeID uint, r daterange.Range) (int, error) {
	if !r.Valid() {
		return 0, nil
	}
	snap, err := s.load(ctx, repository.RoomTypeFilter{IDs: []uint{roomTypeID}}, roomTypeID, r)
	if err != nil {
		return 0, queryErr("AvailabilityService.CountAvailable", err)
	}
	return len(FreeUnits(snap.units, snap.bookings, r)), nil
}

// Search lists published room types that fit the party, cheapest first, with
// how many units are free for the whole stay. Types with nothing free are
// left out unless a specific type was asked for.
func (s *AvailabilityService) Search(ctx context.Context, req SearchRequest) ([]AvailableRoom, error) {
	const op = "AvailabilityService.Search"
	if req.Guests < 1 {
		return nil, invalid(op, "guests must be at least 1")
	}
	if !req.Range.Valid() {
		return []AvailableRoom{}, nil
	}

	filter := repository.RoomTypeFilter{PublishedOnly: true, MinGuests: req.Guests}
	if req.RoomTypeID != 0 {
		filter.IDs = []uint{req.RoomTypeID}
	}
	snap, err := s.load(ctx, filter, req.RoomTypeID, req.Range)
	if err != nil {
		s.log.WithError(err).WithField("range", req.Range.String()).Error("availability search failed")
		return nil, queryErr(op, err)
	}

	unitsByType := map[uint][]models.Room{}
	for _, u := range snap.units {
		unitsByType[u.RoomTypeID] = append(unitsByType[u.RoomTypeID], u)
	}

	nights := req.Range.Nights()
	out := []AvailableRoom{}
	for _, rt := range snap.types {
		n := len(FreeUnits(unitsByType[rt.ID], snap.bookings, req.Range))
		if n == 0 && req.RoomTypeID == 0 {
			continue
		}
		out = append(out, AvailableRoom{
			RoomType:       rt,
			AvailableCount: n,
			Nights:         nights,
			StayPrice:      rt.BasePrice * int64(nights),
		})
	}
	s.log.WithFields(logrus.Fields{"range": req.Range.String(), "guests": req.Guests, "results": len(out)}).Debug("availability search")
	return out, nil
}

// GridStatus renders the calendar grid for every unit of a room type, or of
// all types when roomTypeID is 0.
func (s *AvailabilityService) GridStatus(ctx context.Context, roomTypeID uint, r daterange.Range) ([]UnitGrid, error) {
	const op = "AvailabilityService.GridStatus"
	if !r.Valid() {
		return []UnitGrid{}, nil
	}
	if r.Nights() > MaxGridDays {
		return nil, invalid(op, "grid range is limited to %d days", MaxGridDays)
	}

	snap, err := s.load(ctx, repository.RoomTypeFilter{}, roomTypeID, r)
	if err != nil {
		return nil, queryErr(op, err)
	}

	status := UnitsStatus(snap.units, snap.bookings, r)
	out := make([]UnitGrid, 0, len(snap.units))
	for _, u := range snap.units {
		out = append(out, UnitGrid{
			RoomID:     u.ID,
			RoomNumber: u.RoomNumber,
			RoomTypeID: u.RoomTypeID,
			UnitStatus: u.Status,
			Days:       status[u.ID],
		})
	}
	return out, nil
}

// Bookings lists bookings intersecting r for the admin console.
func (s *AvailabilityService) Bookings(ctx context.Context, r daterange.Range, status string) ([]models.Booking, error) {
	ctx, cancel := s.opts.bounded(ctx)
	defer cancel()

	out, err := s.store.Bookings(ctx, repository.BookingFilter{Range: r, Status: status})
	if err != nil {
		return nil, queryErr("AvailabilityService.Bookings", err)
	}
	return out, nil
}

// IsAvailable reports whether a stay can still be placed: on roomID when set,
// otherwise on any unit of the room type.
func (s *AvailabilityService) IsAvailable(ctx context.Context, roomTypeID, roomID uint, r daterange.Range) (bool, error) {
	if !r.Valid() {
		return false, nil
	}
	snap, err := s.load(ctx, repository.RoomTypeFilter{IDs: []uint{roomTypeID}}, roomTypeID, r)
	if err != nil {
		return false, queryErr("AvailabilityService.IsAvailable", err)
	}
	for _, u := range FreeUnits(snap.units, snap.bookings, r) {
		if roomID == 0 || u.ID == roomID {
			return true, nil
		}
	}
	return false, nil
}
