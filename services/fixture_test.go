package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"hotel-inventory/daterange"
	"hotel-inventory/models"
	"hotel-inventory/repository"
)

// fixture is a small hotel: three Deluxe units, a Suite with one unit under
// maintenance and an unpublished Villa.
type fixture struct {
	store *repository.MemoryStore
	opts  Options
	hook  *test.Hook

	deluxe, suite, villa models.RoomType
	d1, d2, d3, s1, s2   models.Room
	variant, expired     models.RateVariant
	spa, dinnerCruise    models.Addon
	airport              models.PickupService
	extraBed             models.BeddingOption
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{
		store: repository.NewMemoryStore(),
		opts:  Options{Log: logger},
		hook:  hook,
	}
	f.deluxe = models.RoomType{Name: "Deluxe", MaxGuests: 2, BasePrice: 8500, Published: true}
	f.suite = models.RoomType{Name: "Suite", MaxGuests: 4, BasePrice: 15000, Published: true}
	f.villa = models.RoomType{Name: "Villa", MaxGuests: 6, BasePrice: 30000}

	ctx := context.Background()
	err := f.store.Transact(ctx, func(tx repository.Tx) error {
		create := func(vs ...any) error {
			for _, v := range vs {
				if err := tx.Create(ctx, v); err != nil {
					return err
				}
			}
			return nil
		}
		if err := create(&f.deluxe, &f.suite, &f.villa); err != nil {
			return err
		}

		f.d1 = models.Room{RoomTypeID: f.deluxe.ID, RoomNumber: "D-1", Status: models.UnitActive}
		f.d2 = models.Room{RoomTypeID: f.deluxe.ID, RoomNumber: "D-2", Status: models.UnitActive}
		f.d3 = models.Room{RoomTypeID: f.deluxe.ID, RoomNumber: "D-3", Status: models.UnitActive}
		f.s1 = models.Room{RoomTypeID: f.suite.ID, RoomNumber: "S-1", Status: models.UnitActive}
		f.s2 = models.Room{RoomTypeID: f.suite.ID, RoomNumber: "S-2", Status: models.UnitMaintenance}
		if err := create(&f.d1, &f.d2, &f.d3, &f.s1, &f.s2); err != nil {
			return err
		}

		f.variant = models.RateVariant{
			RoomTypeID:         f.deluxe.ID,
			Label:              "Bed and breakfast",
			MealPlan:           string(MealHalfBoard),
			CancellationPolicy: "non-refundable",
			ValidFrom:          day("2024-01-01"),
			ValidTo:            day("2025-01-01"),
			NightlyRate:        9000,
			MealCostPerNight:   600,
			PolicyAdjustment:   -1000,
			Active:             true,
		}
		f.expired = models.RateVariant{
			RoomTypeID:  f.deluxe.ID,
			Label:       "Winter promo",
			ValidFrom:   day("2023-01-01"),
			ValidTo:     day("2023-03-01"),
			NightlyRate: 7000,
			Active:      true,
		}
		f.spa = models.Addon{Kind: models.AddonSpa, Name: "Spa session", Price: 2500, Active: true}
		f.dinnerCruise = models.Addon{Kind: models.AddonActivity, Name: "Dinner cruise", Price: 4000}
		f.airport = models.PickupService{Name: "Airport pickup", Price: 1800, Active: true}
		f.extraBed = models.BeddingOption{Name: "Extra bed", Price: 1200, Active: true}
		return create(
			&f.variant, &f.expired, &f.spa, &f.dinnerCruise, &f.airport, &f.extraBed,
			&models.MealRate{Slot: models.SlotBreakfast, Price: 300, Active: true},
			&models.MealRate{Slot: models.SlotLunch, Price: 450, Active: true},
			&models.MealRate{Slot: models.SlotHighTea, Price: 150, Active: true},
			&models.MealRate{Slot: models.SlotDinner, Price: 500, Active: true},
		)
	})
	require.NoError(t, err)
	return f
}

// book stores a booking directly, bypassing the coordinator.
func (f *fixture) book(t *testing.T, room models.Room, checkIn, checkOut, status string) models.Booking {
	t.Helper()
	id := room.ID
	b := models.Booking{
		BookingCode:   "BK-" + room.RoomNumber + "-" + checkIn,
		RoomID:        &id,
		GuestName:     "Walk In",
		CheckIn:       day(checkIn),
		CheckOut:      day(checkOut),
		Guests:        1,
		PaymentStatus: status,
	}
	err := f.store.Transact(context.Background(), func(tx repository.Tx) error {
		return tx.Create(context.Background(), &b)
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) availability() *AvailabilityService {
	return NewAvailabilityService(f.store, f.opts)
}

func (f *fixture) pricing() *PriceComposer {
	return NewPriceComposer(f.store, f.opts)
}

func (f *fixture) bookings(notifiers ...BookingNotifier) *BookingService {
	return NewBookingService(f.store, f.pricing(), f.availability(), f.opts, notifiers...)
}

// entries returns the logged messages at level.
func (f *fixture) entries(level logrus.Level) []string {
	var out []string
	for _, e := range f.hook.AllEntries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

func day(s string) time.Time {
	t, err := time.Parse(daterange.Layout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func stay(t *testing.T, checkIn, checkOut string) daterange.Range {
	t.Helper()
	r, err := daterange.Parse(checkIn, checkOut)
	require.NoError(t, err)
	return r
}
