// Package repository is the data-query and data-command boundary of the
// inventory engine. GormStore backs it with MySQL or PostgreSQL and
// MemoryStore keeps everything in process.
package repository

import (
	"context"
	"errors"

	"hotel-inventory/daterange"
	"hotel-inventory/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrOverlap means the unit already holds a non-cancelled booking for an
	// intersecting range.
	ErrOverlap = errors.New("slot_overlapped")
	// ErrDuplicate is a unique key collision (booking code, payment ref, ...).
	ErrDuplicate = errors.New("duplicate key")
)

type RoomTypeFilter struct {
	IDs           []uint
	PublishedOnly bool
	MinGuests     int
}

// BookingFilter selects bookings. A zero Range matches every date; a set but
// invalid Range matches nothing.
type BookingFilter struct {
	RoomIDs []uint
	Range   daterange.Range
	Status  string
}

func (f BookingFilter) hasRange() bool {
	return !f.Range.CheckIn.IsZero() || !f.Range.CheckOut.IsZero()
}

// Reader is the read side. Single-record lookups return ErrNotFound on a
// miss; list lookups return an empty slice.
type Reader interface {
	// RoomTypes is ordered by base price, then id.
	RoomTypes(ctx context.Context, f RoomTypeFilter) ([]models.RoomType, error)
	RoomType(ctx context.Context, id uint) (*models.RoomType, error)
	// Rooms lists units of a room type (0 for all) ordered by room number.
	Rooms(ctx context.Context, roomTypeID uint) ([]models.Room, error)
	Room(ctx context.Context, id uint) (*models.Room, error)

	// Bookings is ordered by check-in, then id.
	Bookings(ctx context.Context, f BookingFilter) ([]models.Booking, error)
	Booking(ctx context.Context, id uint) (*models.Booking, error)

	Addons(ctx context.Context, kind string) ([]models.Addon, error)
	MealRates(ctx context.Context) ([]models.MealRate, error)
	PickupServices(ctx context.Context) ([]models.PickupService, error)
	BeddingOptions(ctx context.Context) ([]models.BeddingOption, error)
	RateVariants(ctx context.Context, roomTypeID uint) ([]models.RateVariant, error)
	RateVariant(ctx context.Context, id uint) (*models.RateVariant, error)

	Guest(ctx context.Context, id uint) (*models.Guest, error)
	GuestByEmail(ctx context.Context, email string) (*models.Guest, error)
	GuestByPhone(ctx context.Context, normalized string) (*models.Guest, error)
	Guests(ctx context.Context, query string) ([]models.Guest, error)

	Draft(ctx context.Context, orderID string) (*models.CheckoutDraft, error)
	ConsumedEvent(ctx context.Context, id string) (*models.ConsumedEvent, error)
	AdminByUsername(ctx context.Context, username string) (*models.Admin, error)
}

// Tx is a unit of work. Nothing written through it is visible outside until
// the surrounding Transact returns nil.
type Tx interface {
	Reader

	// LockRoom takes an exclusive lock on the unit row for the rest of the
	// transaction. Concurrent writers for the same unit queue behind it.
	LockRoom(ctx context.Context, id uint) (*models.Room, error)
	// Overlapping returns a non-cancelled booking on roomID intersecting r,
	// or nil.
	Overlapping(ctx context.Context, roomID uint, r daterange.Range) (*models.Booking, error)

	Create(ctx context.Context, v any) error
	Save(ctx context.Context, v any) error
}

type Store interface {
	Reader
	Transact(ctx context.Context, fn func(tx Tx) error) error
}
