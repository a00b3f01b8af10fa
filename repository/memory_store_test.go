package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-inventory/daterange"
	"hotel-inventory/models"
)

func mustRange(t *testing.T, in, out string) daterange.Range {
	t.Helper()
	r, err := daterange.Parse(in, out)
	require.NoError(t, err)
	return r
}

func seedUnit(t *testing.T, s *MemoryStore, number string) models.Room {
	t.Helper()
	var room models.Room
	err := s.Transact(context.Background(), func(tx Tx) error {
		rt := models.RoomType{Name: "Deluxe", MaxGuests: 2, BasePrice: 8500, Published: true}
		if err := tx.Create(context.Background(), &rt); err != nil {
			return err
		}
		room = models.Room{RoomTypeID: rt.ID, RoomNumber: number, Status: models.UnitActive}
		return tx.Create(context.Background(), &room)
	})
	require.NoError(t, err)
	return room
}

func booking(roomID uint, code string, r daterange.Range, status string) *models.Booking {
	return &models.Booking{
		BookingCode:   code,
		RoomID:        &roomID,
		CheckIn:       r.CheckIn,
		CheckOut:      r.CheckOut,
		PaymentStatus: status,
	}
}

func TestMemoryStoreRollsBackFailedTransaction(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	room := seedUnit(t, s, "D-1")

	boom := errors.New("boom")
	err := s.Transact(ctx, func(tx Tx) error {
		if err := tx.Create(ctx, &models.Guest{FirstName: "Asha", Email: "asha@example.com"}); err != nil {
			return err
		}
		if err := tx.Create(ctx, booking(room.ID, "BK1", mustRange(t, "2024-03-01", "2024-03-03"), models.PaymentConfirmed)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	guests, err := s.Guests(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, guests)

	bookings, err := s.Bookings(ctx, BookingFilter{})
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestMemoryStoreRefusesOverlappingInsert(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	room := seedUnit(t, s, "D-1")

	insert := func(code, in, out, status string) error {
		return s.Transact(ctx, func(tx Tx) error {
			return tx.Create(ctx, booking(room.ID, code, mustRange(t, in, out), status))
		})
	}

	require.NoError(t, insert("BK1", "2024-03-01", "2024-03-03", models.PaymentConfirmed))
	assert.ErrorIs(t, insert("BK2", "2024-03-02", "2024-03-04", models.PaymentPending), ErrOverlap)
	assert.NoError(t, insert("BK3", "2024-03-03", "2024-03-05", models.PaymentPending), "same-day turnover")
	assert.NoError(t, insert("BK4", "2024-03-01", "2024-03-02", models.PaymentCancelled))
	assert.ErrorIs(t, insert("BK1", "2024-04-01", "2024-04-02", models.PaymentPending), ErrDuplicate)
}

func TestMemoryStoreOverlappingIgnoresCancelled(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	room := seedUnit(t, s, "D-1")
	r := mustRange(t, "2024-03-01", "2024-03-03")

	err := s.Transact(ctx, func(tx Tx) error {
		if err := tx.Create(ctx, booking(room.ID, "BK1", r, models.PaymentCancelled)); err != nil {
			return err
		}
		got, err := tx.Overlapping(ctx, room.ID, r)
		require.NoError(t, err)
		assert.Nil(t, got)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStoreBookingsFilter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := seedUnit(t, s, "D-1")
	b := seedUnit(t, s, "D-2")

	require.NoError(t, s.Transact(ctx, func(tx Tx) error {
		if err := tx.Create(ctx, booking(a.ID, "BK1", mustRange(t, "2024-03-05", "2024-03-07"), models.PaymentConfirmed)); err != nil {
			return err
		}
		return tx.Create(ctx, booking(b.ID, "BK2", mustRange(t, "2024-03-01", "2024-03-03"), models.PaymentPending))
	}))

	all, err := s.Bookings(ctx, BookingFilter{Range: mustRange(t, "2024-03-01", "2024-03-10")})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "BK2", all[0].BookingCode, "ordered by check-in")

	onlyA, err := s.Bookings(ctx, BookingFilter{RoomIDs: []uint{a.ID}})
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, "BK1", onlyA[0].BookingCode)

	inverted, err := s.Bookings(ctx, BookingFilter{Range: mustRange(t, "2024-03-10", "2024-03-01")})
	require.NoError(t, err)
	assert.Empty(t, inverted)
}

func TestMemoryStoreOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Transact(ctx, func(tx Tx) error {
		for _, rt := range []models.RoomType{
			{Name: "Suite", MaxGuests: 4, BasePrice: 15000, Published: true},
			{Name: "Standard", MaxGuests: 2, BasePrice: 4000, Published: true},
			{Name: "Hidden", MaxGuests: 2, BasePrice: 1000},
		} {
			if err := tx.Create(ctx, &rt); err != nil {
				return err
			}
			for _, n := range []string{rt.Name + "-3", rt.Name + "-1", rt.Name + "-2"} {
				if err := tx.Create(ctx, &models.Room{RoomTypeID: rt.ID, RoomNumber: n, Status: models.UnitActive}); err != nil {
					return err
				}
			}
		}
		return nil
	}))

	types, err := s.RoomTypes(ctx, RoomTypeFilter{PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "Standard", types[0].Name)
	assert.Equal(t, "Suite", types[1].Name)

	big, err := s.RoomTypes(ctx, RoomTypeFilter{PublishedOnly: true, MinGuests: 3})
	require.NoError(t, err)
	require.Len(t, big, 1)

	rooms, err := s.Rooms(ctx, types[0].ID)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, []string{"Standard-1", "Standard-2", "Standard-3"},
		[]string{rooms[0].RoomNumber, rooms[1].RoomNumber, rooms[2].RoomNumber})
}

func TestMemoryStoreHonoursContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := s.GuestByEmail(ctx, "x@example.com")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = s.GuestByEmail(context.Background(), "x@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreGuestDocuments(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	var g models.Guest
	require.NoError(t, s.Transact(ctx, func(tx Tx) error {
		g = models.Guest{FirstName: "Ravi", Phone: "98765 43210", PhoneNormalized: "9876543210"}
		if err := tx.Create(ctx, &g); err != nil {
			return err
		}
		return tx.Create(ctx, &models.GuestDocument{GuestID: g.ID, IDType: "passport", IDNumber: "P123"})
	}))

	got, err := s.Guest(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "passport", got.Documents[0].IDType)

	byPhone, err := s.GuestByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, g.ID, byPhone.ID)

	err = s.Transact(ctx, func(tx Tx) error {
		return tx.Create(ctx, &models.GuestDocument{GuestID: 999})
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
