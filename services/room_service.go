package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"hotel-inventory/models"
	"hotel-inventory/repository"
)

// RoomService manages physical room units.
type RoomService struct {
	store repository.Store
	opts  Options
	log   *logrus.Entry
}

func NewRoomService(store repository.Store, opts Options) *RoomService {
	opts = opts.withDefaults()
	return &RoomService{store: store, opts: opts, log: opts.Log.WithField("service", "room")}
}

func (s *RoomService) Create(ctx context.Context, room *models.Room) error {
	const op = "RoomService.Create"
	room.RoomNumber = strings.TrimSpace(room.RoomNumber)
	if room.RoomNumber == "" {
		return invalid(op, "room number is required")
	}
	if room.Status == "" {
		room.Status = models.UnitActive
	}
	if !models.ValidUnitStatus(room.Status) {
		return invalid(op, "unknown unit status %q", room.Status)
	}

	room.ID = 0
	room.RoomType = nil
	err := s.store.Transact(ctx, func(tx repository.Tx) error {
		if _, err := tx.RoomType(ctx, room.RoomTypeID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return invalid(op, "room type %d does not exist", room.RoomTypeID)
			}
			return queryErr(op, err)
		}
		return tx.Create(ctx, room)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return invalid(op, "room number %s is already in use", room.RoomNumber)
	}
	if err != nil {
		return commandErr(op, err)
	}
	s.log.WithFields(logrus.Fields{"room_id": room.ID, "room_number": room.RoomNumber}).Info("room created")
	return nil
}

// GetAll lists units ordered by room number; roomTypeID 0 lists all.
func (s *RoomService) GetAll(ctx context.Context, roomTypeID uint) ([]models.Room, error) {
	ctx, cancel := s.opts.bounded(ctx)
	defer cancel()

	rooms, err := s.store.Rooms(ctx, roomTypeID)
	if err != nil {
		return nil, queryErr("RoomService.GetAll", err)
	}
	return rooms, nil
}

func (s *RoomService) GetByID(ctx context.Context, id uint) (*models.Room, error) {
	ctx, cancel := s.opts.bounded(ctx)
	defer cancel()

	room, err := s.store.Room(ctx, id)
	if err != nil {
		return nil, queryErr("RoomService.GetByID", err)
	}
	return room, nil
}

// SetStatus takes a unit in or out of service. Existing bookings are kept;
// a unit under maintenance is simply not offered for new stays.
func (s *RoomService) SetStatus(ctx context.Context, id uint, status string) (*models.Room, error) {
	const op = "RoomService.SetStatus"
	if !models.ValidUnitStatus(status) {
		return nil, invalid(op, "unknown unit status %q", status)
	}
	var out *models.Room
	err := s.store.Transact(ctx, func(tx repository.Tx) error {
		room, err := tx.LockRoom(ctx, id)
		if err != nil {
			return queryErr(op, err)
		}
		room.Status = status
		room.RoomType = nil
		out = room
		return tx.Save(ctx, room)
	})
	if err != nil {
		return nil, commandErr(op, err)
	}
	s.log.WithFields(logrus.Fields{"room_id": id, "status": status}).Warn("room status changed")
	return out, nil
}
