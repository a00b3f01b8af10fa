package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"hotel-inventory/models"
	"hotel-inventory/repository"
)

// RoomTypeService manages the sellable room categories.
type RoomTypeService struct {
	store repository.Store
	opts  Options
	log   *logrus.Entry
}

func NewRoomTypeService(store repository.Store, opts Options) *RoomTypeService {
	opts = opts.withDefaults()
	return &RoomTypeService{store: store, opts: opts, log: opts.Log.WithField("service", "room_type")}
}

func validateRoomType(op string, rt *models.RoomType) error {
	rt.Name = strings.TrimSpace(rt.Name)
	if rt.Name == "" {
		return invalid(op, "name is required")
	}
	if rt.MaxGuests < 1 {
		return invalid(op, "max guests must be at least 1")
	}
	if rt.BasePrice < 0 {
		return invalid(op, "base price cannot be negative")
	}
	return nil
}

func (s *RoomTypeService) Create(ctx context.Context, rt *models.RoomType) error {
	const op = "RoomTypeService.Create"
	if err := validateRoomType(op, rt); err != nil {
		return err
	}
	rt.ID = 0
	err := s.store.Transact(ctx, func(tx repository.Tx) error {
		return tx.Create(ctx, rt)
	})
	if err != nil {
		return commandErr(op, err)
	}
	s.log.WithFields(logrus.Fields{"room_type_id": rt.ID, "name": rt.Name}).Info("room type created")
	return nil
}

// GetAll lists room types, cheapest first.
func (s *RoomTypeService) GetAll(ctx context.Context, publishedOnly bool) ([]models.RoomType, error) {
	ctx, cancel := s.opts.bounded(ctx)
	defer cancel()

	types, err := s.store.RoomTypes(ctx, repository.RoomTypeFilter{PublishedOnly: publishedOnly})
	if err != nil {
		return nil, queryErr("RoomTypeService.GetAll", err)
	}
	return types, nil
}

func (s *RoomTypeService) GetByID(ctx context.Context, id uint) (*models.RoomType, error) {
	ctx, cancel := s.opts.bounded(ctx)
	defer cancel()

	rt, err := s.store.RoomType(ctx, id)
	if err != nil {
		return nil, queryErr("RoomTypeService.GetByID", err)
	}
	return rt, nil
}

// Update replaces the editable fields of a room type. Unpublishing hides it
// from search; its units and bookings stay.
func (s *RoomTypeService) Update(ctx context.Context, id uint, in models.RoomType) (*models.RoomType, error) {
	const op = "RoomTypeService.Update"
	if err := validateRoomType(op, &in); err != nil {
		return nil, err
	}
	var out *models.RoomType
	err := s.store.Transact(ctx, func(tx repository.Tx) error {
		rt, err := tx.RoomType(ctx, id)
		if err != nil {
			return queryErr(op, err)
		}
		rt.Name = in.Name
		rt.Description = in.Description
		rt.MaxGuests = in.MaxGuests
		rt.BasePrice = in.BasePrice
		rt.Published = in.Published
		rt.Rooms = nil
		out = rt
		return tx.Save(ctx, rt)
	})
	if err != nil {
		return nil, commandErr(op, err)
	}
	s.log.WithFields(logrus.Fields{"room_type_id": id, "base_price": out.BasePrice, "published": out.Published}).Info("room type updated")
	return out, nil
}
