package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hotel-inventory/daterange"
	"hotel-inventory/models"
)

// GormStore implements Store on a relational database through GORM.
type GormStore struct {
	gormReader
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{gormReader{db: db}}
}

func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Transact(ctx context.Context, fn func(tx Tx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{gormReader{db: tx}})
	})
	return translate(err)
}

type gormReader struct {
	db *gorm.DB
}

func (r gormReader) first(ctx context.Context, dest any, query string, args ...any) error {
	return translate(r.db.WithContext(ctx).Where(query, args...).First(dest).Error)
}

func (r gormReader) RoomTypes(ctx context.Context, f RoomTypeFilter) ([]models.RoomType, error) {
	q := r.db.WithContext(ctx).Model(&models.RoomType{})
	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}
	if f.PublishedOnly {
		q = q.Where("published = ?", true)
	}
	if f.MinGuests > 0 {
		q = q.Where("max_guests >= ?", f.MinGuests)
	}
	var out []models.RoomType
	err := q.Order("base_price ASC").Order("id ASC").Find(&out).Error
	return out, translate(err)
}

func (r gormReader) RoomType(ctx context.Context, id uint) (*models.RoomType, error) {
	var rt models.RoomType
	if err := r.first(ctx, &rt, "id = ?", id); err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r gormReader) Rooms(ctx context.Context, roomTypeID uint) ([]models.Room, error) {
	q := r.db.WithContext(ctx).Model(&models.Room{})
	if roomTypeID != 0 {
		q = q.Where("room_type_id = ?", roomTypeID)
	}
	var out []models.Room
	err := q.Order("room_number ASC").Order("id ASC").Find(&out).Error
	return out, translate(err)
}

func (r gormReader) Room(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := r.first(ctx, &room, "id = ?", id); err != nil {
		return nil, err
	}
	return &room, nil
}

func (r gormReader) Bookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	if f.hasRange() && !f.Range.Valid() {
		return []models.Booking{}, nil
	}
	q := r.db.WithContext(ctx).Model(&models.Booking{})
	if len(f.RoomIDs) > 0 {
		q = q.Where("room_id IN ?", f.RoomIDs)
	}
	if f.hasRange() {
		q = q.Where("check_in < ? AND check_out > ?", f.Range.CheckOut, f.Range.CheckIn)
	}
	if f.Status != "" {
		q = q.Where("payment_status = ?", f.Status)
	}
	var out []models.Booking
	err := q.Order("check_in ASC").Order("id ASC").Find(&out).Error
	return out, translate(err)
}

func (r gormReader) Booking(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := r.first(ctx, &b, "id = ?", id); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r gormReader) Addons(ctx context.Context, kind string) ([]models.Addon, error) {
	q := r.db.WithContext(ctx).Where("active = ?", true)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var out []models.Addon
	err := q.Order("id ASC").Find(&out).Error
	return out, translate(err)
}

func (r gormReader) MealRates(ctx context.Context) ([]models.MealRate, error) {
	var out []models.MealRate
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("id ASC").Find(&out).Error
	return out, translate(err)
}

func (r gormReader) PickupServices(ctx context.Context) ([]models.PickupService, error) {
	var out []models.PickupService
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("id ASC").Find(&out).Error
	return out, translate(err)
}

func (r gormReader) BeddingOptions(ctx context.Context) ([]models.BeddingOption, error) {
	var out []models.BeddingOption
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("id ASC").Find(&out).Error
	return out, translate(err)
}

func (r gormReader) RateVariants(ctx context.Context, roomTypeID uint) ([]models.RateVariant, error) {
	var out []models.RateVariant
	err := r.db.WithContext(ctx).
		Where("room_type_id = ? AND active = ?", roomTypeID, true).
		Order("id ASC").Find(&out).Error
	return out, translate(err)
}

func (r gormReader) RateVariant(ctx context.Context, id uint) (*models.RateVariant, error) {
	var v models.RateVariant
	if err := r.first(ctx, &v, "id = ?", id); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r gormReader) Guest(ctx context.Context, id uint) (*models.Guest, error) {
	var g models.Guest
	err := r.db.WithContext(ctx).Preload("Documents").First(&g, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (r gormReader) GuestByEmail(ctx context.Context, email string) (*models.Guest, error) {
	var g models.Guest
	query, args := emailMatch(r.db.Dialector.Name(), email)
	if err := r.first(ctx, &g, query, args...); err != nil {
		return nil, err
	}
	return &g, nil
}

// emailMatch is an exact, case-sensitive email comparison. MySQL's default
// collations ignore case, so the BINARY form is added there; the plain
// equality keeps the index usable.
func emailMatch(dialect, email string) (string, []any) {
	if dialect == "mysql" {
		return "email = ? AND BINARY email = BINARY ?", []any{email, email}
	}
	return "email = ?", []any{email}
}

func (r gormReader) GuestByPhone(ctx context.Context, normalized string) (*models.Guest, error) {
	var g models.Guest
	if err := r.first(ctx, &g, "phone_normalized = ?", normalized); err != nil {
		return nil, err
	}
	return &g, nil
}

func (r gormReader) Guests(ctx context.Context, query string) ([]models.Guest, error) {
	q := r.db.WithContext(ctx).Model(&models.Guest{})
	if query = strings.ToLower(strings.TrimSpace(query)); query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?",
			like, like, like, like)
	}
	var out []models.Guest
	err := q.Order("id ASC").Limit(200).Find(&out).Error
	return out, translate(err)
}

func (r gormReader) Draft(ctx context.Context, orderID string) (*models.CheckoutDraft, error) {
	var d models.CheckoutDraft
	if err := r.first(ctx, &d, "order_id = ?", orderID); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r gormReader) ConsumedEvent(ctx context.Context, id string) (*models.ConsumedEvent, error) {
	var e models.ConsumedEvent
	if err := r.first(ctx, &e, "id = ?", id); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r gormReader) AdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var a models.Admin
	if err := r.first(ctx, &a, "username = ?", username); err != nil {
		return nil, err
	}
	return &a, nil
}

type gormTx struct {
	gormReader
}

func (t *gormTx) LockRoom(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&room, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (t *gormTx) Overlapping(ctx context.Context, roomID uint, r daterange.Range) (*models.Booking, error) {
	var existing models.Booking
	err := t.db.WithContext(ctx).Model(&models.Booking{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("room_id = ? AND payment_status <> ?", roomID, models.PaymentCancelled).
		Where("check_in < ? AND check_out > ?", r.CheckOut, r.CheckIn).
		Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &existing, nil
}

func (t *gormTx) Create(ctx context.Context, v any) error {
	return translate(t.db.WithContext(ctx).Create(v).Error)
}

func (t *gormTx) Save(ctx context.Context, v any) error {
	return translate(t.db.WithContext(ctx).Save(v).Error)
}

// translate maps driver errors onto the package sentinels. Anything else is
// returned untouched so callers can still match context errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return fmt.Errorf("%w: %s", ErrDuplicate, myErr.Message)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23P01": // exclusion_violation
			return fmt.Errorf("%w: %s", ErrOverlap, pgErr.ConstraintName)
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		}
	}
	return err
}
