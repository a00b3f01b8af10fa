package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hotel-inventory/models"
	"hotel-inventory/repository"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

func mysqlDSNFromURL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", "", fmt.Errorf("mysql url missing database name")
	}

	// DATE columns must round-trip as UTC calendar days.
	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "UTC")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode())
	return dsn, dbName, nil
}

func resolveMySQLDSN(c App) (string, string, error) {
	raw := strings.TrimSpace(c.MySQLURL)
	if raw == "" {
		raw = strings.TrimSpace(c.DatabaseURL)
	}

	if raw != "" {
		if strings.HasPrefix(raw, "mysql://") {
			return mysqlDSNFromURL(raw)
		}
		return raw, c.DBName, nil
	}

	port := c.DBPort
	if port == "" {
		port = "3306"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.DBUser, c.DBPass, c.DBHost, port, c.DBName,
	)
	return dsn, c.DBName, nil
}

func resolvePostgresDSN(c App) string {
	if raw := strings.TrimSpace(c.DatabaseURL); raw != "" {
		return raw
	}
	port := c.DBPort
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		c.DBHost, port, c.DBUser, c.DBPass, c.DBName)
}

func gormLogLevel(s string) logger.LogLevel {
	switch strings.ToLower(s) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	}
	return logger.Warn
}

// OpenDatabase connects with the configured driver and migrates the schema.
func OpenDatabase(c App, log *logrus.Logger) (*gorm.DB, error) {
	gormLog := logger.New(log, logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gormLogLevel(c.DBLogLevel),
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
	cfg := &gorm.Config{Logger: gormLog, NowFunc: func() time.Time { return time.Now().UTC() }}

	var dialector gorm.Dialector
	switch c.DBDriver {
	case DriverMySQL:
		dsn, dbName, err := resolveMySQLDSN(c)
		if err != nil {
			return nil, err
		}
		log.WithField("database", dbName).Info("connecting to mysql")
		dialector = mysql.Open(dsn)
	case DriverPostgres:
		log.WithField("database", c.DBName).Info("connecting to postgres")
		dialector = postgres.Open(resolvePostgresDSN(c))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	// parent -> child order
	if err := db.AutoMigrate(
		&models.Admin{},
		&models.RoomType{},
		&models.Room{},
		&models.Guest{},
		&models.GuestDocument{},
		&models.Addon{},
		&models.MealRate{},
		&models.PickupService{},
		&models.BeddingOption{},
		&models.RateVariant{},
		&models.Booking{},
		&models.Payment{},
		&models.CheckoutDraft{},
		&models.ConsumedEvent{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if c.DBDriver == DriverPostgres {
		ensureBookingExclusion(db, log)
	}
	return db, nil
}

// ensureBookingExclusion adds the storage-level guarantee that no two live
// bookings share a night on the same unit. Failures are logged; the
// transactional re-check still applies.
func ensureBookingExclusion(db *gorm.DB, log *logrus.Logger) {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'bookings_no_overlap') THEN
		ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
			EXCLUDE USING gist (room_id WITH =, daterange(check_in, check_out, '[)') WITH &&)
			WHERE (payment_status <> 'cancelled' AND deleted_at IS NULL AND room_id IS NOT NULL);
	END IF;
END $$`,
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			log.WithError(err).Warn("could not install booking exclusion constraint")
			return
		}
	}
	log.Info("booking exclusion constraint ensured")
}

// OpenStore returns the store selected by DB_DRIVER and seeds it when asked.
func OpenStore(ctx context.Context, c App, log *logrus.Logger) (repository.Store, error) {
	var store repository.Store
	if c.DBDriver == DriverMemory {
		log.Warn("using in-memory store, data is lost on restart")
		store = repository.NewMemoryStore()
	} else {
		db, err := OpenDatabase(c, log)
		if err != nil {
			return nil, err
		}
		store = repository.NewGormStore(db)
	}

	if c.DBSeed {
		if err := SeedDatabase(ctx, store, log); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	return store, nil
}

func mustParseDay(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

// SeedDatabase creates a default admin and a starter inventory and catalog.
// Each part is skipped when it already has rows.
func SeedDatabase(ctx context.Context, store repository.Store, log *logrus.Logger) error {
	// ---------------- Admins ----------------
	_, err := store.AdminByUsername(ctx, "admin@hotel.local")
	if errors.Is(err, repository.ErrNotFound) {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash default admin password: %w", err)
		}
		err = store.Transact(ctx, func(tx repository.Tx) error {
			return tx.Create(ctx, &models.Admin{FullName: "Admin User", Username: "admin@hotel.local", Password: string(hash), Role: "admin"})
		})
		if err != nil {
			return err
		}
		log.Info("default admin seeded")
	} else if err != nil {
		return err
	}

	// ---------------- Inventory ----------------
	existing, err := store.RoomTypes(ctx, repository.RoomTypeFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Debug("inventory already seeded")
		return nil
	}

	roomTypes := []struct {
		rt    models.RoomType
		units []string
	}{
		{models.RoomType{Name: "Standard", Description: "Standard Room", MaxGuests: 2, BasePrice: 6500, Published: true}, []string{"101", "102", "103", "104"}},
		{models.RoomType{Name: "Superior", Description: "Superior Room", MaxGuests: 3, BasePrice: 7500, Published: true}, []string{"201", "202", "203"}},
		{models.RoomType{Name: "Deluxe", Description: "Deluxe Room", MaxGuests: 4, BasePrice: 8500, Published: true}, []string{"301", "302", "303"}},
		{models.RoomType{Name: "Connecting", Description: "Connecting Room", MaxGuests: 5, BasePrice: 12000, Published: true}, []string{"401"}},
	}

	start := time.Now().UTC()
	from := mustParseDay(fmt.Sprintf("%d-01-01", start.Year()))
	to := from.AddDate(2, 0, 0)

	return store.Transact(ctx, func(tx repository.Tx) error {
		for i := range roomTypes {
			rt := &roomTypes[i].rt
			if err := tx.Create(ctx, rt); err != nil {
				return err
			}
			for _, n := range roomTypes[i].units {
				room := &models.Room{RoomTypeID: rt.ID, RoomNumber: n, Floor: n[:1], Status: models.UnitActive}
				if err := tx.Create(ctx, room); err != nil {
					return err
				}
			}
			variants := []models.RateVariant{
				{RoomTypeID: rt.ID, Label: "Room only, flexible", MealPlan: "none", CancellationPolicy: "free-cancellation",
					ValidFrom: from, ValidTo: to, NightlyRate: rt.BasePrice, PolicyAdjustment: 500, Active: true},
				{RoomTypeID: rt.ID, Label: "Breakfast and dinner, non-refundable", MealPlan: "half-board", CancellationPolicy: "non-refundable",
					ValidFrom: from, ValidTo: to, NightlyRate: rt.BasePrice, MealCostPerNight: 1400, PolicyAdjustment: -1000, Active: true},
			}
			for j := range variants {
				if err := tx.Create(ctx, &variants[j]); err != nil {
					return err
				}
			}
		}

		catalog := []any{
			&models.MealRate{Slot: models.SlotBreakfast, Price: 300, Active: true},
			&models.MealRate{Slot: models.SlotLunch, Price: 450, Active: true},
			&models.MealRate{Slot: models.SlotHighTea, Price: 200, Active: true},
			&models.MealRate{Slot: models.SlotDinner, Price: 500, Active: true},
			&models.Addon{Kind: models.AddonMeal, Name: "Candle-light dinner", Price: 3500, Active: true},
			&models.Addon{Kind: models.AddonActivity, Name: "Sunset boat ride", Price: 2200, Active: true},
			&models.Addon{Kind: models.AddonSpa, Name: "Ayurvedic massage", Price: 4000, Active: true},
			&models.PickupService{Name: "Airport pickup", Price: 1800, Active: true},
			&models.PickupService{Name: "Railway station pickup", Price: 900, Active: true},
			&models.BeddingOption{Name: "Extra bed", Price: 1200, Active: true},
			&models.BeddingOption{Name: "Baby cot", Price: 0, Active: true},
		}
		for _, v := range catalog {
			if err := tx.Create(ctx, v); err != nil {
				return err
			}
		}
		log.WithField("room_types", len(roomTypes)).Info("inventory and catalog seeded")
		return nil
	})
}
