package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translate(fmt.Errorf("wrapped: %w", gorm.ErrRecordNotFound)), ErrNotFound)

	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'BK-1' for key 'booking_code'"}
	assert.ErrorIs(t, translate(dup), ErrDuplicate)

	fk := &mysql.MySQLError{Number: 1452, Message: "foreign key"}
	assert.Same(t, error(fk), translate(fk))

	excl := &pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"}
	assert.ErrorIs(t, translate(excl), ErrOverlap)
	assert.NotErrorIs(t, translate(excl), ErrDuplicate)

	uniq := &pgconn.PgError{Code: "23505", ConstraintName: "idx_payments_payment_ref"}
	assert.ErrorIs(t, translate(uniq), ErrDuplicate)

	assert.ErrorIs(t, translate(context.DeadlineExceeded), context.DeadlineExceeded)

	other := errors.New("connection refused")
	assert.Equal(t, other, translate(other))
}

func TestEmailMatch(t *testing.T) {
	q, args := emailMatch("mysql", "Asha@Example.com")
	assert.Equal(t, "email = ? AND BINARY email = BINARY ?", q)
	assert.Equal(t, []any{"Asha@Example.com", "Asha@Example.com"}, args)

	q, args = emailMatch("postgres", "Asha@Example.com")
	assert.Equal(t, "email = ?", q)
	assert.Equal(t, []any{"Asha@Example.com"}, args)
}
