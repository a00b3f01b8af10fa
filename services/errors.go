package services

import (
	"errors"
	"fmt"

	"hotel-inventory/repository"
)

// Kind classifies a failure so callers can tell "nothing found" from "could
// not look". An empty result is never an error.
type Kind string

const (
	KindValidation  Kind = "VALIDATION_ERROR"
	KindQuery       Kind = "QUERY_FAILED"
	KindCommand     Kind = "COMMAND_FAILED"
	KindSlotTaken   Kind = "SLOT_TAKEN"
	KindGuestLookup Kind = "GUEST_LOOKUP_ERROR"
	KindNotFound    Kind = "NOT_FOUND"
	KindAmount      Kind = "AMOUNT_MISMATCH"
	KindDraft       Kind = "DRAFT_INVALID"
	KindAuth        Kind = "UNAUTHORIZED"
)

// Retryable reports whether the same call may succeed later without the
// caller changing its input.
func (k Kind) Retryable() bool {
	switch k {
	case KindQuery, KindCommand, KindGuestLookup:
		return true
	}
	return false
}

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind, so errors.Is(err, ErrSlotTaken) works
// whatever the Op.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrQuery       = &Error{Kind: KindQuery}
	ErrCommand     = &Error{Kind: KindCommand}
	ErrSlotTaken   = &Error{Kind: KindSlotTaken}
	ErrGuestLookup = &Error{Kind: KindGuestLookup}
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrAmount      = &Error{Kind: KindAmount}
	ErrDraft       = &Error{Kind: KindDraft}
	ErrAuth        = &Error{Kind: KindAuth}
)

func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func invalid(op, format string, args ...any) *Error {
	return E(KindValidation, op, fmt.Errorf(format, args...))
}

// KindOf returns the Kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// queryErr classifies a read failure. A miss becomes NOT_FOUND; anything
// else, a timeout included, is QUERY_FAILED.
func queryErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return E(KindNotFound, op, err)
	}
	return E(KindQuery, op, err)
}

// commandErr classifies a write failure.
func commandErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	if errors.Is(err, repository.ErrOverlap) {
		return E(KindSlotTaken, op, err)
	}
	return E(KindCommand, op, err)
}
