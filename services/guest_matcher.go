package services

import (
	"context"
	"errors"
	"strings"

	"hotel-inventory/models"
	"hotel-inventory/repository"
)

// PhoneRule strips a national calling prefix from a digits-only number when
// the number is exactly prefix + national digits long.
type PhoneRule struct {
	CountryPrefix  string
	NationalDigits int
}

func DefaultPhoneRule() PhoneRule {
	return PhoneRule{CountryPrefix: "91", NationalDigits: 10}
}

func (r PhoneRule) Normalize(raw string) string {
	var b strings.Builder
	for _, c := range raw {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	digits := b.String()
	if r.CountryPrefix != "" &&
		len(digits) == len(r.CountryPrefix)+r.NationalDigits &&
		strings.HasPrefix(digits, r.CountryPrefix) {
		digits = digits[len(r.CountryPrefix):]
	}
	return digits
}

// Contact is guest contact data as typed into a booking form.
type Contact struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Nationality string `json:"nationality,omitempty"`
}

func (c Contact) trimmed() Contact {
	return Contact{
		FirstName:   strings.TrimSpace(c.FirstName),
		LastName:    strings.TrimSpace(c.LastName),
		Email:       strings.TrimSpace(c.Email),
		Phone:       strings.TrimSpace(c.Phone),
		Nationality: strings.TrimSpace(c.Nationality),
	}
}

func (c Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Validate requires a name and at least one way to reach the guest.
func (c Contact) Validate(op string) error {
	c = c.trimmed()
	if c.FirstName == "" && c.LastName == "" {
		return invalid(op, "guest name is required")
	}
	if c.Email == "" && c.Phone == "" {
		return invalid(op, "guest email or phone is required")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return invalid(op, "guest email %q is malformed", c.Email)
	}
	return nil
}

// GuestMatcher resolves contact details to an existing guest. It is the only
// place phone numbers are normalized for matching.
type GuestMatcher struct {
	Rule PhoneRule
}

func NewGuestMatcher(rule PhoneRule) GuestMatcher {
	return GuestMatcher{Rule: rule}
}

// FindExisting looks up by exact email first, then by normalized phone.
// (nil, nil) means no such guest; a failed or late lookup is a
// GUEST_LOOKUP_ERROR.
func (m GuestMatcher) FindExisting(ctx context.Context, r repository.Reader, email, phone string) (*models.Guest, error) {
	const op = "GuestMatcher.FindExisting"

	if email = strings.TrimSpace(email); email != "" {
		g, err := r.GuestByEmail(ctx, email)
		if cerr := ctx.Err(); cerr != nil {
			return nil, E(KindGuestLookup, op, cerr)
		}
		if err == nil {
			return g, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, E(KindGuestLookup, op, err)
		}
	}

	if normalized := m.Rule.Normalize(phone); normalized != "" {
		g, err := r.GuestByPhone(ctx, normalized)
		if cerr := ctx.Err(); cerr != nil {
			return nil, E(KindGuestLookup, op, cerr)
		}
		if err == nil {
			return g, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, E(KindGuestLookup, op, err)
		}
	}
	return nil, nil
}

// Resolve attaches contact details to a guest inside tx. A matched guest has
// its non-blank fields refreshed; otherwise a new guest is created. A lookup
// failure aborts without creating anything.
func (m GuestMatcher) Resolve(ctx context.Context, tx repository.Tx, c Contact) (*models.Guest, bool, error) {
	const op = "GuestMatcher.Resolve"
	c = c.trimmed()

	existing, err := m.FindExisting(ctx, tx, c.Email, c.Phone)
	if err != nil {
		return nil, false, err
	}

	if existing == nil {
		g := &models.Guest{
			FirstName:       c.FirstName,
			LastName:        c.LastName,
			Email:           c.Email,
			Phone:           c.Phone,
			PhoneNormalized: m.Rule.Normalize(c.Phone),
			Nationality:     c.Nationality,
		}
		if err := tx.Create(ctx, g); err != nil {
			return nil, false, commandErr(op, err)
		}
		return g, true, nil
	}

	if m.merge(existing, c) {
		if err := tx.Save(ctx, existing); err != nil {
			return nil, false, commandErr(op, err)
		}
	}
	return existing, false, nil
}

// merge copies non-blank contact fields onto g and reports whether anything
// changed.
func (m GuestMatcher) merge(g *models.Guest, c Contact) bool {
	changed := false
	set := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	set(&g.FirstName, c.FirstName)
	set(&g.LastName, c.LastName)
	set(&g.Email, c.Email)
	set(&g.Nationality, c.Nationality)
	if c.Phone != "" && g.Phone != c.Phone {
		g.Phone = c.Phone
		g.PhoneNormalized = m.Rule.Normalize(c.Phone)
		changed = true
	}
	return changed
}
