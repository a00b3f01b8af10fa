// Package daterange holds the half-open stay interval math shared by
// availability, pricing and booking writes. Dates carry no time component.
package daterange

import (
	"fmt"
	"strings"
	"time"
)

const Layout = "2006-01-02"

// Range is a stay interval [CheckIn, CheckOut). The check-out day itself is
// free for a new arrival.
type Range struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay accepts "2006-01-02" or RFC3339 and returns the calendar date.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(Layout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return Day(t), nil
}

// New builds a range from two dates, dropping any time component.
func New(checkIn, checkOut time.Time) Range {
	return Range{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
}

// Parse builds a range from two date strings. It only reports malformed
// input; an empty or inverted range is still returned so callers decide.
func Parse(checkIn, checkOut string) (Range, error) {
	ci, err := ParseDay(checkIn)
	if err != nil {
		return Range{}, fmt.Errorf("check_in: %w", err)
	}
	co, err := ParseDay(checkOut)
	if err != nil {
		return Range{}, fmt.Errorf("check_out: %w", err)
	}
	return Range{CheckIn: ci, CheckOut: co}, nil
}

// Valid reports whether both ends are set and CheckOut > CheckIn.
func (r Range) Valid() bool {
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		return false
	}
	return Day(r.CheckOut).After(Day(r.CheckIn))
}

// Nights is ceil((CheckOut-CheckIn)/1 day) clamped at 0. Zero or inverted
// ranges give 0.
func (r Range) Nights() int {
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		return 0
	}
	diff := r.CheckOut.Sub(r.CheckIn)
	if diff <= 0 {
		return 0
	}
	n := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) != 0 {
		n++
	}
	return n
}

// Occupies is true iff CheckIn <= day < CheckOut.
func (r Range) Occupies(day time.Time) bool {
	d := Day(day)
	return !d.Before(Day(r.CheckIn)) && d.Before(Day(r.CheckOut))
}

// Overlaps is true iff the two half-open ranges share at least one night.
func (r Range) Overlaps(o Range) bool {
	if !r.Valid() || !o.Valid() {
		return false
	}
	return Day(r.CheckIn).Before(Day(o.CheckOut)) && Day(o.CheckIn).Before(Day(r.CheckOut))
}

// Days lists every night of the range in order. Empty for invalid ranges.
func (r Range) Days() []time.Time {
	if !r.Valid() {
		return nil
	}
	days := make([]time.Time, 0, r.Nights())
	for d := Day(r.CheckIn); d.Before(Day(r.CheckOut)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (r Range) String() string {
	return r.CheckIn.Format(Layout) + ".." + r.CheckOut.Format(Layout)
}

// Nights parses two date strings and returns the night count, failing
// closed to 0 on malformed input.
func Nights(checkIn, checkOut string) int {
	r, err := Parse(checkIn, checkOut)
	if err != nil {
		return 0
	}
	return r.Nights()
}
