package datenorm

import (
	"fmt"
	"strings"
	"time"
)

// CalendarDate is a day on the civil calendar, independent of any zone.
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a CalendarDate, normalising out-of-range values the way
// time.Date does (e.g. December 32 becomes January 1).
func NewDate(year int, month time.Month, day int) CalendarDate {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime returns the calendar day of t in t's own location.
func FromTime(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{Year: y, Month: m, Day: d}
}

// ParseDate parses a strict YYYY-MM-DD string.
func ParseDate(s string) (CalendarDate, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return CalendarDate{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// String renders the canonical YYYY-MM-DD form.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DayMonthYear renders DD/MM/YYYY.
func (d CalendarDate) DayMonthYear() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

// DayMonthShortYear renders DD/MM/YY.
func (d CalendarDate) DayMonthShortYear() string {
	return fmt.Sprintf("%02d/%02d/%02d", d.Day, int(d.Month), d.Year%100)
}

// AddDays returns the date n days later (n may be negative).
func (d CalendarDate) AddDays(n int) CalendarDate {
	return NewDate(d.Year, d.Month, d.Day+n)
}

// Compare returns -1, 0 or +1.
func (d CalendarDate) Compare(o CalendarDate) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// Before reports whether d is strictly earlier than o.
func (d CalendarDate) Before(o CalendarDate) bool {
	return d.Compare(o) < 0
}

// IsZero reports whether d is the zero value.
func (d CalendarDate) IsZero() bool {
	return d == CalendarDate{}
}

// Time returns midnight of d in loc.
func (d CalendarDate) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// MarshalText implements encoding.TextMarshaler.
func (d CalendarDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *CalendarDate) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Days returns every date in the half-open window [start, end).
// Returns an empty slice when end is not after start.
func Days(start, end CalendarDate) []CalendarDate {
	days := []CalendarDate{}
	for d := start; d.Before(end); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
