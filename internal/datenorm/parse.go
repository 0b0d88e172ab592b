package datenorm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"golang.org/x/text/unicode/norm"
)

// Layouts carrying an explicit zone. Fractional seconds are accepted by
// time.Parse after the seconds field even though the layouts omit them.
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05Z07",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05Z07",
	"2006-01-02T15:04Z07:00",
}

// Layouts without zone information; interpreted in the reference zone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Formats handed to the general parser. Each one carries a full year,
// month and day, and any time of day comes last: the parser fills parts it
// considers missing from the wall clock, which would tie the result to the
// moment of the run.
var fallbackFormats = []string{
	"2 Jan 2006",
	"2 January 2006",
	"2 Jan 2006 15:04",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Jan 2, 2006 15:04",
	"Mon, 2 Jan 2006",
	"Mon Jan 2 2006",
	"02-01-2006",
	"02-01-2006 15:04",
	"2006.01.02",
	"02.01.2006",
	"2006/01/02",
	"2006/01/02 15:04:05",
}

var (
	isoDateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dayFirstRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})(?:[ T,].*)?$`)

	// Dates embedded in free text ("agendado 2025-12-20", "Sáb 20/12/2025").
	// The digit guards keep "12025-12-201" from yielding a date.
	embeddedISORe      = regexp.MustCompile(`(?:^|[^\d])(\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2}(?:\.\d+)?)?(?:Z|[+-]\d{2}(?::?\d{2})?)?)?)(?:[^\d]|$)`)
	embeddedDayFirstRe = regexp.MustCompile(`(?:^|[^\d/])(\d{1,2}/\d{1,2}/(?:\d{4}|\d{2}))(?:[^\d/]|$)`)
)

// Clean applies NFKC normalisation and trims surrounding whitespace.
// NFKC folds full-width digits and slashes into their ASCII forms.
func Clean(raw string) string {
	return strings.TrimSpace(norm.NFKC.String(raw))
}

// ParseTimestamp parses an instant. Zone-less inputs are located in ref;
// date-only inputs resolve to midnight in ref. ref defaults to UTC.
func ParseTimestamp(raw string, ref *time.Location) (time.Time, bool) {
	if ref == nil {
		ref = time.UTC
	}
	s := Clean(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, ref); err == nil {
			return t, true
		}
	}
	if isoDateRe.MatchString(s) {
		if t, err := time.ParseInLocation(time.DateOnly, s, ref); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CanonicalDay extracts the calendar day a raw date refers to.
//
// Resolution order:
//   - timestamps with an explicit zone: the UTC day of the instant
//   - zone-less timestamps: located in ref, then the UTC day of the instant
//   - YYYY-MM-DD: that day
//   - DD/MM/YYYY and DD/MM/YY (optionally followed by a time): that day
//   - the first of the above embedded in surrounding text
//   - anything the general parser understands with a full date, located
//     in ref; results without a time of day stay on their calendar day
//
// Returns false when nothing matches. The result never depends on the
// current time: inputs without a year, month and day are unparseable.
func CanonicalDay(raw string, ref *time.Location) (CalendarDate, bool) {
	if ref == nil {
		ref = time.UTC
	}
	s := Clean(raw)
	if s == "" {
		return CalendarDate{}, false
	}

	if d, ok := exactDay(s, ref); ok {
		return d, true
	}
	if isoDateRe.MatchString(s) {
		return CalendarDate{}, false
	}
	if d, ok := embeddedDay(s, ref); ok {
		return d, true
	}
	return fallbackDay(s, ref)
}

func exactDay(s string, ref *time.Location) (CalendarDate, bool) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t.UTC()), true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, ref); err == nil {
			return FromTime(t.UTC()), true
		}
	}
	if isoDateRe.MatchString(s) {
		d, err := ParseDate(s)
		return d, err == nil
	}
	return parseDayFirst(s)
}

// embeddedDay resolves the first ISO or day-first date found inside s.
func embeddedDay(s string, ref *time.Location) (CalendarDate, bool) {
	for _, re := range []*regexp.Regexp{embeddedISORe, embeddedDayFirstRe} {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if d, ok := exactDay(m[1], ref); ok {
			return d, true
		}
		// A malformed time after an ISO date still leaves the date.
		if re == embeddedISORe && len(m[1]) > len(time.DateOnly) {
			if d, ok := exactDay(m[1][:len(time.DateOnly)], ref); ok {
				return d, true
			}
		}
	}
	return CalendarDate{}, false
}

func fallbackDay(s string, ref *time.Location) (CalendarDate, bool) {
	cfg := &now.Config{
		TimeLocation: ref,
		TimeFormats:  fallbackFormats,
	}
	t, err := cfg.Parse(s)
	if err != nil {
		return CalendarDate{}, false
	}
	// Midnight means the input carried no time of day: keep it as a
	// calendar day instead of shifting it into UTC.
	if h, m, sec := t.Clock(); h == 0 && m == 0 && sec == 0 && t.Nanosecond() == 0 {
		return FromTime(t), true
	}
	return FromTime(t.UTC()), true
}

// parseDayFirst handles DD/MM/YYYY and DD/MM/YY. Two-digit years map to 20YY.
// Impossible dates (31/02/2025) are rejected rather than normalised.
func parseDayFirst(s string) (CalendarDate, bool) {
	m := dayFirstRe.FindStringSubmatch(s)
	if m == nil {
		return CalendarDate{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 {
		return CalendarDate{}, false
	}
	d := NewDate(year, time.Month(month), day)
	if d.Day != day || int(d.Month) != month {
		return CalendarDate{}, false
	}
	return d, true
}

// ParseZone resolves a reference zone from either a fixed offset
// ("-03:00", "+0530", "Z") or an IANA name ("America/Sao_Paulo").
// An empty string yields UTC.
func ParseZone(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "Z", "UTC", "utc":
		return time.UTC, nil
	}
	if s[0] == '+' || s[0] == '-' {
		for _, layout := range []string{"-07:00", "-0700", "-07"} {
			if t, err := time.Parse(layout, s); err == nil {
				_, offset := t.Zone()
				return time.FixedZone(s, offset), nil
			}
		}
		return nil, fmt.Errorf("invalid offset %q", s)
	}
	loc, err := time.LoadLocation(s)
	if err != nil {
		return nil, fmt.Errorf("invalid zone %q: %w", s, err)
	}
	return loc, nil
}
