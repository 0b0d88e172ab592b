package verify

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/apptrecon/internal/appointment"
	"github.com/roach88/apptrecon/internal/datenorm"
)

var (
	// ErrEmptyWindow is returned when the window end is not after its start.
	ErrEmptyWindow = errors.New("window end must be after start")

	// ErrDetailDayOutsideWindow is returned when the detail day is not in
	// [start, end).
	ErrDetailDayOutsideWindow = errors.New("detail day outside window")
)

// LiteralMatch says which day's literal rendering a raw date contained.
type LiteralMatch string

const (
	LiteralNone     LiteralMatch = "none"
	LiteralCurrent  LiteralMatch = "current"
	LiteralPrevious LiteralMatch = "previous"
	LiteralNext     LiteralMatch = "next"
)

// Options tune a verification run.
type Options struct {
	// DetailDay, when set, gets one detail line per record.
	DetailDay datenorm.CalendarDate
}

// DayCount is the primary count for one day.
type DayCount struct {
	Day   datenorm.CalendarDate `json:"day"`
	Count int                   `json:"count"`

	// ByStrategy counts which normalizer rule accepted each record.
	ByStrategy map[string]int `json:"by_strategy,omitempty"`
}

// Detail is one record on the detail day.
type Detail struct {
	ID       string `json:"id"`
	PetID    string `json:"pet_id"`
	ClientID string `json:"client_id"`
	Status   string `json:"status"`
	Date     string `json:"date"`
}

// Unparseable is a record no strategy could place on a day.
type Unparseable struct {
	ID   string `json:"id"`
	Date string `json:"date"`
}

// Disagreement is one record the two methods place differently for a day.
type Disagreement struct {
	ID   string `json:"id"`
	Date string `json:"date"`

	// Parsed is the canonical day, or "unparseable".
	Parsed string `json:"parsed"`

	// InParsed and InSubstring say whether each method counted the record
	// on this day. Exactly one of them is true.
	InParsed    bool `json:"in_parsed"`
	InSubstring bool `json:"in_substring"`

	// Literal is the literal rendering the raw date contained, checked for
	// the current day first, then the previous and next days.
	Literal LiteralMatch `json:"literal"`
}

// Discrepancy is a data-quality warning for one day.
type Discrepancy struct {
	Day       datenorm.CalendarDate `json:"day"`
	Parsed    int                   `json:"parsed"`
	Substring int                   `json:"substring"`
	Records   []Disagreement        `json:"records"`
}

// Report is the outcome of one verification run.
type Report struct {
	Start       datenorm.CalendarDate  `json:"start"`
	End         datenorm.CalendarDate  `json:"end"`
	Days        []DayCount             `json:"days"`
	DetailDay   *datenorm.CalendarDate `json:"detail_day,omitempty"`
	Details     []Detail               `json:"details"`
	Total       int                    `json:"total"`
	Unparseable []Unparseable          `json:"unparseable"`
	Warnings    []Discrepancy          `json:"warnings"`
}

// HasWarnings reports whether any day needs an operator's attention.
func (r Report) HasWarnings() bool {
	return len(r.Warnings) > 0
}

type placed struct {
	rec appointment.Record
	day datenorm.CalendarDate
	ok  bool
}

// Verify counts records per day over [start, end).
//
// Zone-less timestamps are read in ref (UTC when nil). Never fails for
// malformed records; they end up under Unparseable. A detail day outside
// the window is rejected with ErrDetailDayOutsideWindow.
func Verify(records []appointment.Record, start, end datenorm.CalendarDate, ref *time.Location, opts Options) (Report, error) {
	if !start.Before(end) {
		return Report{}, fmt.Errorf("verify %s..%s: %w", start, end, ErrEmptyWindow)
	}
	if dd := opts.DetailDay; !dd.IsZero() && (dd.Before(start) || !dd.Before(end)) {
		return Report{}, fmt.Errorf("verify %s..%s: %w: %s", start, end, ErrDetailDayOutsideWindow, dd)
	}
	if ref == nil {
		ref = time.UTC
	}

	days := datenorm.Days(start, end)
	rep := Report{
		Start:       start,
		End:         end,
		Days:        make([]DayCount, len(days)),
		Details:     []Detail{},
		Unparseable: []Unparseable{},
		Warnings:    []Discrepancy{},
	}
	index := make(map[datenorm.CalendarDate]int, len(days))
	for i, d := range days {
		index[d] = i
		rep.Days[i] = DayCount{Day: d, ByStrategy: map[string]int{}}
	}
	if !opts.DetailDay.IsZero() {
		dd := opts.DetailDay
		rep.DetailDay = &dd
	}

	all := make([]placed, len(records))
	for i, r := range records {
		day, ok := place(r.Date, days, ref)
		all[i] = placed{rec: r, day: day, ok: ok}
		if !ok {
			rep.Unparseable = append(rep.Unparseable, Unparseable{ID: r.ID, Date: r.Date})
			continue
		}
		j, in := index[day]
		if !in {
			continue
		}
		rep.Days[j].Count++
		rep.Days[j].ByStrategy[datenorm.Match(r.Date, day, ref).String()]++
		rep.Total++
		if rep.DetailDay != nil && day == *rep.DetailDay {
			rep.Details = append(rep.Details, Detail{
				ID:       r.ID,
				PetID:    appointment.Value(r.PetID),
				ClientID: appointment.Value(r.ClientID),
				Status:   r.Status,
				Date:     r.Date,
			})
		}
	}

	for _, dc := range rep.Days {
		if d, ok := crossCheck(all, dc); ok {
			rep.Warnings = append(rep.Warnings, d)
		}
	}
	return rep, nil
}

// place finds the day a raw date falls on. A date no parser understands
// still counts on the first window day whose literal rendering it
// contains; it is unparseable only when every strategy fails.
func place(raw string, days []datenorm.CalendarDate, ref *time.Location) (datenorm.CalendarDate, bool) {
	if day, ok := datenorm.CanonicalDay(raw, ref); ok {
		return day, true
	}
	for _, d := range days {
		if datenorm.ContainsLiteral(raw, d) {
			return d, true
		}
	}
	return datenorm.CalendarDate{}, false
}

// crossCheck recounts one day by literal substring and lists every record
// the two methods disagree on. Reports false when they agree.
func crossCheck(all []placed, dc DayCount) (Discrepancy, bool) {
	d := Discrepancy{Day: dc.Day, Parsed: dc.Count, Records: []Disagreement{}}
	for _, p := range all {
		inSubstring := datenorm.ContainsLiteral(p.rec.Date, dc.Day)
		if inSubstring {
			d.Substring++
		}
		inParsed := p.ok && p.day == dc.Day
		if inParsed == inSubstring {
			continue
		}
		parsed := "unparseable"
		if p.ok {
			parsed = p.day.String()
		}
		d.Records = append(d.Records, Disagreement{
			ID:          p.rec.ID,
			Date:        p.rec.Date,
			Parsed:      parsed,
			InParsed:    inParsed,
			InSubstring: inSubstring,
			Literal:     literalMatch(p.rec.Date, dc.Day),
		})
	}
	return d, len(d.Records) > 0
}

func literalMatch(raw string, day datenorm.CalendarDate) LiteralMatch {
	switch {
	case datenorm.ContainsLiteral(raw, day):
		return LiteralCurrent
	case datenorm.ContainsLiteral(raw, day.AddDays(-1)):
		return LiteralPrevious
	case datenorm.ContainsLiteral(raw, day.AddDays(1)):
		return LiteralNext
	default:
		return LiteralNone
	}
}
