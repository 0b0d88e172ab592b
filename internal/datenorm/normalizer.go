package datenorm

import (
	"strings"
	"time"
)

// Strategy identifies which matching rule accepted a raw date.
type Strategy int

const (
	// StrategyNone means no rule matched.
	StrategyNone Strategy = iota
	// StrategyISODate matched the YYYY-MM-DD rendering as a substring.
	StrategyISODate
	// StrategyDayMonthYear matched the DD/MM/YYYY rendering as a substring.
	StrategyDayMonthYear
	// StrategyDayMonthShortYear matched the DD/MM/YY rendering as a substring.
	StrategyDayMonthShortYear
	// StrategyParsed matched after parsing the raw value.
	StrategyParsed
)

func (s Strategy) String() string {
	switch s {
	case StrategyISODate:
		return "iso-date"
	case StrategyDayMonthYear:
		return "dd/mm/yyyy"
	case StrategyDayMonthShortYear:
		return "dd/mm/yy"
	case StrategyParsed:
		return "parsed"
	default:
		return "none"
	}
}

// Literals returns the three textual renderings of d, in match priority order.
func Literals(d CalendarDate) [3]string {
	return [3]string{d.String(), d.DayMonthYear(), d.DayMonthShortYear()}
}

// ContainsLiteral reports whether raw contains one of the renderings of d.
func ContainsLiteral(raw string, d CalendarDate) bool {
	return literalStrategy(Clean(raw), d) != StrategyNone
}

// Match runs the strategies in fixed priority order and returns the first
// one that accepts raw as falling on day. The substring rules come first so
// that day-first local strings are never reinterpreted month-first.
func Match(raw string, day CalendarDate, ref *time.Location) Strategy {
	s := Clean(raw)
	if s == "" {
		return StrategyNone
	}
	if st := literalStrategy(s, day); st != StrategyNone {
		return st
	}
	if got, ok := CanonicalDay(s, ref); ok && got == day {
		return StrategyParsed
	}
	return StrategyNone
}

// MatchesDay reports whether raw falls on day under any strategy.
func MatchesDay(raw string, day CalendarDate, ref *time.Location) bool {
	return Match(raw, day, ref) != StrategyNone
}

func literalStrategy(s string, d CalendarDate) Strategy {
	lits := Literals(d)
	switch {
	case strings.Contains(s, lits[0]):
		return StrategyISODate
	case strings.Contains(s, lits[1]):
		return StrategyDayMonthYear
	case strings.Contains(s, lits[2]):
		return StrategyDayMonthShortYear
	default:
		return StrategyNone
	}
}
