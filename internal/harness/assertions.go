package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/apptrecon/internal/datenorm"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nSteps:\n")
	for _, event := range e.Trace {
		if event.Error != "" {
			fmt.Fprintf(&buf, "  [%d] %s (error: %s)\n", event.Step, event.Kind, event.Error)
			continue
		}
		fmt.Fprintf(&buf, "  [%d] %s\n", event.Step, event.Kind)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and returns
// a message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertRemaining:
			err = assertIDs(result, a, result.Remaining)
		case AssertToDelete, AssertSurvivors:
			if result.LastPlan == nil {
				err = fmt.Errorf("assertion[%d]: %s needs a plan step", i, a.Type)
				break
			}
			ids := result.LastPlan.ToDelete
			if a.Type == AssertSurvivors {
				ids = result.LastPlan.Survivors
			}
			err = assertIDs(result, a, ids)
		case AssertDeleted:
			err = assertCount(result, a, int(result.Deleted))
		case AssertDayCount, AssertWarnings, AssertUnparseable:
			if result.LastReport == nil {
				err = fmt.Errorf("assertion[%d]: %s needs a verify step", i, a.Type)
				break
			}
			err = assertReport(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// assertIDs compares id sets; order does not matter.
func assertIDs(result *Result, a Assertion, actual []string) error {
	want := sortedCopy(a.IDs)
	got := sortedCopy(actual)
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    result.Trace,
	}
}

func assertCount(result *Result, a Assertion, actual int) error {
	if actual == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d", a.Count),
		Actual:   fmt.Sprintf("%d", actual),
		Trace:    result.Trace,
	}
}

func assertReport(result *Result, a Assertion) error {
	rep := result.LastReport
	switch a.Type {
	case AssertWarnings:
		return assertCount(result, a, len(rep.Warnings))
	case AssertUnparseable:
		ids := make([]string, len(rep.Unparseable))
		for i, u := range rep.Unparseable {
			ids[i] = u.ID
		}
		return assertIDs(result, a, ids)
	}

	day, err := datenorm.ParseDate(a.Day)
	if err != nil {
		return err
	}
	for _, dc := range rep.Days {
		if dc.Day == day {
			return assertCount(result, a, dc.Count)
		}
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s: %d", a.Day, a.Count),
		Actual:   fmt.Sprintf("%s outside the verified window", a.Day),
		Trace:    result.Trace,
	}
}

func sortedCopy(ids []string) []string {
	out := append([]string{}, ids...)
	sort.Strings(out)
	return out
}
