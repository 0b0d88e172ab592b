// Package identity derives the duplicate-grouping key of an appointment.
package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/apptrecon/internal/appointment"
	"github.com/roach88/apptrecon/internal/datenorm"
)

// AbsentToken stands in for a missing identity field.
// It matches how the original cleanup job stringified missing values, so a
// client id literally stored as "undefined" collides with a missing one.
const AbsentToken = "undefined"

// Separator joins the identity fields of a key.
const Separator = "|"

// Key is the rendered identity tuple (clientId, petId, date, serviceId).
type Key string

// Policy decides how absent identity fields take part in grouping.
type Policy string

const (
	// PolicyLiteral renders absent fields as AbsentToken, so two records
	// missing the same field still group when everything else matches.
	PolicyLiteral Policy = "literal"

	// PolicyStrict never groups a record with an absent identity field:
	// its key is unique to its id.
	PolicyStrict Policy = "strict"
)

// ParsePolicy validates a policy name. Empty selects PolicyLiteral.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyLiteral:
		return PolicyLiteral, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown key policy %q (want %q or %q)", s, PolicyLiteral, PolicyStrict)
	}
}

// Builder renders identity keys. The zero value uses PolicyLiteral and the
// raw date text.
type Builder struct {
	Policy Policy

	// NormalizeDates renders the date as its canonical YYYY-MM-DD day when
	// one can be derived, so "20/12/2025" and "2025-12-20" group together.
	NormalizeDates bool

	// Reference resolves zone-less timestamps when NormalizeDates is set.
	Reference *time.Location
}

// Build returns the key of r. It is total and pure.
func (b Builder) Build(r appointment.Record) Key {
	date := r.Date
	if b.NormalizeDates {
		if d, ok := datenorm.CanonicalDay(r.Date, b.Reference); ok {
			date = d.String()
		}
	}
	var datePtr *string
	if date != "" {
		datePtr = &date
	}

	fields := []*string{r.ClientID, r.PetID, datePtr, r.ServiceID}

	if b.Policy == PolicyStrict {
		for _, f := range fields {
			if f == nil {
				return Key("!unmatched:" + r.ID)
			}
		}
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		if f == nil {
			parts[i] = AbsentToken
			continue
		}
		parts[i] = *f
	}
	return Key(strings.Join(parts, Separator))
}
