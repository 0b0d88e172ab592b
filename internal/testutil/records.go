package testutil

import (
	"github.com/roach88/apptrecon/internal/appointment"
)

// Appt builds an appointment record for tests.
// Empty client, pet or service values become absent (nil) fields.
func Appt(id, client, pet, date, service, created string) appointment.Record {
	return appointment.Record{
		ID:        id,
		ClientID:  opt(client),
		PetID:     opt(pet),
		ServiceID: opt(service),
		Date:      date,
		CreatedAt: created,
		Status:    "scheduled",
	}
}

// WithStatus returns a copy of r with its status replaced.
func WithStatus(r appointment.Record, status string) appointment.Record {
	r.Status = status
	return r
}

func opt(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
