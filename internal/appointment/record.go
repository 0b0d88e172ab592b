// Package appointment defines the appointment record read from the store.
//
// Records are snapshots: the engine never mutates them, it only reads the
// identity fields and the creation timestamp. Business fields such as
// payment data are carried through so reports and snapshots stay lossless.
package appointment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/apptrecon/internal/datenorm"
)

// Record is one appointment row.
//
// ClientID, PetID and ServiceID are optional references; nil means the
// store returned no value. Date and CreatedAt are kept as the raw text the
// store returned because upstream clients wrote several encodings.
type Record struct {
	ID        string  `json:"id"`
	ClientID  *string `json:"client_id"`
	PetID     *string `json:"pet_id"`
	ServiceID *string `json:"service_id"`
	Date      string  `json:"date"`
	CreatedAt string  `json:"created_at"`

	Status        string              `json:"status,omitempty"`
	PaymentMethod *string             `json:"payment_method,omitempty"`
	PaidAmount    decimal.NullDecimal `json:"paid_amount"`
	PaymentStatus *string             `json:"payment_status,omitempty"`
}

// Columns lists the store columns in the order adapters select them.
var Columns = []string{
	"id",
	"client_id",
	"pet_id",
	"service_id",
	"date",
	"created_at",
	"status",
	"payment_method",
	"paid_amount",
	"payment_status",
}

// CreatedTime parses CreatedAt.
// Zone-less timestamps are read as UTC, which is how the store writes them.
// Returns false when CreatedAt is empty or unparseable.
func (r Record) CreatedTime() (time.Time, bool) {
	if r.CreatedAt == "" {
		return time.Time{}, false
	}
	return datenorm.ParseTimestamp(r.CreatedAt, time.UTC)
}

// Value returns the dereferenced optional field, or "" when absent.
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Ptr returns a pointer to s. Handy for building records in code.
func Ptr(s string) *string {
	return &s
}
