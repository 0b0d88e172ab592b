package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/apptrecon/internal/appointment"
	"github.com/roach88/apptrecon/internal/queryir"
)

// DefaultTable is the appointment table name used when none is configured.
const DefaultTable = "appointments"

// Fetcher reads records.
type Fetcher interface {
	// FetchAll returns every record of table matching q, ordered by id
	// after any explicit ordering. Returns an empty (non-nil) slice when
	// nothing matches.
	FetchAll(ctx context.Context, table string, q queryir.Query) ([]appointment.Record, error)
}

// Deleter removes records.
type Deleter interface {
	// DeleteByIDs removes the rows whose id is in ids and returns how many
	// rows were removed. Ids that no longer exist are not an error.
	DeleteByIDs(ctx context.Context, table string, ids []string) (int64, error)
}

// Store is the full port an adapter implements.
type Store interface {
	Fetcher
	Deleter
	Close() error
}

// Writer loads records into a store. Implemented by the local adapters so
// snapshots and fixtures can be written.
type Writer interface {
	InsertRecords(ctx context.Context, table string, records []appointment.Record) (int64, error)
}

// ErrUnknownTable is wrapped by adapters when the table does not exist.
var ErrUnknownTable = errors.New("unknown table")

// FetchError reports a failed fetch with enough context to act on.
type FetchError struct {
	Table  string
	Filter string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.Table, e.Filter, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps err with the table and query that failed.
func NewFetchError(table string, q queryir.Query, err error) *FetchError {
	return &FetchError{Table: table, Filter: q.String(), Err: err}
}

// DeleteError reports a failed delete call.
type DeleteError struct {
	Table string
	IDs   []string
	Err   error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete from %s (%d ids: %s): %v", e.Table, len(e.IDs), summarizeIDs(e.IDs), e.Err)
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}

// IsFetchError returns true if err is or wraps a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsDeleteError returns true if err is or wraps a *DeleteError.
func IsDeleteError(err error) bool {
	var de *DeleteError
	return errors.As(err, &de)
}

// summarizeIDs keeps error messages readable for large batches.
func summarizeIDs(ids []string) string {
	const max = 5
	if len(ids) <= max {
		return strings.Join(ids, ",")
	}
	return strings.Join(ids[:max], ",") + fmt.Sprintf(",... +%d more", len(ids)-max)
}
