package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfirmed is returned when Apply is called without confirmation.
	ErrNotConfirmed = errors.New("deletion not confirmed")

	// ErrFingerprintMismatch is returned when the confirmed fingerprint does
	// not match the plan being applied.
	ErrFingerprintMismatch = errors.New("plan fingerprint mismatch")
)

// DeletionError reports the batch that failed.
type DeletionError struct {
	Table string

	// Batch is the 0-based index of the failed batch.
	Batch int

	// IDs are the ids of the failed batch.
	IDs []string

	// Deleted counts rows removed by batches before the failure.
	Deleted int64

	Err error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("delete batch %d from %s (%d ids, %d rows already removed): %v",
		e.Batch, e.Table, len(e.IDs), e.Deleted, e.Err)
}

func (e *DeletionError) Unwrap() error {
	return e.Err
}

// IsDeletionError returns true if err is or wraps a *DeletionError.
func IsDeletionError(err error) bool {
	var de *DeletionError
	return errors.As(err, &de)
}
