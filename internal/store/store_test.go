package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/apptrecon/internal/queryir"
)

func TestFetchError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewFetchError("appointments", queryir.Query{Filter: queryir.Eq("status", "scheduled")}, cause)

	assert.Equal(t, `fetch appointments (where status = "scheduled"): connection refused`, err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("plan: %w", err)
	assert.True(t, IsFetchError(wrapped))
	assert.False(t, IsDeleteError(wrapped))
}

func TestDeleteError(t *testing.T) {
	cause := errors.New("permission denied")
	err := &DeleteError{Table: "appointments", IDs: []string{"1", "2"}, Err: cause}

	assert.Equal(t, "delete from appointments (2 ids: 1,2): permission denied", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsDeleteError(fmt.Errorf("apply: %w", err)))
}

func TestDeleteError_LongBatchSummarized(t *testing.T) {
	ids := []string{"1", "2", "3", "4", "5", "6", "7"}
	err := &DeleteError{Table: "t", IDs: ids, Err: errors.New("boom")}
	assert.Equal(t, "delete from t (7 ids: 1,2,3,4,5,... +2 more): boom", err.Error())
}
