package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/apptrecon/internal/queryir"
	"github.com/roach88/apptrecon/internal/store"
)

func queryirAll() queryir.Query { return queryir.Query{} }

func TestNilPool(t *testing.T) {
	s := &Store{}
	_, err := s.FetchAll(context.Background(), "appointments", queryirAll())
	assert.True(t, store.IsFetchError(err))

	_, err = s.DeleteByIDs(context.Background(), "appointments", []string{"1"})
	assert.True(t, store.IsDeleteError(err))
}

func TestDeleteByIDs_EmptyIsNoop(t *testing.T) {
	s := &Store{}
	n, err := s.DeleteByIDs(context.Background(), "appointments", nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestClassify(t *testing.T) {
	missing := &pgconn.PgError{Code: UndefinedTableCode, Message: `relation "x" does not exist`}
	assert.ErrorIs(t, classify(missing), store.ErrUnknownTable)

	other := errors.New("timeout")
	assert.Equal(t, other, classify(other))
}
