// Package contracttest holds the behavioural contract every store adapter
// must satisfy. Adapter packages call RunStore from their own tests.
package contracttest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apptrecon/internal/appointment"
	"github.com/roach88/apptrecon/internal/queryir"
	"github.com/roach88/apptrecon/internal/store"
	"github.com/roach88/apptrecon/internal/testutil"
)

// CleanupFunc releases whatever a factory allocated.
type CleanupFunc = func()

// StoreFactory returns a store whose table holds exactly seed.
// The returned table name is what the contract queries.
type StoreFactory func(t *testing.T, seed []appointment.Record) (s store.Store, table string, cleanup CleanupFunc)

// Seed is the fixture every contract run starts from. Ids are chosen so
// that byte order and insertion order differ.
func Seed() []appointment.Record {
	return []appointment.Record{
		testutil.Appt("c", "A", "B", "2025-12-20", "C", "2025-12-19T10:00:00Z"),
		testutil.Appt("a", "A", "B", "2025-12-20", "C", "2025-12-19T09:00:00Z"),
		testutil.WithStatus(testutil.Appt("b", "A", "", "2025-12-21", "C", "2025-12-19T11:00:00Z"), "cancelled"),
		testutil.Appt("d", "X", "Y", "19/12/2025", "", ""),
	}
}

// RunStore exercises fetch and delete semantics against newStore.
func RunStore(t *testing.T, newStore StoreFactory) {
	t.Helper()
	ctx := context.Background()

	t.Run("fetch all is ordered by id", func(t *testing.T) {
		s, table, cleanup := newStore(t, Seed())
		if cleanup != nil {
			t.Cleanup(cleanup)
		}

		got, err := s.FetchAll(ctx, table, queryir.Query{})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d"}, ids(got))
	})

	t.Run("fetch preserves absent fields", func(t *testing.T) {
		s, table, cleanup := newStore(t, Seed())
		if cleanup != nil {
			t.Cleanup(cleanup)
		}

		got, err := s.FetchAll(ctx, table, queryir.Query{Filter: queryir.Eq("id", "b")})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Nil(t, got[0].PetID)
		require.NotNil(t, got[0].ClientID)
		assert.Equal(t, "A", *got[0].ClientID)
		assert.Equal(t, "cancelled", got[0].Status)
	})

	t.Run("fetch filters", func(t *testing.T) {
		s, table, cleanup := newStore(t, Seed())
		if cleanup != nil {
			t.Cleanup(cleanup)
		}

		got, err := s.FetchAll(ctx, table, queryir.Query{
			Filter: queryir.All(queryir.Eq("status", "scheduled"), queryir.Gte("date", "2025-12-20")),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c"}, ids(got))

		got, err = s.FetchAll(ctx, table, queryir.Query{Filter: queryir.IsNull{Field: "pet_id"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, ids(got))

		got, err = s.FetchAll(ctx, table, queryir.Query{Filter: queryir.Eq("status", "nope")})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("fetch honours limit after ordering", func(t *testing.T) {
		s, table, cleanup := newStore(t, Seed())
		if cleanup != nil {
			t.Cleanup(cleanup)
		}

		got, err := s.FetchAll(ctx, table, queryir.Query{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(got))
	})

	t.Run("fetch rejects unknown columns", func(t *testing.T) {
		s, table, cleanup := newStore(t, Seed())
		if cleanup != nil {
			t.Cleanup(cleanup)
		}

		_, err := s.FetchAll(ctx, table, queryir.Query{Filter: queryir.Eq("owner", "x")})
		require.Error(t, err)
		assert.True(t, store.IsFetchError(err))
	})

	t.Run("delete counts only existing ids", func(t *testing.T) {
		s, table, cleanup := newStore(t, Seed())
		if cleanup != nil {
			t.Cleanup(cleanup)
		}

		n, err := s.DeleteByIDs(ctx, table, []string{"c", "missing"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := s.FetchAll(ctx, table, queryir.Query{})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "d"}, ids(got))

		// Deleting again is not an error.
		n, err = s.DeleteByIDs(ctx, table, []string{"c"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("delete with no ids is a no-op", func(t *testing.T) {
		s, table, cleanup := newStore(t, Seed())
		if cleanup != nil {
			t.Cleanup(cleanup)
		}

		n, err := s.DeleteByIDs(ctx, table, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})
}

func ids(records []appointment.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
