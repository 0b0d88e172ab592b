package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apptrecon/internal/appointment"
	"github.com/roach88/apptrecon/internal/store"
	"github.com/roach88/apptrecon/internal/store/contracttest"
)

// DSNEnv names the database used by the Postgres contract test.
const DSNEnv = "APPTRECON_TEST_DSN"

const createTable = `
CREATE TABLE %s (
    id TEXT PRIMARY KEY,
    client_id TEXT,
    pet_id TEXT,
    service_id TEXT,
    date TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT '',
    payment_method TEXT,
    paid_amount NUMERIC(10, 2),
    payment_status TEXT
)`

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skipf("%s not set; skipping Postgres contract test", DSNEnv)
	}
	s, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestContract_PostgresStore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	contracttest.RunStore(t, func(t *testing.T, seed []appointment.Record) (store.Store, string, func()) {
		t.Helper()
		table := "appointments_" + uuid.NewString()[:8]
		_, err := s.pool.Exec(ctx, fmt.Sprintf(createTable, table))
		require.NoError(t, err)
		_, err = s.InsertRecords(ctx, table, seed)
		require.NoError(t, err)
		return s, table, func() {
			_, _ = s.pool.Exec(ctx, "DROP TABLE IF EXISTS "+table)
		}
	})
}

func TestFetchAll_UnknownTable(t *testing.T) {
	s := openTestStore(t)
	_, err := s.FetchAll(context.Background(), "appointments_missing", queryirAll())
	require.Error(t, err)
	require.ErrorIs(t, err, store.ErrUnknownTable)
}
