package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apptrecon/internal/appointment"
	"github.com/roach88/apptrecon/internal/queryir"
	"github.com/roach88/apptrecon/internal/store/sqlite"
	"github.com/roach88/apptrecon/internal/testutil"
)

const testRunID = "run-test"

func noEnv(string) (string, bool) { return "", false }

// seedDB writes records to a fresh SQLite file and returns its path.
func seedDB(t *testing.T, records ...appointment.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appointments.db")
	st, err := sqlite.Open(path)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.EnsureTable(context.Background(), "appointments"))
	_, err = st.InsertRecords(context.Background(), "appointments", records)
	require.NoError(t, err)
	return path
}

// storedIDs returns the ids left in the SQLite file.
func storedIDs(t *testing.T, path string) []string {
	t.Helper()
	st, err := sqlite.Open(path)
	require.NoError(t, err)
	defer st.Close()

	records, err := st.FetchAll(context.Background(), "appointments", queryir.Query{})
	require.NoError(t, err)
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

// testOptions points the CLI at a SQLite file with a pinned clock and run id.
func testOptions(dsn string) *RootOptions {
	clock := testutil.NewClock(testutil.Epoch)
	return &RootOptions{
		Format:    "text",
		Driver:    "sqlite",
		DSN:       dsn,
		Now:       clock.Now,
		RunID:     testutil.FixedRunID(testRunID),
		LookupEnv: noEnv,
	}
}

func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// duplicateFixture has one group of three and one singleton. r2 is oldest.
func duplicateFixture() []appointment.Record {
	return []appointment.Record{
		testutil.Appt("r1", "A", "B", "2025-12-20", "C", "2025-12-19T10:00:00Z"),
		testutil.Appt("r2", "A", "B", "2025-12-20", "C", "2025-12-19T09:00:00Z"),
		testutil.Appt("r3", "A", "B", "2025-12-20", "C", "2025-12-19T11:00:00Z"),
		testutil.Appt("r4", "X", "Y", "2025-12-21", "Z", "2025-12-19T08:00:00Z"),
	}
}
