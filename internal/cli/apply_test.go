package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apptrecon/internal/appointment"
	"github.com/roach88/apptrecon/internal/executor"
	"github.com/roach88/apptrecon/internal/reconcile"
	"github.com/roach88/apptrecon/internal/store/sqlite"
	"github.com/roach88/apptrecon/internal/testutil"
)

var fixtureFingerprint = reconcile.Fingerprint("appointments", []string{"r1", "r3"})

func TestApply_RefusesWithoutConfirm(t *testing.T) {
	path := seedDB(t, duplicateFixture()...)

	out, _, err := execute(NewApplyCommand(testOptions(path)), "--fingerprint", fixtureFingerprint)
	require.Error(t, err)
	assert.ErrorIs(t, err, executor.ErrNotConfirmed)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "--confirm --fingerprint "+fixtureFingerprint)

	// The report is still shown for review.
	assert.Contains(t, out, "Total records to delete: 2\n")
	assert.Equal(t, []string{"r1", "r2", "r3", "r4"}, storedIDs(t, path))
}

func TestApply_DeletesWithMatchingFingerprint(t *testing.T) {
	path := seedDB(t, duplicateFixture()...)

	out, stderr, err := execute(NewApplyCommand(testOptions(path)), "--confirm", "--fingerprint", fixtureFingerprint)
	require.NoError(t, err)

	assert.Contains(t, out, "Deleted 2 of 2 records in 1 batches\n")
	assert.Contains(t, stderr, `"event":"apply.completed"`)
	assert.Equal(t, []string{"r2", "r4"}, storedIDs(t, path))
}

func TestApply_WrongFingerprint(t *testing.T) {
	path := seedDB(t, duplicateFixture()...)

	_, _, err := execute(NewApplyCommand(testOptions(path)), "--confirm", "--fingerprint", "deadbeef")
	require.Error(t, err)
	assert.ErrorIs(t, err, executor.ErrFingerprintMismatch)
	assert.Equal(t, []string{"r1", "r2", "r3", "r4"}, storedIDs(t, path))
}

func TestApply_DataChangedSinceReview(t *testing.T) {
	path := seedDB(t, duplicateFixture()...)
	planPath := filepath.Join(t.TempDir(), "plan.json")

	_, _, err := execute(NewPlanCommand(testOptions(path)), "--out", planPath)
	require.NoError(t, err)

	// A new duplicate arrives between review and apply.
	st, err := sqlite.Open(path)
	require.NoError(t, err)
	_, err = st.InsertRecords(context.Background(), "appointments", []appointment.Record{
		testutil.Appt("r5", "A", "B", "2025-12-20", "C", "2025-12-19T12:00:00Z"),
	})
	require.NoError(t, err)
	st.Close()

	_, _, err = execute(NewApplyCommand(testOptions(path)), "--confirm", "--plan", planPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, executor.ErrFingerprintMismatch)
	assert.Len(t, storedIDs(t, path), 5)
}

func TestApply_FromPlanFile(t *testing.T) {
	path := seedDB(t, duplicateFixture()...)
	planPath := filepath.Join(t.TempDir(), "plan.json")

	_, _, err := execute(NewPlanCommand(testOptions(path)), "--out", planPath)
	require.NoError(t, err)

	_, _, err = execute(NewApplyCommand(testOptions(path)), "--confirm", "--plan", planPath, "--batch-size", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r2", "r4"}, storedIDs(t, path))
}

func TestApply_PlanFileAndFingerprintDisagree(t *testing.T) {
	path := seedDB(t, duplicateFixture()...)
	planPath := filepath.Join(t.TempDir(), "plan.json")

	_, _, err := execute(NewPlanCommand(testOptions(path)), "--out", planPath)
	require.NoError(t, err)

	_, _, err = execute(NewApplyCommand(testOptions(path)), "--confirm", "--plan", planPath, "--fingerprint", "deadbeef")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disagree")
}

func TestApply_NothingToDelete(t *testing.T) {
	path := seedDB(t, duplicateFixture()[3])

	out, _, err := execute(NewApplyCommand(testOptions(path)))
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to delete.\n")
}
