package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/apptrecon/internal/identity"
	"github.com/roach88/apptrecon/internal/testutil"
)

func reportFixture() Plan {
	return Build(snapshot(
		testutil.Appt("1", "A", "B", "2025-12-20", "C", "2025-12-01T10:00:00Z"),
		testutil.Appt("2", "A", "B", "2025-12-20", "C", "2025-12-01T11:00:00Z"),
		testutil.Appt("3", "A", "B", "2025-12-20", "C", ""),
		testutil.Appt("4", "X", "", "19/12/2025", "S", "2025-12-02T09:30:00Z"),
		testutil.Appt("5", "X", "", "19/12/2025", "S", "2025-12-02T08:15:00Z"),
		testutil.Appt("6", "Q", "R", "2025-12-21", "S", "2025-12-03T10:00:00Z"),
	), identity.Builder{})
}

func TestWriteReport_Golden(t *testing.T) {
	// To regenerate: go test ./internal/reconcile -run TestWriteReport_Golden -update
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "reconciliation_report", []byte(Report(reportFixture())))
}

func TestWriteReport_NoDuplicatesGolden(t *testing.T) {
	plan := Build(snapshot(
		testutil.Appt("1", "A", "B", "2025-12-20", "C", "2025-12-01T10:00:00Z"),
	), identity.Builder{})

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "reconciliation_report_empty", []byte(Report(plan)))
}

func TestReport_Idempotent(t *testing.T) {
	plan := reportFixture()
	assert.Equal(t, Report(plan), Report(plan))
}

func TestReport_Counts(t *testing.T) {
	out := Report(reportFixture())
	assert.Contains(t, out, "Total appointments: 6\n")
	assert.Contains(t, out, "Found 2 groups with duplicates\n")
	assert.Contains(t, out, "Total records to delete: 3\n")
	assert.Contains(t, out, "  Deleting ID: 3 (Created: unknown)\n")
}

func TestNewView_JSON(t *testing.T) {
	view := NewView(reportFixture())

	assert.Equal(t, 2, view.GroupsWithDuplicates)
	assert.Equal(t, 3, view.TotalToDelete)
	assert.Equal(t, "literal", view.KeyPolicy)

	b, err := json.Marshal(view)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "appointments", decoded["table"])
	assert.Equal(t, []any{"2", "3", "4"}, decoded["to_delete"])

	groups := decoded["groups"].([]any)
	require.Len(t, groups, 2)
	first := groups[0].(map[string]any)
	assert.Equal(t, "A|B|2025-12-20|C", first["key"])
	assert.Equal(t, map[string]any{"id": "1", "created_at": "2025-12-01T10:00:00Z"}, first["survivor"])
}
