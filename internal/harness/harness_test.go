package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "scenario name must match its file")

			result := RunWithGolden(t, scenario)
			assert.True(t, result.Pass)
		})
	}
}

func mustParse(t *testing.T, yaml string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(yaml))
	require.NoError(t, err)
	return s
}

func TestRun_UnexpectedErrorStopsRun(t *testing.T) {
	s := mustParse(t, `
name: unconfirmed
records:
  - { id: r1, client_id: A, pet_id: B, service_id: C, date: "2025-12-20", created_at: "2025-12-19T09:00:00Z" }
  - { id: r2, client_id: A, pet_id: B, service_id: C, date: "2025-12-20", created_at: "2025-12-19T10:00:00Z" }
steps:
  - apply: { confirm: false }
  - plan: {}
assertions:
  - type: remaining
    ids: [r1, r2]
`)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Trace, 1, "steps after a failure are skipped")
	assert.Contains(t, result.Errors[0], "step 1 (apply)")
	assert.Contains(t, result.Trace[0].Error, "not confirmed")
	assert.Equal(t, []string{"r1", "r2"}, result.Remaining)
	assert.Nil(t, result.LastPlan)
}

func TestRun_ExpectedErrorThatNeverHappens(t *testing.T) {
	s := mustParse(t, `
name: no_error
records:
  - { id: r1, client_id: A, pet_id: B, service_id: C, date: "2025-12-20" }
steps:
  - apply: { confirm: false }
    expect_error: not_confirmed
assertions:
  - type: remaining
    ids: [r1]
`)

	result, err := Run(s)
	require.NoError(t, err)

	// An empty plan is a no-op even without confirmation.
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected not_confirmed error, step succeeded")
	assert.Equal(t, "Nothing to delete.\n", result.Trace[0].Output)
}

func TestRun_FingerprintFromPlanNeedsPlanStep(t *testing.T) {
	s := mustParse(t, `
name: no_plan
records:
  - { id: r1, client_id: A, pet_id: B, service_id: C, date: "2025-12-20" }
steps:
  - apply: { confirm: true, fingerprint: plan }
assertions:
  - type: remaining
    ids: [r1]
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "needs an earlier plan step")
}

func TestRun_StatusFilteredPlan(t *testing.T) {
	s := mustParse(t, `
name: status_filter
records:
  - { id: r1, client_id: A, pet_id: B, service_id: C, date: "2025-12-20", created_at: "2025-12-19T09:00:00Z", status: cancelled }
  - { id: r2, client_id: A, pet_id: B, service_id: C, date: "2025-12-20", created_at: "2025-12-19T10:00:00Z" }
  - { id: r3, client_id: A, pet_id: B, service_id: C, date: "2025-12-20", created_at: "2025-12-19T11:00:00Z" }
steps:
  - plan: { status: scheduled }
  - apply: { confirm: true, fingerprint: plan, status: scheduled }
assertions:
  - type: survivors
    ids: [r2]
  - type: remaining
    ids: [r1, r2]
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, int64(1), result.Deleted)
}

func TestRun_CustomTable(t *testing.T) {
	s := mustParse(t, `
name: custom_table
table: visits
records:
  - { id: v1, client_id: A, pet_id: B, service_id: C, date: "2025-12-20", created_at: "2025-12-19T09:00:00Z" }
  - { id: v2, client_id: A, pet_id: B, service_id: C, date: "2025-12-20", created_at: "2025-12-19T10:00:00Z" }
steps:
  - plan: {}
assertions:
  - type: to_delete
    ids: [v2]
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, "visits", result.LastPlan.Table)
}
