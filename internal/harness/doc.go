// Package harness runs reconciliation scenarios end to end.
//
// A scenario seeds an in-memory appointment table, runs a sequence of
// plan, apply, insert and verify steps against it, and checks assertions
// on the final table and on the last plan and report produced.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: literal_duplicates
//	description: "Oldest record of each group survives"
//	reconcile:
//	  key_policy: literal
//	  normalize_dates: false
//	timezone: "-03:00"
//	records:
//	  - { id: r1, client_id: A, pet_id: B, service_id: C, date: "2025-12-20", created_at: "2025-12-19T10:00:00Z" }
//	steps:
//	  - plan: {}
//	  - apply: { confirm: true, fingerprint: plan }
//	  - verify: { from: "2025-12-19", to: "2025-12-22" }
//	assertions:
//	  - type: remaining
//	    ids: [r1]
//	  - type: day_count
//	    day: "2025-12-20"
//	    count: 1
//
// An apply step with fingerprint "plan" confirms the fingerprint of the
// most recent plan step, which is how a reviewer copies it from the plan
// output. A step that is expected to fail names the error with
// expect_error (not_confirmed, stale_plan, delete).
//
// # Assertion Types
//
//   - remaining: ids left in the table after all steps
//   - to_delete: ids the last plan would delete
//   - survivors: ids the last plan keeps
//   - deleted: total records removed by apply steps
//   - day_count: per-day count from the last verify step
//   - warnings: number of cross-check warnings from the last verify step
//   - unparseable: ids the last verify step could not place
//
// # Deterministic Testing
//
// Scenarios run with a fixed clock and run id, so the step trace is
// reproducible and can be compared against golden files with
// RunWithGolden.
package harness
