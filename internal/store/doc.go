// Package store defines the port through which the engine reads and
// deletes appointment records.
//
// The engine needs exactly two operations from a store: fetch every record
// matching a filter in one round trip, and delete a set of records by id.
// Adapters live in sub-packages:
//
//   - postgres: the remote appointment database (pgx)
//   - sqlite: local snapshot files for offline verification
//   - memory: in-process store used by tests
//
// # Critical Patterns
//
// Deterministic reads:
//   - Every fetch ends with ORDER BY id, so two fetches of an unchanged
//     table return records in the same order and plans are reproducible.
//
// Actionable failures:
//   - Fetch failures are *FetchError and carry the table and filter.
//   - Delete failures are *DeleteError and carry the table and id batch.
//   - Neither is retried here; callers decide whether to re-run.
package store
