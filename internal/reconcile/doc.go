// Package reconcile groups appointment records by identity key, picks one
// survivor per duplicate group and renders the plan for review.
//
// Computing a plan is pure: Build reads a snapshot and returns a Plan, it
// never touches storage. Deleting the plan's candidates is a separate step
// owned by package executor, gated on the plan fingerprint.
//
// # Survivor ordering
//
// Within a group records are ordered by (createdAt asc, id asc). A record
// whose createdAt is missing or unparseable sorts after every record with a
// valid timestamp, so it is never kept over an older, well-formed row.
package reconcile
