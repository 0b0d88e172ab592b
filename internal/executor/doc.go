// Package executor applies a reconciliation plan: it removes exactly the
// plan's deletion candidates from the store.
//
// This is the only destructive step in the system. It never runs without
// an explicit Confirmation whose fingerprint matches the plan, and it never
// retries. Batches are submitted one after another and the first failure
// stops the run; the returned *DeletionError says which batch failed and
// how many rows earlier batches already removed.
package executor
