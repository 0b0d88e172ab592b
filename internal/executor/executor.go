package executor

import (
	"context"
	"fmt"

	"github.com/roach88/apptrecon/internal/audit"
	"github.com/roach88/apptrecon/internal/reconcile"
	"github.com/roach88/apptrecon/internal/store"
)

// DefaultBatchSize is the number of ids sent per delete call.
const DefaultBatchSize = 100

// Confirmation is the operator's explicit go-ahead for one plan.
type Confirmation struct {
	Confirmed   bool
	Fingerprint string
}

// Result summarises a completed apply.
type Result struct {
	Requested int   `json:"requested"`
	Deleted   int64 `json:"deleted"`
	Batches   int   `json:"batches"`
}

// Executor submits plan deletions to a store.
type Executor struct {
	store     store.Deleter
	batchSize int
	log       *audit.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithBatchSize sets how many ids go in one delete call.
// Values below 1 keep the default.
func WithBatchSize(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithLogger sets the audit logger.
func WithLogger(l *audit.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

// New creates an Executor for d.
func New(d store.Deleter, opts ...Option) *Executor {
	e := &Executor{
		store:     d,
		batchSize: DefaultBatchSize,
		log:       audit.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BatchSize returns the configured batch size.
func (e *Executor) BatchSize() int {
	return e.batchSize
}

// Apply deletes exactly plan.ToDelete from plan.Table.
//
// An empty plan is a no-op and makes no store call, confirmed or not.
// Otherwise the confirmation must be set and carry the plan's fingerprint,
// or nothing is sent to the store.
func (e *Executor) Apply(ctx context.Context, plan reconcile.Plan, c Confirmation) (Result, error) {
	res := Result{Requested: len(plan.ToDelete)}
	if plan.Empty() {
		e.log.Event(audit.EventApplyCompleted, audit.Fields{"table": plan.Table, "requested": 0, "deleted": 0})
		return res, nil
	}

	if !c.Confirmed {
		e.log.Warn(audit.EventApplyRefused, audit.Fields{"table": plan.Table, "reason": "not confirmed"})
		return res, ErrNotConfirmed
	}
	want := reconcile.Fingerprint(plan.Table, plan.ToDelete)
	if c.Fingerprint != want {
		e.log.Warn(audit.EventApplyRefused, audit.Fields{
			"table":    plan.Table,
			"reason":   "fingerprint mismatch",
			"expected": want,
			"got":      c.Fingerprint,
		})
		return res, fmt.Errorf("%w: plan is %s, confirmation names %q", ErrFingerprintMismatch, want, c.Fingerprint)
	}

	for i, batch := range batches(plan.ToDelete, e.batchSize) {
		if err := ctx.Err(); err != nil {
			return res, e.fail(plan.Table, i, batch, res.Deleted, err)
		}

		n, err := e.store.DeleteByIDs(ctx, plan.Table, batch)
		if err != nil {
			return res, e.fail(plan.Table, i, batch, res.Deleted, err)
		}
		res.Batches++
		res.Deleted += n

		fields := audit.Fields{"table": plan.Table, "batch": i, "ids": len(batch), "deleted": n}
		if n < int64(len(batch)) {
			// Rows already gone; not an error but worth a look.
			e.log.Warn(audit.EventApplyBatch, fields)
		} else {
			e.log.Event(audit.EventApplyBatch, fields)
		}
	}

	e.log.Event(audit.EventApplyCompleted, audit.Fields{
		"table":       plan.Table,
		"requested":   res.Requested,
		"deleted":     res.Deleted,
		"batches":     res.Batches,
		"fingerprint": want,
	})
	return res, nil
}

func (e *Executor) fail(table string, batch int, ids []string, deleted int64, err error) error {
	de := &DeletionError{Table: table, Batch: batch, IDs: ids, Deleted: deleted, Err: err}
	e.log.Error(audit.EventApplyFailed, err, audit.Fields{
		"table":   table,
		"batch":   batch,
		"ids":     len(ids),
		"deleted": deleted,
	})
	return de
}

// batches splits ids into consecutive chunks of at most size.
func batches(ids []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		out = append(out, ids[start:end])
	}
	return out
}
