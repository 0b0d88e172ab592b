package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/apptrecon/internal/appointment"
	"github.com/roach88/apptrecon/internal/audit"
	"github.com/roach88/apptrecon/internal/datenorm"
	"github.com/roach88/apptrecon/internal/executor"
	"github.com/roach88/apptrecon/internal/identity"
	"github.com/roach88/apptrecon/internal/queryir"
	"github.com/roach88/apptrecon/internal/reconcile"
	"github.com/roach88/apptrecon/internal/store"
	"github.com/roach88/apptrecon/internal/store/memory"
	"github.com/roach88/apptrecon/internal/testutil"
	"github.com/roach88/apptrecon/internal/verify"
)

// ErrInjectedDelete is returned by the delete call named in fail_delete_on.
var ErrInjectedDelete = errors.New("injected delete failure")

// Harness executes one scenario against an in-memory store.
type Harness struct {
	store   *memory.Store
	table   string
	builder identity.Builder
	ref     *time.Location
	clock   *testutil.Clock
	log     *audit.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory table seeded with its
// records. Steps run in order; the first step that fails unexpectedly ends
// the run. Assertions are evaluated against whatever state was reached.
func Run(scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		n := i + 1
		output, stepErr := h.execute(ctx, step, result)
		kind := errorKind(stepErr)

		switch {
		case stepErr == nil && step.ExpectError != "":
			result.AddTrace(n, step.Kind(), output, "")
			result.AddError(fmt.Sprintf("step %d (%s): expected %s error, step succeeded", n, step.Kind(), step.ExpectError))
		case stepErr == nil:
			result.AddTrace(n, step.Kind(), output, "")
		case kind != "" && kind == step.ExpectError:
			result.AddTrace(n, step.Kind(), output, kind)
		default:
			result.AddTrace(n, step.Kind(), output, stepErr.Error())
			result.AddError(fmt.Sprintf("step %d (%s): %v", n, step.Kind(), stepErr))
		}
		if !result.Pass {
			break
		}
	}

	result.Remaining = h.store.IDs(h.table)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(s *Scenario) (*Harness, error) {
	ref := time.UTC
	if s.Timezone != "" {
		loc, err := datenorm.ParseZone(s.Timezone)
		if err != nil {
			return nil, fmt.Errorf("timezone: %w", err)
		}
		ref = loc
	}
	policy, err := identity.ParsePolicy(s.Reconcile.KeyPolicy)
	if err != nil {
		return nil, err
	}

	table := s.Table
	if table == "" {
		table = store.DefaultTable
	}
	records := make([]appointment.Record, len(s.Records))
	for i, r := range s.Records {
		records[i] = r.Record()
	}
	st := memory.New(table, records...)
	if s.FailDeleteOn > 0 {
		st.FailDeleteOn = s.FailDeleteOn
		st.FailDelete = ErrInjectedDelete
	}

	return &Harness{
		store: st,
		table: table,
		builder: identity.Builder{
			Policy:         policy,
			NormalizeDates: s.Reconcile.NormalizeDates,
			Reference:      ref,
		},
		ref:   ref,
		clock: testutil.NewClock(testutil.Epoch),
		log:   audit.Discard(),
	}, nil
}

func (h *Harness) execute(ctx context.Context, step Step, result *Result) (string, error) {
	switch {
	case step.Plan != nil:
		p, err := h.plan(ctx, step.Plan.Status)
		if err != nil {
			return "", err
		}
		result.LastPlan = &p
		return reconcile.Report(p), nil

	case step.Apply != nil:
		return h.apply(ctx, *step.Apply, result)

	case step.Insert != nil:
		records := make([]appointment.Record, len(step.Insert))
		for i, r := range step.Insert {
			records[i] = r.Record()
		}
		n, err := h.store.InsertRecords(ctx, h.table, records)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Inserted %d records\n", n), nil

	case step.Verify != nil:
		rep, err := h.verify(ctx, *step.Verify)
		if err != nil {
			return "", err
		}
		result.LastReport = &rep
		return verify.Text(rep), nil
	}
	return "", fmt.Errorf("empty step")
}

func (h *Harness) plan(ctx context.Context, status string) (reconcile.Plan, error) {
	q := queryir.Query{}
	if status != "" {
		q.Filter = queryir.Eq("status", status)
	}
	records, err := h.store.FetchAll(ctx, h.table, q)
	if err != nil {
		return reconcile.Plan{}, err
	}
	snap := reconcile.Snapshot{Table: h.table, FetchedAt: h.clock.Now(), Records: records}
	return reconcile.Build(snap, h.builder), nil
}

func (h *Harness) apply(ctx context.Context, step ApplyStep, result *Result) (string, error) {
	fingerprint := step.Fingerprint
	if fingerprint == FingerprintFromPlan {
		if result.LastPlan == nil {
			return "", fmt.Errorf("fingerprint %q needs an earlier plan step", FingerprintFromPlan)
		}
		fingerprint = result.LastPlan.Fingerprint
	}

	p, err := h.plan(ctx, step.Status)
	if err != nil {
		return "", err
	}

	opts := []executor.Option{executor.WithLogger(h.log)}
	if step.BatchSize > 0 {
		opts = append(opts, executor.WithBatchSize(step.BatchSize))
	}
	res, err := executor.New(h.store, opts...).Apply(ctx, p, executor.Confirmation{
		Confirmed:   step.Confirm,
		Fingerprint: fingerprint,
	})
	result.Deleted += res.Deleted

	var de *executor.DeletionError
	if errors.As(err, &de) {
		return fmt.Sprintf("Deleted %d of %d records before batch %d failed\n", de.Deleted, res.Requested, de.Batch), err
	}
	if err != nil {
		return "", err
	}
	if res.Requested == 0 {
		return "Nothing to delete.\n", nil
	}
	return fmt.Sprintf("Deleted %d of %d records in %d batches\n", res.Deleted, res.Requested, res.Batches), nil
}

func (h *Harness) verify(ctx context.Context, step VerifyStep) (verify.Report, error) {
	start, err := datenorm.ParseDate(step.From)
	if err != nil {
		return verify.Report{}, err
	}
	end, err := datenorm.ParseDate(step.To)
	if err != nil {
		return verify.Report{}, err
	}
	var opts verify.Options
	if step.DetailDay != "" {
		if opts.DetailDay, err = datenorm.ParseDate(step.DetailDay); err != nil {
			return verify.Report{}, err
		}
	}

	records, err := h.store.FetchAll(ctx, h.table, queryir.Query{})
	if err != nil {
		return verify.Report{}, err
	}
	return verify.Verify(records, start, end, h.ref, opts)
}

// errorKind maps a step error to its expect_error name, or "" when the
// error is not one a scenario can expect.
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, executor.ErrNotConfirmed):
		return ErrorNotConfirmed
	case errors.Is(err, executor.ErrFingerprintMismatch):
		return ErrorStalePlan
	case executor.IsDeletionError(err):
		return ErrorDelete
	default:
		return ""
	}
}
