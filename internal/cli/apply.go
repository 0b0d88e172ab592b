package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/apptrecon/internal/executor"
	"github.com/roach88/apptrecon/internal/reconcile"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Confirm     bool
	Fingerprint string
	PlanFile    string
	BatchSize   int
	Status      string
}

// ApplyOutput is the JSON payload of a finished apply.
type ApplyOutput struct {
	Plan   reconcile.View  `json:"plan"`
	Result executor.Result `json:"result"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Delete the duplicates of a reviewed plan",
		Long: `Recompute the plan, print it, and delete its candidates.

Deletion only happens with --confirm and a fingerprint equal to the
recomputed plan's, given with --fingerprint or read from a --plan file
written by "plan --out". If the data changed since review the fingerprints
differ and nothing is deleted.

Exit codes:
  0 - Plan applied, or nothing to delete
  2 - Not confirmed, stale fingerprint, or store error

Examples:
  apptrecon apply --confirm --fingerprint 3f9a...
  apptrecon apply --confirm --plan plan.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Confirm, "confirm", false, "actually delete")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "fingerprint of the reviewed plan")
	cmd.Flags().StringVar(&opts.PlanFile, "plan", "", "reviewed plan file written by plan --out")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "ids per delete call (default from config)")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only consider appointments with this status")

	return cmd
}

func runApply(ctx context.Context, opts *ApplyOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fingerprint := opts.Fingerprint
	if opts.PlanFile != "" {
		reviewed, err := readPlanFile(opts.PlanFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read plan file", err)
		}
		if fingerprint != "" && fingerprint != reviewed.Fingerprint {
			return NewExitError(ExitCommandError, "--fingerprint and --plan disagree")
		}
		fingerprint = reviewed.Fingerprint
	}

	s, err := opts.openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.plan(ctx, statusFilter(opts.Status), opts.now())
	if err != nil {
		return err
	}

	batchSize := s.cfg.Delete.BatchSize
	if opts.BatchSize > 0 {
		batchSize = opts.BatchSize
	}
	ex := executor.New(s.store, executor.WithBatchSize(batchSize), executor.WithLogger(s.log))

	f := opts.formatter(cmd)
	if f.Format != "json" {
		if err := reconcile.WriteReport(f.Writer, p); err != nil {
			return err
		}
		fmt.Fprintf(f.Writer, "Plan fingerprint: %s\n", p.Fingerprint)
	}

	res, err := ex.Apply(ctx, p, executor.Confirmation{Confirmed: opts.Confirm, Fingerprint: fingerprint})
	switch {
	case errors.Is(err, executor.ErrNotConfirmed):
		return WrapExitError(ExitCommandError,
			fmt.Sprintf("refusing to delete %d records; re-run with --confirm --fingerprint %s", len(p.ToDelete), p.Fingerprint), err)
	case errors.Is(err, executor.ErrFingerprintMismatch):
		return WrapExitError(ExitCommandError, "plan changed since review; run plan again", err)
	case err != nil:
		return WrapExitError(ExitCommandError,
			fmt.Sprintf("deletion stopped after %d of %d records", res.Deleted, res.Requested), err)
	}

	out := ApplyOutput{Plan: reconcile.NewView(p), Result: res}
	if f.Format == "json" {
		return f.Render(s.runID, out, nil)
	}
	return writeApplyText(f.Writer, res)
}

func writeApplyText(w io.Writer, res executor.Result) error {
	if res.Requested == 0 {
		_, err := fmt.Fprintln(w, "Nothing to delete.")
		return err
	}
	_, err := fmt.Fprintf(w, "Deleted %d of %d records in %d batches\n", res.Deleted, res.Requested, res.Batches)
	return err
}
