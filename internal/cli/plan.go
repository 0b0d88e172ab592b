package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/apptrecon/internal/reconcile"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Out    string
	Status string
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute and print the duplicate-removal plan",
		Long: `Fetch all appointments, group them by identity key and print which record
each duplicate group keeps and which it would delete. Nothing is modified.

The printed plan fingerprint is what "apply --fingerprint" expects.

Examples:
  apptrecon plan
  apptrecon plan --out plan.json
  apptrecon plan --driver sqlite --dsn snapshot.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "", "also write the plan as JSON to this file")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only consider appointments with this status")

	return cmd
}

func runPlan(ctx context.Context, opts *PlanOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
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
	view := reconcile.NewView(p)

	if opts.Out != "" {
		if err := writePlanFile(opts.Out, view); err != nil {
			return WrapExitError(ExitCommandError, "failed to write plan file", err)
		}
	}

	return opts.formatter(cmd).Render(s.runID, view, func(w io.Writer) error {
		if err := reconcile.WriteReport(w, p); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "Plan fingerprint: %s\n", p.Fingerprint)
		return err
	})
}

func writePlanFile(path string, v reconcile.View) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func readPlanFile(path string) (reconcile.View, error) {
	var v reconcile.View
	data, err := os.ReadFile(path)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}
