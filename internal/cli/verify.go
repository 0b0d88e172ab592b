package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/apptrecon/internal/audit"
	"github.com/roach88/apptrecon/internal/config"
	"github.com/roach88/apptrecon/internal/datenorm"
	"github.com/roach88/apptrecon/internal/verify"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	From      string
	To        string
	DetailDay string
	Timezone  string
	Database  string
	Status    string
	Strict    bool
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Count appointments per day over a window and cross-check the counts",
		Long: `Count appointments per calendar day in [--from, --to) and compare the
parsed counts with a literal substring count. Records whose dates cannot be
read are listed separately; days where the two methods disagree are listed
under Warnings.

Exit codes:
  0 - Report produced (warnings allowed unless --strict)
  1 - --strict and the report has warnings
  2 - Command error (bad window, config or store error)

Examples:
  apptrecon verify --from 2025-12-19 --to 2025-12-22
  apptrecon verify --from 2025-12-19 --to 2025-12-22 --detail-day 2025-12-20 --tz -03:00
  apptrecon verify --from 2025-12-01 --to 2026-01-01 --db snapshot.db --strict`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "first day of the window, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.To, "to", "", "day after the window, YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	cmd.Flags().StringVar(&opts.DetailDay, "detail-day", "", "print one line per appointment on this day")
	cmd.Flags().StringVar(&opts.Timezone, "tz", "", "zone for timestamps without one (default from config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "verify a local SQLite snapshot instead of the configured store (not with --dsn or --driver)")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only consider appointments with this status")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when the report has warnings")

	return cmd
}

func runVerify(ctx context.Context, opts *VerifyOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	start, err := datenorm.ParseDate(opts.From)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --from", err)
	}
	end, err := datenorm.ParseDate(opts.To)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --to", err)
	}
	var detail datenorm.CalendarDate
	if opts.DetailDay != "" {
		if detail, err = datenorm.ParseDate(opts.DetailDay); err != nil {
			return WrapExitError(ExitCommandError, "invalid --detail-day", err)
		}
	}
	if !start.Before(end) {
		return WrapExitError(ExitCommandError, "invalid window", verify.ErrEmptyWindow)
	}
	if !detail.IsZero() && (detail.Before(start) || !detail.Before(end)) {
		return WrapExitError(ExitCommandError,
			fmt.Sprintf("invalid --detail-day %s: window is %s..%s", detail, start, end), verify.ErrDetailDayOutsideWindow)
	}

	root := opts.RootOptions
	if opts.Database != "" {
		if opts.DSN != "" || (opts.Driver != "" && opts.Driver != config.DriverSQLite) {
			return NewExitError(ExitCommandError, "--db cannot be combined with --dsn or --driver")
		}
		local := *opts.RootOptions
		local.Driver = config.DriverSQLite
		local.DSN = opts.Database
		root = &local
	}
	s, err := root.openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ref := s.ref
	if opts.Timezone != "" {
		if ref, err = datenorm.ParseZone(opts.Timezone); err != nil {
			return WrapExitError(ExitCommandError, "invalid --tz", err)
		}
	}

	snap, err := s.fetch(ctx, statusFilter(opts.Status), opts.now())
	if err != nil {
		return err
	}

	rep, err := verify.Verify(snap.Records, start, end, ref, verify.Options{DetailDay: detail})
	if err != nil {
		return WrapExitError(ExitCommandError, "verification failed", err)
	}

	for _, u := range rep.Unparseable {
		s.log.Warn(audit.EventVerifyUnparseable, audit.Fields{"id": u.ID, "date": u.Date})
	}
	for _, w := range rep.Warnings {
		s.log.Warn(audit.EventVerifyWarning, audit.Fields{
			"day":       w.Day.String(),
			"parsed":    w.Parsed,
			"substring": w.Substring,
			"records":   len(w.Records),
		})
	}

	err = opts.formatter(cmd).Render(s.runID, rep, func(w io.Writer) error {
		return verify.WriteText(w, rep)
	})
	if err != nil {
		return err
	}

	if opts.Strict && rep.HasWarnings() {
		return NewExitError(ExitFailure, fmt.Sprintf("verification produced %d warnings", len(rep.Warnings)))
	}
	return nil
}
