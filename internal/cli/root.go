package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/apptrecon/internal/audit"
	"github.com/roach88/apptrecon/internal/config"
	"github.com/roach88/apptrecon/internal/store"
	"github.com/roach88/apptrecon/internal/store/postgres"
	"github.com/roach88/apptrecon/internal/store/sqlite"
)

// RootOptions holds global flags for all commands, plus the seams tests
// use to pin time, run ids and the environment.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	EnvFile    string

	// Store overrides; take precedence over config and environment.
	Driver string
	DSN    string
	Table  string

	OpenStore func(ctx context.Context, cfg config.Config) (store.Store, error)
	Now       func() time.Time
	RunID     func() string
	LookupEnv func(string) (string, bool)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the apptrecon CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithOptions(&RootOptions{})
}

// NewRootCommandWithOptions builds the command tree around opts.
func NewRootCommandWithOptions(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apptrecon",
		Short: "apptrecon - appointment reconciliation",
		Long: `Find and remove duplicate appointments, and cross-check per-day counts.

Reconciliation is two explicit steps: "plan" computes and prints what would
be removed together with a plan fingerprint; "apply" recomputes the plan and
deletes only when given --confirm and that same fingerprint.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./"+config.DefaultConfigFile+" if present)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "env file with credentials (default ./"+config.DefaultEnvFile+" if present)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "store driver (postgres|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "store connection string or SQLite path")
	cmd.PersistentFlags().StringVar(&opts.Table, "table", "", "appointment table")

	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewApplyCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))

	return cmd
}

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute() int {
	opts := &RootOptions{}
	cmd := NewRootCommandWithOptions(opts)
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	f := &OutputFormatter{Format: opts.Format, Writer: os.Stdout, ErrWriter: os.Stderr, Verbose: opts.Verbose}
	if f.Format != "json" {
		f.Writer = os.Stderr
	}
	_ = f.Error(ErrorCode(err), err.Error(), nil)
	return GetExitCode(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// loadConfig resolves configuration and applies the store flag overrides.
func (o *RootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigPath: o.ConfigPath,
		EnvFile:    o.EnvFile,
		LookupEnv:  o.LookupEnv,
	})
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if o.Driver != "" {
		cfg.Store.Driver = o.Driver
	}
	if o.DSN != "" {
		cfg.Store.DSN = o.DSN
	}
	if o.Table != "" {
		cfg.Store.Table = o.Table
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// openStore connects to the configured store.
func (o *RootOptions) openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	open := o.OpenStore
	if open == nil {
		open = OpenStore
	}
	s, err := open(ctx, cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return s, nil
}

// OpenStore opens the store named by cfg.Store.
func OpenStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	if err := cfg.RequireDSN(); err != nil {
		return nil, err
	}
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		return sqlite.Open(cfg.Store.DSN)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.Store.DSN)
	default:
		return nil, &config.ConfigurationError{Field: "store.driver", Message: fmt.Sprintf("unknown driver %q", cfg.Store.Driver)}
	}
}

func (o *RootOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}

func (o *RootOptions) runID() string {
	if o.RunID != nil {
		return o.RunID()
	}
	return audit.NewRunID()
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) logger(cmd *cobra.Command, runID string) *audit.Logger {
	return audit.New(cmd.ErrOrStderr(), o.Verbose).WithRun(runID)
}
