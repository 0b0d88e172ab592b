// Package config loads run configuration from a YAML file, a .env file and
// the process environment, in increasing order of precedence.
//
// Connection credentials usually live in .env so they stay out of the YAML
// file that is checked in next to runbooks.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/apptrecon/internal/datenorm"
	"github.com/roach88/apptrecon/internal/executor"
	"github.com/roach88/apptrecon/internal/identity"
	"github.com/roach88/apptrecon/internal/queryir"
	"github.com/roach88/apptrecon/internal/store"
)

// Default file locations, relative to the working directory.
const (
	DefaultConfigFile = "apptrecon.yaml"
	DefaultEnvFile    = ".env"
)

// Environment variables that override file values.
const (
	EnvDriver = "APPTRECON_DRIVER"
	EnvDSN    = "APPTRECON_DSN"
	EnvTable  = "APPTRECON_TABLE"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the full run configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Delete    DeleteConfig    `yaml:"delete"`
	Verify    VerifyConfig    `yaml:"verify"`
}

// StoreConfig selects and addresses the record store.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

// ReconcileConfig controls how identity keys are built.
type ReconcileConfig struct {
	KeyPolicy      string `yaml:"key_policy"`
	NormalizeDates bool   `yaml:"normalize_dates"`
}

// DeleteConfig controls the deletion executor.
type DeleteConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// VerifyConfig controls the window verifier.
type VerifyConfig struct {
	// Timezone locates zone-less timestamps: an IANA name or an offset
	// such as -03:00.
	Timezone string `yaml:"timezone"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Driver: DriverPostgres,
			Table:  store.DefaultTable,
		},
		Reconcile: ReconcileConfig{KeyPolicy: string(identity.PolicyLiteral)},
		Delete:    DeleteConfig{BatchSize: executor.DefaultBatchSize},
		Verify:    VerifyConfig{Timezone: "UTC"},
	}
}

// LoadOptions says where to look.
type LoadOptions struct {
	// ConfigPath is an explicit YAML file. When empty, DefaultConfigFile is
	// used if it exists.
	ConfigPath string

	// EnvFile is an explicit .env file. When empty, DefaultEnvFile is used
	// if it exists.
	EnvFile string

	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Load builds the configuration: defaults, then the YAML file, then the
// .env file, then the process environment. The result is validated.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if err := loadFile(&cfg, opts.ConfigPath); err != nil {
		return Config{}, err
	}

	dotenv, err := readEnvFile(opts.EnvFile)
	if err != nil {
		return Config{}, err
	}
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}
	if v, ok := get(EnvDriver); ok {
		cfg.Store.Driver = v
	}
	if v, ok := get(EnvDSN); ok {
		cfg.Store.DSN = v
	}
	if v, ok := get(EnvTable); ok {
		cfg.Store.Table = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &ConfigurationError{Field: "config", Message: fmt.Sprintf("cannot read %s", path), Err: err}
	}

	// Reject unknown fields so typos like "batchsize:" are caught.
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return &ConfigurationError{Field: "config", Message: fmt.Sprintf("cannot parse %s", path), Err: err}
	}
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, &ConfigurationError{Field: "env_file", Message: fmt.Sprintf("cannot read %s", path), Err: err}
	}
	return values, nil
}

// Validate checks every field that can be checked without a connection.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return &ConfigurationError{
			Field:   "store.driver",
			Message: fmt.Sprintf("unknown driver %q (want %s or %s)", c.Store.Driver, DriverPostgres, DriverSQLite),
		}
	}
	if !queryir.ValidIdentifier(c.Store.Table) {
		return &ConfigurationError{Field: "store.table", Message: fmt.Sprintf("invalid table name %q", c.Store.Table)}
	}
	if _, err := identity.ParsePolicy(c.Reconcile.KeyPolicy); err != nil {
		return &ConfigurationError{Field: "reconcile.key_policy", Message: "invalid key policy", Err: err}
	}
	if c.Delete.BatchSize <= 0 {
		return &ConfigurationError{Field: "delete.batch_size", Message: fmt.Sprintf("must be positive, got %d", c.Delete.BatchSize)}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// RequireDSN fails unless a connection string is configured. Called right
// before a store is opened so commands that never connect can run without one.
func (c Config) RequireDSN() error {
	if strings.TrimSpace(c.Store.DSN) == "" {
		return &ConfigurationError{
			Field:   "store.dsn",
			Message: fmt.Sprintf("no connection string; set store.dsn or %s", EnvDSN),
		}
	}
	return nil
}

// Location resolves Verify.Timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := datenorm.ParseZone(c.Verify.Timezone)
	if err != nil {
		return nil, &ConfigurationError{Field: "verify.timezone", Message: "invalid timezone", Err: err}
	}
	return loc, nil
}

// Builder returns the identity key builder described by Reconcile.
func (c Config) Builder(ref *time.Location) (identity.Builder, error) {
	policy, err := identity.ParsePolicy(c.Reconcile.KeyPolicy)
	if err != nil {
		return identity.Builder{}, &ConfigurationError{Field: "reconcile.key_policy", Message: "invalid key policy", Err: err}
	}
	return identity.Builder{Policy: policy, NormalizeDates: c.Reconcile.NormalizeDates, Reference: ref}, nil
}
