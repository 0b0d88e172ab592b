package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/apptrecon/internal/appointment"
	"github.com/roach88/apptrecon/internal/config"
	"github.com/roach88/apptrecon/internal/datenorm"
	"github.com/roach88/apptrecon/internal/identity"
)

// Scenario is one end-to-end reconciliation run.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario shows.
	Description string `yaml:"description"`

	// Table defaults to store.DefaultTable.
	Table string `yaml:"table,omitempty"`

	// Reconcile controls identity keys, as in the config file.
	Reconcile config.ReconcileConfig `yaml:"reconcile,omitempty"`

	// Timezone locates zone-less timestamps. Defaults to UTC.
	Timezone string `yaml:"timezone,omitempty"`

	// Records seed the table before the first step.
	Records []RecordSpec `yaml:"records"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`

	// FailDeleteOn makes the n-th delete call (1-based) fail.
	FailDeleteOn int `yaml:"fail_delete_on,omitempty"`
}

// RecordSpec is an appointment as written in a scenario file. Omitted
// reference fields are absent, not empty.
type RecordSpec struct {
	ID        string  `yaml:"id"`
	ClientID  *string `yaml:"client_id,omitempty"`
	PetID     *string `yaml:"pet_id,omitempty"`
	ServiceID *string `yaml:"service_id,omitempty"`
	Date      string  `yaml:"date"`
	CreatedAt string  `yaml:"created_at,omitempty"`
	Status    string  `yaml:"status,omitempty"`
}

// Record converts r to a store record.
func (r RecordSpec) Record() appointment.Record {
	status := r.Status
	if status == "" {
		status = "scheduled"
	}
	return appointment.Record{
		ID:        r.ID,
		ClientID:  r.ClientID,
		PetID:     r.PetID,
		ServiceID: r.ServiceID,
		Date:      r.Date,
		CreatedAt: r.CreatedAt,
		Status:    status,
	}
}

// Step is exactly one of plan, apply, insert or verify.
type Step struct {
	Plan   *PlanStep    `yaml:"plan,omitempty"`
	Apply  *ApplyStep   `yaml:"apply,omitempty"`
	Insert []RecordSpec `yaml:"insert,omitempty"`
	Verify *VerifyStep  `yaml:"verify,omitempty"`

	// ExpectError names the error kind the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Kind returns the step's name for traces and messages.
func (s Step) Kind() string {
	switch {
	case s.Plan != nil:
		return StepPlan
	case s.Apply != nil:
		return StepApply
	case s.Insert != nil:
		return StepInsert
	case s.Verify != nil:
		return StepVerify
	default:
		return ""
	}
}

// PlanStep computes a plan without deleting.
type PlanStep struct {
	Status string `yaml:"status,omitempty"`
}

// ApplyStep recomputes the plan and deletes its candidates.
type ApplyStep struct {
	Confirm     bool   `yaml:"confirm"`
	Fingerprint string `yaml:"fingerprint,omitempty"`
	BatchSize   int    `yaml:"batch_size,omitempty"`
	Status      string `yaml:"status,omitempty"`
}

// VerifyStep counts a window of days.
type VerifyStep struct {
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	DetailDay string `yaml:"detail_day,omitempty"`
}

// Assertion checks the outcome of a scenario.
type Assertion struct {
	Type  string   `yaml:"type"`
	IDs   []string `yaml:"ids,omitempty"`
	Day   string   `yaml:"day,omitempty"`
	Count int      `yaml:"count,omitempty"`
}

// Step kinds.
const (
	StepPlan   = "plan"
	StepApply  = "apply"
	StepInsert = "insert"
	StepVerify = "verify"
)

// Assertion types.
const (
	AssertRemaining   = "remaining"
	AssertToDelete    = "to_delete"
	AssertSurvivors   = "survivors"
	AssertDeleted     = "deleted"
	AssertDayCount    = "day_count"
	AssertWarnings    = "warnings"
	AssertUnparseable = "unparseable"
)

// Error kinds accepted by expect_error.
const (
	ErrorNotConfirmed = "not_confirmed"
	ErrorStalePlan    = "stale_plan"
	ErrorDelete       = "delete"
)

// FingerprintFromPlan makes an apply step confirm the last plan's fingerprint.
const FingerprintFromPlan = "plan"

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if _, err := identity.ParsePolicy(s.Reconcile.KeyPolicy); err != nil {
		return fmt.Errorf("reconcile.key_policy: %w", err)
	}
	if s.FailDeleteOn < 0 {
		return fmt.Errorf("fail_delete_on must be non-negative")
	}
	if s.Timezone != "" {
		if _, err := datenorm.ParseZone(s.Timezone); err != nil {
			return fmt.Errorf("timezone: %w", err)
		}
	}

	seen := make(map[string]bool, len(s.Records))
	for i, r := range s.Records {
		if r.ID == "" {
			return fmt.Errorf("records[%d]: id is required", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("records[%d]: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = true
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, s Step) error {
	n := 0
	for _, set := range []bool{s.Plan != nil, s.Apply != nil, s.Insert != nil, s.Verify != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return fmt.Errorf("steps[%d]: exactly one of plan, apply, insert, verify is required", i)
	}

	switch s.ExpectError {
	case "", ErrorNotConfirmed, ErrorStalePlan, ErrorDelete:
	default:
		return fmt.Errorf("steps[%d]: unknown expect_error %q", i, s.ExpectError)
	}

	if s.Verify != nil {
		from, err := datenorm.ParseDate(s.Verify.From)
		if err != nil {
			return fmt.Errorf("steps[%d].verify.from: %w", i, err)
		}
		to, err := datenorm.ParseDate(s.Verify.To)
		if err != nil {
			return fmt.Errorf("steps[%d].verify.to: %w", i, err)
		}
		if !from.Before(to) {
			return fmt.Errorf("steps[%d].verify: from must be before to", i)
		}
		if s.Verify.DetailDay != "" {
			dd, err := datenorm.ParseDate(s.Verify.DetailDay)
			if err != nil {
				return fmt.Errorf("steps[%d].verify.detail_day: %w", i, err)
			}
			if dd.Before(from) || !dd.Before(to) {
				return fmt.Errorf("steps[%d].verify.detail_day: %s is outside %s..%s", i, dd, from, to)
			}
		}
	}
	return nil
}

func validateAssertion(i int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", i)
	case AssertRemaining, AssertToDelete, AssertSurvivors, AssertUnparseable:
		// An empty ids list asserts an empty set.
	case AssertDeleted, AssertWarnings:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", i, a.Type)
		}
	case AssertDayCount:
		if _, err := datenorm.ParseDate(a.Day); err != nil {
			return fmt.Errorf("assertions[%d]: day: %w", i, err)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for day_count", i)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
	}
	return nil
}
