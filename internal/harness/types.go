package harness

import (
	"github.com/roach88/apptrecon/internal/reconcile"
	"github.com/roach88/apptrecon/internal/verify"
)

// TraceEvent is the outcome of one scenario step.
type TraceEvent struct {
	Step   int    `json:"step"`
	Kind   string `json:"kind"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step behaved as expected and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Remaining lists the ids left in the table, sorted.
	Remaining []string `json:"remaining"`

	// Deleted counts records removed across all apply steps.
	Deleted int64 `json:"deleted"`

	// LastPlan and LastReport are the most recent plan and verify outputs.
	LastPlan   *reconcile.Plan `json:"-"`
	LastReport *verify.Report  `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Trace:     []TraceEvent{},
		Errors:    []string{},
		Remaining: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace records a step outcome.
func (r *Result) AddTrace(step int, kind, output, errKind string) {
	r.Trace = append(r.Trace, TraceEvent{Step: step, Kind: kind, Output: output, Error: errKind})
}
