package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RenderTrace renders a step trace as text for golden comparison.
func RenderTrace(name string, result *Result) []byte {
	var buf strings.Builder
	fmt.Fprintf(&buf, "# scenario: %s\n", name)
	for _, event := range result.Trace {
		fmt.Fprintf(&buf, "\n## step %d: %s\n", event.Step, event.Kind)
		if event.Output != "" {
			buf.WriteString(event.Output)
		}
		if event.Error != "" {
			fmt.Fprintf(&buf, "error: %s\n", event.Error)
		}
	}
	fmt.Fprintf(&buf, "\n## remaining: %s\n", strings.Join(result.Remaining, ", "))
	return []byte(buf.String())
}

// RunWithGolden executes a scenario, fails t on any step or assertion
// error, and compares the rendered trace with
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, msg)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, RenderTrace(scenario.Name, result))
	return result
}
