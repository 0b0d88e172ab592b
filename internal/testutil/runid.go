package testutil

// FixedRunID returns the same run id every time.
//
// Audit lines carry a run id; a fixed one makes log assertions and golden
// comparisons deterministic. If id is empty, the generator returns
// "test-run-default".
func FixedRunID(id string) func() string {
	if id == "" {
		id = "test-run-default"
	}
	return func() string { return id }
}
