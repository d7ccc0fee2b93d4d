package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunGolden executes the scenario and compares its canonical trace
// against the golden file named after the scenario. Regenerate with
// `go test ./internal/harness -update`. Expectation failures fail the
// test before the golden comparison so the diff is not the first signal.
func RunGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}
	for _, failure := range result.Failures {
		t.Errorf("scenario %s: %s", scenario.Name, failure)
	}
	if t.Failed() {
		return result
	}

	canonical, err := result.Snapshot.MarshalCanonical()
	if err != nil {
		t.Fatalf("marshal snapshot for %s: %v", scenario.Name, err)
	}
	g := goldie.New(t)
	g.Assert(t, scenario.Name, canonical)
	return result
}
