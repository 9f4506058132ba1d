package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/siftql/sift/internal/codec"
)

// Snapshot is what a scenario's golden file records: the final
// expression in its durable form, plus the submission command when the
// expression is a single tree.
//
// The content fingerprint is deliberately not part of the snapshot; it
// is derived from the expression bytes already captured here.
type Snapshot struct {
	Name       string          `json:"name"`
	Valid      bool            `json:"valid"`
	Expression json.RawMessage `json:"expression"`
	Command    json.RawMessage `json:"command,omitempty"`
}

// RunWithGolden executes a scenario, checks its expectations, and
// compares the final snapshot against testdata/<name>.golden.
// Regenerate with: go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, failure := range result.Failures {
		t.Errorf("scenario %s: %s", scenario.Name, failure)
	}

	e := result.Session.Expression()
	snapshot := Snapshot{
		Name:  scenario.Name,
		Valid: e.IsValid(),
	}
	snapshot.Expression, err = codec.Marshal(e)
	if err != nil {
		t.Fatalf("scenario %s: marshal expression: %v", scenario.Name, err)
	}
	if _, ok := e.Root(); ok {
		cmd, err := codec.BuildCommand(e)
		if err != nil {
			t.Fatalf("scenario %s: build command: %v", scenario.Name, err)
		}
		snapshot.Command, err = json.Marshal(cmd)
		if err != nil {
			t.Fatalf("scenario %s: marshal command: %v", scenario.Name, err)
		}
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		t.Fatalf("scenario %s: marshal snapshot: %v", scenario.Name, err)
	}

	g := goldie.New(t)
	g.Assert(t, scenario.Name, data)
}
