package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/PraverBajaj/doobie/internal/exec"
)

// TraceSnapshot captures the complete outcome of one scenario execution for
// golden-file comparison: terminal value, error code, and event trace.
// Everything in it is deterministic under the step clock.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Mode         string       `json:"mode"`
	Values       []int        `json:"values,omitempty"`
	Batches      [][]int      `json:"batches,omitempty"`
	RowsAffected int64        `json:"rows_affected,omitempty"`
	ErrorCode    string       `json:"error_code,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// snapshotOf builds the golden snapshot for a result.
func snapshotOf(res *Result) TraceSnapshot {
	snap := TraceSnapshot{
		ScenarioName: res.Scenario.Name,
		Mode:         res.Scenario.Call.Mode,
		Values:       res.Values,
		Batches:      res.Batches,
		RowsAffected: res.RowsAffected,
		Trace:        res.Trace,
	}
	if res.Err != nil {
		snap.ErrorCode = string(exec.CodeOf(res.Err))
	}
	return snap
}

// RunWithGolden executes a scenario, checks its expect clause, and compares
// the outcome snapshot against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result := Run(scenario)
	for _, fail := range Check(result) {
		t.Errorf("scenario %s: %v", scenario.Name, fail)
	}

	AssertGolden(t, scenario.Name, result)
	return result
}

// AssertGolden compares an already-run result's snapshot against a golden
// file keyed by scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	snap := snapshotOf(result)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
}
