package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/leviathan/internal/engine"
)

// Snapshot captures the outcome of a scenario execution for golden file
// comparison. Elapsed time is left out; everything else is deterministic.
type Snapshot struct {
	Scenario  string         `json:"scenario"`
	Execution string         `json:"execution,omitempty"`
	Seq       int64          `json:"seq,omitempty"`
	Partial   bool           `json:"partial,omitempty"`
	Result    *engine.Result `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// NewSnapshot builds the snapshot of a scenario result.
func NewSnapshot(name string, result *Result) Snapshot {
	s := Snapshot{Scenario: name, Error: result.ExecutionError}
	if q := result.Query; q != nil {
		s.Execution = q.Token
		s.Seq = q.Seq
		s.Partial = q.Partial
		s.Result = q
	}
	return s
}

// Marshal renders the snapshot as indented JSON ending in a newline.
func (s Snapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check assertions, or an error if the
// scenario could not run. A snapshot mismatch fails t via goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the snapshot of an existing result against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
