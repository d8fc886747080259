package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "testdata/scenarios"

// scenarioWorkspace lays out dir/plans and dir/scenarios so scenarios can
// reference ../plans like the ones under testdata.
func scenarioWorkspace(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "plans"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scenarios"), 0o755))
	for _, name := range []string{"friends.yaml", "ask.yaml"} {
		data, err := os.ReadFile(planPath(name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "plans", name), data, 0o644))
	}
	for name, content := range scenarios {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "scenarios", name), []byte(content), 0o644))
	}
	return filepath.Join(dir, "scenarios")
}

func TestTest_Passes(t *testing.T) {
	out, _, err := run(t, NewTestCommand(&RootOptions{Format: "text"}), scenariosDir)
	require.NoError(t, err)
	assert.Equal(t, "✓ ask\n✓ friends\n\nTest Summary: 2 passed, 0 failed, 2 total\n✓ All scenarios passed\n", out)
}

func TestTest_Filter(t *testing.T) {
	out, _, err := run(t, NewTestCommand(&RootOptions{Format: "text"}), scenariosDir, "--filter", "fr*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ friends\n")
	assert.NotContains(t, out, "ask")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	out, _, err = run(t, NewTestCommand(&RootOptions{Format: "text"}), scenariosDir, "--filter", "none*")
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)

	_, _, err = run(t, NewTestCommand(&RootOptions{Format: "text"}), scenariosDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTest_MissingDirectory(t *testing.T) {
	_, _, err := run(t, NewTestCommand(&RootOptions{Format: "text"}), filepath.Join("testdata", "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTest_Failures(t *testing.T) {
	dir := scenarioWorkspace(t, map[string]string{
		"count.yaml":  "name: count\ndescription: Too many\nplan: ../plans/friends.yaml\nassertions:\n  - type: solution_count\n    count: 3\n",
		"ask.yaml":    "name: ask\ndescription: Someone knows Carol\nplan: ../plans/ask.yaml\nassertions:\n  - type: ask\n    value: true\n",
		"broken.yaml": "name: broken\ndescription: No plan\nplan: ../plans/absent.yaml\nassertions:\n  - type: ask\n    value: true\n",
	})

	out, _, err := run(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ ask\n")
	assert.Contains(t, out, "✗ count\n  Assertion failed: solution_count")
	assert.Contains(t, out, "✗ broken.yaml\n  failed to load scenario")
	assert.Contains(t, out, "Test Summary: 1 passed, 2 failed, 3 total\n")
	assert.NotContains(t, out, "All scenarios passed")
}

func TestTest_GoldenUpdateAndMismatch(t *testing.T) {
	dir := scenarioWorkspace(t, map[string]string{
		"friends.yaml": "name: friends\ndescription: Friends\nplan: ../plans/friends.yaml\nassertions:\n  - type: solution_count\n    count: 2\n",
	})
	golden := filepath.Join(dir, "golden", "friends.golden")

	out, _, err := run(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ friends (golden updated)\n")

	written, err := os.ReadFile(golden)
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(scenariosDir, "golden", "friends.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(written))

	out, _, err = run(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ friends\n")

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0o644))
	out, _, err = run(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ friends\n")
	assert.Contains(t, out, "--update")
}

func TestTest_JSON(t *testing.T) {
	out, _, err := run(t, NewTestCommand(&RootOptions{Format: "json"}), scenariosDir)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, TestResult{
		Scenarios: []ScenarioResult{{Name: "ask", Pass: true}, {Name: "friends", Pass: true}},
		Passed:    2,
		Total:     2,
	}, resp.Data)

	dir := scenarioWorkspace(t, map[string]string{
		"count.yaml": "name: count\ndescription: Too many\nplan: ../plans/friends.yaml\nassertions:\n  - type: solution_count\n    count: 3\n",
	})
	out, _, err = run(t, NewTestCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var failed CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &failed))
	assert.Equal(t, "error", failed.Status)
	assert.Equal(t, ErrCodeScenarioFail, failed.Error.Code)
}
