package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	out, _, err := run(t, NewValidateCommand(&RootOptions{Format: "text"}),
		planPath("friends.yaml"), planPath("friends.cue"), planPath("ask.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "✓ testdata/plans/friends.yaml\n✓ testdata/plans/friends.cue\n✓ testdata/plans/ask.yaml\n", out)
}

func TestValidate_ReportsEveryPlan(t *testing.T) {
	out, _, err := run(t, NewValidateCommand(&RootOptions{Format: "text"}),
		planPath("invalid.yaml"), planPath("friends.yaml"), planPath("broken.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 plan(s) invalid")

	assert.Contains(t, out, "✗ testdata/plans/invalid.yaml\n  E201: ")
	assert.Contains(t, out, "negative limit or offset")
	assert.Contains(t, out, "✓ testdata/plans/friends.yaml\n")
	assert.Contains(t, out, "✗ testdata/plans/broken.cue\n  line ")
}

func TestValidate_MissingFile(t *testing.T) {
	out, _, err := run(t, NewValidateCommand(&RootOptions{Format: "text"}), planPath("absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, out, "E005: plan file not found")
}

func TestValidate_JSON(t *testing.T) {
	out, _, err := run(t, NewValidateCommand(&RootOptions{Format: "json"}),
		planPath("friends.yaml"), planPath("broken.cue"))
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodePlanInvalid, resp.Error.Code)

	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Plans, 2)
	assert.Equal(t, PlanCheck{Path: planPath("friends.yaml"), Valid: true}, resp.Data.Plans[0])

	broken := resp.Data.Plans[1]
	assert.False(t, broken.Valid)
	assert.Equal(t, ErrCodePlanInvalid, broken.Code)
	assert.Positive(t, broken.Line)
	assert.Contains(t, broken.Message, "broken.cue")
}

func TestValidate_RequiresArgs(t *testing.T) {
	_, _, err := run(t, NewValidateCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
}

func TestExplain_Text(t *testing.T) {
	out, _, err := run(t, NewExplainCommand(&RootOptions{Format: "text"}), planPath("friends.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "plan: friends\n")
	assert.Contains(t, out, "form: SELECT\n")
	assert.Contains(t, out, "variables: [name age]\n")
	assert.Contains(t, out, "data: 6 triples\n")
	assert.Contains(t, out, "algebra: ")
	assert.NotContains(t, out, "from:")

	out, _, err = run(t, NewExplainCommand(&RootOptions{Format: "text"}), planPath("ask.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "form: ASK\n")
}

func TestExplain_JSON(t *testing.T) {
	out, _, err := run(t, NewExplainCommand(&RootOptions{Format: "json"}), planPath("friends.cue"))
	require.NoError(t, err)

	var resp struct {
		Data ExplainOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "friends", resp.Data.Plan)
	assert.Equal(t, "SELECT", resp.Data.Form)
	assert.Equal(t, []string{"name", "age"}, resp.Data.Variables)
	assert.Equal(t, 6, resp.Data.Triples)
	assert.NotEmpty(t, resp.Data.Algebra)
}

func TestExplain_InvalidPlan(t *testing.T) {
	out, _, err := run(t, NewExplainCommand(&RootOptions{Format: "text"}), planPath("invalid.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E201]")
}
