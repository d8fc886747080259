package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/leviathan/internal/testutil"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func testQueryCommand(format string) *cobra.Command {
	return newQueryCommand(&QueryOptions{
		RootOptions: &RootOptions{Format: format},
		Tokens:      testutil.NewFixedToken("cli-test"),
	})
}

func TestQuery_Text(t *testing.T) {
	tests := []struct {
		golden string
		plan   string
	}{
		{"query_friends", "friends.yaml"},
		{"query_friends", "friends.cue"},
		{"query_ask", "ask.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			out, _, err := run(t, testQueryCommand("text"), planPath(tt.plan))
			require.NoError(t, err)
			newGoldie(t).Assert(t, tt.golden, []byte(out))
		})
	}
}

type queryResponse struct {
	Status string `json:"status"`
	Data   struct {
		Execution string `json:"execution"`
		Seq       int64  `json:"seq"`
		Elapsed   string `json:"elapsed"`
		Result    struct {
			Head struct {
				Vars []string `json:"vars"`
			} `json:"head"`
			Results struct {
				Bindings []map[string]map[string]string `json:"bindings"`
			} `json:"results"`
			Boolean *bool `json:"boolean"`
		} `json:"result"`
	} `json:"data"`
	Execution string `json:"execution"`
}

func TestQuery_JSON(t *testing.T) {
	out, _, err := run(t, testQueryCommand("json"), planPath("friends.yaml"))
	require.NoError(t, err)

	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "cli-test", resp.Execution)
	assert.Equal(t, "cli-test", resp.Data.Execution)
	assert.Equal(t, int64(1), resp.Data.Seq)
	assert.NotEmpty(t, resp.Data.Elapsed)
	assert.Equal(t, []string{"name", "age"}, resp.Data.Result.Head.Vars)

	bindings := resp.Data.Result.Results.Bindings
	require.Len(t, bindings, 2)
	assert.Equal(t, map[string]string{"type": "literal", "value": "Bob"}, bindings[0]["name"])
	assert.Equal(t, "25", bindings[0]["age"]["value"])
	assert.NotContains(t, bindings[1], "age")
}

func TestQuery_JSONAsk(t *testing.T) {
	out, _, err := run(t, testQueryCommand("json"), planPath("ask.yaml"))
	require.NoError(t, err)

	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Data.Result.Boolean)
	assert.True(t, *resp.Data.Result.Boolean)
}

func TestQuery_Config(t *testing.T) {
	out, _, err := run(t, testQueryCommand("text"),
		"--config", filepath.Join("testdata", "engine.yaml"),
		"--timeout", "2s",
		planPath("friends.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "2 solutions")
}

func TestQuery_VerboseLogsToStderr(t *testing.T) {
	cmd := newQueryCommand(&QueryOptions{
		RootOptions: &RootOptions{Format: "text", Verbose: true},
		Tokens:      testutil.NewFixedToken("cli-test"),
	})
	out, errOut, err := run(t, cmd, planPath("ask.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, out, "level=")
	assert.Contains(t, errOut, "plan loaded")
	assert.Contains(t, errOut, "execution=cli-test")
}

func TestQuery_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		exitCode int
		want     string
	}{
		{"missing plan", []string{planPath("absent.yaml")}, ExitCommandError, "plan file not found"},
		{"invalid plan", []string{planPath("invalid.yaml")}, ExitCommandError, "negative limit or offset"},
		{"broken cue", []string{planPath("broken.cue")}, ExitCommandError, "broken.cue"},
		{"missing config", []string{"--config", "absent.yaml", planPath("ask.yaml")}, ExitCommandError, "failed to load config"},
		{"bad config", []string{"--config", planPath("ask.yaml"), planPath("ask.yaml")}, ExitCommandError, "failed to load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, testQueryCommand("text"), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.Contains(t, out, "Error [")
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestQuery_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := testQueryCommand("json")
	cmd.SetArgs([]string{planPath("friends.yaml")})
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	err := cmd.ExecuteContext(ctx)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeQueryFailed, resp.Error.Code)
}
