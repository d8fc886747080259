package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/leviathan/internal/rdf"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]int{"triples": 6})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"triples": float64(6)}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodePlanInvalid, "plan invalid", map[string]string{"field": "query.where"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodePlanInvalid, resp.Error.Code)
	assert.Equal(t, "plan invalid", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error(ErrCodeStore, "failed to open database", "disk full"))
			assert.Contains(t, buf.String(), "Error [E203]: failed to open database")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details: disk full")
			} else {
				assert.NotContains(t, buf.String(), "Details")
			}
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}
	cause := errors.New("no such table")

	err := formatter.Fail(ExitCommandError, ErrCodeStore, "failed to list graphs", cause)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Error [E203]: failed to list graphs: no such table\n", buf.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: errOut,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Validating plan: %s", "friends.yaml")

			assert.Empty(t, out.String())
			if tt.wantLog {
				assert.Equal(t, "Validating plan: friends.yaml\n", errOut.String())
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitFailure, "failed"))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	err := WrapExitError(ExitCommandError, "failed to load plan", errors.New("missing"))
	assert.Equal(t, "failed to load plan: missing", err.Error())
}

func TestFormatTerm(t *testing.T) {
	tests := []struct {
		term rdf.Term
		want string
	}{
		{nil, "UNDEF"},
		{rdf.IRI("http://example.org/a"), "<http://example.org/a>"},
		{rdf.BlankNode("b1"), "_:b1"},
		{rdf.NewLiteral("Bob"), `"Bob"`},
		{rdf.NewLangLiteral("chat", "FR"), `"chat"@fr`},
		{rdf.NewInteger(25), "25"},
		{rdf.NewBoolean(true), "true"},
		{rdf.NewTypedLiteral("2024-01-01", rdf.IRI("http://www.w3.org/2001/XMLSchema#date")),
			`"2024-01-01"^^<http://www.w3.org/2001/XMLSchema#date>`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatTerm(tt.term))
	}
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 solution", plural(1, "solutions"))
	assert.Equal(t, "0 solutions", plural(0, "solutions"))
	assert.Equal(t, "2 graphs", plural(2, "graph"))
}
