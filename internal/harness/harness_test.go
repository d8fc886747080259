package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_GoldenScenarios(t *testing.T) {
	for _, name := range []string{"friends_of_alice", "knows_carol", "anonymous_authors"} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_IsDeterministic(t *testing.T) {
	s := loadScenario(t, "anonymous_authors")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := NewSnapshot(s.Name, first).Marshal()
	require.NoError(t, err)
	b, err := NewSnapshot(s.Name, second).Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_ExpectedError(t *testing.T) {
	result, err := Run(loadScenario(t, "negative_limit"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Nil(t, result.Query)
	assert.Contains(t, result.ExecutionError, "negative limit or offset")
}

func TestRun_WrongExpectedError(t *testing.T) {
	s := loadScenario(t, "negative_limit")
	s.ExpectError = "timeout"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `expected error containing "timeout"`)
}

func TestRun_UnexpectedSuccess(t *testing.T) {
	s := loadScenario(t, "knows_carol")
	s.ExpectError = "anything"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.NotNil(t, result.Query)
	assert.Contains(t, result.Errors[0], "but the query succeeded")
}

func TestRun_FailedAssertionsReportSolutions(t *testing.T) {
	s := loadScenario(t, "friends_of_alice")
	s.Assertions = []Assertion{
		{Type: AssertSolutionCount, Count: 3},
		{Type: AssertContains, Row: map[string]string{"name": `"Dave"`}},
		{Type: AssertGraphTriples, Graph: "http://example.org/friends", Count: 5},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "Assertion failed: solution_count")
	assert.Contains(t, result.Errors[0], "Actual: 2 solutions")
	assert.Contains(t, result.Errors[0], `?name = "Bob"`)
	assert.Contains(t, result.Errors[1], `a solution with {?name = "Dave"}`)
	assert.Contains(t, result.Errors[2], "Actual: 2 triples")
}

func TestRun_SetupErrors(t *testing.T) {
	s := loadScenario(t, "knows_carol")
	s.Plan = filepath.Join("testdata", "plans", "absent.yaml")
	_, err := Run(s)
	assert.ErrorIs(t, err, os.ErrNotExist)

	s = loadScenario(t, "knows_carol")
	s.Config = filepath.Join("testdata", "absent.yaml")
	_, err = Run(s)
	assert.ErrorContains(t, err, "failed to load config")
}
