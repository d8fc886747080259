package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/leviathan/internal/engine"
	"github.com/roach88/leviathan/internal/eval"
	"github.com/roach88/leviathan/internal/plan"
	"github.com/roach88/leviathan/internal/rdf"
	"github.com/roach88/leviathan/internal/solution"
	"github.com/roach88/leviathan/internal/testutil"
)

func boolPtr(b bool) *bool { return &b }

func selectResult(rows ...*solution.Set) *Result {
	r := NewResult()
	r.Query = &engine.Result{Form: eval.FormSelect, Variables: []string{"n", "m"}, Solutions: rows}
	return r
}

func TestEvaluateAssertions(t *testing.T) {
	result := selectResult(
		testutil.Row("n", rdf.NewInteger(1), "m", rdf.NewLiteral("one")),
		testutil.Row("n", rdf.NewInteger(2)),
	)
	actx := &AssertionContext{Plan: &plan.Plan{Prefixes: map[string]string{"ex": "http://example.org/"}}}

	tests := []struct {
		name      string
		assertion Assertion
		pass      bool
	}{
		{"count", Assertion{Type: AssertSolutionCount, Count: 2}, true},
		{"count mismatch", Assertion{Type: AssertSolutionCount, Count: 1}, false},
		{"column", Assertion{Type: AssertColumn, Var: "m", Values: []string{`"one"`, "UNDEF"}}, true},
		{"column order matters", Assertion{Type: AssertColumn, Var: "n", Values: []string{"2", "1"}}, false},
		{"column length matters", Assertion{Type: AssertColumn, Var: "n", Values: []string{"1"}}, false},
		{"contains subset", Assertion{Type: AssertContains, Row: map[string]string{"n": "2"}}, true},
		{"contains unbound", Assertion{Type: AssertContains, Row: map[string]string{"n": "2", "m": "UNDEF"}}, true},
		{"contains missing", Assertion{Type: AssertContains, Row: map[string]string{"n": "2", "m": `"one"`}}, false},
		{"partial", Assertion{Type: AssertPartial, Value: boolPtr(false)}, true},
		{"partial mismatch", Assertion{Type: AssertPartial, Value: boolPtr(true)}, false},
		{"ask on select", Assertion{Type: AssertAsk, Value: boolPtr(true)}, false},
		{"graph triples without store", Assertion{Type: AssertGraphTriples, Count: 0}, false},
		{"unknown", Assertion{Type: "rows"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tt.assertion}, actx)
			if tt.pass {
				assert.Empty(t, errs)
			} else {
				assert.Len(t, errs, 1)
			}
		})
	}
}

func TestEvaluateAssertions_TermErrors(t *testing.T) {
	result := selectResult(testutil.Row("n", rdf.NewInteger(1)))
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertColumn, Var: "n", Values: []string{"nope:x"}},
		{Type: AssertContains, Row: map[string]string{"n": "?v"}},
	}, nil)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "column n: value 0")
	assert.Contains(t, errs[1], "contains: ?n")
}

func TestEvaluateAssertions_WithoutResult(t *testing.T) {
	result := NewResult()
	result.ExecutionError = "boom"

	errs := EvaluateAssertions(result, []Assertion{{Type: AssertSolutionCount, Count: 0}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "needs a result")
}

func TestEvaluateAssertions_PartialResult(t *testing.T) {
	result := NewResult()
	result.Query = &engine.Result{Form: eval.FormAsk, Ask: true, Partial: true}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertAsk, Value: boolPtr(true)},
		{Type: AssertPartial, Value: boolPtr(true)},
	}, nil)
	assert.Empty(t, errs)
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:      AssertSolutionCount,
		Expected:  "3 solutions",
		Actual:    "1 solutions",
		Solutions: []string{`{?n = 1}`},
	}
	assert.Equal(t, "Assertion failed: solution_count\n"+
		"  Expected: 3 solutions\n"+
		"  Actual: 1 solutions\n"+
		"\nSolutions:\n"+
		"  [1] {?n = 1}\n", err.Error())
}
